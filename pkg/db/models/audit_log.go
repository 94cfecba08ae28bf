package models

import (
	"time"

	"github.com/playpalm/playpalm-backend/pkg/enums"
)

// AuditLog records a catalog mutation. Writes are best effort and never
// block the triggering request.
type AuditLog struct {
	ID         int64             `gorm:"column:id;primaryKey;autoIncrement"`
	Action     enums.AuditAction `gorm:"column:action;not null"`
	EntityType enums.AuditEntity `gorm:"column:entity_type;not null"`
	EntityID   int64             `gorm:"column:entity_id;not null"`
	ActorID    *int64            `gorm:"column:actor_id"`
	ActorRole  *string           `gorm:"column:actor_role"`
	Detail     *string           `gorm:"column:detail"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (AuditLog) TableName() string { return "audit_logs" }
