package audit

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/playpalm/playpalm-backend/pkg/db/models"
	"github.com/playpalm/playpalm-backend/pkg/enums"
	"github.com/playpalm/playpalm-backend/pkg/logger"
	"github.com/playpalm/playpalm-backend/pkg/metrics"
)

// Entry is one catalog mutation to record.
type Entry struct {
	Action     enums.AuditAction
	EntityType enums.AuditEntity
	EntityID   int64
	ActorID    *int64
	ActorRole  string
	Detail     map[string]any
}

// Logger persists audit entries to the remote database. Writes are best
// effort: failures are logged and counted, never returned to the caller.
// With no database configured every call is a no-op.
type Logger struct {
	db      *gorm.DB
	logg    *logger.Logger
	metrics *metrics.CatalogMetrics
}

// NewLogger builds an audit logger. db may be nil in local-only mode.
func NewLogger(db *gorm.DB, logg *logger.Logger, m *metrics.CatalogMetrics) *Logger {
	return &Logger{db: db, logg: logg, metrics: m}
}

// Record writes one entry, swallowing any failure.
func (l *Logger) Record(ctx context.Context, entry Entry) {
	if l == nil || l.db == nil {
		return
	}

	var detail *string
	if len(entry.Detail) > 0 {
		if raw, err := json.Marshal(entry.Detail); err == nil {
			s := string(raw)
			detail = &s
		}
	}

	row := models.AuditLog{
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		ActorID:    entry.ActorID,
		Detail:     detail,
	}
	if entry.ActorRole != "" {
		role := entry.ActorRole
		row.ActorRole = &role
	}

	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		l.metrics.IncAuditFailure()
		if l.logg != nil {
			l.logg.Error(ctx, "audit log write failed", err)
		}
	}
}
