package users

import (
	"context"
	"fmt"
	"strings"

	"github.com/playpalm/playpalm-backend/internal/audit"
	"github.com/playpalm/playpalm-backend/pkg/config"
	"github.com/playpalm/playpalm-backend/pkg/enums"
	pkgerrors "github.com/playpalm/playpalm-backend/pkg/errors"
	"github.com/playpalm/playpalm-backend/pkg/logger"
	"github.com/playpalm/playpalm-backend/pkg/security"
)

// Actor identifies the authenticated caller.
type Actor struct {
	UserID   int64
	Username string
	Role     enums.Role
}

// Service exposes user account management.
type Service interface {
	Me(ctx context.Context, actor Actor) (*UserDTO, error)
	List(ctx context.Context, actor Actor) ([]UserDTO, error)
	Create(ctx context.Context, actor Actor, input CreateInput) (*UserDTO, error)
	Update(ctx context.Context, actor Actor, id int64, input UpdateInput) (*UserDTO, error)
	VerifyCredentials(ctx context.Context, username, password string) (*UserDTO, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type lastLoginToucher interface {
	TouchLastLogin(ctx context.Context, id int64)
}

type service struct {
	remote Store
	local  Store
	audit  auditRecorder
	logg   *logger.Logger
	pwCfg  config.PasswordConfig
}

// NewService wires the user service. remote may be nil in local-only mode.
func NewService(remote, local Store, auditLog auditRecorder, logg *logger.Logger, pwCfg config.PasswordConfig) (Service, error) {
	if local == nil {
		return nil, fmt.Errorf("local store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{remote: remote, local: local, audit: auditLog, logg: logg, pwCfg: pwCfg}, nil
}

// pick runs fn against the remote store first, falling back to local only
// on dependency failures.
func pick[T any](ctx context.Context, s *service, op string, fn func(st Store) (T, error)) (T, error) {
	if s.remote != nil {
		out, err := fn(s.remote)
		if err == nil {
			return out, nil
		}
		if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
			var zero T
			return zero, err
		}
		s.logg.Error(ctx, "remote user store failed, falling back to local: "+op, err)
	}
	return fn(s.local)
}

func (s *service) Me(ctx context.Context, actor Actor) (*UserDTO, error) {
	rec, err := pick(ctx, s, "me", func(st Store) (*Record, error) {
		return st.FindByID(ctx, actor.UserID)
	})
	if err != nil {
		return nil, err
	}
	dto := rec.UserDTO
	return &dto, nil
}

func (s *service) List(ctx context.Context, actor Actor) ([]UserDTO, error) {
	if !actor.Role.CanManageCatalog() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: requires manager or admin role")
	}
	return pick(ctx, s, "list", func(st Store) ([]UserDTO, error) {
		return st.List(ctx)
	})
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*UserDTO, error) {
	if !actor.Role.CanManageCatalog() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: requires manager or admin role")
	}

	var missing []string
	if strings.TrimSpace(input.Username) == "" {
		missing = append(missing, "username")
	}
	if input.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields: "+strings.Join(missing, ", "))
	}

	role := enums.RoleStaff
	if strings.TrimSpace(input.Role) != "" {
		parsed, err := enums.ParseRole(strings.TrimSpace(input.Role))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid role")
		}
		role = parsed
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	draft := Draft{
		Username:      strings.TrimSpace(input.Username),
		PasswordHash:  hash,
		FirstName:     strings.TrimSpace(input.FirstName),
		LastName:      strings.TrimSpace(input.LastName),
		Email:         input.Email,
		Role:          role,
		ContactNumber: input.ContactNumber,
		Location:      input.Location,
	}

	created, err := pick(ctx, s, "create", func(st Store) (*UserDTO, error) {
		return st.Create(ctx, draft)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor, enums.AuditActionCreate, created.ID, map[string]any{
		"username": created.Username,
		"role":     string(created.Role),
	})
	return created, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id int64, input UpdateInput) (*UserDTO, error) {
	// self-service or admin only
	if actor.UserID != id && actor.Role != enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden")
	}

	patch := Patch{
		Username:      input.Username,
		Email:         input.Email,
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		ContactNumber: input.ContactNumber,
		Location:      input.Location,
	}
	if input.Role != nil {
		// only admins may change roles, including their own
		if actor.Role != enums.RoleAdmin {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden")
		}
		parsed, err := enums.ParseRole(strings.TrimSpace(*input.Role))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid role")
		}
		patch.Role = &parsed
	}

	updated, err := pick(ctx, s, "update", func(st Store) (*UserDTO, error) {
		return st.Update(ctx, id, patch)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor, enums.AuditActionUpdate, id, map[string]any{
		"username": updated.Username,
	})
	return updated, nil
}

func (s *service) VerifyCredentials(ctx context.Context, username, password string) (*UserDTO, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password required")
	}

	rec, err := pick(ctx, s, "verify", func(st Store) (*Record, error) {
		return st.FindByUsername(ctx, username)
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid credentials")
		}
		return nil, err
	}

	ok, err := security.VerifyPassword(password, rec.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid credentials")
	}

	if toucher, can := s.remote.(lastLoginToucher); can && s.remote != nil {
		toucher.TouchLastLogin(ctx, rec.ID)
	}

	dto := rec.UserDTO
	return &dto, nil
}

func (s *service) recordAudit(ctx context.Context, actor Actor, action enums.AuditAction, entityID int64, detail map[string]any) {
	if s.audit == nil {
		return
	}
	entry := audit.Entry{
		Action:     action,
		EntityType: enums.AuditEntityUser,
		EntityID:   entityID,
		ActorRole:  string(actor.Role),
		Detail:     detail,
	}
	if actor.UserID > 0 {
		actorID := actor.UserID
		entry.ActorID = &actorID
	}
	s.audit.Record(ctx, entry)
}
