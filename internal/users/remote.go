package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/playpalm/playpalm-backend/pkg/db"
	"github.com/playpalm/playpalm-backend/pkg/db/models"
	pkgerrors "github.com/playpalm/playpalm-backend/pkg/errors"
)

// RemoteStore keeps user accounts in the relational database.
type RemoteStore struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewRemoteStore builds a remote user store.
func NewRemoteStore(gdb *gorm.DB, timeout time.Duration) (*RemoteStore, error) {
	if gdb == nil {
		return nil, fmt.Errorf("gorm db required")
	}
	return &RemoteStore{db: gdb, timeout: timeout}, nil
}

func (r *RemoteStore) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *RemoteStore) List(ctx context.Context) ([]UserDTO, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	var rows []models.User
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, userToDTO(&rows[i]))
	}
	return out, nil
}

func (r *RemoteStore) FindByID(ctx context.Context, id int64) (*Record, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	var row models.User
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading user")
	}
	rec := userToRecord(&row)
	return &rec, nil
}

func (r *RemoteStore) FindByUsername(ctx context.Context, username string) (*Record, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	var row models.User
	err := r.db.WithContext(ctx).
		Where("lower(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading user")
	}
	rec := userToRecord(&row)
	return &rec, nil
}

func (r *RemoteStore) Create(ctx context.Context, draft Draft) (*UserDTO, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	row := models.User{
		Username:      strings.TrimSpace(draft.Username),
		Email:         draft.Email,
		PasswordHash:  draft.PasswordHash,
		FirstName:     draft.FirstName,
		LastName:      draft.LastName,
		Role:          draft.Role,
		ContactNumber: draft.ContactNumber,
		Location:      draft.Location,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Username already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting user")
	}
	dto := userToDTO(&row)
	return &dto, nil
}

func (r *RemoteStore) Update(ctx context.Context, id int64, patch Patch) (*UserDTO, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	var row models.User
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading user")
	}

	if patch.Username != nil {
		row.Username = strings.TrimSpace(*patch.Username)
	}
	if patch.Email != nil {
		row.Email = patch.Email
	}
	if patch.FirstName != nil {
		row.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		row.LastName = *patch.LastName
	}
	if patch.Role != nil {
		row.Role = *patch.Role
	}
	if patch.ContactNumber != nil {
		row.ContactNumber = patch.ContactNumber
	}
	if patch.Location != nil {
		row.Location = patch.Location
	}

	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Username already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating user")
	}
	dto := userToDTO(&row)
	return &dto, nil
}

// TouchLastLogin stamps the last successful login. Best effort.
func (r *RemoteStore) TouchLastLogin(ctx context.Context, id int64) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()
	now := time.Now().UTC()
	_ = r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", now).Error
}

func userToDTO(row *models.User) UserDTO {
	return UserDTO{
		ID:            row.ID,
		Username:      row.Username,
		Email:         row.Email,
		FirstName:     row.FirstName,
		LastName:      row.LastName,
		Role:          row.Role,
		ContactNumber: row.ContactNumber,
		Location:      row.Location,
	}
}

func userToRecord(row *models.User) Record {
	return Record{UserDTO: userToDTO(row), PasswordHash: row.PasswordHash}
}
