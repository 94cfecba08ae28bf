package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/playpalm/playpalm-backend/pkg/db"
	"github.com/playpalm/playpalm-backend/pkg/db/models"
	"github.com/playpalm/playpalm-backend/pkg/enums"
	pkgerrors "github.com/playpalm/playpalm-backend/pkg/errors"
)

// RemoteStore persists products in the relational database. Every call is
// bounded by the configured timeout; driver failures come back as
// dependency errors so the service can fall through to the local store.
type RemoteStore struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewRemoteStore builds a remote store around the GORM handle.
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

func (r *RemoteStore) List(ctx context.Context) ([]ProductDTO, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Brand").Preload("Category").Preload("Manufacturer").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing products")
	}

	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

func (r *RemoteStore) FindByID(ctx context.Context, id int64) (*ProductDTO, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	row, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(row)
	return &dto, nil
}

func (r *RemoteStore) Search(ctx context.Context, name string, limit int) ([]ProductDTO, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	term := normalizeName(name)
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Brand").Preload("Category").Preload("Manufacturer").
		Where("lower(name) LIKE ?", "%"+term+"%").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "searching products")
	}

	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toDTO(&rows[i]))
	}
	return out, nil
}

func (r *RemoteStore) Create(ctx context.Context, draft Draft) (*ProductDTO, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	if err := r.checkVariantFree(ctx, draft.Name, draft.Edition, 0); err != nil {
		return nil, err
	}

	brandID := r.resolveRef(ctx, "brands", draft.Brand)
	if brandID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Unable to resolve brand")
	}
	categoryID := r.resolveRef(ctx, "categories", draft.Category)
	var manufacturerID *int64
	if draft.Manufacturer != nil {
		manufacturerID = r.resolveRef(ctx, "manufacturers", *draft.Manufacturer)
	}

	row := models.Product{
		Name:           strings.TrimSpace(draft.Name),
		SKU:            draft.SKU,
		BrandID:        brandID,
		CategoryID:     categoryID,
		ManufacturerID: manufacturerID,
		Edition:        draft.Edition,
		Storage:        draft.Storage,
		Price:          draft.Price,
		Stock:          draft.Stock,
		Status:         draft.Status,
		Tags:           pq.StringArray(draft.Tags),
		ReleaseDate:    draft.ReleaseDate,
		Image:          draft.Image,
		Description:    draft.Description,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Product name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting product")
	}

	return r.FindByID(ctx, row.ID)
}

func (r *RemoteStore) Update(ctx context.Context, id int64, patch Patch) (*ProductDTO, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	row, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}

	name := row.Name
	if patch.Name != nil {
		name = *patch.Name
	}
	edition := row.Edition
	if patch.Edition != nil {
		edition = emptyToNil(*patch.Edition)
	}
	if patch.Name != nil || patch.Edition != nil {
		if err := r.checkVariantFree(ctx, name, edition, id); err != nil {
			return nil, err
		}
	}

	if patch.Name != nil {
		row.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.SKU != nil {
		row.SKU = emptyToNil(*patch.SKU)
	}
	if patch.Brand != nil {
		if brandID := r.resolveRef(ctx, "brands", *patch.Brand); brandID != nil {
			row.BrandID = brandID
			row.Brand = nil
		}
	}
	if patch.Category != nil {
		row.CategoryID = r.resolveRef(ctx, "categories", *patch.Category)
		row.Category = nil
	}
	if patch.Manufacturer != nil {
		row.ManufacturerID = r.resolveRef(ctx, "manufacturers", *patch.Manufacturer)
		row.Manufacturer = nil
	}
	if patch.Edition != nil {
		row.Edition = emptyToNil(*patch.Edition)
	}
	if patch.Storage != nil {
		row.Storage = emptyToNil(*patch.Storage)
	}
	if patch.Price != nil {
		row.Price = *patch.Price
	}
	if patch.Stock != nil {
		row.Stock = *patch.Stock
	}
	if patch.Status != nil {
		row.Status = *patch.Status
	}
	if patch.Description != nil {
		row.Description = emptyToNil(*patch.Description)
	}
	if patch.ReleaseDate != nil {
		row.ReleaseDate = emptyToNil(*patch.ReleaseDate)
	}
	if patch.Tags != nil {
		row.Tags = pq.StringArray(*patch.Tags)
	}
	if patch.Image != nil {
		row.Image = emptyToNil(*patch.Image)
	}

	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Product name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating product")
	}

	return r.FindByID(ctx, id)
}

func (r *RemoteStore) Delete(ctx context.Context, id int64) (*ProductDTO, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	row, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(row)

	if err := r.db.WithContext(ctx).Delete(&models.Product{}, id).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting product")
	}
	return &dto, nil
}

func (r *RemoteStore) load(ctx context.Context, id int64) (*models.Product, error) {
	var row models.Product
	err := r.db.WithContext(ctx).
		Preload("Brand").Preload("Category").Preload("Manufacturer").
		First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}
	return &row, nil
}

// checkVariantFree enforces case-insensitive (name, edition) uniqueness
// before a write. The DB unique index backs this up for races.
func (r *RemoteStore) checkVariantFree(ctx context.Context, name string, edition *string, excludeID int64) error {
	ed := ""
	if edition != nil {
		ed = *edition
	}
	q := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("lower(trim(name)) = ? AND lower(trim(coalesce(edition, ''))) = ?", normalizeName(name), normalizeName(ed))
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking product uniqueness")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "Product name already exists")
	}
	return nil
}

func toDTO(row *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          row.ID,
		SKU:         row.SKU,
		Name:        row.Name,
		Edition:     row.Edition,
		Storage:     row.Storage,
		Price:       NewMoney(row.Price),
		Stock:       row.Stock,
		Status:      row.Status,
		Description: row.Description,
		ReleaseDate: row.ReleaseDate,
		Tags:        append([]string{}, row.Tags...),
		Image:       row.Image,
	}
	if dto.Status == "" {
		dto.Status = enums.StatusForStock(row.Stock)
	}
	if row.Brand != nil {
		dto.Brand = &row.Brand.Name
	}
	if row.Category != nil {
		dto.Category = &row.Category.Name
	}
	if row.Manufacturer != nil {
		dto.Manufacturer = &row.Manufacturer.Name
	}
	return dto
}

func emptyToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
