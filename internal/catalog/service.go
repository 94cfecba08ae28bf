package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/playpalm/playpalm-backend/internal/audit"
	"github.com/playpalm/playpalm-backend/pkg/enums"
	pkgerrors "github.com/playpalm/playpalm-backend/pkg/errors"
	"github.com/playpalm/playpalm-backend/pkg/logger"
	"github.com/playpalm/playpalm-backend/pkg/metrics"
)

// Actor identifies the authenticated caller for role gating and auditing.
type Actor struct {
	UserID   int64
	Username string
	Role     enums.Role
}

// CreateInput is the decoded create-product request body.
type CreateInput struct {
	Name         string   `json:"name"`
	Brand        string   `json:"brand"`
	Category     *string  `json:"category"`
	Price        *Money   `json:"price"`
	Stock        *FlexInt `json:"stock"`
	Description  *string  `json:"description"`
	SKU          *string  `json:"sku"`
	Manufacturer *string  `json:"manufacturer"`
	Storage      *string  `json:"storage"`
	Edition      *string  `json:"edition"`
	ReleaseDate  *string  `json:"releaseDate"`
	Tags         *TagList `json:"tags"`
	Image        *string  `json:"image"`
}

// UpdateInput is the decoded partial-update request body.
type UpdateInput struct {
	Name         *string  `json:"name"`
	Brand        *string  `json:"brand"`
	Category     *string  `json:"category"`
	Price        *Money   `json:"price"`
	Stock        *FlexInt `json:"stock"`
	Description  *string  `json:"description"`
	SKU          *string  `json:"sku"`
	Manufacturer *string  `json:"manufacturer"`
	Storage      *string  `json:"storage"`
	Edition      *string  `json:"edition"`
	ReleaseDate  *string  `json:"releaseDate"`
	Tags         *TagList `json:"tags"`
	Image        *string  `json:"image"`
}

// StockUpdateInput carries either an additive delta (under any of its
// accepted aliases) or an absolute stock value, never both.
type StockUpdateInput struct {
	Stock    *FlexInt `json:"stock"`
	Delta    *FlexInt `json:"delta"`
	Quantity *FlexInt `json:"quantity"`
	Amount   *FlexInt `json:"amount"`
}

func (in StockUpdateInput) delta() *FlexInt {
	switch {
	case in.Delta != nil:
		return in.Delta
	case in.Quantity != nil:
		return in.Quantity
	case in.Amount != nil:
		return in.Amount
	}
	return nil
}

// DeleteResult mirrors the delete response body.
type DeleteResult struct {
	Message string     `json:"message"`
	Product ProductDTO `json:"product"`
}

// Service exposes the catalog operations behind the HTTP surface.
type Service interface {
	List(ctx context.Context) ([]ProductDTO, error)
	Get(ctx context.Context, id int64) (*ProductDTO, error)
	Search(ctx context.Context, name string) ([]ProductDTO, error)
	Create(ctx context.Context, actor Actor, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, actor Actor, id int64, input UpdateInput) (*ProductDTO, error)
	UpdateStock(ctx context.Context, actor Actor, id int64, input StockUpdateInput) (*ProductDTO, error)
	ReduceStock(ctx context.Context, actor Actor, id int64, delta int) (*ProductDTO, error)
	UpdatePrice(ctx context.Context, actor Actor, id int64, price decimal.Decimal) (*ProductDTO, error)
	Delete(ctx context.Context, actor Actor, id int64) (*DeleteResult, error)
}

type auditRecorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

type service struct {
	remote          Store
	local           Store
	cache           *Cache
	audit           auditRecorder
	metrics         *metrics.CatalogMetrics
	logg            *logger.Logger
	defaultCategory string
	searchLimit     int
}

// NewService wires the catalog service. remote may be nil (local-only
// mode); local and the cache are always required.
func NewService(remote, local Store, cache *Cache, auditLog auditRecorder, m *metrics.CatalogMetrics, logg *logger.Logger, defaultCategory string, searchLimit int) (Service, error) {
	if local == nil {
		return nil, fmt.Errorf("local store required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if defaultCategory == "" {
		defaultCategory = "Console"
	}
	if searchLimit <= 0 {
		searchLimit = 20
	}
	return &service{
		remote:          remote,
		local:           local,
		cache:           cache,
		audit:           auditLog,
		metrics:         m,
		logg:            logg,
		defaultCategory: defaultCategory,
		searchLimit:     searchLimit,
	}, nil
}

// run executes fn against the remote store first and falls through to the
// local store only on dependency failures. Validation, conflict, and
// not-found outcomes surface from whichever store answered.
func (s *service) run(ctx context.Context, op string, fn func(st Store) (*ProductDTO, error)) (*ProductDTO, error) {
	if s.remote != nil {
		start := time.Now()
		dto, err := fn(s.remote)
		s.metrics.ObserveRemote(op, time.Since(start))
		if err == nil {
			return dto, nil
		}
		if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
			return nil, err
		}
		s.logg.Error(ctx, "remote store failed, falling back to local: "+op, err)
		s.metrics.IncFallback(op)
	}
	return fn(s.local)
}

func (s *service) List(ctx context.Context) ([]ProductDTO, error) {
	if items, ok := s.cache.GetList(); ok {
		s.metrics.IncCacheHit("list")
		return items, nil
	}
	s.metrics.IncCacheMiss("list")

	if s.remote != nil {
		start := time.Now()
		remoteItems, err := s.remote.List(ctx)
		s.metrics.ObserveRemote("list", time.Since(start))
		if err == nil && len(remoteItems) > 0 {
			s.cache.PutList(remoteItems)
			return remoteItems, nil
		}
		if err != nil {
			s.logg.Error(ctx, "remote store failed, falling back to local: list", err)
			s.metrics.IncFallback("list")
		}
	}

	// Local reads are never cached; the fallback file is not authoritative.
	return s.local.List(ctx)
}

func (s *service) Get(ctx context.Context, id int64) (*ProductDTO, error) {
	if item, ok := s.cache.GetItem(id); ok {
		s.metrics.IncCacheHit("get")
		return item, nil
	}
	s.metrics.IncCacheMiss("get")

	if s.remote != nil {
		start := time.Now()
		item, err := s.remote.FindByID(ctx, id)
		s.metrics.ObserveRemote("get", time.Since(start))
		if err == nil {
			s.cache.PutItem(*item)
			return item, nil
		}
		// A remote miss also checks the fallback file; the id may only
		// exist there.
		if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, err
		}
		if pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
			s.logg.Error(ctx, "remote store failed, falling back to local: get", err)
			s.metrics.IncFallback("get")
		}
	}
	return s.local.FindByID(ctx, id)
}

func (s *service) Search(ctx context.Context, name string) ([]ProductDTO, error) {
	term := normalizeName(name)
	if term == "" {
		return []ProductDTO{}, nil
	}

	// A fresh list snapshot answers searches without a store round-trip.
	if items, ok := s.cache.GetList(); ok {
		s.metrics.IncCacheHit("search")
		out := make([]ProductDTO, 0, s.searchLimit)
		for i := range items {
			if strings.Contains(normalizeName(items[i].Name), term) {
				out = append(out, items[i])
				if len(out) >= s.searchLimit {
					break
				}
			}
		}
		return out, nil
	}
	s.metrics.IncCacheMiss("search")

	if s.remote != nil {
		start := time.Now()
		items, err := s.remote.Search(ctx, term, s.searchLimit)
		s.metrics.ObserveRemote("search", time.Since(start))
		if err == nil && len(items) > 0 {
			return items, nil
		}
		if err != nil {
			s.logg.Error(ctx, "remote store failed, falling back to local: search", err)
			s.metrics.IncFallback("search")
		}
	}
	return s.local.Search(ctx, term, s.searchLimit)
}

func (s *service) Create(ctx context.Context, actor Actor, input CreateInput) (*ProductDTO, error) {
	if !actor.Role.CanManageCatalog() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: requires manager or admin role")
	}

	var missing []string
	if strings.TrimSpace(input.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(input.Brand) == "" {
		missing = append(missing, "brand")
	}
	if input.Price == nil {
		missing = append(missing, "price")
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing required fields: "+strings.Join(missing, ", "))
	}
	if input.Price.Decimal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Price must be a non-negative number")
	}

	stock := 0
	if input.Stock != nil {
		stock = int(*input.Stock)
		if stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Stock must be a non-negative integer")
		}
	}

	category := s.defaultCategory
	if input.Category != nil && strings.TrimSpace(*input.Category) != "" {
		category = strings.TrimSpace(*input.Category)
	}

	draft := Draft{
		Name:         strings.TrimSpace(input.Name),
		SKU:          derefEmptyToNil(input.SKU),
		Brand:        strings.TrimSpace(input.Brand),
		Category:     category,
		Manufacturer: derefEmptyToNil(input.Manufacturer),
		Edition:      derefEmptyToNil(input.Edition),
		Storage:      derefEmptyToNil(input.Storage),
		Price:        input.Price.Decimal,
		Stock:        stock,
		Status:       enums.StatusForStock(stock),
		Description:  derefEmptyToNil(input.Description),
		ReleaseDate:  derefEmptyToNil(input.ReleaseDate),
		Image:        derefEmptyToNil(input.Image),
	}
	if input.Tags != nil {
		draft.Tags = []string(*input.Tags)
	}

	created, err := s.run(ctx, "create", func(st Store) (*ProductDTO, error) {
		return st.Create(ctx, draft)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(created.ID)
	s.cache.PutItem(*created)
	s.recordAudit(ctx, actor, enums.AuditActionCreate, created.ID, map[string]any{
		"name":  created.Name,
		"sku":   created.SKU,
		"stock": created.Stock,
	})
	return created, nil
}

func (s *service) Update(ctx context.Context, actor Actor, id int64, input UpdateInput) (*ProductDTO, error) {
	patch, err := s.buildPatch(actor, input)
	if err != nil {
		return nil, err
	}

	updated, err := s.run(ctx, "update", func(st Store) (*ProductDTO, error) {
		return st.Update(ctx, id, patch)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(id)
	s.cache.PutItem(*updated)
	s.recordAudit(ctx, actor, enums.AuditActionUpdate, id, patchDetail(patch))
	return updated, nil
}

// buildPatch converts an update request into a store patch, silently
// dropping everything except stock for staff callers.
func (s *service) buildPatch(actor Actor, input UpdateInput) (Patch, error) {
	var patch Patch

	if actor.Role.CanManageCatalog() {
		patch.Name = input.Name
		patch.SKU = input.SKU
		patch.Brand = input.Brand
		patch.Category = input.Category
		patch.Manufacturer = input.Manufacturer
		patch.Edition = input.Edition
		patch.Storage = input.Storage
		patch.Description = input.Description
		patch.ReleaseDate = input.ReleaseDate
		patch.Image = input.Image
		if input.Price != nil {
			if input.Price.Decimal.IsNegative() {
				return Patch{}, pkgerrors.New(pkgerrors.CodeValidation, "Price must be a non-negative number")
			}
			price := input.Price.Decimal
			patch.Price = &price
		}
		if input.Tags != nil {
			tags := []string(*input.Tags)
			patch.Tags = &tags
		}
	} else if actor.Role != enums.RoleStaff {
		return Patch{}, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: requires manager or admin role")
	}

	if input.Stock != nil {
		stock := int(*input.Stock)
		if stock < 0 {
			return Patch{}, pkgerrors.New(pkgerrors.CodeValidation, "Stock must be a non-negative integer")
		}
		status := enums.StatusForStock(stock)
		patch.Stock = &stock
		patch.Status = &status
	}
	return patch, nil
}

func (s *service) UpdateStock(ctx context.Context, actor Actor, id int64, input StockUpdateInput) (*ProductDTO, error) {
	delta := input.delta()
	if delta != nil && input.Stock != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Provide either a delta or an absolute stock value, not both")
	}
	if delta == nil && input.Stock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Provide a delta or an absolute stock value")
	}
	if delta != nil && int(*delta) <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Delta must be a positive integer")
	}
	if input.Stock != nil && int(*input.Stock) < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Stock must be a non-negative integer")
	}

	updated, err := s.run(ctx, "update_stock", func(st Store) (*ProductDTO, error) {
		// Read-modify-write: deltas are relative to the stock at the
		// moment of the call. Two concurrent deltas on one id can lose
		// an update; that gap is accepted and documented in the tests.
		newStock := 0
		if delta != nil {
			current, err := st.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			newStock = current.Stock + int(*delta)
		} else {
			if _, err := st.FindByID(ctx, id); err != nil {
				return nil, err
			}
			newStock = int(*input.Stock)
		}
		status := enums.StatusForStock(newStock)
		return st.Update(ctx, id, Patch{Stock: &newStock, Status: &status})
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(id)
	s.cache.PutItem(*updated)
	s.recordAudit(ctx, actor, enums.AuditActionUpdateStock, id, map[string]any{
		"stock":  updated.Stock,
		"status": updated.Status,
	})
	return updated, nil
}

func (s *service) ReduceStock(ctx context.Context, actor Actor, id int64, delta int) (*ProductDTO, error) {
	if delta <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Delta must be a positive integer")
	}

	updated, err := s.run(ctx, "reduce_stock", func(st Store) (*ProductDTO, error) {
		current, err := st.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		newStock := current.Stock - delta
		if newStock < 0 {
			newStock = 0
		}
		status := enums.StatusForStock(newStock)
		return st.Update(ctx, id, Patch{Stock: &newStock, Status: &status})
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(id)
	s.cache.PutItem(*updated)
	s.recordAudit(ctx, actor, enums.AuditActionReduceStock, id, map[string]any{
		"stock":  updated.Stock,
		"status": updated.Status,
	})
	return updated, nil
}

func (s *service) UpdatePrice(ctx context.Context, actor Actor, id int64, price decimal.Decimal) (*ProductDTO, error) {
	if !actor.Role.CanManageCatalog() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: requires manager or admin role")
	}
	if price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Price must be a non-negative number")
	}

	updated, err := s.run(ctx, "update_price", func(st Store) (*ProductDTO, error) {
		return st.Update(ctx, id, Patch{Price: &price})
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(id)
	s.cache.PutItem(*updated)
	s.recordAudit(ctx, actor, enums.AuditActionUpdatePrice, id, map[string]any{
		"price": updated.Price.String(),
	})
	return updated, nil
}

func (s *service) Delete(ctx context.Context, actor Actor, id int64) (*DeleteResult, error) {
	if !actor.Role.CanManageCatalog() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: requires manager or admin role")
	}

	deleted, err := s.run(ctx, "delete", func(st Store) (*ProductDTO, error) {
		return st.Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(id)
	s.recordAudit(ctx, actor, enums.AuditActionDelete, id, map[string]any{
		"name": deleted.Name,
		"sku":  deleted.SKU,
	})
	return &DeleteResult{Message: "Deleted", Product: *deleted}, nil
}

func (s *service) recordAudit(ctx context.Context, actor Actor, action enums.AuditAction, entityID int64, detail map[string]any) {
	if s.audit == nil {
		return
	}
	entry := audit.Entry{
		Action:     action,
		EntityType: enums.AuditEntityProduct,
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

func patchDetail(patch Patch) map[string]any {
	detail := map[string]any{}
	add := func(key string, ptr *string) {
		if ptr != nil {
			detail[key] = *ptr
		}
	}
	add("name", patch.Name)
	add("sku", patch.SKU)
	add("brand", patch.Brand)
	add("category", patch.Category)
	add("manufacturer", patch.Manufacturer)
	add("edition", patch.Edition)
	add("storage", patch.Storage)
	add("description", patch.Description)
	add("release_date", patch.ReleaseDate)
	add("image", patch.Image)
	if patch.Price != nil {
		detail["price"] = patch.Price.String()
	}
	if patch.Stock != nil {
		detail["stock"] = *patch.Stock
	}
	if patch.Status != nil {
		detail["status"] = string(*patch.Status)
	}
	if patch.Tags != nil {
		detail["tags"] = *patch.Tags
	}
	return detail
}

func derefEmptyToNil(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	return emptyToNil(*ptr)
}
