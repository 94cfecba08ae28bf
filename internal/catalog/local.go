package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/playpalm/playpalm-backend/pkg/enums"
	pkgerrors "github.com/playpalm/playpalm-backend/pkg/errors"
	"github.com/playpalm/playpalm-backend/pkg/logger"
)

// LocalStore is the degraded-mode fallback: a JSON array of products in a
// single file, read and rewritten wholesale on every call. It assumes a
// single backend process; a mutex covers in-process concurrency.
type LocalStore struct {
	path string
	logg *logger.Logger
	mu   sync.Mutex
}

// NewLocalStore builds a file-backed store at path.
func NewLocalStore(path string, logg *logger.Logger) (*LocalStore, error) {
	if path == "" {
		return nil, fmt.Errorf("local store path required")
	}
	return &LocalStore{path: path, logg: logg}, nil
}

func (s *LocalStore) List(ctx context.Context) ([]ProductDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll(ctx)
}

func (s *LocalStore) FindByID(ctx context.Context, id int64) (*ProductDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			item := items[i]
			return &item, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
}

func (s *LocalStore) Search(ctx context.Context, name string, limit int) ([]ProductDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	term := normalizeName(name)
	out := make([]ProductDTO, 0, limit)
	for i := range items {
		if strings.Contains(normalizeName(items[i].Name), term) {
			out = append(out, items[i])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *LocalStore) Create(ctx context.Context, draft Draft) (*ProductDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	key := variantKey(draft.Name, draft.Edition)
	for i := range items {
		if variantKey(items[i].Name, items[i].Edition) == key {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Product name already exists")
		}
	}

	var maxID int64
	for i := range items {
		if items[i].ID > maxID {
			maxID = items[i].ID
		}
	}

	item := ProductDTO{
		ID:           maxID + 1,
		SKU:          draft.SKU,
		Name:         strings.TrimSpace(draft.Name),
		Brand:        emptyToNil(draft.Brand),
		Manufacturer: draft.Manufacturer,
		Category:     emptyToNil(draft.Category),
		Edition:      draft.Edition,
		Storage:      draft.Storage,
		Price:        NewMoney(draft.Price),
		Stock:        draft.Stock,
		Status:       draft.Status,
		Description:  draft.Description,
		ReleaseDate:  draft.ReleaseDate,
		Tags:         draft.Tags,
		Image:        draft.Image,
	}

	items = append(items, item)
	if err := s.writeAll(items); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *LocalStore) Update(ctx context.Context, id int64, patch Patch) (*ProductDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range items {
		if items[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}

	item := items[idx]
	applyPatch(&item, patch)

	if patch.Name != nil || patch.Edition != nil {
		key := variantKey(item.Name, item.Edition)
		for i := range items {
			if i != idx && variantKey(items[i].Name, items[i].Edition) == key {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "Product name already exists")
			}
		}
	}

	items[idx] = item
	if err := s.writeAll(items); err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *LocalStore) Delete(ctx context.Context, id int64) (*ProductDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range items {
		if items[i].ID == id {
			deleted := items[i]
			items = append(items[:i], items[i+1:]...)
			if err := s.writeAll(items); err != nil {
				return nil, err
			}
			return &deleted, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
}

func applyPatch(item *ProductDTO, patch Patch) {
	if patch.Name != nil {
		item.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.SKU != nil {
		item.SKU = emptyToNil(*patch.SKU)
	}
	if patch.Brand != nil {
		item.Brand = emptyToNil(*patch.Brand)
	}
	if patch.Category != nil {
		item.Category = emptyToNil(*patch.Category)
	}
	if patch.Manufacturer != nil {
		item.Manufacturer = emptyToNil(*patch.Manufacturer)
	}
	if patch.Edition != nil {
		item.Edition = emptyToNil(*patch.Edition)
	}
	if patch.Storage != nil {
		item.Storage = emptyToNil(*patch.Storage)
	}
	if patch.Price != nil {
		item.Price = NewMoney(*patch.Price)
	}
	if patch.Stock != nil {
		item.Stock = *patch.Stock
		item.Status = enums.StatusForStock(*patch.Stock)
	}
	if patch.Status != nil {
		item.Status = *patch.Status
	}
	if patch.Description != nil {
		item.Description = emptyToNil(*patch.Description)
	}
	if patch.ReleaseDate != nil {
		item.ReleaseDate = emptyToNil(*patch.ReleaseDate)
	}
	if patch.Tags != nil {
		item.Tags = *patch.Tags
	}
	if patch.Image != nil {
		item.Image = emptyToNil(*patch.Image)
	}
}

// readAll ensures the backing file exists and parses it. A corrupt file is
// reset to an empty array instead of failing the request.
func (s *LocalStore) readAll(ctx context.Context) ([]ProductDTO, error) {
	if err := s.ensureFile(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensuring local products file")
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading local products file")
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		return []ProductDTO{}, nil
	}

	var items []ProductDTO
	if err := json.Unmarshal(raw, &items); err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "local products file corrupt, resetting", err)
		}
		if werr := s.writeAll([]ProductDTO{}); werr != nil {
			return nil, werr
		}
		return []ProductDTO{}, nil
	}
	return items, nil
}

func (s *LocalStore) writeAll(items []ProductDTO) error {
	if items == nil {
		items = []ProductDTO{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding local products file")
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing local products file")
	}
	return nil
}

func (s *LocalStore) ensureFile() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(s.path, []byte("[]"), 0o644)
}
