package users

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	pkgerrors "github.com/playpalm/playpalm-backend/pkg/errors"
	"github.com/playpalm/playpalm-backend/pkg/logger"
)

// LocalStore keeps user accounts in a JSON fallback file, same contract as
// the catalog's local store.
type LocalStore struct {
	path string
	logg *logger.Logger
	mu   sync.Mutex
}

// NewLocalStore builds a file-backed user store at path.
func NewLocalStore(path string, logg *logger.Logger) (*LocalStore, error) {
	if path == "" {
		return nil, fmt.Errorf("local store path required")
	}
	return &LocalStore{path: path, logg: logg}, nil
}

func (s *LocalStore) List(ctx context.Context) ([]UserDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserDTO, 0, len(records))
	for i := range records {
		out = append(out, records[i].UserDTO)
	}
	return out, nil
}

func (s *LocalStore) FindByID(ctx context.Context, id int64) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			rec := records[i]
			return &rec, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
}

func (s *LocalStore) FindByUsername(ctx context.Context, username string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(username))
	for i := range records {
		if strings.ToLower(strings.TrimSpace(records[i].Username)) == needle {
			rec := records[i]
			return &rec, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
}

func (s *LocalStore) Create(ctx context.Context, draft Draft) (*UserDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(draft.Username))
	var maxID int64
	for i := range records {
		if strings.ToLower(strings.TrimSpace(records[i].Username)) == needle {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "Username already exists")
		}
		if records[i].ID > maxID {
			maxID = records[i].ID
		}
	}

	rec := Record{
		UserDTO: UserDTO{
			ID:            maxID + 1,
			Username:      strings.TrimSpace(draft.Username),
			Email:         draft.Email,
			FirstName:     draft.FirstName,
			LastName:      draft.LastName,
			Role:          draft.Role,
			ContactNumber: draft.ContactNumber,
			Location:      draft.Location,
		},
		PasswordHash: draft.PasswordHash,
	}
	records = append(records, rec)
	if err := s.writeAll(records); err != nil {
		return nil, err
	}
	dto := rec.UserDTO
	return &dto, nil
}

func (s *LocalStore) Update(ctx context.Context, id int64, patch Patch) (*UserDTO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range records {
		if records[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
	}

	rec := records[idx]
	if patch.Username != nil {
		candidate := strings.ToLower(strings.TrimSpace(*patch.Username))
		for i := range records {
			if i != idx && strings.ToLower(strings.TrimSpace(records[i].Username)) == candidate {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "Username already exists")
			}
		}
		rec.Username = strings.TrimSpace(*patch.Username)
	}
	if patch.Email != nil {
		rec.Email = patch.Email
	}
	if patch.FirstName != nil {
		rec.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		rec.LastName = *patch.LastName
	}
	if patch.Role != nil {
		rec.Role = *patch.Role
	}
	if patch.ContactNumber != nil {
		rec.ContactNumber = patch.ContactNumber
	}
	if patch.Location != nil {
		rec.Location = patch.Location
	}

	records[idx] = rec
	if err := s.writeAll(records); err != nil {
		return nil, err
	}
	dto := rec.UserDTO
	return &dto, nil
}

func (s *LocalStore) readAll(ctx context.Context) ([]Record, error) {
	if err := s.ensureFile(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ensuring local users file")
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading local users file")
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return []Record{}, nil
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "local users file corrupt, resetting", err)
		}
		if werr := s.writeAll([]Record{}); werr != nil {
			return nil, werr
		}
		return []Record{}, nil
	}
	return records, nil
}

func (s *LocalStore) writeAll(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding local users file")
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing local users file")
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
