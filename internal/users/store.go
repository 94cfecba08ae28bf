package users

import "context"

// Store is one user backend, remote or local, mirroring the catalog's
// two-tier layout.
type Store interface {
	List(ctx context.Context) ([]UserDTO, error)
	FindByID(ctx context.Context, id int64) (*Record, error)
	FindByUsername(ctx context.Context, username string) (*Record, error)
	Create(ctx context.Context, draft Draft) (*UserDTO, error)
	Update(ctx context.Context, id int64, patch Patch) (*UserDTO, error)
}
