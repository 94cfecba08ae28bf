package catalog

import "context"

// Store is one product backend. The service composes two of them: the
// remote relational store and the always-available local JSON fallback.
// Every implementation enforces the variant uniqueness invariant and the
// not-found contract against its own data only.
type Store interface {
	List(ctx context.Context) ([]ProductDTO, error)
	FindByID(ctx context.Context, id int64) (*ProductDTO, error)
	Search(ctx context.Context, name string, limit int) ([]ProductDTO, error)
	Create(ctx context.Context, draft Draft) (*ProductDTO, error)
	Update(ctx context.Context, id int64, patch Patch) (*ProductDTO, error)
	Delete(ctx context.Context, id int64) (*ProductDTO, error)
}
