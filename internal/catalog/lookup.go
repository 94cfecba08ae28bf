package catalog

import (
	"context"
	"strings"

	"github.com/playpalm/playpalm-backend/pkg/db"
)

// resolveRef maps a free-text reference name to its row id in the given
// lookup table, inserting on first use. A lost insert race falls back to
// re-reading the winner's row. Any other failure resolves to nil; callers
// decide whether an unresolved reference is fatal.
func (r *RemoteStore) resolveRef(ctx context.Context, table, name string) *int64 {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil
	}

	if id := r.findRef(ctx, table, trimmed); id != nil {
		return id
	}

	var id int64
	err := r.db.WithContext(ctx).
		Raw("INSERT INTO "+table+" (name) VALUES (?) RETURNING id", trimmed).
		Scan(&id).Error
	if err == nil && id > 0 {
		return &id
	}
	if err != nil && db.IsUniqueViolation(err) {
		// concurrent writer won; whatever row exists now is the answer
		return r.findRef(ctx, table, trimmed)
	}
	return nil
}

func (r *RemoteStore) findRef(ctx context.Context, table, name string) *int64 {
	var ids []int64
	err := r.db.WithContext(ctx).
		Raw("SELECT id FROM "+table+" WHERE lower(trim(name)) = ? LIMIT 1", normalizeName(name)).
		Scan(&ids).Error
	if err != nil || len(ids) == 0 {
		return nil
	}
	return &ids[0]
}
