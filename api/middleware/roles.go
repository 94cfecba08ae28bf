package middleware

import (
	"net/http"

	"github.com/playpalm/playpalm-backend/api/responses"
	"github.com/playpalm/playpalm-backend/pkg/enums"
	pkgerrors "github.com/playpalm/playpalm-backend/pkg/errors"
	"github.com/playpalm/playpalm-backend/pkg/logger"
)

// RequireRoles rejects callers whose role is not in the allow list.
func RequireRoles(logg *logger.Logger, roles ...enums.Role) func(http.Handler) http.Handler {
	allowed := make(map[enums.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[RoleFromContext(r.Context())]; !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Forbidden: requires manager or admin role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireManagerOrAdmin guards the catalog management routes.
func RequireManagerOrAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return RequireRoles(logg, enums.RoleManager, enums.RoleAdmin)
}
