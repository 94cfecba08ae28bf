package controllers

import (
	"net/http"

	"github.com/playpalm/playpalm-backend/api/responses"
	"github.com/playpalm/playpalm-backend/api/validators"
	"github.com/playpalm/playpalm-backend/internal/auth"
	"github.com/playpalm/playpalm-backend/pkg/logger"
)

// AuthLogin exchanges username and password for an access token.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp, err := svc.Login(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
