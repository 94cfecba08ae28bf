package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/playpalm/playpalm-backend/api/middleware"
	"github.com/playpalm/playpalm-backend/api/responses"
	"github.com/playpalm/playpalm-backend/api/validators"
	"github.com/playpalm/playpalm-backend/internal/users"
	pkgerrors "github.com/playpalm/playpalm-backend/pkg/errors"
	"github.com/playpalm/playpalm-backend/pkg/logger"
)

func userActorFromContext(r *http.Request) users.Actor {
	ctx := r.Context()
	return users.Actor{
		UserID:   middleware.UserIDFromContext(ctx),
		Username: middleware.UsernameFromContext(ctx),
		Role:     middleware.RoleFromContext(ctx),
	}
}

// CurrentUser returns the authenticated caller's own account.
func CurrentUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := svc.Me(r.Context(), userActorFromContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

// ListUsers returns all accounts, manager/admin only.
func ListUsers(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := svc.List(r.Context(), userActorFromContext(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, accounts)
	}
}

type createUserRequest struct {
	users.CreateInput

	// snake_case aliases kept for older clients
	FirstNameAlias     *string `json:"first_name"`
	LastNameAlias      *string `json:"last_name"`
	ContactNumberAlias *string `json:"contact_number"`
}

func (req createUserRequest) toInput() users.CreateInput {
	input := req.CreateInput
	if input.FirstName == "" && req.FirstNameAlias != nil {
		input.FirstName = *req.FirstNameAlias
	}
	if input.LastName == "" && req.LastNameAlias != nil {
		input.LastName = *req.LastNameAlias
	}
	if input.ContactNumber == nil && req.ContactNumberAlias != nil {
		input.ContactNumber = req.ContactNumberAlias
	}
	return input
}

// CreateUser provisions a new account, manager/admin only.
func CreateUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createUserRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.Create(r.Context(), userActorFromContext(r), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, user)
	}
}

// UpdateUser edits an account: the owner themselves, or an admin.
func UpdateUser(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Invalid user id"))
			return
		}
		var input users.UpdateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.Update(r.Context(), userActorFromContext(r), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}
