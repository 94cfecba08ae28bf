package users

import "github.com/playpalm/playpalm-backend/pkg/enums"

// UserDTO is the safe user payload returned to clients. Password material
// never leaves the package.
type UserDTO struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Email         *string    `json:"email"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Role          enums.Role `json:"role"`
	ContactNumber *string    `json:"contact_number"`
	Location      *string    `json:"location"`
}

// Record pairs the public payload with the stored credential hash. This is
// the shape the local fallback file persists.
type Record struct {
	UserDTO
	PasswordHash string `json:"password_hash"`
}

// CreateInput is the decoded create-user request body. Snake_case aliases
// arrive from older clients; the controller folds them before calling in.
type CreateInput struct {
	Username      string  `json:"username"`
	Password      string  `json:"password"`
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Email         *string `json:"email"`
	Role          string  `json:"role"`
	ContactNumber *string `json:"contactNumber"`
	Location      *string `json:"location"`
}

// UpdateInput carries the optional fields of a user update.
type UpdateInput struct {
	Username      *string `json:"username"`
	Email         *string `json:"email"`
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	Role          *string `json:"role"`
	ContactNumber *string `json:"contactNumber"`
	Location      *string `json:"location"`
}

// Draft is a validated create payload handed to a store.
type Draft struct {
	Username      string
	PasswordHash  string
	FirstName     string
	LastName      string
	Email         *string
	Role          enums.Role
	ContactNumber *string
	Location      *string
}

// Patch is the store-level partial update.
type Patch struct {
	Username      *string
	Email         *string
	FirstName     *string
	LastName      *string
	Role          *enums.Role
	ContactNumber *string
	Location      *string
}
