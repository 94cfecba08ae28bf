package auth

import "github.com/playpalm/playpalm-backend/internal/users"

// LoginRequest is the decoded login body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the minted token and the authenticated account.
type LoginResponse struct {
	Token string        `json:"token"`
	User  users.UserDTO `json:"user"`
}
