package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/playpalm/playpalm-backend/internal/users"
	pkgauth "github.com/playpalm/playpalm-backend/pkg/auth"
	"github.com/playpalm/playpalm-backend/pkg/config"
	pkgerrors "github.com/playpalm/playpalm-backend/pkg/errors"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type credentialVerifier interface {
	VerifyCredentials(ctx context.Context, username, password string) (*users.UserDTO, error)
}

type service struct {
	users  credentialVerifier
	jwtCfg config.JWTConfig
	now    func() time.Time
}

// NewService constructs a login service backed by the user service.
func NewService(userSvc credentialVerifier, jwtCfg config.JWTConfig) (Service, error) {
	if userSvc == nil {
		return nil, fmt.Errorf("user service required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{users: userSvc, jwtCfg: jwtCfg, now: time.Now}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username and password required")
	}

	user, err := s.users.VerifyCredentials(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	return &LoginResponse{Token: token, User: *user}, nil
}
