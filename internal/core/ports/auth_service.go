package ports

import (
	"context"
	"time"

	"github.com/taskforge/task-manager/internal/core/domain"
)

// LoginResult carries a freshly issued session token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	// Logout revokes the given token until its natural expiry.
	Logout(ctx context.Context, token string) error
}

// SessionStore tracks revoked session tokens by their jti claim.
type SessionStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
