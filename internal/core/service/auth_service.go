package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskforge/task-manager/internal/metrics"
	"github.com/taskforge/task-manager/internal/core/domain"
	"github.com/taskforge/task-manager/internal/core/ports"
)

// dummyHash is compared against when the username does not exist, so a login
// attempt costs the same whether or not the account is real.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("taskforge-dummy-password"), bcrypt.DefaultCost)

// AuthService implements registration, login, and logout.
type AuthService struct {
	repo      ports.AuthRepository
	sessions  ports.SessionStore // optional; nil disables revocation
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(repo ports.AuthRepository, sessions ports.SessionStore, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, sessions: sessions, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" {
		metrics.AuthRequestsTotal.WithLabelValues("register", "denied").Inc()
		return nil, &domain.ValidationError{Field: "username", Reason: "is required"}
	}
	if password == "" {
		metrics.AuthRequestsTotal.WithLabelValues("register", "denied").Inc()
		return nil, &domain.ValidationError{Field: "password", Reason: "is required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.AuthRequestsTotal.WithLabelValues("register", "denied").Inc()
		}
		return nil, err
	}

	metrics.AuthRequestsTotal.WithLabelValues("register", "ok").Inc()
	return created, nil
}

// Login verifies credentials and issues a signed session token. Unknown
// usernames and wrong passwords produce the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		metrics.AuthRequestsTotal.WithLabelValues("login", "denied").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			metrics.AuthRequestsTotal.WithLabelValues("login", "denied").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.AuthRequestsTotal.WithLabelValues("login", "denied").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	metrics.AuthRequestsTotal.WithLabelValues("login", "ok").Inc()
	return &ports.LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Logout revokes the token's jti until the token would have expired anyway.
// Without a session store this is a no-op and expiry alone ends the session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if s.sessions == nil {
		return nil
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return domain.ErrInvalidToken
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return domain.ErrInvalidToken
	}

	ttl := s.tokenTTL
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		ttl = time.Until(exp.Time)
	}
	if ttl <= 0 {
		return nil
	}

	return s.sessions.Revoke(ctx, jti, ttl)
}

func (s *AuthService) generateToken(user *domain.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.tokenTTL)
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"jti":      uuid.NewString(),
		"exp":      expiresAt.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
