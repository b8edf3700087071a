// Package auth implements registration, login, and JWT issuance.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/comichub/service/internal/config"
	"github.com/comichub/service/internal/user"
)

const tokenTTL = 7 * 24 * time.Hour

// ErrInvalidCredentials is returned when email or password do not match.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrWeakPassword is returned when the password fails the minimum length.
var ErrWeakPassword = errors.New("password must be at least 8 characters")

// Credentials is the datastore lookup needed for a login attempt.
// *user.Repository satisfies it.
type Credentials interface {
	PasswordHashByEmail(ctx context.Context, email string) (*user.User, string, error)
}

// Service contains the business logic for password-based authentication.
type Service struct {
	creds   Credentials
	userSvc *user.Service
	cfg     *config.Config
}

// NewService creates a new auth Service.
func NewService(creds Credentials, userSvc *user.Service, cfg *config.Config) *Service {
	return &Service{creds: creds, userSvc: userSvc, cfg: cfg}
}

// Register creates a new user account and issues a JWT token.
func (s *Service) Register(ctx context.Context, username, email, password string) (string, *user.User, error) {
	if len(password) < 8 {
		return "", nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.userSvc.Create(ctx, username, email, string(hash))
	if err != nil {
		return "", nil, err
	}

	token, err := s.issueToken(u.ID, u.Username)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// Login validates the credentials and issues a JWT token. Lookup failures and
// password mismatches are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	u, hash, err := s.creds.PasswordHashByEmail(ctx, email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(u.ID, u.Username)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// issueToken signs an HS256 JWT with the claims the auth middleware expects.
func (s *Service) issueToken(userID, username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}
