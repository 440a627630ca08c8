package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mkorobov/roomcast-server/internal/store"
)

const (
	// RoleAdmin grants access to the admin endpoints.
	RoleAdmin = "admin"
	// RoleUser is assigned to every new account.
	RoleUser = "user"
)

var (
	// ErrInvalidCredentials is returned when email/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when registering with an existing email.
	ErrUserExists = errors.New("user already exists")
	// ErrMissingFields is returned when required registration data is absent.
	ErrMissingFields = errors.New("missing user data")
)

// Service provides authentication operations. It is the only component that
// turns credentials into (user id, roles); everything downstream assumes
// identities it hands out are valid.
type Service struct {
	store     store.Store
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(st store.Store, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     st,
		jwtConfig: jwtConfig,
	}
}

// Register creates a new user with hashed password and the default role.
func (s *Service) Register(ctx context.Context, email, name, password string) (*store.UserDetails, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" || password == "" {
		return nil, ErrMissingFields
	}

	if existing, err := s.store.GetUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrUserExists
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, email, name, hashedPassword)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Login validates credentials and returns the user details plus a JWT token.
func (s *Service) Login(ctx context.Context, email, password string) (*store.UserDetails, string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if errPwd := ComparePassword(user.PasswordHash, password); errPwd != nil {
		return nil, "", ErrInvalidCredentials
	}

	roles, err := s.store.ListUserRoles(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("list roles: %w", err)
	}

	token, err := GenerateToken(s.jwtConfig, user.ID, user.Email, roleNames(roles))
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	details := &store.UserDetails{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Roles: roles,
	}
	return details, token, nil
}

// LoginWithToken verifies a previously issued token and returns fresh user
// details for it.
func (s *Service) LoginWithToken(ctx context.Context, tokenString string) (*store.UserDetails, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, claims.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	roles, err := s.store.ListUserRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return &store.UserDetails{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Roles: roles,
	}, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

func roleNames(roles []store.Role) []string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names
}
