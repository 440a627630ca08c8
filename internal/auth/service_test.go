package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mkorobov/roomcast-server/internal/store/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &JWTConfig{
		Secret: []byte("test-secret-change-me"),
		Issuer: "test",
		TTL:    24 * time.Hour,
	}
	return NewService(st, jwtConfig)
}

func TestRegister_RejectsMissingFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct{ email, name, password string }{
		{"", "alice", "password123"},
		{"alice@example.com", "", "password123"},
		{"alice@example.com", "alice", ""},
		{"   ", "alice", "password123"},
	}
	for _, c := range cases {
		if _, err := svc.Register(ctx, c.email, c.name, c.password); !errors.Is(err, ErrMissingFields) {
			t.Fatalf("register(%q, %q): expected ErrMissingFields, got %v", c.email, c.name, err)
		}
	}
}

func TestRegister_RejectsDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "alice", "password123"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, "alice@example.com", "alice2", "password456"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice@example.com", "alice", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	user, token, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != registered.ID || user.Name != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if len(user.Roles) != 1 || user.Roles[0].Name != RoleUser {
		t.Fatalf("expected default role, got %+v", user.Roles)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != registered.ID || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.HasRole(RoleAdmin) {
		t.Fatal("fresh user must not carry the admin role")
	}
}

func TestLogin_RejectsWrongPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "alice", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "ghost@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestLoginWithToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "alice", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, token, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	user, err := svc.LoginWithToken(ctx, token)
	if err != nil {
		t.Fatalf("login with token: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := svc.LoginWithToken(ctx, "not-a-token"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
