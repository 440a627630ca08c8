package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mkorobov/roomcast-server/internal/auth"
	"github.com/mkorobov/roomcast-server/internal/core"
	"github.com/mkorobov/roomcast-server/internal/log"
	"github.com/mkorobov/roomcast-server/internal/store"
	"github.com/mkorobov/roomcast-server/internal/store/sqlite"
)

// testEnv bundles a fully wired server for handler tests: in-memory store,
// running hub, fast-retry broadcaster and the real routing table.
type testEnv struct {
	ts   *httptest.Server
	st   store.Store
	hub  *core.Hub
	auth *auth.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := log.Nop()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &auth.JWTConfig{
		Secret: []byte("test-secret-change-me"),
		Issuer: "test",
		TTL:    time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	hub := core.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	broadcaster := core.NewBroadcaster(hub, 50*time.Millisecond, 3, logger)
	pipeline := core.NewPipeline(st, broadcaster, logger)

	ts := httptest.NewServer(NewRouter(hub, pipeline, st, authService, logger))
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, st: st, hub: hub, auth: authService}
}

// registerAndLogin creates an account through the auth service and returns
// the user together with a fresh bearer token.
func (e *testEnv) registerAndLogin(t *testing.T, email, name, password string) (*store.UserDetails, string) {
	t.Helper()

	ctx := context.Background()
	if _, err := e.auth.Register(ctx, email, name, password); err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	user, token, err := e.auth.Login(ctx, email, password)
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return user, token
}

// adminToken registers an account, promotes it and returns a token carrying
// the admin role.
func (e *testEnv) adminToken(t *testing.T) (*store.UserDetails, string) {
	t.Helper()

	ctx := context.Background()
	user, _ := e.registerAndLogin(t, "admin@example.com", "admin", "password123")
	if err := e.st.ReplaceRoles(ctx, user.ID, auth.RoleAdmin); err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	user, token, err := e.auth.Login(ctx, "admin@example.com", "password123")
	if err != nil {
		t.Fatalf("re-login admin: %v", err)
	}
	return user, token
}

// doJSON issues a request with an optional bearer token and JSON body.
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) *stdhttp.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := stdhttp.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *stdhttp.Response, dest any) {
	t.Helper()

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}
