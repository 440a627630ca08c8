package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/mkorobov/roomcast-server/internal/store"
)

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerAndLogin(t, "alice@example.com", "alice", "password123")

	paths := []struct{ method, path string }{
		{http.MethodGet, "/admin/users"},
		{http.MethodGet, "/admin/statistics"},
		{http.MethodGet, "/admin/statistics/monthly-users"},
		{http.MethodGet, "/roles"},
	}
	for _, p := range paths {
		resp := env.doJSON(t, p.method, p.path, token, nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403 for non-admin, got %d", p.method, p.path, resp.StatusCode)
		}
		resp = env.doJSON(t, p.method, p.path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 without token, got %d", p.method, p.path, resp.StatusCode)
		}
	}
}

func TestAdminListAndDeleteUsers(t *testing.T) {
	env := newTestEnv(t)
	_, adminTok := env.adminToken(t)
	victim, _ := env.registerAndLogin(t, "bob@example.com", "bob", "password123")

	resp := env.doJSON(t, http.MethodGet, "/admin/users", adminTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list users: expected 200, got %d", resp.StatusCode)
	}
	var users []store.UserDetails
	decodeBody(t, resp, &users)
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}

	resp = env.doJSON(t, http.MethodDelete, "/admin/users/"+victim.ID, adminTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete user: expected 200, got %d", resp.StatusCode)
	}
	if _, err := env.st.GetUserByID(context.Background(), victim.ID); err == nil {
		t.Fatal("deleted user still present")
	}

	resp = env.doJSON(t, http.MethodDelete, "/admin/users/no-such-user", adminTok, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("delete unknown user: expected 404, got %d", resp.StatusCode)
	}
}

func TestAdminPromoteAndDemote(t *testing.T) {
	env := newTestEnv(t)
	_, adminTok := env.adminToken(t)
	bob, _ := env.registerAndLogin(t, "bob@example.com", "bob", "password123")

	ctx := context.Background()

	resp := env.doJSON(t, http.MethodPost, "/admin/users/"+bob.ID+"/promoteadmin", adminTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("promote: expected 200, got %d", resp.StatusCode)
	}
	roles, err := env.st.ListUserRoles(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list roles: %v", err)
	}
	if len(roles) != 1 || roles[0].Name != "admin" {
		t.Fatalf("expected sole admin role after promote, got %+v", roles)
	}

	resp = env.doJSON(t, http.MethodPost, "/admin/users/"+bob.ID+"/demoteadmin", adminTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("demote: expected 200, got %d", resp.StatusCode)
	}
	roles, err = env.st.ListUserRoles(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list roles: %v", err)
	}
	if len(roles) != 1 || roles[0].Name != "user" {
		t.Fatalf("expected sole user role after demote, got %+v", roles)
	}
}

func TestAdminStatistics(t *testing.T) {
	env := newTestEnv(t)
	admin, adminTok := env.adminToken(t)

	ctx := context.Background()
	room, err := env.st.CreateRoom(ctx, "general", admin.ID)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if _, err := env.st.InsertMessage(ctx, store.MessageInput{Content: "hi", UserID: admin.ID, RoomID: room.ID}); err != nil {
		t.Fatalf("insert message: %v", err)
	}

	resp := env.doJSON(t, http.MethodGet, "/admin/statistics", adminTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("statistics: expected 200, got %d", resp.StatusCode)
	}
	var stats struct {
		TotalUsers     int                  `json:"totalUsers"`
		TotalRooms     int                  `json:"totalRooms"`
		TotalMessages  int                  `json:"totalMessages"`
		ActiveRooms    []store.RoomActivity `json:"activeRooms"`
		ConnectedUsers int                  `json:"connectedUsers"`
	}
	decodeBody(t, resp, &stats)
	if stats.TotalUsers != 1 || stats.TotalRooms != 1 || stats.TotalMessages != 1 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.ConnectedUsers != 0 {
		t.Fatalf("no sockets connected, got connectedUsers=%d", stats.ConnectedUsers)
	}
	if len(stats.ActiveRooms) != 1 || stats.ActiveRooms[0].MessageCount != 1 {
		t.Fatalf("unexpected active rooms: %+v", stats.ActiveRooms)
	}

	resp = env.doJSON(t, http.MethodGet, "/admin/statistics/monthly-users", adminTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("monthly users: expected 200, got %d", resp.StatusCode)
	}
	var monthly []store.MonthlyUserCount
	decodeBody(t, resp, &monthly)
	if len(monthly) != 1 || monthly[0].UserCount != 1 {
		t.Fatalf("unexpected monthly stats: %+v", monthly)
	}
}

func TestRoleManagementEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, adminTok := env.adminToken(t)
	bob, _ := env.registerAndLogin(t, "bob@example.com", "bob", "password123")

	resp := env.doJSON(t, http.MethodPost, "/roles", adminTok, CreateRoleRequest{Name: "moderator"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create role: expected 201, got %d", resp.StatusCode)
	}
	var role store.Role
	decodeBody(t, resp, &role)
	if role.ID == 0 || role.Name != "moderator" {
		t.Fatalf("unexpected role: %+v", role)
	}

	resp = env.doJSON(t, http.MethodGet, "/roles", adminTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list roles: expected 200, got %d", resp.StatusCode)
	}

	// Grant, inspect, revoke.
	path := "/users/" + bob.ID + "/roles/"
	resp = env.doJSON(t, http.MethodPost, path+"3", adminTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("assign role: expected 200, got %d", resp.StatusCode)
	}

	resp = env.doJSON(t, http.MethodGet, "/users/"+bob.ID+"/roles", adminTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list user roles: expected 200, got %d", resp.StatusCode)
	}
	var roles []store.Role
	decodeBody(t, resp, &roles)
	if len(roles) != 2 {
		t.Fatalf("expected user+moderator roles, got %+v", roles)
	}

	resp = env.doJSON(t, http.MethodDelete, path+"3", adminTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("remove role: expected 200, got %d", resp.StatusCode)
	}

	resp = env.doJSON(t, http.MethodPut, path+"3", adminTok, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set sole role: expected 200, got %d", resp.StatusCode)
	}
	roles, err := env.st.ListUserRoles(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("list roles: %v", err)
	}
	if len(roles) != 1 || roles[0].Name != "moderator" {
		t.Fatalf("expected sole moderator role, got %+v", roles)
	}

	resp = env.doJSON(t, http.MethodPost, path+"not-a-number", adminTok, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad role id: expected 400, got %d", resp.StatusCode)
	}
}
