package handlers

import (
	"net/http"
	"testing"

	"github.com/eventtogether/backend/internal/models"
)

func TestAdminUserEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	admin, adminToken := createTestUser(t, env.db, "admin@test.com", "password123", models.UserRoleAdmin)
	target, _ := createTestUser(t, env.db, "admin-target@test.com", "password123", models.UserRoleUser)
	_, userToken := createTestUser(t, env.db, "admin-nobody@test.com", "password123", models.UserRoleUser)
	_, moderatorToken := createTestUser(t, env.db, "admin-moderator@test.com", "password123", models.UserRoleModerator)

	t.Run("GET /api/admin/users requires the admin role", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/admin/users", nil, authHeaders(userToken))
		assertStatus(t, resp, http.StatusForbidden)

		resp = performRequest(t, env.app, http.MethodGet, "/api/admin/users", nil, authHeaders(moderatorToken))
		assertStatus(t, resp, http.StatusForbidden)

		resp = performRequest(t, env.app, http.MethodGet, "/api/admin/users?search=admin-target", nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		data := body["data"].([]any)
		if len(data) != 1 {
			t.Fatalf("expected 1 matching user, got %d", len(data))
		}
	})

	t.Run("GET /api/admin/users/:id returns the user", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/admin/users/"+target.ID.String(), nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if body["data"].(map[string]any)["email"].(string) != target.Email {
			t.Fatalf("expected %s, got %+v", target.Email, body["data"])
		}
	})

	t.Run("PUT /api/admin/users/:id promotes to moderator", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/admin/users/"+target.ID.String(), map[string]any{
			"role": "moderator",
		}, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if body["data"].(map[string]any)["role"].(string) != "moderator" {
			t.Fatalf("expected moderator role, got %+v", body["data"])
		}
	})

	t.Run("PUT /api/admin/users/:id cannot demote an admin", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/admin/users/"+admin.ID.String(), map[string]any{
			"role": "user",
		}, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusForbidden)
	})

	t.Run("POST /api/admin/users/:id/toggle-active flips activation", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/admin/users/"+target.ID.String()+"/toggle-active", nil, authHeaders(adminToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if body["data"].(map[string]any)["is_active"] != false {
			t.Fatalf("expected is_active=false, got %+v", body["data"])
		}
	})

	t.Run("POST /api/admin/users/:id/toggle-active admin accounts protected", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/admin/users/"+admin.ID.String()+"/toggle-active", nil, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusForbidden)
	})

	t.Run("DELETE /api/admin/users/:id admin accounts protected", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, "/api/admin/users/"+admin.ID.String(), nil, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusForbidden)
	})

	t.Run("DELETE /api/admin/users/:id removes the user and their rows", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, "/api/admin/users/"+target.ID.String(), nil, authHeaders(adminToken))
		assertStatus(t, resp, http.StatusOK)

		var remaining int64
		if err := env.db.Model(&models.User{}).Where("id = ?", target.ID).Count(&remaining).Error; err != nil {
			t.Fatalf("failed counting users: %v", err)
		}
		if remaining != 0 {
			t.Fatal("expected the user row to be gone")
		}
	})
}

func TestAdminModerationEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	organizer, organizerToken := createTestUser(t, env.db, "mod-organizer@test.com", "password123", models.UserRoleUser)
	_, moderatorToken := createTestUser(t, env.db, "mod-moderator@test.com", "password123", models.UserRoleModerator)
	_, userToken := createTestUser(t, env.db, "mod-user@test.com", "password123", models.UserRoleUser)
	event := createTestEvent(t, env.db, organizer)
	group := createTestGroup(t, env, organizerToken, event.ID, 5)
	groupID := group["id"].(string)

	t.Run("GET /api/admin/events is staff only", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/admin/events", nil, authHeaders(userToken))
		assertStatus(t, resp, http.StatusForbidden)

		resp = performRequest(t, env.app, http.MethodGet, "/api/admin/events", nil, authHeaders(moderatorToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if len(body["data"].([]any)) != 1 {
			t.Fatalf("expected 1 event, got %+v", body["data"])
		}
	})

	t.Run("GET /api/admin/groups lists catalogs for staff", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/admin/groups", nil, authHeaders(moderatorToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		data := body["data"].([]any)
		if len(data) != 1 {
			t.Fatalf("expected 1 group, got %d", len(data))
		}
	})

	t.Run("POST /api/admin/groups/:id/toggle-status closes and reopens", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/admin/groups/"+groupID+"/toggle-status", nil, authHeaders(moderatorToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if body["data"].(map[string]any)["is_open"] != false {
			t.Fatalf("expected is_open=false, got %+v", body["data"])
		}

		resp = performJSONRequest(t, env.app, http.MethodPost, "/api/admin/groups/"+groupID+"/toggle-status", nil, authHeaders(moderatorToken))
		body = decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if body["data"].(map[string]any)["is_open"] != true {
			t.Fatalf("expected is_open=true, got %+v", body["data"])
		}
	})

	t.Run("PUT /api/admin/events/:id is staff only", func(t *testing.T) {
		payload := map[string]any{"title": "Moderated Picnic"}
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/admin/events/"+event.ID.String(), payload, authHeaders(userToken))
		assertStatus(t, resp, http.StatusForbidden)

		resp = performJSONRequest(t, env.app, http.MethodPut, "/api/admin/events/"+event.ID.String(), payload, authHeaders(moderatorToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if body["data"].(map[string]any)["title"] != "Moderated Picnic" {
			t.Fatalf("expected renamed event, got %+v", body["data"])
		}
	})

	t.Run("PUT /api/admin/groups/:id lets staff edit any group", func(t *testing.T) {
		payload := map[string]any{"name": "Moderated Crew"}
		resp := performJSONRequest(t, env.app, http.MethodPut, "/api/admin/groups/"+groupID, payload, authHeaders(userToken))
		assertStatus(t, resp, http.StatusForbidden)

		resp = performJSONRequest(t, env.app, http.MethodPut, "/api/admin/groups/"+groupID, payload, authHeaders(moderatorToken))
		body := decodeJSONMap(t, resp)
		assertStatus(t, resp, http.StatusOK)
		if body["data"].(map[string]any)["name"] != "Moderated Crew" {
			t.Fatalf("expected renamed group, got %+v", body["data"])
		}
	})

	t.Run("DELETE /api/admin/groups/:id removes the group", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, "/api/admin/groups/"+groupID, nil, authHeaders(userToken))
		assertStatus(t, resp, http.StatusForbidden)

		resp = performRequest(t, env.app, http.MethodDelete, "/api/admin/groups/"+groupID, nil, authHeaders(moderatorToken))
		assertStatus(t, resp, http.StatusOK)

		var groups int64
		env.db.Model(&models.Group{}).Where("id = ?", groupID).Count(&groups)
		if groups != 0 {
			t.Fatalf("expected group row to be gone, found %d", groups)
		}
	})

	t.Run("DELETE /api/admin/events/:id removes the event", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodDelete, "/api/admin/events/"+event.ID.String(), nil, authHeaders(moderatorToken))
		assertStatus(t, resp, http.StatusOK)

		var events int64
		env.db.Model(&models.Event{}).Where("id = ?", event.ID).Count(&events)
		if events != 0 {
			t.Fatalf("expected event row to be gone, found %d", events)
		}
	})
}
