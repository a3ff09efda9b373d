package handlers

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/eventtogether/backend/internal/middleware"
	"github.com/eventtogether/backend/internal/models"
	"github.com/eventtogether/backend/internal/services"
	"github.com/eventtogether/backend/pkg/logger"
	"github.com/eventtogether/backend/pkg/utils"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

var testSetupOnce sync.Once

const testStoreTimeout = 10 * time.Second

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		gosqlite.MustRegisterScalarFunction("NOW", 0, func(ctx *gosqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			return time.Now().UTC(), nil
		})
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Event{},
		&models.Group{},
		&models.GroupMember{},
		&models.ChatMessage{},
		&models.Attendance{},
	)
	if err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	groupService := services.NewGroupService(db, testStoreTimeout)
	membershipService := services.NewMembershipService(db, testStoreTimeout)

	authHandler := NewAuthHandler(db, nil)
	eventsHandler := NewEventsHandler(db)
	groupsHandler := NewGroupsHandler(groupService, membershipService)
	categoriesHandler := NewCategoriesHandler(db)
	chatHandler := NewChatHandler(db, membershipService)
	attendanceHandler := NewAttendanceHandler(db)
	adminHandler := NewAdminHandler(db, groupService)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS("http://localhost:3001"))
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Put("/me", authMiddleware.RequireAuth, authHandler.UpdateMe)
	authRoutes.Put("/password", authMiddleware.RequireAuth, authHandler.ChangePassword)
	authRoutes.Post("/me/avatar", authMiddleware.RequireAuth, authHandler.UploadAvatar)

	api.Get("/categories", categoriesHandler.List)
	categoryRoutes := api.Group("/categories", authMiddleware.RequireAuth, middleware.StaffOnly)
	categoryRoutes.Post("/", categoriesHandler.Create)
	categoryRoutes.Put("/:id", categoriesHandler.Update)
	categoryRoutes.Delete("/:id", categoriesHandler.Delete)

	api.Get("/events", eventsHandler.List)
	api.Get("/events/:id/groups", authMiddleware.OptionalAuth, groupsHandler.ListByEvent)
	api.Get("/events/:id", eventsHandler.Get)
	api.Post("/events", authMiddleware.RequireAuth, eventsHandler.Create)
	api.Put("/events/:id", authMiddleware.RequireAuth, eventsHandler.Update)
	api.Delete("/events/:id", authMiddleware.RequireAuth, eventsHandler.Delete)
	api.Post("/events/:id/attendance", authMiddleware.RequireAuth, attendanceHandler.Mark)

	api.Get("/groups", authMiddleware.OptionalAuth, groupsHandler.List)
	api.Post("/groups", authMiddleware.RequireAuth, groupsHandler.Create)
	api.Get("/groups/:id/check-membership", authMiddleware.RequireAuth, groupsHandler.CheckMembership)
	api.Get("/groups/:id/messages", authMiddleware.RequireAuth, chatHandler.ListMessages)
	api.Post("/groups/:id/messages", authMiddleware.RequireAuth, chatHandler.PostMessage)
	api.Post("/groups/:id/join", authMiddleware.RequireAuth, groupsHandler.Join)
	api.Post("/groups/:id/leave", authMiddleware.RequireAuth, groupsHandler.Leave)
	api.Get("/groups/:id", authMiddleware.OptionalAuth, groupsHandler.Get)
	api.Put("/groups/:id", authMiddleware.RequireAuth, groupsHandler.Update)
	api.Delete("/groups/:id", authMiddleware.RequireAuth, groupsHandler.Delete)

	api.Get("/attendance/my", authMiddleware.RequireAuth, attendanceHandler.My)

	adminRoutes := api.Group("/admin", authMiddleware.RequireAuth)
	adminUserRoutes := adminRoutes.Group("/users", middleware.AdminOnly)
	adminUserRoutes.Get("/", adminHandler.ListUsers)
	adminUserRoutes.Get("/:id", adminHandler.GetUser)
	adminUserRoutes.Put("/:id", adminHandler.UpdateUser)
	adminUserRoutes.Delete("/:id", adminHandler.DeleteUser)
	adminUserRoutes.Post("/:id/toggle-active", adminHandler.ToggleUserActive)

	adminStaffRoutes := adminRoutes.Group("/", middleware.StaffOnly)
	adminStaffRoutes.Get("/events", adminHandler.ListEvents)
	adminStaffRoutes.Put("/events/:id", eventsHandler.Update)
	adminStaffRoutes.Delete("/events/:id", eventsHandler.Delete)
	adminStaffRoutes.Get("/groups", adminHandler.ListGroups)
	adminStaffRoutes.Put("/groups/:id", groupsHandler.Update)
	adminStaffRoutes.Delete("/groups/:id", groupsHandler.Delete)
	adminStaffRoutes.Post("/groups/:id/toggle-status", adminHandler.ToggleGroupStatus)

	return &testEnv{app: app, db: db}
}

func createTestUser(t *testing.T, db *gorm.DB, email, password string, role models.UserRole) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestEvent(t *testing.T, db *gorm.DB, organizer *models.User) *models.Event {
	t.Helper()

	event := &models.Event{
		Title:       "City Park Picnic",
		Date:        time.Now().Add(48 * time.Hour),
		Location:    "Central Park",
		Capacity:    50,
		OrganizerID: organizer.ID,
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("failed creating test event: %v", err)
	}
	return event
}

func createTestGroup(t *testing.T, env *testEnv, token string, eventID uuid.UUID, maxMembers int) map[string]any {
	t.Helper()

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/groups", map[string]any{
		"event_id":    eventID.String(),
		"name":        "Morning Crew",
		"max_members": maxMembers,
	}, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)

	body := decodeJSONMap(t, resp)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected group payload, got %+v", body)
	}
	return data
}

func mustParseUUID(t *testing.T, value string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(value)
	if err != nil {
		t.Fatalf("failed parsing uuid %q: %v", value, err)
	}
	return id
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}
