package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventtogether/backend/internal/config"
	"github.com/eventtogether/backend/internal/database"
	"github.com/eventtogether/backend/internal/handlers"
	"github.com/eventtogether/backend/internal/middleware"
	"github.com/eventtogether/backend/internal/services"
	"github.com/eventtogether/backend/internal/storage"
	"github.com/eventtogether/backend/pkg/logger"
	"github.com/eventtogether/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	storageClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio initialization failed: %v", err)
	}
	if err := storageClient.EnsureBucket(context.Background()); err != nil {
		log.Fatalf("failed ensuring minio bucket: %v", err)
	}

	groupService := services.NewGroupService(db, cfg.Store.Timeout)
	membershipService := services.NewMembershipService(db, cfg.Store.Timeout)

	authHandler := handlers.NewAuthHandler(db, storageClient)
	eventsHandler := handlers.NewEventsHandler(db)
	groupsHandler := handlers.NewGroupsHandler(groupService, membershipService)
	categoriesHandler := handlers.NewCategoriesHandler(db)
	chatHandler := handlers.NewChatHandler(db, membershipService)
	attendanceHandler := handlers.NewAttendanceHandler(db)
	adminHandler := handlers.NewAdminHandler(db, groupService)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.FrontendURL))
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

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
