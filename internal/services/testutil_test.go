package services

import (
	"context"
	"database/sql/driver"
	"sync"
	"testing"
	"time"

	"github.com/eventtogether/backend/internal/models"
	"github.com/eventtogether/backend/pkg/utils"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const testStoreTimeout = 10 * time.Second

var testSetupOnce sync.Once

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testSetupOnce.Do(func() {
		gosqlite.MustRegisterScalarFunction("NOW", 0, func(ctx *gosqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			return time.Now().UTC(), nil
		})
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

	return db
}

func createUser(t *testing.T, db *gorm.DB, email string, role models.UserRole) *models.User {
	t.Helper()

	hash, err := utils.HashPassword("password123")
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
	return user
}

func createEvent(t *testing.T, db *gorm.DB, organizer *models.User) *models.Event {
	t.Helper()

	event := &models.Event{
		Title:       "City Marathon",
		Date:        time.Now().Add(14 * 24 * time.Hour),
		Location:    "Riverside Park",
		Capacity:    500,
		OrganizerID: organizer.ID,
	}
	if err := db.Create(event).Error; err != nil {
		t.Fatalf("failed creating test event: %v", err)
	}
	return event
}

func createGroup(t *testing.T, svc *GroupService, db *gorm.DB, organizer *models.User, maxMembers int) *models.Group {
	t.Helper()

	event := createEvent(t, db, organizer)
	group, err := svc.Create(context.Background(), event.ID, "Running Buddies", nil, maxMembers, organizer)
	if err != nil {
		t.Fatalf("failed creating test group: %v", err)
	}
	return group
}

func memberCount(t *testing.T, db *gorm.DB, group *models.Group) int64 {
	t.Helper()

	var count int64
	if err := db.Model(&models.GroupMember{}).Where("group_id = ?", group.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed counting members: %v", err)
	}
	return count
}
