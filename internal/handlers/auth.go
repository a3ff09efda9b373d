package handlers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/eventtogether/backend/internal/middleware"
	"github.com/eventtogether/backend/internal/models"
	"github.com/eventtogether/backend/internal/storage"
	"github.com/eventtogether/backend/pkg/logger"
	"github.com/eventtogether/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxAvatarSize = 5 * 1024 * 1024

type AuthHandler struct {
	DB      *gorm.DB
	Storage *storage.MinIOClient
}

func NewAuthHandler(db *gorm.DB, store *storage.MinIOClient) *AuthHandler {
	return &AuthHandler{DB: db, Storage: store}
}

type registerRequest struct {
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	Password string  `json:"password"`
	About    *string `json:"about"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return utils.Error(c, fiber.StatusBadRequest, "valid email is required")
	}
	if req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}
	if len(req.Password) < 8 {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed hashing password")
	}

	user := models.User{
		Email:        req.Email,
		Name:         req.Name,
		About:        req.About,
		PasswordHash: hash,
		Role:         models.UserRoleUser,
		IsActive:     true,
	}

	if err := h.DB.Create(&user).Error; err != nil {
		return utils.Error(c, fiber.StatusConflict, "email is already registered")
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	logger.InfoWithUser(user.ID.String(), "user_registered", map[string]interface{}{
		"email": user.Email,
	})

	return utils.Success(c, fiber.StatusCreated, authResponse{Token: token, User: user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.DB.First(&user, "email = ?", email).Error; err != nil {
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}
	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		logger.Warn("login_failed", map[string]interface{}{"email": email})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return utils.Error(c, fiber.StatusForbidden, "account disabled")
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	logger.InfoWithUser(user.ID.String(), "user_logged_in", nil)

	return utils.Success(c, fiber.StatusOK, authResponse{Token: token, User: user})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, currentUser)
}

type updateMeRequest struct {
	Name  *string `json:"name"`
	About *string `json:"about"`
}

func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return utils.Error(c, fiber.StatusBadRequest, "name cannot be empty")
		}
		updates["name"] = name
	}
	if req.About != nil {
		trimmed := strings.TrimSpace(*req.About)
		if trimmed == "" {
			updates["about"] = nil
		} else {
			updates["about"] = trimmed
		}
	}

	if len(updates) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", currentUser.ID).Updates(updates).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating profile")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", currentUser.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading updated profile")
	}

	return utils.Success(c, fiber.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if !utils.CheckPassword(req.CurrentPassword, currentUser.PasswordHash) {
		return utils.Error(c, fiber.StatusUnauthorized, "current password is incorrect")
	}
	if len(req.NewPassword) < 8 {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed hashing password")
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", currentUser.ID).Update("password_hash", hash).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating password")
	}

	logger.InfoWithUser(currentUser.ID.String(), "password_changed", nil)

	return utils.Message(c, "password updated")
}

func (h *AuthHandler) UploadAvatar(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if h.Storage == nil {
		return utils.Error(c, fiber.StatusServiceUnavailable, "avatar storage is not configured")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}
	if fileHeader.Size > maxAvatarSize {
		return utils.Error(c, fiber.StatusBadRequest, "avatar must be smaller than 5MB")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return utils.Error(c, fiber.StatusBadRequest, "avatar must be an image")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "failed reading uploaded file")
	}
	defer file.Close()

	objectName := fmt.Sprintf("avatars/%s/%s%s", currentUser.ID, uuid.New(), filepath.Ext(fileHeader.Filename))
	if err := h.Storage.Upload(c.UserContext(), objectName, file, fileHeader.Size, contentType); err != nil {
		logger.Error("avatar_upload_failed", err, map[string]interface{}{
			"user_id": currentUser.ID.String(),
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed storing avatar")
	}

	avatarURL := h.Storage.PublicURL(objectName)
	if err := h.DB.Model(&models.User{}).Where("id = ?", currentUser.ID).Update("avatar_url", avatarURL).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed saving avatar url")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"avatar_url": avatarURL})
}
