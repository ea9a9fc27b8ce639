package handlers

import (
	"errors"
	"net/http"
	"time"

	"gomall/internal/api/middleware"
	"gomall/internal/api/validator"
	"gomall/internal/config"
	"gomall/internal/errs"
	"gomall/internal/models"
	"gomall/internal/utils"
	"gomall/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
	log *logger.Logger
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, log: logger.New("AuthHandler")}
}

type TokenPairResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user,omitempty"`
}

// Register creates a CLIENT account.
// @Summary Register a new user
// @Description Register a new user with email, password and name details
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.RegisterRequest true "Registration details"
// @Success 201 {object} models.User
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 409 {object} map[string]interface{} "Email already exists"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req validator.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if _, err := models.GetUserByEmail(h.db, req.Email); err == nil {
		return errs.ErrEmailAlreadyExists
	}

	role, err := models.GetRoleByName(h.db, models.RoleNameClient)
	if err != nil {
		return h.log.Error("client role is missing", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return h.log.Error("failed to hash password", err)
	}

	user := models.User{
		Email:    req.Email,
		Password: string(hashed),
		Name:     req.Name,
		Phone:    req.Phone,
		Status:   models.UserStatusActive,
		RoleID:   role.ID,
	}
	if err := h.db.Create(&user).Error; err != nil {
		return h.log.Error("failed to create user", err)
	}

	user.Password = ""
	return c.JSON(http.StatusCreated, user)
}

// Login exchanges credentials for an access/refresh token pair.
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.LoginRequest true "Credentials"
// @Success 200 {object} TokenPairResponse
// @Failure 401 {object} map[string]interface{} "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req validator.LoginRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	user, err := models.GetUserByEmail(h.db, req.Email)
	if err != nil {
		return errs.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return errs.ErrInvalidCredentials
	}
	if user.Status != models.UserStatusActive {
		return errs.ErrPermissionDenied
	}

	pair, err := h.issueTokenPair(user)
	if err != nil {
		return err
	}
	user.Password = ""
	pair.User = user
	return c.JSON(http.StatusOK, pair)
}

// Refresh rotates a refresh token: the presented token is stamped used
// and a fresh pair is issued. Presenting an already-used token is
// reported distinctly so clients can detect replayed/stolen tokens.
// @Summary Refresh the token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} TokenPairResponse
// @Failure 401 {object} map[string]interface{} "Invalid, expired or already-used token"
// @Router /auth/refresh-token [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req validator.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if _, err := utils.ParseToken(h.cfg, req.RefreshToken); err != nil {
		return errs.ErrInvalidAccessToken
	}

	var stored models.RefreshToken
	err := h.db.Where("token = ?", req.RefreshToken).First(&stored).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrInvalidAccessToken
		}
		return h.log.Error("failed to load refresh token", err)
	}
	if stored.UsedAt != nil {
		// A consumed token coming back means it leaked. Kill every
		// outstanding refresh token for the account before rejecting.
		now := time.Now()
		if err := h.db.Model(&models.RefreshToken{}).
			Where("user_id = ? AND used_at IS NULL", stored.UserID).
			Update("used_at", now).Error; err != nil {
			return h.log.Error("failed to revoke refresh tokens after reuse", err)
		}
		return errs.ErrRefreshTokenAlreadyUsed
	}
	if time.Now().After(stored.ExpiresAt) {
		return errs.ErrInvalidAccessToken
	}

	var user models.User
	if err := models.Active(h.db).Preload("Role").First(&user, "id = ?", stored.UserID).Error; err != nil {
		return errs.ErrInvalidAccessToken
	}

	var pair *TokenPairResponse
	err = h.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&models.RefreshToken{}).
			Where("id = ? AND used_at IS NULL", stored.ID).
			Update("used_at", now)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Two racing refreshes: only the first wins the rotation.
			return errs.ErrRefreshTokenAlreadyUsed
		}

		var err error
		pair, err = h.issueTokenPairTx(tx, &user)
		return err
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, pair)
}

// Logout invalidates the presented refresh token.
// @Summary Log out
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.LogoutRequest true "Refresh token"
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req validator.LogoutRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	now := time.Now()
	if err := h.db.Model(&models.RefreshToken{}).
		Where("token = ? AND used_at IS NULL", req.RefreshToken).
		Update("used_at", now).Error; err != nil {
		return h.log.Error("failed to invalidate refresh token", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the calling user's profile.
// @Summary Current user profile
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	var user models.User
	err := models.Active(h.db).Preload("Role").
		First(&user, "id = ?", middleware.GetUserID(c)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrNotFoundRecord
		}
		return h.log.Error("failed to load user", err)
	}
	user.Password = ""
	return c.JSON(http.StatusOK, user)
}

// UpdateMe patches the calling user's own profile. Email and role are
// not user-editable.
// @Summary Update current user profile
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.UpdateMeRequest true "Profile fields"
// @Success 200 {object} models.User
// @Security BearerAuth
// @Router /users/me [put]
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	var req validator.UpdateMeRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Avatar != "" {
		updates["avatar"] = req.Avatar
	}
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return h.log.Error("failed to hash password", err)
		}
		updates["password"] = string(hashed)
	}
	if len(updates) == 0 {
		return errs.Validation("EMPTY_UPDATE", "no updatable fields provided")
	}

	userID := middleware.GetUserID(c)
	result := models.Active(h.db).Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return h.log.Error("failed to update user", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFoundRecord
	}

	var user models.User
	if err := models.Active(h.db).Preload("Role").First(&user, "id = ?", userID).Error; err != nil {
		return h.log.Error("failed to reload user", err)
	}
	user.Password = ""
	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) issueTokenPair(user *models.User) (*TokenPairResponse, error) {
	return h.issueTokenPairTx(h.db, user)
}

func (h *AuthHandler) issueTokenPairTx(tx *gorm.DB, user *models.User) (*TokenPairResponse, error) {
	accessToken, err := utils.GenerateAccessToken(h.cfg, user)
	if err != nil {
		return nil, h.log.Error("failed to sign access token", err)
	}
	refreshToken, err := utils.GenerateRefreshToken(h.cfg, user)
	if err != nil {
		return nil, h.log.Error("failed to sign refresh token", err)
	}

	record := models.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(h.cfg.JWT.RefreshTokenTTL),
	}
	if err := tx.Create(&record).Error; err != nil {
		return nil, h.log.Error("failed to persist refresh token", err)
	}

	return &TokenPairResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
