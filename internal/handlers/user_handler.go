package handlers

import (
	"net/http"

	"gomall/internal/api/middleware"
	"gomall/internal/api/validator"
	"gomall/internal/errs"
	"gomall/internal/models"
	"gomall/internal/services"
	"gomall/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// UserHandler is the administrative user CRUD surface. It is mounted
// under the admin segment so only the ADMIN role ever holds permission
// rows for these routes.
type UserHandler struct {
	users *services.UserService
	log   *logger.Logger
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{
		users: services.NewUserService(db),
		log:   logger.New("UserHandler"),
	}
}

// List returns all active users with their role.
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /admin/users [get]
func (h *UserHandler) List(c echo.Context) error {
	page, limit := pagination(c)
	users, total, err := h.users.List(c.Request().Context(), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  users,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Get returns one user.
// @Summary Get a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Security BearerAuth
// @Router /admin/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.users.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Create creates a user with an assigned role. Only an ADMIN agent may
// assign the ADMIN role.
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param request body validator.CreateUserRequest true "User"
// @Success 201 {object} models.User
// @Failure 409 {object} map[string]interface{} "Email taken"
// @Security BearerAuth
// @Router /admin/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req validator.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	user, err := h.users.Create(c.Request().Context(), services.UserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Avatar:   req.Avatar,
		Status:   models.UserStatus(req.Status),
		RoleID:   req.RoleID,
	}, middleware.GetRoleName(c), middleware.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// Update changes a user. Agents cannot update themselves here, and a
// non-ADMIN agent cannot touch a user who holds the ADMIN role.
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body validator.UpdateUserRequest true "User"
// @Success 200 {object} models.User
// @Failure 403 {object} map[string]interface{} "Self-update or admin target"
// @Security BearerAuth
// @Router /admin/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	var req validator.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	user, err := h.users.Update(c.Request().Context(), c.Param("id"), services.UserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Avatar:   req.Avatar,
		Status:   models.UserStatus(req.Status),
		RoleID:   req.RoleID,
	}, middleware.GetRoleName(c), middleware.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Delete soft-deletes a user. Agents cannot delete themselves.
// @Summary Delete a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]interface{} "Self-delete or admin target"
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.users.Delete(c.Request().Context(), c.Param("id"), middleware.GetRoleName(c), middleware.GetUserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "user deleted"})
}
