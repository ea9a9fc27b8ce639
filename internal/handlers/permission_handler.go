package handlers

import (
	"net/http"

	"gomall/internal/api/middleware"
	"gomall/internal/api/validator"
	"gomall/internal/cache"
	"gomall/internal/errs"
	"gomall/internal/models"
	"gomall/internal/services"
	"gomall/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type PermissionHandler struct {
	permissions *services.PermissionService
	log         *logger.Logger
}

func NewPermissionHandler(db *gorm.DB, roleCache cache.RolePermissionCache) *PermissionHandler {
	return &PermissionHandler{
		permissions: services.NewPermissionService(db, roleCache),
		log:         logger.New("PermissionHandler"),
	}
}

// List returns permissions, optionally filtered by module.
// @Summary List permissions
// @Tags permissions
// @Produce json
// @Param module query string false "Filter by module"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /permissions [get]
func (h *PermissionHandler) List(c echo.Context) error {
	page, limit := pagination(c)
	permissions, total, err := h.permissions.List(c.Request().Context(), page, limit, c.QueryParam("module"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  permissions,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Get returns one permission.
// @Summary Get a permission
// @Tags permissions
// @Produce json
// @Param id path string true "Permission ID"
// @Success 200 {object} models.Permission
// @Security BearerAuth
// @Router /permissions/{id} [get]
func (h *PermissionHandler) Get(c echo.Context) error {
	permission, err := h.permissions.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, permission)
}

// Create creates a permission for a (path, method) route.
// @Summary Create a permission
// @Tags permissions
// @Accept json
// @Produce json
// @Param request body validator.PermissionRequest true "Permission"
// @Success 201 {object} models.Permission
// @Failure 409 {object} map[string]interface{} "Route already covered"
// @Security BearerAuth
// @Router /permissions [post]
func (h *PermissionHandler) Create(c echo.Context) error {
	var req validator.PermissionRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	permission, err := h.permissions.Create(c.Request().Context(), services.PermissionInput{
		Name:        req.Name,
		Description: req.Description,
		Path:        req.Path,
		Method:      models.HTTPMethod(req.Method),
		Module:      req.Module,
	}, middleware.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, permission)
}

// Update changes a permission; every role holding it sees the change
// on its next authorization check.
// @Summary Update a permission
// @Tags permissions
// @Accept json
// @Produce json
// @Param id path string true "Permission ID"
// @Param request body validator.PermissionRequest true "Permission"
// @Success 200 {object} models.Permission
// @Security BearerAuth
// @Router /permissions/{id} [put]
func (h *PermissionHandler) Update(c echo.Context) error {
	var req validator.PermissionRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}

	permission, err := h.permissions.Update(c.Request().Context(), c.Param("id"), services.PermissionInput{
		Name:        req.Name,
		Description: req.Description,
		Path:        req.Path,
		Method:      models.HTTPMethod(req.Method),
		Module:      req.Module,
	}, middleware.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, permission)
}

// Delete soft-deletes a permission.
// @Summary Delete a permission
// @Tags permissions
// @Produce json
// @Param id path string true "Permission ID"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /permissions/{id} [delete]
func (h *PermissionHandler) Delete(c echo.Context) error {
	if err := h.permissions.Delete(c.Request().Context(), c.Param("id"), middleware.GetUserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "permission deleted"})
}
