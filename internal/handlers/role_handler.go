package handlers

import (
	"net/http"

	"gomall/internal/api/middleware"
	"gomall/internal/api/validator"
	"gomall/internal/cache"
	"gomall/internal/errs"
	"gomall/internal/services"
	"gomall/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

type RoleHandler struct {
	roles *services.RoleService
	log   *logger.Logger
}

func NewRoleHandler(db *gorm.DB, roleCache cache.RolePermissionCache) *RoleHandler {
	return &RoleHandler{
		roles: services.NewRoleService(db, roleCache),
		log:   logger.New("RoleHandler"),
	}
}

// List returns all active roles with their permissions.
// @Summary List roles
// @Tags roles
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /roles [get]
func (h *RoleHandler) List(c echo.Context) error {
	page, limit := pagination(c)
	roles, total, err := h.roles.List(c.Request().Context(), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  roles,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Get returns one role.
// @Summary Get a role
// @Tags roles
// @Produce json
// @Param id path string true "Role ID"
// @Success 200 {object} models.Role
// @Security BearerAuth
// @Router /roles/{id} [get]
func (h *RoleHandler) Get(c echo.Context) error {
	role, err := h.roles.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, role)
}

// Create creates a role, optionally with an initial permission set.
// @Summary Create a role
// @Tags roles
// @Accept json
// @Produce json
// @Param request body validator.RoleRequest true "Role"
// @Success 201 {object} models.Role
// @Failure 409 {object} map[string]interface{} "Role name taken"
// @Security BearerAuth
// @Router /roles [post]
func (h *RoleHandler) Create(c echo.Context) error {
	var req validator.RoleRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	role, err := h.roles.Create(c.Request().Context(), services.RoleInput{
		Name:          req.Name,
		Description:   req.Description,
		IsActive:      req.IsActive,
		PermissionIDs: req.PermissionIDs,
	}, middleware.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, role)
}

// Update changes a role and/or its permission assignment. The change is
// visible to the very next authorization check.
// @Summary Update a role
// @Tags roles
// @Accept json
// @Produce json
// @Param id path string true "Role ID"
// @Param request body validator.RoleRequest true "Role"
// @Success 200 {object} models.Role
// @Failure 403 {object} map[string]interface{} "Base role rename"
// @Security BearerAuth
// @Router /roles/{id} [put]
func (h *RoleHandler) Update(c echo.Context) error {
	var req validator.RoleRequest
	if err := c.Bind(&req); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}

	role, err := h.roles.Update(c.Request().Context(), c.Param("id"), services.RoleInput{
		Name:          req.Name,
		Description:   req.Description,
		IsActive:      req.IsActive,
		PermissionIDs: req.PermissionIDs,
	}, middleware.GetUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, role)
}

// Delete soft-deletes a role.
// @Summary Delete a role
// @Tags roles
// @Produce json
// @Param id path string true "Role ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]interface{} "Base roles are protected"
// @Security BearerAuth
// @Router /roles/{id} [delete]
func (h *RoleHandler) Delete(c echo.Context) error {
	if err := h.roles.Delete(c.Request().Context(), c.Param("id"), middleware.GetUserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "role deleted"})
}
