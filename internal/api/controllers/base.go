package controllers

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"gomall/internal/errs"
	"gomall/internal/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// BaseController provides generic CRUD operations for any model
type BaseController[T any] struct {
	service services.BaseService[T]
}

// NewBaseController creates a new base controller
func NewBaseController[T any](service services.BaseService[T]) *BaseController[T] {
	return &BaseController[T]{
		service: service,
	}
}

// parseIncludes parses the include query parameter and returns a slice of relationships to preload
func parseIncludes(ctx echo.Context) []string {
	include := ctx.QueryParam("include")
	if include == "" {
		return nil
	}
	return strings.Split(include, ",")
}

// stampCreator writes the calling user into the entity's CreatedByID
// field when the model carries one.
func stampCreator[T any](ctx echo.Context, entity *T) {
	userID, ok := ctx.Get("userID").(string)
	if !ok || userID == "" {
		return
	}
	field := reflect.ValueOf(entity).Elem().FieldByName("CreatedByID")
	if !field.IsValid() || !field.CanSet() {
		return
	}
	switch field.Kind() {
	case reflect.String:
		if field.String() == "" {
			field.SetString(userID)
		}
	case reflect.Pointer:
		if field.IsNil() && field.Type().Elem().Kind() == reflect.String {
			field.Set(reflect.ValueOf(&userID))
		}
	}
}

// Create handles creation of new entities
func (c *BaseController[T]) Create(ctx echo.Context) error {
	var entity T
	if err := ctx.Bind(&entity); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}

	if err := ctx.Validate(&entity); err != nil {
		return err
	}

	stampCreator(ctx, &entity)

	includes := parseIncludes(ctx)
	if err := c.service.Create(ctx.Request().Context(), &entity, includes...); err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, entity)
}

// Get handles retrieval of a single entity
func (c *BaseController[T]) Get(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		return errs.Validation("MISSING_ID", "missing id parameter")
	}
	includes := parseIncludes(ctx)
	entity, err := c.service.Get(ctx.Request().Context(), id, includes...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrNotFoundRecord
		}
		return err
	}

	return ctx.JSON(http.StatusOK, entity)
}

// List handles retrieval of multiple entities with pagination and filtering
func (c *BaseController[T]) List(ctx echo.Context) error {
	// Parse pagination parameters
	page, _ := strconv.Atoi(ctx.QueryParam("page"))
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	// Parse filters from query parameters, restricted to real columns.
	filters := make(map[string]interface{})
	var entity T
	entityType := reflect.TypeOf(entity)
	for key, values := range ctx.QueryParams() {
		if key == "page" || key == "limit" || key == "include" || key == "sort" || key == "order" || len(values) == 0 {
			continue
		}
		if _, found := entityType.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, strings.ReplaceAll(key, "_", ""))
		}); found {
			filters[key] = values[0]
		}
	}

	includes := parseIncludes(ctx)

	sort := ctx.QueryParam("sort")
	order := ctx.QueryParam("order")
	if order != "asc" && order != "desc" {
		order = "asc"
	}
	var sortFields []string
	if sort != "" {
		for _, field := range strings.Split(sort, ",") {
			if _, found := entityType.FieldByNameFunc(func(name string) bool {
				return strings.EqualFold(name, strings.ReplaceAll(field, "_", ""))
			}); found {
				sortFields = append(sortFields, field)
			}
		}
	}

	entities, total, err := c.service.List(ctx.Request().Context(), page, limit, filters, sortFields, order, includes...)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, map[string]interface{}{
		"data":  entities,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// Update handles updating an existing entity
func (c *BaseController[T]) Update(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		return errs.Validation("MISSING_ID", "missing id parameter")
	}

	var entity T
	if err := ctx.Bind(&entity); err != nil {
		return errs.Validation("INVALID_BODY", err.Error())
	}

	if err := ctx.Validate(&entity); err != nil {
		return err
	}

	includes := parseIncludes(ctx)
	if err := c.service.Update(ctx.Request().Context(), id, &entity, includes...); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrNotFoundRecord
		}
		return err
	}

	return ctx.JSON(http.StatusOK, entity)
}

// Delete handles deletion of an entity
func (c *BaseController[T]) Delete(ctx echo.Context) error {
	id := ctx.Param("id")
	if id == "" {
		return errs.Validation("MISSING_ID", "missing id parameter")
	}

	deletedByID, _ := ctx.Get("userID").(string)
	if err := c.service.Delete(ctx.Request().Context(), id, deletedByID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrNotFoundRecord
		}
		return err
	}

	return ctx.NoContent(http.StatusNoContent)
}
