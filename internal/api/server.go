package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-advanced-admin/admin"
	admingorm "github.com/go-advanced-admin/orm-gorm"
	adminecho "github.com/go-advanced-admin/web-echo"
	"golang.org/x/time/rate"

	"gomall/internal/api/validator"
	"gomall/internal/cache"
	"gomall/internal/config"
	"gomall/internal/errs"
	"gomall/internal/models"
	"gomall/internal/services"
	"gomall/internal/utils"
	"gomall/internal/ws"

	console "gomall/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	db        *gorm.DB
	roleCache cache.RolePermissionCache
	scheduler services.CancellationScheduler
	hub       *ws.Hub
}

var log = console.New("API-Server")

// NewServer @title Gomall API
// @version 1.0
// @description This is the API documentation for the Gomall project.
// @host localhost:8080
// @BasePath /api/v1
func NewServer(cfg *config.Config, db *gorm.DB, roleCache cache.RolePermissionCache, scheduler services.CancellationScheduler, hub *ws.Hub) *Server {
	e := echo.New()

	// Create custom validator
	e.Validator = validator.NewValidator()

	// Configure middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentLength, "payment-api-key"},
	}))
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))
	e.Use(middleware.BodyLimit("10M"))

	// Custom error handler
	e.HTTPErrorHandler = customHTTPErrorHandler

	// Create server instance
	s := &Server{
		echo:      e,
		config:    cfg,
		db:        db,
		roleCache: roleCache,
		scheduler: scheduler,
		hub:       hub,
	}

	// Seed base roles and the bootstrap admin account
	if err := models.EnsureBaseRoles(db); err != nil {
		log.Warn("Warning: Failed to seed base roles: %v", err)
	} else {
		log.Success("Successfully seeded base roles")
	}

	if err := models.CreateAdminFromEnv(db); err != nil {
		log.Warn("Warning: Failed to create admin account: %v", err)
	} else {
		log.Success("Successfully created admin account")
	}

	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(20))))

	// Create a new GORM integrator
	gormIntegrator := admingorm.NewIntegrator(db)
	// Create a new Echo integrator
	echoIntegrator := adminecho.NewIntegrator(e.Group(""))

	// The panel group carries no auth middleware, so the checker
	// resolves the caller's role itself: bearer token, then a live role
	// lookup. Only the ADMIN base role gets through.
	permissionChecker := func(
		request admin.PermissionRequest, ctx interface{},
	) (bool, error) {
		c, ok := ctx.(echo.Context)
		if !ok {
			return false, nil
		}
		return isAdminRequest(c, cfg, db), nil
	}

	// Create a new admin panel
	adminPanel, err := admin.NewPanel(
		gormIntegrator, echoIntegrator, permissionChecker, nil,
	)
	if err != nil {
		err := log.Error("Failed to create admin panel", err)
		if err != nil {
			return nil
		}
	}

	// Register the admin panel
	_, err = adminPanel.RegisterApp(
		"Gomall",
		"Gomall Admin Panel",
		nil,
	)
	if err != nil {
		err := log.Error("Failed to create admin panel", err)
		if err != nil {
			return nil
		}
	}

	// Register routes
	s.registerRoutes()

	// Reconcile stored permissions against the route table the server
	// just registered.
	if err := models.SyncPermissions(db, s.CollectRoutes(), roleCache); err != nil {
		log.Warn("Warning: Failed to sync permissions: %v", err)
	} else {
		log.Success("Successfully synced permissions")
	}

	return s
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// CollectRoutes snapshots the live route table for permission
// reconciliation. Only the versioned API surface participates; the
// health check, swagger and admin panel stay outside the permission
// model.
func (s *Server) CollectRoutes() []models.RouteDef {
	var defs []models.RouteDef
	for _, r := range s.echo.Routes() {
		if !strings.HasPrefix(r.Path, "/api/v1/") {
			continue
		}
		defs = append(defs, models.RouteDef{Path: r.Path, Method: r.Method})
	}
	return defs
}

// Health check endpoint
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// isAdminRequest authenticates an admin-panel request from scratch: a
// valid access token whose role is the active ADMIN base role. The
// role is re-read from the store so a demoted admin loses the panel as
// soon as the token's role row changes.
func isAdminRequest(c echo.Context, cfg *config.Config, db *gorm.DB) bool {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return false
	}
	claims, err := utils.ParseToken(cfg, header[len(prefix):])
	if err != nil {
		return false
	}
	role, err := models.GetActiveRoleWithPermissions(db, claims.RoleID)
	if err != nil {
		return false
	}
	return role.Name == models.RoleNameAdmin
}

// Custom HTTP error handler
func customHTTPErrorHandler(err error, c echo.Context) {
	var (
		code           = http.StatusInternalServerError
		message        interface{}
		errorCode      string
		appErr         *errs.AppError
		validationErrs validator.ValidationErrors
	)

	switch {
	case errors.As(err, &appErr):
		code = errs.HTTPStatus(appErr)
		errorCode = appErr.Code
		message = appErr.Message
	case errors.As(err, &validationErrs):
		code = http.StatusBadRequest
		errorCode = "VALIDATION_FAILED"
		message = formatValidationErrors(validationErrs)
	default:
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			message = he.Message
		} else {
			message = http.StatusText(code)
		}
	}

	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			body := map[string]interface{}{
				"error": message,
				"code":  code,
				"time":  time.Now().Format(time.RFC3339),
			}
			if errorCode != "" {
				body["code"] = errorCode
			}
			err = c.JSON(code, body)
		}
		if err != nil {
			c.Echo().Logger.Error(err)
		}
	}
}

// formatValidationErrors formats validation errors into a map
func formatValidationErrors(errors validator.ValidationErrors) map[string]string {
	errMap := make(map[string]string)
	for _, err := range errors {
		field := err.Field()
		tag := err.Tag()
		param := err.Param()

		switch tag {
		case "required":
			errMap[field] = fmt.Sprintf("%s is required", field)
		case "email":
			errMap[field] = fmt.Sprintf("%s must be a valid email", field)
		case "min":
			errMap[field] = fmt.Sprintf("%s must be at least %s", field, param)
		case "max":
			errMap[field] = fmt.Sprintf("%s must be at most %s", field, param)
		case "url":
			errMap[field] = fmt.Sprintf("%s must be a valid URL", field)
		case "uuid":
			errMap[field] = fmt.Sprintf("%s must be a valid UUID", field)
		case "oneof":
			errMap[field] = fmt.Sprintf("%s must be one of [%s]", field, param)
		case "gt":
			errMap[field] = fmt.Sprintf("%s must be greater than %s", field, param)
		case "gte":
			errMap[field] = fmt.Sprintf("%s must be %s or more", field, param)
		case "required_if":
			errMap[field] = fmt.Sprintf("%s is required when %s", field, param)
		case "http_method":
			errMap[field] = fmt.Sprintf("%s must be a valid HTTP method", field)
		case "order_status":
			errMap[field] = fmt.Sprintf("%s must be a valid order status", field)
		case "language_code":
			errMap[field] = fmt.Sprintf("%s must be a 2-10 character language code", field)
		default:
			errMap[field] = fmt.Sprintf("%s failed validation: %s", field, tag)
		}
	}
	return errMap
}
