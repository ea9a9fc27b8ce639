package middleware

import (
	"crypto/subtle"
	"errors"

	"gomall/internal/cache"
	"gomall/internal/config"
	"gomall/internal/errs"
	"gomall/internal/models"
	"gomall/internal/utils"
	"gomall/internal/utils/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var log = logger.New("auth_middleware")

// Strategy names routable from route policies.
const (
	StrategyBearer        = "bearer"
	StrategyPaymentAPIKey = "paymentApiKey"
	StrategyNone          = "none"
)

type Condition string

const (
	ConditionAnd Condition = "and"
	ConditionOr  Condition = "or"
)

// Policy is the static per-route authentication declaration: which
// named strategies apply and how their verdicts combine. Evaluation
// follows declaration order.
type Policy struct {
	Strategies []string
	Condition  Condition
}

func Bearer() Policy {
	return Policy{Strategies: []string{StrategyBearer}, Condition: ConditionAnd}
}

func PaymentAPIKey() Policy {
	return Policy{Strategies: []string{StrategyPaymentAPIKey}, Condition: ConditionAnd}
}

func Public() Policy {
	return Policy{Strategies: []string{StrategyNone}, Condition: ConditionAnd}
}

func AnyOf(strategies ...string) Policy {
	return Policy{Strategies: strategies, Condition: ConditionOr}
}

func AllOf(strategies ...string) Policy {
	return Policy{Strategies: strategies, Condition: ConditionAnd}
}

// Strategy authenticates one request. A nil return allows; returned
// errors are taxonomy errors except for genuine system failures, which
// must propagate to the caller untouched.
type Strategy interface {
	Authenticate(c echo.Context) error
}

// AuthMiddleware dispatches route policies against a registry of named
// strategies.
type AuthMiddleware struct {
	strategies map[string]Strategy
}

func NewAuthMiddleware(cfg *config.Config, db *gorm.DB, roleCache cache.RolePermissionCache) *AuthMiddleware {
	return &AuthMiddleware{
		strategies: map[string]Strategy{
			StrategyBearer:        &BearerStrategy{cfg: cfg, db: db, cache: roleCache},
			StrategyPaymentAPIKey: &APIKeyStrategy{key: cfg.Payment.APIKey},
			StrategyNone:          noneStrategy{},
		},
	}
}

// Register adds or replaces a named strategy.
func (m *AuthMiddleware) Register(name string, s Strategy) {
	m.strategies[name] = s
}

// Require returns the echo middleware enforcing policy. AND requires
// every strategy to allow and denies on the first failure; OR allows
// on the first success and, after exhausting all strategies, denies
// with the most specific error seen rather than a blanket 401.
func (m *AuthMiddleware) Require(policy Policy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if policy.Condition == ConditionOr {
				var lastErr error = errs.Unauthorized("UNAUTHORIZED", "unauthorized")
				for _, name := range policy.Strategies {
					strategy, ok := m.strategies[name]
					if !ok {
						return errs.Internal("unknown auth strategy "+name, errors.New(name))
					}
					err := strategy.Authenticate(c)
					if err == nil {
						return next(c)
					}
					// System failures are not authorization verdicts.
					if !isAuthError(err) {
						return err
					}
					lastErr = err
				}
				return lastErr
			}

			for _, name := range policy.Strategies {
				strategy, ok := m.strategies[name]
				if !ok {
					return errs.Internal("unknown auth strategy "+name, errors.New(name))
				}
				if err := strategy.Authenticate(c); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}

func isAuthError(err error) bool {
	return errors.Is(err, errs.ErrUnauthorized) || errors.Is(err, errs.ErrForbidden)
}

// BearerStrategy validates the access token and matches the caller's
// role permissions against the requested route. Permission sets come
// from the role cache, falling back to the store on miss. A role that
// cannot be loaded (missing, inactive, soft-deleted) is an
// authorization failure, never a soft-allow.
type BearerStrategy struct {
	cfg   *config.Config
	db    *gorm.DB
	cache cache.RolePermissionCache
}

func (s *BearerStrategy) Authenticate(c echo.Context) error {
	token, err := extractBearer(c)
	if err != nil {
		return err
	}

	claims, err := utils.ParseToken(s.cfg, token)
	if err != nil {
		return errs.ErrInvalidAccessToken
	}

	cachedRole, err := s.resolveRole(c, claims.RoleID)
	if err != nil {
		return err
	}

	key := models.PermissionKey(c.Path(), c.Request().Method)
	if _, ok := cachedRole.Permissions[key]; !ok {
		return errs.ErrPermissionDenied
	}

	c.Set("userID", claims.UserID)
	c.Set("roleID", claims.RoleID)
	c.Set("roleName", cachedRole.Name)
	c.Set("email", claims.Email)

	return nil
}

func (s *BearerStrategy) resolveRole(c echo.Context, roleID string) (*cache.CachedRole, error) {
	ctx := c.Request().Context()

	cachedRole, err := s.cache.Get(ctx, roleID)
	if err == nil {
		return cachedRole, nil
	}
	if !errors.Is(err, errs.ErrCacheMiss) {
		log.Warn("role cache read failed, falling back to store: %v", err)
	}

	role, err := models.GetActiveRoleWithPermissions(s.db, roleID)
	if err != nil {
		return nil, errs.ErrPermissionDenied
	}

	cachedRole = cache.BuildCachedRole(role)
	if err := s.cache.Set(ctx, cachedRole); err != nil {
		// A cache write failure must not fail the request.
		log.Warn("role cache write failed: %v", err)
	}
	return cachedRole, nil
}

func extractBearer(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", errs.ErrMissingAccessToken
	}
	const prefix = "Bearer "
	if len(authHeader) <= len(prefix) || authHeader[:len(prefix)] != prefix {
		return "", errs.ErrMissingAccessToken
	}
	return authHeader[len(prefix):], nil
}

// APIKeyStrategy authenticates webhook calls by the static
// payment-api-key header, compared in constant time.
type APIKeyStrategy struct {
	key string
}

func (s *APIKeyStrategy) Authenticate(c echo.Context) error {
	provided := c.Request().Header.Get("payment-api-key")
	if s.key == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(s.key)) != 1 {
		return errs.ErrInvalidAPIKey
	}
	return nil
}

type noneStrategy struct{}

func (noneStrategy) Authenticate(c echo.Context) error { return nil }

// GetUserID Helper functions to get values from context
func GetUserID(c echo.Context) string {
	if id, ok := c.Get("userID").(string); ok {
		return id
	}
	return ""
}

func GetRoleID(c echo.Context) string {
	if id, ok := c.Get("roleID").(string); ok {
		return id
	}
	return ""
}

func GetRoleName(c echo.Context) string {
	if name, ok := c.Get("roleName").(string); ok {
		return name
	}
	return ""
}

func GetEmail(c echo.Context) string {
	if email, ok := c.Get("email").(string); ok {
		return email
	}
	return ""
}
