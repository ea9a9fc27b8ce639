package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gomall/internal/api/validator"
	"gomall/internal/config"
	"gomall/internal/db"
	"gomall/internal/errs"
	"gomall/internal/models"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func seedUser(t *testing.T, gdb *gorm.DB) *models.User {
	t.Helper()
	role := &models.Role{Name: "CLIENT_TEST", IsActive: true}
	require.NoError(t, gdb.Create(role).Error)
	user := &models.User{Email: "bob@example.com", Password: "x", Name: "Bob", RoleID: role.ID}
	require.NoError(t, gdb.Create(user).Error)
	return user
}

func postJSON(t *testing.T, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = validator.NewValidator()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(string(raw)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRefresh_RotatesToken(t *testing.T) {
	gdb := newTestDB(t)
	h := NewAuthHandler(gdb, config.LoadTestConfig())
	user := seedUser(t, gdb)

	pair, err := h.issueTokenPair(user)
	require.NoError(t, err)

	c, rec := postJSON(t, map[string]string{"refreshToken": pair.RefreshToken})
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var rotated TokenPairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rotated))
	assert.NotEmpty(t, rotated.RefreshToken)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The presented token is consumed by the rotation.
	var stored models.RefreshToken
	require.NoError(t, gdb.First(&stored, "token = ?", pair.RefreshToken).Error)
	assert.NotNil(t, stored.UsedAt)
}

// A consumed token coming back revokes the whole family: the token
// issued by the legitimate rotation dies with it.
func TestRefresh_ReuseRevokesFamily(t *testing.T) {
	gdb := newTestDB(t)
	h := NewAuthHandler(gdb, config.LoadTestConfig())
	user := seedUser(t, gdb)

	pair, err := h.issueTokenPair(user)
	require.NoError(t, err)

	c, rec := postJSON(t, map[string]string{"refreshToken": pair.RefreshToken})
	require.NoError(t, h.Refresh(c))
	var rotated TokenPairResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rotated))

	// Replay of the consumed token.
	c, _ = postJSON(t, map[string]string{"refreshToken": pair.RefreshToken})
	assert.ErrorIs(t, h.Refresh(c), errs.ErrRefreshTokenAlreadyUsed)

	// The sibling token from the legitimate rotation is now dead too.
	var sibling models.RefreshToken
	require.NoError(t, gdb.First(&sibling, "token = ?", rotated.RefreshToken).Error)
	assert.NotNil(t, sibling.UsedAt)

	c, _ = postJSON(t, map[string]string{"refreshToken": rotated.RefreshToken})
	assert.ErrorIs(t, h.Refresh(c), errs.ErrRefreshTokenAlreadyUsed)
}
