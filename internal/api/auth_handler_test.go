package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/miva-edu/mind-analytics/backend/internal/auth"
)

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "users.yaml")
	content := "users:\n  - {username: ada, display_name: Ada Obi, role: admin, password_hash: \"" + string(hash) + "\"}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	store, err := auth.LoadUserStore(path)
	require.NoError(t, err)

	return NewAuthHandler(auth.NewAuthenticator(store, auth.NewSessionManager("unit-test-secret")), testLogger())
}

func loginRequest(t *testing.T, h *AuthHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.HandleLogin(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestHandleLogin(t *testing.T) {
	h := newAuthHandler(t)

	t.Run("valid credentials", func(t *testing.T) {
		rec := loginRequest(t, h, `{"username":"ada","password":"s3cret"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "ada", resp.Username)
		assert.Equal(t, "admin", resp.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := loginRequest(t, h, `{"username":"ada","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := loginRequest(t, h, `{"username":"ghost","password":"s3cret"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := loginRequest(t, h, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleMe(t *testing.T) {
	h := newAuthHandler(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(claimsContextKey, claimsFor(auth.RoleFaculty))

	require.NoError(t, h.HandleMe(c))

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "tester", resp["username"])
	assert.Equal(t, "faculty", resp["role"])
}
