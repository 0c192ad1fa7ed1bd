package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type okResponse struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	Admin  bool   `json:"admin"`
}

func mustMakeJWT(t *testing.T, secret string, sub int64, role string, signingMethod jwt.SigningMethod) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"iat":  1,
		"exp":  9999999999,
	}
	s, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func runRequest(t *testing.T, e *echo.Echo, path string, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var r errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&r))
	return r
}

func protected(e *echo.Echo, mws ...echo.MiddlewareFunc) {
	e.GET("/protected", func(c echo.Context) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		role, _ := c.Get(CtxUserRoleKey).(string)
		return c.JSON(http.StatusOK, okResponse{UserID: actor.UserID, Role: role, Admin: actor.Admin})
	}, mws...)
}

func TestAuthJWT_Unauthorized(t *testing.T) {
	expired, err := SignToken(testSecret, 1, RoleUser, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "bad scheme", header: "Token abc.def.ghi"},
		{name: "empty token", header: "Bearer   "},
		{name: "bad signature", header: "Bearer " + mustMakeJWT(t, "wrong-secret", 1, RoleUser, jwt.SigningMethodHS256)},
		{name: "wrong alg", header: "Bearer " + mustMakeJWT(t, testSecret, 1, RoleUser, jwt.SigningMethodHS512)},
		{name: "no role", header: "Bearer " + mustMakeJWT(t, testSecret, 1, "", jwt.SigningMethodHS256)},
		{name: "non-positive sub", header: "Bearer " + mustMakeJWT(t, testSecret, 0, RoleUser, jwt.SigningMethodHS256)},
		{name: "expired", header: "Bearer " + expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			protected(e, AuthJWT(testSecret))

			rec := runRequest(t, e, "/protected", tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			body := decodeError(t, rec)
			assert.Equal(t, "unauthorized", body.Error)
			assert.Equal(t, "UNAUTHORIZED", body.Code)
		})
	}
}

// 正常：ctxに値が入る
func TestAuthJWT_SetsActor(t *testing.T) {
	e := echo.New()
	protected(e, AuthJWT(testSecret))

	raw := mustMakeJWT(t, testSecret, 123, RoleUser, jwt.SigningMethodHS256)
	rec := runRequest(t, e, "/protected", "Bearer "+raw)
	require.Equal(t, http.StatusOK, rec.Code)

	var body okResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, okResponse{UserID: 123, Role: RoleUser, Admin: false}, body)
}

func TestSignToken_RoundTripsThroughAuthJWT(t *testing.T) {
	e := echo.New()
	protected(e, AuthJWT(testSecret))

	raw, err := SignToken(testSecret, 9, RoleAdmin, time.Hour, time.Now())
	require.NoError(t, err)

	rec := runRequest(t, e, "/protected", "Bearer "+raw)
	require.Equal(t, http.StatusOK, rec.Code)

	var body okResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, int64(9), body.UserID)
	assert.True(t, body.Admin)
}

func TestActorFrom_MissingContext(t *testing.T) {
	e := echo.New()
	protected(e)

	rec := runRequest(t, e, "/protected", "")
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestAdminRoleGuard(t *testing.T) {
	tests := []struct {
		name string
		role string
		want int
		code string
	}{
		{name: "admin passes", role: RoleAdmin, want: http.StatusOK},
		{name: "user is forbidden", role: RoleUser, want: http.StatusForbidden, code: "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			protected(e, AuthJWT(testSecret), AdminRoleGuard())

			raw := mustMakeJWT(t, testSecret, 5, tt.role, jwt.SigningMethodHS256)
			rec := runRequest(t, e, "/protected", "Bearer "+raw)
			assert.Equal(t, tt.want, rec.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, rec).Code)
			}
		})
	}
}

// AuthJWT無しでGuardだけ => 401
func TestAdminRoleGuard_MissingContext(t *testing.T) {
	e := echo.New()
	protected(e, AdminRoleGuard())

	rec := runRequest(t, e, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestLogger_WritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	e := echo.New()
	e.Use(RequestLogger())
	protected(e, AuthJWT(testSecret))

	raw := mustMakeJWT(t, testSecret, 42, RoleUser, jwt.SigningMethodHS256)
	rec := runRequest(t, e, "/protected", "Bearer "+raw)
	require.Equal(t, http.StatusOK, rec.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "request", line["message"])
	assert.Equal(t, "/protected", line["path"])
	assert.Equal(t, float64(200), line["status"])
	assert.Equal(t, float64(42), line["user_id"])
}

func TestRequestLogger_UnknownRouteIsWarn(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	e := echo.New()
	e.Use(RequestLogger())

	rec := runRequest(t, e, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, float64(404), line["status"])
}
