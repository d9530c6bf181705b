package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-account-service/internal/domain/apperr"
	"github.com/oksasatya/user-account-service/pkg/helpers"
	"github.com/oksasatya/user-account-service/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type revokedSet map[string]bool

func (r revokedSet) IsRevoked(_ context.Context, jti string) (bool, error) {
	return r[jti], nil
}

type failingRevocations struct{}

func (failingRevocations) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func newAuthRouter(jwt *helpers.JWTManager, rev RevocationChecker) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), ErrorResponder(helpers.NewNopLogger()))
	r.GET("/me", SessionAuth(jwt, rev), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": UserID(c), "admin": IsAdmin(c)})
	})
	return r
}

func doGet(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: helpers.SessionCookieName, Value: token})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSessionAuth(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", time.Hour)
	token, _, err := jwt.GenerateToken("user-1", true, false)
	require.NoError(t, err)
	claims, err := jwt.ParseToken(token)
	require.NoError(t, err)

	otherKey, _, err := helpers.NewJWTManager("other", time.Hour).GenerateToken("user-1", false, false)
	require.NoError(t, err)

	tests := []struct {
		name       string
		token      string
		rev        RevocationChecker
		wantStatus int
		wantMsg    string
	}{
		{"valid", token, nil, http.StatusOK, ""},
		{"missing cookie", "", nil, http.StatusUnauthorized, apperr.ErrUnauthenticated.Error()},
		{"garbage", "abc.def.ghi", nil, http.StatusUnauthorized, apperr.ErrInvalidToken.Error()},
		{"wrong key", otherKey, nil, http.StatusUnauthorized, apperr.ErrInvalidToken.Error()},
		{"revoked", token, revokedSet{claims.ID: true}, http.StatusUnauthorized, apperr.ErrInvalidToken.Error()},
		{"not revoked", token, revokedSet{"other": true}, http.StatusOK, ""},
		{"revocation store down", token, failingRevocations{}, http.StatusInternalServerError, apperr.ErrInternal.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(newAuthRouter(jwt, tt.rev), "/me", tt.token)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"id":"user-1","admin":true}`, w.Body.String())
				return
			}
			body := decodeError(t, w)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestOptionalSession(t *testing.T) {
	jwt := helpers.NewJWTManager("secret", time.Hour)
	token, _, err := jwt.GenerateToken("admin-1", true, true)
	require.NoError(t, err)
	claims, err := jwt.ParseToken(token)
	require.NoError(t, err)

	newRouter := func(rev RevocationChecker) *gin.Engine {
		r := gin.New()
		r.Use(RequestID(), ErrorResponder(helpers.NewNopLogger()))
		r.GET("/whoami", OptionalSession(jwt, rev), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"id": UserID(c), "admin": IsAdmin(c)})
		})
		return r
	}

	tests := []struct {
		name  string
		token string
		rev   RevocationChecker
		want  string
	}{
		{"valid", token, nil, `{"id":"admin-1","admin":true}`},
		{"anonymous", "", nil, `{"id":"","admin":false}`},
		{"garbage", "abc.def.ghi", nil, `{"id":"","admin":false}`},
		{"revoked", token, revokedSet{claims.ID: true}, `{"id":"","admin":false}`},
		{"revocation store down", token, failingRevocations{}, `{"id":"","admin":false}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(newRouter(tt.rev), "/whoami", tt.token)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}
}

func TestErrorResponder(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	r := gin.New()
	r.Use(RequestID(), ErrorResponder(logger))
	r.GET("/validation", func(c *gin.Context) {
		_ = c.Error(apperr.Validation("Missing fields", map[string]string{"email": "is required"}))
	})
	r.GET("/conflict", func(c *gin.Context) {
		_ = c.Error(errors.Join(apperr.ErrConflict, errors.New("users_email_key")))
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: password authentication failed for user app"))
	})
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := doGet(r, "/validation", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "Missing fields", body.Message)
	assert.Equal(t, map[string]any{"email": "is required"}, body.Error)

	w = doGet(r, "/conflict", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	body = decodeError(t, w)
	assert.Equal(t, apperr.ErrConflict.Error(), body.Message)
	assert.Nil(t, body.Error)

	assert.Empty(t, hook.AllEntries())
	w = doGet(r, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password authentication")
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Data["error"], "password authentication")

	w = doGet(r, "/ok", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRequestIDKey)) })

	w := doGet(r, "/", "")
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestRealIP(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, ClientIP(c)) })

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"cloudflare", map[string]string{"CF-Connecting-IP": "203.0.113.9", "X-Forwarded-For": "10.0.0.1"}, "203.0.113.9"},
		{"x-real-ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "198.51.100.4"},
		{"left-most forwarded", map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.2"}, "198.51.100.7"},
		{"invalid header falls back", map[string]string{"CF-Connecting-IP": "nope"}, "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestAccessLog(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	r := gin.New()
	r.Use(RequestID(), RealIP(), AccessLog(logger))
	r.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	doGet(r, "/users/42", "")

	require.Len(t, hook.AllEntries(), 1)
	e := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, e.Level)
	assert.Equal(t, "/users/:id", e.Data["path"])
	assert.Equal(t, http.StatusNotFound, e.Data["status"])
	assert.NotEmpty(t, e.Data["request_id"])
}
