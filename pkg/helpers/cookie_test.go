package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == SessionCookieName {
			return ck
		}
	}
	t.Fatalf("no %q cookie in response", SessionCookieName)
	return nil
}

func TestManager_SetSession_Secure(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	NewCookie("", true).SetSession(c, "abc", time.Now().Add(time.Hour))

	ck := sessionCookie(t, rec)
	assert.Equal(t, "abc", ck.Value)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteNoneMode, ck.SameSite)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, 3600, ck.MaxAge)
}

func TestMaxAgeFrom(t *testing.T) {
	assert.Equal(t, 3600, maxAgeFrom(time.Now().Add(time.Hour)))
	assert.Equal(t, 60, maxAgeFrom(time.Now().Add(time.Minute-100*time.Millisecond)))
	assert.Equal(t, 0, maxAgeFrom(time.Now().Add(-time.Minute)))
}

func TestManager_SetSession_InsecureIsLax(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	NewCookie("", false).SetSession(c, "abc", time.Now().Add(time.Hour))

	ck := sessionCookie(t, rec)
	assert.False(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
}

func TestManager_Clear(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	NewCookie("", true).Clear(c)

	ck := sessionCookie(t, rec)
	assert.Empty(t, ck.Value)
	assert.Less(t, ck.MaxAge, 0)
	assert.True(t, ck.HttpOnly)
}

func TestManager_Session(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	m := NewCookie("", true)
	assert.Empty(t, m.Session(c))

	c.Request.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok"})
	require.Equal(t, "tok", m.Session(c))
}
