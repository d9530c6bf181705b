package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/user-account-service/internal/domain/apperr"
	"github.com/oksasatya/user-account-service/pkg/helpers"
)

const (
	CtxUserIDKey  = "userID"
	CtxIsAdminKey = "isAdmin"
)

type TokenParser interface {
	ParseToken(token string) (*helpers.Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// authenticate resolves the session cookie to live claims.
func authenticate(c *gin.Context, tokens TokenParser, revocations RevocationChecker) (*helpers.Claims, error) {
	token, err := c.Cookie(helpers.SessionCookieName)
	if err != nil || token == "" {
		return nil, apperr.ErrUnauthenticated
	}
	claims, err := tokens.ParseToken(token)
	if err != nil {
		return nil, err
	}
	if revocations != nil {
		revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, apperr.ErrInvalidToken
		}
	}
	return claims, nil
}

func setSession(c *gin.Context, claims *helpers.Claims) {
	c.Set(CtxUserIDKey, claims.Subject)
	c.Set(CtxIsAdminKey, claims.IsAdmin)
}

// SessionAuth requires a valid session cookie. On success it sets userID
// and isAdmin in the Gin context. revocations may be nil.
func SessionAuth(tokens TokenParser, revocations RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authenticate(c, tokens, revocations)
		if err != nil {
			abortWith(c, err)
			return
		}
		setSession(c, claims)
		c.Next()
	}
}

// OptionalSession sets the same keys as SessionAuth when the request carries
// a live session and otherwise lets it through anonymously. Handlers decide
// what an anonymous caller may do.
func OptionalSession(tokens TokenParser, revocations RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := authenticate(c, tokens, revocations); err == nil {
			setSession(c, claims)
		}
		c.Next()
	}
}

// UserID returns the authenticated subject, or "" without a session.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

// IsAdmin reports the admin claim of the session, false without one.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(CtxIsAdminKey)
}

// abortWith stops the chain and leaves err for ErrorResponder.
func abortWith(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
