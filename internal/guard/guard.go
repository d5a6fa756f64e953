// Package guard resolves the caller's identity from a bearer token and
// checks role and ownership rules before a request reaches the order engine.
// Checks run in a fixed order: identity, then role, then ownership.
package guard

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/marketplace-ordenes/internal/apperr"
	"github.com/MikeMC777/marketplace-ordenes/internal/httpx"
	"github.com/MikeMC777/marketplace-ordenes/internal/logger"
	"github.com/MikeMC777/marketplace-ordenes/internal/user"
)

const (
	CookieName = "userToken"
	tokenKey   = "token"
)

// Validator is implemented by session.Store.
type Validator interface {
	Validate(ctx context.Context, token string) (user.Identity, error)
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id user.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (user.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(user.Identity)
	return id, ok
}

// ErrUnauthenticated is the only error Authenticate ever renders; the cause
// stays in the server log.
var ErrUnauthenticated = apperr.E(apperr.Unauthenticated, "Authentication required")

func extractToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if tok, err := c.Cookie(CookieName); err == nil {
		return tok
	}
	return ""
}

// Authenticate resolves the identity and stores it in the request context.
func Authenticate(v Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := extractToken(c)
		if tok == "" {
			httpx.WriteError(c, ErrUnauthenticated)
			return
		}
		id, err := v.Validate(c.Request.Context(), tok)
		if err != nil {
			logger.FromCtx(c.Request.Context()).Debug("authentication rejected", "err", err)
			httpx.WriteError(c, ErrUnauthenticated)
			return
		}
		c.Set(tokenKey, tok)
		ctx := WithIdentity(c.Request.Context(), id)
		ctx = logger.Inject(ctx, logger.FromCtx(ctx).With("user_id", id.UserID))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// Token returns the bearer token Authenticate accepted.
func Token(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// Identity returns the identity Authenticate stored.
func Identity(c *gin.Context) (user.Identity, bool) {
	return IdentityFrom(c.Request.Context())
}

// Require rejects callers whose role does not satisfy rule. It must run after
// Authenticate.
func Require(rule Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := Identity(c)
		if !ok {
			httpx.WriteError(c, ErrUnauthenticated)
			return
		}
		if err := Authorize(id, rule); err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.Next()
	}
}
