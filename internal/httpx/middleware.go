package httpx

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MikeMC777/marketplace-ordenes/internal/apperr"
	"github.com/MikeMC777/marketplace-ordenes/internal/logger"
)

const HeaderRequestID = "X-Request-ID"

// RequestID reuses the caller's X-Request-ID or generates one, and puts a
// logger tagged with it into the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("rid", rid)
		c.Writer.Header().Set(HeaderRequestID, rid)
		log := logger.FromCtx(c.Request.Context()).With("request_id", rid)
		c.Request = c.Request.WithContext(logger.Inject(c.Request.Context(), log))
		c.Next()
	}
}

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.FromCtx(c.Request.Context()).Info("http",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"dur", time.Since(start),
		)
	}
}

// ValidID rejects requests whose :param is not a UUID.
func ValidID(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := uuid.Parse(c.Param(param)); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": true, "message": "Invalid object Id."})
			return
		}
		c.Next()
	}
}

// WriteError renders err with the status of its kind. Internal causes are
// logged, never rendered.
func WriteError(c *gin.Context, err error) {
	e := apperr.As(err)
	if e.Kind == apperr.Internal {
		logger.FromCtx(c.Request.Context()).Error("request failed", "err", err)
	}
	body := gin.H{"error": true, "kind": e.Kind, "message": e.Message}
	if e.Details != nil && e.Kind != apperr.Unauthenticated {
		body["details"] = e.Details
	}
	c.AbortWithStatusJSON(e.Code(), body)
}
