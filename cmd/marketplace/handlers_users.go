package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/marketplace-ordenes/internal/apperr"
	"github.com/MikeMC777/marketplace-ordenes/internal/guard"
	"github.com/MikeMC777/marketplace-ordenes/internal/httpx"
	"github.com/MikeMC777/marketplace-ordenes/internal/session"
	"github.com/MikeMC777/marketplace-ordenes/internal/user"
)

type signupRequest struct {
	Name     string `json:"name"     binding:"required"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
	Device   string `json:"device"`
}

type changeRoleRequest struct {
	Role user.Role `json:"role" binding:"required,oneof=client vendor admin"`
}

// device names the session: explicit device label or the user agent.
func device(c *gin.Context, label string) string {
	if label != "" {
		return label
	}
	return c.Request.UserAgent()
}

func setTokenCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(guard.CookieName, token, maxAge, "/", "", false, true)
}

// @Summary Create a client account
// @Tags users
// @Accept json
// @Produce json
// @Success 201 {object} user.User
// @Router /users/signup [post]
func signupHandler(users *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in signupRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.WriteError(c, httpx.BindError(err))
			return
		}
		u, err := users.Signup(c.Request.Context(), user.SignupInput{Name: in.Name, Email: in.Email, Password: in.Password})
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"user": u, "create": true})
	}
}

// @Summary Log in and open a session
// @Tags users
// @Accept json
// @Produce json
// @Router /users/login [post]
func loginHandler(users *user.Service, sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in loginRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.WriteError(c, httpx.BindError(err))
			return
		}
		u, err := users.Authenticate(c.Request.Context(), in.Email, in.Password)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		token, err := sessions.Issue(c.Request.Context(), u.ID, device(c, in.Device))
		if err != nil {
			httpx.WriteError(c, apperr.Wrap(apperr.Internal, "issue token", err))
			return
		}
		setTokenCookie(c, token, int(sessions.TTL().Seconds()))
		c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
	}
}

// sessionErr keeps token failures generic towards the caller.
func sessionErr(err error) error {
	if errors.Is(err, session.ErrInvalidToken) || errors.Is(err, session.ErrExpired) || errors.Is(err, session.ErrUserBanned) {
		return apperr.Wrap(apperr.Unauthenticated, "Authentication required", err)
	}
	return apperr.Wrap(apperr.Internal, "session store", err)
}

func logoutHandler(sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := guard.Identity(c)
		if err := sessions.Revoke(c.Request.Context(), id.UserID, guard.Token(c)); err != nil {
			httpx.WriteError(c, sessionErr(err))
			return
		}
		setTokenCookie(c, "", -1)
		c.JSON(http.StatusOK, gin.H{"logout": true})
	}
}

func logoutAllHandler(sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := guard.Identity(c)
		if err := sessions.RevokeAll(c.Request.Context(), id.UserID); err != nil {
			httpx.WriteError(c, sessionErr(err))
			return
		}
		setTokenCookie(c, "", -1)
		c.JSON(http.StatusOK, gin.H{"logout": true})
	}
}

func refreshHandler(sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := guard.Identity(c)
		token, err := sessions.Rotate(c.Request.Context(), id.UserID, guard.Token(c), device(c, c.Query("device")))
		if err != nil {
			httpx.WriteError(c, sessionErr(err))
			return
		}
		setTokenCookie(c, token, int(sessions.TTL().Seconds()))
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

func sessionsHandler(sessions *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := guard.Identity(c)
		recs, err := sessions.Sessions(c.Request.Context(), id.UserID)
		if err != nil {
			httpx.WriteError(c, sessionErr(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"length": len(recs), "sessions": recs})
	}
}

func banHandler(users *user.Service, banned bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := users.SetBanned(c.Request.Context(), c.Param("id"), banned)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"update": true, "user": u})
	}
}

func changeRoleHandler(users *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in changeRoleRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.WriteError(c, httpx.BindError(err))
			return
		}
		u, err := users.SetRole(c.Request.Context(), c.Param("id"), in.Role)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"update": true, "user": u})
	}
}
