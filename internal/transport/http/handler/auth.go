package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BAZ1995/Theblog.io/internal/gateway"
	"github.com/BAZ1995/Theblog.io/internal/session"
	resp "github.com/BAZ1995/Theblog.io/internal/transport/http/response"
)

type AuthHandler struct {
	sess *session.Store
	gw   gateway.Auth
}

func NewAuthHandler(sess *session.Store, gw gateway.Auth) *AuthHandler {
	return &AuthHandler{sess: sess, gw: gw}
}

type credentialsIn struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type sessionOut struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var in credentialsIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	// the store delegates; the auth stream event performs the actual
	// state transition
	if err := h.sess.SignIn(c.Request.Context(), in.Email, in.Password); err != nil {
		fail(c, err)
		return
	}
	h.respondSession(c)
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var in credentialsIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeBadRequest, err.Error()))
		return
	}
	if err := h.sess.SignUp(c.Request.Context(), in.Email, in.Password); err != nil {
		fail(c, err)
		return
	}
	h.respondSession(c)
}

func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.sess.SignOut(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"signedOut": true})
}

func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFrom(c)
	if claims == nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "unauthorized"))
		return
	}
	ok(c, gin.H{"id": claims.UID, "email": claims.Email, "role": claims.Role})
}

// respondSession reads the session snapshot from the gateway, not the
// store: the store's own transition arrives on the stream and may
// still be resolving.
func (h *AuthHandler) respondSession(c *gin.Context) {
	sess, err := h.gw.CurrentSession(c.Request.Context())
	if err != nil || sess == nil {
		c.JSON(http.StatusOK, resp.Error(resp.CodeServerError, "session unavailable"))
		return
	}
	ok(c, sessionOut{
		Token:     sess.RawToken,
		UserID:    sess.UserID,
		Email:     sess.Email,
		ExpiresAt: sess.ExpiresAt,
	})
}
