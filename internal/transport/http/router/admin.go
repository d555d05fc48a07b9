package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BAZ1995/Theblog.io/internal/core/auth"
	"github.com/BAZ1995/Theblog.io/internal/gateway"
	"github.com/BAZ1995/Theblog.io/internal/repo"
	"github.com/BAZ1995/Theblog.io/internal/session"
	"github.com/BAZ1995/Theblog.io/internal/transport/http/handler"
	mdw "github.com/BAZ1995/Theblog.io/internal/transport/http/middleware"
)

// NewAdminEngine builds the dashboard engine. Sign-in is open so the
// owner can establish the process session; everything else requires an
// admin token and then the gate's decision on the resolved session.
func NewAdminEngine(l *zap.Logger, jwter *auth.JWTer, sess *session.Store, content *repo.Content, gw gateway.Gateway) *gin.Engine {
	r := gin.New()

	r.Use(
		ginzap.Ginzap(l, time.RFC3339, true),
		ginzap.RecoveryWithZap(l, true),
		cors.Default(),
		mdw.RequestID(),
		mdw.Metrics(),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	authH := handler.NewAuthHandler(sess, gw)
	adminH := handler.NewAdminPostHandler(content, sess)

	admin := r.Group("/admin/v1")
	admin.POST("/auth/signin", authH.SignIn)
	admin.POST("/auth/signout", authH.SignOut)

	gated := admin.Group("", mdw.AuthJWT(jwter, "admin"))
	gated.GET("/posts", adminH.List)
	gated.POST("/posts", adminH.Create)
	gated.PUT("/posts/:id", adminH.Update)
	gated.DELETE("/posts/:id", adminH.Delete)

	return r
}
