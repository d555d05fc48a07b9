package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BAZ1995/Theblog.io/internal/core/auth"
	"github.com/BAZ1995/Theblog.io/internal/gateway"
	"github.com/BAZ1995/Theblog.io/internal/repo"
	"github.com/BAZ1995/Theblog.io/internal/session"
	"github.com/BAZ1995/Theblog.io/internal/transport/http/handler"
	mdw "github.com/BAZ1995/Theblog.io/internal/transport/http/middleware"
)

// NewAPIEngine builds the visitor-facing engine: published posts,
// comments (guests allowed) and the auth endpoints.
func NewAPIEngine(l *zap.Logger, jwter *auth.JWTer, sess *session.Store, content *repo.Content, gw gateway.Gateway) *gin.Engine {
	r := gin.New()

	r.Use(
		mdw.RequestID(),
		mdw.RateLimit(200, 400),
		mdw.ConcurrencyLimit(300),
		mdw.MaxBodyBytes(1<<20),
		mdw.Timeout(10*time.Second),
		mdw.Recovery(l),
		mdw.Metrics(),
		mdw.AccessLog(l),
		cors.Default(),
	)

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authH := handler.NewAuthHandler(sess, gw)
	postH := handler.NewPostHandler(content)
	commentH := handler.NewCommentHandler(content)

	api := r.Group("/api/v1")

	api.POST("/auth/signup", authH.SignUp)
	api.POST("/auth/signin", authH.SignIn)
	api.POST("/auth/signout", authH.SignOut)
	api.GET("/me", mdw.AuthJWT(jwter, ""), authH.Me)

	// 可选登录：带 token 看草稿 / 带身份评论，游客也能走
	optional := api.Group("", mdw.OptionalAuthJWT(jwter))
	optional.GET("/posts", postH.List)
	optional.GET("/posts/:slug", postH.Get)
	optional.GET("/comments", commentH.List)
	optional.POST("/comments", commentH.Create)
	optional.DELETE("/comments/:id", commentH.Delete)

	return r
}
