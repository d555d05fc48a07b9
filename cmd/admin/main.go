package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BAZ1995/Theblog.io/internal/core/auth"
	"github.com/BAZ1995/Theblog.io/internal/core/cache"
	"github.com/BAZ1995/Theblog.io/internal/core/config"
	"github.com/BAZ1995/Theblog.io/internal/core/database"
	"github.com/BAZ1995/Theblog.io/internal/core/logger"
	"github.com/BAZ1995/Theblog.io/internal/core/server"
	"github.com/BAZ1995/Theblog.io/internal/gateway"
	"github.com/BAZ1995/Theblog.io/internal/repo"
	"github.com/BAZ1995/Theblog.io/internal/session"
	"github.com/BAZ1995/Theblog.io/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	gw := gateway.NewGorm(db, jwter, log)
	if cfg.DB.AutoMigrate {
		if err := gw.AutoMigrate(); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
	}

	qc := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
		time.Duration(cfg.Cache.TTLSec)*time.Second)

	baseURL := humanBaseURL(cfg.App.Admin.Host, cfg.App.Admin.Port)

	sess := session.New(gw, baseURL, log)
	if err := sess.Initialize(context.Background()); err != nil {
		log.Fatal("session init failed", zap.Error(err))
	}
	defer sess.Close()

	content := repo.NewContent(gw, qc, sess, log)

	r := router.NewAdminEngine(log, jwter, sess, content, gw)

	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(addr, r, 5*time.Second, 10*time.Second, 60*time.Second)

	log.Info("admin api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("admin api start FAILED", zap.Error(err))
		}
	}()
	log.Info("admin api started SUCCESS")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info("admin api stopped gracefully")
}

func humanBaseURL(host string, port int) string {
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return "http://" + host + ":" + fmt.Sprint(port)
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
