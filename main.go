package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"flexgen/auth-api/api"
	"flexgen/auth-api/config"
	"flexgen/auth-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	gin.SetMode(gin.ReleaseMode)

	c, err := config.Setup()
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := api.NewRouter(ctx, c)
	if err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	cleanupDone := service.SessionCleanup(ctx, c.Sessions.CleanupInterval, a.Store)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", c.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		zap.L().Info("Server starting", zap.Int("port", c.Port), zap.String("env", c.Env), zap.Bool("ssl", c.SSL.Enabled))

		var err error
		if c.SSL.Enabled {
			err = srv.ListenAndServeTLS(c.SSL.CertificatePath, c.SSL.KeyPath)
		} else {
			err = srv.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("Server stopped unexpectedly", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zap.L().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Graceful shutdown failed", zap.Error(err))
	}

	<-cleanupDone

	if sqlDB, err := a.Store.DB().DB(); err == nil {
		sqlDB.Close()
	}
}
