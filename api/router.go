// Package api contains all endpoints available
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"flexgen/auth-api/config"
	"flexgen/auth-api/db"
	"flexgen/auth-api/internal/auth"
	"flexgen/auth-api/pkg/middleware"
	"flexgen/auth-api/pkg/security"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

type API struct {
	Config    *config.Config
	Store     *db.Store
	Auth      *auth.Service
	Tokens    *security.TokenIssuer
	States    *auth.StateSigner
	Providers auth.Providers
	Router    *gin.Engine

	cache persist.CacheStore
}

// NewRouter sets up logging, opens the database and builds the API with
// every OAuth provider that has credentials configured
func NewRouter(ctx context.Context, c *config.Config) (*API, error) {
	makeLogger(c)

	for _, w := range c.Warnings {
		zap.L().Warn(w)
	}

	gdb, err := db.New(c.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	a, err := New(ctx, c, gdb, auth.NewProviders(c))
	if err != nil {
		return nil, err
	}

	zap.L().Info("Router ready",
		zap.String("env", c.Env),
		zap.String("database", c.Database.Driver),
		zap.Strings("oauth_providers", a.Providers.Names()),
	)

	return a, nil
}

// New builds the API on an open database. ctx bounds the background work
// of the router's middleware.
func New(ctx context.Context, c *config.Config, gdb *gorm.DB, providers auth.Providers) (*API, error) {
	hasher, err := security.NewPasswordHasher(c.Security.PasswordHash, c.Security.BcryptCost)
	if err != nil {
		return nil, err
	}

	store := db.NewStore(gdb)

	svc, err := auth.NewService(store, hasher, c.NormalizeEmail)
	if err != nil {
		return nil, err
	}

	tokens, err := security.NewTokenIssuer(c.JWT.Secret, c.JWT.TTL)
	if err != nil {
		return nil, err
	}

	states, err := auth.NewStateSigner(c.SessionSecret)
	if err != nil {
		return nil, err
	}

	if providers == nil {
		providers = auth.Providers{}
	}

	a := &API{
		Config:    c,
		Store:     store,
		Auth:      svc,
		Tokens:    tokens,
		States:    states,
		Providers: providers,
		cache:     persist.NewMemoryStore(time.Minute),
	}

	router := gin.New()
	a.Router = router

	router.Use(
		middleware.NewRequestIDMiddleware(),
		middleware.NewRecoveryMiddleware(),
		middleware.SecurityHeaders(c.Production),
		cors.New(cors.Config{
			AllowOrigins:     c.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization", "x-csrf-token"},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
		middleware.BodySizeLimiter(c.Security.BodyLimit),
	)

	router.HandleMethodNotAllowed = true
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Route not found",
			"requestID": c.GetString("requestID"),
		})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":     "Method not allowed",
			"requestID": c.GetString("requestID"),
		})
	})

	// Sessions are always recorded but only consulted with revocation on
	var sessions middleware.SessionChecker
	if c.JWT.Revocation {
		sessions = store
	}

	jwt := middleware.NewJWTMiddleware(tokens, sessions)
	toolAuth := middleware.NewToolAuthMiddleware(tokens, sessions)
	limiter := middleware.NewRateLimiter(ctx, middleware.RateLimiterConfig{
		RequestsPerMinute: c.Security.RateLimit,
	}).Middleware()

	// GET /health			-> Used to check if the server is alive
	router.GET("/health", a.Health)
	router.HEAD("/health", a.Health)

	users := router.Group("/auth")
	{
		// POST /auth/register		-> Registers a new local user and returns a token
		users.POST("/register", limiter, a.UserRegister)

		// POST /auth/login		-> Logs in a local user and returns a token
		users.POST("/login", limiter, a.UserLogin)

		// GET /auth/providers		-> Lists the configured OAuth providers
		users.GET("/providers", a.cacheFor(60), a.ProvidersFetch)

		// GET /auth/:provider		-> Starts an OAuth handshake
		// GET /auth/:provider/callback	-> Finishes it and redirects to the frontend
		for _, name := range []string{"google", "facebook"} {
			users.GET("/"+name, a.OAuthStart(name))
			users.GET("/"+name+"/callback", a.OAuthCallback(name))
		}

		// GET /auth/profile		-> Returns the user with their preferences
		users.GET("/profile", jwt, a.UserFetch)

		// PUT /auth/profile		-> Updates the user's display fields
		users.PUT("/profile", jwt, a.UserEdit)

		// GET /auth/preferences	-> Returns the user's preferences
		users.GET("/preferences", jwt, a.PreferencesFetch)

		// PUT /auth/preferences	-> Replaces the user's preferences
		users.PUT("/preferences", jwt, a.PreferencesEdit)

		// POST /auth/logout		-> Ends the session of the presented token
		users.POST("/logout", jwt, a.UserLogout)

		// GET /auth/validate		-> Validates a token and returns its user
		users.GET("/validate", jwt, a.Validate)
	}

	scans := router.Group("/scans", jwt)
	{
		// GET /scans/history		-> Returns a page of the user's scans, newest first
		scans.GET("/history", a.ScanHistory)

		// POST /scans/save		-> Saves a scan result
		scans.POST("/save", a.ScanSave)
	}

	// POST /api/tools/*tool		-> Authorizes a tool run
	router.POST("/api/tools/*tool", toolAuth, a.ToolAuthorize)

	return a, nil
}

func makeLogger(c *config.Config) {
	var cfg zap.Config

	if c.Production {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
			pae.AppendString(gray + t.Format("15:04:05.000") + reset)
		}
		cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
			pae.AppendString(gray + ec.TrimmedPath() + reset)
		}
	}

	if lvl, err := zapcore.ParseLevel(c.LogLevel); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		return
	}

	zap.ReplaceGlobals(log)
}

func (a *API) cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(a.cache, time.Second*time.Duration(sec))
}
