// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

var (
	configFile = pflag.String("config", "", "Path to a config file (defaults to ./config.toml when present)")
	_          = pflag.Int("port", 3001, "Port to listen on")

	validLogLevels     = []string{"debug", "info", "warn", "error", "fatal"}
	validDrivers       = []string{"sqlite", "postgres"}
	validPasswordHashs = []string{"bcrypt", "argon2id"}
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Production defaults used when NODE_ENV=production and nothing else is set
var (
	productionOrigins = []string{
		"https://flexgenai.com",
		"https://www.flexgenai.com",
		"https://flexgen-ai.vercel.app",
	}
	developmentOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
)

const (
	productionFrontendURL      = "https://flexgenai.com"
	productionGoogleCallback   = "https://api.flexgenai.com/auth/google/callback"
	productionFacebookCallback = "https://api.flexgenai.com/auth/facebook/callback"
)

type Config struct {
	Env        string
	Production bool
	LogLevel   string
	Port       int
	SSL        SSLConfig

	FrontendURL string
	CORSOrigins []string

	JWT           JWTConfig
	SessionSecret string

	Database DatabaseConfig
	Security SecurityConfig
	Sessions SessionsConfig

	// NormalizeEmail lower-cases and trims emails before they are stored
	// or looked up
	NormalizeEmail bool

	// A nil provider is not configured
	Google   *OAuthClient
	Facebook *OAuthClient

	// Warnings collected while loading, logged once the logger exists
	Warnings []string
}

type SSLConfig struct {
	Enabled         bool
	CertificatePath string
	KeyPath         string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
	// Revocation makes protected routes reject tokens whose session
	// was revoked on logout
	Revocation bool
}

type DatabaseConfig struct {
	Driver string
	DSN    string
}

type SecurityConfig struct {
	RateLimit    int
	BcryptCost   int
	PasswordHash string
	BodyLimit    int64
}

type SessionsConfig struct {
	CleanupInterval time.Duration
}

type OAuthClient struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() (*Config, error) {
	pflag.Parse()
	viper.BindPFlag("host.port", pflag.Lookup("port"))

	if *configFile != "" {
		viper.SetConfigFile(*configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || *configFile != "" {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}
	}

	return Load(viper.GetViper())
}

// Load binds environment variables and defaults on v and validates the
// result. Config files and flags must already be loaded into v.
func Load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.env", "NODE_ENV", "APP_ENV")
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")

	v.BindEnv("host.port", "PORT", "HOST_PORT")
	v.BindEnv("host.ssl.enabled", "HOST_SSL_ENABLED")
	v.BindEnv("host.ssl.certificate_path", "HOST_SSL_CERTIFICATE_PATH")
	v.BindEnv("host.ssl.certificate_key_path", "HOST_SSL_CERTIFICATE_KEY_PATH")

	v.BindEnv("frontend.url", "FRONTEND_URL")
	v.BindEnv("frontend.production_url", "PRODUCTION_FRONTEND_URL")
	v.BindEnv("cors.origins", "CORS_ORIGINS")

	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.ttl", "JWT_TTL")
	v.BindEnv("jwt.revocation", "JWT_REVOCATION")
	v.BindEnv("session.secret", "SESSION_SECRET")

	v.BindEnv("oauth.google.client_id", "GOOGLE_CLIENT_ID")
	v.BindEnv("oauth.google.client_secret", "GOOGLE_CLIENT_SECRET")
	v.BindEnv("oauth.google.callback_url", "GOOGLE_CALLBACK_URL")
	v.BindEnv("oauth.google.production_callback_url", "PRODUCTION_GOOGLE_CALLBACK_URL")

	v.BindEnv("oauth.facebook.client_id", "FACEBOOK_APP_ID")
	v.BindEnv("oauth.facebook.client_secret", "FACEBOOK_APP_SECRET")
	v.BindEnv("oauth.facebook.callback_url", "FACEBOOK_CALLBACK_URL")
	v.BindEnv("oauth.facebook.production_callback_url", "PRODUCTION_FACEBOOK_CALLBACK_URL")

	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.dsn", "DATABASE_URL")

	v.BindEnv("security.rate_limit", "SECURITY_RATE_LIMIT")
	v.BindEnv("security.bcrypt_cost", "BCRYPT_COST")
	v.BindEnv("security.password_hash", "PASSWORD_HASH")
	v.BindEnv("security.body_limit", "SECURITY_BODY_LIMIT")

	v.BindEnv("auth.normalize_email", "AUTH_NORMALIZE_EMAIL")
	v.BindEnv("sessions.cleanup_interval", "SESSION_CLEANUP_INTERVAL")

	//
	// Defaults
	//
	v.SetDefault("app.env", EnvDevelopment)
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 3001)
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("jwt.revocation", false)

	v.SetDefault("database.driver", "sqlite")

	v.SetDefault("security.rate_limit", 10)
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.password_hash", "bcrypt")
	v.SetDefault("security.body_limit", 10)

	v.SetDefault("auth.normalize_email", true)
	v.SetDefault("sessions.cleanup_interval", time.Hour)

	c := &Config{
		Env:      strings.ToLower(v.GetString("app.env")),
		LogLevel: strings.ToLower(v.GetString("app.log_level")),
		Port:     v.GetInt("host.port"),
		SSL: SSLConfig{
			Enabled:         v.GetBool("host.ssl.enabled"),
			CertificatePath: v.GetString("host.ssl.certificate_path"),
			KeyPath:         v.GetString("host.ssl.certificate_key_path"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			TTL:        v.GetDuration("jwt.ttl"),
			Revocation: v.GetBool("jwt.revocation"),
		},
		SessionSecret: v.GetString("session.secret"),
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("database.driver")),
			DSN:    v.GetString("database.dsn"),
		},
		Security: SecurityConfig{
			RateLimit:    v.GetInt("security.rate_limit"),
			BcryptCost:   v.GetInt("security.bcrypt_cost"),
			PasswordHash: strings.ToLower(v.GetString("security.password_hash")),
			BodyLimit:    v.GetInt64("security.body_limit") << 20,
		},
		Sessions: SessionsConfig{
			CleanupInterval: v.GetDuration("sessions.cleanup_interval"),
		},
		NormalizeEmail: v.GetBool("auth.normalize_email"),
	}
	c.Production = c.Env == EnvProduction

	if !slices.Contains(validLogLevels, c.LogLevel) {
		return nil, errors.New("invalid log level provided")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return nil, errors.New("invalid port provided")
	}

	if c.SSL.Enabled {
		if c.SSL.CertificatePath == "" {
			return nil, errors.New("no ssl certificate path provided")
		}

		if c.SSL.KeyPath == "" {
			return nil, errors.New("no ssl certificate key path provided")
		}
	}

	if c.JWT.TTL <= 0 {
		return nil, errors.New("jwt.ttl must be bigger than 0")
	}

	if !slices.Contains(validDrivers, c.Database.Driver) {
		return nil, errors.New("invalid database driver provided")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.DSN == "" {
			c.Database.DSN = "auth.db"
		}
	case "postgres":
		if c.Database.DSN == "" {
			return nil, errors.New("database.dsn is required for postgres")
		}
	}

	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("security.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	if !slices.Contains(validPasswordHashs, c.Security.PasswordHash) {
		return nil, errors.New("invalid password hash algorithm provided")
	}

	if c.Security.BodyLimit <= 0 {
		return nil, errors.New("security.body_limit must be bigger than 0")
	}

	if c.Sessions.CleanupInterval <= 0 {
		return nil, errors.New("sessions.cleanup_interval must be bigger than 0")
	}

	if err := c.loadSecrets(); err != nil {
		return nil, err
	}

	c.loadURLs(v)
	c.Google = c.loadOAuthClient(v, "google", productionGoogleCallback)
	c.Facebook = c.loadOAuthClient(v, "facebook", productionFacebookCallback)

	if c.Security.RateLimit <= 0 {
		c.Warnings = append(c.Warnings, "Rate limiting is disabled. Credential endpoints aren't guarded against brute force")
	}

	return c, nil
}

// loadSecrets refuses to start a production server without explicit
// secrets. Development gets random per-process secrets instead, so tokens
// don't survive a restart.
func (c *Config) loadSecrets() error {
	if c.JWT.Secret == "" {
		if c.Production {
			return errors.New("JWT_SECRET must be set in production")
		}

		c.JWT.Secret = genSecret()
		c.Warnings = append(c.Warnings, "JWT_SECRET is not set, using a random secret. Issued tokens won't survive a restart")
	}

	if c.SessionSecret == "" {
		if c.Production {
			return errors.New("SESSION_SECRET must be set in production")
		}

		c.SessionSecret = genSecret()
		c.Warnings = append(c.Warnings, "SESSION_SECRET is not set, using a random secret")
	}

	if c.Production && len(c.JWT.Secret) < 32 {
		c.Warnings = append(c.Warnings, "JWT_SECRET is shorter than 32 characters")
	}

	return nil
}

func (c *Config) loadURLs(v *viper.Viper) {
	if c.Production {
		c.FrontendURL = firstNonEmpty(v.GetString("frontend.production_url"), productionFrontendURL)
	} else {
		c.FrontendURL = firstNonEmpty(v.GetString("frontend.url"), "http://localhost:3000")
	}
	c.FrontendURL = strings.TrimRight(c.FrontendURL, "/")

	c.CORSOrigins = splitList(v.GetStringSlice("cors.origins"))
	if len(c.CORSOrigins) == 0 {
		if c.Production {
			c.CORSOrigins = slices.Clone(productionOrigins)
		} else {
			c.CORSOrigins = slices.Clone(developmentOrigins)
		}
	}
}

func (c *Config) loadOAuthClient(v *viper.Viper, name, productionCallback string) *OAuthClient {
	prefix := "oauth." + name + "."

	id := v.GetString(prefix + "client_id")
	secret := v.GetString(prefix + "client_secret")

	if id == "" || secret == "" {
		if id != "" || secret != "" {
			c.Warnings = append(c.Warnings, fmt.Sprintf("%s OAuth is only partially configured and has been disabled", name))
		}
		return nil
	}

	var callback string
	if c.Production {
		callback = firstNonEmpty(v.GetString(prefix+"production_callback_url"), productionCallback)
	} else {
		callback = firstNonEmpty(v.GetString(prefix+"callback_url"), "/auth/"+name+"/callback")
	}

	// Relative callbacks point back at this server
	if strings.HasPrefix(callback, "/") {
		callback = fmt.Sprintf("http://localhost:%d%s", c.Port, callback)
	}

	return &OAuthClient{
		ClientID:     id,
		ClientSecret: secret,
		CallbackURL:  callback,
	}
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}

	return ""
}

// splitList flattens comma separated entries, since env vars arrive as a
// single string while config files may use arrays
func splitList(in []string) []string {
	var out []string
	for _, entry := range in {
		for _, s := range strings.Split(entry, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}

	return out
}
