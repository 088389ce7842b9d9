// Package config reads the settings of a deployment from the environment, or
// from a .env file during local development.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/prognoshealth/lambdarest/auth"
	"github.com/prognoshealth/lambdarest/handler"
)

// Config holds all configuration for a deployment
type Config struct {
	Log  LogConfig
	JWT  JWTConfig
	CORS handler.CORSPolicy

	// StageVariables are handed to requests served by the dev server, API
	// Gateway provides them in production.
	StageVariables map[string]string
	DevAddr        string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// JWTConfig holds bearer token verification settings
type JWTConfig struct {
	Secret     string
	Attributes map[string]string
	Issuer     string
	Audience   string
}

// Load loads configuration from environment variables and a .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return LoadFrom(viper.New())
}

// LoadFrom reads the configuration through v with environment lookups enabled.
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("CORS_ALLOW_METHODS", "GET,POST,PUT,DELETE,OPTIONS")
	v.SetDefault("CORS_ALLOW_HEADERS", "authorization,content-type")
	v.SetDefault("CORS_ALLOW_CREDENTIALS", false)
	v.SetDefault("CORS_MAX_AGE", 0)
	v.SetDefault("DEV_ADDR", ":8080")

	attributes, err := parsePairs(v.GetString("JWT_ATTRIBUTES"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid JWT_ATTRIBUTES")
	}

	stageVariables, err := parsePairs(v.GetString("STAGE_VARIABLES"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid STAGE_VARIABLES")
	}

	config := &Config{
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("JWT_SECRET"),
			Attributes: attributes,
			Issuer:     v.GetString("JWT_ISSUER"),
			Audience:   v.GetString("JWT_AUDIENCE"),
		},
		CORS: handler.CORSPolicy{
			AllowOrigins:     splitList(v.GetString("CORS_ALLOW_ORIGINS")),
			AllowMethods:     splitList(v.GetString("CORS_ALLOW_METHODS")),
			AllowHeaders:     splitList(v.GetString("CORS_ALLOW_HEADERS")),
			ExposeHeaders:    splitList(v.GetString("CORS_EXPOSE_HEADERS")),
			AllowCredentials: v.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           v.GetInt("CORS_MAX_AGE"),
		},
		StageVariables: stageVariables,
		DevAddr:        v.GetString("DEV_ADDR"),
	}

	return config, nil
}

// NewLogger builds the logger described by the configuration. JSON output is
// what CloudWatch Logs Insights indexes, text is friendlier in a terminal.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid LOG_LEVEL %q", c.Log.Level)
	}

	logger := logrus.New()
	logger.SetLevel(level)

	switch strings.ToLower(c.Log.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, errors.Errorf("invalid LOG_FORMAT %q", c.Log.Format)
	}

	return logger, nil
}

// Authorizer returns a JWT authorizer when a secret is configured, otherwise
// every caller is treated as anonymous.
func (c *Config) Authorizer(logger logrus.FieldLogger) auth.Authorizer {
	if c.JWT.Secret == "" {
		return auth.Anonymous{}
	}

	opts := []auth.JWTOption{auth.WithLogger(logger)}
	if c.JWT.Issuer != "" {
		opts = append(opts, auth.WithIssuer(c.JWT.Issuer))
	}
	if c.JWT.Audience != "" {
		opts = append(opts, auth.WithAudience(c.JWT.Audience))
	}

	return auth.NewJWTAuthorizer(c.JWT.Secret, c.JWT.Attributes, opts...)
}

// HandlerOptions returns the boundary options matching the configuration.
// CORS is only applied when at least one origin is allowed.
func (c *Config) HandlerOptions(logger logrus.FieldLogger) []handler.Option {
	opts := []handler.Option{
		handler.WithLogger(logger),
		handler.WithAuthorizer(c.Authorizer(logger)),
	}

	if len(c.CORS.AllowOrigins) > 0 {
		opts = append(opts, handler.WithCORS(c.CORS))
	}

	return opts
}

// splitList splits a comma separated list, dropping blank entries.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parsePairs parses "key=value,key=value".
func parsePairs(s string) (map[string]string, error) {
	out := map[string]string{}

	for _, item := range splitList(s) {
		key, value, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if !ok || key == "" || value == "" {
			return nil, errors.Errorf("entry %q is not in the key=value form", item)
		}

		out[key] = value
	}

	return out, nil
}
