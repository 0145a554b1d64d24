// Package config provides configuration for the application.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrJWTSecretNotSetInProduction is returned when JWT_SECRET is not set in
// production. We need this to prevent accidental production deployments with
// the development signing secret.
var ErrJWTSecretNotSetInProduction = errors.New("JWT_SECRET must be set in production")

const (
	// AppEnvironmentDefault is the default application environment.
	AppEnvironmentDefault = "development"
	// HostDefault is the default host to listen on. Can be an IP address or hostname.
	HostDefault = "localhost"
	// PortDefault is the default port to listen on.
	PortDefault = "8080"

	// UsersFileDefault is the default path of the user credentials document.
	UsersFileDefault = "users.json"
	// DataFileDefault is the default path of the quiz data document.
	DataFileDefault = "data.json"
	// UploadsDirDefault is the default directory for uploaded question images.
	UploadsDirDefault = "uploads"

	// JWTSecretDefault is the development-only signing secret.
	JWTSecretDefault = "quizbank-development-secret"
	// TokenTTLDefault is the default session token lifetime.
	TokenTTLDefault = 60 * time.Minute

	// MaxUploadBytesDefault is the default maximum size of an uploaded image.
	MaxUploadBytesDefault = 5 << 20
	// AllowedImageTypesDefault is the default comma-separated list of
	// accepted image content types.
	AllowedImageTypesDefault = "image/jpeg,image/png"
	// AllowedOriginsDefault is the default comma-separated list of CORS origins.
	AllowedOriginsDefault = "http://localhost:5173,http://127.0.0.1:5173"
)

// Config represents the application configuration.
type Config struct {
	AppEnvironment string

	Host string
	Port string

	UsersFile  string
	DataFile   string
	UploadsDir string

	JWTSecret string
	TokenTTL  time.Duration

	MaxUploadBytes    int64
	AllowedImageTypes []string
	AllowedOrigins    []string
}

// IsProduction reports whether the application runs in production.
func (c *Config) IsProduction() bool {
	return c.AppEnvironment == "production"
}

// Parse parses environment variables into the config.
func Parse(getenv func(string) string) (*Config, error) {
	c := Config{
		AppEnvironment:    AppEnvironmentDefault,
		Host:              HostDefault,
		Port:              PortDefault,
		UsersFile:         UsersFileDefault,
		DataFile:          DataFileDefault,
		UploadsDir:        UploadsDirDefault,
		JWTSecret:         JWTSecretDefault,
		TokenTTL:          TokenTTLDefault,
		MaxUploadBytes:    MaxUploadBytesDefault,
		AllowedImageTypes: splitList(AllowedImageTypesDefault),
		AllowedOrigins:    splitList(AllowedOriginsDefault),
	}
	// Overwrite defaults with environment variables.
	if val := getenv("APP_ENV"); val != "" {
		c.AppEnvironment = val
	}
	if val := getenv("HOST"); val != "" {
		c.Host = val
	}
	if val := getenv("PORT"); val != "" {
		c.Port = val
	}
	if val := getenv("USERS_FILE"); val != "" {
		c.UsersFile = val
	}
	if val := getenv("DATA_FILE"); val != "" {
		c.DataFile = val
	}
	if val := getenv("UPLOADS_DIR"); val != "" {
		c.UploadsDir = val
	}
	if val := getenv("JWT_SECRET"); val != "" {
		c.JWTSecret = val
	}
	if val := getenv("ALLOWED_IMAGE_TYPES"); val != "" {
		c.AllowedImageTypes = splitList(val)
	}
	if val := getenv("ALLOWED_ORIGINS"); val != "" {
		c.AllowedOrigins = splitList(val)
	}

	// Strict validation for types
	if val := getenv("TOKEN_TTL"); val != "" {
		var err error
		c.TokenTTL, err = time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL: %q, err: %w", val, err)
		}
	}

	if val := getenv("MAX_UPLOAD_BYTES"); val != "" {
		var err error
		c.MaxUploadBytes, err = strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %q, err: %w", val, err)
		}
	}

	// Mandatory fields
	if c.AppEnvironment == "production" && getenv("JWT_SECRET") == "" {
		return nil, ErrJWTSecretNotSetInProduction
	}

	return &c, nil
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
