// Package config provides configuration loading from environment variables.
package config

import (
	"log/slog"
	"time"

	"libcommon/pkg/sqllog"
)

// Config holds configuration for a service built on the library.
type Config struct {
	ServiceName       string
	Port              string
	MetricsPort       string
	APIKey            string
	ShutdownDrainWait time.Duration // Time to wait for load balancer to drain (0 to skip)
	Profiles          []string

	RateLimitRPS   float64 // Disabled when not positive
	RateLimitBurst int

	SQL     sqllog.Config
	Swagger SwaggerConfig

	MessagesFile  string
	MessagesWatch bool // Reload MessagesFile when it changes
	DefaultLocale string

	DatabaseURL    string
	MigrationsPath string

	OTLPEndpoint string // Trace export is disabled when empty
}

// SwaggerConfig controls the OpenAPI document and UI.
type SwaggerConfig struct {
	Enabled        bool
	APIDocsEnabled bool
	UIEnabled      bool
	PropertiesFile string
	SpecPath       string
	ResourcesDir   string
}

// Load loads configuration from environment variables.
func Load() *Config {
	profiles := GetListEnv("APP_PROFILES_ACTIVE", nil)

	databaseURL := GetEnv("DATABASE_URL", "")
	if databaseURL == "" {
		databaseURL = GetSecretFile(GetEnv("DATABASE_URL_FILE", ""))
	}

	return &Config{
		ServiceName:       GetEnv("OTEL_SERVICE_NAME", "catalog-service"),
		Port:              GetEnv("PORT", "8080"),
		MetricsPort:       GetEnv("METRICS_PORT", "9090"),
		APIKey:            GetSecretFile(GetEnv("API_KEY_FILE", "")),
		ShutdownDrainWait: GetDurationEnv("SHUTDOWN_DRAIN_WAIT", 5*time.Second),
		Profiles:          profiles,
		RateLimitRPS:      GetFloatEnv("RATE_LIMIT_RPS", 0),
		RateLimitBurst:    GetIntEnv("RATE_LIMIT_BURST", 20),
		SQL: sqllog.Config{
			Enabled:        GetBoolEnv("SQL_LOGGING_ENABLED", false),
			ShowParameters: GetBoolEnv("SQL_LOGGING_SHOW_PARAMETERS", false),
			Profiles:       profiles,
		},
		Swagger:        loadSwagger(),
		MessagesFile:   GetEnv("MESSAGES_FILE", ""),
		MessagesWatch:  GetBoolEnv("MESSAGES_WATCH", false),
		DefaultLocale:  GetEnv("DEFAULT_LOCALE", "en"),
		DatabaseURL:    databaseURL,
		MigrationsPath: GetEnv("MIGRATIONS_PATH", ""),
		OTLPEndpoint:   GetEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

// loadSwagger propagates SWAGGER_ENABLED to both the document and the UI
// flag, overriding any per-flag setting.
func loadSwagger() SwaggerConfig {
	enabled := GetBoolEnv("SWAGGER_ENABLED", true)
	slog.Info("Swagger enabled flag propagated", "enabled", enabled)
	return SwaggerConfig{
		Enabled:        enabled,
		APIDocsEnabled: enabled,
		UIEnabled:      enabled,
		PropertiesFile: GetEnv("SWAGGER_PROPERTIES_FILE", ""),
		SpecPath:       GetEnv("OPENAPI_SPEC_PATH", "api/openapi.yaml"),
		ResourcesDir:   GetEnv("SWAGGER_RESOURCES_DIR", "."),
	}
}
