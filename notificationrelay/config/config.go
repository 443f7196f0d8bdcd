package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

const (
	defaultListenAddr  = ":3000"
	defaultEnvironment = "development"
	productionEnv      = "production"
	defaultSecretsFile = ".env"
	defaultAndroidPrio = "high"
	defaultChannelID   = "default_channel"
	defaultAPNSSound   = "default"
)

// FirebaseConfig points at the optional local sources of provider credentials.
// The credential values themselves never live here.
type FirebaseConfig struct {
	CredentialsFile string
	SecretsFile     string
}

// MessageConfig holds the platform defaults stamped onto every outgoing message.
type MessageConfig struct {
	AndroidPriority      string
	AndroidChannelID     string
	APNSSound            string
	APNSBadge            int
	APNSContentAvailable bool
}

// Config defines the *single*, authoritative configuration.
type Config struct {
	ListenAddr  string
	Environment string

	CorsConfig middleware.CorsConfig
	Firebase   FirebaseConfig
	Message    MessageConfig
}

// IsProduction reports whether error responses must omit debugging detail.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, productionEnv)
}

// UpdateConfigWithEnvOverrides applies environment variables and final validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	// 1. Apply Environment Overrides
	if val := os.Getenv("PORT"); val != "" {
		if _, err := strconv.Atoi(val); err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", val, err)
		}
		logger.Debug("Overriding config value", "key", "PORT", "source", "env")
		cfg.ListenAddr = ":" + val
	}
	if val := os.Getenv("ENVIRONMENT"); val != "" {
		logger.Debug("Overriding config value", "key", "ENVIRONMENT", "source", "env")
		cfg.Environment = val
	}
	if val := os.Getenv("FIREBASE_CREDENTIALS_FILE"); val != "" {
		logger.Debug("Overriding config value", "key", "FIREBASE_CREDENTIALS_FILE", "source", "env")
		cfg.Firebase.CredentialsFile = val
	}
	if val := os.Getenv("SECRETS_FILE"); val != "" {
		logger.Debug("Overriding config value", "key", "SECRETS_FILE", "source", "env")
		cfg.Firebase.SecretsFile = val
	}

	// CORS Overrides
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		logger.Debug("Overriding config value", "key", "CORS_ALLOWED_ORIGINS", "source", "env")
		rawOrigins := strings.Split(corsOrigins, ",")
		var cleanOrigins []string
		for _, o := range rawOrigins {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				cleanOrigins = append(cleanOrigins, trimmed)
			}
		}
		cfg.CorsConfig.AllowedOrigins = cleanOrigins
	}

	// 2. Final Validation
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	if cfg.Environment == "" {
		cfg.Environment = defaultEnvironment
	}
	if cfg.Firebase.SecretsFile == "" {
		cfg.Firebase.SecretsFile = defaultSecretsFile
	}
	if cfg.Message.AndroidPriority == "" {
		cfg.Message.AndroidPriority = defaultAndroidPrio
	}
	if cfg.Message.AndroidPriority != "high" && cfg.Message.AndroidPriority != "normal" {
		return nil, fmt.Errorf("message.android_priority must be high or normal, got %q", cfg.Message.AndroidPriority)
	}
	if cfg.Message.AndroidChannelID == "" {
		cfg.Message.AndroidChannelID = defaultChannelID
	}
	if cfg.Message.APNSSound == "" {
		cfg.Message.APNSSound = defaultAPNSSound
	}
	// The CORS middleware always allows credentials and panics on a wildcard.
	for _, origin := range cfg.CorsConfig.AllowedOrigins {
		if origin == "*" {
			return nil, fmt.Errorf("cors.allowed_origins must list explicit origins, wildcard %q is not supported", origin)
		}
	}
	if cfg.Message.APNSBadge < 0 {
		return nil, fmt.Errorf("message.apns_badge must not be negative, got %d", cfg.Message.APNSBadge)
	}

	logger.Debug("Configuration finalized and validated successfully",
		"listen_addr", cfg.ListenAddr,
		"environment", cfg.Environment,
	)
	return cfg, nil
}
