package config

import (
	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

type YamlCorsConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	Role           string   `yaml:"role"`
}

type YamlFirebaseConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SecretsFile     string `yaml:"secrets_file"`
}

type YamlMessageConfig struct {
	AndroidPriority      string `yaml:"android_priority"`
	AndroidChannelID     string `yaml:"android_channel_id"`
	APNSSound            string `yaml:"apns_sound"`
	APNSBadge            int    `yaml:"apns_badge"`
	APNSContentAvailable bool   `yaml:"apns_content_available"`
}

// YamlConfig is the structure that mirrors the raw config.yaml file.
type YamlConfig struct {
	ListenAddr     string             `yaml:"listen_addr"`
	Environment    string             `yaml:"environment"`
	CorsConfig     YamlCorsConfig     `yaml:"cors"`
	FirebaseConfig YamlFirebaseConfig `yaml:"firebase"`
	MessageConfig  YamlMessageConfig  `yaml:"message"`
}

// NewConfigFromYaml converts the YamlConfig into a clean, base Config struct.
func NewConfigFromYaml(baseCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	cfg := &Config{
		ListenAddr:  baseCfg.ListenAddr,
		Environment: baseCfg.Environment,
		CorsConfig: middleware.CorsConfig{
			AllowedOrigins: baseCfg.CorsConfig.AllowedOrigins,
			Role:           middleware.CorsRole(baseCfg.CorsConfig.Role),
		},
		Firebase: FirebaseConfig{
			CredentialsFile: baseCfg.FirebaseConfig.CredentialsFile,
			SecretsFile:     baseCfg.FirebaseConfig.SecretsFile,
		},
		Message: MessageConfig{
			AndroidPriority:      baseCfg.MessageConfig.AndroidPriority,
			AndroidChannelID:     baseCfg.MessageConfig.AndroidChannelID,
			APNSSound:            baseCfg.MessageConfig.APNSSound,
			APNSBadge:            baseCfg.MessageConfig.APNSBadge,
			APNSContentAvailable: baseCfg.MessageConfig.APNSContentAvailable,
		},
	}

	logger.Debug("YAML config mapping complete",
		"listen_addr", cfg.ListenAddr,
		"environment", cfg.Environment,
	)

	return cfg, nil
}
