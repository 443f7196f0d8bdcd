package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-notification-relay/notificationrelay/config"
	"gopkg.in/yaml.v3"
)

func TestNewConfigFromYaml(t *testing.T) {
	logger := newTestLogger()

	t.Run("Success - maps all fields correctly", func(t *testing.T) {
		raw := []byte(`
listen_addr: ":9000"
environment: "staging"
cors:
  allowed_origins: ["http://yaml.com"]
  role: "editor"
firebase:
  credentials_file: "key.json"
  secrets_file: ".env.local"
message:
  android_priority: "normal"
  android_channel_id: "alerts"
  apns_sound: "chime.caf"
  apns_badge: 3
  apns_content_available: true
`)
		var yamlCfg config.YamlConfig
		require.NoError(t, yaml.Unmarshal(raw, &yamlCfg))

		cfg, err := config.NewConfigFromYaml(&yamlCfg, logger)

		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, ":9000", cfg.ListenAddr)
		assert.Equal(t, "staging", cfg.Environment)

		assert.Equal(t, []string{"http://yaml.com"}, cfg.CorsConfig.AllowedOrigins)
		assert.Equal(t, middleware.CorsRoleEditor, cfg.CorsConfig.Role)

		assert.Equal(t, "key.json", cfg.Firebase.CredentialsFile)
		assert.Equal(t, ".env.local", cfg.Firebase.SecretsFile)

		assert.Equal(t, config.MessageConfig{
			AndroidPriority:      "normal",
			AndroidChannelID:     "alerts",
			APNSSound:            "chime.caf",
			APNSBadge:            3,
			APNSContentAvailable: true,
		}, cfg.Message)
	})

	t.Run("Success - Handles missing optional fields gracefully", func(t *testing.T) {
		yamlCfg := &config.YamlConfig{ListenAddr: ":3000"}

		cfg, err := config.NewConfigFromYaml(yamlCfg, logger)

		require.NoError(t, err)
		assert.Equal(t, ":3000", cfg.ListenAddr)
		assert.Empty(t, cfg.Environment)
		assert.Empty(t, cfg.Firebase.CredentialsFile)
		assert.Zero(t, cfg.Message.APNSBadge)
	})
}
