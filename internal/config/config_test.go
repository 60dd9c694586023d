package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("PriceForTier maps known tiers", func(t *testing.T) {
		cfg := &Config{
			StripePriceProfessional: "price_pro",
			StripePriceTeam:         "price_team",
		}
		assert.Equal(t, "price_pro", cfg.PriceForTier("professional"))
		assert.Equal(t, "price_team", cfg.PriceForTier("team"))
		assert.Equal(t, "", cfg.PriceForTier("starter"))
		assert.Equal(t, "", cfg.PriceForTier("bogus"))
	})

	t.Run("TierForPrice inverts the mapping", func(t *testing.T) {
		cfg := &Config{
			StripePriceProfessional: "price_pro",
			StripePriceTeam:         "price_team",
			StripePriceEnterprise:   "price_ent",
		}
		assert.Equal(t, "professional", cfg.TierForPrice("price_pro"))
		assert.Equal(t, "team", cfg.TierForPrice("price_team"))
		assert.Equal(t, "enterprise", cfg.TierForPrice("price_ent"))
		assert.Equal(t, "starter", cfg.TierForPrice("price_unknown"))
		assert.Equal(t, "starter", cfg.TierForPrice(""))
	})
}

func TestVoiceConfigured(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		cfg := &Config{ElevenLabsAgentID: "agent_123"}
		err := cfg.VoiceConfigured()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ELEVENLABS_API_KEY")
	})

	t.Run("placeholder key", func(t *testing.T) {
		cfg := &Config{ElevenLabsAPIKey: "your_elevenlabs_api_key", ElevenLabsAgentID: "agent_123"}
		err := cfg.VoiceConfigured()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "placeholder")
	})

	t.Run("missing agent id", func(t *testing.T) {
		cfg := &Config{ElevenLabsAPIKey: "xi_real_key"}
		err := cfg.VoiceConfigured()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ELEVENLABS_AGENT_ID")
	})

	t.Run("configured", func(t *testing.T) {
		cfg := &Config{ElevenLabsAPIKey: "xi_real_key", ElevenLabsAgentID: "agent_123"}
		assert.NoError(t, cfg.VoiceConfigured())
	})
}

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"PORT":            os.Getenv("PORT"),
		"DATABASE_URL":    os.Getenv("DATABASE_URL"),
		"REDIS_URL":       os.Getenv("REDIS_URL"),
		"AUTH_JWT_SECRET": os.Getenv("AUTH_JWT_SECRET"),
		"LOG_LEVEL":       os.Getenv("LOG_LEVEL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads with required vars", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/salesai")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("AUTH_JWT_SECRET", "super-secret-signing-key")
		os.Unsetenv("PORT")
		os.Unsetenv("LOG_LEVEL")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres://localhost/salesai", cfg.DatabaseURL)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "https://api.elevenlabs.io", cfg.ElevenLabsBaseURL)
	})

	t.Run("fails without database url", func(t *testing.T) {
		os.Unsetenv("DATABASE_URL")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("AUTH_JWT_SECRET", "super-secret-signing-key")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("respects overrides", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/salesai")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("AUTH_JWT_SECRET", "super-secret-signing-key")
		os.Setenv("PORT", "9090")
		os.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Port)
		assert.Equal(t, "debug", cfg.LogLevel)
	})
}
