package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

// Values that mean "somebody copied the sample env file and never filled it in".
// The voice bridge must fail loudly on these rather than call the vendor.
var knownPlaceholders = []string{
	"change-me", "changeme", "placeholder", "your-api-key",
	"your_elevenlabs_api_key", "your_agent_id", "xxx",
}

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Shared secret the hosted auth service signs access tokens with.
	AuthJWTSecret string `env:"AUTH_JWT_SECRET,required"`

	// Voice vendor (ElevenLabs conversational AI).
	ElevenLabsAPIKey  string `env:"ELEVENLABS_API_KEY"`
	ElevenLabsAgentID string `env:"ELEVENLABS_AGENT_ID"`
	ElevenLabsBaseURL string `env:"ELEVENLABS_BASE_URL" envDefault:"https://api.elevenlabs.io"`

	// Analysis. Empty key selects the deterministic mock analyzer.
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:"gpt-4o"`

	// Billing.
	StripeSecretKey         string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret     string `env:"STRIPE_WEBHOOK_SECRET"`
	StripePriceProfessional string `env:"STRIPE_PRICE_PROFESSIONAL"`
	StripePriceTeam         string `env:"STRIPE_PRICE_TEAM"`
	StripePriceEnterprise   string `env:"STRIPE_PRICE_ENTERPRISE"`
	FrontendBaseURL         string `env:"FRONTEND_BASE_URL" envDefault:"http://localhost:3000"`

	// Audio recording storage.
	S3Endpoint      string `env:"S3_ENDPOINT"`
	S3Region        string `env:"S3_REGION"`
	S3AccessKey     string `env:"S3_ACCESS_KEY"`
	S3SecretKey     string `env:"S3_SECRET_KEY"`
	S3Bucket        string `env:"S3_BUCKET"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`
	S3UsePathStyle  bool   `env:"S3_USE_PATH_STYLE" envDefault:"false"`

	// Sessions left active longer than this are marked abandoned.
	SessionAbandonHours int `env:"SESSION_ABANDON_HOURS" envDefault:"6"`

	// Token for the finance/admin endpoints. Empty disables them.
	AdminAPIToken string `env:"ADMIN_API_TOKEN"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// VoiceConfigured reports whether the voice bridge can be used. A missing or
// placeholder secret is a configuration error, not a business-logic failure.
func (c *Config) VoiceConfigured() error {
	if err := checkSecret("ELEVENLABS_API_KEY", c.ElevenLabsAPIKey); err != nil {
		return err
	}
	return checkSecret("ELEVENLABS_AGENT_ID", c.ElevenLabsAgentID)
}

// BillingConfigured reports whether Stripe checkout can be used.
func (c *Config) BillingConfigured() error {
	return checkSecret("STRIPE_SECRET_KEY", c.StripeSecretKey)
}

// StorageConfigured reports whether recording uploads can be presigned.
func (c *Config) StorageConfigured() error {
	if c.S3Bucket == "" || c.S3Region == "" {
		return fmt.Errorf("S3_BUCKET and S3_REGION are required for audio storage")
	}
	if c.S3AccessKey == "" || c.S3SecretKey == "" {
		return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY are required for audio storage")
	}
	return nil
}

// PriceForTier maps a tier name to its configured Stripe price id.
func (c *Config) PriceForTier(tier string) string {
	switch tier {
	case "professional":
		return c.StripePriceProfessional
	case "team":
		return c.StripePriceTeam
	case "enterprise":
		return c.StripePriceEnterprise
	default:
		return ""
	}
}

// TierForPrice is the inverse of PriceForTier, used when webhook payloads
// carry only a price id. Unknown prices map to the starter tier.
func (c *Config) TierForPrice(priceID string) string {
	switch {
	case priceID != "" && priceID == c.StripePriceProfessional:
		return "professional"
	case priceID != "" && priceID == c.StripePriceTeam:
		return "team"
	case priceID != "" && priceID == c.StripePriceEnterprise:
		return "enterprise"
	default:
		return "starter"
	}
}

func (c *Config) Validate(isProduction bool) error {
	if isProduction {
		if len(c.AuthJWTSecret) < 32 {
			return fmt.Errorf("AUTH_JWT_SECRET must be at least 32 characters in production")
		}
		if err := c.VoiceConfigured(); err != nil {
			log.Warn().Err(err).Msg("voice bridge unconfigured: signed-url endpoint will return 500")
		}
		if err := c.BillingConfigured(); err != nil {
			log.Warn().Err(err).Msg("billing unconfigured: checkout endpoints will return 500")
		}
		if err := c.StorageConfigured(); err != nil {
			log.Warn().Err(err).Msg("audio storage unconfigured: upload endpoint will return 500")
		}
	}
	return nil
}

func checkSecret(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is not set", name)
	}
	lowered := strings.ToLower(value)
	for _, placeholder := range knownPlaceholders {
		if lowered == placeholder {
			return fmt.Errorf("%s is set to a placeholder value; replace it with a real credential", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
