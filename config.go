package identity

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// Config holds the process configuration, loaded once from the environment
// and treated as immutable.
type Config struct {
	Issuer         string        `env:"IDENTITY_ISSUER" envDefault:"go-identity"`
	Audience       []string      `env:"IDENTITY_AUDIENCE" envSeparator:"," envDefault:"go-identity"`
	SigningKeyID   string        `env:"IDENTITY_SIGNING_KID" envDefault:"primary"`
	AccessTokenTTL time.Duration `env:"IDENTITY_ACCESS_TOKEN_TTL" envDefault:"15m"`
	OAuthStateTTL  time.Duration `env:"IDENTITY_OAUTH_STATE_TTL" envDefault:"10m"`
	BcryptCost     int           `env:"IDENTITY_BCRYPT_COST" envDefault:"12"`

	GoogleClientID     string `env:"IDENTITY_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"IDENTITY_GOOGLE_CLIENT_SECRET"`
	GitHubClientID     string `env:"IDENTITY_GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"IDENTITY_GITHUB_CLIENT_SECRET"`
}

// LoadConfig reads the configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load configuration")
	}
	return cfg, nil
}
