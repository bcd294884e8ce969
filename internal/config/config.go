package config

import (
	"errors"
	"fmt"
	"os"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

type Config struct {
	baserowAPIURL     string
	baserowAPIToken   string
	fuelAPIURL        string
	preferredProvider string
	invalidateSecret  string
	sentryDSN         string
	port              string
	env               environment
}

func (c *Config) BaserowAPIURL() string {
	return c.baserowAPIURL
}

func (c *Config) BaserowAPIToken() string {
	return c.baserowAPIToken
}

func (c *Config) FuelAPIURL() string {
	return c.fuelAPIURL
}

func (c *Config) PreferredProvider() string {
	return c.preferredProvider
}

func (c *Config) InvalidateSecret() string {
	return c.invalidateSecret
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf("Config{env: %s, preferredProvider: %s, port: %s, ...}", string(c.env), c.preferredProvider, c.port)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("PUMPWATCH_ENVIRONMENT")
	if !ok {
		return missingKey("PUMPWATCH_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: PUMPWATCH_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}

	baserowAPIURL := os.Getenv("BASEROW_API_URL")
	baserowAPIToken := os.Getenv("BASEROW_API_TOKEN")
	fuelAPIURL := os.Getenv("FUELAPI_URL")
	preferredProvider := os.Getenv("PREFERRED_PROVIDER")
	invalidateSecret := os.Getenv("INVALIDATE_SECRET")
	sentryDSN := os.Getenv("SENTRY_DSN")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	switch preferredProvider {
	case "", "baserow", "fuelapi":
	default:
		return Config{}, fmt.Errorf("%w: PREFERRED_PROVIDER (%s)", ErrInvalidValue, preferredProvider)
	}

	if env == production || env == staging {
		if baserowAPIURL == "" {
			return missingKey("BASEROW_API_URL")
		}
		if baserowAPIToken == "" {
			return missingKey("BASEROW_API_TOKEN")
		}
		if fuelAPIURL == "" {
			return missingKey("FUELAPI_URL")
		}
		if invalidateSecret == "" {
			return missingKey("INVALIDATE_SECRET")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
	}

	return Config{
		baserowAPIURL:     baserowAPIURL,
		baserowAPIToken:   baserowAPIToken,
		fuelAPIURL:        fuelAPIURL,
		preferredProvider: preferredProvider,
		invalidateSecret:  invalidateSecret,
		sentryDSN:         sentryDSN,
		port:              port,
		env:               env,
	}, nil
}
