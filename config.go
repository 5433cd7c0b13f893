// Package imageman is a client for the imageman image-management service.
// It covers the full resource lifecycle (create, fetch, update, delete) and
// transparently routes large payloads through a presigned direct-upload
// target instead of inlining them into the API request.
package imageman

import (
	"fmt"
	"net/url"

	"github.com/wb-go/wbf/config"
)

// DefaultService is the service tag mixed into every content reference
// hash. The hash is a cross-client wire contract, so this literal must
// match what other imageman clients use.
const DefaultService = "volcanic_service"

// Config holds everything the client needs to talk to the service. It is
// passed by value at construction and never mutated afterwards, so one
// Config can back any number of clients.
type Config struct {
	// DomainURL is the base URL of the imageman API. Required.
	DomainURL string

	// AssetImageURL is the public base URL assets are served from,
	// used to build reference URLs. Required.
	AssetImageURL string

	// Service tags content references; defaults to DefaultService.
	Service string

	// Token is a static bearer credential. Ignored when TokenProvider
	// is set.
	Token string

	// TokenProvider resolves the bearer credential on first use. The
	// result is cached for the lifetime of the client.
	TokenProvider func() (string, error)
}

func (c Config) validate() error {
	if c.DomainURL == "" {
		return fmt.Errorf("domain url is required to be configured: %w", ErrMissingConfiguration)
	}
	if _, err := url.Parse(c.DomainURL); err != nil {
		return fmt.Errorf("domain url %q: %v: %w", c.DomainURL, err, ErrMissingConfiguration)
	}
	if c.AssetImageURL == "" {
		return fmt.Errorf("asset image url is required to be configured: %w", ErrMissingConfiguration)
	}
	return nil
}

func (c Config) service() string {
	if c.Service == "" {
		return DefaultService
	}
	return c.Service
}

// ConfigFromEnv builds a Config from the environment variables
// IMAGEMAN_DOMAIN_URL, IMAGEMAN_ASSET_IMAGE_URL, IMAGEMAN_SERVICE and
// IMAGEMAN_TOKEN, loading ./.env first when present.
func ConfigFromEnv() Config {
	appConfig := config.New()
	appConfig.EnableEnv("")
	// .env is optional - ignore a missing file
	_ = appConfig.LoadEnvFiles("./.env")

	return Config{
		DomainURL:     appConfig.GetString("IMAGEMAN_DOMAIN_URL"),
		AssetImageURL: appConfig.GetString("IMAGEMAN_ASSET_IMAGE_URL"),
		Service:       appConfig.GetString("IMAGEMAN_SERVICE"),
		Token:         appConfig.GetString("IMAGEMAN_TOKEN"),
	}
}
