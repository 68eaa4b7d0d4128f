package core

import (
	"fmt"
	"strings"
)

type OAuthConfig struct {
	RequireCallbackURL bool `koanf:"require_callback_url" mapstructure:"require_callback_url"`
}

type Config struct {
	ServiceName string      `koanf:"service_name" mapstructure:"service_name"`
	OAuth       OAuthConfig `koanf:"oauth" mapstructure:"oauth"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "connect",
		OAuth:       OAuthConfig{},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	return nil
}
