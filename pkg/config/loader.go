package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load parses process environment variables into cfg, which must be a pointer
// to a struct using `env` / `envDefault` tags.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// LoadFrom parses cfg from the given variables instead of the process
// environment. Unset variables take their envDefault values.
func LoadFrom(cfg any, environ map[string]string) error {
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
