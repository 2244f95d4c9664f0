package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"auth_gateway/internal/model"

	"github.com/caarlos0/env/v11"
)

// Config is the immutable application configuration, parsed once at startup
type Config struct {
	ServerPort   string `env:"SERVER_PORT" envDefault:"8080"`
	BaseEndpoint string `env:"BASE_ENDPOINT" envDefault:"/auth"`

	AccessTokenSecret  string        `env:"JWT_SECRET,required,notEmpty"`
	AccessTokenTTL     time.Duration `env:"JWT_TIMEOUT" envDefault:"1h"`
	RefreshTokenSecret string        `env:"JWT_REFRESH_SECRET,required,notEmpty"`
	RefreshTokenTTL    time.Duration `env:"JWT_REFRESH_TIMEOUT" envDefault:"168h"`

	BcryptCost      int      `env:"BCRYPT_COST" envDefault:"10"`
	PrivilegedRoles []string `env:"PRIVILEGED_ROLES" envSeparator:"," envDefault:"marketing,technical"`
	OpenRoutes      []string `env:"OPEN_ROUTES" envSeparator:","`

	RestaurantServiceURL  string        `env:"RESTAURANT_SERVICE_URL"`
	RestaurantCreatorPath string        `env:"RESTAURANT_CREATOR_PATH" envDefault:"/restaurants/creator"`
	RestaurantTimeout     time.Duration `env:"RESTAURANT_TIMEOUT" envDefault:"5s"`

	DB DBConfig
}

// Load parses the configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants env tags cannot express
func (c *Config) Validate() error {
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST out of range: %d", c.BcryptCost)
	}
	for _, role := range c.PrivilegedRoles {
		if !model.IsValidRole(role) {
			return fmt.Errorf("unknown privileged role %q", role)
		}
	}
	if _, err := c.ExtraOpenRoutes(); err != nil {
		return err
	}
	return nil
}

// ExtraOpenRoutes parses OPEN_ROUTES entries of the form "METHOD /path"
func (c *Config) ExtraOpenRoutes() ([]model.OpenRoute, error) {
	routes := make([]model.OpenRoute, 0, len(c.OpenRoutes))
	for _, entry := range c.OpenRoutes {
		fields := strings.Fields(entry)
		if len(fields) != 2 || !strings.HasPrefix(fields[1], "/") {
			return nil, fmt.Errorf("invalid OPEN_ROUTES entry %q, want \"METHOD /path\"", entry)
		}
		routes = append(routes, model.OpenRoute{Method: strings.ToUpper(fields[0]), Path: fields[1]})
	}
	return routes, nil
}
