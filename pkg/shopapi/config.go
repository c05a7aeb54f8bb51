package shopapi

import "time"

const defaultTimeout = 10 * time.Second

// Config represents the configuration for the shop API client
type Config struct {
	// BaseURL is the API root, e.g. http://127.0.0.1:8000/api
	BaseURL string

	// Timeout bounds every request; zero means 10s
	Timeout time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrInvalidConfig
	}
	if c.Timeout < 0 {
		return ErrInvalidConfig
	}
	return nil
}
