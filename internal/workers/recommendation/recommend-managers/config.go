// internal/workers/recommendation/recommend-managers/config.go
package recommendmanagers

import "time"

type Config struct {
	Timeout         time.Duration
	DefaultPageSize int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         30 * time.Second,
		DefaultPageSize: 10,
	}
}
