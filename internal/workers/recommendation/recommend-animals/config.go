// internal/workers/recommendation/recommend-animals/config.go
package recommendanimals

import "time"

type Config struct {
	Timeout         time.Duration
	DefaultPageSize int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         30 * time.Second,
		DefaultPageSize: 20,
	}
}
