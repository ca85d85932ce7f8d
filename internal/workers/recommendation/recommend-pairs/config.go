// internal/workers/recommendation/recommend-pairs/config.go
package recommendpairs

import "time"

type Config struct {
	Timeout         time.Duration
	DefaultPageSize int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         60 * time.Second,
		DefaultPageSize: 10,
	}
}
