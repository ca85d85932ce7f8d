// internal/workers/classification/classify-special-mark/config.go
package classifyspecialmark

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
