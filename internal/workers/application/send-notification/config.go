// internal/workers/application/send-notification/config.go
package sendnotification

import (
	"time"

	"matchpet-workers/internal/common/config"
)

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	Timeout      time.Duration
}

func LoadConfig(n config.NotificationConfig) *Config {
	return &Config{
		EmailEnabled: n.EmailEnabled,
		SMSEnabled:   n.SMSEnabled,
		Timeout:      30 * time.Second,
	}
}
