// internal/workers/notification/expire-notifications/config.go
package expirenotifications

import "time"

type Config struct {
	Timeout        time.Duration
	BatchSize      int
	CacheKeyPrefix string
}

func LoadConfig() (*Config, error) {
	return &Config{
		Timeout:        60 * time.Second,
		BatchSize:      500,
		CacheKeyPrefix: "notifications:user:",
	}, nil
}
