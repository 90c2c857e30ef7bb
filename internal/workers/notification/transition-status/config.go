// internal/workers/notification/transition-status/config.go
package transitionstatus

import "time"

type Config struct {
	Timeout        time.Duration
	CacheKeyPrefix string
}

func LoadConfig() (*Config, error) {
	return &Config{
		Timeout:        15 * time.Second,
		CacheKeyPrefix: "notifications:user:",
	}, nil
}
