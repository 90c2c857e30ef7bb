// internal/workers/notification/create-notification/config.go
package createnotification

import "time"

type Config struct {
	Timeout     time.Duration
	SearchIndex string
	CacheKeyPrefix string
}

func LoadConfig() (*Config, error) {
	return &Config{
		Timeout:        30 * time.Second,
		SearchIndex:    "notifications",
		CacheKeyPrefix: "notifications:user:",
	}, nil
}
