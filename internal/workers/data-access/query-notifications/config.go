// internal/workers/data-access/query-notifications/config.go
package querynotifications

import "time"

type Config struct {
	Timeout        time.Duration
	CacheTTL       time.Duration
	CacheKeyPrefix string
}

func LoadConfig() (*Config, error) {
	return &Config{
		Timeout:        15 * time.Second,
		CacheTTL:       5 * time.Minute,
		CacheKeyPrefix: "notifications:user:",
	}, nil
}
