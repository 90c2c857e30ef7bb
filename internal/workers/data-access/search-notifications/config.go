// internal/workers/data-access/search-notifications/config.go
package searchnotifications

import "time"

type Config struct {
	Timeout    time.Duration
	Index      string
	MaxResults int
}

func LoadConfig() (*Config, error) {
	return &Config{
		Timeout:    15 * time.Second,
		Index:      "notifications",
		MaxResults: 25,
	}, nil
}
