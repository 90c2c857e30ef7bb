// internal/workers/wallet/process-transaction-event/config.go
package processtransactionevent

import "time"

type Config struct {
	Timeout        time.Duration
	CacheTTL       time.Duration
	CacheKeyPrefix string
}

func LoadConfig() (*Config, error) {
	return &Config{
		Timeout:        15 * time.Second,
		CacheTTL:       time.Minute,
		CacheKeyPrefix: "wallets:",
	}, nil
}
