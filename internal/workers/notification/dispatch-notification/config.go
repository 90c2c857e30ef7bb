// internal/workers/notification/dispatch-notification/config.go
package dispatchnotification

import "time"

type Config struct {
	Timeout time.Duration

	AWSRegion string

	EmailEnabled bool
	FromEmail    string

	SMSEnabled           bool
	SMSPriorityThreshold int

	PushEnabled    bool
	PushWebhookURL string
	PushTimeout    time.Duration

	RegistryPath string
}

func LoadConfig() (*Config, error) {
	return &Config{
		Timeout:              30 * time.Second,
		AWSRegion:            "us-east-1",
		EmailEnabled:         true,
		FromEmail:            "notifications@wallet.local",
		SMSEnabled:           true,
		SMSPriorityThreshold: 70,
		PushEnabled:          false,
		PushTimeout:          5 * time.Second,
		RegistryPath:         "configs/notification-registry.json",
	}, nil
}
