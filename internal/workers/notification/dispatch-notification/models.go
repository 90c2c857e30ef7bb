// internal/workers/notification/dispatch-notification/models.go
package dispatchnotification

import "wallet-workers/internal/models"

type Input struct {
	NotificationID  string                 `json:"notificationId"`
	UserID          string                 `json:"userId"`
	Type            models.NotificationType `json:"type"`
	Role            models.Role            `json:"role,omitempty"`
	Priority        int                    `json:"priority"`
	DisplayLocation models.DisplayLocation `json:"displayLocation"`
	Title           string                 `json:"title,omitempty"`
	Description     string                 `json:"description,omitempty"`
	Data            map[string]interface{} `json:"data,omitempty"`
}

const (
	StatusSent    = "sent"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelPush  = "push"
)

type Output struct {
	DispatchID     string   `json:"dispatchId"`
	NotificationID string   `json:"notificationId"`
	Channels       []string `json:"channels"`
	Status         string   `json:"status"`
	SentAt         string   `json:"sentAt"`
}
