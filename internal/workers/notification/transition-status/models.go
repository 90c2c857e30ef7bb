// internal/workers/notification/transition-status/models.go
package transitionstatus

import "wallet-workers/internal/models"

type Input struct {
	NotificationID string `json:"notificationId"`
	Action         string `json:"action"`
	RequestedBy    string `json:"requestedBy,omitempty"`
}

type Output struct {
	NotificationID string                    `json:"notificationId"`
	PreviousStatus models.NotificationStatus `json:"previousStatus"`
	NewStatus      models.NotificationStatus `json:"newStatus"`
	UpdatedAt      string                    `json:"updatedAt"`
}
