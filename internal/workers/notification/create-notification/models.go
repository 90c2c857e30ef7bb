// internal/workers/notification/create-notification/models.go
package createnotification

import (
	"time"

	"wallet-workers/internal/models"
)

type Input struct {
	UserID          string                   `json:"userId"`
	CounterpartyID  string                   `json:"counterpartyId,omitempty"`
	Type            models.NotificationType  `json:"type"`
	Title           string                   `json:"title"`
	Description     string                   `json:"description"`
	Base            models.PriorityBase      `json:"base"`
	Modifiers       models.PriorityModifiers `json:"modifiers"`
	DisplayLocation models.DisplayLocation   `json:"displayLocation"`
	Visibility      models.Visibility        `json:"visibility"`
	Gradient        string                   `json:"gradient,omitempty"`
	ExpiresAt       *time.Time               `json:"expiresAt,omitempty"`
	ActionRequired  bool                     `json:"actionRequired"`
	Dismissible     bool                     `json:"dismissible"`
	RelatedEntityID string                   `json:"relatedEntityId,omitempty"`
	RelatedEntityType string                 `json:"relatedEntityType,omitempty"`
	PaymentData     map[string]interface{}   `json:"paymentData,omitempty"`
}

type CreatedNotification struct {
	NotificationID     string      `json:"notificationId"`
	UserID             string      `json:"userId"`
	Role               models.Role `json:"role"`
	CalculatedPriority int         `json:"calculatedPriority"`
}

type Output struct {
	ParentNotificationID string                `json:"parentNotificationId,omitempty"`
	Notifications        []CreatedNotification `json:"notifications"`
	CreatedAt            string                `json:"createdAt"`
}
