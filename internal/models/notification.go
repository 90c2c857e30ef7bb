// internal/models/notification.go
package models

import "time"

type NotificationType string

const (
	NotificationTypeTransaction    NotificationType = "transaction"
	NotificationTypePaymentRequest NotificationType = "payment_request"
	NotificationTypeSecurity       NotificationType = "security"
	NotificationTypeSystem         NotificationType = "system"
)

type NotificationStatus string

const (
	StatusActive    NotificationStatus = "active"
	StatusDismissed NotificationStatus = "dismissed"
	StatusActioned  NotificationStatus = "actioned"
	StatusExpired   NotificationStatus = "expired"
)

type PriorityBase string

const (
	PriorityHigh   PriorityBase = "high"
	PriorityMedium PriorityBase = "medium"
	PriorityLow    PriorityBase = "low"
)

// Role records which side of a two-party event a notification record
// represents. A transaction fans out into a sender-side and a
// recipient-side record sharing a ParentNotificationID.
type Role string

const (
	RoleSender    Role = "sender"
	RoleRecipient Role = "recipient"
)

type Visibility string

const (
	VisibilitySenderOnly    Visibility = "sender_only"
	VisibilityRecipientOnly Visibility = "recipient_only"
	VisibilityBoth          Visibility = "both"
)

type DisplayLocation string

const (
	DisplaySuggestedActions DisplayLocation = "suggested_actions"
	DisplayToast            DisplayLocation = "toast"
	DisplayBoth             DisplayLocation = "both"
)

// PriorityModifiers are the situational factors that adjust the base
// priority weight. Amount is in sats (the currency's minor unit).
type PriorityModifiers struct {
	ActionRequired bool  `json:"actionRequired"`
	TimeConstraint bool  `json:"timeConstraint"`
	Amount         int64 `json:"amount"`
	Role           Role  `json:"role,omitempty"`
}

// Priority is stored alongside the notification. CalculatedPriority is
// computed once at creation time and never re-derived on mutation.
type Priority struct {
	Base               PriorityBase      `json:"base"`
	Modifiers          PriorityModifiers `json:"modifiers"`
	CalculatedPriority int               `json:"calculatedPriority"`
}

type NotificationMetadata struct {
	Gradient             string                 `json:"gradient,omitempty"`
	ExpiresAt            *time.Time             `json:"expiresAt,omitempty"`
	ActionRequired       bool                   `json:"actionRequired"`
	Dismissible          bool                   `json:"dismissible"`
	RelatedEntityID      string                 `json:"relatedEntityId,omitempty"`
	RelatedEntityType    string                 `json:"relatedEntityType,omitempty"`
	CounterpartyID       string                 `json:"counterpartyId,omitempty"`
	Visibility           Visibility             `json:"visibility"`
	Role                 Role                   `json:"role,omitempty"`
	ParentNotificationID string                 `json:"parentNotificationId,omitempty"`
	PaymentData          map[string]interface{} `json:"paymentData,omitempty"`
}

type Notification struct {
	ID              string               `json:"id"`
	UserID          string               `json:"userId"`
	Type            NotificationType     `json:"type"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Status          NotificationStatus   `json:"status"`
	Priority        Priority             `json:"priority"`
	DisplayLocation DisplayLocation      `json:"displayLocation"`
	Metadata        NotificationMetadata `json:"metadata"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}
