// internal/workers/wallet/process-transaction-event/models.go
package processtransactionevent

import (
	"time"

	"wallet-workers/internal/models"
)

type Input struct {
	Transaction models.Transaction `json:"transaction"`
}

// Output is shaped as the create-notification input so the workflow can pass
// it straight to the next task.
type Output struct {
	UserID          string                   `json:"userId"`
	CounterpartyID  string                   `json:"counterpartyId,omitempty"`
	Type            models.NotificationType  `json:"type"`
	Title           string                   `json:"title"`
	Description     string                   `json:"description"`
	Base            models.PriorityBase      `json:"base"`
	Modifiers       models.PriorityModifiers `json:"modifiers"`
	DisplayLocation models.DisplayLocation   `json:"displayLocation"`
	Visibility      models.Visibility        `json:"visibility"`
	ExpiresAt       *time.Time               `json:"expiresAt,omitempty"`
	ActionRequired  bool                     `json:"actionRequired"`
	Dismissible     bool                     `json:"dismissible"`
	RelatedEntityID string                   `json:"relatedEntityId"`
	RelatedEntityType string                 `json:"relatedEntityType"`
	PaymentData     map[string]interface{}   `json:"paymentData"`
}
