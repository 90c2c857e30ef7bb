// internal/models/wallet.go
package models

import "time"

type WalletType string

const (
	WalletTypeSpending WalletType = "spending"
	WalletTypeSavings  WalletType = "savings"
	WalletTypeBusiness WalletType = "business"
)

// Wallet balances are denominated in sats.
type Wallet struct {
	ID      string     `json:"id"`
	UserID  string     `json:"userId"`
	Type    WalletType `json:"type"`
	Balance int64      `json:"balance"`
}

type TransactionType string

const (
	TransactionTypeSend           TransactionType = "send"
	TransactionTypeReceive        TransactionType = "receive"
	TransactionTypePaymentRequest TransactionType = "payment_request"
)

type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	SenderID    string          `json:"senderId"`
	RecipientID string          `json:"recipientId"`
	WalletID    string          `json:"walletId"`
	Amount      int64           `json:"amount"`
	Memo        string          `json:"memo,omitempty"`
	ExpiresAt   *time.Time      `json:"expiresAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}
