// internal/workers/notification/expire-notifications/models.go
package expirenotifications

type Input struct {
	BatchSize int `json:"batchSize,omitempty"`
}

type Output struct {
	ExpiredCount  int      `json:"expiredCount"`
	AffectedUsers []string `json:"affectedUsers,omitempty"`
	SweptAt       string   `json:"sweptAt"`
}
