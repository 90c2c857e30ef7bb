// internal/notification/lifecycle.go
package notification

import (
	"errors"
	"fmt"
	"time"

	"wallet-workers/internal/models"
)

var (
	ErrInvalidTransition = errors.New("INVALID_TRANSITION")
)

// ValidateTransition enforces the monotonic status state machine:
// active -> dismissed | actioned | expired, all terminal. The storage
// layer consults this before committing a status write.
func ValidateTransition(current, requested models.NotificationStatus) error {
	switch requested {
	case models.StatusDismissed, models.StatusActioned, models.StatusExpired:
	default:
		return fmt.Errorf("%w: %s is not a valid target status", ErrInvalidTransition, requested)
	}

	if current != models.StatusActive {
		return fmt.Errorf("%w: cannot leave terminal status %s", ErrInvalidTransition, current)
	}
	return nil
}

// EffectiveStatus applies the read-time expiry override: an active
// notification whose expiresAt has passed reads as expired. Stored
// state is untouched; the persisted transition belongs to the sweeper.
func EffectiveStatus(status models.NotificationStatus, expiresAt *time.Time, now time.Time) models.NotificationStatus {
	if status == models.StatusActive && expiresAt != nil && now.After(*expiresAt) {
		return models.StatusExpired
	}
	return status
}
