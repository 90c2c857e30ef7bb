// internal/notification/priority.go
package notification

import (
	"errors"
	"fmt"

	"wallet-workers/internal/models"
)

var (
	ErrInvalidArgument = errors.New("INVALID_ARGUMENT")
)

// Base weights per priority tier.
const (
	BaseWeightHigh   = 70
	BaseWeightMedium = 40
	BaseWeightLow    = 10
)

// Modifier bonuses, each applied independently. Each constant is named
// after the condition it gates.
const (
	ActionRequiredBonus = 20
	TimeConstraintBonus = 15
	LargeAmountBonus    = 10
	RecipientRoleBonus  = 5

	// LargeAmountThreshold is in sats. Strictly greater-than qualifies.
	LargeAmountThreshold = 100000

	MaxPriority = 100
)

// ComputePriority maps a notification's urgency tier and situational
// modifiers to a single bounded score in [base weight, 100]. It is pure
// and deterministic; the result is stored as calculatedPriority at
// creation time and never recomputed.
func ComputePriority(base models.PriorityBase, mods models.PriorityModifiers) (int, error) {
	var score int
	switch base {
	case models.PriorityHigh:
		score = BaseWeightHigh
	case models.PriorityMedium:
		score = BaseWeightMedium
	case models.PriorityLow:
		score = BaseWeightLow
	default:
		return 0, fmt.Errorf("%w: unknown priority base %q", ErrInvalidArgument, base)
	}

	switch mods.Role {
	case models.RoleSender, models.RoleRecipient, "":
	default:
		return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, mods.Role)
	}

	if mods.ActionRequired {
		score += ActionRequiredBonus
	}
	if mods.TimeConstraint {
		score += TimeConstraintBonus
	}
	if mods.Amount > LargeAmountThreshold {
		score += LargeAmountBonus
	}
	if mods.Role == models.RoleRecipient {
		score += RecipientRoleBonus
	}

	if score > MaxPriority {
		score = MaxPriority
	}
	return score, nil
}
