// internal/notification/visibility.go
package notification

import "wallet-workers/internal/models"

// Relationship is the viewer's relationship to a notification,
// determined by the caller from userId, counterpartyId and role.
type Relationship string

const (
	RelationshipSender    Relationship = "sender"
	RelationshipRecipient Relationship = "recipient"
	RelationshipNone      Relationship = "none"
)

// IsVisible reports whether a viewer with the given relationship may
// see a notification carrying the given visibility. A viewer who is
// neither sender nor recipient never sees it. Total: unknown inputs
// resolve to not visible.
func IsVisible(v models.Visibility, rel Relationship) bool {
	switch rel {
	case RelationshipSender:
		return v == models.VisibilityBoth || v == models.VisibilitySenderOnly
	case RelationshipRecipient:
		return v == models.VisibilityBoth || v == models.VisibilityRecipientOnly
	default:
		return false
	}
}

// RelationshipOf derives the viewer's relationship to a notification
// record. The record's owner side is given by metadata.role (the owner
// defaults to sender when role is absent); the counterparty holds the
// opposite side.
func RelationshipOf(viewerID string, n *models.Notification) Relationship {
	ownerSide := RelationshipSender
	if n.Metadata.Role == models.RoleRecipient {
		ownerSide = RelationshipRecipient
	}

	switch viewerID {
	case n.UserID:
		return ownerSide
	case n.Metadata.CounterpartyID:
		if n.Metadata.CounterpartyID == "" {
			return RelationshipNone
		}
		if ownerSide == RelationshipSender {
			return RelationshipRecipient
		}
		return RelationshipSender
	default:
		return RelationshipNone
	}
}
