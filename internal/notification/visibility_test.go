// internal/notification/visibility_test.go
package notification

import (
	"testing"

	"wallet-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestIsVisible(t *testing.T) {
	tests := []struct {
		name       string
		visibility models.Visibility
		rel        Relationship
		expected   bool
	}{
		{"both visible to sender", models.VisibilityBoth, RelationshipSender, true},
		{"both visible to recipient", models.VisibilityBoth, RelationshipRecipient, true},
		{"both hidden from unrelated", models.VisibilityBoth, RelationshipNone, false},
		{"sender_only visible to sender", models.VisibilitySenderOnly, RelationshipSender, true},
		{"sender_only hidden from recipient", models.VisibilitySenderOnly, RelationshipRecipient, false},
		{"sender_only hidden from unrelated", models.VisibilitySenderOnly, RelationshipNone, false},
		{"recipient_only visible to recipient", models.VisibilityRecipientOnly, RelationshipRecipient, true},
		{"recipient_only hidden from sender", models.VisibilityRecipientOnly, RelationshipSender, false},
		{"recipient_only hidden from unrelated", models.VisibilityRecipientOnly, RelationshipNone, false},
		{"unknown visibility hidden", models.Visibility("everyone"), RelationshipSender, false},
		{"unknown relationship hidden", models.VisibilityBoth, Relationship("admin"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsVisible(tt.visibility, tt.rel))
		})
	}
}

func TestRelationshipOf(t *testing.T) {
	base := func(role models.Role) *models.Notification {
		return &models.Notification{
			ID:     "notif-1",
			UserID: "user-a",
			Metadata: models.NotificationMetadata{
				CounterpartyID: "user-b",
				Visibility:     models.VisibilityBoth,
				Role:           role,
			},
		}
	}

	t.Run("owner of sender-side record is sender", func(t *testing.T) {
		assert.Equal(t, RelationshipSender, RelationshipOf("user-a", base(models.RoleSender)))
	})

	t.Run("counterparty of sender-side record is recipient", func(t *testing.T) {
		assert.Equal(t, RelationshipRecipient, RelationshipOf("user-b", base(models.RoleSender)))
	})

	t.Run("owner of recipient-side record is recipient", func(t *testing.T) {
		assert.Equal(t, RelationshipRecipient, RelationshipOf("user-a", base(models.RoleRecipient)))
	})

	t.Run("counterparty of recipient-side record is sender", func(t *testing.T) {
		assert.Equal(t, RelationshipSender, RelationshipOf("user-b", base(models.RoleRecipient)))
	})

	t.Run("unrelated viewer has no relationship", func(t *testing.T) {
		assert.Equal(t, RelationshipNone, RelationshipOf("user-c", base(models.RoleSender)))
	})

	t.Run("missing role defaults owner to sender", func(t *testing.T) {
		assert.Equal(t, RelationshipSender, RelationshipOf("user-a", base("")))
	})

	t.Run("empty counterparty never matches", func(t *testing.T) {
		n := base(models.RoleSender)
		n.Metadata.CounterpartyID = ""
		assert.Equal(t, RelationshipNone, RelationshipOf("", n))
	})
}
