// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		Version: "1",
		Templates: []Template{
			{
				ID:               "txn-sender",
				NotificationType: "transaction",
				Role:             "sender",
				Title:            "You sent {{amount}} sats",
				Body:             "Payment to {{counterparty}} confirmed.",
				DisplayLocation:  "toast",
				Dismissible:      true,
				DefaultBase:      "medium",
			},
			{
				ID:               "txn-recipient",
				NotificationType: "transaction",
				Role:             "recipient",
				Title:            "You received {{amount}} sats",
				Body:             "Payment from {{counterparty}}.",
				DisplayLocation:  "both",
				Dismissible:      true,
				DefaultBase:      "medium",
			},
			{
				ID:               "security",
				NotificationType: "security",
				Title:            "Security alert",
				Body:             "{{detail}}",
				DisplayLocation:  "suggested_actions",
				DefaultBase:      "high",
			},
		},
	}
}

func TestLookup(t *testing.T) {
	reg := testRegistry()

	t.Run("exact role match", func(t *testing.T) {
		tmpl, err := reg.Lookup("transaction", "recipient")
		require.NoError(t, err)
		assert.Equal(t, "txn-recipient", tmpl.ID)
	})

	t.Run("role-less template matches any role", func(t *testing.T) {
		tmpl, err := reg.Lookup("security", "sender")
		require.NoError(t, err)
		assert.Equal(t, "security", tmpl.ID)
	})

	t.Run("unknown type fails", func(t *testing.T) {
		_, err := reg.Lookup("marketing", "sender")
		assert.Error(t, err)
	})
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		tmpl     string
		data     map[string]interface{}
		expected string
	}{
		{
			name:     "string and int64 substitution",
			tmpl:     "You received {{amount}} sats from {{counterparty}}",
			data:     map[string]interface{}{"amount": int64(21000), "counterparty": "alice"},
			expected: "You received 21000 sats from alice",
		},
		{
			name:     "missing placeholders are stripped",
			tmpl:     "Hello {{name}}, balance {{balance}}",
			data:     map[string]interface{}{"name": "bob"},
			expected: "Hello bob, balance ",
		},
		{
			name:     "no placeholders",
			tmpl:     "plain text",
			data:     map[string]interface{}{"unused": 1},
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Render(tt.tmpl, tt.data))
		})
	}
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registry.json")
	payload := `{
		"version": "2",
		"templates": [
			{"id": "sys", "notificationType": "system", "title": "t", "body": "b", "displayLocation": "toast", "defaultBase": "low"}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "2", reg.Version)
	require.Len(t, reg.Templates, 1)
	assert.Equal(t, "sys", reg.Templates[0].ID)
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry("does-not-exist.json")
	assert.Error(t, err)
}
