// internal/notification/priority_test.go
package notification

import (
	"testing"

	"wallet-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePriority_BaseWeights(t *testing.T) {
	tests := []struct {
		base     models.PriorityBase
		expected int
	}{
		{models.PriorityHigh, 70},
		{models.PriorityMedium, 40},
		{models.PriorityLow, 10},
	}

	for _, tt := range tests {
		t.Run(string(tt.base), func(t *testing.T) {
			score, err := ComputePriority(tt.base, models.PriorityModifiers{})
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, score)
		})
	}
}

func TestComputePriority_Modifiers(t *testing.T) {
	tests := []struct {
		name     string
		base     models.PriorityBase
		mods     models.PriorityModifiers
		expected int
	}{
		{
			name:     "action required",
			base:     models.PriorityMedium,
			mods:     models.PriorityModifiers{ActionRequired: true},
			expected: 60,
		},
		{
			name:     "time constraint",
			base:     models.PriorityMedium,
			mods:     models.PriorityModifiers{TimeConstraint: true},
			expected: 55,
		},
		{
			name:     "large amount",
			base:     models.PriorityMedium,
			mods:     models.PriorityModifiers{Amount: 100001},
			expected: 50,
		},
		{
			name:     "recipient role",
			base:     models.PriorityMedium,
			mods:     models.PriorityModifiers{Role: models.RoleRecipient},
			expected: 45,
		},
		{
			name:     "sender role gets no bonus",
			base:     models.PriorityMedium,
			mods:     models.PriorityModifiers{Role: models.RoleSender},
			expected: 40,
		},
		{
			name: "modifiers are additive",
			base: models.PriorityLow,
			mods: models.PriorityModifiers{
				ActionRequired: true,
				TimeConstraint: true,
				Amount:         200000,
				Role:           models.RoleRecipient,
			},
			expected: 60, // 10+20+15+10+5
		},
		{
			name: "all modifiers on high clamps at 100",
			base: models.PriorityHigh,
			mods: models.PriorityModifiers{
				ActionRequired: true,
				TimeConstraint: true,
				Amount:         200000,
				Role:           models.RoleRecipient,
			},
			expected: 100, // min(100, 70+20+15+10+5)
		},
		{
			name:     "amount exactly at threshold does not qualify",
			base:     models.PriorityLow,
			mods:     models.PriorityModifiers{Amount: 100000, Role: models.RoleSender},
			expected: 10,
		},
		{
			name:     "negative amount does not qualify",
			base:     models.PriorityLow,
			mods:     models.PriorityModifiers{Amount: -5000},
			expected: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := ComputePriority(tt.base, tt.mods)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, score)
		})
	}
}

func TestComputePriority_InvalidBase(t *testing.T) {
	for _, base := range []models.PriorityBase{"", "urgent", "HIGH", "critical"} {
		t.Run(string(base), func(t *testing.T) {
			_, err := ComputePriority(base, models.PriorityModifiers{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestComputePriority_InvalidRole(t *testing.T) {
	_, err := ComputePriority(models.PriorityHigh, models.PriorityModifiers{Role: "observer"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestComputePriority_Bounds(t *testing.T) {
	bases := []models.PriorityBase{models.PriorityHigh, models.PriorityMedium, models.PriorityLow}
	bools := []bool{false, true}
	amounts := []int64{0, 100000, 100001, 5000000}
	roles := []models.Role{models.RoleSender, models.RoleRecipient}

	for _, base := range bases {
		for _, ar := range bools {
			for _, tc := range bools {
				for _, amt := range amounts {
					for _, role := range roles {
						score, err := ComputePriority(base, models.PriorityModifiers{
							ActionRequired: ar,
							TimeConstraint: tc,
							Amount:         amt,
							Role:           role,
						})
						require.NoError(t, err)
						assert.GreaterOrEqual(t, score, 10)
						assert.LessOrEqual(t, score, 100)
					}
				}
			}
		}
	}
}

// Enabling any single modifier while holding the rest fixed never
// lowers the score.
func TestComputePriority_Monotonicity(t *testing.T) {
	baseline := models.PriorityModifiers{Role: models.RoleSender}

	variants := []struct {
		name string
		mods models.PriorityModifiers
	}{
		{"action required", models.PriorityModifiers{ActionRequired: true, Role: models.RoleSender}},
		{"time constraint", models.PriorityModifiers{TimeConstraint: true, Role: models.RoleSender}},
		{"large amount", models.PriorityModifiers{Amount: 150000, Role: models.RoleSender}},
		{"recipient role", models.PriorityModifiers{Role: models.RoleRecipient}},
	}

	for _, base := range []models.PriorityBase{models.PriorityHigh, models.PriorityMedium, models.PriorityLow} {
		ref, err := ComputePriority(base, baseline)
		require.NoError(t, err)

		for _, v := range variants {
			t.Run(string(base)+"/"+v.name, func(t *testing.T) {
				score, err := ComputePriority(base, v.mods)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, score, ref)
			})
		}
	}
}

func TestComputePriority_Deterministic(t *testing.T) {
	mods := models.PriorityModifiers{
		ActionRequired: true,
		Amount:         250000,
		Role:           models.RoleRecipient,
	}

	first, err := ComputePriority(models.PriorityMedium, mods)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		score, err := ComputePriority(models.PriorityMedium, mods)
		require.NoError(t, err)
		assert.Equal(t, first, score)
	}
}

// The same event scored once per role yields asymmetric scores for the
// sender and recipient halves of the fan-out.
func TestComputePriority_RoleAsymmetry(t *testing.T) {
	mods := models.PriorityModifiers{Amount: 50000}

	mods.Role = models.RoleSender
	senderScore, err := ComputePriority(models.PriorityMedium, mods)
	require.NoError(t, err)

	mods.Role = models.RoleRecipient
	recipientScore, err := ComputePriority(models.PriorityMedium, mods)
	require.NoError(t, err)

	assert.Equal(t, RecipientRoleBonus, recipientScore-senderScore)
}

func BenchmarkComputePriority(b *testing.B) {
	mods := models.PriorityModifiers{
		ActionRequired: true,
		TimeConstraint: true,
		Amount:         200000,
		Role:           models.RoleRecipient,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ComputePriority(models.PriorityHigh, mods)
	}
}
