package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRecoveryLevel(t *testing.T) {
	tests := []struct {
		name                  string
		days                  int
		purgeProtection       bool
		protectedSubscription bool
		expected              RecoveryLevel
		expectErr             bool
	}{
		{name: "customized", days: 30, expected: RecoveryLevelCustomizedRecoverable},
		{name: "customized lower bound", days: 7, expected: RecoveryLevelCustomizedRecoverable},
		{name: "customized protected subscription", days: 89, protectedSubscription: true, expected: RecoveryLevelCustomizedRecoverableProtectedSubscription},
		{name: "customized purge protection", days: 45, purgeProtection: true, expected: RecoveryLevelCustomizedRecoverablePurgeable},
		{name: "purgeable", days: 0, expected: RecoveryLevelPurgeable},
		{name: "purgeable ignores protected subscription", days: 0, protectedSubscription: true, expected: RecoveryLevelPurgeable},
		{name: "recoverable", days: 90, purgeProtection: true, expected: RecoveryLevelRecoverable},
		{name: "recoverable protected subscription", days: 90, purgeProtection: true, protectedSubscription: true, expected: RecoveryLevelRecoverableProtectedSubscription},
		{name: "recoverable purgeable", days: 90, expected: RecoveryLevelRecoverablePurgeable},
		{name: "customized with both flags", days: 30, purgeProtection: true, protectedSubscription: true, expectErr: true},
		{name: "max days protected without purge protection", days: 90, protectedSubscription: true, expectErr: true},
		{name: "zero days with purge protection", days: 0, purgeProtection: true, expectErr: true},
		{name: "below minimum", days: 3, expectErr: true},
		{name: "above maximum", days: 120, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := ComputeRecoveryLevel(tt.days, tt.purgeProtection, tt.protectedSubscription)
			if tt.expectErr {
				assert.ErrorIs(t, err, ErrInvalidRecoveryPolicy)
				assert.Empty(t, level)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestNewRecoveryPolicy(t *testing.T) {
	t.Run("soft delete enabled", func(t *testing.T) {
		policy, err := NewRecoveryPolicy(90, false, false, false)
		require.NoError(t, err)
		assert.Equal(t, RecoveryLevelRecoverablePurgeable, policy.Level)
		assert.Equal(t, 90, policy.RecoverableDays)
		assert.False(t, policy.DisableSoftDelete)
	})

	t.Run("soft delete disabled forces purgeable", func(t *testing.T) {
		policy, err := NewRecoveryPolicy(90, true, false, false)
		require.NoError(t, err)
		assert.Equal(t, RecoveryLevelPurgeable, policy.Level)
		assert.Equal(t, 0, policy.RecoverableDays)
		assert.True(t, policy.DisableSoftDelete)
	})

	t.Run("soft delete disabled with purge protection", func(t *testing.T) {
		_, err := NewRecoveryPolicy(90, true, true, false)
		assert.ErrorIs(t, err, ErrInvalidRecoveryPolicy)
	})
}
