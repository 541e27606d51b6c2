package domain

import (
	"fmt"
)

// RecoveryLevel summarizes the deletion recovery policy of the vault.
type RecoveryLevel string

// Recovery levels reported in secret attributes.
const (
	RecoveryLevelPurgeable                                  RecoveryLevel = "Purgeable"
	RecoveryLevelRecoverable                                RecoveryLevel = "Recoverable"
	RecoveryLevelRecoverablePurgeable                       RecoveryLevel = "Recoverable+Purgeable"
	RecoveryLevelRecoverableProtectedSubscription           RecoveryLevel = "Recoverable+ProtectedSubscription"
	RecoveryLevelCustomizedRecoverable                      RecoveryLevel = "CustomizedRecoverable"
	RecoveryLevelCustomizedRecoverablePurgeable             RecoveryLevel = "CustomizedRecoverable+Purgeable"
	RecoveryLevelCustomizedRecoverableProtectedSubscription RecoveryLevel = "CustomizedRecoverable+ProtectedSubscription"
)

const (
	// MinRecoverableDays is the shortest customizable retention period.
	MinRecoverableDays = 7
	// MaxRecoverableDays is the default and longest retention period.
	MaxRecoverableDays = 90
)

// RecoveryPolicy is the deletion policy derived from configuration at startup.
type RecoveryPolicy struct {
	Level             RecoveryLevel
	RecoverableDays   int
	DisableSoftDelete bool
	PurgeProtection   bool
}

// NewRecoveryPolicy validates the configuration combination and computes its recovery level.
// Disabling soft delete is equivalent to zero recoverable days.
func NewRecoveryPolicy(recoverableDays int, disableSoftDelete, purgeProtection, protectedSubscription bool) (RecoveryPolicy, error) {
	if disableSoftDelete {
		recoverableDays = 0
	}

	level, err := ComputeRecoveryLevel(recoverableDays, purgeProtection, protectedSubscription)
	if err != nil {
		return RecoveryPolicy{}, err
	}

	return RecoveryPolicy{
		Level:             level,
		RecoverableDays:   recoverableDays,
		DisableSoftDelete: disableSoftDelete,
		PurgeProtection:   purgeProtection,
	}, nil
}

// ComputeRecoveryLevel maps the retention settings to a recovery level.
// Combinations outside the table are configuration errors.
func ComputeRecoveryLevel(recoverableDays int, purgeProtection, protectedSubscription bool) (RecoveryLevel, error) {
	customized := recoverableDays >= MinRecoverableDays && recoverableDays < MaxRecoverableDays

	switch {
	case customized && !protectedSubscription && !purgeProtection:
		return RecoveryLevelCustomizedRecoverable, nil
	case customized && protectedSubscription && !purgeProtection:
		return RecoveryLevelCustomizedRecoverableProtectedSubscription, nil
	case customized && !protectedSubscription && purgeProtection:
		return RecoveryLevelCustomizedRecoverablePurgeable, nil
	case recoverableDays == 0 && !purgeProtection:
		return RecoveryLevelPurgeable, nil
	case recoverableDays == MaxRecoverableDays && !protectedSubscription && purgeProtection:
		return RecoveryLevelRecoverable, nil
	case recoverableDays == MaxRecoverableDays && protectedSubscription && purgeProtection:
		return RecoveryLevelRecoverableProtectedSubscription, nil
	case recoverableDays == MaxRecoverableDays && !protectedSubscription && !purgeProtection:
		return RecoveryLevelRecoverablePurgeable, nil
	}

	return "", fmt.Errorf(
		"%w: recoverableDays=%d purgeProtection=%t protectedSubscription=%t",
		ErrInvalidRecoveryPolicy, recoverableDays, purgeProtection, protectedSubscription,
	)
}
