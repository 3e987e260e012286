package domain

import (
	"github.com/shopspring/decimal"
)

// BillingModel represents the pricing tier derived from a charge amount.
// Downstream billing dispatch picks retry/pricing policy from this; the
// reconciliation core uses it to flag chargebacks whose amount falls into a
// different tier than the original charge.
type BillingModel string

const (
	BillingModelLegacy   BillingModel = "legacy"
	BillingModelFlywheel BillingModel = "flywheel"
	BillingModelRecovery BillingModel = "recovery"
)

// Tier boundaries, inclusive on both ends.
var (
	flywheelMin = decimal.RequireFromString("1.99")
	flywheelMax = decimal.RequireFromString("4.95")
	recoveryMin = decimal.RequireFromString("29.99")
	recoveryMax = decimal.RequireFromString("99.99")
)

// ClassifyAmount maps a charge amount to its billing model.
// A nil (absent) amount classifies as legacy.
func ClassifyAmount(amount *decimal.Decimal) BillingModel {
	if amount == nil {
		return BillingModelLegacy
	}
	switch {
	case amount.GreaterThanOrEqual(flywheelMin) && amount.LessThanOrEqual(flywheelMax):
		return BillingModelFlywheel
	case amount.GreaterThanOrEqual(recoveryMin) && amount.LessThanOrEqual(recoveryMax):
		return BillingModelRecovery
	default:
		return BillingModelLegacy
	}
}
