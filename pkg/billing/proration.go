package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// billingPeriodDays is the fixed period length used for proration. Every paid
// month is treated as 30 days regardless of calendar length.
const billingPeriodDays = 30

// Proration is the breakdown of an upgrade credit computation.
type Proration struct {
	ConsumedDays    int64           `json:"consumed_days"`
	AmountPerDay    decimal.Decimal `json:"amount_per_day"`
	ConsumedAmount  decimal.Decimal `json:"consumed_amount"`
	RemainingCredit decimal.Decimal `json:"remaining_credit"`
}

// ProrateUpgrade computes the credit for the unused part of the current paid
// period. Any partial day counts as a fully consumed day, so the credit can go
// negative once the period is overdue (consumed days beyond 30); that surplus
// is charged on top of the new plan price rather than clamped.
func ProrateUpgrade(lastOrderAmount decimal.Decimal, activationStart, now time.Time) Proration {
	days := consumedDays(activationStart, now)
	perDay := lastOrderAmount.Div(decimal.NewFromInt(billingPeriodDays))
	consumed := perDay.Mul(decimal.NewFromInt(days))

	return Proration{
		ConsumedDays:    days,
		AmountPerDay:    perDay,
		ConsumedAmount:  consumed,
		RemainingCredit: lastOrderAmount.Sub(consumed),
	}
}

// NewAmount prices the successor subscription's opening order: the new plan's
// price net of the remaining credit, rounded to two decimal places.
func (p Proration) NewAmount(newPlanPrice decimal.Decimal) decimal.Decimal {
	return newPlanPrice.Sub(p.RemainingCredit).Round(2)
}

// consumedDays rounds the elapsed time up to whole days.
func consumedDays(start, now time.Time) int64 {
	elapsed := now.Sub(start)
	if elapsed <= 0 {
		return 0
	}
	days := int64(elapsed / (24 * time.Hour))
	if elapsed%(24*time.Hour) != 0 {
		days++
	}
	return days
}
