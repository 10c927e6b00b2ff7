package pricing

import (
	"math"
	"time"

	"github.com/edunest/tutoring-api/internal/models"
)

// Installment count thresholds: totals under 40k are collected in one
// payment, under 80k in two, everything above in three.
const (
	twoInstallmentsFrom   = 40000
	threeInstallmentsFrom = 80000
)

// BuildInstallments splits a total into a fresh monthly plan. The last
// installment absorbs the division remainder so the plan always sums to the
// total. Installment i falls due exactly i calendar months after the anchor,
// clamped to the last valid day of the target month.
func BuildInstallments(total float64, anchor time.Time) []models.Installment {
	count := installmentCount(total)
	per := round(total / float64(count))

	plan := make([]models.Installment, 0, count)
	for i := 0; i < count; i++ {
		pay := per
		if i == count-1 {
			pay = total - per*float64(count-1)
		}
		plan = append(plan, models.Installment{
			Seq:         i,
			Pay:         pay,
			DueDate:     AddCalendarMonths(anchor, i),
			PaymentType: models.PaymentCash,
			IsOriginal:  true,
		})
	}
	return plan
}

// RecalculateUnpaid redistributes a new total across the unpaid part of an
// existing plan. Settled installments pass through untouched; whatever the
// payments so far have not covered is spread as evenly as possible over the
// unpaid rows, with the first `remainder` rows taking one extra unit. When
// no unpaid row exists to absorb a positive balance, a new installment is
// synthesised at the end of the plan. Due dates are then re-chained so each
// row falls exactly one calendar month after its predecessor.
func RecalculateUnpaid(installments []models.Installment, newTotal float64, today time.Time) []models.Installment {
	plan := make([]models.Installment, len(installments))
	copy(plan, installments)

	totalPaid := 0.0
	var unpaid []int
	for i, inst := range plan {
		if inst.IsSettled() {
			totalPaid += inst.Paid
		} else {
			unpaid = append(unpaid, i)
		}
	}
	remaining := math.Max(0, newTotal-totalPaid)

	if len(unpaid) == 0 {
		if remaining > 0 {
			due := AddCalendarMonths(today, 1)
			if n := len(plan); n > 0 {
				due = AddCalendarMonths(plan[n-1].DueDate, 1)
			}
			plan = append(plan, models.Installment{
				Pay:         remaining,
				DueDate:     due,
				PaymentType: models.PaymentCash,
			})
		}
	} else {
		units := int64(round(remaining))
		share := units / int64(len(unpaid))
		extra := units % int64(len(unpaid))
		for k, idx := range unpaid {
			pay := share
			if int64(k) < extra {
				pay++
			}
			plan[idx].Pay = float64(pay)
		}
	}

	// Re-chain due dates. Settled rows keep their frozen date but still
	// anchor the chain for whatever follows them.
	for i := 1; i < len(plan); i++ {
		if plan[i].IsSettled() {
			continue
		}
		plan[i].DueDate = AddCalendarMonths(plan[i-1].DueDate, 1)
	}

	for i := range plan {
		plan[i].Seq = i
	}
	return plan
}

// AddCalendarMonths steps a date forward by whole calendar months,
// preserving the day of month and clamping to the end of shorter target
// months: Jan 31 + 1 month is Feb 28 (29 in leap years), Mar 31 + 1 month
// is Apr 30.
func AddCalendarMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func installmentCount(total float64) int {
	switch {
	case total >= threeInstallmentsFrom:
		return 3
	case total >= twoInstallmentsFrom:
		return 2
	default:
		return 1
	}
}
