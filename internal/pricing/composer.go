package pricing

import (
	"math"
	"time"

	"github.com/edunest/tutoring-api/internal/models"
)

// A month of tuition is billed as 30 teaching days regardless of calendar
// month length; per-subject fees are pro-rated against this figure.
const billableDaysPerMonth = 30

// Multi-subject discount: 10% once a student takes three or more subjects
// with active tuition windows.
const (
	multiSubjectThreshold   = 3
	multiSubjectDiscountPct = 10
)

// Toggles carries the optional pricing adjustments for one computation.
type Toggles struct {
	GSTApplied            bool
	GSTPercentage         float64
	ScholarshipApplied    bool
	ScholarshipPercentage float64
	OneToOneApplied       bool
	OneToOnePercentage    float64
}

// ComposeInput is the full, immutable input of one fee computation.
// CustomTotal <= 0 means no override is active.
type ComposeInput struct {
	Subjects    []models.SubjectAssignment
	Branch      string
	Board       string
	Grade       string
	Toggles     Toggles
	CustomTotal float64
	AnchorDate  time.Time
}

// Compose recomputes the entire fee breakdown from scratch. Every monetary
// intermediate is rounded half-away-from-zero as it is produced, so repeated
// computation over the same inputs is bit-identical. Arithmetic is total:
// malformed inputs contribute zero instead of failing.
func Compose(in ComposeInput) models.FeeBreakdown {
	monthlyRate := MonthlyRate(RateParams{
		Branch:          in.Branch,
		Board:           in.Board,
		Grade:           in.Grade,
		OneToOne:        in.Toggles.OneToOneApplied,
		OneToOnePercent: in.Toggles.OneToOnePercentage,
	})
	dailyRate := monthlyRate / billableDaysPerMonth

	breakdown := models.FeeBreakdown{BasePrice: monthlyRate}

	sum := 0.0
	datedCount := 0
	for _, subject := range in.Subjects {
		if !subject.HasDates() {
			// Stays on the student record with a zero fee; excluded from
			// the priced list until both dates are set.
			continue
		}
		fee := round(dailyRate * float64(tuitionDays(*subject.StartDate, *subject.EndDate)))
		breakdown.SubjectFees = append(breakdown.SubjectFees, models.SubjectFee{Subject: subject.Name, Fee: fee})
		sum += fee
		datedCount++
	}
	breakdown.Subtotal = round(sum)

	if datedCount >= multiSubjectThreshold {
		breakdown.SubjectDiscount = models.DiscountLine{
			Percentage: multiSubjectDiscountPct,
			Amount:     round(breakdown.Subtotal * multiSubjectDiscountPct / 100),
		}
	}
	if in.Toggles.ScholarshipApplied {
		breakdown.ScholarshipDiscount = models.DiscountLine{
			Percentage: in.Toggles.ScholarshipPercentage,
			Amount:     round(breakdown.Subtotal * in.Toggles.ScholarshipPercentage / 100),
		}
	}

	breakdown.BaseAmount = breakdown.Subtotal - breakdown.SubjectDiscount.Amount - breakdown.ScholarshipDiscount.Amount

	if in.Toggles.GSTApplied {
		breakdown.GSTAmount = round(breakdown.BaseAmount * in.Toggles.GSTPercentage / 100)
	}
	breakdown.FinalTotal = breakdown.BaseAmount + breakdown.GSTAmount

	if in.Toggles.OneToOneApplied {
		// Informational line only: the surcharge is already inside the
		// per-subject rate, so this is the share of the subtotal it
		// contributed, never an amount added again to the total.
		pct := in.Toggles.OneToOnePercentage
		breakdown.OneToOneAmount = round(breakdown.Subtotal * pct / (100 + pct))
	}

	if in.CustomTotal > 0 {
		applyCustomTotal(&breakdown, in.CustomTotal, in.Subjects)
	}

	breakdown.Installments = BuildInstallments(breakdown.FinalTotal, scheduleAnchor(in))
	return breakdown
}

// applyCustomTotal replaces the computed breakdown with an admin-entered
// total, split in equal shares across all listed subjects. Discounts and GST
// are zeroed; the override is the whole price.
func applyCustomTotal(breakdown *models.FeeBreakdown, customTotal float64, subjects []models.SubjectAssignment) {
	breakdown.SubjectFees = breakdown.SubjectFees[:0]
	if n := len(subjects); n > 0 {
		share := round(customTotal / float64(n))
		for _, subject := range subjects {
			breakdown.SubjectFees = append(breakdown.SubjectFees, models.SubjectFee{Subject: subject.Name, Fee: share})
		}
	}
	breakdown.Subtotal = customTotal
	breakdown.SubjectDiscount = models.DiscountLine{}
	breakdown.ScholarshipDiscount = models.DiscountLine{}
	breakdown.OneToOneAmount = 0
	breakdown.GSTAmount = 0
	breakdown.BaseAmount = customTotal
	breakdown.FinalTotal = customTotal
	breakdown.CustomTotalApplied = true
}

// tuitionDays counts calendar days in the window, inclusive of both
// endpoints: a window starting and ending on the same day is one day.
func tuitionDays(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(math.Floor(end.Sub(start).Hours()/24)) + 1
}

// scheduleAnchor picks the first due date: the earliest subject start date
// when one exists, otherwise the caller-supplied anchor (today).
func scheduleAnchor(in ComposeInput) time.Time {
	anchor := in.AnchorDate
	earliest := time.Time{}
	for _, subject := range in.Subjects {
		if subject.StartDate == nil {
			continue
		}
		if earliest.IsZero() || subject.StartDate.Before(earliest) {
			earliest = *subject.StartDate
		}
	}
	if !earliest.IsZero() {
		return earliest
	}
	return anchor
}

// round applies the half-away-from-zero policy used for every monetary
// intermediate. math.Round implements exactly that tie-break.
func round(v float64) float64 {
	return math.Round(v)
}
