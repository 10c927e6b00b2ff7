package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edunest/tutoring-api/internal/models"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func subject(name string, start, end *time.Time) models.SubjectAssignment {
	return models.SubjectAssignment{Name: name, StartDate: start, EndDate: end}
}

func TestComposeSingleSubjectEndToEnd(t *testing.T) {
	// IGCSE grade 3: 1200 * 1.1^2 = 1452 per month, 48.4 per day, 30 days.
	breakdown := Compose(ComposeInput{
		Subjects:   []models.SubjectAssignment{subject("Math", day(2024, time.January, 1), day(2024, time.January, 30))},
		Branch:     "Goregoan West",
		Board:      "IGCSE",
		Grade:      "3",
		AnchorDate: time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
	})

	require.Len(t, breakdown.SubjectFees, 1)
	assert.Equal(t, 1452.0, breakdown.SubjectFees[0].Fee)
	assert.Equal(t, 1452.0, breakdown.Subtotal)
	assert.Equal(t, 0.0, breakdown.SubjectDiscount.Amount)
	assert.Equal(t, 1452.0, breakdown.BaseAmount)
	assert.Equal(t, 0.0, breakdown.GSTAmount)
	assert.Equal(t, 1452.0, breakdown.FinalTotal)

	require.Len(t, breakdown.Installments, 1)
	assert.Equal(t, 1452.0, breakdown.Installments[0].Pay)
	// The earliest subject start date anchors the plan.
	assert.Equal(t, *day(2024, time.January, 1), breakdown.Installments[0].DueDate)
}

func TestComposeDayCountIsInclusive(t *testing.T) {
	breakdown := Compose(ComposeInput{
		Subjects: []models.SubjectAssignment{subject("Science", day(2024, time.March, 10), day(2024, time.March, 10))},
		Branch:   "Andheri",
		Board:    "CBSE",
		Grade:    "1",
	})

	// One-day window at 800/month: 800/30 rounded.
	require.Len(t, breakdown.SubjectFees, 1)
	assert.Equal(t, 27.0, breakdown.SubjectFees[0].Fee)
}

func TestComposeSkipsSubjectsWithoutDates(t *testing.T) {
	breakdown := Compose(ComposeInput{
		Subjects: []models.SubjectAssignment{
			subject("Math", day(2024, time.January, 1), day(2024, time.January, 30)),
			subject("Physics", day(2024, time.January, 1), nil),
			subject("Chemistry", nil, nil),
		},
		Branch: "Andheri",
		Board:  "IGCSE",
		Grade:  "1",
	})

	require.Len(t, breakdown.SubjectFees, 1)
	assert.Equal(t, "Math", breakdown.SubjectFees[0].Subject)
	// Two undated subjects do not count toward the multi-subject discount.
	assert.Equal(t, 0.0, breakdown.SubjectDiscount.Amount)
}

func TestComposeMultiSubjectDiscount(t *testing.T) {
	window := func(name string) models.SubjectAssignment {
		return subject(name, day(2024, time.January, 1), day(2024, time.January, 30))
	}
	breakdown := Compose(ComposeInput{
		Subjects: []models.SubjectAssignment{window("Math"), window("Physics"), window("Chemistry")},
		Branch:   "Andheri",
		Board:    "IGCSE",
		Grade:    "1",
	})

	assert.Equal(t, 3600.0, breakdown.Subtotal)
	assert.Equal(t, 10.0, breakdown.SubjectDiscount.Percentage)
	assert.Equal(t, 360.0, breakdown.SubjectDiscount.Amount)
	assert.Equal(t, 3240.0, breakdown.BaseAmount)
}

func TestComposeDiscountOrderingInvariant(t *testing.T) {
	window := func(name string) models.SubjectAssignment {
		return subject(name, day(2024, time.June, 1), day(2024, time.June, 30))
	}
	for _, gst := range []bool{false, true} {
		for _, scholarship := range []bool{false, true} {
			breakdown := Compose(ComposeInput{
				Subjects: []models.SubjectAssignment{window("Math"), window("Physics"), window("Chemistry")},
				Branch:   "Andheri",
				Board:    "IB",
				Grade:    "4",
				Toggles: Toggles{
					GSTApplied:            gst,
					GSTPercentage:         18,
					ScholarshipApplied:    scholarship,
					ScholarshipPercentage: 15,
				},
			})

			expectedBase := breakdown.Subtotal - breakdown.SubjectDiscount.Amount - breakdown.ScholarshipDiscount.Amount
			assert.Equal(t, expectedBase, breakdown.BaseAmount, "gst=%v scholarship=%v", gst, scholarship)
			assert.Equal(t, breakdown.BaseAmount+breakdown.GSTAmount, breakdown.FinalTotal, "gst=%v scholarship=%v", gst, scholarship)
			if !gst {
				assert.Equal(t, 0.0, breakdown.GSTAmount)
			}
			if !scholarship {
				assert.Equal(t, 0.0, breakdown.ScholarshipDiscount.Amount)
			}
		}
	}
}

func TestComposeCustomTotalReplacesBreakdown(t *testing.T) {
	breakdown := Compose(ComposeInput{
		Subjects: []models.SubjectAssignment{
			subject("A", day(2024, time.January, 1), day(2024, time.January, 10)),
			subject("B", day(2024, time.January, 1), day(2024, time.January, 20)),
			subject("C", day(2024, time.January, 1), day(2024, time.January, 30)),
		},
		Branch:      "Andheri",
		Board:       "IB",
		Grade:       "5",
		Toggles:     Toggles{GSTApplied: true, GSTPercentage: 18, ScholarshipApplied: true, ScholarshipPercentage: 10},
		CustomTotal: 600,
	})

	require.Len(t, breakdown.SubjectFees, 3)
	for _, fee := range breakdown.SubjectFees {
		assert.Equal(t, 200.0, fee.Fee)
	}
	assert.Equal(t, 600.0, breakdown.Subtotal)
	assert.Equal(t, 0.0, breakdown.SubjectDiscount.Amount)
	assert.Equal(t, 0.0, breakdown.ScholarshipDiscount.Amount)
	assert.Equal(t, 0.0, breakdown.GSTAmount)
	assert.Equal(t, 600.0, breakdown.BaseAmount)
	assert.Equal(t, 600.0, breakdown.FinalTotal)
	assert.True(t, breakdown.CustomTotalApplied)
}

func TestComposeOneToOneStaysRateLevel(t *testing.T) {
	input := ComposeInput{
		Subjects: []models.SubjectAssignment{subject("Math", day(2024, time.January, 1), day(2024, time.January, 30))},
		Branch:   "Andheri",
		Board:    "IGCSE",
		Grade:    "1",
	}
	plain := Compose(input)

	input.Toggles = Toggles{OneToOneApplied: true, OneToOnePercentage: 25}
	solo := Compose(input)

	// The surcharge lives in the per-subject rate; the informational line is
	// never added on top of the total a second time.
	assert.Equal(t, 1200.0, plain.FinalTotal)
	assert.Equal(t, 1500.0, solo.FinalTotal)
	assert.Equal(t, 300.0, solo.OneToOneAmount)
	assert.Equal(t, solo.BaseAmount+solo.GSTAmount, solo.FinalTotal)
}

func TestComposeAnchorFallsBackToToday(t *testing.T) {
	today := time.Date(2024, time.May, 7, 0, 0, 0, 0, time.UTC)
	breakdown := Compose(ComposeInput{
		Subjects:    []models.SubjectAssignment{subject("Math", nil, nil)},
		Branch:      "Andheri",
		Board:       "CBSE",
		Grade:       "2",
		CustomTotal: 500,
		AnchorDate:  today,
	})

	require.Len(t, breakdown.Installments, 1)
	assert.Equal(t, today, breakdown.Installments[0].DueDate)
}
