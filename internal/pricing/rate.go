// Package pricing implements the fee computation core: monthly rate
// derivation, fee composition with discount/GST stacking, and the
// installment schedule arithmetic. Everything here is pure; persistence and
// triggers live in the service layer.
package pricing

import (
	"math"
	"strconv"
	"strings"
)

const (
	onlineBranchRate = 1500
	defaultBoardRate = 800

	// Each grade level above 1 compounds the base rate by 10%.
	gradeGrowth = 1.1
)

var boardBaseRates = map[string]float64{
	"IGCSE": 1200,
	"IB":    2500,
	"NIOS":  3000,
	"CBSE":  800,
	"SSC":   800,
}

// Grades priced flat, without the compounding multiplier. Spelling matches
// the roster values used by the admissions frontend.
var foundationGrades = map[string]struct{}{
	"Playschool": {},
	"Nurserry":   {},
	"Jr. KG":     {},
	"Sr. KG":     {},
	"1":          {},
}

// RateParams identifies the pricing tier of a student.
type RateParams struct {
	Branch          string
	Board           string
	Grade           string
	OneToOne        bool
	OneToOnePercent float64
}

// MonthlyRate derives the per-subject monthly rate for a pricing tier.
// Unknown branches and boards degrade to the default rate rather than
// failing; the one-to-one surcharge is folded into the rate itself and is
// not re-applied anywhere downstream.
func MonthlyRate(p RateParams) float64 {
	rate := baseRate(p.Branch, p.Board) * gradeMultiplier(p.Grade)
	if p.OneToOne {
		rate *= 1 + p.OneToOnePercent/100
	}
	return rate
}

func baseRate(branch, board string) float64 {
	if branch == "Online" {
		return onlineBranchRate
	}
	if rate, ok := boardBaseRates[board]; ok {
		return rate
	}
	return defaultBoardRate
}

func gradeMultiplier(grade string) float64 {
	if _, ok := foundationGrades[grade]; ok {
		return 1
	}
	level, err := strconv.Atoi(strings.TrimSpace(grade))
	if err != nil || level <= 1 {
		return 1
	}
	return math.Pow(gradeGrowth, float64(level-1))
}
