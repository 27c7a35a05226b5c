package calc

import (
	"math"

	"github.com/crestline-lending/income-engine/dto"
)

// trendTolerance is the relative change below which two years are "flat".
const trendTolerance = 0.01

// AnalyzeTrend compares two years of a variable-income component. Percentage
// is nil when year1 is zero (division guard); direction is still computed
// from the sign of the change.
func AnalyzeTrend(year1, year2 float64) (dto.TrendDirection, *float64) {
	if year1 == 0 {
		switch {
		case year2 > 0:
			return dto.TrendUp, nil
		case year2 < 0:
			return dto.TrendDown, nil
		}
		return dto.TrendFlat, nil
	}

	pct := math.Abs(year2-year1) / math.Abs(year1) * 100
	direction := dto.TrendFlat
	if pct > trendTolerance*100 {
		if year2 > year1 {
			direction = dto.TrendUp
		} else {
			direction = dto.TrendDown
		}
	}
	return direction, &pct
}

// ApplyTrends runs trend analysis over every variable-income component that
// has both years populated, writing direction and percentage in place.
func ApplyTrends(components []dto.IncomeComponent) {
	for i := range components {
		c := &components[i]
		if !variableType(c.Type) || c.Year1Amount == nil || c.Year2Amount == nil {
			continue
		}
		dir, pct := AnalyzeTrend(*c.Year1Amount, *c.Year2Amount)
		c.TrendDirection = &dir
		c.TrendPercent = pct
	}
}

// variableType reports whether a component type is variable income subject to
// trend analysis.
func variableType(t dto.ComponentType) bool {
	switch t {
	case dto.ComponentOvertime, dto.ComponentBonus, dto.ComponentCommission,
		dto.ComponentSelfEmployment, dto.ComponentScheduleC, dto.ComponentK1Income,
		dto.ComponentVariableIncomeYTD:
		return true
	}
	return false
}
