// Package calc implements the income computation core: component building,
// trend analysis, agency-rule aggregation, and confidence scoring. Everything
// here is pure and deterministic; identical inputs always produce identical
// totals, warnings, and confidence.
package calc

import (
	"github.com/crestline-lending/income-engine/dto"
)

// Aggregation is the result of applying one agency's rules to a component set.
type Aggregation struct {
	MonthlyIncome float64
	Warnings      []string
	// Components carries the adjusted copies: exclusions flagged, declining
	// trends resolved to the most recent year, rental factors applied.
	Components []dto.IncomeComponent
}

// Aggregate sums qualifying monthly amounts under an agency rule set. The
// input components are not mutated; policy adjustments land on the returned
// copies and are explained by warnings.
func Aggregate(components []dto.IncomeComponent, rules AgencyRules, priorWarnings []string) Aggregation {
	agg := Aggregation{
		Components: make([]dto.IncomeComponent, len(components)),
		Warnings:   append([]string{}, priorWarnings...),
	}
	copy(agg.Components, components)

	for i := range agg.Components {
		c := &agg.Components[i]

		if c.Type == dto.ComponentOther {
			c.Excluded = true
			c.ExclusionReason = "unclassified income is non-qualifying"
			continue
		}
		if !rules.Included[c.Type] {
			c.Excluded = true
			c.ExclusionReason = "not counted under " + rules.DisplayName + " rules"
			agg.Warnings = append(agg.Warnings, warnExcludedByAgency(string(c.Type), rules.DisplayName))
			continue
		}

		// Commission history requirement: a component without a two-year
		// record cannot qualify where the agency demands one.
		if c.Type == dto.ComponentCommission && rules.CommissionMinYears >= 2 &&
			(c.Year1Amount == nil || c.Year2Amount == nil) {
			c.Excluded = true
			c.ExclusionReason = "insufficient commission history"
			agg.Warnings = append(agg.Warnings, warnCommissionHistory(rules.DisplayName, rules.CommissionMinYears))
			continue
		}

		// Declining-trend policy for variable income.
		if variableType(c.Type) && c.TrendDirection != nil && *c.TrendDirection == dto.TrendDown && c.TrendPercent != nil {
			pct := *c.TrendPercent
			switch {
			case pct > rules.DeclineExcludePct:
				c.Excluded = true
				c.ExclusionReason = "declining trend beyond agency limit"
				agg.Warnings = append(agg.Warnings, warnDecliningExcluded(string(c.Type), pct, rules.DeclineExcludePct))
				continue
			case pct > rules.DeclineUseRecentPct && c.RecentYearMonthly != nil:
				c.MonthlyAmount = *c.RecentYearMonthly
				c.CalculationMethod = "most recent year only (declining trend)"
				agg.Warnings = append(agg.Warnings, warnDecliningTrend(string(c.Type), pct, rules.DeclineUseRecentPct))
			}
		}

		// Rental: discount positive income by the agency factor; keep losses
		// in full so they reduce the total.
		if c.Type == dto.ComponentRentalIncome || c.Type == dto.ComponentScheduleE {
			if c.MonthlyAmount > 0 && rules.RentalFactor < 1 {
				c.MonthlyAmount *= rules.RentalFactor
				c.CalculationMethod += " x agency rental factor"
			}
			if c.MonthlyAmount < 0 {
				agg.Warnings = append(agg.Warnings, warnNegativeRental(c.MonthlyAmount))
			}
		}

		// OCR-derived data under the agency floor still counts, but never
		// silently.
		if c.OCRDerived && c.SourceConfidence < rules.OCRConfidenceFloor {
			agg.Warnings = append(agg.Warnings, warnOCRBelowFloor(string(c.Type), c.SourceConfidence, rules.OCRConfidenceFloor))
		}

		agg.MonthlyIncome += c.MonthlyAmount
	}

	included := 0
	for i := range agg.Components {
		if !agg.Components[i].Excluded {
			included++
		}
	}
	if included == 0 {
		agg.MonthlyIncome = 0
		agg.Warnings = append(agg.Warnings, WarnNoQualifyingIncome)
	}

	return agg
}
