package calc

import (
	"github.com/crestline-lending/income-engine/dto"
)

// AgencyRules is one agency's table-driven qualification policy. New agency
// rule sets are added as data here, not as code in the aggregator.
//
// Numeric thresholds follow published underwriting conventions (e.g. a >20%
// decline in variable income restricts qualification to the most recent year);
// they are policy data, reviewed against current guides, not derived values.
type AgencyRules struct {
	Agency      dto.Agency
	DisplayName string

	// Included lists the component types this rule set counts toward
	// qualifying income. Anything absent is excluded with a warning.
	Included map[dto.ComponentType]bool

	// DeclineUseRecentPct: a declining trend beyond this percentage restricts
	// the component to the most recent year instead of a two-year average.
	DeclineUseRecentPct float64
	// DeclineExcludePct: a decline beyond this percentage excludes the
	// component entirely.
	DeclineExcludePct float64

	// RentalFactor discounts positive rental income (vacancy/expense factor).
	// Negative rental is never discounted; losses count in full.
	RentalFactor float64

	// CommissionMinYears of history required before commission income counts.
	CommissionMinYears int

	// OCRConfidenceFloor below which an OCR-derived component draws a warning.
	OCRConfidenceFloor float64
}

func allBut(excluded ...dto.ComponentType) map[dto.ComponentType]bool {
	all := []dto.ComponentType{
		dto.ComponentBaseSalary, dto.ComponentBaseHourly, dto.ComponentW2Income,
		dto.ComponentVOEVerified, dto.ComponentOvertime, dto.ComponentBonus,
		dto.ComponentCommission, dto.ComponentVariableIncomeYTD,
		dto.ComponentSelfEmployment, dto.ComponentScheduleC,
		dto.ComponentRentalIncome, dto.ComponentScheduleE, dto.ComponentK1Income,
	}
	m := make(map[dto.ComponentType]bool, len(all))
	for _, t := range all {
		m[t] = true
	}
	for _, t := range excluded {
		delete(m, t)
	}
	return m
}

var agencyTable = map[dto.Agency]AgencyRules{
	dto.AgencyFannieMae: {
		Agency:              dto.AgencyFannieMae,
		DisplayName:         "Fannie Mae",
		Included:            allBut(),
		DeclineUseRecentPct: 20,
		DeclineExcludePct:   50,
		RentalFactor:        1.0,
		CommissionMinYears:  1,
		OCRConfidenceFloor:  0.6,
	},
	dto.AgencyFreddieMac: {
		Agency:              dto.AgencyFreddieMac,
		DisplayName:         "Freddie Mac",
		Included:            allBut(),
		DeclineUseRecentPct: 20,
		DeclineExcludePct:   50,
		RentalFactor:        1.0,
		CommissionMinYears:  1,
		OCRConfidenceFloor:  0.6,
	},
	dto.AgencyFHA: {
		Agency:              dto.AgencyFHA,
		DisplayName:         "FHA",
		Included:            allBut(),
		DeclineUseRecentPct: 20,
		DeclineExcludePct:   40,
		RentalFactor:        0.85,
		CommissionMinYears:  1,
		OCRConfidenceFloor:  0.65,
	},
	dto.AgencyVA: {
		Agency:              dto.AgencyVA,
		DisplayName:         "VA",
		Included:            allBut(),
		DeclineUseRecentPct: 20,
		DeclineExcludePct:   50,
		RentalFactor:        0.75,
		CommissionMinYears:  2,
		OCRConfidenceFloor:  0.65,
	},
	dto.AgencyUSDA: {
		Agency:              dto.AgencyUSDA,
		DisplayName:         "USDA",
		Included:            allBut(dto.ComponentVariableIncomeYTD),
		DeclineUseRecentPct: 20,
		DeclineExcludePct:   40,
		RentalFactor:        0.75,
		CommissionMinYears:  2,
		OCRConfidenceFloor:  0.65,
	},
}

// RulesFor returns the rule table for an agency.
func RulesFor(agency dto.Agency) (AgencyRules, error) {
	rules, ok := agencyTable[agency]
	if !ok {
		return AgencyRules{}, dto.ErrUnknownAgency
	}
	return rules, nil
}
