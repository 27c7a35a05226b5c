package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestline-lending/income-engine/dto"
)

func mustRules(t *testing.T, agency dto.Agency) AgencyRules {
	t.Helper()
	rules, err := RulesFor(agency)
	require.NoError(t, err)
	return rules
}

func TestRulesForUnknownAgency(t *testing.T) {
	_, err := RulesFor("hud")
	assert.ErrorIs(t, err, dto.ErrUnknownAgency)
}

func TestAggregateIsDeterministic(t *testing.T) {
	components := []dto.IncomeComponent{
		{Type: dto.ComponentBaseSalary, MonthlyAmount: 5000, SourceConfidence: 0.9},
		{Type: dto.ComponentRentalIncome, MonthlyAmount: 1000, SourceConfidence: 0.8},
	}
	rules := mustRules(t, dto.AgencyFannieMae)

	first := Aggregate(components, rules, nil)
	second := Aggregate(components, rules, nil)

	assert.Equal(t, first.MonthlyIncome, second.MonthlyIncome)
	assert.Equal(t, first.Warnings, second.Warnings)
	// Input components stay untouched across runs.
	assert.False(t, components[0].Excluded)
	assert.InDelta(t, 6000.0, first.MonthlyIncome, 1e-9)
}

func TestAggregateRentalFactorByAgency(t *testing.T) {
	components := []dto.IncomeComponent{
		{Type: dto.ComponentRentalIncome, MonthlyAmount: 1000, SourceConfidence: 0.9},
	}

	cases := []struct {
		agency dto.Agency
		want   float64
	}{
		{dto.AgencyFannieMae, 1000},
		{dto.AgencyFreddieMac, 1000},
		{dto.AgencyFHA, 850},
		{dto.AgencyVA, 750},
		{dto.AgencyUSDA, 750},
	}
	for _, tc := range cases {
		agg := Aggregate(components, mustRules(t, tc.agency), nil)
		assert.InDelta(t, tc.want, agg.MonthlyIncome, 1e-9, string(tc.agency))
	}
}

func TestAggregateNegativeRentalCountsInFull(t *testing.T) {
	components := []dto.IncomeComponent{
		{Type: dto.ComponentBaseSalary, MonthlyAmount: 5000, SourceConfidence: 0.9},
		{Type: dto.ComponentRentalIncome, MonthlyAmount: -300, SourceConfidence: 0.9},
	}

	// The vacancy factor never shrinks a loss.
	agg := Aggregate(components, mustRules(t, dto.AgencyVA), nil)

	assert.InDelta(t, 4700.0, agg.MonthlyIncome, 1e-9)
	require.NotEmpty(t, agg.Warnings)
	assert.Contains(t, agg.Warnings[0], "negative rental income reducing total")
}

func TestAggregateDecliningTrendUsesRecentYear(t *testing.T) {
	down := dto.TrendDown
	components := []dto.IncomeComponent{
		{
			Type:              dto.ComponentCommission,
			MonthlyAmount:     1250,
			Year1Amount:       fptr(18000),
			Year2Amount:       fptr(12000),
			RecentYearMonthly: fptr(1000),
			TrendDirection:    &down,
			TrendPercent:      fptr(33.3),
			SourceConfidence:  0.9,
		},
	}

	agg := Aggregate(components, mustRules(t, dto.AgencyFannieMae), nil)

	assert.InDelta(t, 1000.0, agg.MonthlyIncome, 1e-9)
	assert.Equal(t, "most recent year only (declining trend)", agg.Components[0].CalculationMethod)
	require.NotEmpty(t, agg.Warnings)
	assert.Contains(t, agg.Warnings[0], "declining trend")
}

func TestAggregateSteepDeclineExcludes(t *testing.T) {
	down := dto.TrendDown
	components := []dto.IncomeComponent{
		{
			Type:              dto.ComponentBonus,
			MonthlyAmount:     800,
			Year1Amount:       fptr(24000),
			Year2Amount:       fptr(9600),
			RecentYearMonthly: fptr(800),
			TrendDirection:    &down,
			TrendPercent:      fptr(60),
			SourceConfidence:  0.9,
		},
	}

	agg := Aggregate(components, mustRules(t, dto.AgencyFannieMae), nil)

	assert.Zero(t, agg.MonthlyIncome)
	assert.True(t, agg.Components[0].Excluded)
	assert.Contains(t, agg.Warnings, WarnNoQualifyingIncome)
}

func TestAggregateCommissionHistoryRequirement(t *testing.T) {
	components := []dto.IncomeComponent{
		{Type: dto.ComponentBaseSalary, MonthlyAmount: 5000, SourceConfidence: 0.9},
		{Type: dto.ComponentCommission, MonthlyAmount: 900, Year1Amount: fptr(10800), SourceConfidence: 0.9},
	}

	// VA wants two years of commission history; Fannie Mae takes one.
	va := Aggregate(components, mustRules(t, dto.AgencyVA), nil)
	assert.InDelta(t, 5000.0, va.MonthlyIncome, 1e-9)
	assert.True(t, va.Components[1].Excluded)

	fnma := Aggregate(components, mustRules(t, dto.AgencyFannieMae), nil)
	assert.InDelta(t, 5900.0, fnma.MonthlyIncome, 1e-9)
}

func TestAggregateUSDAExcludesUncorroboratedYTD(t *testing.T) {
	components := []dto.IncomeComponent{
		{Type: dto.ComponentBaseSalary, MonthlyAmount: 5000, SourceConfidence: 0.9},
		{Type: dto.ComponentVariableIncomeYTD, MonthlyAmount: 400, SourceConfidence: 0.9},
	}

	agg := Aggregate(components, mustRules(t, dto.AgencyUSDA), nil)

	assert.InDelta(t, 5000.0, agg.MonthlyIncome, 1e-9)
	assert.True(t, agg.Components[1].Excluded)
}

func TestAggregateOCRBelowFloorWarnsButCounts(t *testing.T) {
	components := []dto.IncomeComponent{
		{Type: dto.ComponentBaseSalary, MonthlyAmount: 5000, SourceConfidence: 0.5, OCRDerived: true},
	}

	agg := Aggregate(components, mustRules(t, dto.AgencyFannieMae), nil)

	assert.InDelta(t, 5000.0, agg.MonthlyIncome, 1e-9)
	require.NotEmpty(t, agg.Warnings)
	assert.Contains(t, agg.Warnings[0], "below the OCR confidence floor")
}

func TestAggregateNoComponents(t *testing.T) {
	agg := Aggregate(nil, mustRules(t, dto.AgencyFannieMae), nil)

	assert.Zero(t, agg.MonthlyIncome)
	assert.Contains(t, agg.Warnings, WarnNoQualifyingIncome)
}

func TestAggregateCarriesPriorWarnings(t *testing.T) {
	prior := []string{"document \"letter.pdf\" could not be classified; excluded from qualifying income until reclassified"}
	components := []dto.IncomeComponent{
		{Type: dto.ComponentBaseSalary, MonthlyAmount: 5000, SourceConfidence: 0.9},
	}

	agg := Aggregate(components, mustRules(t, dto.AgencyFannieMae), prior)

	assert.Equal(t, prior[0], agg.Warnings[0])
}
