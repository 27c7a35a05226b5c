package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/crestline-lending/income-engine/dto"
)

func fptr(v float64) *float64 { return &v }

func sampleCalculation() *dto.IncomeCalculation {
	up := dto.TrendUp
	pct := 20.0
	calculation := &dto.IncomeCalculation{
		ID:         uuid.New(),
		BorrowerID: "b-100",
		Agency:     dto.AgencyFannieMae,
		// Deliberately not the sum of the components below: the renderer must
		// print the stored figure, never a recomputed one.
		MonthlyIncome: 10750,
		Confidence:    0.82,
		CreatedAt:     time.Date(2026, time.August, 28, 10, 0, 0, 0, time.UTC),
		Components: []dto.IncomeComponent{
			{
				Type:              dto.ComponentBaseSalary,
				CalculationMethod: "YTD annualized",
				MonthlyAmount:     5000,
				SourceConfidence:  0.95,
			},
			{
				Type:              dto.ComponentSelfEmployment,
				CalculationMethod: "24-month average",
				Year1Amount:       fptr(60000),
				Year2Amount:       fptr(72000),
				MonthlyAmount:     6000,
				TrendDirection:    &up,
				TrendPercent:      &pct,
				SourceConfidence:  0.9,
			},
			{
				Type:            dto.ComponentCommission,
				MonthlyAmount:   900,
				Excluded:        true,
				ExclusionReason: "insufficient commission history",
			},
		},
	}
	calculation.SetWarnings([]string{
		"self-employment income from Schedule C is based on a single year only; insufficient history",
	})
	return calculation
}

func TestRenderWorksheet(t *testing.T) {
	docs := []dto.IncomeDocument{
		{FileName: "paystub-sep.pdf", FinalType: dto.DocTypePayStub, OCRStatus: dto.OCRStatusSuccess, Confidence: 0.95},
	}

	out := RenderWorksheet(sampleCalculation(), docs, "m.ortiz")

	assert.Contains(t, out, "Fannie Mae")
	assert.Contains(t, out, "Borrower: b-100")
	assert.Contains(t, out, "Prepared by m.ortiz on August 28, 2026")
	assert.Contains(t, out, "$5000.00")
	assert.Contains(t, out, "up 20.0%")
	// Stored total, printed verbatim.
	assert.Contains(t, out, "TOTAL QUALIFYING MONTHLY INCOME\t$10750.00")
	assert.Contains(t, out, "Confidence: 82% (high)")
	assert.Contains(t, out, "EXCLUDED COMPONENTS")
	assert.Contains(t, out, "insufficient commission history")
	assert.Contains(t, out, "single year only")
	assert.Contains(t, out, "paystub-sep.pdf")
}

func TestRenderWorksheetNegativeAmounts(t *testing.T) {
	calculation := &dto.IncomeCalculation{
		BorrowerID:    "b-200",
		Agency:        dto.AgencyVA,
		MonthlyIncome: -300,
		CreatedAt:     time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC),
		Components: []dto.IncomeComponent{
			{Type: dto.ComponentRentalIncome, CalculationMethod: "Schedule E net rental / 12", MonthlyAmount: -300},
		},
	}

	out := RenderWorksheet(calculation, nil, "m.ortiz")

	assert.Contains(t, out, "-$300.00")
	assert.Contains(t, out, "VA")
}
