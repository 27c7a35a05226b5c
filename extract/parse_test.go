package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/crestline-lending/income-engine/dto"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"45,000.00", 45000},
		{"$2,000", 2000},
		{"-350", -350},
		{"(3,600.00)", -3600},
		{"4,5OO.OO", 4500}, // OCR confused zeros with the letter O
		{"l,200", 1200},    // and ones with lowercase L
	}
	for _, tc := range cases {
		v, ok := parseAmount(tc.raw)
		assert.True(t, ok, tc.raw)
		assert.Equal(t, tc.want, v, tc.raw)
	}

	_, ok := parseAmount("no digits here")
	assert.False(t, ok)
}

func TestParsePayStub(t *testing.T) {
	text := `
Acme Staffing LLC
Earnings Statement
Pay Period: 09/01/2025 - 09/15/2025
Pay Frequency: Semi-Monthly
Gross Pay: 2,500.00    45,000.00
Overtime: 120.00    2,160.00
Federal Tax: 300.00    5,400.00
Net Pay: 2,100.00
`

	f := ParsePayStub(text)

	assert.Equal(t, "Acme Staffing LLC", f.Employer)
	assert.Equal(t, 2500.00, f.GrossPay)
	assert.Equal(t, 45000.00, f.YTDGross)
	assert.True(t, f.HasYTD)
	assert.Equal(t, 2160.00, f.YTDOvertime)
	assert.Equal(t, dto.FrequencySemimonthly, f.PayFrequency)
	if assert.NotNil(t, f.PeriodEnd) {
		assert.Equal(t, 9, int(f.PeriodEnd.Month()))
		assert.Equal(t, 15, f.PeriodEnd.Day())
	}
	assert.Equal(t, 4, f.PopulatedFieldCount())
}

func TestParseW2(t *testing.T) {
	text := `
Form W-2 Wage and Tax Statement 2024
c Employer's name, address, and ZIP code
Summit Analytics Inc
1 Wages, tips, other compensation: 96,000.00
5 Medicare wages and tips: 96,000.00
`

	f := ParseW2(text)

	assert.Equal(t, "Summit Analytics Inc", f.Employer)
	assert.Equal(t, 2024, f.TaxYear)
	assert.Equal(t, 96000.00, f.WagesBox1)
	assert.Equal(t, 96000.00, f.MedicareWages)
}

func TestParseScheduleC(t *testing.T) {
	text := `
SCHEDULE C (Form 1040)
Profit or Loss From Business (Sole Proprietorship)
Tax Year 2024
Principal business: Avery Design Studio
1 Gross receipts or sales: 112,000.00
13 Depreciation and section 179 expense deduction: 6,000.00
31 Net profit or (loss): 72,000.00
`

	f := ParseScheduleC(text)

	assert.Equal(t, "Avery Design Studio", f.BusinessName)
	assert.Equal(t, 2024, f.TaxYear)
	assert.Equal(t, 112000.00, f.GrossReceipts)
	assert.Equal(t, 6000.00, f.Depreciation)
	assert.Equal(t, 72000.00, f.NetProfit)
}

func TestParseScheduleENegativeRental(t *testing.T) {
	text := `
SCHEDULE E (Form 1040)
Supplemental Income and Loss
Tax Year 2024
3 Rents received: 14,400.00
20 Total expenses: 18,000.00
26 Total rental real estate income or (loss): (3,600.00)
`

	f := ParseScheduleE(text)

	assert.Equal(t, 14400.00, f.TotalRents)
	assert.Equal(t, 18000.00, f.TotalExpenses)
	assert.Equal(t, -3600.00, f.NetRental)
}

func TestParseScheduleEComputesNetWhenMissing(t *testing.T) {
	text := `
SCHEDULE E Supplemental Income and Loss
Tax Year 2024
3 Rents received: 24,000.00
20 Total expenses: 9,000.00
`

	f := ParseScheduleE(text)
	assert.Equal(t, 15000.00, f.NetRental)
}

func TestNeedsOCR(t *testing.T) {
	// Sparse text means an image-only PDF regardless of parsed fields.
	assert.True(t, NeedsOCR("short", &dto.W2Fields{}, dto.DocTypeW2))

	text := strings.Repeat("plenty of embedded text ", 10)

	full := &dto.W2Fields{Employer: "Summit Analytics Inc", TaxYear: 2024, WagesBox1: 96000}
	assert.False(t, NeedsOCR(text, full, dto.DocTypeW2))

	sparse := &dto.W2Fields{TaxYear: 2024}
	assert.True(t, NeedsOCR(text, sparse, dto.DocTypeW2))

	assert.True(t, NeedsOCR(text, nil, dto.DocTypeW2))
	assert.False(t, NeedsOCR(text, nil, dto.DocTypeOther))
}

func TestConfidence(t *testing.T) {
	full := &dto.W2Fields{Employer: "Summit Analytics Inc", TaxYear: 2024, WagesBox1: 96000}
	assert.InDelta(t, 1.0, Confidence(full, false), 1e-9)
	assert.InDelta(t, 0.85, Confidence(full, true), 1e-9)

	end := mustDate(t, "09/15/2025")
	inconsistent := &dto.PayStubFields{
		Employer:     "Acme Staffing LLC",
		PeriodEnd:    &end,
		PayFrequency: dto.FrequencySemimonthly,
		GrossPay:     2000,
		HourlyRate:   20,
		HoursWorked:  80, // implies 1600 gross, 20% off the stated figure
	}
	assert.InDelta(t, 0.9, Confidence(inconsistent, false), 1e-9)

	assert.Zero(t, Confidence(nil, false))
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, ok := parseDate(s)
	if !ok {
		t.Fatalf("unparseable date %q", s)
	}
	return d
}
