package dto

import (
	"encoding/json"
	"fmt"
	"time"
)

// FieldSet is the tagged union of extracted fields, one variant per document
// type. Each variant knows its own required-field count so extraction
// confidence is a property of the type, not of runtime key lookups.
type FieldSet interface {
	DocType() DocumentType
	RequiredFieldCount() int
	PopulatedFieldCount() int
	Period() (start, end *time.Time)
	Amount() float64
	YearToDate() bool
}

// PayStubFields holds fields parsed from an earnings statement.
type PayStubFields struct {
	Employer      string       `json:"employer"`
	PeriodStart   *time.Time   `json:"period_start,omitempty"`
	PeriodEnd     *time.Time   `json:"period_end,omitempty"`
	PayFrequency  PayFrequency `json:"pay_frequency,omitempty"`
	GrossPay      float64      `json:"gross_pay"`
	YTDGross      float64      `json:"ytd_gross"`
	YTDOvertime   float64      `json:"ytd_overtime,omitempty"`
	YTDBonus      float64      `json:"ytd_bonus,omitempty"`
	YTDCommission float64      `json:"ytd_commission,omitempty"`
	HourlyRate    float64      `json:"hourly_rate,omitempty"`
	HoursWorked   float64      `json:"hours_worked,omitempty"`
	HasYTD        bool         `json:"has_ytd"`
}

func (f *PayStubFields) DocType() DocumentType   { return DocTypePayStub }
func (f *PayStubFields) RequiredFieldCount() int { return 4 }
func (f *PayStubFields) PopulatedFieldCount() int {
	n := 0
	if f.Employer != "" {
		n++
	}
	if f.GrossPay > 0 || f.YTDGross > 0 {
		n++
	}
	if f.PeriodEnd != nil {
		n++
	}
	if f.PayFrequency != "" {
		n++
	}
	return n
}
func (f *PayStubFields) Period() (*time.Time, *time.Time) { return f.PeriodStart, f.PeriodEnd }
func (f *PayStubFields) Amount() float64 {
	if f.HasYTD && f.YTDGross > 0 {
		return f.YTDGross
	}
	return f.GrossPay
}
func (f *PayStubFields) YearToDate() bool { return f.HasYTD }

// W2Fields holds box values from a W-2 Wage and Tax Statement.
type W2Fields struct {
	Employer      string  `json:"employer"`
	TaxYear       int     `json:"tax_year"`
	WagesBox1     float64 `json:"wages_box1"`
	MedicareWages float64 `json:"medicare_wages,omitempty"`
}

func (f *W2Fields) DocType() DocumentType   { return DocTypeW2 }
func (f *W2Fields) RequiredFieldCount() int { return 3 }
func (f *W2Fields) PopulatedFieldCount() int {
	n := 0
	if f.Employer != "" {
		n++
	}
	if f.TaxYear > 0 {
		n++
	}
	if f.WagesBox1 > 0 {
		n++
	}
	return n
}
func (f *W2Fields) Period() (*time.Time, *time.Time) { return taxYearPeriod(f.TaxYear) }
func (f *W2Fields) Amount() float64                  { return f.WagesBox1 }
func (f *W2Fields) YearToDate() bool                 { return false }

// Form1099Fields holds amounts from a 1099-NEC/MISC.
type Form1099Fields struct {
	Payer           string  `json:"payer"`
	TaxYear         int     `json:"tax_year"`
	NonemployeeComp float64 `json:"nonemployee_comp"`
}

func (f *Form1099Fields) DocType() DocumentType   { return DocType1099 }
func (f *Form1099Fields) RequiredFieldCount() int { return 3 }
func (f *Form1099Fields) PopulatedFieldCount() int {
	n := 0
	if f.Payer != "" {
		n++
	}
	if f.TaxYear > 0 {
		n++
	}
	if f.NonemployeeComp != 0 {
		n++
	}
	return n
}
func (f *Form1099Fields) Period() (*time.Time, *time.Time) { return taxYearPeriod(f.TaxYear) }
func (f *Form1099Fields) Amount() float64                  { return f.NonemployeeComp }
func (f *Form1099Fields) YearToDate() bool                 { return false }

// Form1040Fields holds headline lines from an individual return.
type Form1040Fields struct {
	TaxYear     int     `json:"tax_year"`
	Wages       float64 `json:"wages,omitempty"`
	TotalIncome float64 `json:"total_income"`
	AGI         float64 `json:"agi,omitempty"`
}

func (f *Form1040Fields) DocType() DocumentType   { return DocType1040 }
func (f *Form1040Fields) RequiredFieldCount() int { return 2 }
func (f *Form1040Fields) PopulatedFieldCount() int {
	n := 0
	if f.TaxYear > 0 {
		n++
	}
	if f.TotalIncome != 0 || f.Wages != 0 {
		n++
	}
	return n
}
func (f *Form1040Fields) Period() (*time.Time, *time.Time) { return taxYearPeriod(f.TaxYear) }
func (f *Form1040Fields) Amount() float64                  { return f.TotalIncome }
func (f *Form1040Fields) YearToDate() bool                 { return false }

// ScheduleCFields holds profit-or-loss lines for a sole proprietorship.
type ScheduleCFields struct {
	BusinessName  string  `json:"business_name"`
	TaxYear       int     `json:"tax_year"`
	GrossReceipts float64 `json:"gross_receipts,omitempty"`
	NetProfit     float64 `json:"net_profit"`
	Depreciation  float64 `json:"depreciation,omitempty"`
	Depletion     float64 `json:"depletion,omitempty"`
}

func (f *ScheduleCFields) DocType() DocumentType   { return DocTypeScheduleC }
func (f *ScheduleCFields) RequiredFieldCount() int { return 3 }
func (f *ScheduleCFields) PopulatedFieldCount() int {
	n := 0
	if f.BusinessName != "" {
		n++
	}
	if f.TaxYear > 0 {
		n++
	}
	if f.NetProfit != 0 {
		n++
	}
	return n
}
func (f *ScheduleCFields) Period() (*time.Time, *time.Time) { return taxYearPeriod(f.TaxYear) }
func (f *ScheduleCFields) Amount() float64                  { return f.NetProfit }
func (f *ScheduleCFields) YearToDate() bool                 { return false }

// ScheduleEFields holds supplemental income (rental) lines.
type ScheduleEFields struct {
	TaxYear       int     `json:"tax_year"`
	TotalRents    float64 `json:"total_rents,omitempty"`
	TotalExpenses float64 `json:"total_expenses,omitempty"`
	Depreciation  float64 `json:"depreciation,omitempty"`
	NetRental     float64 `json:"net_rental"`
}

func (f *ScheduleEFields) DocType() DocumentType   { return DocTypeScheduleE }
func (f *ScheduleEFields) RequiredFieldCount() int { return 2 }
func (f *ScheduleEFields) PopulatedFieldCount() int {
	n := 0
	if f.TaxYear > 0 {
		n++
	}
	if f.NetRental != 0 || f.TotalRents != 0 {
		n++
	}
	return n
}
func (f *ScheduleEFields) Period() (*time.Time, *time.Time) { return taxYearPeriod(f.TaxYear) }
func (f *ScheduleEFields) Amount() float64                  { return f.NetRental }
func (f *ScheduleEFields) YearToDate() bool                 { return false }

// ScheduleFFields holds farm profit-or-loss lines.
type ScheduleFFields struct {
	TaxYear       int     `json:"tax_year"`
	NetFarmProfit float64 `json:"net_farm_profit"`
	Depreciation  float64 `json:"depreciation,omitempty"`
}

func (f *ScheduleFFields) DocType() DocumentType   { return DocTypeScheduleF }
func (f *ScheduleFFields) RequiredFieldCount() int { return 2 }
func (f *ScheduleFFields) PopulatedFieldCount() int {
	n := 0
	if f.TaxYear > 0 {
		n++
	}
	if f.NetFarmProfit != 0 {
		n++
	}
	return n
}
func (f *ScheduleFFields) Period() (*time.Time, *time.Time) { return taxYearPeriod(f.TaxYear) }
func (f *ScheduleFFields) Amount() float64                  { return f.NetFarmProfit }
func (f *ScheduleFFields) YearToDate() bool                 { return false }

// K1Fields holds a partner's or shareholder's share from a Schedule K-1.
type K1Fields struct {
	EntityName         string  `json:"entity_name"`
	TaxYear            int     `json:"tax_year"`
	OrdinaryIncome     float64 `json:"ordinary_income"`
	GuaranteedPayments float64 `json:"guaranteed_payments,omitempty"`
	OwnershipPercent   float64 `json:"ownership_percent,omitempty"`
}

func (f *K1Fields) DocType() DocumentType   { return DocTypeK1 }
func (f *K1Fields) RequiredFieldCount() int { return 3 }
func (f *K1Fields) PopulatedFieldCount() int {
	n := 0
	if f.EntityName != "" {
		n++
	}
	if f.TaxYear > 0 {
		n++
	}
	if f.OrdinaryIncome != 0 || f.GuaranteedPayments != 0 {
		n++
	}
	return n
}
func (f *K1Fields) Period() (*time.Time, *time.Time) { return taxYearPeriod(f.TaxYear) }
func (f *K1Fields) Amount() float64                  { return f.OrdinaryIncome + f.GuaranteedPayments }
func (f *K1Fields) YearToDate() bool                 { return false }

// BusinessReturnFields covers Form 1065 and Form 1120-S entity returns.
type BusinessReturnFields struct {
	Form                   DocumentType `json:"form"`
	EntityName             string       `json:"entity_name"`
	TaxYear                int          `json:"tax_year"`
	OrdinaryBusinessIncome float64      `json:"ordinary_business_income"`
	Depreciation           float64      `json:"depreciation,omitempty"`
}

func (f *BusinessReturnFields) DocType() DocumentType   { return f.Form }
func (f *BusinessReturnFields) RequiredFieldCount() int { return 3 }
func (f *BusinessReturnFields) PopulatedFieldCount() int {
	n := 0
	if f.EntityName != "" {
		n++
	}
	if f.TaxYear > 0 {
		n++
	}
	if f.OrdinaryBusinessIncome != 0 {
		n++
	}
	return n
}
func (f *BusinessReturnFields) Period() (*time.Time, *time.Time) { return taxYearPeriod(f.TaxYear) }
func (f *BusinessReturnFields) Amount() float64                  { return f.OrdinaryBusinessIncome }
func (f *BusinessReturnFields) YearToDate() bool                 { return false }

// VOEFields holds figures from a written Verification of Employment.
type VOEFields struct {
	Employer            string       `json:"employer"`
	AnnualBaseSalary    float64      `json:"annual_base_salary"`
	PayFrequency        PayFrequency `json:"pay_frequency,omitempty"`
	HireDate            *time.Time   `json:"hire_date,omitempty"`
	AsOf                *time.Time   `json:"as_of,omitempty"`
	OvertimeYTD         float64      `json:"overtime_ytd,omitempty"`
	BonusYTD            float64      `json:"bonus_ytd,omitempty"`
	CommissionYTD       float64      `json:"commission_ytd,omitempty"`
	PriorYearOvertime   float64      `json:"prior_year_overtime,omitempty"`
	PriorYearBonus      float64      `json:"prior_year_bonus,omitempty"`
	PriorYearCommission float64      `json:"prior_year_commission,omitempty"`
}

func (f *VOEFields) DocType() DocumentType   { return DocTypeVOE }
func (f *VOEFields) RequiredFieldCount() int { return 3 }
func (f *VOEFields) PopulatedFieldCount() int {
	n := 0
	if f.Employer != "" {
		n++
	}
	if f.AnnualBaseSalary > 0 {
		n++
	}
	if f.AsOf != nil || f.HireDate != nil {
		n++
	}
	return n
}
func (f *VOEFields) Period() (*time.Time, *time.Time) { return f.HireDate, f.AsOf }
func (f *VOEFields) Amount() float64                  { return f.AnnualBaseSalary }
func (f *VOEFields) YearToDate() bool                 { return false }

func taxYearPeriod(year int) (*time.Time, *time.Time) {
	if year <= 0 {
		return nil, nil
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return &start, &end
}

type fieldEnvelope struct {
	Type DocumentType    `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalFields wraps a FieldSet in a type-tagged envelope for persistence.
func MarshalFields(fs FieldSet) ([]byte, error) {
	data, err := json.Marshal(fs)
	if err != nil {
		return nil, err
	}
	return json.Marshal(fieldEnvelope{Type: fs.DocType(), Data: data})
}

// UnmarshalFields restores the concrete variant for the envelope's type tag.
func UnmarshalFields(b []byte) (FieldSet, error) {
	var env fieldEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	var fs FieldSet
	switch env.Type {
	case DocTypePayStub:
		fs = &PayStubFields{}
	case DocTypeW2:
		fs = &W2Fields{}
	case DocType1099:
		fs = &Form1099Fields{}
	case DocType1040:
		fs = &Form1040Fields{}
	case DocTypeScheduleC:
		fs = &ScheduleCFields{}
	case DocTypeScheduleE:
		fs = &ScheduleEFields{}
	case DocTypeScheduleF:
		fs = &ScheduleFFields{}
	case DocTypeK1:
		fs = &K1Fields{}
	case DocType1065, DocType1120S:
		fs = &BusinessReturnFields{}
	case DocTypeVOE:
		fs = &VOEFields{}
	default:
		return nil, fmt.Errorf("no field set for document type %q", env.Type)
	}
	if err := json.Unmarshal(env.Data, fs); err != nil {
		return nil, err
	}
	return fs, nil
}
