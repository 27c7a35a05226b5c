package extract

import (
	"strings"

	"github.com/crestline-lending/income-engine/dto"
)

// ParseW2 extracts box values from a W-2 Wage and Tax Statement.
func ParseW2(text string) *dto.W2Fields {
	f := &dto.W2Fields{
		Employer: labeledString(text,
			`(?i)employer'?s?\s*name(?:,?\s*address[^:\n]*)?`,
			`(?i)\bc\s+employer`),
		TaxYear: parseTaxYear(text),
	}
	if v, ok := labeledAmount(text,
		`(?i)wages,?\s*tips,?\s*other\s*comp\w*`,
		`(?i)box\s*1\b`); ok {
		f.WagesBox1 = v
	}
	if v, ok := labeledAmount(text, `(?i)medicare\s*wages(?:\s*and\s*tips)?`); ok {
		f.MedicareWages = v
	}
	return f
}

// Parse1099 extracts payer and compensation from a 1099-NEC/MISC.
func Parse1099(text string) *dto.Form1099Fields {
	f := &dto.Form1099Fields{
		Payer:   labeledString(text, `(?i)payer'?s?\s*name(?:,?\s*[a-z ]*address[^:\n]*)?`),
		TaxYear: parseTaxYear(text),
	}
	if v, ok := labeledAmount(text,
		`(?i)nonemployee\s*compensation`,
		`(?i)box\s*1\b`); ok {
		f.NonemployeeComp = v
	}
	return f
}

// Parse1040 extracts the headline income lines of an individual return.
func Parse1040(text string) *dto.Form1040Fields {
	f := &dto.Form1040Fields{TaxYear: parseTaxYear(text)}
	if v, ok := labeledAmount(text, `(?i)wages,\s*salaries(?:,\s*tips)?[a-z,.\s]*`); ok {
		f.Wages = v
	}
	if v, ok := labeledAmount(text, `(?i)total\s*income`); ok {
		f.TotalIncome = v
	}
	if v, ok := labeledAmount(text, `(?i)adjusted\s*gross\s*income`); ok {
		f.AGI = v
	}
	return f
}

// ParseScheduleC extracts profit-or-loss lines for a sole proprietorship.
func ParseScheduleC(text string) *dto.ScheduleCFields {
	f := &dto.ScheduleCFields{
		BusinessName: labeledString(text,
			`(?i)(?:principal\s*business|business\s*name)`,
			`(?i)name\s*of\s*proprietor`),
		TaxYear: parseTaxYear(text),
	}
	if v, ok := labeledAmount(text, `(?i)gross\s*receipts(?:\s*or\s*sales)?`); ok {
		f.GrossReceipts = v
	}
	if v, ok := labeledAmount(text, `(?i)net\s*profit\s*(?:or\s*\(?loss\)?)?`); ok {
		f.NetProfit = v
	}
	if v, ok := labeledAmount(text, `(?i)depreciation(?:\s*and\s*section\s*179[^.\n]*)?`); ok {
		f.Depreciation = v
	}
	if v, ok := labeledAmount(text, `(?i)depletion`); ok {
		f.Depletion = v
	}
	return f
}

// ParseScheduleE extracts rental income lines. Net rental is taken from the
// form when present, otherwise computed from rents minus expenses.
func ParseScheduleE(text string) *dto.ScheduleEFields {
	f := &dto.ScheduleEFields{TaxYear: parseTaxYear(text)}
	if v, ok := labeledAmount(text, `(?i)(?:total\s*)?rents?\s*received`); ok {
		f.TotalRents = v
	}
	if v, ok := labeledAmount(text, `(?i)total\s*expenses`); ok {
		f.TotalExpenses = v
	}
	if v, ok := labeledAmount(text, `(?i)depreciation(?:\s*expense)?`); ok {
		f.Depreciation = v
	}
	if v, ok := labeledAmount(text,
		`(?i)(?:total\s*)?(?:net\s*)?rental\s*(?:real\s*estate\s*)?(?:income|income\s*or\s*\(?loss\)?|\(?loss\)?)`); ok {
		f.NetRental = v
	} else if f.TotalRents != 0 || f.TotalExpenses != 0 {
		f.NetRental = f.TotalRents - f.TotalExpenses
	}
	return f
}

// ParseScheduleF extracts farm profit-or-loss lines.
func ParseScheduleF(text string) *dto.ScheduleFFields {
	f := &dto.ScheduleFFields{TaxYear: parseTaxYear(text)}
	if v, ok := labeledAmount(text, `(?i)net\s*farm\s*profit\s*(?:or\s*\(?loss\)?)?`); ok {
		f.NetFarmProfit = v
	}
	if v, ok := labeledAmount(text, `(?i)depreciation(?:\s*and\s*section\s*179[^.\n]*)?`); ok {
		f.Depreciation = v
	}
	return f
}

// ParseK1 extracts a partner's or shareholder's share from a Schedule K-1.
func ParseK1(text string) *dto.K1Fields {
	f := &dto.K1Fields{
		EntityName: labeledString(text,
			`(?i)partnership'?s?\s*name(?:,?\s*address[^:\n]*)?`,
			`(?i)corporation'?s?\s*name(?:,?\s*address[^:\n]*)?`),
		TaxYear: parseTaxYear(text),
	}
	if v, ok := labeledAmount(text, `(?i)ordinary\s*(?:business\s*)?income\s*(?:\(?loss\)?)?`); ok {
		f.OrdinaryIncome = v
	}
	if v, ok := labeledAmount(text, `(?i)guaranteed\s*payments`); ok {
		f.GuaranteedPayments = v
	}
	if v, ok := labeledAmount(text, `(?i)(?:profit|ownership)\s*(?:share|percent(?:age)?)?\s*%?`); ok && v <= 100 {
		f.OwnershipPercent = v
	}
	return f
}

// ParseBusinessReturn extracts entity-level lines from a 1065 or 1120-S.
func ParseBusinessReturn(text string, form dto.DocumentType) *dto.BusinessReturnFields {
	f := &dto.BusinessReturnFields{
		Form: form,
		EntityName: labeledString(text,
			`(?i)name\s*of\s*(?:partnership|corporation)`,
			`(?i)(?:partnership|corporation)\s*name`),
		TaxYear: parseTaxYear(text),
	}
	if f.EntityName == "" {
		// Entity returns print the legal name near the top of page one.
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if companyLineRe.MatchString(line) {
				f.EntityName = line
				break
			}
		}
	}
	if v, ok := labeledAmount(text, `(?i)ordinary\s*business\s*income\s*(?:\(?loss\)?)?`); ok {
		f.OrdinaryBusinessIncome = v
	}
	if v, ok := labeledAmount(text, `(?i)depreciation`); ok {
		f.Depreciation = v
	}
	return f
}
