package extract

import (
	"regexp"

	"github.com/crestline-lending/income-engine/dto"
)

var (
	voeAsOfRe = regexp.MustCompile(`(?i)(?:as\s*of|date\s*(?:signed|completed))[\s:]*([0-9/.-]+)`)
	voeHireRe = regexp.MustCompile(`(?i)date\s*of\s*(?:employment|hire)[\s:]*([0-9/.-]+)`)
)

// ParseVOE extracts figures from a written Verification of Employment
// (Form 1005 layout: base pay plus year-to-date and past-year columns for
// overtime, bonus and commission).
func ParseVOE(text string) *dto.VOEFields {
	f := &dto.VOEFields{
		Employer: labeledString(text, `(?i)employer(?:'s)?(?:\s*name)?`),
	}

	if v, ok := labeledAmount(text,
		`(?i)(?:current\s*)?(?:annual\s*)?(?:gross\s*)?base\s*(?:pay|salary)`,
		`(?i)annual\s*salary`); ok {
		f.AnnualBaseSalary = v
	}
	f.PayFrequency = detectFrequency(text)

	// Column order on the 1005 is year-to-date first, then past year.
	if ytd, prior, ok := labeledPair(text, `(?i)overtime`); ok {
		f.OvertimeYTD = ytd
		f.PriorYearOvertime = prior
	} else if v, ok := labeledAmount(text, `(?i)overtime`); ok {
		f.OvertimeYTD = v
	}
	if ytd, prior, ok := labeledPair(text, `(?i)bonus`); ok {
		f.BonusYTD = ytd
		f.PriorYearBonus = prior
	} else if v, ok := labeledAmount(text, `(?i)bonus`); ok {
		f.BonusYTD = v
	}
	if ytd, prior, ok := labeledPair(text, `(?i)commission`); ok {
		f.CommissionYTD = ytd
		f.PriorYearCommission = prior
	} else if v, ok := labeledAmount(text, `(?i)commission`); ok {
		f.CommissionYTD = v
	}

	if m := voeAsOfRe.FindStringSubmatch(text); len(m) > 1 {
		if t, ok := parseDate(m[1]); ok {
			f.AsOf = &t
		}
	}
	if m := voeHireRe.FindStringSubmatch(text); len(m) > 1 {
		if t, ok := parseDate(m[1]); ok {
			f.HireDate = &t
		}
	}

	return f
}
