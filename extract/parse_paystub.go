package extract

import (
	"regexp"
	"strings"

	"github.com/crestline-lending/income-engine/dto"
)

var (
	payPeriodRe   = regexp.MustCompile(`(?i)pay\s*period[\s:]*([0-9/.-]+)\s*(?:-|to|through)\s*([0-9/.-]+)`)
	periodEndRe   = regexp.MustCompile(`(?i)(?:period\s*end(?:ing)?|pay\s*date)[\s:]*([0-9/.-]+)`)
	hourlyRateRe  = regexp.MustCompile(`(?i)(?:hourly\s*)?rate[\s:]*\$?\s*([0-9,]+\.?[0-9]*)`)
	hoursWorkedRe = regexp.MustCompile(`(?i)hours(?:\s*worked)?[\s:]*([0-9]+\.?[0-9]*)`)
	companyLineRe = regexp.MustCompile(`(?i)\b(Inc|LLC|Corp|Ltd|Co|Company|Group|Services|Solutions)\b\.?`)
)

// ParsePayStub extracts structured data from earnings-statement text.
func ParsePayStub(text string) *dto.PayStubFields {
	f := &dto.PayStubFields{}

	f.Employer = labeledString(text, `(?i)employer(?:\s*name)?`, `(?i)company(?:\s*name)?`)
	if f.Employer == "" {
		// Pay stubs usually put the company on the first printed line.
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if companyLineRe.MatchString(line) {
				f.Employer = line
			}
			break
		}
	}

	// Two-column "current / YTD" layouts first, then single amounts.
	if cur, ytd, ok := labeledPair(text, `(?i)gross\s*(?:pay|earnings)`); ok {
		f.GrossPay = cur
		f.YTDGross = ytd
	} else {
		if v, ok := labeledAmount(text, `(?i)gross\s*(?:pay|earnings)`); ok {
			f.GrossPay = v
		}
		if v, ok := labeledAmount(text,
			`(?i)(?:ytd|year[\s-]*to[\s-]*date)\s*(?:gross|earnings|pay)`,
			`(?i)gross\s*(?:pay|earnings)?\s*(?:ytd|year[\s-]*to[\s-]*date)`); ok {
			f.YTDGross = v
		}
	}
	f.HasYTD = f.YTDGross > 0

	if cur, ytd, ok := labeledPair(text, `(?i)overtime`); ok {
		_ = cur
		f.YTDOvertime = ytd
	} else if v, ok := labeledAmount(text, `(?i)overtime`); ok {
		f.YTDOvertime = v
	}
	if cur, ytd, ok := labeledPair(text, `(?i)bonus`); ok {
		_ = cur
		f.YTDBonus = ytd
	} else if v, ok := labeledAmount(text, `(?i)bonus`); ok {
		f.YTDBonus = v
	}
	if cur, ytd, ok := labeledPair(text, `(?i)commission`); ok {
		_ = cur
		f.YTDCommission = ytd
	} else if v, ok := labeledAmount(text, `(?i)commission`); ok {
		f.YTDCommission = v
	}

	if m := payPeriodRe.FindStringSubmatch(text); len(m) > 2 {
		if t, ok := parseDate(m[1]); ok {
			f.PeriodStart = &t
		}
		if t, ok := parseDate(m[2]); ok {
			f.PeriodEnd = &t
		}
	}
	if f.PeriodEnd == nil {
		if m := periodEndRe.FindStringSubmatch(text); len(m) > 1 {
			if t, ok := parseDate(m[1]); ok {
				f.PeriodEnd = &t
			}
		}
	}

	f.PayFrequency = detectFrequency(text)

	if m := hourlyRateRe.FindStringSubmatch(text); len(m) > 1 {
		if v, ok := parseAmount(m[1]); ok && v < 500 {
			f.HourlyRate = v
		}
	}
	if m := hoursWorkedRe.FindStringSubmatch(text); len(m) > 1 {
		if v, ok := parseAmount(m[1]); ok && v <= 400 {
			f.HoursWorked = v
		}
	}

	return f
}

func detectFrequency(text string) dto.PayFrequency {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "semi-monthly") || strings.Contains(lower, "semimonthly"):
		return dto.FrequencySemimonthly
	case strings.Contains(lower, "bi-weekly") || strings.Contains(lower, "biweekly"):
		return dto.FrequencyBiweekly
	case strings.Contains(lower, "weekly"):
		return dto.FrequencyWeekly
	case strings.Contains(lower, "monthly"):
		return dto.FrequencyMonthly
	case strings.Contains(lower, "annual") || strings.Contains(lower, "yearly"):
		return dto.FrequencyAnnual
	}
	return ""
}
