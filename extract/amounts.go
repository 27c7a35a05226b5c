package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// amountPattern captures a currency figure with its sign, so accounting-style
// "(3,600)" and "-3,600" both come through as negatives.
const amountPattern = `(\(?-?\$?\s*[0-9][0-9,]*\.?[0-9]*\)?)`

// normalizeDigits fixes the character confusions OCR introduces inside
// numeric strings.
func normalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case 'O', 'o', 'D':
			return '0'
		case 'l', 'I':
			return '1'
		case 'S':
			return '5'
		default:
			return r
		}
	}, s)
}

// parseAmount converts a matched currency string to a float, honoring
// accounting-style parentheses and leading minus as negative.
func parseAmount(raw string) (float64, bool) {
	raw = strings.TrimSpace(normalizeDigits(raw))
	neg := strings.Contains(raw, "(") || strings.HasPrefix(raw, "-")
	cleaned := strings.NewReplacer("$", "", ",", "", "(", "", ")", "", "-", "", " ", "").Replace(raw)
	if cleaned == "" || cleaned == "." {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

// labeledAmount finds the first amount following any of the label patterns.
func labeledAmount(text string, labels ...string) (float64, bool) {
	for _, label := range labels {
		re := regexp.MustCompile(label + `[\s.:]*` + amountPattern)
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			if v, ok := parseAmount(m[1]); ok {
				return v, true
			}
		}
	}
	return 0, false
}

// labeledPair finds two amounts on the same labeled line, typically the
// current-period and year-to-date columns of a pay stub.
func labeledPair(text string, label string) (first, second float64, ok bool) {
	re := regexp.MustCompile(label + `[\s.:]*` + amountPattern + `\s+` + amountPattern)
	m := re.FindStringSubmatch(text)
	if len(m) < 3 {
		return 0, 0, false
	}
	a, okA := parseAmount(m[1])
	b, okB := parseAmount(m[2])
	if !okA || !okB {
		return 0, 0, false
	}
	return a, b, true
}

// labeledString finds the first text capture following any of the label
// patterns, trimmed of trailing noise.
func labeledString(text string, labels ...string) string {
	for _, label := range labels {
		re := regexp.MustCompile(label + `[\s:]+([A-Za-z0-9][A-Za-z0-9 .,&'-]*[A-Za-z0-9.])`)
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

var yearRe = regexp.MustCompile(`\b(20[0-4][0-9])\b`)

// parseTaxYear prefers a year next to an explicit label, falling back to the
// first plausible year anywhere in the text.
func parseTaxYear(text string) int {
	labeled := regexp.MustCompile(`(?i)(?:tax\s*year|for\s*(?:calendar\s*)?year|form\s*10\d{2}(?:-?S)?\s*\(?)\s*(20[0-4][0-9])`)
	if m := labeled.FindStringSubmatch(text); len(m) > 1 {
		y, _ := strconv.Atoi(m[1])
		return y
	}
	if m := yearRe.FindStringSubmatch(text); len(m) > 1 {
		y, _ := strconv.Atoi(m[1])
		return y
	}
	return 0
}

var dateFormats = []string{"01/02/2006", "1/2/2006", "01-02-2006", "2006-01-02", "01/02/06", "Jan 2, 2006", "January 2, 2006"}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
