// Package classify determines a document's true type from anchor strings
// characteristic of each agency form, with an override mechanism when the
// anchors contradict the declared type.
package classify

import (
	"regexp"

	"github.com/crestline-lending/income-engine/dto"
)

// Result is the outcome of one classification pass.
type Result struct {
	FinalType    dto.DocumentType
	OriginalType dto.DocumentType
	Override     bool
	AnchorsFound []string
	Confidence   float64
}

type anchor struct {
	label  string
	re     *regexp.Regexp
	weight int
}

type anchorSet struct {
	docType dto.DocumentType
	// Higher specificity wins ties: a Schedule C hit outranks the generic
	// Form 1040 header printed on the same page.
	specificity int
	anchors     []anchor
}

// overrideThreshold is the minimum anchor score required to contradict the
// declared type.
const overrideThreshold = 4

// fullConfidenceScore is the anchor score at which classification confidence
// saturates at 1.0.
const fullConfidenceScore = 8

var anchorTable = []anchorSet{
	{
		docType:     dto.DocTypeScheduleC,
		specificity: 3,
		anchors: []anchor{
			{"schedule_c_header", regexp.MustCompile(`(?i)SCHEDULE\s*C\b`), 3},
			{"profit_loss_business", regexp.MustCompile(`(?i)Profit\s+or\s+Loss\s+From\s+Business`), 3},
			{"sole_proprietorship", regexp.MustCompile(`(?i)Sole\s+Proprietorship`), 2},
			{"net_profit_line", regexp.MustCompile(`(?i)Net\s+profit\s+or\s+\(?loss\)?`), 1},
		},
	},
	{
		docType:     dto.DocTypeScheduleE,
		specificity: 3,
		anchors: []anchor{
			{"schedule_e_header", regexp.MustCompile(`(?i)SCHEDULE\s*E\b`), 3},
			{"supplemental_income", regexp.MustCompile(`(?i)Supplemental\s+Income\s+and\s+Loss`), 3},
			{"rental_real_estate", regexp.MustCompile(`(?i)Rental\s+Real\s+Estate`), 2},
			{"royalties", regexp.MustCompile(`(?i)\bRoyalties\b`), 1},
		},
	},
	{
		docType:     dto.DocTypeScheduleF,
		specificity: 3,
		anchors: []anchor{
			{"schedule_f_header", regexp.MustCompile(`(?i)SCHEDULE\s*F\b`), 3},
			{"profit_loss_farming", regexp.MustCompile(`(?i)Profit\s+or\s+Loss\s+From\s+Farming`), 3},
		},
	},
	{
		docType:     dto.DocTypeK1,
		specificity: 3,
		anchors: []anchor{
			{"schedule_k1", regexp.MustCompile(`(?i)Schedule\s*K-?1\b`), 3},
			{"partner_share", regexp.MustCompile(`(?i)Partner'?s\s+Share\s+of\s+Income`), 3},
			{"shareholder_share", regexp.MustCompile(`(?i)Shareholder'?s\s+Share\s+of\s+Income`), 3},
		},
	},
	{
		docType:     dto.DocType1065,
		specificity: 3,
		anchors: []anchor{
			{"form_1065", regexp.MustCompile(`(?i)Form\s*1065\b`), 3},
			{"partnership_return", regexp.MustCompile(`(?i)U\.?S\.?\s+Return\s+of\s+Partnership\s+Income`), 3},
		},
	},
	{
		docType:     dto.DocType1120S,
		specificity: 3,
		anchors: []anchor{
			{"form_1120s", regexp.MustCompile(`(?i)Form\s*1120-?S\b`), 3},
			{"s_corp_return", regexp.MustCompile(`(?i)Income\s+Tax\s+Return\s+for\s+an\s+S\s+Corporation`), 3},
		},
	},
	{
		docType:     dto.DocTypeW2,
		specificity: 2,
		anchors: []anchor{
			{"w2_form", regexp.MustCompile(`(?i)\bW-?2\b`), 2},
			{"wage_tax_statement", regexp.MustCompile(`(?i)Wage\s+and\s+Tax\s+Statement`), 3},
			{"wages_tips_box", regexp.MustCompile(`(?i)Wages,\s*tips,\s*other\s+comp`), 2},
			{"social_security_wages", regexp.MustCompile(`(?i)Social\s+security\s+wages`), 2},
		},
	},
	{
		docType:     dto.DocType1099,
		specificity: 2,
		anchors: []anchor{
			{"form_1099", regexp.MustCompile(`(?i)\b1099-?(NEC|MISC)\b`), 3},
			{"nonemployee_comp", regexp.MustCompile(`(?i)Nonemployee\s+[Cc]ompensation`), 3},
		},
	},
	{
		docType:     dto.DocTypeVOE,
		specificity: 2,
		anchors: []anchor{
			{"voe_header", regexp.MustCompile(`(?i)Verification\s+of\s+Employment`), 3},
			{"probability_employment", regexp.MustCompile(`(?i)Probability\s+of\s+Continued\s+Employment`), 3},
			{"form_1005", regexp.MustCompile(`(?i)Form\s*1005\b`), 2},
		},
	},
	{
		docType:     dto.DocTypePayStub,
		specificity: 2,
		anchors: []anchor{
			{"earnings_statement", regexp.MustCompile(`(?i)Earnings\s+Statement`), 3},
			{"pay_period", regexp.MustCompile(`(?i)Pay\s+Period`), 2},
			{"ytd_label", regexp.MustCompile(`(?i)Year[\s-]*to[\s-]*[Dd]ate|\bYTD\b`), 2},
			{"gross_pay", regexp.MustCompile(`(?i)Gross\s+Pay`), 2},
			{"net_pay", regexp.MustCompile(`(?i)Net\s+Pay`), 1},
		},
	},
	{
		docType:     dto.DocType1040,
		specificity: 1,
		anchors: []anchor{
			{"form_1040", regexp.MustCompile(`(?i)Form\s*1040\b`), 3},
			{"individual_return", regexp.MustCompile(`(?i)U\.?S\.?\s+Individual\s+Income\s+Tax\s+Return`), 3},
			{"agi_line", regexp.MustCompile(`(?i)Adjusted\s+[Gg]ross\s+[Ii]ncome`), 1},
		},
	},
}

// Classify scans text (even partial OCR output) for form anchors and resolves
// the final document type against the declared hint. It never fails on
// unreadable text: no anchors and no hint yields "other" with confidence 0.
func Classify(text string, declared dto.DocumentType) Result {
	type scored struct {
		set     *anchorSet
		score   int
		anchors []string
	}
	var best, declaredMatch *scored
	for i := range anchorTable {
		set := &anchorTable[i]
		s := scored{set: set}
		for _, a := range set.anchors {
			if a.re.MatchString(text) {
				s.score += a.weight
				s.anchors = append(s.anchors, a.label)
			}
		}
		if s.score == 0 {
			continue
		}
		if set.docType == declared {
			declaredMatch = &s
		}
		if best == nil || s.score > best.score ||
			(s.score == best.score && set.specificity > best.set.specificity) {
			tmp := s
			best = &tmp
		}
	}

	res := Result{OriginalType: declared}

	if best == nil {
		// Nothing recognizable in the text; trust the hint if there is one.
		if declared != "" && declared != dto.DocTypeOther {
			res.FinalType = declared
			return res
		}
		res.FinalType = dto.DocTypeOther
		return res
	}

	res.AnchorsFound = best.anchors
	res.Confidence = float64(best.score) / fullConfidenceScore
	if res.Confidence > 1.0 {
		res.Confidence = 1.0
	}

	switch {
	case declared == "" || declared == dto.DocTypeOther:
		res.FinalType = best.set.docType
	case best.set.docType == declared:
		res.FinalType = declared
	case best.score >= overrideThreshold:
		// Anchors strongly imply a different type than declared.
		res.FinalType = best.set.docType
		res.Override = true
	case declaredMatch != nil:
		res.FinalType = declared
		res.AnchorsFound = declaredMatch.anchors
		res.Confidence = float64(declaredMatch.score) / fullConfidenceScore
	default:
		res.FinalType = declared
	}
	return res
}
