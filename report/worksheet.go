// Package report renders a finalized income calculation as an agency-style
// worksheet. It formats stored values only; the total is never recomputed
// here, so any mismatch with the calculation is a rendering defect by
// definition.
package report

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/crestline-lending/income-engine/dto"
)

var agencyNames = map[dto.Agency]string{
	dto.AgencyFannieMae:  "Fannie Mae",
	dto.AgencyFreddieMac: "Freddie Mac",
	dto.AgencyFHA:        "FHA",
	dto.AgencyVA:         "VA",
	dto.AgencyUSDA:       "USDA",
}

// RenderWorksheet produces the human-readable qualification worksheet for a
// calculation, its components, and the borrower's document file. The acting
// user is passed explicitly; nothing here reads ambient state.
func RenderWorksheet(calculation *dto.IncomeCalculation, docs []dto.IncomeDocument, actingUser string) string {
	var b strings.Builder

	agency := agencyNames[calculation.Agency]
	if agency == "" {
		agency = string(calculation.Agency)
	}

	fmt.Fprintf(&b, "INCOME QUALIFICATION WORKSHEET - %s\n", agency)
	fmt.Fprintf(&b, "Borrower: %s\n", calculation.BorrowerID)
	fmt.Fprintf(&b, "Prepared by %s on %s\n\n", actingUser, calculation.CreatedAt.Format("January 2, 2006"))

	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COMPONENT\tMETHOD\tYEAR 1\tYEAR 2\tTREND\tMONTHLY")
	for i := range calculation.Components {
		c := &calculation.Components[i]
		if c.Excluded {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.Type, c.CalculationMethod,
			optAmount(c.Year1Amount), optAmount(c.Year2Amount),
			trendCell(c), amount(c.MonthlyAmount))
	}
	w.Flush()

	fmt.Fprintf(&b, "\nTOTAL QUALIFYING MONTHLY INCOME\t%s\n", amount(calculation.MonthlyIncome))
	fmt.Fprintf(&b, "Confidence: %.0f%% (%s)\n", calculation.Confidence*100, confidenceBand(calculation.Confidence))

	excluded := false
	for i := range calculation.Components {
		c := &calculation.Components[i]
		if !c.Excluded {
			continue
		}
		if !excluded {
			fmt.Fprintf(&b, "\nEXCLUDED COMPONENTS\n")
			excluded = true
		}
		fmt.Fprintf(&b, "  - %s (%s): %s\n", c.Type, amount(c.MonthlyAmount), c.ExclusionReason)
	}

	if warnings := calculation.Warnings(); len(warnings) > 0 {
		fmt.Fprintf(&b, "\nWARNINGS\n")
		for _, warning := range warnings {
			fmt.Fprintf(&b, "  ! %s\n", warning)
		}
	}

	fmt.Fprintf(&b, "\nDOCUMENTS REVIEWED\n")
	for i := range docs {
		d := &docs[i]
		line := fmt.Sprintf("  - %s (%s, %s, confidence %.2f", d.FileName, d.FinalType, d.OCRStatus, d.Confidence)
		if d.Diagnostics().OCRUsed {
			line += ", OCR"
		}
		fmt.Fprintln(&b, line+")")
	}

	return b.String()
}

func amount(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func optAmount(v *float64) string {
	if v == nil {
		return "—"
	}
	return amount(*v)
}

func trendCell(c *dto.IncomeComponent) string {
	if c.TrendDirection == nil {
		return "—"
	}
	if c.TrendPercent == nil {
		return string(*c.TrendDirection)
	}
	return fmt.Sprintf("%s %.1f%%", *c.TrendDirection, *c.TrendPercent)
}

func confidenceBand(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return "high"
	case confidence >= 0.5:
		return "medium"
	}
	return "low"
}
