package calc

import "fmt"

// Canonical warning text. The confidence scorer matches on these markers, so
// formatted warnings must keep them verbatim.
const (
	WarnNoQualifyingIncome = "no qualifying income found"

	markerDecliningTrend = "declining trend"
	markerSingleYear     = "single year"
	markerOCRBelowFloor  = "below the OCR confidence floor"
	markerNegativeRental = "negative rental income reducing total"
	markerReclassified   = "reclassified"
)

func warnReclassified(fileName string, from, to string) string {
	return fmt.Sprintf("document %q was reclassified from declared type %s to %s", fileName, from, to)
}

func warnDecliningTrend(componentType string, pct, threshold float64) string {
	return fmt.Sprintf("%s income shows a declining trend of %.1f%% (limit %.0f%%); qualifying on most recent year only", componentType, pct, threshold)
}

func warnDecliningExcluded(componentType string, pct, threshold float64) string {
	return fmt.Sprintf("%s income shows a declining trend of %.1f%% (exceeds %.0f%%); excluded from qualifying income", componentType, pct, threshold)
}

func warnSingleYearSelfEmployment(source string) string {
	return fmt.Sprintf("self-employment income from %s is based on a single year only; insufficient history", source)
}

func warnNegativeRental(monthly float64) string {
	return fmt.Sprintf("%s: -$%.2f/month", markerNegativeRental, -monthly)
}

func warnOCRBelowFloor(componentType string, confidence, floor float64) string {
	return fmt.Sprintf("%s income relies on OCR-derived data with confidence %.2f, below the OCR confidence floor of %.2f", componentType, confidence, floor)
}

func warnExcludedByAgency(componentType, agency string) string {
	return fmt.Sprintf("%s income is not counted under %s rules; excluded", componentType, agency)
}

func warnCommissionHistory(agency string, years int) string {
	return fmt.Sprintf("commission income lacks the %d-year history required under %s rules; excluded", years, agency)
}

func warnOtherDocument(fileName string) string {
	return fmt.Sprintf("document %q could not be classified; excluded from qualifying income until reclassified", fileName)
}
