package calc

import (
	"math"
	"strings"
)

// warningPenalty is the multiplicative discount applied per severe warning
// category present on the calculation.
const warningPenalty = 0.85

// confidenceFloor is the minimum confidence for a calculation that has at
// least one qualifying component.
const confidenceFloor = 0.05

// severeMarkers identify the warning categories that reduce confidence, not
// just inform: declining trends beyond limit, single-year self-employment,
// and OCR-derived data under the floor.
var severeMarkers = []string{
	markerDecliningTrend,
	markerSingleYear,
	markerOCRBelowFloor,
}

// Score derives overall confidence from an aggregation: the dollar-weighted
// average of contributing components' source confidences, discounted per
// severe warning category. Always within [0, 1]; exactly 0 only when no
// qualifying components exist.
func Score(agg Aggregation) float64 {
	var totalWeight, weighted float64
	for i := range agg.Components {
		c := &agg.Components[i]
		if c.Excluded {
			continue
		}
		w := math.Abs(c.MonthlyAmount)
		totalWeight += w
		weighted += w * c.SourceConfidence
	}
	if totalWeight == 0 {
		return 0
	}
	conf := weighted / totalWeight

	for _, marker := range severeMarkers {
		for _, warning := range agg.Warnings {
			if strings.Contains(warning, marker) {
				conf *= warningPenalty
				break
			}
		}
	}

	if conf < confidenceFloor {
		conf = confidenceFloor
	}
	if conf > 1 {
		conf = 1
	}
	return conf
}
