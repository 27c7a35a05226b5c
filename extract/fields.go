// Package extract turns classified document text into typed field sets, with
// an OCR fallback when direct parsing comes up short.
package extract

import (
	"math"
	"strings"

	"github.com/crestline-lending/income-engine/dto"
)

// ocrPenalty discounts confidence when fields came from OCR text rather than
// embedded PDF text.
const ocrPenalty = 0.85

// inconsistencyPenalty discounts confidence when a pay stub's stated gross
// disagrees with hourly rate times hours by more than 10%.
const inconsistencyPenalty = 0.9

// scannedTextThreshold is the character count below which a PDF is treated as
// image-only and routed to OCR.
const scannedTextThreshold = 80

// ParseFields dispatches to the parser for the final document type. Returns
// nil for "other": unrecognized documents carry no structured fields.
func ParseFields(text string, docType dto.DocumentType) dto.FieldSet {
	switch docType {
	case dto.DocTypePayStub:
		return ParsePayStub(text)
	case dto.DocTypeW2:
		return ParseW2(text)
	case dto.DocType1099:
		return Parse1099(text)
	case dto.DocType1040:
		return Parse1040(text)
	case dto.DocTypeScheduleC:
		return ParseScheduleC(text)
	case dto.DocTypeScheduleE:
		return ParseScheduleE(text)
	case dto.DocTypeScheduleF:
		return ParseScheduleF(text)
	case dto.DocTypeK1:
		return ParseK1(text)
	case dto.DocType1065, dto.DocType1120S:
		return ParseBusinessReturn(text, docType)
	case dto.DocTypeVOE:
		return ParseVOE(text)
	}
	return nil
}

// FallbackFloor is the minimum populated-field count per type below which
// direct parsing is considered to have failed and OCR is attempted.
func FallbackFloor(docType dto.DocumentType) int {
	switch docType {
	case dto.DocTypePayStub:
		return 3
	case dto.DocTypeOther:
		return 0
	}
	return 2
}

// NeedsOCR reports whether the direct-parse result is weak enough to retry
// with OCR: sparse text consistent with a scan, or too few required fields.
func NeedsOCR(text string, fs dto.FieldSet, docType dto.DocumentType) bool {
	if len(strings.TrimSpace(text)) < scannedTextThreshold {
		return true
	}
	if fs == nil {
		return docType != dto.DocTypeOther
	}
	return fs.PopulatedFieldCount() < FallbackFloor(docType)
}

// Confidence scores an extraction as the fraction of required fields found,
// discounted for OCR noise and internal inconsistency.
func Confidence(fs dto.FieldSet, ocrUsed bool) float64 {
	if fs == nil || fs.RequiredFieldCount() == 0 {
		return 0
	}
	conf := float64(fs.PopulatedFieldCount()) / float64(fs.RequiredFieldCount())
	if ocrUsed {
		conf *= ocrPenalty
	}
	if ps, ok := fs.(*dto.PayStubFields); ok && ps.HourlyRate > 0 && ps.HoursWorked > 0 && ps.GrossPay > 0 {
		computed := ps.HourlyRate * ps.HoursWorked
		if math.Abs(ps.GrossPay-computed)/ps.GrossPay > 0.10 {
			conf *= inconsistencyPenalty
		}
	}
	if conf > 1 {
		conf = 1
	}
	if conf < 0 {
		conf = 0
	}
	return conf
}
