package dto

import (
	"errors"

	"github.com/google/uuid"
)

// ReprocessRequest retries a document, optionally forcing the OCR path even
// if direct parsing previously produced a result.
type ReprocessRequest struct {
	ForceOCR bool `json:"force_ocr"`
}

// QualifyRequest triggers an income calculation for a borrower under one
// agency rule set. RequestedBy is the acting user, passed explicitly so the
// calculation core stays free of ambient state.
type QualifyRequest struct {
	Agency      Agency `json:"agency" binding:"required"`
	RequestedBy string `json:"requested_by"`
}

func (r *QualifyRequest) Validate() error {
	switch r.Agency {
	case AgencyFannieMae, AgencyFreddieMac, AgencyFHA, AgencyVA, AgencyUSDA:
		return nil
	case "":
		return errors.New("agency is required")
	}
	return ErrUnknownAgency
}

// UploadResponse acknowledges an accepted document.
type UploadResponse struct {
	DocumentID uuid.UUID `json:"document_id"`
	OCRStatus  OCRStatus `json:"ocr_status"`
}
