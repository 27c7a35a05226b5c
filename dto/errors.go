package dto

import "errors"

// Error taxonomy. Ingestion errors mean the file itself could not be used;
// extraction-empty means it parsed but nothing usable was found.
var (
	ErrUnsupportedMIME  = errors.New("unsupported file type: only PDF, JPEG and PNG are accepted")
	ErrFileUnreadable   = errors.New("file is unreadable")
	ErrExtractionEmpty  = errors.New("no required fields found in document")
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentBusy     = errors.New("document is currently being processed")
	ErrBorrowerNotFound = errors.New("borrower not found")
	ErrUnknownAgency    = errors.New("unknown agency rule set")
	ErrCalcNotFound     = errors.New("calculation not found")
)

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
