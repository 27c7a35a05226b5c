// Package service orchestrates the income qualification pipeline: document
// ingestion, classification, extraction with OCR fallback, and borrower-level
// aggregation behind a per-borrower barrier.
package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/crestline-lending/income-engine/calc"
	"github.com/crestline-lending/income-engine/classify"
	"github.com/crestline-lending/income-engine/dto"
	"github.com/crestline-lending/income-engine/extract"
)

// Store is the persistence surface the pipeline needs.
type Store interface {
	SaveFile(borrowerID, fileName string, content []byte) (string, error)
	ReadFile(path string) ([]byte, error)
	CreateDocument(ctx context.Context, doc *dto.IncomeDocument) error
	GetDocument(ctx context.Context, id uuid.UUID) (*dto.IncomeDocument, error)
	ListDocuments(ctx context.Context, borrowerID string) ([]dto.IncomeDocument, error)
	UpdateDocument(ctx context.Context, doc *dto.IncomeDocument) error
	RemoveDocument(ctx context.Context, id uuid.UUID) error
	SaveCalculation(ctx context.Context, calculation *dto.IncomeCalculation) error
	GetCalculation(ctx context.Context, id uuid.UUID) (*dto.IncomeCalculation, error)
	ListCalculations(ctx context.Context, borrowerID string) ([]dto.IncomeCalculation, error)
	SetQualifyingIncome(ctx context.Context, borrowerID string, agency dto.Agency, monthly float64) error
	FailStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error)
}

// OCRClient abstracts the Tesseract client for testing.
type OCRClient interface {
	TextFromImage(img image.Image) (text string, quality float64, err error)
}

var allowedMIMEs = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

type Pipeline struct {
	store Store
	pdf   extract.PDFProcessor
	ocr   OCRClient
	gate  *borrowerGate
	log   *logrus.Logger
}

func NewPipeline(store Store, pdf extract.PDFProcessor, ocr OCRClient, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		store: store,
		pdf:   pdf,
		ocr:   ocr,
		gate:  newBorrowerGate(),
		log:   log,
	}
}

// Upload ingests one file for a borrower. Unsupported or unreadable files
// fail immediately with diagnostics and no classification attempt; accepted
// files are persisted as pending and processed asynchronously.
func (p *Pipeline) Upload(ctx context.Context, borrowerID, fileName string, content []byte, declared dto.DocumentType) (*dto.IncomeDocument, error) {
	mime := mimetype.Detect(content).String()
	if idx := strings.Index(mime, ";"); idx > 0 {
		mime = mime[:idx]
	}

	doc := &dto.IncomeDocument{
		ID:           uuid.New(),
		BorrowerID:   borrowerID,
		FileName:     fileName,
		FileSize:     int64(len(content)),
		MIMEType:     mime,
		DeclaredType: declared,
		FinalType:    declared,
		OCRStatus:    dto.OCRStatusPending,
	}

	if !allowedMIMEs[mime] {
		doc.OCRStatus = dto.OCRStatusFailed
		doc.SetDiagnostics(dto.Diagnostics{
			FileSize:      doc.FileSize,
			MIMEType:      mime,
			FailureStage:  dto.FailureStageIngestion,
			FailureReason: fmt.Sprintf("unsupported MIME type %q", mime),
		})
		if err := p.store.CreateDocument(ctx, doc); err != nil {
			return nil, err
		}
		return doc, dto.ErrUnsupportedMIME
	}

	path, err := p.store.SaveFile(borrowerID, fileName, content)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	doc.StorePath = path

	if err := p.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{"document_id": doc.ID, "borrower_id": borrowerID}).
		Info("document accepted, starting extraction")

	// The goroutine works on its own copy so callers can read the returned
	// document without racing the extraction.
	p.gate.Begin(borrowerID)
	async := *doc
	go func() {
		defer p.gate.End(borrowerID)
		p.runExtraction(context.Background(), &async, content, false)
	}()

	return doc, nil
}

// Reprocess creates a fresh extraction attempt for one document, optionally
// forcing the OCR path. Sibling documents and their components are untouched
// until the next aggregation run.
func (p *Pipeline) Reprocess(ctx context.Context, documentID uuid.UUID, forceOCR bool) (*dto.IncomeDocument, error) {
	doc, err := p.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OCRStatus == dto.OCRStatusProcessing {
		return nil, dto.ErrDocumentBusy
	}

	content, err := p.store.ReadFile(doc.StorePath)
	if err != nil {
		diag := doc.Diagnostics()
		diag.FailureStage = dto.FailureStageIngestion
		diag.FailureReason = err.Error()
		doc.SetDiagnostics(diag)
		doc.OCRStatus = dto.OCRStatusFailed
		_ = p.store.UpdateDocument(ctx, doc)
		return nil, err
	}

	doc.OCRStatus = dto.OCRStatusProcessing
	if err := p.store.UpdateDocument(ctx, doc); err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{"document_id": doc.ID, "force_ocr": forceOCR}).
		Info("reprocessing document")

	p.gate.Begin(doc.BorrowerID)
	async := *doc
	go func() {
		defer p.gate.End(doc.BorrowerID)
		p.runExtraction(context.Background(), &async, content, forceOCR)
	}()

	return doc, nil
}

// runExtraction takes a document through classification and extraction to a
// terminal state. It never panics on malformed input; anything unusable ends
// as failed with diagnostics.
func (p *Pipeline) runExtraction(ctx context.Context, doc *dto.IncomeDocument, content []byte, forceOCR bool) {
	doc.OCRStatus = dto.OCRStatusProcessing
	if err := p.store.UpdateDocument(ctx, doc); err != nil {
		p.log.WithError(err).Error("failed to mark document processing")
	}

	diag := dto.Diagnostics{
		FileSize:         doc.FileSize,
		MIMEType:         doc.MIMEType,
		ProcessingMethod: "pdf_text",
	}

	isPDF := doc.MIMEType == "application/pdf"
	var directText string
	if isPDF {
		text, err := p.pdf.ExtractText(content)
		if err != nil {
			p.log.WithError(err).WithField("document_id", doc.ID).Warn("PDF text extraction failed")
		}
		directText = text
	}

	result := classify.Classify(directText, doc.DeclaredType)
	fields := extract.ParseFields(directText, result.FinalType)
	ocrUsed := false
	fullText := directText

	runOCR := forceOCR || !isPDF || extract.NeedsOCR(directText, fields, result.FinalType)
	if runOCR {
		ocrText, quality, payload := p.ocrPass(doc, content, isPDF)
		diag.OCRQuality = quality
		if strings.TrimSpace(ocrText) != "" || payload != "" {
			fullText = strings.TrimSpace(directText + "\n" + payload + "\n" + ocrText)
			reclassified := classify.Classify(fullText, doc.DeclaredType)
			ocrFields := extract.ParseFields(fullText, reclassified.FinalType)

			// Keep whichever parse recovered more of the type's required set.
			if fields == nil || reclassified.FinalType != result.FinalType ||
				(ocrFields != nil && ocrFields.PopulatedFieldCount() >= fields.PopulatedFieldCount()) {
				result = reclassified
				fields = ocrFields
				ocrUsed = true
				diag.ProcessingMethod = "ocr_tesseract"
			}
		}
	}

	diag.OCRUsed = ocrUsed
	diag.AnchorsFound = result.AnchorsFound
	diag.ClassificationOverride = result.Override
	diag.OriginalClassification = result.OriginalType
	diag.FinalClassification = result.FinalType
	doc.FinalType = result.FinalType

	if fields == nil || fields.PopulatedFieldCount() == 0 {
		diag.FailureStage = dto.FailureStageExtraction
		diag.FailureReason = dto.ErrExtractionEmpty.Error()
		doc.SetDiagnostics(diag)
		doc.Confidence = 0
		doc.FieldsJSON = nil
		doc.OCRStatus = dto.OCRStatusFailed
		if err := p.store.UpdateDocument(ctx, doc); err != nil {
			p.log.WithError(err).Error("failed to persist failed extraction")
		}
		p.log.WithFields(logrus.Fields{"document_id": doc.ID, "type": doc.FinalType}).
			Warn("extraction found no required fields")
		return
	}

	doc.Confidence = extract.Confidence(fields, ocrUsed)
	doc.SetDiagnostics(diag)
	if err := doc.SetFields(fields); err != nil {
		p.log.WithError(err).Error("failed to encode extracted fields")
	}
	doc.OCRStatus = dto.OCRStatusSuccess
	if err := p.store.UpdateDocument(ctx, doc); err != nil {
		p.log.WithError(err).Error("failed to persist extraction")
	}

	p.log.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"type":        doc.FinalType,
		"override":    result.Override,
		"ocr_used":    ocrUsed,
		"confidence":  doc.Confidence,
	}).Info("extraction complete")
}

// ocrPass collects page images, tries a form barcode, preprocesses each page
// and OCRs it, returning combined text, average quality, and any barcode
// payload.
func (p *Pipeline) ocrPass(doc *dto.IncomeDocument, content []byte, isPDF bool) (string, float64, string) {
	var images []image.Image
	if isPDF {
		imgs, err := p.pdf.ExtractImages(content)
		if err != nil || len(imgs) == 0 {
			p.log.WithField("document_id", doc.ID).Warnf("failed to extract images from PDF: %v", err)
			return "", 0, ""
		}
		images = imgs
	} else {
		img, _, err := image.Decode(bytes.NewReader(content))
		if err != nil {
			p.log.WithField("document_id", doc.ID).Warnf("failed to decode image: %v", err)
			return "", 0, ""
		}
		images = []image.Image{img}
	}

	var payload string
	for _, img := range images {
		if text, ok := classify.DecodeFormBarcode(img); ok {
			payload = text
			break
		}
	}

	var combined strings.Builder
	var totalQuality float64
	var pageCount int
	for _, img := range images {
		text, quality, err := p.ocr.TextFromImage(extract.PrepareForOCR(img))
		if err != nil {
			p.log.WithField("document_id", doc.ID).Warnf("OCR failed for a page: %v", err)
			continue
		}
		combined.WriteString(text)
		combined.WriteString("\n")
		totalQuality += quality
		pageCount++
	}

	avgQuality := 0.0
	if pageCount > 0 {
		avgQuality = totalQuality / float64(pageCount)
	}
	return combined.String(), avgQuality, payload
}

// Qualify runs one income calculation for a borrower under an agency rule
// set. It waits for all in-flight extractions to reach a terminal state and
// never interleaves with another calculation for the same borrower.
func (p *Pipeline) Qualify(ctx context.Context, borrowerID string, agency dto.Agency, requestedBy string) (*dto.IncomeCalculation, error) {
	rules, err := calc.RulesFor(agency)
	if err != nil {
		return nil, err
	}

	lock := p.gate.AggregationLock(borrowerID)
	lock.Lock()
	defer lock.Unlock()

	p.gate.WaitIdle(borrowerID)

	docs, err := p.store.ListDocuments(ctx, borrowerID)
	if err != nil {
		return nil, err
	}

	build := calc.BuildComponents(docs)
	calc.ApplyTrends(build.Components)
	agg := calc.Aggregate(build.Components, rules, build.Warnings)
	confidence := calc.Score(agg)

	calculation := &dto.IncomeCalculation{
		ID:            uuid.New(),
		BorrowerID:    borrowerID,
		Agency:        agency,
		MonthlyIncome: agg.MonthlyIncome,
		Confidence:    confidence,
		RequestedBy:   requestedBy,
		Components:    agg.Components,
	}
	calculation.SetWarnings(agg.Warnings)

	if err := p.store.SaveCalculation(ctx, calculation); err != nil {
		return nil, err
	}
	if err := p.store.SetQualifyingIncome(ctx, borrowerID, agency, agg.MonthlyIncome); err != nil {
		return nil, fmt.Errorf("CRM write-back failed: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"borrower_id":    borrowerID,
		"agency":         agency,
		"monthly_income": agg.MonthlyIncome,
		"confidence":     confidence,
		"warnings":       len(agg.Warnings),
	}).Info("income calculation complete")

	return calculation, nil
}

// SweepStale fails documents stuck in processing beyond the timeout, run
// periodically from a cron schedule.
func (p *Pipeline) SweepStale(ctx context.Context, timeout time.Duration) {
	n, err := p.store.FailStaleProcessing(ctx, time.Now().Add(-timeout))
	if err != nil {
		p.log.WithError(err).Error("stale-document sweep failed")
		return
	}
	if n > 0 {
		p.log.Warnf("marked %d stuck documents as failed", n)
	}
}
