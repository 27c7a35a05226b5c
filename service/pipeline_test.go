package service

import (
	"context"
	"image"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crestline-lending/income-engine/dto"
)

type fakeStore struct {
	mu        sync.Mutex
	files     map[string][]byte
	docs      map[uuid.UUID]dto.IncomeDocument
	calcs     map[uuid.UUID]dto.IncomeCalculation
	borrowers map[string]float64
	updates   map[uuid.UUID]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		files:     make(map[string][]byte),
		docs:      make(map[uuid.UUID]dto.IncomeDocument),
		calcs:     make(map[uuid.UUID]dto.IncomeCalculation),
		borrowers: make(map[string]float64),
		updates:   make(map[uuid.UUID]int),
	}
}

func (s *fakeStore) SaveFile(borrowerID, fileName string, content []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := borrowerID + "/" + fileName
	s.files[path] = content
	return path, nil
}

func (s *fakeStore) ReadFile(path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.files[path]
	if !ok {
		return nil, dto.ErrFileUnreadable
	}
	return content, nil
}

func (s *fakeStore) CreateDocument(_ context.Context, doc *dto.IncomeDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = *doc
	return nil
}

func (s *fakeStore) GetDocument(_ context.Context, id uuid.UUID) (*dto.IncomeDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, dto.ErrDocumentNotFound
	}
	out := doc
	return &out, nil
}

func (s *fakeStore) ListDocuments(_ context.Context, borrowerID string) ([]dto.IncomeDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []dto.IncomeDocument
	for _, doc := range s.docs {
		if doc.BorrowerID == borrowerID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateDocument(_ context.Context, doc *dto.IncomeDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.UpdatedAt = time.Now()
	s.docs[doc.ID] = *doc
	s.updates[doc.ID]++
	return nil
}

func (s *fakeStore) RemoveDocument(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return dto.ErrDocumentNotFound
	}
	delete(s.docs, id)
	return nil
}

func (s *fakeStore) SaveCalculation(_ context.Context, calculation *dto.IncomeCalculation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calcs[calculation.ID] = *calculation
	return nil
}

func (s *fakeStore) GetCalculation(_ context.Context, id uuid.UUID) (*dto.IncomeCalculation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	calculation, ok := s.calcs[id]
	if !ok {
		return nil, dto.ErrCalcNotFound
	}
	out := calculation
	return &out, nil
}

func (s *fakeStore) ListCalculations(_ context.Context, borrowerID string) ([]dto.IncomeCalculation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []dto.IncomeCalculation
	for _, calculation := range s.calcs {
		if calculation.BorrowerID == borrowerID {
			out = append(out, calculation)
		}
	}
	return out, nil
}

func (s *fakeStore) SetQualifyingIncome(_ context.Context, borrowerID string, _ dto.Agency, monthly float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.borrowers[borrowerID] = monthly
	return nil
}

func (s *fakeStore) FailStaleProcessing(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, doc := range s.docs {
		if doc.OCRStatus == dto.OCRStatusProcessing && doc.UpdatedAt.Before(cutoff) {
			doc.OCRStatus = dto.OCRStatusFailed
			s.docs[id] = doc
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) updateCount(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates[id]
}

type fakePDF struct {
	texts  map[string]string
	images []image.Image
}

func (f *fakePDF) ExtractText(pdfData []byte) (string, error) {
	return f.texts[string(pdfData)], nil
}

func (f *fakePDF) ExtractImages([]byte) ([]image.Image, error) {
	return f.images, nil
}

type fakeOCR struct {
	text    string
	quality float64
}

func (f *fakeOCR) TextFromImage(image.Image) (string, float64, error) {
	return f.text, f.quality, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

const stubPDF = "%PDF-1.4 stub"

const stubText = `
Acme Staffing LLC
Earnings Statement
Pay Period: 01/01/2025 - 09/30/2025
Pay Frequency: Semi-Monthly
Gross Pay: 2,500.00    45,000.00
Net Pay: 2,100.00
`

func newTestPipeline(texts map[string]string, images []image.Image, ocr *fakeOCR) (*Pipeline, *fakeStore) {
	store := newFakeStore()
	if ocr == nil {
		ocr = &fakeOCR{}
	}
	p := NewPipeline(store, &fakePDF{texts: texts, images: images}, ocr, quietLogger())
	return p, store
}

func TestUploadRejectsUnsupportedMIME(t *testing.T) {
	p, store := newTestPipeline(nil, nil, nil)

	doc, err := p.Upload(context.Background(), "b-100", "resume.txt", []byte("plain text resume"), "")

	assert.ErrorIs(t, err, dto.ErrUnsupportedMIME)
	require.NotNil(t, doc)
	assert.Equal(t, dto.OCRStatusFailed, doc.OCRStatus)

	stored, err := store.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	diag := stored.Diagnostics()
	assert.Equal(t, dto.FailureStageIngestion, diag.FailureStage)
	assert.Contains(t, diag.FailureReason, "unsupported MIME type")
}

func TestUploadAndQualify(t *testing.T) {
	p, store := newTestPipeline(map[string]string{stubPDF: stubText}, nil, nil)
	ctx := context.Background()

	doc, err := p.Upload(ctx, "b-100", "paystub-sep.pdf", []byte(stubPDF), dto.DocTypePayStub)
	require.NoError(t, err)
	assert.Equal(t, dto.OCRStatusPending, doc.OCRStatus)

	// Qualify waits for the extraction to reach a terminal state.
	calculation, err := p.Qualify(ctx, "b-100", dto.AgencyFannieMae, "m.ortiz")
	require.NoError(t, err)

	stored, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.OCRStatusSuccess, stored.OCRStatus)
	assert.Equal(t, dto.DocTypePayStub, stored.FinalType)
	assert.False(t, stored.Diagnostics().OCRUsed)

	// $45,000 YTD over nine whole months.
	assert.InDelta(t, 5000.0, calculation.MonthlyIncome, 1e-9)
	require.Len(t, calculation.Components, 1)
	assert.Equal(t, dto.ComponentBaseSalary, calculation.Components[0].Type)

	store.mu.Lock()
	writeBack := store.borrowers["b-100"]
	store.mu.Unlock()
	assert.InDelta(t, 5000.0, writeBack, 1e-9)
}

func TestScannedPDFFallsBackToOCR(t *testing.T) {
	ocrText := `
Form W-2 Wage and Tax Statement 2024
Employer's name: Summit Analytics Inc
Wages, tips, other compensation: 96,000.00
`
	page := image.NewGray(image.Rect(0, 0, 60, 60))
	p, store := newTestPipeline(
		map[string]string{"%PDF-1.4 scan": ""},
		[]image.Image{page},
		&fakeOCR{text: ocrText, quality: 88},
	)
	ctx := context.Background()

	doc, err := p.Upload(ctx, "b-100", "w2-scan.pdf", []byte("%PDF-1.4 scan"), "")
	require.NoError(t, err)

	_, err = p.Qualify(ctx, "b-100", dto.AgencyFannieMae, "m.ortiz")
	require.NoError(t, err)

	stored, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.OCRStatusSuccess, stored.OCRStatus)
	assert.Equal(t, dto.DocTypeW2, stored.FinalType)

	diag := stored.Diagnostics()
	assert.True(t, diag.OCRUsed)
	assert.Equal(t, "ocr_tesseract", diag.ProcessingMethod)
	assert.InDelta(t, 88.0, diag.OCRQuality, 1e-9)
	// Full extraction, discounted for the OCR path.
	assert.InDelta(t, 0.85, stored.Confidence, 1e-9)
}

func TestUnreadableScanFailsWithDiagnostics(t *testing.T) {
	p, store := newTestPipeline(map[string]string{"%PDF-1.4 blank": ""}, nil, nil)
	ctx := context.Background()

	doc, err := p.Upload(ctx, "b-100", "blank.pdf", []byte("%PDF-1.4 blank"), "")
	require.NoError(t, err)

	calculation, err := p.Qualify(ctx, "b-100", dto.AgencyFannieMae, "m.ortiz")
	require.NoError(t, err)

	stored, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.OCRStatusFailed, stored.OCRStatus)
	assert.Equal(t, dto.FailureStageExtraction, stored.Diagnostics().FailureStage)

	assert.Zero(t, calculation.MonthlyIncome)
	assert.Zero(t, calculation.Confidence)
	assert.Contains(t, calculation.Warnings(), "no qualifying income found")
}

func TestReprocessBusyDocument(t *testing.T) {
	p, store := newTestPipeline(nil, nil, nil)
	ctx := context.Background()

	doc := dto.IncomeDocument{ID: uuid.New(), BorrowerID: "b-100", OCRStatus: dto.OCRStatusProcessing}
	require.NoError(t, store.CreateDocument(ctx, &doc))

	_, err := p.Reprocess(ctx, doc.ID, false)
	assert.ErrorIs(t, err, dto.ErrDocumentBusy)
}

func TestReprocessTouchesOnlyTargetDocument(t *testing.T) {
	p, store := newTestPipeline(map[string]string{stubPDF: stubText}, nil, nil)
	ctx := context.Background()

	target, err := p.Upload(ctx, "b-100", "paystub-sep.pdf", []byte(stubPDF), dto.DocTypePayStub)
	require.NoError(t, err)
	_, err = p.Qualify(ctx, "b-100", dto.AgencyFannieMae, "m.ortiz")
	require.NoError(t, err)

	sibling := dto.IncomeDocument{ID: uuid.New(), BorrowerID: "b-100", OCRStatus: dto.OCRStatusSuccess}
	require.NoError(t, store.CreateDocument(ctx, &sibling))
	siblingUpdates := store.updateCount(sibling.ID)

	_, err = p.Reprocess(ctx, target.ID, false)
	require.NoError(t, err)
	_, err = p.Qualify(ctx, "b-100", dto.AgencyFannieMae, "m.ortiz")
	require.NoError(t, err)

	stored, err := store.GetDocument(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.OCRStatusSuccess, stored.OCRStatus)
	assert.Equal(t, siblingUpdates, store.updateCount(sibling.ID))
}

func TestQualifyUnknownAgency(t *testing.T) {
	p, _ := newTestPipeline(nil, nil, nil)

	_, err := p.Qualify(context.Background(), "b-100", "hud", "m.ortiz")
	assert.ErrorIs(t, err, dto.ErrUnknownAgency)
}

func TestSweepStaleFailsStuckDocuments(t *testing.T) {
	p, store := newTestPipeline(nil, nil, nil)
	ctx := context.Background()

	stuck := dto.IncomeDocument{ID: uuid.New(), BorrowerID: "b-100", OCRStatus: dto.OCRStatusProcessing}
	require.NoError(t, store.CreateDocument(ctx, &stuck))
	store.mu.Lock()
	d := store.docs[stuck.ID]
	d.UpdatedAt = time.Now().Add(-2 * time.Hour)
	store.docs[stuck.ID] = d
	store.mu.Unlock()

	p.SweepStale(ctx, 30*time.Minute)

	stored, err := store.GetDocument(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.OCRStatusFailed, stored.OCRStatus)
}
