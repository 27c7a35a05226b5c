// Package store persists documents, calculations, and the borrower CRM
// record in Postgres via gorm, and keeps uploaded files on disk.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/crestline-lending/income-engine/dto"
)

type GormStore struct {
	db      *gorm.DB
	fileDir string
	log     *logrus.Logger
}

// New opens the Postgres connection, runs migrations, and ensures the file
// directory exists.
func New(dsn, fileDir string, log *logrus.Logger) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres database: %w", err)
	}

	// Migrate models individually so a failure on one doesn't block others.
	for _, m := range []interface{}{
		&dto.Borrower{}, &dto.IncomeDocument{}, &dto.IncomeCalculation{}, &dto.IncomeComponent{},
	} {
		if err := db.AutoMigrate(m); err != nil {
			log.Warnf("migration warning (%T): %v", m, err)
		}
	}

	if err := os.MkdirAll(fileDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create file directory: %w", err)
	}

	return &GormStore{db: db, fileDir: fileDir, log: log}, nil
}

// SaveFile writes uploaded content to disk and returns the store path.
func (s *GormStore) SaveFile(borrowerID, fileName string, content []byte) (string, error) {
	dir := filepath.Join(s.fileDir, borrowerID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", err
	}
	path := filepath.Join(dir, uuid.NewString()+filepath.Ext(fileName))
	if err := os.WriteFile(path, content, 0o640); err != nil {
		return "", err
	}
	return path, nil
}

func (s *GormStore) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dto.ErrFileUnreadable, err)
	}
	return data, nil
}

func (s *GormStore) CreateDocument(ctx context.Context, doc *dto.IncomeDocument) error {
	return s.db.WithContext(ctx).Create(doc).Error
}

func (s *GormStore) GetDocument(ctx context.Context, id uuid.UUID) (*dto.IncomeDocument, error) {
	var doc dto.IncomeDocument
	err := s.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, dto.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *GormStore) ListDocuments(ctx context.Context, borrowerID string) ([]dto.IncomeDocument, error) {
	var docs []dto.IncomeDocument
	err := s.db.WithContext(ctx).
		Where("borrower_id = ?", borrowerID).
		Order("created_at asc").
		Find(&docs).Error
	return docs, err
}

func (s *GormStore) UpdateDocument(ctx context.Context, doc *dto.IncomeDocument) error {
	return s.db.WithContext(ctx).Save(doc).Error
}

// RemoveDocument soft-deletes; documents referenced by calculations stay
// queryable through gorm's Unscoped.
func (s *GormStore) RemoveDocument(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&dto.IncomeDocument{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return dto.ErrDocumentNotFound
	}
	return nil
}

func (s *GormStore) SaveCalculation(ctx context.Context, calculation *dto.IncomeCalculation) error {
	return s.db.WithContext(ctx).Create(calculation).Error
}

func (s *GormStore) GetCalculation(ctx context.Context, id uuid.UUID) (*dto.IncomeCalculation, error) {
	var calculation dto.IncomeCalculation
	err := s.db.WithContext(ctx).Preload("Components").First(&calculation, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, dto.ErrCalcNotFound
	}
	if err != nil {
		return nil, err
	}
	return &calculation, nil
}

func (s *GormStore) ListCalculations(ctx context.Context, borrowerID string) ([]dto.IncomeCalculation, error) {
	var calculations []dto.IncomeCalculation
	err := s.db.WithContext(ctx).
		Preload("Components").
		Where("borrower_id = ?", borrowerID).
		Order("created_at desc").
		Find(&calculations).Error
	return calculations, err
}

// SetQualifyingIncome writes the single qualifying figure back to the
// borrower's CRM record, creating the record if the CRM has not synced yet.
func (s *GormStore) SetQualifyingIncome(ctx context.Context, borrowerID string, agency dto.Agency, monthly float64) error {
	now := time.Now().UTC()
	borrower := dto.Borrower{
		ID:                      borrowerID,
		QualifyingMonthlyIncome: monthly,
		QualifiedAgency:         agency,
		QualifiedAt:             &now,
	}
	res := s.db.WithContext(ctx).Model(&dto.Borrower{}).Where("id = ?", borrowerID).
		Updates(map[string]interface{}{
			"qualifying_monthly_income": monthly,
			"qualified_agency":          agency,
			"qualified_at":              now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.db.WithContext(ctx).Create(&borrower).Error
	}
	return nil
}

// FailStaleProcessing marks documents stuck in processing since before the
// cutoff as failed so they can be retried with OCR.
func (s *GormStore) FailStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&dto.IncomeDocument{}).
		Where("ocr_status = ? AND updated_at < ?", dto.OCRStatusProcessing, cutoff).
		Updates(map[string]interface{}{"ocr_status": dto.OCRStatusFailed})
	return res.RowsAffected, res.Error
}
