package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentType string

const (
	DocTypePayStub   DocumentType = "pay_stub"
	DocTypeW2        DocumentType = "w2"
	DocType1099      DocumentType = "1099"
	DocType1040      DocumentType = "1040"
	DocTypeScheduleC DocumentType = "schedule_c"
	DocTypeScheduleE DocumentType = "schedule_e"
	DocTypeScheduleF DocumentType = "schedule_f"
	DocTypeK1        DocumentType = "k1"
	DocType1065      DocumentType = "1065"
	DocType1120S     DocumentType = "1120s"
	DocTypeVOE       DocumentType = "voe"
	DocTypeOther     DocumentType = "other"
)

type OCRStatus string

const (
	OCRStatusPending    OCRStatus = "pending"
	OCRStatusProcessing OCRStatus = "processing"
	OCRStatusSuccess    OCRStatus = "success"
	OCRStatusFailed     OCRStatus = "failed"
)

type Agency string

const (
	AgencyFannieMae  Agency = "fannie_mae"
	AgencyFreddieMac Agency = "freddie_mac"
	AgencyFHA        Agency = "fha"
	AgencyVA         Agency = "va"
	AgencyUSDA       Agency = "usda"
)

type ComponentType string

const (
	ComponentBaseSalary        ComponentType = "base_salary"
	ComponentBaseHourly        ComponentType = "base_hourly"
	ComponentW2Income          ComponentType = "w2_income"
	ComponentVOEVerified       ComponentType = "voe_verified"
	ComponentOvertime          ComponentType = "overtime"
	ComponentBonus             ComponentType = "bonus"
	ComponentCommission        ComponentType = "commission"
	ComponentVariableIncomeYTD ComponentType = "variable_income_ytd"
	ComponentSelfEmployment    ComponentType = "self_employment"
	ComponentScheduleC         ComponentType = "schedule_c"
	ComponentRentalIncome      ComponentType = "rental_income"
	ComponentScheduleE         ComponentType = "schedule_e"
	ComponentK1Income          ComponentType = "k1_income"
	ComponentOther             ComponentType = "other"
)

type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

type PayFrequency string

const (
	FrequencyWeekly      PayFrequency = "weekly"
	FrequencyBiweekly    PayFrequency = "biweekly"
	FrequencySemimonthly PayFrequency = "semimonthly"
	FrequencyMonthly     PayFrequency = "monthly"
	FrequencyAnnual      PayFrequency = "annual"
)

// MonthlyFactor converts one pay-period gross into a monthly figure.
func (f PayFrequency) MonthlyFactor() float64 {
	switch f {
	case FrequencyWeekly:
		return 52.0 / 12.0
	case FrequencyBiweekly:
		return 26.0 / 12.0
	case FrequencySemimonthly:
		return 2.0
	case FrequencyMonthly:
		return 1.0
	case FrequencyAnnual:
		return 1.0 / 12.0
	}
	return 0
}

// Diagnostics records how a document was processed, success or not, so a
// failed extraction can be retried with OCR without re-uploading.
type Diagnostics struct {
	OCRUsed                bool         `json:"ocr_used"`
	ProcessingMethod       string       `json:"processing_method"`
	AnchorsFound           []string     `json:"anchors_found"`
	ClassificationOverride bool         `json:"classification_override"`
	OriginalClassification DocumentType `json:"original_classification,omitempty"`
	FinalClassification    DocumentType `json:"final_classification,omitempty"`
	FileSize               int64        `json:"file_size"`
	MIMEType               string       `json:"mime_type"`
	OCRQuality             float64      `json:"ocr_quality,omitempty"`
	FailureStage           string       `json:"failure_stage,omitempty"`
	FailureReason          string       `json:"failure_reason,omitempty"`
}

// Failure stages distinguish "could not read the file" from "read it but
// found nothing" in the diagnostics payload.
const (
	FailureStageIngestion  = "ingestion"
	FailureStageExtraction = "extraction"
)

// IncomeDocument is one uploaded file belonging to one borrower.
type IncomeDocument struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BorrowerID      string         `gorm:"index;not null" json:"borrower_id"`
	FileName        string         `gorm:"size:255;not null" json:"file_name"`
	StorePath       string         `gorm:"size:512" json:"-"`
	FileSize        int64          `json:"file_size"`
	MIMEType        string         `gorm:"size:128" json:"mime_type"`
	DeclaredType    DocumentType   `gorm:"size:32" json:"declared_type"`
	FinalType       DocumentType   `gorm:"size:32;index" json:"final_type"`
	OCRStatus       OCRStatus      `gorm:"size:16;index" json:"ocr_status"`
	FieldsJSON      []byte         `gorm:"type:jsonb" json:"-"`
	DiagnosticsJSON []byte         `gorm:"type:jsonb" json:"-"`
	Confidence      float64        `json:"confidence"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// Fields decodes the extracted field payload, nil when nothing was extracted.
func (d *IncomeDocument) Fields() (FieldSet, error) {
	if len(d.FieldsJSON) == 0 {
		return nil, nil
	}
	return UnmarshalFields(d.FieldsJSON)
}

func (d *IncomeDocument) SetFields(fs FieldSet) error {
	if fs == nil {
		d.FieldsJSON = nil
		return nil
	}
	b, err := MarshalFields(fs)
	if err != nil {
		return err
	}
	d.FieldsJSON = b
	return nil
}

func (d *IncomeDocument) Diagnostics() Diagnostics {
	var diag Diagnostics
	if len(d.DiagnosticsJSON) > 0 {
		_ = json.Unmarshal(d.DiagnosticsJSON, &diag)
	}
	return diag
}

func (d *IncomeDocument) SetDiagnostics(diag Diagnostics) {
	b, _ := json.Marshal(diag)
	d.DiagnosticsJSON = b
}

// IncomeComponent is one typed contribution to monthly qualifying income.
// Year1/Year2 amounts are provenance; MonthlyAmount is the only field the
// aggregator sums.
type IncomeComponent struct {
	ID                uint            `gorm:"primaryKey" json:"-"`
	CalculationID     uuid.UUID       `gorm:"type:uuid;index" json:"-"`
	Type              ComponentType   `gorm:"size:32" json:"type"`
	CalculationMethod string          `gorm:"size:128" json:"calculation_method"`
	Year1Amount       *float64        `json:"year1_amount,omitempty"`
	Year2Amount       *float64        `json:"year2_amount,omitempty"`
	MonthlyAmount     float64         `json:"monthly_amount"`
	RecentYearMonthly *float64        `json:"-"`
	TrendDirection    *TrendDirection `gorm:"size:8" json:"trend_direction,omitempty"`
	TrendPercent      *float64        `json:"trend_percent,omitempty"`
	Notes             string          `gorm:"size:512" json:"notes,omitempty"`
	DocumentIDsJSON   []byte          `gorm:"type:jsonb" json:"-"`
	SourceConfidence  float64         `json:"source_confidence"`
	OCRDerived        bool            `json:"ocr_derived"`
	Excluded          bool            `json:"excluded"`
	ExclusionReason   string          `gorm:"size:255" json:"exclusion_reason,omitempty"`
}

func (c *IncomeComponent) DocumentIDs() []uuid.UUID {
	var ids []uuid.UUID
	if len(c.DocumentIDsJSON) > 0 {
		_ = json.Unmarshal(c.DocumentIDsJSON, &ids)
	}
	return ids
}

func (c *IncomeComponent) SetDocumentIDs(ids []uuid.UUID) {
	b, _ := json.Marshal(ids)
	c.DocumentIDsJSON = b
}

// IncomeCalculation is one qualification result for a borrower at a point in
// time. Recomputation appends a new row; prior calculations are audit history.
type IncomeCalculation struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	BorrowerID    string            `gorm:"index;not null" json:"borrower_id"`
	Agency        Agency            `gorm:"size:16" json:"agency"`
	MonthlyIncome float64           `json:"result_monthly_income"`
	Confidence    float64           `json:"confidence"`
	WarningsJSON  []byte            `gorm:"type:jsonb" json:"-"`
	RequestedBy   string            `gorm:"size:128" json:"requested_by,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	Components    []IncomeComponent `gorm:"foreignKey:CalculationID" json:"components"`
}

func (c *IncomeCalculation) Warnings() []string {
	var ws []string
	if len(c.WarningsJSON) > 0 {
		_ = json.Unmarshal(c.WarningsJSON, &ws)
	}
	return ws
}

func (c *IncomeCalculation) SetWarnings(ws []string) {
	if ws == nil {
		ws = []string{}
	}
	b, _ := json.Marshal(ws)
	c.WarningsJSON = b
}

// Borrower mirrors the CRM record. The engine writes back a single
// qualifying-income figure; component detail stays on the calculation.
type Borrower struct {
	ID                      string     `gorm:"primaryKey;size:64" json:"id"`
	Name                    string     `gorm:"size:255" json:"name"`
	QualifyingMonthlyIncome float64    `json:"qualifying_monthly_income"`
	QualifiedAgency         Agency     `gorm:"size:16" json:"qualified_agency,omitempty"`
	QualifiedAt             *time.Time `json:"qualified_at,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}
