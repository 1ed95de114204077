package record

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PredictionLabel is the diagnostic verdict produced by the external
// inference service. Stored verbatim, never recomputed.
type PredictionLabel string

const (
	LabelPneumonia PredictionLabel = "Pneumonia"
	LabelNormal    PredictionLabel = "Normal"
)

func (l PredictionLabel) IsValid() bool {
	switch l {
	case LabelPneumonia, LabelNormal:
		return true
	}
	return false
}

// Labels returns the full label set in display order. Aggregations zero-fill
// against this list so absent labels still show up with a count of zero.
func Labels() []PredictionLabel {
	return []PredictionLabel{LabelPneumonia, LabelNormal}
}

// PercentageTolerance bounds how far pneumonia% + normal% may drift from 100.
const PercentageTolerance = 0.01

// ScanRecord is one X-ray submission: patient metadata plus the diagnostic
// facts returned by the prediction service. The label, percentages,
// confidence and model are write-once; only the patient metadata fields may
// change after creation.
type ScanRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_scan_records_owner_created,priority:2" json:"date"`

	Owner string `gorm:"column:owner;type:varchar(255);not null;index:idx_scan_records_owner_created,priority:1" json:"-"`

	Name         string `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Surname      string `gorm:"column:surname;type:varchar(100);not null" json:"surname"`
	Age          int    `gorm:"column:age;not null" json:"age"`
	MobileNumber string `gorm:"column:mobile_no;type:varchar(10);not null" json:"mobile_no"`

	PredictionLabel     PredictionLabel `gorm:"column:prediction;type:varchar(20);not null;index" json:"prediction"`
	PneumoniaPercentage float64         `gorm:"column:pneumonia_percentage;not null" json:"pneumonia_percentage"`
	NormalPercentage    float64         `gorm:"column:normal_percentage;not null" json:"normal_percentage"`
	Confidence          float64         `gorm:"column:confidence" json:"confidence"`
	ModelUsed           string          `gorm:"column:model_used;type:varchar(50)" json:"model_used"`

	ImageURL       string `gorm:"column:image_url;type:text" json:"image_url"`
	SaliencyMapURL string `gorm:"column:saliency_map_url;type:text" json:"saliency_map_url"`
}

func (ScanRecord) TableName() string {
	return "clinical.scan_records"
}

func (r *ScanRecord) FullName() string {
	return strings.TrimSpace(r.Name + " " + r.Surname)
}

// PercentagesConsistent reports whether the two percentages sum to 100 within
// tolerance.
func (r *ScanRecord) PercentagesConsistent() bool {
	return math.Abs(r.PneumoniaPercentage+r.NormalPercentage-100) <= PercentageTolerance
}

type CreateRecordCommand struct {
	Name         string
	Surname      string
	Age          int
	MobileNumber string

	PredictionLabel     PredictionLabel
	PneumoniaPercentage float64
	NormalPercentage    float64
	Confidence          float64
	ModelUsed           string

	ImageURL       string
	SaliencyMapURL string
}

// UpdateRecordCommand carries the patient metadata a clinician may correct
// after the fact. Diagnostic facts have no counterpart here on purpose.
type UpdateRecordCommand struct {
	Name         *string
	Surname      *string
	Age          *int
	MobileNumber *string
}

func (c *UpdateRecordCommand) IsEmpty() bool {
	return c.Name == nil && c.Surname == nil && c.Age == nil && c.MobileNumber == nil
}
