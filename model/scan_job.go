package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ScanStatus represents the status of a worksheet scan job
type ScanStatus string

const (
	ScanPending    ScanStatus = "pending"
	ScanProcessing ScanStatus = "processing"
	ScanCompleted  ScanStatus = "completed"
	ScanFailed     ScanStatus = "failed"
)

// ScanJob tracks OCR-based problem extraction from an uploaded worksheet PDF
type ScanJob struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	JobKey     string         `gorm:"type:varchar(40);uniqueIndex;not null" json:"job_key"` // UUID for polling clients
	AcademyID  uint           `gorm:"index;not null" json:"academy_id"`
	UploaderID uint           `gorm:"index" json:"uploader_id"`
	FileName   string         `gorm:"type:varchar(255);not null" json:"file_name"`
	FileURL    string         `gorm:"type:varchar(500)" json:"file_url,omitempty"`
	PageCount  int            `gorm:"default:0" json:"page_count"`
	Searchable bool           `gorm:"default:false" json:"searchable"` // True when the PDF already carries a text layer
	Status     ScanStatus     `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Error      string         `gorm:"type:text" json:"error,omitempty"`
	RawText    string         `gorm:"type:text" json:"-"`                  // OCR output kept for re-runs and debugging
	Drafts     datatypes.JSON `gorm:"type:jsonb" json:"drafts,omitempty"`  // []ProblemDraft awaiting review
}

// ProblemDraft is a problem candidate extracted from a scanned worksheet,
// held on the scan job until a teacher reviews and commits it to the catalog.
type ProblemDraft struct {
	Subject     string   `json:"subject"`
	Grade       string   `json:"grade,omitempty"`
	Unit        string   `json:"unit"`
	Content     string   `json:"content"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation,omitempty"`
	Difficulty  string   `json:"difficulty"`
	ProblemType string   `json:"problem_type,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// DraftList decodes the drafts jsonb column
func (j *ScanJob) DraftList() ([]ProblemDraft, error) {
	var drafts []ProblemDraft
	if len(j.Drafts) == 0 {
		return drafts, nil
	}
	if err := json.Unmarshal(j.Drafts, &drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

// SetDrafts encodes drafts into the jsonb column
func (j *ScanJob) SetDrafts(drafts []ProblemDraft) error {
	data, err := json.Marshal(drafts)
	if err != nil {
		return err
	}
	j.Drafts = datatypes.JSON(data)
	return nil
}
