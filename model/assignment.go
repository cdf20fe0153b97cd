package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubmissionStatus represents the lifecycle of a student's assignment submission
type SubmissionStatus string

const (
	SubmissionAssigned  SubmissionStatus = "assigned"
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
)

// Assignment represents a problem set handed out to a class
type Assignment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	ClassID     uint           `gorm:"index;not null" json:"class_id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Subject     string         `gorm:"type:varchar(50)" json:"subject"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	ProblemIDs  datatypes.JSON `gorm:"type:jsonb" json:"problem_ids"` // Ordered problem id list

	// Relationships
	Class       Class               `gorm:"foreignKey:ClassID;constraint:OnDelete:CASCADE" json:"-"`
	Submissions []StudentAssignment `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"submissions,omitempty"`
}

// ProblemIDList decodes the ordered problem-id jsonb column
func (a *Assignment) ProblemIDList() []uint {
	var ids []uint
	if len(a.ProblemIDs) == 0 {
		return ids
	}
	_ = json.Unmarshal(a.ProblemIDs, &ids)
	return ids
}

// SubmittedAnswer is one answer inside a submission's answers jsonb column.
// IsCorrect stays nil until the submission is graded.
type SubmittedAnswer struct {
	ProblemID uint   `json:"problem_id"`
	Answer    string `json:"answer"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

// StudentAssignment represents one student's submission of an assignment
type StudentAssignment struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `gorm:"index" json:"-"`
	AssignmentID uint             `gorm:"index;not null" json:"assignment_id"`
	StudentID    uint             `gorm:"index;not null" json:"student_id"`
	Status       SubmissionStatus `gorm:"type:varchar(20);default:'assigned'" json:"status"`
	SubmittedAt  *time.Time       `json:"submitted_at,omitempty"`
	GradedAt     *time.Time       `json:"graded_at,omitempty"`
	Score        int              `gorm:"default:0" json:"score"`           // 0-100, set at grading
	Answers      datatypes.JSON   `gorm:"type:jsonb" json:"answers"`        // []SubmittedAnswer

	// Relationships
	Assignment Assignment `gorm:"foreignKey:AssignmentID;constraint:OnDelete:CASCADE" json:"assignment,omitempty"`
	Student    Student    `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"-"`
}

// AnswerList decodes the answers jsonb column
func (sa *StudentAssignment) AnswerList() ([]SubmittedAnswer, error) {
	var answers []SubmittedAnswer
	if len(sa.Answers) == 0 {
		return answers, nil
	}
	if err := json.Unmarshal(sa.Answers, &answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers for submission %d: %w", sa.ID, err)
	}
	return answers, nil
}

// SetAnswers encodes answers into the jsonb column
func (sa *StudentAssignment) SetAnswers(answers []SubmittedAnswer) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	sa.Answers = datatypes.JSON(data)
	return nil
}
