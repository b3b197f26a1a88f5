package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// ProjectStatusPending marks a submission awaiting evaluation.
	ProjectStatusPending = "pending"
	// ProjectStatusEvaluated marks a submission carrying feedback.
	ProjectStatusEvaluated = "evaluated"
)

// ProjectSubmission is a learner's project for one course. A learner holds at
// most one submission per course; resubmitting replaces it.
type ProjectSubmission struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	UserID      string         `gorm:"size:36;not null;uniqueIndex:idx_project_learner_course" json:"user_id"`
	CourseID    string         `gorm:"size:36;not null;uniqueIndex:idx_project_learner_course;index" json:"course_id"`
	FileURL     string         `gorm:"size:512" json:"file_url"`
	GithubLink  string         `gorm:"size:512" json:"github_link"`
	Status      string         `gorm:"size:32;not null;index" json:"status"`
	SubmittedAt time.Time      `gorm:"not null" json:"submitted_at"`
	Rating      *int           `json:"rating"`
	Comment     string         `gorm:"type:text" json:"comment"`
	Tags        datatypes.JSON `gorm:"type:json" json:"-"`
	EvaluatedAt *time.Time     `json:"evaluated_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	User        User           `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
	Course      Course         `gorm:"foreignKey:CourseID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
}

// BeforeCreate assigns an id.
func (p *ProjectSubmission) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// SetTags serializes the tag list into the JSON column.
func (p *ProjectSubmission) SetTags(tags []string) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		p.Tags = datatypes.JSON([]byte("[]"))
		return
	}
	p.Tags = datatypes.JSON(data)
}

// TagList deserializes the stored tags.
func (p ProjectSubmission) TagList() []string {
	if len(p.Tags) == 0 {
		return []string{}
	}

	var tags []string
	if err := json.Unmarshal(p.Tags, &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

// IsEvaluated reports whether an instructor has rated the submission.
func (p ProjectSubmission) IsEvaluated() bool {
	return p.Status == ProjectStatusEvaluated
}
