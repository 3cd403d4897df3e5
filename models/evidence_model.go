package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EvidencePending  = "pending"
	EvidenceApproved = "approved"
	EvidenceRejected = "rejected"
)

type Evidence struct {
	Base
	StudentID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_evidence_student_activity" json:"student_id"`
	ActivityID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_evidence_student_activity" json:"activity_id"`
	Status     string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	FileURL    string     `gorm:"size:512" json:"file_url"`
	Comment    string     `gorm:"type:text" json:"comment"`
	ReviewedAt *time.Time `json:"reviewed_at"`

	Student  *User     `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Activity *Activity `gorm:"foreignKey:ActivityID" json:"activity,omitempty"`
}
