package model

import (
	"time"

	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	ApplicationStatusPending     ApplicationStatus = "pending"      // submitted, waiting for inspection
	ApplicationStatusUnderReview ApplicationStatus = "under_review" // inspector assigned
	ApplicationStatusApproved    ApplicationStatus = "approved"     // eligible for issuance
	ApplicationStatusRejected    ApplicationStatus = "rejected"
)

// Application is a certification request filed by a business. The review
// workflow that moves it to approved lives outside this service; issuance
// only reads the resulting status.
type Application struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	BusinessID uint     `gorm:"index;not null" json:"business_id"`
	Business   Business `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`

	Status          ApplicationStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	SubmittedAt     *time.Time        `json:"submitted_at,omitempty"`
	ReviewedAt      *time.Time        `json:"reviewed_at,omitempty"`
	ReviewedBy      *uint             `json:"reviewed_by,omitempty"` // inspector or admin id
	InspectorNotes  string            `gorm:"type:text" json:"inspector_notes,omitempty"`
	RejectionReason string            `gorm:"type:text" json:"rejection_reason,omitempty"`
}

func (Application) TableName() string {
	return "applications"
}

func (a *Application) IsApproved() bool {
	return a.Status == ApplicationStatusApproved
}
