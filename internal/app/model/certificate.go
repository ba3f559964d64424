package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CertificateStatus is what storage records. Expiry is never stored.
type CertificateStatus string

const (
	CertificateStatusActive  CertificateStatus = "active"
	CertificateStatusRevoked CertificateStatus = "revoked"
)

// EffectiveStatus is the status reported to callers, computed at read time.
type EffectiveStatus string

const (
	EffectiveStatusActive  EffectiveStatus = "active"
	EffectiveStatusExpired EffectiveStatus = "expired"
	EffectiveStatusRevoked EffectiveStatus = "revoked"
)

// Valid reports whether s is one of the three effective statuses.
func (s EffectiveStatus) Valid() bool {
	switch s {
	case EffectiveStatusActive, EffectiveStatusExpired, EffectiveStatusRevoked:
		return true
	}
	return false
}

// ComputeEffectiveStatus derives the displayed status. Revoked wins over
// expired, expired wins over active. A certificate is still active at the
// exact expiry instant.
func ComputeEffectiveStatus(status CertificateStatus, expiryDate, now time.Time) EffectiveStatus {
	if status == CertificateStatusRevoked {
		return EffectiveStatusRevoked
	}
	if now.After(expiryDate) {
		return EffectiveStatusExpired
	}
	return EffectiveStatusActive
}

// Certificate is an issued halal certificate. Columns tagged `<-:create`
// are written once on insert and ignored by every update.
type Certificate struct {
	ID                string `gorm:"type:varchar(36);primaryKey" json:"id"`
	CertificateNumber string `gorm:"<-:create;type:varchar(32);uniqueIndex;not null" json:"certificate_number"`

	// the partial unique index keeps one stored-active certificate per business
	BusinessID    uint     `gorm:"<-:create;not null;index;uniqueIndex:idx_certificates_active_business,where:status = 'active'" json:"business_id"`
	Business      Business `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"business,omitempty"`
	ApplicationID uint     `gorm:"<-:create;not null;index" json:"application_id"`

	Status     CertificateStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	IssuedDate time.Time         `gorm:"<-:create;not null" json:"issued_date"`
	ExpiryDate time.Time         `gorm:"<-:create;not null;index" json:"expiry_date"`

	VerificationURL string `gorm:"<-:create;type:text;not null" json:"verification_url"`
	QRCode          []byte `gorm:"<-:create;not null" json:"qr_code"` // PNG, base64 in JSON

	RevocationReason *string    `gorm:"type:text" json:"revocation_reason,omitempty"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	RevokedBy        *uint      `json:"revoked_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Certificate) TableName() string {
	return "certificates"
}

// BeforeCreate assigns the opaque id.
func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = CertificateStatusActive
	}
	return nil
}

func (c *Certificate) EffectiveStatus(now time.Time) EffectiveStatus {
	return ComputeEffectiveStatus(c.Status, c.ExpiryDate, now)
}

func (c *Certificate) IsRevoked() bool {
	return c.Status == CertificateStatusRevoked
}
