package model

import "time"

// CertificateSequence is the per-prefix, per-year counter behind certificate
// numbers. LastValue is the most recently allocated sequence number.
type CertificateSequence struct {
	Prefix    string    `gorm:"type:varchar(16);primaryKey" json:"prefix"`
	Year      int       `gorm:"primaryKey;autoIncrement:false" json:"year"`
	LastValue int64     `gorm:"not null" json:"last_value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CertificateSequence) TableName() string {
	return "certificate_sequences"
}
