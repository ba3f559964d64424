package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Business is the certification subject: the store or food business a
// certificate is issued to.
type Business struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`                  // trading name printed on the certificate
	Region      string         `gorm:"index;not null" json:"region"`          // state / province
	District    string         `gorm:"index;not null" json:"district"`        // city / district
	Address     string         `gorm:"type:text" json:"address"`              // street address
	PhoneNumber string         `gorm:"type:varchar(30)" json:"phone_number"`  // contact number
	OwnerName   string         `gorm:"type:varchar(100)" json:"owner_name"`   // responsible person
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Applications []Application `gorm:"foreignKey:BusinessID" json:"applications,omitempty"`
}

func (Business) TableName() string {
	return "businesses"
}

// FullAddress joins the street address with district and region, skipping
// empty parts.
func (b *Business) FullAddress() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{b.Address, b.District, b.Region} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
