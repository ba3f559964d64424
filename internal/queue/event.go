// Package queue defines certificate events sent to the message broker and
// the publishers that deliver them.
package queue

// CertificateExpiringQueue is also the routing key on the default exchange.
const CertificateExpiringQueue = "certificate.expiring"

// CertificateExpiringEvent carries enough for a notifier to contact the
// business without querying this service.
type CertificateExpiringEvent struct {
	CertificateID     string `json:"certificate_id"`
	CertificateNumber string `json:"certificate_number"`
	BusinessID        uint   `json:"business_id"`
	BusinessName      string `json:"business_name"`
	PhoneNumber       string `json:"phone_number,omitempty"`
	ExpiryDate        string `json:"expiry_date"` // RFC 3339
	DaysRemaining     int    `json:"days_remaining"`
	VerificationURL   string `json:"verification_url"`
}
