package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeEffectiveStatus(t *testing.T) {
	expiry := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status CertificateStatus
		now    time.Time
		want   EffectiveStatus
	}{
		{name: "before expiry", status: CertificateStatusActive, now: expiry.Add(-time.Hour), want: EffectiveStatusActive},
		{name: "at expiry instant", status: CertificateStatusActive, now: expiry, want: EffectiveStatusActive},
		{name: "after expiry", status: CertificateStatusActive, now: expiry.Add(time.Nanosecond), want: EffectiveStatusExpired},
		{name: "revoked before expiry", status: CertificateStatusRevoked, now: expiry.Add(-time.Hour), want: EffectiveStatusRevoked},
		{name: "revoked after expiry", status: CertificateStatusRevoked, now: expiry.AddDate(1, 0, 0), want: EffectiveStatusRevoked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeEffectiveStatus(tt.status, expiry, tt.now))
			c := &Certificate{Status: tt.status, ExpiryDate: expiry}
			assert.Equal(t, tt.want, c.EffectiveStatus(tt.now))
		})
	}
}

func TestEffectiveStatus_Valid(t *testing.T) {
	assert.True(t, EffectiveStatusActive.Valid())
	assert.True(t, EffectiveStatusExpired.Valid())
	assert.True(t, EffectiveStatusRevoked.Valid())
	assert.False(t, EffectiveStatus("pending").Valid())
	assert.False(t, EffectiveStatus("").Valid())
}

func TestCertificate_BeforeCreate(t *testing.T) {
	c := &Certificate{}
	assert.NoError(t, c.BeforeCreate(nil))
	assert.Len(t, c.ID, 36)
	assert.Equal(t, CertificateStatusActive, c.Status)
	assert.False(t, c.IsRevoked())

	kept := &Certificate{ID: "fixed", Status: CertificateStatusRevoked}
	assert.NoError(t, kept.BeforeCreate(nil))
	assert.Equal(t, "fixed", kept.ID)
	assert.True(t, kept.IsRevoked())
}

func TestBusiness_FullAddress(t *testing.T) {
	b := &Business{Address: "12 Itaewon-ro", District: "Yongsan-gu", Region: "Seoul"}
	assert.Equal(t, "12 Itaewon-ro, Yongsan-gu, Seoul", b.FullAddress())

	b = &Business{Address: "  ", District: "Haeundae-gu", Region: "Busan"}
	assert.Equal(t, "Haeundae-gu, Busan", b.FullAddress())

	assert.Empty(t, (&Business{}).FullAddress())
}
