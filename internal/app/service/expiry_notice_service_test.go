package service

import (
	"context"
	"errors"
	"testing"

	"github.com/halalverify/halal-backend/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []queue.CertificateExpiringEvent
	err    error
}

func (p *recordingPublisher) PublishExpiring(ctx context.Context, events []queue.CertificateExpiringEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func TestExpiryNoticeService_NotifyExpiring(t *testing.T) {
	f := setupCertificateServiceTest(t)

	issued, err := f.certificates.IssueCertificate(context.Background(), f.business.ID, f.application.ID)
	require.NoError(t, err)

	publisher := &recordingPublisher{}
	notices := NewExpiryNoticeService(f.certRepo, publisher, 30, f.clock.Now)

	// a year out, nothing is due
	count, err := notices.NotifyExpiring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	f.clock.Set(issued.ExpiryDate.AddDate(0, 0, -10))
	count, err = notices.NotifyExpiring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, issued.CertificateNumber, publisher.events[0].CertificateNumber)
	assert.Equal(t, "Barakah Kitchen", publisher.events[0].BusinessName)
	assert.Equal(t, 10, publisher.events[0].DaysRemaining)

	// revoked certificates are not announced
	_, err = f.revocation.Revoke(issued.ID, "closed", nil)
	require.NoError(t, err)
	count, err = notices.NotifyExpiring(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestExpiryNoticeService_PublishError(t *testing.T) {
	f := setupCertificateServiceTest(t)

	issued, err := f.certificates.IssueCertificate(context.Background(), f.business.ID, f.application.ID)
	require.NoError(t, err)
	f.clock.Set(issued.ExpiryDate.AddDate(0, 0, -1))

	brokerDown := errors.New("broker down")
	notices := NewExpiryNoticeService(f.certRepo, &recordingPublisher{err: brokerDown}, 30, f.clock.Now)

	_, err = notices.NotifyExpiring(context.Background())
	assert.ErrorIs(t, err, brokerDown)
}
