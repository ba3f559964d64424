package service

import (
	"context"
	"math"
	"time"

	"github.com/halalverify/halal-backend/internal/app/repository"
	"github.com/halalverify/halal-backend/internal/queue"
	"github.com/halalverify/halal-backend/pkg/logger"
)

type ExpiryNoticeService interface {
	NotifyExpiring(ctx context.Context) (int, error)
}

type expiryNoticeService struct {
	certRepo  repository.CertificateRepository
	publisher queue.Publisher
	window    time.Duration
	now       func() time.Time
}

// NewExpiryNoticeService announces stored-active certificates expiring
// within the next days. It never writes certificates.
func NewExpiryNoticeService(certRepo repository.CertificateRepository, publisher queue.Publisher, days int, now ...func() time.Time) ExpiryNoticeService {
	clock := time.Now
	if len(now) > 0 && now[0] != nil {
		clock = now[0]
	}
	if days < 1 {
		days = 30
	}
	return &expiryNoticeService{
		certRepo:  certRepo,
		publisher: publisher,
		window:    time.Duration(days) * 24 * time.Hour,
		now:       clock,
	}
}

func (s *expiryNoticeService) NotifyExpiring(ctx context.Context) (int, error) {
	now := s.now().UTC()
	certs, err := s.certRepo.FindExpiringBetween(now, now.Add(s.window))
	if err != nil {
		return 0, storageError(err)
	}
	if len(certs) == 0 {
		logger.Info("No certificates expiring in notice window", nil)
		return 0, nil
	}

	events := make([]queue.CertificateExpiringEvent, 0, len(certs))
	for _, cert := range certs {
		events = append(events, queue.CertificateExpiringEvent{
			CertificateID:     cert.ID,
			CertificateNumber: cert.CertificateNumber,
			BusinessID:        cert.BusinessID,
			BusinessName:      cert.Business.Name,
			PhoneNumber:       cert.Business.PhoneNumber,
			ExpiryDate:        cert.ExpiryDate.UTC().Format(time.RFC3339),
			DaysRemaining:     int(math.Ceil(cert.ExpiryDate.Sub(now).Hours() / 24)),
			VerificationURL:   cert.VerificationURL,
		})
	}

	if err := s.publisher.PublishExpiring(ctx, events); err != nil {
		logger.Error("Failed to publish expiring certificates", err, map[string]interface{}{
			"count": len(events),
		})
		return 0, err
	}
	return len(events), nil
}
