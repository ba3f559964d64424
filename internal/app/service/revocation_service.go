package service

import (
	"errors"
	"strings"
	"time"

	"github.com/halalverify/halal-backend/internal/app/model"
	"github.com/halalverify/halal-backend/internal/app/repository"
	"github.com/halalverify/halal-backend/pkg/logger"
)

var (
	ErrAlreadyRevoked           = errors.New("certificate already revoked")
	ErrRevocationReasonRequired = errors.New("revocation reason is required")
)

type RevocationService interface {
	Revoke(certificateID, reason string, actorID *uint) (*model.Certificate, error)
}

type revocationService struct {
	certRepo repository.CertificateRepository
	now      func() time.Time
}

func NewRevocationService(certRepo repository.CertificateRepository, now ...func() time.Time) RevocationService {
	clock := time.Now
	if len(now) > 0 && now[0] != nil {
		clock = now[0]
	}
	return &revocationService{certRepo: certRepo, now: clock}
}

// Revoke is terminal. There is no way back to active.
func (s *revocationService) Revoke(certificateID, reason string, actorID *uint) (*model.Certificate, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrRevocationReasonRequired
	}

	logger.Info("Revoking certificate", map[string]interface{}{
		"certificate_id": certificateID,
		"actor_id":       actorID,
	})

	if err := s.certRepo.MarkRevoked(certificateID, reason, s.now().UTC(), actorID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			logger.Warn("Revocation target not found", map[string]interface{}{
				"certificate_id": certificateID,
			})
			return nil, ErrCertificateNotFound
		case errors.Is(err, repository.ErrAlreadyRevoked):
			logger.Warn("Certificate already revoked", map[string]interface{}{
				"certificate_id": certificateID,
			})
			return nil, ErrAlreadyRevoked
		default:
			return nil, storageError(err)
		}
	}

	cert, err := s.certRepo.FindByID(certificateID)
	if err != nil {
		return nil, storageError(err)
	}

	logger.Info("Certificate revoked", map[string]interface{}{
		"certificate_id":     cert.ID,
		"certificate_number": cert.CertificateNumber,
		"actor_id":           actorID,
	})
	return cert, nil
}
