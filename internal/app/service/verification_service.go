package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/halalverify/halal-backend/internal/app/model"
	"github.com/halalverify/halal-backend/internal/app/repository"
	"github.com/halalverify/halal-backend/pkg/logger"
	"github.com/halalverify/halal-backend/pkg/util"
)

var ErrInvalidFormat = errors.New("invalid certificate number format")

// VerificationResult is the public payload. It carries no internal ids and
// no revocation details.
type VerificationResult struct {
	Valid       bool                `json:"valid"`
	Certificate VerifiedCertificate `json:"certificate"`
	Store       VerifiedStore       `json:"store"`
}

type VerifiedCertificate struct {
	CertificateNumber string                `json:"certificateNumber"`
	Status            model.EffectiveStatus `json:"status"`
	IssuedDate        time.Time             `json:"issuedDate"`
	ExpiryDate        time.Time             `json:"expiryDate"`
	QRCodeURL         string                `json:"qrCodeUrl"`
}

type VerifiedStore struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type VerificationService interface {
	Verify(certificateNumber string) (*VerificationResult, error)
	QRCode(certificateNumber string) ([]byte, error)
}

type verificationService struct {
	certRepo   repository.CertificateRepository
	apiBaseURL string
	now        func() time.Time
}

func NewVerificationService(certRepo repository.CertificateRepository, apiBaseURL string, now ...func() time.Time) VerificationService {
	clock := time.Now
	if len(now) > 0 && now[0] != nil {
		clock = now[0]
	}
	return &verificationService{
		certRepo:   certRepo,
		apiBaseURL: apiBaseURL,
		now:        clock,
	}
}

// lookup checks the format verbatim before touching storage.
func (s *verificationService) lookup(certificateNumber string) (*model.Certificate, error) {
	if !util.IsValidCertificateNumber(certificateNumber) {
		logger.Debug("Rejected malformed certificate number", map[string]interface{}{
			"length": len(certificateNumber),
		})
		return nil, ErrInvalidFormat
	}

	cert, err := s.certRepo.FindByCertificateNumber(certificateNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Debug("Certificate number not found", map[string]interface{}{
				"certificate_number": certificateNumber,
			})
			return nil, ErrCertificateNotFound
		}
		return nil, storageError(err)
	}
	return cert, nil
}

func (s *verificationService) Verify(certificateNumber string) (*VerificationResult, error) {
	cert, err := s.lookup(certificateNumber)
	if err != nil {
		return nil, err
	}

	status := cert.EffectiveStatus(s.now())
	return &VerificationResult{
		Valid: status == model.EffectiveStatusActive,
		Certificate: VerifiedCertificate{
			CertificateNumber: cert.CertificateNumber,
			Status:            status,
			IssuedDate:        cert.IssuedDate,
			ExpiryDate:        cert.ExpiryDate,
			QRCodeURL:         s.qrCodeURL(cert.CertificateNumber),
		},
		Store: VerifiedStore{
			Name:    cert.Business.Name,
			Address: cert.Business.FullAddress(),
		},
	}, nil
}

// QRCode returns the PNG stored at issuance. It is never re-rendered.
func (s *verificationService) QRCode(certificateNumber string) ([]byte, error) {
	cert, err := s.lookup(certificateNumber)
	if err != nil {
		return nil, err
	}
	return cert.QRCode, nil
}

func (s *verificationService) qrCodeURL(number string) string {
	return fmt.Sprintf("%s/api/v1/verify/%s/qr", s.apiBaseURL, number)
}
