package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/halalverify/halal-backend/config"
	"github.com/halalverify/halal-backend/internal/app/model"
	"github.com/halalverify/halal-backend/internal/app/repository"
	"github.com/halalverify/halal-backend/internal/artifact"
	"github.com/halalverify/halal-backend/internal/storage"
	"github.com/halalverify/halal-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var (
	ErrCertificateNotFound        = errors.New("certificate not found")
	ErrDuplicateActiveCertificate = errors.New("business already holds an active certificate")
	ErrIdentifierExhausted        = errors.New("could not allocate a unique certificate number")
	ErrNotApproved                = errors.New("application is not approved for this business")
	ErrBusinessNotFound           = errors.New("business not found")
	ErrArchiveDisabled            = errors.New("document archive is not configured")
	ErrStorage                    = errors.New("certificate storage failure")
)

const documentContentType = "application/pdf"

type CertificateListOptions struct {
	BusinessID *uint
	Status     *model.EffectiveStatus
}

// CertificateView is the admin projection: the stored record plus the
// status computed at read time.
type CertificateView struct {
	model.Certificate
	EffectiveStatus model.EffectiveStatus `json:"effective_status"`
}

type RenderedDocument struct {
	Filename string
	Content  []byte
}

type CertificateService interface {
	IssueCertificate(ctx context.Context, businessID, applicationID uint) (*model.Certificate, error)
	GetCertificate(id string) (*CertificateView, error)
	ListCertificates(opts CertificateListOptions) ([]CertificateView, error)
	RenderDocument(id string) (*RenderedDocument, error)
	ArchiveDocument(ctx context.Context, id string) (*storage.StoredObject, error)
	ExportRegistry(opts CertificateListOptions) ([]byte, error)
}

type certificateService struct {
	db        *gorm.DB
	certRepo  repository.CertificateRepository
	bizRepo   repository.BusinessRepository
	cfg       config.CertificateConfig
	generator *CertificateNumberGenerator
	encoder   *artifact.QREncoder
	renderer  *artifact.DocumentRenderer
	locker    SubjectLocker
	docs      storage.DocumentStorage
	now       func() time.Time
}

type CertificateServiceOption func(*certificateService)

// WithClock replaces time.Now for issued dates and status computation.
func WithClock(now func() time.Time) CertificateServiceOption {
	return func(s *certificateService) {
		s.now = now
	}
}

// WithDocumentStorage enables ArchiveDocument.
func WithDocumentStorage(docs storage.DocumentStorage) CertificateServiceOption {
	return func(s *certificateService) {
		s.docs = docs
	}
}

// WithSubjectLocker swaps the in-process lock for a shared one.
func WithSubjectLocker(locker SubjectLocker) CertificateServiceOption {
	return func(s *certificateService) {
		s.locker = locker
	}
}

func NewCertificateService(
	db *gorm.DB,
	certRepo repository.CertificateRepository,
	cfg config.CertificateConfig,
	encoder *artifact.QREncoder,
	renderer *artifact.DocumentRenderer,
	opts ...CertificateServiceOption,
) CertificateService {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.ValidityMonths < 1 {
		cfg.ValidityMonths = 12
	}

	s := &certificateService{
		db:        db,
		certRepo:  certRepo,
		bizRepo:   repository.NewBusinessRepository(db),
		cfg:       cfg,
		generator: NewCertificateNumberGenerator(cfg.SequenceStart),
		encoder:   encoder,
		renderer:  renderer,
		locker:    NewKeyedMutex(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func storageError(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}

func (s *certificateService) verificationURL(number string) string {
	return fmt.Sprintf("%s/verify/%s", s.cfg.PublicBaseURL, number)
}

// IssueCertificate creates the certificate for an approved application. The
// subject lock and the business row lock order concurrent issuance for the
// same business; the partial unique index rejects whatever slips past both.
func (s *certificateService) IssueCertificate(ctx context.Context, businessID, applicationID uint) (*model.Certificate, error) {
	logger.Info("Issuing certificate", map[string]interface{}{
		"business_id":    businessID,
		"application_id": applicationID,
	})

	unlock, err := s.locker.Lock(ctx, issuanceLockKey(businessID))
	if err != nil {
		logger.Error("Failed to acquire issuance lock", err, map[string]interface{}{
			"business_id": businessID,
		})
		return nil, storageError(err)
	}
	defer unlock()

	var (
		issued     *model.Certificate
		lastNumber string
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cert, err := s.issueInTx(tx, businessID, applicationID, &lastNumber)
		if err != nil {
			return err
		}
		issued = cert
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrIdentifierExhausted) && lastNumber != "" {
			s.skipPast(lastNumber)
		}
		return nil, err
	}

	logger.Info("Certificate issued", map[string]interface{}{
		"certificate_id":     issued.ID,
		"certificate_number": issued.CertificateNumber,
		"business_id":        businessID,
		"expiry_date":        issued.ExpiryDate,
	})
	return issued, nil
}

// skipPast commits the counter past numbers a rolled-back issuance found
// taken, so the next issuance does not collide on them again.
func (s *certificateService) skipPast(number string) {
	if err := s.generator.Skip(s.certRepo, number); err != nil {
		logger.Error("Failed to move certificate sequence past taken numbers", err, map[string]interface{}{
			"certificate_number": number,
		})
	}
}

// issueInTx records every number it tries in lastNumber.
func (s *certificateService) issueInTx(tx *gorm.DB, businessID, applicationID uint, lastNumber *string) (*model.Certificate, error) {
	appRepo := repository.NewApplicationRepository(tx)
	bizRepo := repository.NewBusinessRepository(tx)
	certRepo := repository.NewCertificateRepository(tx)

	application, err := appRepo.FindByID(applicationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("Application not found for issuance", map[string]interface{}{
				"application_id": applicationID,
			})
			return nil, ErrNotApproved
		}
		return nil, storageError(err)
	}
	if application.BusinessID != businessID || !application.IsApproved() {
		logger.Warn("Application is not approved for business", map[string]interface{}{
			"application_id":       applicationID,
			"application_business": application.BusinessID,
			"business_id":          businessID,
			"status":               application.Status,
		})
		return nil, ErrNotApproved
	}

	business, err := bizRepo.LockByID(businessID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("Business not found for issuance", map[string]interface{}{
				"business_id": businessID,
			})
			return nil, ErrBusinessNotFound
		}
		return nil, storageError(err)
	}

	existing, err := certRepo.FindActiveByBusiness(businessID)
	if err == nil {
		logger.Warn("Business already holds an active certificate", map[string]interface{}{
			"business_id":        businessID,
			"certificate_number": existing.CertificateNumber,
		})
		return nil, ErrDuplicateActiveCertificate
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storageError(err)
	}

	issuedDate := s.now().UTC()
	expiryDate := issuedDate.AddDate(0, s.cfg.ValidityMonths, 0)

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		number, err := s.generator.Generate(certRepo, s.cfg.Prefix, issuedDate.Year())
		if err != nil {
			logger.Error("Failed to generate certificate number", err, map[string]interface{}{
				"prefix":  s.cfg.Prefix,
				"attempt": attempt,
			})
			return nil, storageError(err)
		}
		*lastNumber = number

		taken, err := certRepo.ExistsByCertificateNumber(number)
		if err != nil {
			return nil, storageError(err)
		}
		if taken {
			logger.Warn("Generated certificate number already in use", map[string]interface{}{
				"certificate_number": number,
				"attempt":            attempt,
			})
			continue
		}

		verificationURL := s.verificationURL(number)
		qr, err := s.encoder.Encode(verificationURL)
		if err != nil {
			logger.Error("Failed to encode QR code", err, map[string]interface{}{
				"certificate_number": number,
			})
			return nil, fmt.Errorf("failed to encode QR code: %w", err)
		}

		cert := &model.Certificate{
			CertificateNumber: number,
			BusinessID:        businessID,
			ApplicationID:     applicationID,
			Status:            model.CertificateStatusActive,
			IssuedDate:        issuedDate,
			ExpiryDate:        expiryDate,
			VerificationURL:   verificationURL,
			QRCode:            qr,
		}

		// savepoint, so a failed insert leaves the outer transaction usable
		err = tx.Transaction(func(sp *gorm.DB) error {
			return repository.NewCertificateRepository(sp).Create(cert)
		})
		switch {
		case err == nil:
			cert.Business = *business
			return cert, nil
		case errors.Is(err, repository.ErrDuplicateKey):
			logger.Warn("Certificate number collided on insert, retrying", map[string]interface{}{
				"certificate_number": number,
				"attempt":            attempt,
			})
			continue
		case errors.Is(err, repository.ErrDuplicateActive):
			return nil, ErrDuplicateActiveCertificate
		default:
			return nil, storageError(err)
		}
	}

	logger.Error("Certificate number attempts exhausted", ErrIdentifierExhausted, map[string]interface{}{
		"business_id":  businessID,
		"max_attempts": s.cfg.MaxAttempts,
	})
	return nil, ErrIdentifierExhausted
}

func (s *certificateService) findByID(id string) (*model.Certificate, error) {
	cert, err := s.certRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, storageError(err)
	}
	return cert, nil
}

func (s *certificateService) GetCertificate(id string) (*CertificateView, error) {
	cert, err := s.findByID(id)
	if err != nil {
		return nil, err
	}
	return &CertificateView{
		Certificate:     *cert,
		EffectiveStatus: cert.EffectiveStatus(s.now()),
	}, nil
}

// ListCertificates filters on the effective status. Active and expired both
// map to stored-active rows and are told apart by the clock. Filtering on a
// business that does not exist is ErrBusinessNotFound, not an empty list.
func (s *certificateService) ListCertificates(opts CertificateListOptions) ([]CertificateView, error) {
	if opts.BusinessID != nil {
		if _, err := s.bizRepo.FindByID(*opts.BusinessID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrBusinessNotFound
			}
			return nil, storageError(err)
		}
	}

	filter := repository.CertificateFilter{BusinessID: opts.BusinessID}
	if opts.Status != nil {
		stored := model.CertificateStatusActive
		if *opts.Status == model.EffectiveStatusRevoked {
			stored = model.CertificateStatusRevoked
		}
		filter.Status = &stored
	}

	certs, err := s.certRepo.FindAll(filter)
	if err != nil {
		return nil, storageError(err)
	}

	now := s.now()
	views := make([]CertificateView, 0, len(certs))
	for _, cert := range certs {
		status := cert.EffectiveStatus(now)
		if opts.Status != nil && status != *opts.Status {
			continue
		}
		views = append(views, CertificateView{Certificate: cert, EffectiveStatus: status})
	}
	return views, nil
}

func (s *certificateService) RenderDocument(id string) (*RenderedDocument, error) {
	cert, err := s.findByID(id)
	if err != nil {
		return nil, err
	}
	return s.render(cert)
}

func (s *certificateService) render(cert *model.Certificate) (*RenderedDocument, error) {
	content, err := s.renderer.Render(artifact.DocumentFields{
		IssuerName:        s.cfg.IssuerName,
		SubjectName:       cert.Business.Name,
		SubjectAddress:    cert.Business.FullAddress(),
		CertificateNumber: cert.CertificateNumber,
		IssuedDate:        cert.IssuedDate,
		ExpiryDate:        cert.ExpiryDate,
		VerificationURL:   cert.VerificationURL,
		QRCode:            cert.QRCode,
	})
	if err != nil {
		logger.Error("Failed to render certificate document", err, map[string]interface{}{
			"certificate_id": cert.ID,
		})
		return nil, err
	}

	return &RenderedDocument{
		Filename: cert.CertificateNumber + ".pdf",
		Content:  content,
	}, nil
}

func (s *certificateService) ArchiveDocument(ctx context.Context, id string) (*storage.StoredObject, error) {
	if s.docs == nil {
		return nil, ErrArchiveDisabled
	}

	cert, err := s.findByID(id)
	if err != nil {
		return nil, err
	}
	doc, err := s.render(cert)
	if err != nil {
		return nil, err
	}

	obj, err := s.docs.UploadDocument(ctx, cert.CertificateNumber, doc.Content, documentContentType)
	if err != nil {
		logger.Error("Failed to archive certificate document", err, map[string]interface{}{
			"certificate_id":     id,
			"certificate_number": cert.CertificateNumber,
		})
		return nil, err
	}

	logger.Info("Certificate document archived", map[string]interface{}{
		"certificate_id": id,
		"key":            obj.Key,
	})
	return obj, nil
}

var registryHeaders = []interface{}{
	"Certificate Number", "Business", "Address", "Status",
	"Issued Date", "Expiry Date", "Revoked At", "Revocation Reason", "Verification URL",
}

// ExportRegistry writes the filtered certificate list as an XLSX workbook.
func (s *certificateService) ExportRegistry(opts CertificateListOptions) ([]byte, error) {
	views, err := s.ListCertificates(opts)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Certificates"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &registryHeaders); err != nil {
		return nil, err
	}

	for i, v := range views {
		revokedAt, reason := "", ""
		if v.RevokedAt != nil {
			revokedAt = v.RevokedAt.UTC().Format(time.RFC3339)
		}
		if v.RevocationReason != nil {
			reason = *v.RevocationReason
		}

		row := []interface{}{
			v.CertificateNumber,
			v.Business.Name,
			v.Business.FullAddress(),
			string(v.EffectiveStatus),
			v.IssuedDate.UTC().Format("2006-01-02"),
			v.ExpiryDate.UTC().Format("2006-01-02"),
			revokedAt,
			reason,
			v.VerificationURL,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logger.Error("Failed to write certificate registry", err, nil)
		return nil, err
	}

	logger.Info("Certificate registry exported", map[string]interface{}{
		"rows": len(views),
	})
	return buf.Bytes(), nil
}
