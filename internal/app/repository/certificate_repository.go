package repository

import (
	"fmt"
	"time"

	"github.com/halalverify/halal-backend/internal/app/model"
	"github.com/halalverify/halal-backend/pkg/logger"
	"github.com/halalverify/halal-backend/pkg/util"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CertificateFilter struct {
	BusinessID *uint
	Status     *model.CertificateStatus // stored status
}

// CertificateRepository is create, read and revoke over certificates. There
// is no delete.
type CertificateRepository interface {
	Create(cert *model.Certificate) error
	FindByID(id string) (*model.Certificate, error)
	FindByCertificateNumber(number string) (*model.Certificate, error)
	FindActiveByBusiness(businessID uint) (*model.Certificate, error)
	ExistsByCertificateNumber(number string) (bool, error)
	FindAll(filter CertificateFilter) ([]model.Certificate, error)
	FindExpiringBetween(from, to time.Time) ([]model.Certificate, error)
	NextSequence(prefix string, year int) (int64, error)
	AdvanceSequence(prefix string, year int, value int64) error
	MaxSequence(prefix string, year int) (int64, error)
	MarkRevoked(id, reason string, revokedAt time.Time, revokedBy *uint) error
}

type certificateRepository struct {
	db *gorm.DB
}

// NewCertificateRepository binds the repository to db, which may be a
// transaction handle.
func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

func (r *certificateRepository) Create(cert *model.Certificate) error {
	logger.Debug("Creating certificate in database", map[string]interface{}{
		"certificate_number": cert.CertificateNumber,
		"business_id":        cert.BusinessID,
		"application_id":     cert.ApplicationID,
	})

	if err := r.db.Omit(clause.Associations).Create(cert).Error; err != nil {
		err = translateError(err)
		logger.Error("Failed to create certificate in database", err, map[string]interface{}{
			"certificate_number": cert.CertificateNumber,
			"business_id":        cert.BusinessID,
		})
		return err
	}

	logger.Debug("Certificate created in database", map[string]interface{}{
		"certificate_id":     cert.ID,
		"certificate_number": cert.CertificateNumber,
	})
	return nil
}

func (r *certificateRepository) FindByID(id string) (*model.Certificate, error) {
	var cert model.Certificate
	if err := r.db.Preload("Business").Where("id = ?", id).First(&cert).Error; err != nil {
		err = translateError(err)
		if err != ErrNotFound {
			logger.Error("Failed to find certificate by ID", err, map[string]interface{}{
				"certificate_id": id,
			})
		}
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepository) FindByCertificateNumber(number string) (*model.Certificate, error) {
	var cert model.Certificate
	if err := r.db.Preload("Business").
		Where("certificate_number = ?", number).
		First(&cert).Error; err != nil {
		err = translateError(err)
		if err != ErrNotFound {
			logger.Error("Failed to find certificate by number", err, map[string]interface{}{
				"certificate_number": number,
			})
		}
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepository) FindActiveByBusiness(businessID uint) (*model.Certificate, error) {
	var cert model.Certificate
	if err := r.db.Where("business_id = ? AND status = ?", businessID, model.CertificateStatusActive).
		First(&cert).Error; err != nil {
		err = translateError(err)
		if err != ErrNotFound {
			logger.Error("Failed to find active certificate", err, map[string]interface{}{
				"business_id": businessID,
			})
		}
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepository) ExistsByCertificateNumber(number string) (bool, error) {
	var count int64
	if err := r.db.Model(&model.Certificate{}).
		Where("certificate_number = ?", number).
		Count(&count).Error; err != nil {
		logger.Error("Failed to check certificate number", err, map[string]interface{}{
			"certificate_number": number,
		})
		return false, err
	}
	return count > 0, nil
}

func (r *certificateRepository) FindAll(filter CertificateFilter) ([]model.Certificate, error) {
	logger.Debug("Finding certificates", map[string]interface{}{
		"business_id": filter.BusinessID,
		"status":      filter.Status,
	})

	query := r.db.Model(&model.Certificate{}).Preload("Business")
	if filter.BusinessID != nil {
		query = query.Where("business_id = ?", *filter.BusinessID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var certs []model.Certificate
	if err := query.Order("issued_date DESC, certificate_number DESC").Find(&certs).Error; err != nil {
		logger.Error("Failed to find certificates", err, nil)
		return nil, err
	}

	logger.Debug("Certificates found", map[string]interface{}{
		"count": len(certs),
	})
	return certs, nil
}

// FindExpiringBetween returns stored-active certificates with from < expiry <= to.
func (r *certificateRepository) FindExpiringBetween(from, to time.Time) ([]model.Certificate, error) {
	var certs []model.Certificate
	if err := r.db.Preload("Business").
		Where("status = ? AND expiry_date > ? AND expiry_date <= ?", model.CertificateStatusActive, from, to).
		Order("expiry_date ASC").
		Find(&certs).Error; err != nil {
		logger.Error("Failed to find expiring certificates", err, map[string]interface{}{
			"from": from,
			"to":   to,
		})
		return nil, err
	}
	return certs, nil
}

// NextSequence allocates the next value of the (prefix, year) counter,
// starting at 1. The increment takes the row lock, so concurrent callers
// are serialized until the surrounding transaction ends; rolling that
// transaction back releases the value.
func (r *certificateRepository) NextSequence(prefix string, year int) (int64, error) {
	var next int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := seedSequence(tx, prefix, year); err != nil {
			return err
		}

		if err := tx.Model(&model.CertificateSequence{}).
			Where("prefix = ? AND year = ?", prefix, year).
			Update("last_value", gorm.Expr("last_value + ?", 1)).Error; err != nil {
			return err
		}

		var seq model.CertificateSequence
		if err := tx.Where("prefix = ? AND year = ?", prefix, year).First(&seq).Error; err != nil {
			return err
		}
		next = seq.LastValue
		return nil
	})
	if err != nil {
		logger.Error("Failed to allocate certificate sequence", err, map[string]interface{}{
			"prefix": prefix,
			"year":   year,
		})
		return 0, err
	}

	logger.Debug("Certificate sequence allocated", map[string]interface{}{
		"prefix":   prefix,
		"year":     year,
		"sequence": next,
	})
	return next, nil
}

// AdvanceSequence raises the (prefix, year) counter to value. A counter
// already at or past value is left alone.
func (r *certificateRepository) AdvanceSequence(prefix string, year int, value int64) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := seedSequence(tx, prefix, year); err != nil {
			return err
		}
		return tx.Model(&model.CertificateSequence{}).
			Where("prefix = ? AND year = ? AND last_value < ?", prefix, year, value).
			Update("last_value", value).Error
	})
	if err != nil {
		logger.Error("Failed to advance certificate sequence", err, map[string]interface{}{
			"prefix": prefix,
			"year":   year,
			"value":  value,
		})
		return err
	}

	logger.Info("Certificate sequence advanced", map[string]interface{}{
		"prefix": prefix,
		"year":   year,
		"value":  value,
	})
	return nil
}

// MaxSequence returns the highest sequence among stored numbers for
// (prefix, year), or 0 when there are none. Numbers written outside the
// counter, such as registry imports, are included.
func (r *certificateRepository) MaxSequence(prefix string, year int) (int64, error) {
	var numbers []string
	if err := r.db.Model(&model.Certificate{}).
		Where("certificate_number LIKE ?", fmt.Sprintf("%s-%04d-%%", prefix, year)).
		Pluck("certificate_number", &numbers).Error; err != nil {
		logger.Error("Failed to read certificate numbers", err, map[string]interface{}{
			"prefix": prefix,
			"year":   year,
		})
		return 0, err
	}

	var highest int64
	for _, n := range numbers {
		parsed, err := util.ParseCertificateNumber(n)
		if err != nil || parsed.Prefix != prefix || parsed.Year != year {
			continue
		}
		if parsed.Sequence > highest {
			highest = parsed.Sequence
		}
	}
	return highest, nil
}

func seedSequence(tx *gorm.DB, prefix string, year int) error {
	seed := model.CertificateSequence{Prefix: prefix, Year: year, LastValue: 0}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error
}

// MarkRevoked flips an active certificate to revoked in one conditional
// update. Of two concurrent calls exactly one matches the status = 'active'
// predicate.
func (r *certificateRepository) MarkRevoked(id, reason string, revokedAt time.Time, revokedBy *uint) error {
	logger.Debug("Revoking certificate in database", map[string]interface{}{
		"certificate_id": id,
		"revoked_by":     revokedBy,
	})

	result := r.db.Model(&model.Certificate{}).
		Where("id = ? AND status = ?", id, model.CertificateStatusActive).
		Updates(map[string]interface{}{
			"status":            model.CertificateStatusRevoked,
			"revocation_reason": reason,
			"revoked_at":        revokedAt,
			"revoked_by":        revokedBy,
		})
	if result.Error != nil {
		logger.Error("Failed to revoke certificate in database", result.Error, map[string]interface{}{
			"certificate_id": id,
		})
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.Model(&model.Certificate{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrAlreadyRevoked
	}

	logger.Debug("Certificate revoked in database", map[string]interface{}{
		"certificate_id": id,
	})
	return nil
}
