package service

import (
	"github.com/halalverify/halal-backend/internal/app/repository"
	"github.com/halalverify/halal-backend/pkg/logger"
	"github.com/halalverify/halal-backend/pkg/util"
)

// CertificateNumberGenerator turns the stored (prefix, year) counter into
// PREFIX-YEAR-SEQ numbers. The counter lives in the database, so numbers
// stay unique across restarts and replicas.
type CertificateNumberGenerator struct {
	start int64
}

func NewCertificateNumberGenerator(start int64) *CertificateNumberGenerator {
	if start < 1 {
		start = 1
	}
	return &CertificateNumberGenerator{start: start}
}

// Generate allocates through repo, which must be bound to the issuing
// transaction when the number is meant to be released on rollback.
//
// The first allocation of a (prefix, year) starts after the highest number
// already stored, so imported certificates are never handed out again.
func (g *CertificateNumberGenerator) Generate(repo repository.CertificateRepository, prefix string, year int) (string, error) {
	if err := util.ValidatePrefix(prefix); err != nil {
		return "", err
	}
	if year < 1000 || year > 9999 {
		return "", util.ErrInvalidYear
	}

	counter, err := repo.NextSequence(prefix, year)
	if err != nil {
		return "", err
	}

	if counter == 1 {
		highest, err := repo.MaxSequence(prefix, year)
		if err != nil {
			return "", err
		}
		if highest >= g.start {
			counter = highest - g.start + 2
			if err := repo.AdvanceSequence(prefix, year, counter); err != nil {
				return "", err
			}
			logger.Info("Certificate sequence moved past stored numbers", map[string]interface{}{
				"prefix":  prefix,
				"year":    year,
				"highest": highest,
			})
		}
	}

	return util.FormatCertificateNumber(prefix, year, g.start+counter-1)
}

// Skip moves the counter past number so later allocations never return it
// again. Numbers below the configured start are ignored.
func (g *CertificateNumberGenerator) Skip(repo repository.CertificateRepository, number string) error {
	parsed, err := util.ParseCertificateNumber(number)
	if err != nil {
		return err
	}
	counter := parsed.Sequence - g.start + 1
	if counter < 1 {
		return nil
	}
	return repo.AdvanceSequence(parsed.Prefix, parsed.Year, counter)
}
