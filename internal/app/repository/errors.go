package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrDuplicateActive = errors.New("business already has an active certificate")
	ErrAlreadyRevoked  = errors.New("certificate already revoked")
)

// translateError maps driver errors onto repository sentinels. Postgres
// reports `duplicate key value violates unique constraint "<index>"`,
// SQLite reports `UNIQUE constraint failed: <table>.<column>`.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	msg := strings.ToLower(err.Error())
	unique := errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
	if !unique {
		return err
	}

	switch {
	case strings.Contains(msg, "idx_certificates_active_business"),
		strings.Contains(msg, "certificates.business_id"):
		return fmt.Errorf("%w: %v", ErrDuplicateActive, err)
	default:
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}
}
