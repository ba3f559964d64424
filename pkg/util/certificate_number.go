package util

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// certificateNumberPattern accepts every number ever printed, including
	// ones from before the 4-digit sequence minimum.
	certificateNumberPattern = regexp.MustCompile(`^[A-Z]+-\d{4}-\d+$`)
	prefixPattern            = regexp.MustCompile(`^[A-Z]+$`)

	ErrInvalidCertificateNumber = errors.New("invalid certificate number format")
	ErrInvalidPrefix            = errors.New("certificate prefix must be uppercase letters A-Z")
	ErrInvalidYear              = errors.New("certificate year must have four digits")
	ErrInvalidSequence          = errors.New("certificate sequence must be positive")
)

// CertificateNumber is the parsed form of PREFIX-YEAR-SEQ.
type CertificateNumber struct {
	Prefix   string
	Year     int
	Sequence int64
}

func (n CertificateNumber) String() string {
	return fmt.Sprintf("%s-%04d-%04d", n.Prefix, n.Year, n.Sequence)
}

// IsValidCertificateNumber matches s verbatim. No trimming or case folding.
func IsValidCertificateNumber(s string) bool {
	return certificateNumberPattern.MatchString(s)
}

// FormatCertificateNumber builds PREFIX-YEAR-SEQ with the sequence padded
// to at least four digits.
func FormatCertificateNumber(prefix string, year int, seq int64) (string, error) {
	if !prefixPattern.MatchString(prefix) {
		return "", ErrInvalidPrefix
	}
	if year < 1000 || year > 9999 {
		return "", ErrInvalidYear
	}
	if seq <= 0 {
		return "", ErrInvalidSequence
	}
	return CertificateNumber{Prefix: prefix, Year: year, Sequence: seq}.String(), nil
}

func ParseCertificateNumber(s string) (CertificateNumber, error) {
	if !IsValidCertificateNumber(s) {
		return CertificateNumber{}, ErrInvalidCertificateNumber
	}

	parts := strings.SplitN(s, "-", 3)
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return CertificateNumber{}, ErrInvalidCertificateNumber
	}
	seq, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		// overflow
		return CertificateNumber{}, ErrInvalidCertificateNumber
	}

	return CertificateNumber{Prefix: parts[0], Year: year, Sequence: seq}, nil
}

// ValidatePrefix checks a configured prefix before any number is built.
func ValidatePrefix(prefix string) error {
	if !prefixPattern.MatchString(prefix) {
		return ErrInvalidPrefix
	}
	return nil
}
