package util

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCertificateNumber(t *testing.T) {
	generated := regexp.MustCompile(`^[A-Z]+-\d{4}-\d{4,}$`)

	tests := []struct {
		name    string
		prefix  string
		year    int
		seq     int64
		want    string
		wantErr error
	}{
		{name: "Typical", prefix: "HAL", year: 2025, seq: 1001, want: "HAL-2025-1001"},
		{name: "Padded sequence", prefix: "HAL", year: 2025, seq: 7, want: "HAL-2025-0007"},
		{name: "Wide sequence", prefix: "HAL", year: 2026, seq: 123456, want: "HAL-2026-123456"},
		{name: "Lowercase prefix", prefix: "hal", year: 2025, seq: 1, wantErr: ErrInvalidPrefix},
		{name: "Empty prefix", prefix: "", year: 2025, seq: 1, wantErr: ErrInvalidPrefix},
		{name: "Short year", prefix: "HAL", year: 25, seq: 1, wantErr: ErrInvalidYear},
		{name: "Zero sequence", prefix: "HAL", year: 2025, seq: 0, wantErr: ErrInvalidSequence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatCertificateNumber(tt.prefix, tt.year, tt.seq)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Regexp(t, generated, got)
			assert.True(t, IsValidCertificateNumber(got))
		})
	}
}

func TestIsValidCertificateNumber(t *testing.T) {
	valid := []string{"HAL-2025-1001", "HAL-2025-99999", "HAL-2019-12", "MUI-2020-0001"}
	invalid := []string{
		"not-a-valid-format!!",
		"",
		"hal-2025-1001",
		"HAL-25-1001",
		"HAL-2025-",
		" HAL-2025-1001",
		"HAL-2025-1001 ",
		"HAL2025-1001",
		"HAL-2025-1001/../x",
	}

	for _, s := range valid {
		assert.True(t, IsValidCertificateNumber(s), s)
	}
	for _, s := range invalid {
		assert.False(t, IsValidCertificateNumber(s), s)
	}
}

func TestParseCertificateNumber(t *testing.T) {
	n, err := ParseCertificateNumber("HAL-2025-1001")
	require.NoError(t, err)
	assert.Equal(t, "HAL", n.Prefix)
	assert.Equal(t, 2025, n.Year)
	assert.Equal(t, int64(1001), n.Sequence)
	assert.Equal(t, "HAL-2025-1001", n.String())

	_, err = ParseCertificateNumber("HAL-2025-99999999999999999999")
	assert.ErrorIs(t, err, ErrInvalidCertificateNumber)

	_, err = ParseCertificateNumber("garbage")
	assert.ErrorIs(t, err, ErrInvalidCertificateNumber)
}
