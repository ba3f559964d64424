package artifact

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURL = "https://halal.example.com/verify/HAL-2025-1001"

func TestQREncoder_Encode(t *testing.T) {
	enc := NewQREncoder(300)

	data, err := enc.Encode(testURL)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, img.Bounds().Dx(), MinQRSize)
	assert.GreaterOrEqual(t, img.Bounds().Dy(), MinQRSize)
}

func TestQREncoder_MinimumSize(t *testing.T) {
	enc := NewQREncoder(64)
	assert.Equal(t, MinQRSize, enc.Size())

	data, err := enc.Encode(testURL)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cfg.Width, MinQRSize)
}

func TestQREncoder_Deterministic(t *testing.T) {
	enc := NewQREncoder(320)

	a, err := enc.Encode(testURL)
	require.NoError(t, err)
	b, err := enc.Encode(testURL)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := enc.Encode(testURL + "2")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestQREncoder_EmptyContent(t *testing.T) {
	_, err := NewQREncoder(300).Encode("")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func testFields(t *testing.T) DocumentFields {
	qr, err := NewQREncoder(300).Encode(testURL)
	require.NoError(t, err)

	issued := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return DocumentFields{
		IssuerName:        "Halal Certification Authority",
		SubjectName:       "Warung Barokah",
		SubjectAddress:    "12 Jalan Merdeka, Bandung, West Java",
		CertificateNumber: "HAL-2025-1001",
		IssuedDate:        issued,
		ExpiryDate:        issued.AddDate(1, 0, 0),
		VerificationURL:   testURL,
		QRCode:            qr,
	}
}

func TestDocumentRenderer_Render(t *testing.T) {
	doc, err := NewDocumentRenderer().Render(testFields(t))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))
}

func TestDocumentRenderer_ByteForByte(t *testing.T) {
	r := NewDocumentRenderer()
	fields := testFields(t)

	first, err := r.Render(fields)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond) // cross a second boundary
	second, err := r.Render(fields)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	fields.SubjectName = "Warung Barokah II"
	third, err := r.Render(fields)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestDocumentRenderer_MissingQRCode(t *testing.T) {
	fields := testFields(t)
	fields.QRCode = nil

	_, err := NewDocumentRenderer().Render(fields)
	assert.ErrorIs(t, err, ErrMissingQRCode)
}
