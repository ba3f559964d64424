// Package artifact renders the scannable and printable forms of a
// certificate. Everything here is a pure function of its inputs.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/skip2/go-qrcode"
)

// MinQRSize is the smallest QR edge length, in pixels, that is accepted.
const MinQRSize = 300

var ErrEmptyContent = errors.New("qr content must not be empty")

// QREncoder turns a verification URL into a PNG QR code using medium
// error correction.
type QREncoder struct {
	size int
}

func NewQREncoder(size int) *QREncoder {
	if size < MinQRSize {
		size = MinQRSize
	}
	return &QREncoder{size: size}
}

func (e *QREncoder) Size() int {
	return e.size
}

func (e *QREncoder) Encode(content string) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}

	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to build qr code: %w", err)
	}

	data, err := code.PNG(e.size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr png: %w", err)
	}
	return data, nil
}

// toGrayPNG re-encodes a PNG as 8-bit grayscale, which the PDF writer embeds
// without palette handling.
func toGrayPNG(data []byte) ([]byte, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode qr png: %w", err)
	}

	gray := image.NewGray(src.Bounds())
	draw.Draw(gray, gray.Bounds(), src, src.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("failed to encode gray png: %w", err)
	}
	return buf.Bytes(), nil
}
