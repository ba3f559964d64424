package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

const dateLayout = "02 January 2006"

var ErrMissingQRCode = errors.New("certificate document requires a qr code")

// DocumentFields is everything printed on a certificate.
type DocumentFields struct {
	IssuerName        string
	SubjectName       string
	SubjectAddress    string
	CertificateNumber string
	IssuedDate        time.Time
	ExpiryDate        time.Time
	VerificationURL   string
	QRCode            []byte // PNG as stored at issuance
}

// DocumentRenderer lays out an A4 certificate. Identical fields always give
// identical bytes: document dates are pinned to the issue date and catalog
// entries are sorted.
type DocumentRenderer struct{}

func NewDocumentRenderer() *DocumentRenderer {
	return &DocumentRenderer{}
}

func (r *DocumentRenderer) Render(f DocumentFields) ([]byte, error) {
	if len(f.QRCode) == 0 {
		return nil, ErrMissingQRCode
	}
	qr, err := toGrayPNG(f.QRCode)
	if err != nil {
		return nil, err
	}

	issued := f.IssuedDate.UTC()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(issued)
	pdf.SetModificationDate(issued)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Halal Certificate "+f.CertificateNumber, true)
	pdf.SetAuthor(f.IssuerName, true)
	pdf.SetCreator(f.IssuerName, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pageW, pageH := pdf.GetPageSize()

	// double frame
	pdf.SetDrawColor(0, 110, 60)
	pdf.SetLineWidth(1.2)
	pdf.Rect(10, 10, pageW-20, pageH-20, "D")
	pdf.SetLineWidth(0.4)
	pdf.Rect(14, 14, pageW-28, pageH-28, "D")

	pdf.SetTextColor(0, 110, 60)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(20, 28)
	pdf.CellFormat(pageW-40, 8, tr(f.IssuerName), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 30)
	pdf.SetXY(20, 44)
	pdf.CellFormat(pageW-40, 14, "HALAL CERTIFICATE", "", 1, "C", false, 0, "")

	pdf.SetTextColor(40, 40, 40)
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(20, 66)
	pdf.CellFormat(pageW-40, 7, "This is to certify that", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(25, 78)
	pdf.MultiCell(pageW-50, 10, tr(f.SubjectName), "", "C", false)

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetX(25)
	pdf.MultiCell(pageW-50, 6, tr(f.SubjectAddress), "", "C", false)

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "", 12)
	pdf.SetX(25)
	pdf.MultiCell(pageW-50, 7,
		"has been inspected and found to comply with the halal requirements of the issuing authority.",
		"", "C", false)

	// detail table
	pdf.SetXY(40, 150)
	rows := [][2]string{
		{"Certificate No.", f.CertificateNumber},
		{"Date of Issue", issued.Format(dateLayout)},
		{"Valid Until", f.ExpiryDate.UTC().Format(dateLayout)},
	}
	for _, row := range rows {
		pdf.SetX(40)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(50, 9, row[0], "B", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(pageW-130, 9, tr(row[1]), "B", 1, "L", false, 0, "")
	}

	qrName := "qr-" + f.CertificateNumber
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(qrName, opts, bytes.NewReader(qr))
	qrEdge := 55.0
	pdf.ImageOptions(qrName, (pageW-qrEdge)/2, 192, qrEdge, qrEdge, false, opts, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(20, 250)
	pdf.CellFormat(pageW-40, 5, "Scan to verify or visit", "", 1, "C", false, 0, "")
	pdf.SetX(20)
	pdf.CellFormat(pageW-40, 5, f.VerificationURL, "", 1, "C", false, 0, f.VerificationURL)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to lay out certificate document: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write certificate document: %w", err)
	}
	return buf.Bytes(), nil
}
