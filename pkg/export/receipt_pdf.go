package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/noah-isme/sfp-api/internal/models"
)

// ReceiptPDF renders a printable receipt for a successful payment.
type ReceiptPDF struct {
	schoolName string
}

// NewReceiptPDF constructs a receipt renderer.
func NewReceiptPDF(schoolName string) *ReceiptPDF {
	if schoolName == "" {
		schoolName = "School Fee Portal"
	}
	return &ReceiptPDF{schoolName: schoolName}
}

// Render produces the PDF bytes for the given receipt.
func (e *ReceiptPDF) Render(receipt models.Receipt) ([]byte, error) {
	if receipt.ReceiptID == "" {
		return nil, fmt.Errorf("receipt id required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, e.schoolName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, "Payment Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	rows := [][2]string{
		{"Receipt ID", receipt.ReceiptID},
		{"Payment ID", receipt.PaymentID},
		{"Student", receipt.StudentName},
		{"Class", receipt.StudentClass},
		{"Category", receipt.Category},
		{"Amount", fmt.Sprintf("%.2f", receipt.Amount)},
		{"Paid At", receipt.PaidAt.Format("02 Jan 2006 15:04 MST")},
	}

	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 8, row[0], "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(130, 8, row[1], "1", 1, "", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, "This is a system generated receipt and does not require a signature.", "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}
