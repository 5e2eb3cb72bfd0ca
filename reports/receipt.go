package reports

import (
	"fmt"
	"io"
	"math"

	"github.com/Govind-619/PropertyHub/models"
	"github.com/jung-kurt/gofpdf"
)

// CompanyName is printed on every document header
const CompanyName = "PROPERTYHUB"

// WritePaymentReceipt renders a single payment as a PDF receipt
func WritePaymentReceipt(w io.Writer, p *models.Payment) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	title := "Payment Receipt"
	if p.IsRefund() {
		title = "Refund Receipt"
	}

	pdf.SetFont("Arial", "B", 20)
	pdf.Cell(0, 12, CompanyName+" - "+title)
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, "Receipt generated for payment "+p.ID)
	pdf.Ln(10)

	rows := [][2]string{
		{"Payment ID", p.ID},
		{"Status", string(p.Status)},
		{"Amount", fmt.Sprintf("%s %.2f", p.Currency, math.Abs(p.Amount))},
		{"Method", string(p.Method)},
		{"Gateway", p.Gateway},
		{"Gateway Reference", p.GatewayRef()},
		{"Gateway Payment ID", deref(p.GatewayPaymentID)},
		{"Booking", deref(p.BookingID)},
		{"Created", p.CreatedAt.Format("2006-01-02 15:04")},
		{"Processed", formatTime(p.ProcessedAt)},
	}
	if p.Description != "" {
		rows = append(rows, [2]string{"Description", p.Description})
	}
	if p.IsRefund() {
		rows = append(rows,
			[2]string{"Refund Of", p.Metadata.String(models.MetadataOriginalPaymentID)},
			[2]string{"Reason", p.Metadata.String(models.MetadataRefundReason)},
		)
	}
	if p.FailureReason != nil {
		rows = append(rows, [2]string{"Failure Reason", *p.FailureReason})
	}

	for i, row := range rows {
		fill := i%2 == 0
		pdf.SetFillColor(245, 245, 245)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(55, 8, row[0], "1", 0, "L", fill, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(125, 8, row[1], "1", 0, "L", fill, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 9)
	pdf.Cell(0, 6, "This is a computer generated receipt and does not require a signature.")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}
	return pdf.Output(w)
}
