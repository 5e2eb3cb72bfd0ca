package reports

import (
	"fmt"
	"io"

	"github.com/Govind-619/PropertyHub/models"
	"github.com/tealeg/xlsx"
)

// WorkbookSheet is the name of the payments sheet
const WorkbookSheet = "Payments"

var workbookHeaders = []string{"Payment ID", "Date", "Amount", "Currency", "Method", "Gateway", "Status", "Gateway Reference", "Booking", "Type"}

// WritePaymentsWorkbook renders payments and their summary as an XLSX workbook
func WritePaymentsWorkbook(w io.Writer, payments []models.Payment, period Period) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(WorkbookSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	sheet.AddRow().AddCell().SetString(CompanyName + " - Payments Report")
	sheet.AddRow().AddCell().SetString("Period: " + period.String())
	sheet.AddRow()

	bold := boldStyle()
	headerRow := sheet.AddRow()
	for _, h := range workbookHeaders {
		cell := headerRow.AddCell()
		cell.SetString(h)
		cell.SetStyle(bold)
	}

	for _, p := range payments {
		kind := "payment"
		if p.IsRefund() {
			kind = models.MetadataTypeRefund
		}
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID)
		row.AddCell().SetString(p.CreatedAt.Format("2006-01-02 15:04"))
		row.AddCell().SetFloat(p.Amount)
		row.AddCell().SetString(p.Currency)
		row.AddCell().SetString(string(p.Method))
		row.AddCell().SetString(p.Gateway)
		row.AddCell().SetString(string(p.Status))
		row.AddCell().SetString(p.GatewayRef())
		row.AddCell().SetString(deref(p.BookingID))
		row.AddCell().SetString(kind)
	}

	sheet.AddRow()
	summary := Summarize(payments)
	summaryRow := sheet.AddRow()
	summaryCell := summaryRow.AddCell()
	summaryCell.SetString("Summary")
	summaryCell.SetStyle(bold)

	summaryData := [][]string{
		{"Payments", fmt.Sprintf("%d", summary.Payments)},
		{"Completed", fmt.Sprintf("%d", summary.Completed)},
		{"Refunded", fmt.Sprintf("%d", summary.Refunded)},
		{"Pending", fmt.Sprintf("%d", summary.Pending)},
		{"Failed", fmt.Sprintf("%d", summary.Failed)},
		{"Gross Collected", fmt.Sprintf("%.2f", summary.Gross)},
		{"Refunds", fmt.Sprintf("%.2f", summary.Refunds)},
		{"Net", fmt.Sprintf("%.2f", summary.Net)},
	}
	for _, data := range summaryData {
		row := sheet.AddRow()
		row.AddCell().SetString(data[0])
		row.AddCell().SetString(data[1])
	}

	return file.Write(w)
}

func boldStyle() *xlsx.Style {
	style := xlsx.NewStyle()
	font := xlsx.DefaultFont()
	font.Bold = true
	style.Font = *font
	return style
}
