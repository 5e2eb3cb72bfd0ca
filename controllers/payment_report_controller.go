package controllers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/Govind-619/PropertyHub/reports"
	"github.com/Govind-619/PropertyHub/repository"
	"github.com/Govind-619/PropertyHub/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DownloadReceipt renders the PDF receipt of a payment
func (pc *PaymentController) DownloadReceipt(c *gin.Context) {
	payment, err := pc.payments.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get payment")
		return
	}

	var buf bytes.Buffer
	if err := reports.WritePaymentReceipt(&buf, payment); err != nil {
		utils.LogError("Failed to generate receipt for payment %s: %v", payment.ID, err)
		utils.InternalServerError(c, "Failed to generate receipt", nil)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt_%s.pdf", payment.ID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// ExportPayments renders the payments of a period as an XLSX workbook
func (pc *PaymentController) ExportPayments(c *gin.Context) {
	now := pc.now()
	period, err := reports.ParsePeriod(c.DefaultQuery("period", "month"), now)
	if err != nil {
		utils.BadRequest(c, err.Error(), nil)
		return
	}

	page, err := pc.payments.ListPayments(c.Request.Context(), repository.PaymentFilter{
		From: &period.Start,
		To:   &period.End,
	})
	if err != nil {
		respondError(c, err, "Failed to load payments")
		return
	}

	var buf bytes.Buffer
	if err := reports.WritePaymentsWorkbook(&buf, page.Payments, period); err != nil {
		utils.LogError("Failed to generate payments workbook: %v", err)
		utils.InternalServerError(c, "Failed to generate report", nil)
		return
	}

	utils.LogInfo("Exported %d payments for period %s", len(page.Payments), period.Name)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=payments_%s_%s.xlsx", period.Name, now.Format("20060102")))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
