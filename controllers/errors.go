package controllers

import (
	"errors"
	"net/http"

	"github.com/Govind-619/PropertyHub/gateway"
	"github.com/Govind-619/PropertyHub/utils"
	"github.com/gin-gonic/gin"
)

// respondError maps service and gateway errors to the response envelope.
// Gateway failures are logged with their cause and answered with 502.
func respondError(c *gin.Context, err error, fallback string) {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		utils.LogError("%s: %v", fallback, err)
		utils.Error(c, http.StatusBadGateway, "Payment gateway request failed", nil)
		return
	}
	utils.RespondError(c, err, fallback)
}
