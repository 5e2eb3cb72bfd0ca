package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Govind-619/PropertyHub/gateway"
	"github.com/Govind-619/PropertyHub/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
		hidden   string
	}{
		{"validation", fmt.Errorf("%w: amount must be greater than zero", services.ErrInvalidAmount), http.StatusBadRequest, "amount must be greater than zero", ""},
		{"state", services.ErrInvalidState, http.StatusConflict, services.ErrInvalidState.Message, ""},
		{"not found", services.ErrNotFound, http.StatusNotFound, "payment not found", ""},
		{"gateway", &gateway.Error{Gateway: "razorpay", Op: "create_order", Err: errors.New("key_secret rejected")}, http.StatusBadGateway, "Payment gateway request failed", "key_secret"},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError, "Failed to do thing", "connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tt.err, "Failed to do thing")

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.Contains(t, w.Body.String(), `"success":false`)
			if tt.hidden != "" {
				assert.NotContains(t, w.Body.String(), tt.hidden)
			}
		})
	}
}
