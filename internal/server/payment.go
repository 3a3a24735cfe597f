package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/kudamusaisiwa/royalprecast/internal/payment/domain"
	"github.com/kudamusaisiwa/royalprecast/pkg/money"
)

func (s *Server) RecordPayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.Record(c.Request.Context(), paymentdomain.RecordPaymentRequest{
		OrderID:   strings.TrimSpace(c.Param("id")),
		Amount:    money.FromFloat(req.Amount),
		Method:    paymentdomain.Method(strings.TrimSpace(req.Method)),
		Reference: strings.TrimSpace(req.Reference),
		Notes:     req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOrderPayments(c *gin.Context) {
	payments, err := s.paymentSvc.ListByOrder(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"payments": payments}})
}
