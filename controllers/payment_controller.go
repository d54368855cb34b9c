package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/yashrajoria/payment-api/services"

	"github.com/gin-gonic/gin"
)

// PaymentController handles HTTP requests for payment intents and refunds.
// Failures are attached with c.Error and written by the error middleware.
type PaymentController struct {
	paymentService services.PaymentService
	validator      *RequestValidator
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(svc services.PaymentService, validator *RequestValidator) *PaymentController {
	return &PaymentController{paymentService: svc, validator: validator}
}

// CreatePaymentIntent handles POST /payments/intent
func (pc *PaymentController) CreatePaymentIntent(c *gin.Context) {
	req, err := pc.validator.ParseCreatePaymentIntent(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	intent, err := pc.paymentService.CreatePaymentIntent(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    intent,
		"message": "Payment intent created successfully",
	})
}

// GetPaymentIntent handles GET /payments/intent/:id
func (pc *PaymentController) GetPaymentIntent(c *gin.Context) {
	intent, err := pc.paymentService.GetPaymentIntent(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": intent})
}

// ConfirmPayment handles POST /payments/confirm
func (pc *PaymentController) ConfirmPayment(c *gin.Context) {
	req, err := pc.validator.ParseConfirmPayment(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	intent, err := pc.paymentService.ConfirmPayment(c.Request.Context(), req.PaymentIntentID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    intent,
		"message": "Payment confirmed successfully",
	})
}

// CreateRefund handles POST /payments/refund
func (pc *PaymentController) CreateRefund(c *gin.Context) {
	req, err := pc.validator.ParseRefund(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	refund, err := pc.paymentService.CreateRefund(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	message := "Full refund processed successfully"
	if req.Amount != nil {
		message = fmt.Sprintf("Refund of %s %s processed successfully", req.Amount.String(), refund.Currency)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    refund,
		"message": message,
	})
}

// ListPaymentIntents handles GET /payments/intents
func (pc *PaymentController) ListPaymentIntents(c *gin.Context) {
	req, err := pc.validator.ParseListPaymentIntents(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	page, err := pc.paymentService.ListPaymentIntents(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": page})
}

// Health handles GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "Payment API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// NotFound answers unmatched routes.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":   "Not Found",
		"message": fmt.Sprintf("Route %s not found", c.Request.URL.Path),
	})
}
