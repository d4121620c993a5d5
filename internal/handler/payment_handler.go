package handler

import (
	"net/http"

	"salesledger/internal/service"
	"salesledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/api/payments")
	{
		payments.POST("", h.RecordPayment)
		payments.GET("/:id", h.GetPayment)
	}
}

// RecordPayment collects a customer payment and allocates it across orders
// @Summary      Record payment
// @Description  Allocations must belong to the customer and may not exceed each order's balance due.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RecordPaymentDTO  true  "Payment"
// @Success      201      {object}  response.Response{data=service.PaymentResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/payments [post]
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.RecordPaymentDTO
	if !bindJSON(c, &req) {
		return
	}

	payment, err := h.paymentService.RecordPayment(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payment))
}

// GetPayment
// @Summary      Get payment
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response{data=service.PaymentResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}
