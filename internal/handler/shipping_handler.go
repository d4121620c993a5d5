package handler

import (
	"net/http"

	"salesledger/internal/service"
	"salesledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type DeliverRequest struct {
	Comment string `json:"comment"`
}

type ShippingHandler struct {
	shippingService service.ShippingService
}

func NewShippingHandler(shippingService service.ShippingService) *ShippingHandler {
	return &ShippingHandler{shippingService: shippingService}
}

func (h *ShippingHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders/:id")
	{
		orders.POST("/ship", h.Ship)
		orders.POST("/deliver", h.Deliver)
	}
}

// Ship dispatches an order, recognizing its invoice against the customer ledger
// @Summary      Ship order
// @Description  Posts the invoice (ledger + journal) and moves the order to shipped in one transaction.
// @Description  Trip consolidation runs afterwards; its failures are reported in hook_errors.
// @Tags         shipping
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                true   "Order ID"
// @Param        payload  body      service.ShipOrderDTO  false  "Vehicle, driver and weight"
// @Success      200      {object}  response.Response{data=service.ShipmentResponse}
// @Failure      409      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/orders/{id}/ship [post]
func (h *ShippingHandler) Ship(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.ShipOrderDTO
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	shipment, err := h.shippingService.Ship(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, shipment))
}

// Deliver
// @Summary      Confirm delivery
// @Tags         shipping
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string          true   "Order ID"
// @Param        payload  body      DeliverRequest  false  "Comment"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/deliver [post]
func (h *ShippingHandler) Deliver(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req DeliverRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	order, err := h.shippingService.Deliver(c.Request.Context(), actor, c.Param("id"), req.Comment)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
