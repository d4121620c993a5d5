package handler

import (
	"context"
	"net/http"
	"strings"

	"salesledger/internal/model"
	"salesledger/internal/service"
	"salesledger/pkg/pagination"
	"salesledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.PUT("/:id", h.EditOrder)
		orders.GET("/:id/events", h.ListEvents)
		orders.POST("/:id/submit", h.Submit)
		orders.POST("/:id/decide", h.Decide)
		orders.POST("/:id/reject", h.Reject)
		orders.POST("/:id/cancel", h.Cancel)
	}
}

// CreateOrder creates a draft credit order, submitting it right away when submit is true
// @Summary      Create order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderDTO  true  "Order"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.CreateOrderDTO
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders returns orders filtered by status, customer and branch
// @Summary      List orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        status       query     string  false  "Comma separated statuses"
// @Param        customer_id  query     string  false  "Customer ID"
// @Param        branch_id    query     string  false  "Branch ID"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=[]service.OrderResponse}
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	p := pagination.Parse(c)
	filter := service.OrderListFilter{
		CustomerID: c.Query("customer_id"),
		BranchID:   c.Query("branch_id"),
		Page:       p.Page,
		Limit:      p.Limit,
	}
	for _, raw := range c.QueryArray("status") {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Statuses = append(filter.Statuses, s)
			}
		}
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, orders, p.Meta(total)))
}

// GetOrder
// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// EditOrder updates items and scheduling fields of an open order
// @Summary      Edit order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                true  "Order ID"
// @Param        payload  body      service.EditOrderDTO  true  "Changes"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id} [put]
func (h *OrderHandler) EditOrder(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.EditOrderDTO
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.EditOrder(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ListEvents returns the workflow history of an order, oldest first
// @Summary      Order workflow events
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]service.WorkflowEventResponse}
// @Router       /api/orders/{id}/events [get]
func (h *OrderHandler) ListEvents(c *gin.Context) {
	events, err := h.orderService.ListEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, events))
}

// Submit
// @Summary      Submit order for approval
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/submit [post]
func (h *OrderHandler) Submit(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	order, err := h.orderService.Submit(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// Decide approves or rejects a submitted order after the credit check
// @Summary      Approval decision
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Order ID"
// @Param        payload  body      service.DecideOrderDTO  true  "Decision"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/decide [post]
func (h *OrderHandler) Decide(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.DecideOrderDTO
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Decide(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// Reject
// @Summary      Reject escalated order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string             true  "Order ID"
// @Param        payload  body      service.ReasonDTO  false  "Reason"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      403      {object}  response.Response
// @Router       /api/orders/{id}/reject [post]
func (h *OrderHandler) Reject(c *gin.Context) {
	h.withReason(c, h.orderService.Reject)
}

// Cancel
// @Summary      Cancel order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string             true  "Order ID"
// @Param        payload  body      service.ReasonDTO  false  "Reason"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	h.withReason(c, h.orderService.Cancel)
}

type reasonFunc func(ctx context.Context, actor model.Actor, orderID string, reason string) (service.OrderResponse, error)

func (h *OrderHandler) withReason(c *gin.Context, fn reasonFunc) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.ReasonDTO
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	order, err := fn(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
