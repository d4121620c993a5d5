package handler

import (
	"context"
	"net/http"

	"salesledger/internal/model"
	"salesledger/internal/service"
	"salesledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProductionHandler struct {
	productionService service.ProductionService
}

func NewProductionHandler(productionService service.ProductionService) *ProductionHandler {
	return &ProductionHandler{productionService: productionService}
}

func (h *ProductionHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/production/queue", h.Queue)

	orders := router.Group("/api/orders/:id")
	{
		orders.POST("/production/start", h.Start)
		orders.POST("/production/complete", h.Complete)
		orders.POST("/production/ready", h.MarkReady)
		orders.PUT("/priority", h.SetPriority)
	}
}

// Queue lists the production queue of a branch: priority first, then required date
// @Summary      Production queue
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        branch_id  query     string  false  "Branch ID (defaults to the caller's branch)"
// @Success      200        {object}  response.Response{data=[]service.OrderResponse}
// @Failure      400        {object}  response.Response
// @Router       /api/production/queue [get]
func (h *ProductionHandler) Queue(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	branchID := c.Query("branch_id")
	if branchID == "" && actor.BranchID != nil {
		branchID = actor.BranchID.String()
	}

	queue, err := h.productionService.Queue(c.Request.Context(), branchID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, queue))
}

// Start
// @Summary      Start production
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/production/start [post]
func (h *ProductionHandler) Start(c *gin.Context) {
	h.step(c, h.productionService.Start)
}

// Complete
// @Summary      Complete production
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/production/complete [post]
func (h *ProductionHandler) Complete(c *gin.Context) {
	h.step(c, h.productionService.Complete)
}

// MarkReady
// @Summary      Mark ready to ship
// @Tags         production
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/production/ready [post]
func (h *ProductionHandler) MarkReady(c *gin.Context) {
	h.step(c, h.productionService.MarkReady)
}

// SetPriority
// @Summary      Set production priority
// @Tags         production
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Order ID"
// @Param        payload  body      service.PriorityDTO  true  "Priority (higher runs first)"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/priority [put]
func (h *ProductionHandler) SetPriority(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.PriorityDTO
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.productionService.SetPriority(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

func (h *ProductionHandler) step(c *gin.Context, fn func(ctx context.Context, actor model.Actor, orderID string) (service.OrderResponse, error)) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	order, err := fn(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
