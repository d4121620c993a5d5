package handler

import (
	"net/http"

	"salesledger/internal/middleware"
	"salesledger/internal/service"
	"salesledger/pkg/money"
	"salesledger/pkg/pagination"
	"salesledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	customerService service.CustomerService
	paymentService  service.PaymentService
	accounting      service.AccountingService
}

func NewCustomerHandler(customerService service.CustomerService, paymentService service.PaymentService, accounting service.AccountingService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		paymentService:  paymentService,
		accounting:      accounting,
	}
}

func (h *CustomerHandler) RegisterRoutes(router *gin.RouterGroup) {
	customers := router.Group("/api/customers")
	{
		customers.POST("", middleware.RequirePrivileged(), h.CreateCustomer)
		customers.GET("", h.ListCustomers)
		customers.GET("/:id", h.GetCustomer)
		customers.GET("/:id/credit", h.CreditSnapshot)
		customers.GET("/:id/ledger", h.Statement)
		customers.GET("/:id/ledger/verify", middleware.RequirePrivileged(), h.VerifyLedger)
		customers.GET("/:id/payments", h.ListPayments)
		customers.GET("/:id/journal", h.ListJournal)
	}
}

// CreateCustomer registers a credit customer
// @Summary      Create customer
// @Description  Creates a customer; initial_due seeds the opening balance
// @Tags         customers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCustomerDTO  true  "Customer"
// @Success      201      {object}  response.Response{data=service.CustomerResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/customers [post]
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.CreateCustomerDTO
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customerService.CreateCustomer(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, customer))
}

// ListCustomers returns customers page by page
// @Summary      List customers
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Code or name contains"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=[]service.CustomerResponse}
// @Router       /api/customers [get]
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	p := pagination.Parse(c)
	customers, total, err := h.customerService.ListCustomers(c.Request.Context(), p.Page, p.Limit, c.Query("search"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, customers, p.Meta(total)))
}

// GetCustomer
// @Summary      Get customer
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=service.CustomerResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	customer, err := h.customerService.GetCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}

// CreditSnapshot evaluates credit usage as if an order of the given amount were approved
// @Summary      Credit evaluation snapshot
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id      path      string  true   "Customer ID"
// @Param        amount  query     string  false  "Prospective order balance (decimal)"
// @Success      200     {object}  response.Response{data=service.CreditAssessment}
// @Failure      400     {object}  response.Response
// @Router       /api/customers/{id}/credit [get]
func (h *CustomerHandler) CreditSnapshot(c *gin.Context) {
	amount := money.Amount(0)
	if raw := c.Query("amount"); raw != "" {
		parsed, err := money.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid amount: "+err.Error()))
			return
		}
		amount = parsed
	}

	assessment, err := h.customerService.CreditSnapshot(c.Request.Context(), c.Param("id"), amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, assessment))
}

// Statement replays the customer ledger
// @Summary      Customer ledger statement
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=service.StatementResponse}
// @Router       /api/customers/{id}/ledger [get]
func (h *CustomerHandler) Statement(c *gin.Context) {
	st, err := h.customerService.Statement(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, st))
}

// VerifyLedger checks the balance chain and the journal behind every ledger entry
// @Summary      Verify ledger chain
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=service.LedgerVerification}
// @Router       /api/customers/{id}/ledger/verify [get]
func (h *CustomerHandler) VerifyLedger(c *gin.Context) {
	v, err := h.customerService.VerifyLedger(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, v))
}

// ListPayments
// @Summary      Customer payments
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=[]service.PaymentResponse}
// @Router       /api/customers/{id}/payments [get]
func (h *CustomerHandler) ListPayments(c *gin.Context) {
	payments, err := h.paymentService.ListCustomerPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payments))
}

// ListJournal
// @Summary      Customer journal entries
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=[]service.JournalEntryResponse}
// @Router       /api/customers/{id}/journal [get]
func (h *CustomerHandler) ListJournal(c *gin.Context) {
	entries, err := h.accounting.ListCustomerJournal(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entries))
}
