package handler

import (
	"net/http"

	"salesledger/internal/middleware"
	"salesledger/internal/service"
	"salesledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type AccountingHandler struct {
	accounting service.AccountingService
}

func NewAccountingHandler(accounting service.AccountingService) *AccountingHandler {
	return &AccountingHandler{accounting: accounting}
}

func (h *AccountingHandler) RegisterRoutes(router *gin.RouterGroup) {
	accounts := router.Group("/api/accounts")
	{
		accounts.GET("", h.ListAccounts)
		accounts.POST("", middleware.RequirePrivileged(), h.CreateAccount)
	}
	router.GET("/api/journal/:id", h.GetJournalEntry)
}

// ListAccounts
// @Summary      Chart of accounts
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.AccountResponse}
// @Router       /api/accounts [get]
func (h *AccountingHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.accounting.ListAccounts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, accounts))
}

// CreateAccount adds a tagged ledger account
// @Summary      Create account
// @Tags         accounting
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateAccountDTO  true  "Account"
// @Success      201      {object}  response.Response{data=service.AccountResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/accounts [post]
func (h *AccountingHandler) CreateAccount(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.CreateAccountDTO
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.accounting.CreateAccount(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, account))
}

// GetJournalEntry
// @Summary      Get journal entry
// @Tags         accounting
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Journal entry ID"
// @Success      200  {object}  response.Response{data=service.JournalEntryResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/journal/{id} [get]
func (h *AccountingHandler) GetJournalEntry(c *gin.Context) {
	entry, err := h.accounting.GetJournalEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}
