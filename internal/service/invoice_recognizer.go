package service

import (
	"context"
	"fmt"

	"salesledger/internal/logger"
	"salesledger/internal/model"
	"salesledger/pkg/money"

	"github.com/sirupsen/logrus"
)

// invoiceRecognizer posts the receivable for an order at shipment.
type invoiceRecognizer struct {
	poster   *ledgerPoster
	accounts *accountResolver
	logger   *logrus.Logger
}

// Recognize runs inside the ship transaction with customer and order rows locked.
// It returns nil, nil for a zero-value order since there is nothing to invoice.
func (r *invoiceRecognizer) Recognize(txCtx context.Context, customer *model.Customer, order *model.CreditOrder, actor model.Actor) (*PostingResult, error) {
	amount := order.BalanceDue
	if amount <= 0 {
		if order.TotalAmount <= 0 {
			logger.LogWarn(r.logger, "invoice", "Recognize", "zero-value order shipped without invoice", map[string]any{
				"order_id": order.ID,
			})
			return nil, nil
		}
		// balance_due was never populated or is fully prepaid; invoice the total.
		amount = order.TotalAmount
		before := order.BalanceDue
		order.RecomputeBalance()
		logger.LogWarn(r.logger, "invoice", "Recognize", "invoicing total_amount, balance_due was not positive", map[string]any{
			"order_id":           order.ID,
			"balance_due_before": before.String(),
			"balance_due_after":  order.BalanceDue.String(),
		})
	}

	ar, err := r.accounts.Receivable(txCtx)
	if err != nil {
		return nil, err
	}
	revenue, err := r.accounts.Revenue(txCtx, order.BranchID)
	if err != nil {
		return nil, err
	}

	return r.poster.Post(txCtx, Posting{
		Customer:        customer,
		TransactionType: model.LedgerTxInvoice,
		ReferenceType:   model.RefTypeOrder,
		ReferenceID:     order.ID,
		Debit:           amount,
		DebitAccountID:  ar.ID,
		CreditAccountID: revenue.ID,
		JournalSource:   model.JournalSourceInvoice,
		Description:     fmt.Sprintf("Invoice for order %s", order.OrderNumber),
		ActorID:         actor.UserID,
	})
}

// invoiceAmount is exposed for responses; it mirrors the amount Recognize posts.
func invoiceAmount(result *PostingResult) money.Amount {
	if result == nil {
		return 0
	}
	return result.Ledger.DebitAmount
}
