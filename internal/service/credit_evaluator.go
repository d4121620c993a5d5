package service

import (
	"math/bits"

	"salesledger/internal/model"
	"salesledger/pkg/money"
)

// DefaultEscalationBPS is the 80% usage threshold in basis points.
const DefaultEscalationBPS int64 = 8000

const bpsScale int64 = 10000

// CreditAssessment is the outcome of evaluating one order against a customer's credit.
type CreditAssessment struct {
	CreditLimit    money.Amount `json:"credit_limit"`
	CurrentBalance money.Amount `json:"current_balance"`
	Available      money.Amount `json:"available"`
	BalanceDue     money.Amount `json:"balance_due"`
	Unlimited      bool         `json:"unlimited"`
	// UsageBPS is balance_due / available in basis points, 0 when unlimited or nothing is available.
	UsageBPS int64 `json:"usage_bps"`
	// Exceeds means balance_due is more than the available credit (hard block).
	Exceeds bool `json:"exceeds"`
	// RequiresEscalation means a non-privileged approval must be escalated.
	RequiresEscalation bool `json:"requires_escalation"`
}

// CreditEvaluator is pure: it reads the figures it is given and nothing else.
type CreditEvaluator struct {
	thresholdBPS int64
}

func NewCreditEvaluator(thresholdBPS int64) *CreditEvaluator {
	if thresholdBPS <= 0 || thresholdBPS > bpsScale {
		thresholdBPS = DefaultEscalationBPS
	}
	return &CreditEvaluator{thresholdBPS: thresholdBPS}
}

func (e *CreditEvaluator) ThresholdBPS() int64 { return e.thresholdBPS }

// AvailableCredit is credit_limit - current_balance.
func AvailableCredit(c *model.Customer) money.Amount {
	return c.CreditLimit - c.CurrentBalance
}

func (e *CreditEvaluator) Evaluate(c *model.Customer, balanceDue money.Amount) CreditAssessment {
	a := CreditAssessment{
		CreditLimit:    c.CreditLimit,
		CurrentBalance: c.CurrentBalance,
		Available:      AvailableCredit(c),
		BalanceDue:     balanceDue,
	}
	if c.CreditLimit == 0 {
		a.Unlimited = true
		return a
	}
	if balanceDue <= 0 {
		return a
	}
	if a.Available <= 0 {
		a.Exceeds = true
		a.RequiresEscalation = true
		return a
	}

	due, avail := uint64(balanceDue), uint64(a.Available)
	a.Exceeds = due > avail
	// usage >= threshold  <=>  due * 10000 >= threshold * available
	a.RequiresEscalation = a.Exceeds || compareProducts(due, uint64(bpsScale), uint64(e.thresholdBPS), avail) >= 0
	if a.Exceeds {
		a.UsageBPS = bpsScale
	} else {
		hi, lo := bits.Mul64(due, uint64(bpsScale))
		q, _ := bits.Div64(hi, lo, avail)
		a.UsageBPS = int64(q)
	}
	return a
}

// compareProducts compares a*b with c*d without overflow.
func compareProducts(a, b, c, d uint64) int {
	hi1, lo1 := bits.Mul64(a, b)
	hi2, lo2 := bits.Mul64(c, d)
	switch {
	case hi1 != hi2:
		if hi1 < hi2 {
			return -1
		}
		return 1
	case lo1 < lo2:
		return -1
	case lo1 > lo2:
		return 1
	}
	return 0
}
