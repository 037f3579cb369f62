// Package mortgage defines the mortgage record attached to a financed property.
// This package is PURE and must NOT import any infrastructure packages.
package mortgage

// Mortgage is the financing state of a portfolio property.
//
// Invariants: RemainingBalance is monotonically non-increasing (repayment) or
// constant until payoff/default (interest-only); RemainingTermMonths is
// monotonically non-increasing; once VariableRateActive is true it only
// reverts to false through an explicit refinance.
type Mortgage struct {
	DepositRatio      float64 `json:"deposit_ratio"`
	Deposit           int     `json:"deposit"`
	Principal         int     `json:"principal"`
	TermMonths        int     `json:"term_months"`
	FixedPeriodMonths int     `json:"fixed_period_months"`
	InterestOnly      bool    `json:"interest_only"`

	AnnualInterestRate float64 `json:"annual_interest_rate"` // current effective rate
	ReversionRate      float64 `json:"reversion_rate"`
	MonthlyPayment     float64 `json:"monthly_payment"`

	RemainingBalance    float64 `json:"remaining_balance"`
	RemainingTermMonths int     `json:"remaining_term_months"`
	ElapsedMonths       int     `json:"elapsed_months"` // months amortized since last fix
	VariableRateActive  bool    `json:"variable_rate_active"`
}

// MonthlyRate returns the current effective monthly interest rate.
func (m *Mortgage) MonthlyRate() float64 {
	return m.AnnualInterestRate / 12
}

// Clone returns a copy of the mortgage record.
func (m *Mortgage) Clone() *Mortgage {
	cp := *m
	return &cp
}
