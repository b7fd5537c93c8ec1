package borrow

import "time"

type Status string

const (
	StatusActive   Status = "active"
	StatusReturned Status = "returned"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusReturned:
		return true
	default:
		return false
	}
}

const (
	// LoanPeriod is the checkout window; renewals extend by the same amount.
	LoanPeriod = 14 * 24 * time.Hour

	// MaxRenewals bounds how often a single borrow can be extended.
	MaxRenewals = 2

	// FineCentsPerDay is charged per started day past the due date.
	FineCentsPerDay = 100
)
