package model

import "time"

// TransactionType distinguishes deposits from withdrawals.
type TransactionType string

const (
	TypeDeposit    TransactionType = "D"
	TypeWithdrawal TransactionType = "W"
)

// TransactionStatus is the settlement state reported by the upstream
// payment pipeline. It is recorded as-is, not derived here.
type TransactionStatus string

const (
	StatusComplete TransactionStatus = "Complete"
	StatusPending  TransactionStatus = "Pending"
	StatusFailed   TransactionStatus = "Failed"
)

// Transaction mirrors the 'transactions' table. Rows are append-mostly:
// they are created by the payment pipeline and queried by batch or client.
// Amount is kept as the DECIMAL string the store returns to avoid float
// rounding.
type Transaction struct {
	ID           string
	BatchID      string
	ClientID     string
	Type         TransactionType
	Amount       string
	Status       TransactionStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
	DeletedBy    *string
	DeleteReason *string
}

// Active reports whether the transaction has not been voided.
func (t *Transaction) Active() bool { return t.DeletedAt == nil }
