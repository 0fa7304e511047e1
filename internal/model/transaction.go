package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposito      TransactionType = "DEPOSITO"      // cash deposit
	TransactionTypeTransferencia TransactionType = "TRANSFERENCIA" // transfer between accounts
	TransactionTypeCompra        TransactionType = "COMPRA"        // purchase, debits the account
	TransactionTypeCredito       TransactionType = "CREDITO"       // credit applied by a cashier
)

// ValidTransactionType reports whether t is one of the four ledger types.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TransactionTypeDeposito, TransactionTypeTransferencia,
		TransactionTypeCompra, TransactionTypeCredito:
		return true
	}
	return false
}

type Transaction struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	AccountID        uuid.UUID       `json:"account_id" db:"account_id"`
	Type             TransactionType `json:"type" db:"type"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	RelatedAccountID *uuid.UUID      `json:"related_account_id" db:"related_account_id"`
	// Reversed is an advisory bookkeeping marker; no operation sets it and
	// no balance adjustment is ever derived from it.
	Reversed  bool      `json:"reversed" db:"reversed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TransactionDetail carries the joined account numbers for display, the
// equivalent of the source API's populated references.
type TransactionDetail struct {
	Transaction
	AccountNumber        string  `json:"account_number"`
	RelatedAccountNumber *string `json:"related_account_number"`
}

type DepositRequest struct {
	AccountID uuid.UUID `json:"account_id" validate:"required"`
	Amount    float64   `json:"amount" validate:"required,gt=0"`
}

type TransferRequest struct {
	FromAccountID uuid.UUID `json:"from_account_id" validate:"required"`
	ToAccountID   uuid.UUID `json:"to_account_id" validate:"required,nefield=FromAccountID"`
	Amount        float64   `json:"amount" validate:"required,gt=0"`
}

type PurchaseRequest struct {
	AccountID uuid.UUID `json:"account_id" validate:"required"`
	Amount    float64   `json:"amount" validate:"required,gt=0"`
}

type CreditRequest struct {
	AccountID uuid.UUID `json:"account_id" validate:"required"`
	Amount    float64   `json:"amount" validate:"required,gt=0"`
}

// UpdateTransactionRequest patches ledger metadata only; balances are never
// re-derived from an edit.
type UpdateTransactionRequest struct {
	Type             *TransactionType `json:"type" validate:"omitempty,oneof=DEPOSITO TRANSFERENCIA COMPRA CREDITO"`
	Amount           *float64         `json:"amount" validate:"omitempty,gte=0"`
	RelatedAccountID *uuid.UUID       `json:"related_account_id"`
	Reversed         *bool            `json:"reversed"`
}

// TransferResult reports both sides of a completed transfer.
type TransferResult struct {
	Outgoing    *Transaction    `json:"out"`
	Incoming    *Transaction    `json:"in"`
	FromBalance decimal.Decimal `json:"from_balance"`
	ToBalance   decimal.Decimal `json:"to_balance"`
}
