package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is quetzales; every account defaults to it.
const DefaultCurrency = "GTQ"

type Account struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	AccountNumber string          `json:"account_number" db:"account_number"`
	Balance       decimal.Decimal `json:"balance" db:"balance"`
	Currency      string          `json:"currency" db:"currency"`
	Status        bool            `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// AccountDetail is an account with its owner joined for display.
type AccountDetail struct {
	Account
	OwnerName    string `json:"owner_name"`
	OwnerSurname string `json:"owner_surname"`
	OwnerEmail   string `json:"owner_email"`
}

// GenerateAccountNumber returns a 12-character uppercase hex account number
// (6 random bytes).
func GenerateAccountNumber() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform is broken; fall back to a
		// uuid-derived value rather than panicking during registration.
		return strings.ToUpper(uuid.NewString()[:12])
	}
	return strings.ToUpper(hex.EncodeToString(b))
}

type CreateAccountRequest struct {
	UserID   uuid.UUID `json:"user_id" validate:"required"`
	Currency string    `json:"currency" validate:"omitempty,len=3,alpha"`
}

type UpdateAccountRequest struct {
	Currency *string `json:"currency" validate:"omitempty,len=3,alpha"`
	Status   *bool   `json:"status"`
}
