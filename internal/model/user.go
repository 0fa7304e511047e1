package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Roles recognized by the platform. CLIENTE is the default for self-service
// registration; the other three are staff roles.
const (
	RoleAdminGlobal     = "ADMIN_GLOBAL"
	RoleGerenteSucursal = "GERENTE_SUCURSAL"
	RoleCajero          = "CAJERO"
	RoleCliente         = "CLIENTE"
)

// ValidRole reports whether role is one of the four known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdminGlobal, RoleGerenteSucursal, RoleCajero, RoleCliente:
		return true
	}
	return false
}

type User struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Role          string          `json:"role" db:"role"`
	Name          string          `json:"name" db:"name"`
	Surname       string          `json:"surname" db:"surname"`
	Username      string          `json:"username" db:"username"`
	Email         string          `json:"email" db:"email"`
	Password      string          `json:"-" db:"password"`
	Phone         string          `json:"phone" db:"phone"`
	EncryptedDPI  string          `json:"-" db:"encrypted_dpi"` // PGP-armored DPI
	DPIHMAC       string          `json:"-" db:"dpi_hmac"`      // HMAC-SHA256, unique
	Address       string          `json:"address" db:"address"`
	JobName       string          `json:"job_name" db:"job_name"`
	MonthlyIncome decimal.Decimal `json:"monthly_income" db:"monthly_income"`
	Status        bool            `json:"status" db:"status"`
	ResetCode     *string         `json:"-" db:"reset_code"`
	ResetExpires  *time.Time      `json:"-" db:"reset_expires"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// UserResponse is the safe serialization of a user. DPI is exposed masked,
// never in clear.
type UserResponse struct {
	ID            uuid.UUID       `json:"id"`
	Role          string          `json:"role"`
	Name          string          `json:"name"`
	Surname       string          `json:"surname"`
	Username      string          `json:"username"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	MaskedDPI     string          `json:"dpi"`
	Address       string          `json:"address"`
	JobName       string          `json:"job_name"`
	MonthlyIncome decimal.Decimal `json:"monthly_income"`
	Status        bool            `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

type RegisterInput struct {
	Name          string  `json:"name" validate:"required,max=50"`
	Surname       string  `json:"surname" validate:"required,max=50"`
	Username      string  `json:"username" validate:"required,max=50"`
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,min=6,max=64"`
	Phone         string  `json:"phone" validate:"required,len=8,numeric"`
	DPI           string  `json:"dpi" validate:"required,len=13,numeric"`
	Address       string  `json:"address" validate:"required,max=100"`
	JobName       string  `json:"job_name" validate:"required,max=50"`
	MonthlyIncome float64 `json:"monthly_income" validate:"required,gte=100"`
	Role          string  `json:"role" validate:"omitempty,oneof=ADMIN_GLOBAL GERENTE_SUCURSAL CAJERO CLIENTE"`
}

// LoginInput accepts either email or username.
type LoginInput struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Username string `json:"username" validate:"omitempty,max=50"`
	Password string `json:"password" validate:"required,min=6,max=64"`
}

type PasswordResetRequestInput struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmInput struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=64"`
}

// UpdateUserInput is the admin-side patch. Password is deliberately absent.
type UpdateUserInput struct {
	Name          *string  `json:"name" validate:"omitempty,max=50"`
	Surname       *string  `json:"surname" validate:"omitempty,max=50"`
	Username      *string  `json:"username" validate:"omitempty,max=50"`
	Email         *string  `json:"email" validate:"omitempty,email"`
	Phone         *string  `json:"phone" validate:"omitempty,len=8,numeric"`
	Address       *string  `json:"address" validate:"omitempty,max=100"`
	JobName       *string  `json:"job_name" validate:"omitempty,max=50"`
	MonthlyIncome *float64 `json:"monthly_income" validate:"omitempty,gte=100"`
	Status        *bool    `json:"status"`
	Role          *string  `json:"role" validate:"omitempty,oneof=ADMIN_GLOBAL GERENTE_SUCURSAL CAJERO CLIENTE"`
}

// UpdateMeInput is the self-service subset.
type UpdateMeInput struct {
	Email         *string  `json:"email" validate:"omitempty,email"`
	Username      *string  `json:"username" validate:"omitempty,max=50"`
	Phone         *string  `json:"phone" validate:"omitempty,len=8,numeric"`
	Address       *string  `json:"address" validate:"omitempty,max=100"`
	MonthlyIncome *float64 `json:"monthly_income" validate:"omitempty,gte=100"`
	Password      *string  `json:"password" validate:"omitempty,min=6,max=64"`
}
