package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"banca-api/internal/model"
)

type AccountRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewAccountRepository(db *sql.DB, logger *logrus.Logger) *AccountRepository {
	return &AccountRepository{db: db, logger: logger}
}

const accountColumns = `id, user_id, account_number, balance, currency, status, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	var account model.Account
	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.AccountNumber,
		&account.Balance,
		&account.Currency,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, account_number, balance, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		account.ID,
		account.UserID,
		account.AccountNumber,
		account.Balance,
		account.Currency,
		account.Status,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("account %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("account for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account by user: %w", err)
	}
	return account, nil
}

// GetByIDForUpdate loads an account inside tx, taking a row lock so
// concurrent balance mutations against the same account serialize.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	account, err := scanAccount(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("account %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// UpdateBalanceTx shifts the balance by delta using SQL-side arithmetic; the
// accounts.balance check constraint rejects any write below zero.
func (r *AccountRepository) UpdateBalanceTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, delta decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = balance + $1,
			updated_at = NOW()
		WHERE id = $2
	`

	result, err := tx.ExecContext(ctx, query, delta, id)
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account %s: %w", id, ErrNotFound)
	}

	return nil
}

func (r *AccountRepository) GetAll(ctx context.Context) ([]model.AccountDetail, error) {
	query := `
		SELECT a.id, a.user_id, a.account_number, a.balance, a.currency, a.status,
			a.created_at, a.updated_at, u.name, u.surname, u.email
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		ORDER BY a.created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.AccountDetail
	for rows.Next() {
		var detail model.AccountDetail
		if err := rows.Scan(
			&detail.ID,
			&detail.UserID,
			&detail.AccountNumber,
			&detail.Balance,
			&detail.Currency,
			&detail.Status,
			&detail.CreatedAt,
			&detail.UpdatedAt,
			&detail.OwnerName,
			&detail.OwnerSurname,
			&detail.OwnerEmail,
		); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

func (r *AccountRepository) GetDetailByID(ctx context.Context, id uuid.UUID) (*model.AccountDetail, error) {
	query := `
		SELECT a.id, a.user_id, a.account_number, a.balance, a.currency, a.status,
			a.created_at, a.updated_at, u.name, u.surname, u.email
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE a.id = $1
	`

	var detail model.AccountDetail
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&detail.ID,
		&detail.UserID,
		&detail.AccountNumber,
		&detail.Balance,
		&detail.Currency,
		&detail.Status,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.OwnerName,
		&detail.OwnerSurname,
		&detail.OwnerEmail,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("account %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &detail, nil
}

// Update writes currency and status only; balances move exclusively through
// UpdateBalanceTx.
func (r *AccountRepository) Update(ctx context.Context, account *model.Account) error {
	query := `
		UPDATE accounts
		SET currency = $1, status = $2, updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, account.Currency, account.Status, account.ID)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account %s: %w", account.ID, ErrNotFound)
	}

	return nil
}

func (r *AccountRepository) GetDB() *sql.DB {
	return r.db
}
