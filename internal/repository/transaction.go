package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"banca-api/internal/model"
)

type TransactionRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewTransactionRepository(db *sql.DB, logger *logrus.Logger) *TransactionRepository {
	return &TransactionRepository{db: db, logger: logger}
}

func (r *TransactionRepository) CreateTx(ctx context.Context, tx *sql.Tx, transaction *model.Transaction) error {
	r.logger.WithFields(logrus.Fields{
		"transaction_id":     transaction.ID,
		"account_id":         transaction.AccountID,
		"amount":             transaction.Amount,
		"type":               transaction.Type,
		"related_account_id": transaction.RelatedAccountID,
	}).Info("Creating ledger record")

	query := `
		INSERT INTO transactions (id, account_id, type, amount, related_account_id, reversed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		transaction.ID,
		transaction.AccountID,
		transaction.Type,
		transaction.Amount,
		transaction.RelatedAccountID,
		transaction.Reversed,
		transaction.CreatedAt,
	)

	if err != nil {
		r.logger.WithError(err).Error("Failed to create ledger record")
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

const transactionDetailQuery = `
	SELECT t.id, t.account_id, t.type, t.amount, t.related_account_id, t.reversed,
		t.created_at, a.account_number, ra.account_number
	FROM transactions t
	JOIN accounts a ON a.id = t.account_id
	LEFT JOIN accounts ra ON ra.id = t.related_account_id
`

func scanTransactionDetail(row interface{ Scan(...any) error }) (*model.TransactionDetail, error) {
	var detail model.TransactionDetail
	err := row.Scan(
		&detail.ID,
		&detail.AccountID,
		&detail.Type,
		&detail.Amount,
		&detail.RelatedAccountID,
		&detail.Reversed,
		&detail.CreatedAt,
		&detail.AccountNumber,
		&detail.RelatedAccountNumber,
	)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetAll lists the whole ledger, account numbers joined for display.
func (r *TransactionRepository) GetAll(ctx context.Context) ([]model.TransactionDetail, error) {
	query := transactionDetailQuery + ` ORDER BY t.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.TransactionDetail
	for rows.Next() {
		detail, err := scanTransactionDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TransactionDetail, error) {
	query := transactionDetailQuery + ` WHERE t.id = $1`

	detail, err := scanTransactionDetail(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return detail, nil
}

// GetByAccountAndPeriod returns the ledger rows for one account over a
// period, newest first. endDate is inclusive of the whole day.
func (r *TransactionRepository) GetByAccountAndPeriod(
	ctx context.Context,
	accountID uuid.UUID,
	startDate, endDate time.Time,
) ([]model.Transaction, error) {
	endDate = endDate.Add(24 * time.Hour)

	r.logger.WithFields(logrus.Fields{
		"account_id": accountID,
		"start_date": startDate.Format("2006-01-02"),
		"end_date":   endDate.Format("2006-01-02"),
	}).Debug("Querying account statement")

	const query = `
		SELECT id, account_id, type, amount, related_account_id, reversed, created_at
		FROM transactions
		WHERE account_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query statement: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		var tx model.Transaction
		if err := rows.Scan(
			&tx.ID,
			&tx.AccountID,
			&tx.Type,
			&tx.Amount,
			&tx.RelatedAccountID,
			&tx.Reversed,
			&tx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

// Update overwrites the editable ledger fields. It is a pure metadata edit;
// no balance is recomputed from it.
func (r *TransactionRepository) Update(ctx context.Context, transaction *model.Transaction) error {
	query := `
		UPDATE transactions
		SET type = $1, amount = $2, related_account_id = $3, reversed = $4
		WHERE id = $5
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		transaction.Type,
		transaction.Amount,
		transaction.RelatedAccountID,
		transaction.Reversed,
		transaction.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("transaction %s: %w", transaction.ID, ErrNotFound)
	}

	return nil
}

// Delete removes the ledger row permanently. The balance change it recorded
// is not reversed.
func (r *TransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}

	return nil
}
