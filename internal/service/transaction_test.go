package service

import (
	"context"
	"database/sql"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banca-api/internal/model"
	"banca-api/internal/repository"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTransactionServiceTest(t *testing.T) (*TransactionService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := testLogger()
	userRepo := repository.NewUserRepository(db, logger)
	accountRepo := repository.NewAccountRepository(db, logger)
	transactionRepo := repository.NewTransactionRepository(db, logger)
	emailSender := NewEmailSender(logger)

	svc := NewTransactionService(userRepo, accountRepo, transactionRepo, emailSender, logger)
	return svc, mock
}

var accountCols = []string{"id", "user_id", "account_number", "balance", "currency", "status", "created_at", "updated_at"}

func accountRow(id, userID uuid.UUID, number, balance string, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(accountCols).
		AddRow(id, userID, number, balance, "GTQ", active, now, now)
}

const selectAccountQuery = `SELECT id, user_id, account_number, balance, currency, status, created_at, updated_at FROM accounts WHERE id = $1`

func TestDepositCreditsBalanceAndFilesRecord(t *testing.T) {
	svc, mock := newTransactionServiceTest(t)
	accountID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(selectAccountQuery)).
		WithArgs(accountID).
		WillReturnRows(accountRow(accountID, uuid.New(), "A1B2C3D4E5F6", "100.00", true))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SET balance = balance + $1`)).
		WithArgs(decimal.NewFromFloat(50), accountID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	record, balance, err := svc.Deposit(context.Background(), accountID, decimal.NewFromFloat(50))
	require.NoError(t, err)

	assert.Equal(t, model.TransactionTypeDeposito, record.Type)
	assert.Equal(t, accountID, record.AccountID)
	assert.True(t, record.Amount.Equal(decimal.NewFromFloat(50)))
	assert.Nil(t, record.RelatedAccountID)
	assert.False(t, record.Reversed)
	assert.True(t, balance.Equal(decimal.NewFromFloat(150)))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepositInactiveAccountNotFound(t *testing.T) {
	svc, mock := newTransactionServiceTest(t)
	accountID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(selectAccountQuery)).
		WithArgs(accountID).
		WillReturnRows(accountRow(accountID, uuid.New(), "A1B2C3D4E5F6", "100.00", false))

	_, _, err := svc.Deposit(context.Background(), accountID, decimal.NewFromFloat(50))
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Amount positivity lives in the request validators; the service itself takes
// a zero amount at face value and still files the record.
func TestDepositZeroAmountAcceptedByService(t *testing.T) {
	svc, mock := newTransactionServiceTest(t)
	accountID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(selectAccountQuery)).
		WithArgs(accountID).
		WillReturnRows(accountRow(accountID, uuid.New(), "A1B2C3D4E5F6", "100.00", true))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SET balance = balance + $1`)).
		WithArgs(decimal.Zero, accountID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	record, balance, err := svc.Deposit(context.Background(), accountID, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, record.Amount.IsZero())
	assert.True(t, balance.Equal(decimal.NewFromFloat(100)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditUsesCreditoType(t *testing.T) {
	svc, mock := newTransactionServiceTest(t)
	accountID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(selectAccountQuery)).
		WithArgs(accountID).
		WillReturnRows(accountRow(accountID, uuid.New(), "A1B2C3D4E5F6", "0.00", true))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SET balance = balance + $1`)).
		WithArgs(decimal.NewFromFloat(200), accountID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	record, balance, err := svc.Credit(context.Background(), accountID, decimal.NewFromFloat(200))
	require.NoError(t, err)
	assert.Equal(t, model.TransactionTypeCredito, record.Type)
	assert.True(t, balance.Equal(decimal.NewFromFloat(200)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPurchaseDebitsBalance(t *testing.T) {
	svc, mock := newTransactionServiceTest(t)
	accountID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(selectAccountQuery)).
		WithArgs(accountID).
		WillReturnRows(accountRow(accountID, uuid.New(), "A1B2C3D4E5F6", "500.00", true))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`SET balance = balance + $1`)).
		WithArgs(decimal.NewFromFloat(120).Neg(), accountID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	record, balance, err := svc.Purchase(context.Background(), accountID, decimal.NewFromFloat(120))
	require.NoError(t, err)
	assert.Equal(t, model.TransactionTypeCompra, record.Type)
	assert.True(t, record.Amount.Equal(decimal.NewFromFloat(120)))
	assert.True(t, balance.Equal(decimal.NewFromFloat(380)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// An over-balance purchase must leave the account untouched: no balance
// write, no ledger row.
func TestPurchaseInsufficientFundsIsNoOp(t *testing.T) {
	svc, mock := newTransactionServiceTest(t)
	accountID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(selectAccountQuery)).
		WithArgs(accountID).
		WillReturnRows(accountRow(accountID, uuid.New(), "A1B2C3D4E5F6", "50.00", true))

	_, _, err := svc.Purchase(context.Background(), accountID, decimal.NewFromFloat(100))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferMovesFundsAndCrossLinksRecords(t *testing.T) {
	svc, mock := newTransactionServiceTest(t)
	fromID := uuid.New()
	toID := uuid.New()
	fromUserID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectAccountQuery + ` FOR UPDATE`)).
		WithArgs(fromID).
		WillReturnRows(accountRow(fromID, fromUserID, "AAAA11112222", "500.00", true))
	mock.ExpectQuery(regexp.QuoteMeta(selectAccountQuery + ` FOR UPDATE`)).
		WithArgs(toID).
		WillReturnRows(accountRow(toID, uuid.New(), "BBBB33334444", "80.00", true))

	mock.ExpectExec(regexp.QuoteMeta(`SET balance = balance + $1`)).
		WithArgs(decimal.NewFromFloat(150).Neg(), fromID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`SET balance = balance + $1`)).
		WithArgs(decimal.NewFromFloat(150), toID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO transactions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Post-commit owner lookup for the email notification; erroring it out
	// keeps the test synchronous.
	mock.ExpectQuery(`FROM users WHERE id`).
		WithArgs(fromUserID).
		WillReturnError(context.Canceled)

	result, err := svc.Transfer(context.Background(), fromID, toID, decimal.NewFromFloat(150))
	require.NoError(t, err)

	assert.Equal(t, model.TransactionTypeTransferencia, result.Outgoing.Type)
	assert.Equal(t, model.TransactionTypeTransferencia, result.Incoming.Type)
	assert.Equal(t, fromID, result.Outgoing.AccountID)
	assert.Equal(t, toID, result.Incoming.AccountID)
	require.NotNil(t, result.Outgoing.RelatedAccountID)
	require.NotNil(t, result.Incoming.RelatedAccountID)
	assert.Equal(t, toID, *result.Outgoing.RelatedAccountID)
	assert.Equal(t, fromID, *result.Incoming.RelatedAccountID)
	assert.True(t, result.Outgoing.Amount.Equal(result.Incoming.Amount))
	assert.True(t, result.FromBalance.Equal(decimal.NewFromFloat(350)))
	assert.True(t, result.ToBalance.Equal(decimal.NewFromFloat(230)))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferInsufficientFundsRollsBack(t *testing.T) {
	svc, mock := newTransactionServiceTest(t)
	fromID := uuid.New()
	toID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectAccountQuery + ` FOR UPDATE`)).
		WithArgs(fromID).
		WillReturnRows(accountRow(fromID, uuid.New(), "AAAA11112222", "20.00", true))
	mock.ExpectQuery(regexp.QuoteMeta(selectAccountQuery + ` FOR UPDATE`)).
		WithArgs(toID).
		WillReturnRows(accountRow(toID, uuid.New(), "BBBB33334444", "0.00", true))
	mock.ExpectRollback()

	_, err := svc.Transfer(context.Background(), fromID, toID, decimal.NewFromFloat(150))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferInactiveDestinationNotFound(t *testing.T) {
	svc, mock := newTransactionServiceTest(t)
	fromID := uuid.New()
	toID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectAccountQuery + ` FOR UPDATE`)).
		WithArgs(fromID).
		WillReturnRows(accountRow(fromID, uuid.New(), "AAAA11112222", "500.00", true))
	mock.ExpectQuery(regexp.QuoteMeta(selectAccountQuery + ` FOR UPDATE`)).
		WithArgs(toID).
		WillReturnRows(accountRow(toID, uuid.New(), "BBBB33334444", "0.00", false))
	mock.ExpectRollback()

	_, err := svc.Transfer(context.Background(), fromID, toID, decimal.NewFromFloat(50))
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var transactionDetailCols = []string{
	"id", "account_id", "type", "amount", "related_account_id", "reversed",
	"created_at", "account_number", "related_account_number",
}

// Editing a ledger row never touches any account balance: the only statements
// allowed here are reads of the row and the metadata UPDATE.
func TestUpdateTransactionDoesNotTouchBalances(t *testing.T) {
	svc, mock := newTransactionServiceTest(t)
	txID := uuid.New()
	accountID := uuid.New()

	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows(transactionDetailCols).
			AddRow(txID, accountID, "DEPOSITO", "100.00", nil, false, time.Now(), "A1B2C3D4E5F6", nil)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions t`)).
		WithArgs(txID).
		WillReturnRows(rows())
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE transactions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions t`)).
		WithArgs(txID).
		WillReturnRows(rows())

	newAmount := 999.0
	updated, err := svc.UpdateTransaction(context.Background(), txID, &model.UpdateTransactionRequest{
		Amount: &newAmount,
	})
	require.NoError(t, err)
	assert.Equal(t, txID, updated.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Deleting a ledger row is equally balance-neutral.
func TestDeleteTransactionDoesNotTouchBalances(t *testing.T) {
	svc, mock := newTransactionServiceTest(t)
	txID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions t`)).
		WithArgs(txID).
		WillReturnRows(sqlmock.NewRows(transactionDetailCols).
			AddRow(txID, uuid.New(), "COMPRA", "40.00", nil, false, time.Now(), "A1B2C3D4E5F6", nil))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM transactions WHERE id = $1`)).
		WithArgs(txID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := svc.DeleteTransaction(context.Background(), txID)
	require.NoError(t, err)
	assert.Equal(t, txID, deleted.ID)
	assert.Equal(t, model.TransactionTypeCompra, deleted.Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTransactionByIDNotFound(t *testing.T) {
	svc, mock := newTransactionServiceTest(t)
	txID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions t`)).
		WithArgs(txID).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GetTransactionByID(context.Background(), txID)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
