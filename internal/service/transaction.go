package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"banca-api/internal/model"
	"banca-api/internal/repository"
)

// TransactionService owns the money-movement operations and the ledger
// metadata edits. Amount positivity is enforced by the request validators at
// the API boundary, not re-checked here.
type TransactionService struct {
	userRepo        *repository.UserRepository
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	emailSender     *EmailSender
	logger          *logrus.Logger
}

func NewTransactionService(
	userRepo *repository.UserRepository,
	accountRepo *repository.AccountRepository,
	transactionRepo *repository.TransactionRepository,
	emailSender *EmailSender,
	logger *logrus.Logger,
) *TransactionService {
	return &TransactionService{
		userRepo:        userRepo,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		emailSender:     emailSender,
		logger:          logger,
	}
}

// loadActiveAccount resolves an account and treats inactive ones as missing.
func (s *TransactionService) loadActiveAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("error al obtener la cuenta: %w", err)
	}
	if !account.Status {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// applyToBalance credits (or debits, with a negative delta) one account and
// appends a single ledger record, both inside one database transaction.
func (s *TransactionService) applyToBalance(
	ctx context.Context,
	account *model.Account,
	delta decimal.Decimal,
	txType model.TransactionType,
	amount decimal.Decimal,
) (*model.Transaction, error) {
	db := s.accountRepo.GetDB()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.WithError(err).Error("Failed to begin transaction")
		return nil, fmt.Errorf("error al iniciar la operación: %w", err)
	}
	defer tx.Rollback()

	if err := s.accountRepo.UpdateBalanceTx(ctx, tx, account.ID, delta); err != nil {
		s.logger.WithError(err).Errorf("Failed to update balance of account %s", account.ID)
		return nil, fmt.Errorf("error al actualizar el saldo: %w", err)
	}

	record := &model.Transaction{
		ID:        uuid.New(),
		AccountID: account.ID,
		Type:      txType,
		Amount:    amount,
		CreatedAt: time.Now(),
	}
	if err := s.transactionRepo.CreateTx(ctx, tx, record); err != nil {
		s.logger.WithError(err).Error("Failed to create ledger record")
		return nil, fmt.Errorf("error al registrar la transacción: %w", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.WithError(err).Error("Failed to commit transaction")
		return nil, fmt.Errorf("error al confirmar la operación: %w", err)
	}

	return record, nil
}

// Deposit credits amount to an active account and files a DEPOSITO record.
// Returns the record and the resulting balance.
func (s *TransactionService) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*model.Transaction, decimal.Decimal, error) {
	s.logger.WithFields(logrus.Fields{
		"account_id": accountID,
		"amount":     amount,
	}).Info("Deposit initiated")

	account, err := s.loadActiveAccount(ctx, accountID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	record, err := s.applyToBalance(ctx, account, amount, model.TransactionTypeDeposito, amount)
	if err != nil {
		return nil, decimal.Zero, err
	}

	newBalance := account.Balance.Add(amount)
	s.logger.WithField("account_id", accountID).Info("Deposit completed")
	return record, newBalance, nil
}

// Credit behaves like Deposit but files the record as CREDITO; the label is
// the only distinction.
func (s *TransactionService) Credit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*model.Transaction, decimal.Decimal, error) {
	s.logger.WithFields(logrus.Fields{
		"account_id": accountID,
		"amount":     amount,
	}).Info("Credit initiated")

	account, err := s.loadActiveAccount(ctx, accountID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	record, err := s.applyToBalance(ctx, account, amount, model.TransactionTypeCredito, amount)
	if err != nil {
		return nil, decimal.Zero, err
	}

	newBalance := account.Balance.Add(amount)
	s.logger.WithField("account_id", accountID).Info("Credit completed")
	return record, newBalance, nil
}

// Purchase debits amount from an active account and files a COMPRA record.
func (s *TransactionService) Purchase(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) (*model.Transaction, decimal.Decimal, error) {
	s.logger.WithFields(logrus.Fields{
		"account_id": accountID,
		"amount":     amount,
	}).Info("Purchase initiated")

	account, err := s.loadActiveAccount(ctx, accountID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	if account.Balance.LessThan(amount) {
		s.logger.WithFields(logrus.Fields{
			"account_id": accountID,
			"balance":    account.Balance,
			"amount":     amount,
		}).Warn("Insufficient funds for purchase")
		return nil, decimal.Zero, ErrInsufficientFunds
	}

	record, err := s.applyToBalance(ctx, account, amount.Neg(), model.TransactionTypeCompra, amount)
	if err != nil {
		return nil, decimal.Zero, err
	}

	newBalance := account.Balance.Sub(amount)
	s.logger.WithField("account_id", accountID).Info("Purchase completed")
	return record, newBalance, nil
}

// Transfer debits from one account and credits another, filing one
// TRANSFERENCIA record per side, cross-linked via the related account. Both
// balance writes and both ledger inserts commit as one unit.
func (s *TransactionService) Transfer(
	ctx context.Context,
	fromAccountID, toAccountID uuid.UUID,
	amount decimal.Decimal,
) (*model.TransferResult, error) {
	s.logger.WithFields(logrus.Fields{
		"from_account_id": fromAccountID,
		"to_account_id":   toAccountID,
		"amount":          amount,
	}).Info("Transfer initiated")

	db := s.accountRepo.GetDB()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.WithError(err).Error("Failed to begin transaction")
		return nil, fmt.Errorf("error al iniciar la operación: %w", err)
	}
	defer tx.Rollback()

	// Row locks serialize concurrent transfers touching the same accounts.
	from, err := s.accountRepo.GetByIDForUpdate(ctx, tx, fromAccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("error al obtener la cuenta de origen: %w", err)
	}
	to, err := s.accountRepo.GetByIDForUpdate(ctx, tx, toAccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("error al obtener la cuenta de destino: %w", err)
	}
	if !from.Status || !to.Status {
		return nil, ErrAccountNotFound
	}

	if from.Balance.LessThan(amount) {
		s.logger.WithFields(logrus.Fields{
			"from_account_id": fromAccountID,
			"balance":         from.Balance,
			"amount":          amount,
		}).Warn("Insufficient funds for transfer")
		return nil, ErrInsufficientFunds
	}

	// Debit first, credit second.
	if err := s.accountRepo.UpdateBalanceTx(ctx, tx, fromAccountID, amount.Neg()); err != nil {
		s.logger.WithError(err).Errorf("Failed to debit account %s", fromAccountID)
		return nil, fmt.Errorf("error al debitar la cuenta: %w", err)
	}
	if err := s.accountRepo.UpdateBalanceTx(ctx, tx, toAccountID, amount); err != nil {
		s.logger.WithError(err).Errorf("Failed to credit account %s", toAccountID)
		return nil, fmt.Errorf("error al acreditar la cuenta: %w", err)
	}

	now := time.Now()
	outgoing := &model.Transaction{
		ID:               uuid.New(),
		AccountID:        fromAccountID,
		Type:             model.TransactionTypeTransferencia,
		Amount:           amount,
		RelatedAccountID: &toAccountID,
		CreatedAt:        now,
	}
	incoming := &model.Transaction{
		ID:               uuid.New(),
		AccountID:        toAccountID,
		Type:             model.TransactionTypeTransferencia,
		Amount:           amount,
		RelatedAccountID: &fromAccountID,
		CreatedAt:        now,
	}

	if err := s.transactionRepo.CreateTx(ctx, tx, outgoing); err != nil {
		s.logger.WithError(err).Error("Failed to create outgoing ledger record")
		return nil, fmt.Errorf("error al registrar la transacción de débito: %w", err)
	}
	if err := s.transactionRepo.CreateTx(ctx, tx, incoming); err != nil {
		s.logger.WithError(err).Error("Failed to create incoming ledger record")
		return nil, fmt.Errorf("error al registrar la transacción de crédito: %w", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.WithError(err).Error("Failed to commit transfer")
		return nil, fmt.Errorf("error al confirmar la transferencia: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"from_account_id": fromAccountID,
		"to_account_id":   toAccountID,
	}).Info("Transfer completed")

	// Notify the sender by email; failures only get logged.
	if owner, err := s.userRepo.GetByID(ctx, from.UserID); err == nil && owner.Email != "" {
		go func() {
			if err := s.emailSender.SendTransferNotification(
				owner.Email,
				amount,
				from.AccountNumber,
				to.AccountNumber,
			); err != nil {
				s.logger.WithError(err).Warn("Failed to send transfer notification")
			}
		}()
	}

	return &model.TransferResult{
		Outgoing:    outgoing,
		Incoming:    incoming,
		FromBalance: from.Balance.Sub(amount),
		ToBalance:   to.Balance.Add(amount),
	}, nil
}

func (s *TransactionService) GetAllTransactions(ctx context.Context) ([]model.TransactionDetail, error) {
	transactions, err := s.transactionRepo.GetAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list transactions")
		return nil, fmt.Errorf("error al obtener transacciones: %w", err)
	}
	return transactions, nil
}

func (s *TransactionService) GetTransactionByID(ctx context.Context, id uuid.UUID) (*model.TransactionDetail, error) {
	transaction, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		s.logger.WithError(err).Error("Failed to get transaction")
		return nil, fmt.Errorf("error al obtener la transacción: %w", err)
	}
	return transaction, nil
}

// UpdateTransaction patches ledger metadata. It deliberately performs no
// balance adjustment; the ledger edit and the account balance are decoupled.
func (s *TransactionService) UpdateTransaction(ctx context.Context, id uuid.UUID, req *model.UpdateTransactionRequest) (*model.TransactionDetail, error) {
	detail, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("error al obtener la transacción: %w", err)
	}

	transaction := detail.Transaction
	if req.Type != nil {
		transaction.Type = *req.Type
	}
	if req.Amount != nil {
		transaction.Amount = decimal.NewFromFloat(*req.Amount)
	}
	if req.RelatedAccountID != nil {
		transaction.RelatedAccountID = req.RelatedAccountID
	}
	if req.Reversed != nil {
		transaction.Reversed = *req.Reversed
	}

	if err := s.transactionRepo.Update(ctx, &transaction); err != nil {
		s.logger.WithError(err).Error("Failed to update transaction")
		return nil, fmt.Errorf("error al actualizar la transacción: %w", err)
	}

	updated, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error al obtener la transacción actualizada: %w", err)
	}

	s.logger.WithField("transaction_id", id).Info("Transaction updated")
	return updated, nil
}

// DeleteTransaction removes the ledger row permanently and returns it. The
// balance change the row recorded is not reversed.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id uuid.UUID) (*model.TransactionDetail, error) {
	detail, err := s.transactionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("error al obtener la transacción: %w", err)
	}

	if err := s.transactionRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		s.logger.WithError(err).Error("Failed to delete transaction")
		return nil, fmt.Errorf("error al eliminar la transacción: %w", err)
	}

	s.logger.WithField("transaction_id", id).Info("Transaction deleted")
	return detail, nil
}
