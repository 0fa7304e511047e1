package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"banca-api/internal/model"
	"banca-api/internal/repository"
)

type AccountService struct {
	userRepo        *repository.UserRepository
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	logger          *logrus.Logger
}

func NewAccountService(
	userRepo *repository.UserRepository,
	accountRepo *repository.AccountRepository,
	transactionRepo *repository.TransactionRepository,
	logger *logrus.Logger,
) *AccountService {
	return &AccountService{
		userRepo:        userRepo,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// CreateAccount opens the single account of an existing active user. The
// one-account-per-user rule is enforced here and by the unique constraint.
func (s *AccountService) CreateAccount(ctx context.Context, userID uuid.UUID, currency string) (*model.Account, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error al obtener el usuario: %w", err)
	}
	if !user.Status {
		return nil, ErrUserNotFound
	}

	if _, err := s.accountRepo.GetByUserID(ctx, userID); err == nil {
		s.logger.WithField("user_id", userID).Warn("User already has an account")
		return nil, ErrAccountExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("error al verificar la cuenta existente: %w", err)
	}

	if currency == "" {
		currency = model.DefaultCurrency
	}

	now := time.Now()
	account := &model.Account{
		ID:            uuid.New(),
		UserID:        userID,
		AccountNumber: model.GenerateAccountNumber(),
		Balance:       decimal.Zero,
		Currency:      strings.ToUpper(currency),
		Status:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.logger.WithField("user_id", userID).Info("Creating account")
	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAccountExists
		}
		s.logger.WithError(err).Error("Failed to create account")
		return nil, fmt.Errorf("error al crear la cuenta: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"account_id":     account.ID,
		"account_number": account.AccountNumber,
	}).Info("Account created")
	return account, nil
}

func (s *AccountService) GetAllAccounts(ctx context.Context) ([]model.AccountDetail, error) {
	accounts, err := s.accountRepo.GetAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list accounts")
		return nil, fmt.Errorf("error al obtener las cuentas: %w", err)
	}
	return accounts, nil
}

func (s *AccountService) GetAccountByID(ctx context.Context, id uuid.UUID) (*model.AccountDetail, error) {
	account, err := s.accountRepo.GetDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		s.logger.WithError(err).Error("Failed to get account")
		return nil, fmt.Errorf("error al obtener la cuenta: %w", err)
	}
	return account, nil
}

// UpdateAccount patches currency and status. Balance is untouchable here.
func (s *AccountService) UpdateAccount(ctx context.Context, id uuid.UUID, req *model.UpdateAccountRequest) (*model.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("error al obtener la cuenta: %w", err)
	}

	if req.Currency != nil {
		account.Currency = strings.ToUpper(*req.Currency)
	}
	if req.Status != nil {
		account.Status = *req.Status
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		s.logger.WithError(err).Error("Failed to update account")
		return nil, fmt.Errorf("error al actualizar la cuenta: %w", err)
	}

	s.logger.WithField("account_id", id).Info("Account updated")
	return account, nil
}

// DeactivateAccount soft-deletes: accounts are never removed, only excluded
// from operations.
func (s *AccountService) DeactivateAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
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

	account.Status = false
	if err := s.accountRepo.Update(ctx, account); err != nil {
		s.logger.WithError(err).Error("Failed to deactivate account")
		return nil, fmt.Errorf("error al desactivar la cuenta: %w", err)
	}

	s.logger.WithField("account_id", id).Info("Account deactivated")
	return account, nil
}

// GetStatement returns the account's ledger rows for a period.
func (s *AccountService) GetStatement(ctx context.Context, accountID uuid.UUID, start, end time.Time) ([]model.Transaction, error) {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("error al obtener la cuenta: %w", err)
	}

	transactions, err := s.transactionRepo.GetByAccountAndPeriod(ctx, accountID, start, end)
	if err != nil {
		s.logger.WithError(err).Error("Failed to get statement")
		return nil, fmt.Errorf("error al obtener el estado de cuenta: %w", err)
	}
	return transactions, nil
}
