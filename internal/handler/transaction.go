package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"banca-api/internal/model"
	"banca-api/internal/service"
)

type TransactionHandler struct {
	transactionService *service.TransactionService
	logger             *logrus.Logger
}

func NewTransactionHandler(transactionService *service.TransactionService, logger *logrus.Logger) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, logger: logger}
}

func (h *TransactionHandler) RegisterRoutes(router *mux.Router) {
	staffAndCashier := RequireRoles(h.logger, model.RoleAdminGlobal, model.RoleGerenteSucursal, model.RoleCajero)
	depositRoles := RequireRoles(h.logger, model.RoleAdminGlobal, model.RoleCajero, model.RoleCliente)
	clientRoles := RequireRoles(h.logger, model.RoleAdminGlobal, model.RoleCliente)
	cashierRoles := RequireRoles(h.logger, model.RoleAdminGlobal, model.RoleCajero)
	staff := RequireRoles(h.logger, model.RoleAdminGlobal, model.RoleGerenteSucursal)
	adminOnly := RequireRoles(h.logger, model.RoleAdminGlobal)

	router.Handle("/all", staffAndCashier(http.HandlerFunc(h.GetAllTransactions))).Methods("GET")
	router.Handle("/deposit", depositRoles(http.HandlerFunc(h.Deposit))).Methods("POST")
	router.Handle("/transfer", clientRoles(http.HandlerFunc(h.Transfer))).Methods("POST")
	router.Handle("/purchase", clientRoles(http.HandlerFunc(h.Purchase))).Methods("POST")
	router.Handle("/credit", cashierRoles(http.HandlerFunc(h.Credit))).Methods("POST")
	router.Handle("/update/{id}", staff(http.HandlerFunc(h.UpdateTransaction))).Methods("PUT")
	router.Handle("/delete/{id}", adminOnly(http.HandlerFunc(h.DeleteTransaction))).Methods("DELETE")
	router.Handle("/{id}", staffAndCashier(http.HandlerFunc(h.GetTransactionByID))).Methods("GET")
}

func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req model.DepositRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	record, balance, err := h.transactionService.Deposit(r.Context(), req.AccountID, decimal.NewFromFloat(req.Amount))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{
		"message":     "depósito realizado exitosamente",
		"transaction": record,
		"balance":     balance,
	})
}

// Transfer moves funds between two accounts and reports both ledger rows and
// both resulting balances.
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req model.TransferRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.transactionService.Transfer(r.Context(), req.FromAccountID, req.ToAccountID, decimal.NewFromFloat(req.Amount))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{
		"message":      "transferencia realizada exitosamente",
		"transactions": []*model.Transaction{result.Outgoing, result.Incoming},
		"balances": map[string]any{
			"from": result.FromBalance,
			"to":   result.ToBalance,
		},
	})
}

func (h *TransactionHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req model.PurchaseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	record, balance, err := h.transactionService.Purchase(r.Context(), req.AccountID, decimal.NewFromFloat(req.Amount))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{
		"message":     "compra realizada exitosamente",
		"transaction": record,
		"balance":     balance,
	})
}

func (h *TransactionHandler) Credit(w http.ResponseWriter, r *http.Request) {
	var req model.CreditRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	record, balance, err := h.transactionService.Credit(r.Context(), req.AccountID, decimal.NewFromFloat(req.Amount))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{
		"message":     "crédito aplicado exitosamente",
		"transaction": record,
		"balance":     balance,
	})
}

func (h *TransactionHandler) GetAllTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.transactionService.GetAllTransactions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"transactions": transactions})
}

func (h *TransactionHandler) GetTransactionByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "identificador de transacción inválido")
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"transaction": transaction})
}

// UpdateTransaction edits ledger metadata; the account balance is never
// recalculated from the edit.
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "identificador de transacción inválido")
		return
	}

	var req model.UpdateTransactionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"message":     "transacción actualizada exitosamente",
		"transaction": transaction,
	})
}

func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "identificador de transacción inválido")
		return
	}

	transaction, err := h.transactionService.DeleteTransaction(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"message":     "transacción eliminada exitosamente",
		"transaction": transaction,
	})
}
