package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"banca-api/internal/model"
	"banca-api/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
	logger         *logrus.Logger
}

func NewAccountHandler(accountService *service.AccountService, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{accountService: accountService, logger: logger}
}

func (h *AccountHandler) RegisterRoutes(router *mux.Router) {
	staff := RequireRoles(h.logger, model.RoleAdminGlobal, model.RoleGerenteSucursal)
	staffAndCashier := RequireRoles(h.logger, model.RoleAdminGlobal, model.RoleGerenteSucursal, model.RoleCajero)
	adminOnly := RequireRoles(h.logger, model.RoleAdminGlobal)

	router.Handle("/create", staff(http.HandlerFunc(h.CreateAccount))).Methods("POST")
	router.Handle("/all", staff(http.HandlerFunc(h.GetAllAccounts))).Methods("GET")
	router.Handle("/update/{id}", staff(http.HandlerFunc(h.UpdateAccount))).Methods("PUT")
	router.Handle("/delete/{id}", adminOnly(http.HandlerFunc(h.DeleteAccount))).Methods("PUT")
	router.Handle("/{id}/statement", staffAndCashier(http.HandlerFunc(h.GetStatement))).Methods("GET")
	router.HandleFunc("/{id}", h.GetAccountByID).Methods("GET")
}

// CreateAccount opens an account for an existing user without one.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.accountService.CreateAccount(r.Context(), req.UserID, req.Currency)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusCreated, map[string]any{
		"message": "cuenta creada exitosamente",
		"account": account,
	})
}

func (h *AccountHandler) GetAllAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.GetAllAccounts(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (h *AccountHandler) GetAccountByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "identificador de cuenta inválido")
		return
	}

	account, err := h.accountService.GetAccountByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"account": account})
}

// GetStatement lists the account's ledger rows between start and end
// (YYYY-MM-DD query parameters; defaults to the current month).
func (h *AccountHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "identificador de cuenta inválido")
		return
	}

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := now

	if raw := r.URL.Query().Get("start"); raw != "" {
		start, err = time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "fecha de inicio inválida, use YYYY-MM-DD")
			return
		}
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		end, err = time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "fecha de fin inválida, use YYYY-MM-DD")
			return
		}
	}
	if end.Before(start) {
		respondError(w, http.StatusBadRequest, "la fecha de fin debe ser posterior a la de inicio")
		return
	}

	transactions, err := h.accountService.GetStatement(r.Context(), id, start, end)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"transactions": transactions})
}

func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "identificador de cuenta inválido")
		return
	}

	var req model.UpdateAccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	account, err := h.accountService.UpdateAccount(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"message": "cuenta actualizada exitosamente",
		"account": account,
	})
}

func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "identificador de cuenta inválido")
		return
	}

	account, err := h.accountService.DeactivateAccount(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"message": "cuenta desactivada exitosamente",
		"account": account,
	})
}
