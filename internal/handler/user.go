package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"banca-api/internal/model"
	"banca-api/internal/service"
)

type UserHandler struct {
	userService *service.UserService
	logger      *logrus.Logger
}

func NewUserHandler(userService *service.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

func (h *UserHandler) RegisterRoutes(router *mux.Router) {
	staff := RequireRoles(h.logger, model.RoleAdminGlobal, model.RoleGerenteSucursal)
	staffAndCashier := RequireRoles(h.logger, model.RoleAdminGlobal, model.RoleGerenteSucursal, model.RoleCajero)
	adminOnly := RequireRoles(h.logger, model.RoleAdminGlobal)

	router.Handle("/all", staff(http.HandlerFunc(h.GetAllUsers))).Methods("GET")
	router.Handle("/me", http.HandlerFunc(h.UpdateMe)).Methods("PUT")
	router.Handle("/update/{id}", staff(http.HandlerFunc(h.UpdateUser))).Methods("PUT")
	router.Handle("/delete/{id}", adminOnly(http.HandlerFunc(h.DeleteUser))).Methods("PUT")
	router.Handle("/{id}", staffAndCashier(http.HandlerFunc(h.GetUserByID))).Methods("GET")
}

func (h *UserHandler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.GetAllUsers(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"users": users})
}

func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "identificador de usuario inválido")
		return
	}

	user, err := h.userService.GetUserByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"user": user})
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "identificador de usuario inválido")
		return
	}

	var input model.UpdateUserInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), id, &input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"message": "usuario actualizado exitosamente",
		"user":    user,
	})
}

// UpdateMe lets the authenticated user edit their own profile.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "no autenticado")
		return
	}

	var input model.UpdateMeInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	user, err := h.userService.UpdateMe(r.Context(), principal.ID, &input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"message": "datos actualizados exitosamente",
		"user":    user,
	})
}

// DeleteUser is a soft delete; the row stays with status=false.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "identificador de usuario inválido")
		return
	}

	user, err := h.userService.DeactivateUser(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"message": "usuario desactivado exitosamente",
		"user":    user,
	})
}
