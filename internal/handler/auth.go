package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"banca-api/internal/model"
	"banca-api/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	logger      *logrus.Logger
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		logger:      logger,
	}
}

func (h *AuthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/register", h.Register).Methods("POST")
	router.HandleFunc("/login", h.Login).Methods("POST")
	router.HandleFunc("/password-reset/request", h.RequestPasswordReset).Methods("POST")
	router.HandleFunc("/password-reset/confirm", h.ConfirmPasswordReset).Methods("POST")
}

// Register creates the user and its account in one call.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input model.RegisterInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	user, account, err := h.authService.Register(r.Context(), &input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respond(w, http.StatusCreated, map[string]any{
		"message": "usuario registrado exitosamente",
		"user":    h.userService.ToResponse(user),
		"account": account,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input model.LoginInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	if input.Email == "" && input.Username == "" {
		respondError(w, http.StatusBadRequest, "debe indicar correo o nombre de usuario")
		return
	}

	token, user, err := h.authService.Login(r.Context(), &input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"message": "inicio de sesión exitoso",
		"token":   token,
		"user":    h.userService.ToResponse(user),
	})
}

func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var input model.PasswordResetRequestInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), input.Email); err != nil {
		respondServiceError(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"message": "código de recuperación enviado al correo",
	})
}

func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var input model.PasswordResetConfirmInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	if err := h.authService.ResetPassword(r.Context(), &input); err != nil {
		respondServiceError(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"message": "contraseña restablecida exitosamente",
	})
}
