package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"banca-api/internal/service"
)

var validate = validator.New()

// respond writes the JSON envelope with the given status. payload entries are
// merged next to the success flag.
func respond(w http.ResponseWriter, status int, payload map[string]any) {
	body := map[string]any{"success": status < http.StatusBadRequest}
	for k, v := range payload {
		body[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]any{"error": message})
}

// respondServiceError maps the service sentinels onto HTTP statuses. Anything
// unrecognized is a storage or internal failure.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrAccountNotFound),
		errors.Is(err, service.ErrTransactionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrAccountExists),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrDPITaken),
		errors.Is(err, service.ErrProductExists),
		errors.Is(err, service.ErrInvalidResetCode),
		errors.Is(err, service.ErrEmailNotRegistered):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "error interno del servidor")
	}
}

// decodeAndValidate decodes the JSON body into dst and runs the struct
// validators. On failure it writes the 400 response itself and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "formato de solicitud inválido")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// validationMessage turns validator errors into one Spanish sentence naming
// the offending fields.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "datos de entrada inválidos"
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldMessage(fe))
	}
	return "datos inválidos: " + strings.Join(fields, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("el campo %s es obligatorio", field)
	case "email":
		return fmt.Sprintf("el campo %s debe ser un correo válido", field)
	case "gt":
		return fmt.Sprintf("el campo %s debe ser mayor que %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("el campo %s debe ser al menos %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("el campo %s debe tener %s caracteres", field, fe.Param())
	case "min":
		return fmt.Sprintf("el campo %s debe tener al menos %s caracteres", field, fe.Param())
	case "max":
		return fmt.Sprintf("el campo %s excede el tamaño permitido", field)
	case "numeric":
		return fmt.Sprintf("el campo %s debe ser numérico", field)
	case "oneof":
		return fmt.Sprintf("el campo %s tiene un valor no permitido", field)
	case "nefield":
		return "la cuenta de destino debe ser distinta a la de origen"
	default:
		return fmt.Sprintf("el campo %s es inválido", field)
	}
}
