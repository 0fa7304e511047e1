package service

import "errors"

// User-facing sentinels. Messages are the API's wire contract (Spanish);
// handlers map them to HTTP statuses.
var (
	ErrUserNotFound        = errors.New("usuario no encontrado o inactivo")
	ErrAccountNotFound     = errors.New("cuenta no encontrada o inactiva")
	ErrTransactionNotFound = errors.New("transacción no encontrada")
	ErrInsufficientFunds   = errors.New("fondos insuficientes")
	ErrAccountExists       = errors.New("el usuario ya tiene una cuenta creada")
	ErrEmailTaken          = errors.New("el correo ya está registrado")
	ErrUsernameTaken       = errors.New("el nombre de usuario ya está en uso")
	ErrDPITaken            = errors.New("el DPI ya está registrado")
	ErrProductExists       = errors.New("el producto ya existe")
	ErrInvalidCredentials  = errors.New("credenciales inválidas o cuenta desactivada")
	ErrInvalidResetCode    = errors.New("código inválido o expirado")
	ErrEmailNotRegistered  = errors.New("email no registrado")
	ErrInvalidToken        = errors.New("token inválido")
)
