package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"banca-api/internal/model"
	"banca-api/internal/repository"
)

const resetCodeTTL = time.Hour

// Claims carried by the access token: subject is the user id, name and role
// ride along for display and gating.
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	userRepo    *repository.UserRepository
	accountRepo *repository.AccountRepository
	dpiCipher   *DPICipher
	emailSender *EmailSender
	jwtSecret   string
	tokenExpiry time.Duration
	logger      *logrus.Logger
}

func NewAuthService(
	userRepo *repository.UserRepository,
	accountRepo *repository.AccountRepository,
	dpiCipher *DPICipher,
	emailSender *EmailSender,
	jwtSecret string,
	tokenExpiry time.Duration,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		accountRepo: accountRepo,
		dpiCipher:   dpiCipher,
		emailSender: emailSender,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
		logger:      logger,
	}
}

// Register creates a user together with its account. A user always gets
// exactly one account, in quetzales, with a zero balance.
func (s *AuthService) Register(ctx context.Context, input *model.RegisterInput) (*model.User, *model.Account, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)
	dpi := strings.TrimSpace(input.DPI)

	s.logger.WithFields(logrus.Fields{
		"email":    email,
		"username": username,
	}).Info("Registration attempt")

	if taken, err := s.userRepo.ExistsByEmail(ctx, email); err != nil {
		return nil, nil, fmt.Errorf("error al verificar el correo: %w", err)
	} else if taken {
		return nil, nil, ErrEmailTaken
	}
	if taken, err := s.userRepo.ExistsByUsername(ctx, username); err != nil {
		return nil, nil, fmt.Errorf("error al verificar el nombre de usuario: %w", err)
	} else if taken {
		return nil, nil, ErrUsernameTaken
	}

	dpiHMAC := s.dpiCipher.HMAC(dpi)
	if taken, err := s.userRepo.ExistsByDPIHMAC(ctx, dpiHMAC); err != nil {
		return nil, nil, fmt.Errorf("error al verificar el DPI: %w", err)
	} else if taken {
		return nil, nil, ErrDPITaken
	}

	encryptedDPI, err := s.dpiCipher.Encrypt(dpi)
	if err != nil {
		s.logger.WithError(err).Error("Failed to encrypt DPI")
		return nil, nil, fmt.Errorf("error al proteger el DPI: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.WithError(err).Error("Failed to hash password")
		return nil, nil, fmt.Errorf("error al procesar la contraseña: %w", err)
	}

	role := input.Role
	if role == "" {
		role = model.RoleCliente
	}

	now := time.Now()
	user := &model.User{
		ID:            uuid.New(),
		Role:          role,
		Name:          strings.TrimSpace(input.Name),
		Surname:       strings.TrimSpace(input.Surname),
		Username:      username,
		Email:         email,
		Password:      string(hashedPassword),
		Phone:         strings.TrimSpace(input.Phone),
		EncryptedDPI:  encryptedDPI,
		DPIHMAC:       dpiHMAC,
		Address:       strings.TrimSpace(input.Address),
		JobName:       strings.TrimSpace(input.JobName),
		MonthlyIncome: decimal.NewFromFloat(input.MonthlyIncome),
		Status:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, ErrEmailTaken
		}
		s.logger.WithError(err).Error("Failed to create user")
		return nil, nil, fmt.Errorf("error al crear el usuario: %w", err)
	}

	account := &model.Account{
		ID:            uuid.New(),
		UserID:        user.ID,
		AccountNumber: model.GenerateAccountNumber(),
		Balance:       decimal.Zero,
		Currency:      model.DefaultCurrency,
		Status:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		s.logger.WithError(err).Error("Failed to create account for new user")
		return nil, nil, fmt.Errorf("error al crear la cuenta: %w", err)
	}

	// Welcome mail must not block or fail the registration.
	go func() {
		if err := s.emailSender.SendWelcomeEmail(user.Email, user.Name); err != nil {
			s.logger.WithError(err).Warn("Failed to send welcome email")
		}
	}()

	s.logger.WithField("user_id", user.ID).Info("User registered")
	return user, account, nil
}

// Login authenticates by email or username and issues a signed token.
func (s *AuthService) Login(ctx context.Context, input *model.LoginInput) (string, *model.User, error) {
	var (
		user *model.User
		err  error
	)
	switch {
	case input.Email != "":
		user, err = s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	case input.Username != "":
		user, err = s.userRepo.FindByUsername(ctx, strings.TrimSpace(input.Username))
	default:
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("error al buscar el usuario: %w", err)
	}
	if !user.Status {
		s.logger.WithField("user_id", user.ID).Warn("Login attempt on deactivated user")
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		s.logger.WithField("user_id", user.ID).Warn("Wrong password")
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		s.logger.WithError(err).Error("Failed to generate token")
		return "", nil, fmt.Errorf("error al generar el token: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in")
	return token, user, nil
}

func (s *AuthService) GenerateToken(user *model.User) (string, error) {
	claims := Claims{
		Name: user.Name,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ParseToken validates the signature and expiry and returns the claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		s.logger.WithError(err).Warn("Invalid token")
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RequestPasswordReset stores a 6-digit code with a one-hour expiry and
// mails it to the user.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEmailNotRegistered
		}
		return fmt.Errorf("error al buscar el usuario: %w", err)
	}

	code, err := generateResetCode()
	if err != nil {
		return fmt.Errorf("error al generar el código: %w", err)
	}

	if err := s.userRepo.SetResetCode(ctx, user.ID, code, time.Now().Add(resetCodeTTL)); err != nil {
		s.logger.WithError(err).Error("Failed to store reset code")
		return fmt.Errorf("error al guardar el código: %w", err)
	}

	if err := s.emailSender.SendPasswordResetEmail(user.Email, code); err != nil {
		s.logger.WithError(err).Error("Failed to send reset code email")
		return fmt.Errorf("error al enviar el código: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("Password reset code sent")
	return nil
}

// ResetPassword consumes a valid code and replaces the password.
func (s *AuthService) ResetPassword(ctx context.Context, input *model.PasswordResetConfirmInput) error {
	user, err := s.userRepo.FindByResetCode(ctx, strings.ToLower(strings.TrimSpace(input.Email)), input.Code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetCode
		}
		return fmt.Errorf("error al validar el código: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error al procesar la contraseña: %w", err)
	}

	if err := s.userRepo.ResetPassword(ctx, user.ID, string(hashedPassword)); err != nil {
		s.logger.WithError(err).Error("Failed to reset password")
		return fmt.Errorf("error al restablecer la contraseña: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("Password reset")
	return nil
}

// PurgeExpiredResetCodes is invoked by the scheduler.
func (s *AuthService) PurgeExpiredResetCodes(ctx context.Context) error {
	purged, err := s.userRepo.PurgeExpiredResetCodes(ctx)
	if err != nil {
		return err
	}
	if purged > 0 {
		s.logger.WithField("purged", purged).Info("Expired reset codes purged")
	}
	return nil
}

// EnsureDefaultUsers seeds one user (and account) per role on first start.
func (s *AuthService) EnsureDefaultUsers(ctx context.Context) error {
	defaults := []struct {
		role, name, email, username string
	}{
		{model.RoleAdminGlobal, "Super Admin Global", "admin_global@banca.com.gt", "admin_global"},
		{model.RoleGerenteSucursal, "Gerente de Sucursal", "gerente_sucursal@banca.com.gt", "gerente_sucursal"},
		{model.RoleCajero, "Cajero Principal", "cajero@banca.com.gt", "cajero"},
		{model.RoleCliente, "Cliente Base", "cliente@banca.com.gt", "cliente"},
	}

	for _, def := range defaults {
		exists, err := s.userRepo.ExistsDefaultUser(ctx, def.role, def.email, def.username)
		if err != nil {
			return fmt.Errorf("error al verificar el usuario por defecto %s: %w", def.role, err)
		}
		if exists {
			s.logger.WithField("role", def.role).Debug("Default user already present")
			continue
		}

		dpi, err := generateRandomDPI()
		if err != nil {
			return fmt.Errorf("error al generar DPI: %w", err)
		}

		_, _, err = s.Register(ctx, &model.RegisterInput{
			Name:          def.name,
			Surname:       "Default",
			Username:      def.username,
			Email:         def.email,
			Password:      "Password123!",
			Phone:         "00000000",
			DPI:           dpi,
			Address:       "N/A",
			JobName:       def.role + " Default",
			MonthlyIncome: 100,
			Role:          def.role,
		})
		if err != nil {
			return fmt.Errorf("error al crear el usuario por defecto %s: %w", def.role, err)
		}
		s.logger.WithField("role", def.role).Info("Default user created")
	}

	return nil
}

func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func generateRandomDPI() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9e12))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%013d", n.Int64()+1e12), nil
}
