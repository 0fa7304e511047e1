package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"banca-api/internal/model"
	"banca-api/internal/repository"
)

type UserService struct {
	userRepo  *repository.UserRepository
	dpiCipher *DPICipher
	logger    *logrus.Logger
}

func NewUserService(userRepo *repository.UserRepository, dpiCipher *DPICipher, logger *logrus.Logger) *UserService {
	return &UserService{userRepo: userRepo, dpiCipher: dpiCipher, logger: logger}
}

// ToResponse builds the safe serialization; the DPI is decrypted only to be
// masked.
func (s *UserService) ToResponse(user *model.User) *model.UserResponse {
	maskedDPI := ""
	if dpi, err := s.dpiCipher.Decrypt(user.EncryptedDPI); err == nil {
		maskedDPI = MaskDPI(dpi)
	} else {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to decrypt DPI")
	}

	return &model.UserResponse{
		ID:            user.ID,
		Role:          user.Role,
		Name:          user.Name,
		Surname:       user.Surname,
		Username:      user.Username,
		Email:         user.Email,
		Phone:         user.Phone,
		MaskedDPI:     maskedDPI,
		Address:       user.Address,
		JobName:       user.JobName,
		MonthlyIncome: user.MonthlyIncome,
		Status:        user.Status,
		CreatedAt:     user.CreatedAt,
	}
}

// GetAllUsers lists active users only.
func (s *UserService) GetAllUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.GetAllActive(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list users")
		return nil, fmt.Errorf("error al obtener los usuarios: %w", err)
	}

	responses := make([]model.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *s.ToResponse(&users[i]))
	}
	return responses, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error al obtener el usuario: %w", err)
	}
	if !user.Status {
		return nil, ErrUserNotFound
	}
	return s.ToResponse(user), nil
}

// UpdateUser is the staff-side patch; the password can never be changed
// through it.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, input *model.UpdateUserInput) (*model.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error al obtener el usuario: %w", err)
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != user.Email {
			if taken, err := s.userRepo.ExistsByEmail(ctx, email); err != nil {
				return nil, fmt.Errorf("error al verificar el correo: %w", err)
			} else if taken {
				return nil, ErrEmailTaken
			}
			user.Email = email
		}
	}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username != user.Username {
			if taken, err := s.userRepo.ExistsByUsername(ctx, username); err != nil {
				return nil, fmt.Errorf("error al verificar el nombre de usuario: %w", err)
			} else if taken {
				return nil, ErrUsernameTaken
			}
			user.Username = username
		}
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Surname != nil {
		user.Surname = strings.TrimSpace(*input.Surname)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		user.Address = strings.TrimSpace(*input.Address)
	}
	if input.JobName != nil {
		user.JobName = strings.TrimSpace(*input.JobName)
	}
	if input.MonthlyIncome != nil {
		user.MonthlyIncome = decimal.NewFromFloat(*input.MonthlyIncome)
	}
	if input.Status != nil {
		user.Status = *input.Status
	}
	if input.Role != nil {
		user.Role = *input.Role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		s.logger.WithError(err).Error("Failed to update user")
		return nil, fmt.Errorf("error al actualizar el usuario: %w", err)
	}

	s.logger.WithField("user_id", id).Info("User updated")
	return s.ToResponse(user), nil
}

// UpdateMe is the authenticated user's self-service subset; it may change
// the password.
func (s *UserService) UpdateMe(ctx context.Context, id uuid.UUID, input *model.UpdateMeInput) (*model.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error al obtener el usuario: %w", err)
	}
	if !user.Status {
		return nil, ErrUserNotFound
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != user.Email {
			if taken, err := s.userRepo.ExistsByEmail(ctx, email); err != nil {
				return nil, fmt.Errorf("error al verificar el correo: %w", err)
			} else if taken {
				return nil, ErrEmailTaken
			}
			user.Email = email
		}
	}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username != user.Username {
			if taken, err := s.userRepo.ExistsByUsername(ctx, username); err != nil {
				return nil, fmt.Errorf("error al verificar el nombre de usuario: %w", err)
			} else if taken {
				return nil, ErrUsernameTaken
			}
			user.Username = username
		}
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		user.Address = strings.TrimSpace(*input.Address)
	}
	if input.MonthlyIncome != nil {
		user.MonthlyIncome = decimal.NewFromFloat(*input.MonthlyIncome)
	}
	if input.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("error al procesar la contraseña: %w", err)
		}
		user.Password = string(hashedPassword)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		s.logger.WithError(err).Error("Failed to update own profile")
		return nil, fmt.Errorf("error al actualizar mis datos: %w", err)
	}

	s.logger.WithField("user_id", id).Info("Own profile updated")
	return s.ToResponse(user), nil
}

// DeactivateUser soft-deletes; users are never removed.
func (s *UserService) DeactivateUser(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error al obtener el usuario: %w", err)
	}
	if !user.Status {
		return nil, ErrUserNotFound
	}

	user.Status = false
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.WithError(err).Error("Failed to deactivate user")
		return nil, fmt.Errorf("error al desactivar el usuario: %w", err)
	}

	s.logger.WithField("user_id", id).Info("User deactivated")
	return s.ToResponse(user), nil
}

// GetActiveUser resolves a principal for the auth middleware: the user must
// exist and be active.
func (s *UserService) GetActiveUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error al obtener el usuario: %w", err)
	}
	if !user.Status {
		return nil, ErrUserNotFound
	}
	return user, nil
}
