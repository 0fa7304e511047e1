package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"banca-api/internal/model"
)

type UserRepository struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewUserRepository(db *sql.DB, logger *logrus.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

const userColumns = `id, role, name, surname, username, email, password, phone,
	encrypted_dpi, dpi_hmac, address, job_name, monthly_income, status,
	reset_code, reset_expires, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Role,
		&user.Name,
		&user.Surname,
		&user.Username,
		&user.Email,
		&user.Password,
		&user.Phone,
		&user.EncryptedDPI,
		&user.DPIHMAC,
		&user.Address,
		&user.JobName,
		&user.MonthlyIncome,
		&user.Status,
		&user.ResetCode,
		&user.ResetExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, role, name, surname, username, email, password, phone,
			encrypted_dpi, dpi_hmac, address, job_name, monthly_income, status,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Role,
		user.Name,
		user.Surname,
		user.Username,
		user.Email,
		user.Password,
		user.Phone,
		user.EncryptedDPI,
		user.DPIHMAC,
		user.Address,
		user.JobName,
		user.MonthlyIncome,
		user.Status,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user with username %s: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	return user, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return exists, nil
}

// ExistsByDPIHMAC checks DPI uniqueness without decrypting any stored value.
func (r *UserRepository) ExistsByDPIHMAC(ctx context.Context, dpiHMAC string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE dpi_hmac = $1)`, dpiHMAC,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check DPI existence: %w", err)
	}
	return exists, nil
}

// ExistsDefaultUser is used by the startup seeding to avoid duplicating the
// per-role default users.
func (r *UserRepository) ExistsDefaultUser(ctx context.Context, role, email, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE role = $1 OR email = $2 OR username = $3)`,
		role, email, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check default user existence: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) GetAllActive(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE status = true ORDER BY surname, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// Update writes every mutable field; callers load the row first and modify
// only what they intend to change.
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET role = $1, name = $2, surname = $3, username = $4, email = $5,
			password = $6, phone = $7, address = $8, job_name = $9,
			monthly_income = $10, status = $11, updated_at = $12
		WHERE id = $13
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Role,
		user.Name,
		user.Surname,
		user.Username,
		user.Email,
		user.Password,
		user.Phone,
		user.Address,
		user.JobName,
		user.MonthlyIncome,
		user.Status,
		time.Now(),
		user.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %s: %w", user.ID, ErrNotFound)
	}

	return nil
}

func (r *UserRepository) SetResetCode(ctx context.Context, id uuid.UUID, code string, expires time.Time) error {
	query := `UPDATE users SET reset_code = $1, reset_expires = $2, updated_at = NOW() WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, code, expires, id)
	if err != nil {
		return fmt.Errorf("failed to set reset code: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// FindByResetCode resolves a pending, unexpired reset request.
func (r *UserRepository) FindByResetCode(ctx context.Context, email, code string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE email = $1 AND reset_code = $2 AND reset_expires > NOW()`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("reset code for %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find reset code: %w", err)
	}
	return user, nil
}

// ResetPassword stores the new hash and clears the reset code in one write.
func (r *UserRepository) ResetPassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	query := `UPDATE users
		SET password = $1, reset_code = NULL, reset_expires = NULL, updated_at = NOW()
		WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, hashedPassword, id)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// PurgeExpiredResetCodes clears stale reset codes; run from the scheduler.
func (r *UserRepository) PurgeExpiredResetCodes(ctx context.Context) (int64, error) {
	query := `UPDATE users
		SET reset_code = NULL, reset_expires = NULL
		WHERE reset_code IS NOT NULL AND reset_expires <= NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to purge reset codes: %w", err)
	}
	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return purged, nil
}
