package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"banca-api/internal/model"
	"banca-api/internal/repository"
)

func newAuthServiceTest(t *testing.T) (*AuthService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := testLogger()
	userRepo := repository.NewUserRepository(db, logger)
	accountRepo := repository.NewAccountRepository(db, logger)
	emailSender := NewEmailSender(logger)

	svc := NewAuthService(userRepo, accountRepo, nil, emailSender, "test-secret", time.Hour, logger)
	return svc, mock
}

var userCols = []string{
	"id", "role", "name", "surname", "username", "email", "password", "phone",
	"encrypted_dpi", "dpi_hmac", "address", "job_name", "monthly_income", "status",
	"reset_code", "reset_expires", "created_at", "updated_at",
}

func userRow(id uuid.UUID, email, passwordHash string, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userCols).AddRow(
		id, model.RoleCliente, "Ana", "López", "analopez", email, passwordHash,
		"55512345", "encrypted", "hmac", "Zona 1", "Contadora", "3500.00",
		active, nil, nil, now, now,
	)
}

func TestTokenRoundTrip(t *testing.T) {
	svc, _ := newAuthServiceTest(t)

	user := &model.User{
		ID:   uuid.New(),
		Name: "Ana",
		Role: model.RoleCliente,
	}

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, model.RoleCliente, claims.Role)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthServiceTest(t)

	_, err := svc.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	svc, _ := newAuthServiceTest(t)
	other, _ := newAuthServiceTest(t)
	other.jwtSecret = "another-secret"

	token, err := other.GenerateToken(&model.User{ID: uuid.New(), Role: model.RoleCliente})
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoginByEmail(t *testing.T) {
	svc, mock := newAuthServiceTest(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.MinCost)
	require.NoError(t, err)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("ana@banca.com.gt").
		WillReturnRows(userRow(userID, "ana@banca.com.gt", string(hash), true))

	token, user, err := svc.Login(context.Background(), &model.LoginInput{
		Email:    "Ana@banca.com.gt",
		Password: "Password123!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, userID, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginWrongPassword(t *testing.T) {
	svc, mock := newAuthServiceTest(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("ana@banca.com.gt").
		WillReturnRows(userRow(uuid.New(), "ana@banca.com.gt", string(hash), true))

	_, _, err = svc.Login(context.Background(), &model.LoginInput{
		Email:    "ana@banca.com.gt",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginInactiveUserRejected(t *testing.T) {
	svc, mock := newAuthServiceTest(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("ana@banca.com.gt").
		WillReturnRows(userRow(uuid.New(), "ana@banca.com.gt", string(hash), false))

	_, _, err = svc.Login(context.Background(), &model.LoginInput{
		Email:    "ana@banca.com.gt",
		Password: "Password123!",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginByUsername(t *testing.T) {
	svc, mock := newAuthServiceTest(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username = $1`)).
		WithArgs("analopez").
		WillReturnRows(userRow(uuid.New(), "ana@banca.com.gt", string(hash), true))

	token, _, err := svc.Login(context.Background(), &model.LoginInput{
		Username: "analopez",
		Password: "Password123!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateResetCodeFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateResetCode()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
	}
}

func TestGenerateRandomDPIFormat(t *testing.T) {
	dpi, err := generateRandomDPI()
	require.NoError(t, err)
	assert.Regexp(t, `^\d{13}$`, dpi)
}

func TestMaskDPI(t *testing.T) {
	assert.Equal(t, "*********4567", MaskDPI("1234567894567"))
	assert.Equal(t, "123", MaskDPI("123"))
}
