package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banca-api/internal/model"
	"banca-api/internal/repository"
	"banca-api/internal/service"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newAuthStack(t *testing.T) (*service.AuthService, *service.UserService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := testLogger()
	userRepo := repository.NewUserRepository(db, logger)
	accountRepo := repository.NewAccountRepository(db, logger)
	emailSender := service.NewEmailSender(logger)

	authService := service.NewAuthService(userRepo, accountRepo, nil, emailSender, "test-secret", time.Hour, logger)
	userService := service.NewUserService(userRepo, nil, logger)
	return authService, userService, mock
}

var userCols = []string{
	"id", "role", "name", "surname", "username", "email", "password", "phone",
	"encrypted_dpi", "dpi_hmac", "address", "job_name", "monthly_income", "status",
	"reset_code", "reset_expires", "created_at", "updated_at",
}

func userRow(id uuid.UUID, role string, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userCols).AddRow(
		id, role, "Ana", "López", "analopez", "ana@banca.com.gt", "hash",
		"55512345", "encrypted", "hmac", "Zona 1", "Contadora", "3500.00",
		active, nil, nil, now, now,
	)
}

func protectedEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalFrom(r.Context())
		require.True(t, ok)
		assert.NotEqual(t, uuid.Nil, principal.ID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	authService, userService, _ := newAuthStack(t)
	handler := AuthMiddleware(authService, userService, testLogger())(protectedEcho(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/users/all", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestAuthMiddlewareMalformedHeader(t *testing.T) {
	authService, userService, _ := newAuthStack(t)
	handler := AuthMiddleware(authService, userService, testLogger())(protectedEcho(t))

	req := httptest.NewRequest("GET", "/api/users/all", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	authService, userService, _ := newAuthStack(t)
	handler := AuthMiddleware(authService, userService, testLogger())(protectedEcho(t))

	req := httptest.NewRequest("GET", "/api/users/all", nil)
	req.Header.Set("Authorization", "Bearer bogus.token.value")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareResolvesPrincipal(t *testing.T) {
	authService, userService, mock := newAuthStack(t)
	userID := uuid.New()

	token, err := authService.GenerateToken(&model.User{ID: userID, Name: "Ana", Role: model.RoleCliente})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs(userID).
		WillReturnRows(userRow(userID, model.RoleCliente, true))

	handler := AuthMiddleware(authService, userService, testLogger())(protectedEcho(t))
	req := httptest.NewRequest("GET", "/api/users/all", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A valid token whose user has been deactivated must not pass.
func TestAuthMiddlewareInactiveUserRejected(t *testing.T) {
	authService, userService, mock := newAuthStack(t)
	userID := uuid.New()

	token, err := authService.GenerateToken(&model.User{ID: userID, Name: "Ana", Role: model.RoleCliente})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs(userID).
		WillReturnRows(userRow(userID, model.RoleCliente, false))

	handler := AuthMiddleware(authService, userService, testLogger())(protectedEcho(t))
	req := httptest.NewRequest("GET", "/api/users/all", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func withPrincipal(req *http.Request, role string) *http.Request {
	user := &model.User{ID: uuid.New(), Role: role, Status: true}
	return req.WithContext(context.WithValue(req.Context(), principalKey, user))
}

func TestRequireRolesAllows(t *testing.T) {
	called := false
	handler := RequireRoles(testLogger(), model.RoleAdminGlobal, model.RoleCajero)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }),
	)

	req := withPrincipal(httptest.NewRequest("POST", "/api/transactions/deposit", nil), model.RoleCajero)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, called)
}

func TestRequireRolesDenies(t *testing.T) {
	handler := RequireRoles(testLogger(), model.RoleAdminGlobal)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not be reached")
		}),
	)

	req := withPrincipal(httptest.NewRequest("DELETE", "/api/transactions/delete/x", nil), model.RoleCliente)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRolesWithoutPrincipal(t *testing.T) {
	handler := RequireRoles(testLogger(), model.RoleAdminGlobal)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not be reached")
		}),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/users/all", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
