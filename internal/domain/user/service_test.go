package user

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/pkg/apperrors"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))

	cfg := &config.Config{}
	cfg.Security.BcryptCost = bcrypt.MinCost
	return NewService(db, cfg)
}

func TestRegisterCreatesCustomer(t *testing.T) {
	svc := newTestService(t)

	u, err := svc.Register(&SignupRequest{
		Email:    "Shopper@Example.com",
		Password: "secret-password",
		Name:     "Shopper",
	})
	require.NoError(t, err)
	assert.Equal(t, "shopper@example.com", u.Email, "emails are stored lowercase")
	assert.Equal(t, RoleCustomer, u.Role)
	assert.NotEqual(t, "secret-password", u.Password, "password must be hashed")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService(t)

	req := &SignupRequest{Email: "shopper@example.com", Password: "secret-password", Name: "Shopper"}
	_, err := svc.Register(req)
	require.NoError(t, err)

	// Same address with different casing is still a duplicate
	_, err = svc.Register(&SignupRequest{Email: "SHOPPER@example.com", Password: "secret-password", Name: "Other"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestRegisterShortPassword(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register(&SignupRequest{Email: "a@example.com", Password: "short", Name: "A"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register(&SignupRequest{Email: "shopper@example.com", Password: "secret-password", Name: "Shopper"})
	require.NoError(t, err)

	u, err := svc.Authenticate(&LoginRequest{Email: "shopper@example.com", Password: "secret-password"})
	require.NoError(t, err)
	assert.Equal(t, "shopper@example.com", u.Email)
}

func TestAuthenticateFailuresLookIdentical(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register(&SignupRequest{Email: "shopper@example.com", Password: "secret-password", Name: "Shopper"})
	require.NoError(t, err)

	_, wrongPassword := svc.Authenticate(&LoginRequest{Email: "shopper@example.com", Password: "wrong-password"})
	require.Error(t, wrongPassword)
	_, unknownEmail := svc.Authenticate(&LoginRequest{Email: "nobody@example.com", Password: "secret-password"})
	require.Error(t, unknownEmail)

	// Neither response may leak which part was wrong
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.True(t, apperrors.IsKind(wrongPassword, apperrors.KindAuthentication))
	assert.True(t, apperrors.IsKind(unknownEmail, apperrors.KindAuthentication))
}
