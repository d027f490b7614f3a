package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kurshub/miniapp-backend/internal/apperrors"
	"github.com/kurshub/miniapp-backend/internal/config"
	dbmocks "github.com/kurshub/miniapp-backend/internal/db/mocks"
	"github.com/kurshub/miniapp-backend/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSeedAdmin_CreatesAccount(t *testing.T) {
	mockDB := new(dbmocks.Database)
	ctx := context.Background()
	cfg := &config.Config{AdminEmail: "owner@example.com", AdminPassword: "s3cret-pass"}

	mockDB.On("GetAdminByEmail", ctx, "owner@example.com").Return(nil, apperrors.ErrNotFound)
	mockDB.On("CreateAdmin", ctx, mock.MatchedBy(func(a *models.AdminUser) bool {
		if a.Email != "owner@example.com" || a.Role != "admin" {
			return false
		}
		return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("s3cret-pass")) == nil
	})).Return(nil)

	err := seedAdmin(ctx, mockDB, cfg, discardLogger())
	require.NoError(t, err)
	mockDB.AssertExpectations(t)
}

func TestSeedAdmin_ExistingAccountUntouched(t *testing.T) {
	mockDB := new(dbmocks.Database)
	ctx := context.Background()
	cfg := &config.Config{AdminEmail: "owner@example.com", AdminPassword: "новый-пароль"}

	mockDB.On("GetAdminByEmail", ctx, "owner@example.com").
		Return(&models.AdminUser{ID: 1, Email: "owner@example.com"}, nil)

	err := seedAdmin(ctx, mockDB, cfg, discardLogger())
	require.NoError(t, err)
	mockDB.AssertNotCalled(t, "CreateAdmin", mock.Anything, mock.Anything)
}

func TestSeedAdmin_NotConfigured(t *testing.T) {
	mockDB := new(dbmocks.Database)

	err := seedAdmin(context.Background(), mockDB, &config.Config{}, discardLogger())
	assert.NoError(t, err)
	mockDB.AssertNotCalled(t, "GetAdminByEmail", mock.Anything, mock.Anything)
}
