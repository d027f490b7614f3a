package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kurshub/miniapp-backend/internal/apperrors"
	dbmocks "github.com/kurshub/miniapp-backend/internal/db/mocks"
	"github.com/kurshub/miniapp-backend/internal/jwt"
	"github.com/kurshub/miniapp-backend/internal/models"
	"github.com/kurshub/miniapp-backend/internal/rbac"
	"github.com/kurshub/miniapp-backend/internal/telegram"
)

const testBotToken = "12345:test-bot-token"

func signedInitData(t *testing.T, userID int64) string {
	t.Helper()
	userJSON, err := json.Marshal(map[string]any{
		"id": userID, "first_name": "Анна", "username": "anna", "language_code": "ru",
	})
	require.NoError(t, err)

	values := url.Values{}
	values.Set("user", string(userJSON))
	values.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	values.Set("query_id", "AAtest")
	values.Set("hash", telegram.SignInitData(values, testBotToken))
	return values.Encode()
}

func TestHealth(t *testing.T) {
	server := NewServer(nil, nil, nil, nil, nil, nil, nil, testBotToken, "test")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTelegramAuthMiddleware(t *testing.T) {
	mockDB := new(dbmocks.Database)
	server := NewServer(mockDB, nil, nil, nil, nil, nil, nil, testBotToken, "test")

	stored := &models.User{ID: 1, TelegramID: 111222, FirstName: "Анна", Currency: "RUB", Balance: 500}
	mockDB.On("UpsertUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		// Код страны из initData не выводится: там есть только язык
		return u.TelegramID == 111222 && u.Currency == "RUB" && u.CountryCode == ""
	})).Return(nil)
	mockDB.On("GetUserByTelegramID", mock.Anything, int64(111222)).Return(stored, nil)

	var gotUser *models.User
	handler := TelegramAuthMiddleware(server, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = GetUser(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set(InitDataHeader, signedInitData(t, 111222))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotUser)
	assert.Equal(t, int64(111222), gotUser.TelegramID)
	mockDB.AssertExpectations(t)
}

func TestTelegramAuthMiddleware_BadSignature(t *testing.T) {
	server := NewServer(nil, nil, nil, nil, nil, nil, nil, testBotToken, "production")

	handler := TelegramAuthMiddleware(server, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set(InitDataHeader, "user=%7B%22id%22%3A1%7D&hash=deadbeef")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTelegramAuthMiddleware_MissingInitData(t *testing.T) {
	server := NewServer(nil, nil, nil, nil, nil, nil, nil, testBotToken, "production")

	handler := TelegramAuthMiddleware(server, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	// Dev-заголовок в production игнорируется
	req.Header.Set(DevUserIDHeader, "42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTelegramAuthMiddleware_DevFallback(t *testing.T) {
	mockDB := new(dbmocks.Database)
	server := NewServer(mockDB, nil, nil, nil, nil, nil, nil, testBotToken, "development")

	stored := &models.User{ID: 2, TelegramID: 42, Currency: "RUB"}
	mockDB.On("UpsertUser", mock.Anything, mock.Anything).Return(nil)
	mockDB.On("GetUserByTelegramID", mock.Anything, int64(42)).Return(stored, nil)

	handler := TelegramAuthMiddleware(server, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set(DevUserIDHeader, "42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminMe(t *testing.T) {
	mockDB := new(dbmocks.Database)
	server := NewServer(mockDB, nil, nil, nil, nil, nil, rbac.NewRBAC(), testBotToken, "test")

	mockDB.On("GetAdminByID", mock.Anything, uint(7)).
		Return(&models.AdminUser{ID: 7, Email: "owner@example.com", Role: "manager"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/me", nil)
	ctx := context.WithValue(req.Context(), AdminClaimsKey, &jwt.Claims{AdminID: 7, Email: "owner@example.com", Role: "manager"})
	rec := httptest.NewRecorder()
	server.AdminMe(rec, req.WithContext(ctx))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AdminMeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint(7), resp.ID)
	assert.Equal(t, "manager", resp.Role)
	assert.NotEmpty(t, resp.Permissions)
	// Менеджеру не положено управлять контентом
	assert.NotContains(t, resp.Permissions, rbac.PermissionContentManage)
	mockDB.AssertExpectations(t)
}

func TestUserCurrencyFor(t *testing.T) {
	assert.Equal(t, "RUB", userCurrencyFor(nil))
	assert.Equal(t, "USD", userCurrencyFor(&models.User{Currency: "USD"}))
	// Неизвестная валюта — падаем на валюту страны
	assert.Equal(t, "EUR", userCurrencyFor(&models.User{Currency: "XXX", CountryCode: "DE"}))
	assert.Equal(t, "UAH", userCurrencyFor(&models.User{CountryCode: "UA"}))
	assert.Equal(t, "RUB", userCurrencyFor(&models.User{}))
}

func TestStatusFromError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperrors.ErrValidation, http.StatusBadRequest},
		{apperrors.ErrInsufficientBalance, http.StatusBadRequest},
		{apperrors.ErrInvalidInitData, http.StatusUnauthorized},
		{apperrors.ErrAccessDenied, http.StatusForbidden},
		{apperrors.ErrNotFound, http.StatusNotFound},
		{apperrors.ErrSlotTaken, http.StatusConflict},
		{apperrors.ErrCancelWindowClosed, http.StatusConflict},
		{apperrors.ErrUpstream, http.StatusBadGateway},
		{apperrors.ErrPersistence, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFromError(fmt.Errorf("wrapped: %w", tc.err)), tc.err.Error())
	}
	assert.Equal(t, http.StatusInternalServerError, statusFromError(errors.New("unknown")))
}
