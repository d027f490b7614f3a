package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kurshub/miniapp-backend/internal/apperrors"
	"github.com/kurshub/miniapp-backend/internal/currency"
	"github.com/kurshub/miniapp-backend/internal/jwt"
	"github.com/kurshub/miniapp-backend/internal/logger"
	"github.com/kurshub/miniapp-backend/internal/models"
	"github.com/kurshub/miniapp-backend/internal/telegram"
)

// Context keys for storing values in request context
type contextKey string

const (
	UserKey        contextKey = "miniapp_user"
	AdminClaimsKey contextKey = "admin_claims"
	RequestIDKey   contextKey = "request_id"
)

// InitDataHeader несёт строку initData из Telegram.WebApp.initData
const InitDataHeader = "X-Telegram-Init-Data"

// DevUserIDHeader — обход подписи для локальной разработки, работает только
// вне production
const DevUserIDHeader = "X-Telegram-User-Id"

// TelegramAuthMiddleware проверяет подпись initData, апсертит пользователя
// и кладёт его в контекст. Личность берётся только из проверенных данных,
// идентификатору из тела запроса доверять нельзя
func TelegramAuthMiddleware(s *Server, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		initData := r.Header.Get(InitDataHeader)

		var webAppUser *telegram.WebAppUser
		if initData != "" {
			u, err := telegram.VerifyInitData(initData, s.botToken, time.Now())
			if err != nil {
				status := http.StatusUnauthorized
				s.writeError(w, status, err.Error())
				return
			}
			webAppUser = u
		} else if s.env != "production" {
			if raw := r.Header.Get(DevUserIDHeader); raw != "" {
				id, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					s.writeError(w, http.StatusUnauthorized, "invalid dev user id")
					return
				}
				webAppUser = &telegram.WebAppUser{ID: id, FirstName: "Dev", LanguageCode: "ru"}
			}
		}
		if webAppUser == nil {
			s.writeError(w, http.StatusUnauthorized, "telegram init data is required")
			return
		}

		user, err := s.resolveUser(r.Context(), webAppUser)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to resolve user")
			return
		}

		ctx := context.WithValue(r.Context(), UserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolveUser находит пользователя по Telegram ID, создавая его при первом
// входе. Профильные поля обновляются на каждом входе, баланс не трогается.
// В initData нет кода страны, только язык, поэтому CountryCode здесь не
// заполняется: он остаётся за админом/платёжными данными
func (s *Server) resolveUser(ctx context.Context, webAppUser *telegram.WebAppUser) (*models.User, error) {
	user := &models.User{
		TelegramID: webAppUser.ID,
		FirstName:  webAppUser.FirstName,
		Username:   webAppUser.Username,
		Currency:   currency.ForLanguage(webAppUser.LanguageCode),
	}
	if err := s.db.UpsertUser(ctx, user); err != nil {
		return nil, err
	}
	stored, err := s.db.GetUserByTelegramID(ctx, webAppUser.ID)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// AuthMiddleware creates a middleware for admin JWT authentication
func AuthMiddleware(jwtManager *jwt.JWTManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if jwtManager == nil {
			http.Error(w, apperrors.ErrJWTSecretKeyNotConfigured.Error(), http.StatusServiceUnavailable)
			return
		}

		tokenString, err := jwt.ExtractTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		claims, err := jwtManager.ValidateToken(tokenString)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), AdminClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware logs requests and responses with structured logging
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		requestID, _ := r.Context().Value(RequestIDKey).(string)

		l := slog.With("request_id", requestID, "method", r.Method, "path", r.URL.Path)
		ctx := logger.WithContext(r.Context(), l)

		l.Info("Request started", "remote_addr", r.RemoteAddr, "user_agent", r.UserAgent())

		next.ServeHTTP(wrapped, r.WithContext(ctx))

		duration := time.Since(start)
		l.Info("Request completed",
			"status_code", wrapped.statusCode,
			"duration_ms", duration.Milliseconds(),
			"response_size_bytes", wrapped.size,
		)
	})
}

// CORSMiddleware adds CORS headers
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// TODO: ограничить Origin доменом мини-аппа перед продом
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, "+InitDataHeader+", "+DevUserIDHeader)
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ContentTypeMiddleware ensures JSON content type for API endpoints
func ContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "POST" || r.Method == "PUT" || r.Method == "PATCH" {
			contentType := r.Header.Get("Content-Type")
			if !strings.Contains(contentType, "application/json") {
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter is a wrapper around http.ResponseWriter to capture status code and response size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// GetUser extracts the authenticated miniapp user from request context
func GetUser(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserKey).(*models.User)
	return user, ok
}

// userCurrencyFor выбирает валюту для отображения цен: сохранённая у
// пользователя валюта, если она поддерживается, иначе валюта его страны
// (по умолчанию RUB)
func userCurrencyFor(user *models.User) string {
	if user == nil {
		return currency.RUB
	}
	if currency.Supported(user.Currency) {
		return user.Currency
	}
	return currency.ForCountry(user.CountryCode)
}

// GetAdminClaims extracts admin claims from request context
func GetAdminClaims(r *http.Request) (*jwt.Claims, bool) {
	claims, ok := r.Context().Value(AdminClaimsKey).(*jwt.Claims)
	return claims, ok
}

// GetRequestID extracts request ID from request context
func GetRequestID(r *http.Request) (string, bool) {
	requestID, ok := r.Context().Value(RequestIDKey).(string)
	return requestID, ok
}

// statusFromError сопоставляет доменную ошибку с HTTP статусом
func statusFromError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInsufficientBalance):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrAuthentication),
		errors.Is(err, apperrors.ErrInvalidInitData),
		errors.Is(err, apperrors.ErrInitDataExpired),
		errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrSlotTaken),
		errors.Is(err, apperrors.ErrActiveEnrollment),
		errors.Is(err, apperrors.ErrCancelWindowClosed):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
