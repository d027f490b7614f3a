package apperrors

import "errors"

// Ошибки уровня приложения. Хендлеры сопоставляют их с HTTP статусами через
// errors.Is, сервисы оборачивают через fmt.Errorf("...: %w", err).
var (
	// Валидация и аутентификация
	ErrValidation          = errors.New("validation failed")
	ErrAuthentication      = errors.New("authentication required")
	ErrAccessDenied        = errors.New("access denied")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidInitData     = errors.New("telegram init data is invalid")
	ErrInitDataExpired     = errors.New("telegram init data is expired")

	// Доменные ошибки
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSlotTaken           = errors.New("slot no longer available")
	ErrCancelWindowClosed  = errors.New("consultation can no longer be cancelled")
	ErrActiveEnrollment    = errors.New("user already has an active course")
	ErrVideoProcessing     = errors.New("video is still processing")

	// Внешние сервисы и хранилище
	ErrUpstream    = errors.New("upstream service failed")
	ErrPersistence = errors.New("persistence failed")
)

// JWT/конфигурация
var (
	ErrJWTSecretKeyNotConfigured = errors.New("JWT secret key is not configured")
	ErrUnexpectedSigningMethod   = errors.New("unexpected token signing method")
	ErrFailedToParseToken        = errors.New("failed to parse token")
	ErrInvalidToken              = errors.New("invalid token")
	ErrInvalidRefreshToken       = errors.New("invalid refresh token")
	ErrAuthHeaderEmpty           = errors.New("authorization header is empty")
	ErrAuthHeaderWrongFormat     = errors.New("authorization header format must be Bearer <token>")
)
