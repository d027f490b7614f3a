package http

import (
	"github.com/kurshub/miniapp-backend/internal/models"
	"github.com/kurshub/miniapp-backend/internal/rbac"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// ProfileResponse — профиль пользователя мини-аппа
type ProfileResponse struct {
	TelegramID int64   `json:"telegram_id"`
	FirstName  string  `json:"first_name"`
	Username   string  `json:"username"`
	Currency   string  `json:"currency"`
	Balance    float64 `json:"balance"`
}

// AvailableTimesResponse — свободные времена на дату
type AvailableTimesResponse struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}

// DaysWithSlotsResponse — дни диапазона, где есть свободные времена
type DaysWithSlotsResponse struct {
	Days []string `json:"days"`
}

// PricesResponse — пакеты консультаций с ценой в валюте пользователя
type PricesResponse struct {
	Currency string       `json:"currency"`
	Prices   []PriceEntry `json:"prices"`
}

type PriceEntry struct {
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// BookConsultationResponse — созданная бронь
type BookConsultationResponse struct {
	Consultation models.Consultation `json:"consultation"`
	Message      string              `json:"message"`
}

// UploadPhotoRequest — запрос presigned-ссылки на загрузку фото ответа
type UploadPhotoRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

// VideoProcessingResponse — ответ 202, когда видео ещё обрабатывается
type VideoProcessingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// AdminLoginRequest — вход в админ-панель
type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLoginResponse — пара токенов и роль
type AdminLoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Role         string `json:"role"`
}

// RefreshTokenRequest — обновление access токена
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshTokenResponse — новый access токен
type RefreshTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// SlotRequest — создание/изменение окна доступности
type SlotRequest struct {
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	IsAvailable *bool  `json:"is_available,omitempty"`
}

// ConsultationStatusRequest — смена статуса брони админом
type ConsultationStatusRequest struct {
	Status string `json:"status"`
}

// AdminMeResponse — текущий администратор и разрешения его роли
type AdminMeResponse struct {
	ID          uint              `json:"id"`
	Email       string            `json:"email"`
	Role        string            `json:"role"`
	Permissions []rbac.Permission `json:"permissions"`
}

// CourseRequest — создание/изменение курса
type CourseRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	IsPublished bool    `json:"is_published"`
}

func (r CourseRequest) toModel(id uint) *models.Course {
	currency := r.Currency
	if currency == "" {
		currency = "RUB"
	}
	return &models.Course{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		Price:       r.Price,
		Currency:    currency,
		IsPublished: r.IsPublished,
	}
}

// LessonRequest — создание/изменение урока
type LessonRequest struct {
	CourseID         uint   `json:"course_id"`
	OrderIndex       int    `json:"order_index"`
	Title            string `json:"title"`
	Description      string `json:"lesson_description"`
	Content          string `json:"content"`
	Question         string `json:"question"`
	VideoDescription string `json:"video_description"`
	KinescopeVideoID string `json:"kinescope_video_id"`
	AllowPhotoUpload bool   `json:"allow_photo_upload"`
}

func (r LessonRequest) toModel(id uint) *models.Lesson {
	return &models.Lesson{
		ID:               id,
		CourseID:         r.CourseID,
		OrderIndex:       r.OrderIndex,
		Title:            r.Title,
		Description:      r.Description,
		Content:          r.Content,
		Question:         r.Question,
		VideoDescription: r.VideoDescription,
		KinescopeVideoID: r.KinescopeVideoID,
		AllowPhotoUpload: r.AllowPhotoUpload,
	}
}
