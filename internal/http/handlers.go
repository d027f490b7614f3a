package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kurshub/miniapp-backend/internal/apperrors"
	"github.com/kurshub/miniapp-backend/internal/audit"
	"github.com/kurshub/miniapp-backend/internal/booking"
	"github.com/kurshub/miniapp-backend/internal/course"
	"github.com/kurshub/miniapp-backend/internal/db"
	"github.com/kurshub/miniapp-backend/internal/jwt"
	"github.com/kurshub/miniapp-backend/internal/rbac"
	"github.com/kurshub/miniapp-backend/internal/storage"
	"github.com/kurshub/miniapp-backend/internal/validation"
)

// Server represents HTTP server
type Server struct {
	db             db.Database
	bookingService *booking.Service
	courseService  *course.Service
	storageClient  *storage.Client
	auditService   *audit.Service
	jwtManager     *jwt.JWTManager
	rbac           *rbac.RBAC
	botToken       string
	env            string
}

// NewServer creates a new HTTP server
func NewServer(database db.Database, bookingService *booking.Service, courseService *course.Service, storageClient *storage.Client, auditService *audit.Service, jwtManager *jwt.JWTManager, rbacManager *rbac.RBAC, botToken, env string) *Server {
	return &Server{
		db:             database,
		bookingService: bookingService,
		courseService:  courseService,
		storageClient:  storageClient,
		auditService:   auditService,
		jwtManager:     jwtManager,
		rbac:           rbacManager,
		botToken:       botToken,
		env:            env,
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// writeDomainError сопоставляет доменную ошибку со статусом и пишет ответ
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	s.writeError(w, statusFromError(err), err.Error())
}

// validateRequest validates and decodes a request struct
func (s *Server) validateRequest(r *http.Request, req interface{}) error {
	return json.NewDecoder(r.Body).Decode(req)
}

// pathID достаёт числовой {id} из пути
func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.ErrValidation
	}
	return uint(id), nil
}

// Health handles health check
// @Summary	Health check
// @Tags		system
// @Produce	json
// @Success	200	{object}	HealthResponse
// @Router		/health [get]
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// GetProfile возвращает профиль и баланс текущего пользователя
// @Summary	Профиль пользователя
// @Tags		profile
// @Produce	json
// @Success	200	{object}	ProfileResponse
// @Failure	401	{object}	ErrorResponse
// @Router		/profile [get]
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUser(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	s.writeJSON(w, http.StatusOK, ProfileResponse{
		TelegramID: user.TelegramID,
		FirstName:  user.FirstName,
		Username:   user.Username,
		Currency:   user.Currency,
		Balance:    user.Balance,
	})
}

// GetCabinet возвращает личный кабинет
// @Summary	Личный кабинет
// @Tags		profile
// @Produce	json
// @Success	200	{object}	course.Cabinet
// @Router		/cabinet [get]
func (s *Server) GetCabinet(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUser(r)
	cabinet, err := s.courseService.GetCabinet(r.Context(), user)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cabinet)
}

// Courses

// ListCourses возвращает опубликованные курсы
// @Summary	Список курсов
// @Tags		courses
// @Produce	json
// @Success	200	{array}	course.CourseSummary
// @Router		/courses [get]
func (s *Server) ListCourses(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUser(r)
	courses, err := s.courseService.ListCourses(r.Context(), user)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, courses)
}

// GetCourse возвращает курс с уроками и их доступностью
// @Summary	Курс с уроками
// @Tags		courses
// @Produce	json
// @Param		id	path		int	true	"ID курса"
// @Success	200	{object}	course.CourseDetail
// @Failure	404	{object}	ErrorResponse
// @Router		/courses/{id} [get]
func (s *Server) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}
	user, _ := GetUser(r)
	detail, err := s.courseService.GetCourse(r.Context(), user, id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

// StartCourse записывает пользователя на курс
// @Summary	Начать курс
// @Tags		courses
// @Produce	json
// @Param		id	path	int	true	"ID курса"
// @Success	201	{object}	models.Enrollment
// @Failure	409	{object}	ErrorResponse
// @Router		/courses/{id}/start [post]
func (s *Server) StartCourse(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}
	user, _ := GetUser(r)
	enrollment, err := s.courseService.StartCourse(r.Context(), user, id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, enrollment)
}

// Lessons

// GetLesson возвращает страницу урока с учётом гейтинга
// @Summary	Урок
// @Tags		lessons
// @Produce	json
// @Param		id	path		int	true	"ID урока"
// @Success	200	{object}	course.LessonView
// @Failure	404	{object}	ErrorResponse
// @Router		/lessons/{id} [get]
func (s *Server) GetLesson(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}
	user, _ := GetUser(r)
	view, err := s.courseService.GetLesson(r.Context(), user, id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// GetLessonVideo резолвит видео урока. 202 — видео ещё обрабатывается
// @Summary	Видео урока
// @Tags		lessons
// @Produce	json
// @Param		id	path		int	true	"ID урока"
// @Success	200	{object}	video.VideoInfo
// @Success	202	{object}	VideoProcessingResponse
// @Failure	502	{object}	ErrorResponse
// @Router		/lessons/{id}/video [get]
func (s *Server) GetLessonVideo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}
	user, _ := GetUser(r)
	info, err := s.courseService.LessonVideo(r.Context(), user, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrVideoProcessing) {
			status := ""
			if info != nil {
				status = info.Status
			}
			s.writeJSON(w, http.StatusAccepted, VideoProcessingResponse{
				Status:  status,
				Message: "Видео ещё обрабатывается, попробуйте позже",
			})
			return
		}
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}

// SubmitAnswer отправляет ответ на проверку
// @Summary	Отправить ответ на урок
// @Tags		lessons
// @Accept		json
// @Produce	json
// @Param		request	body		course.SubmitRequest	true	"Ответ"
// @Success	200	{object}	course.SubmitResult
// @Failure	400	{object}	ErrorResponse
// @Failure	502	{object}	ErrorResponse
// @Router		/lessons/answer [post]
func (s *Server) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req course.SubmitRequest
	if err := s.validateRequest(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}
	user, _ := GetUser(r)
	result, err := s.courseService.SubmitAnswer(r.Context(), user, req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// UploadPhoto выдаёт presigned-ссылку для загрузки фото ответа
// @Summary	Ссылка на загрузку фото
// @Tags		lessons
// @Accept		json
// @Produce	json
// @Param		request	body		UploadPhotoRequest	true	"Файл"
// @Success	200	{object}	storage.UploadTarget
// @Failure	400	{object}	ErrorResponse
// @Router		/uploads/photo [post]
func (s *Server) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	var req UploadPhotoRequest
	if err := s.validateRequest(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}
	if err := validation.ValidateFilename(req.FileName, "file_name"); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateImageContentType(req.ContentType, "content_type"); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, _ := GetUser(r)
	target, err := s.storageClient.PresignPhotoUpload(r.Context(), user.TelegramID, req.FileName, req.ContentType)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to presign upload")
		return
	}
	s.writeJSON(w, http.StatusOK, target)
}

// Consultations

// GetAvailableTimes возвращает свободные времена на дату
// @Summary	Свободные времена
// @Tags		consultations
// @Produce	json
// @Param		date	query		string	true	"Дата YYYY-MM-DD"
// @Success	200	{object}	AvailableTimesResponse
// @Failure	400	{object}	ErrorResponse
// @Router		/consultations/available-times [get]
func (s *Server) GetAvailableTimes(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	times, err := s.bookingService.AvailableTimes(r.Context(), date)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, AvailableTimesResponse{Date: date, Times: times})
}

// GetDaysWithSlots возвращает дни диапазона со свободными временами
// @Summary	Дни со свободными слотами
// @Tags		consultations
// @Produce	json
// @Param		from	query		string	true	"Начало диапазона YYYY-MM-DD"
// @Param		to		query		string	true	"Конец диапазона YYYY-MM-DD"
// @Success	200	{object}	DaysWithSlotsResponse
// @Router		/consultations/days [get]
func (s *Server) GetDaysWithSlots(w http.ResponseWriter, r *http.Request) {
	days, err := s.bookingService.DaysWithSlots(r.Context(), r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, DaysWithSlotsResponse{Days: days})
}

// GetPrices возвращает пакеты консультаций в валюте пользователя
// @Summary	Цены консультаций
// @Tags		consultations
// @Produce	json
// @Success	200	{object}	PricesResponse
// @Router		/consultations/prices [get]
func (s *Server) GetPrices(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUser(r)
	userCurrency := userCurrencyFor(user)
	prices, converted, err := s.bookingService.Prices(r.Context(), userCurrency)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	resp := PricesResponse{Currency: userCurrency}
	for _, p := range prices {
		resp.Prices = append(resp.Prices, PriceEntry{Quantity: p.Quantity, Price: converted[p.Quantity]})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ListMyConsultations возвращает брони текущего пользователя
// @Summary	Мои консультации
// @Tags		consultations
// @Produce	json
// @Success	200	{array}	models.Consultation
// @Router		/consultations [get]
func (s *Server) ListMyConsultations(w http.ResponseWriter, r *http.Request) {
	user, _ := GetUser(r)
	list, err := s.bookingService.ListForUser(r.Context(), user.TelegramID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

// BookConsultation бронирует консультацию
// @Summary	Забронировать консультацию
// @Tags		consultations
// @Accept		json
// @Produce	json
// @Param		request	body		booking.BookRequest	true	"Заявка"
// @Success	201	{object}	BookConsultationResponse
// @Failure	400	{object}	ErrorResponse
// @Failure	409	{object}	ErrorResponse
// @Router		/consultations [post]
func (s *Server) BookConsultation(w http.ResponseWriter, r *http.Request) {
	var req booking.BookRequest
	if err := s.validateRequest(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}
	user, _ := GetUser(r)
	consultation, err := s.bookingService.Book(r.Context(), user, req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, BookConsultationResponse{
		Consultation: *consultation,
		Message:      "Заявка принята, ожидайте подтверждения",
	})
}

// CancelConsultation отменяет собственную бронь
// @Summary	Отменить консультацию
// @Tags		consultations
// @Produce	json
// @Param		id	path	int	true	"ID брони"
// @Success	200	{object}	SuccessResponse
// @Failure	409	{object}	ErrorResponse
// @Router		/consultations/{id}/cancel [post]
func (s *Server) CancelConsultation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid consultation id")
		return
	}
	user, _ := GetUser(r)
	if err := s.bookingService.Cancel(r.Context(), user, id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SuccessResponse{Message: "Бронь отменена, средства возвращены на баланс"})
}
