package http

import (
	"net/http"

	"github.com/kurshub/miniapp-backend/internal/jwt"
)

// SetupRouter creates and configures HTTP router
func SetupRouter(server *Server, jwtManager *jwt.JWTManager) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no auth required)
	mux.Handle("GET /health", chainMiddleware(server.Health))

	base := []func(http.Handler) http.Handler{
		CORSMiddleware, RequestIDMiddleware, LoggingMiddleware, ContentTypeMiddleware,
	}
	// Пользовательские ручки: личность из подписанного initData
	userAuth := append(append([]func(http.Handler) http.Handler{}, base...), func(next http.Handler) http.Handler {
		return TelegramAuthMiddleware(server, next)
	})
	// Админские ручки: JWT
	adminAuth := append(append([]func(http.Handler) http.Handler{}, base...), func(next http.Handler) http.Handler {
		return AuthMiddleware(jwtManager, next)
	})

	// Profile
	mux.Handle("GET /api/v1/profile", chainMiddleware(server.GetProfile, userAuth...))
	mux.Handle("GET /api/v1/cabinet", chainMiddleware(server.GetCabinet, userAuth...))

	// Courses and lessons
	mux.Handle("GET /api/v1/courses", chainMiddleware(server.ListCourses, userAuth...))
	mux.Handle("GET /api/v1/courses/{id}", chainMiddleware(server.GetCourse, userAuth...))
	mux.Handle("POST /api/v1/courses/{id}/start", chainMiddleware(server.StartCourse, userAuth...))
	mux.Handle("GET /api/v1/lessons/{id}", chainMiddleware(server.GetLesson, userAuth...))
	mux.Handle("GET /api/v1/lessons/{id}/video", chainMiddleware(server.GetLessonVideo, userAuth...))
	mux.Handle("POST /api/v1/lessons/answer", chainMiddleware(server.SubmitAnswer, userAuth...))
	mux.Handle("POST /api/v1/uploads/photo", chainMiddleware(server.UploadPhoto, userAuth...))

	// Consultations
	mux.Handle("GET /api/v1/consultations", chainMiddleware(server.ListMyConsultations, userAuth...))
	mux.Handle("POST /api/v1/consultations", chainMiddleware(server.BookConsultation, userAuth...))
	mux.Handle("POST /api/v1/consultations/{id}/cancel", chainMiddleware(server.CancelConsultation, userAuth...))
	mux.Handle("GET /api/v1/consultations/available-times", chainMiddleware(server.GetAvailableTimes, userAuth...))
	mux.Handle("GET /api/v1/consultations/days", chainMiddleware(server.GetDaysWithSlots, userAuth...))
	mux.Handle("GET /api/v1/consultations/prices", chainMiddleware(server.GetPrices, userAuth...))

	// Admin auth (no auth required)
	mux.Handle("POST /api/v1/admin/auth/login", chainMiddleware(server.AdminLogin, base...))
	mux.Handle("POST /api/v1/admin/auth/refresh", chainMiddleware(server.AdminRefreshToken, base...))

	// Admin panel
	mux.Handle("GET /api/v1/admin/me", chainMiddleware(server.AdminMe, adminAuth...))
	mux.Handle("GET /api/v1/admin/slots", chainMiddleware(server.AdminListSlots, adminAuth...))
	mux.Handle("POST /api/v1/admin/slots", chainMiddleware(server.AdminCreateSlot, adminAuth...))
	mux.Handle("PUT /api/v1/admin/slots/{id}", chainMiddleware(server.AdminUpdateSlot, adminAuth...))
	mux.Handle("DELETE /api/v1/admin/slots/{id}", chainMiddleware(server.AdminDeleteSlot, adminAuth...))
	mux.Handle("GET /api/v1/admin/calendar", chainMiddleware(server.AdminDayCalendar, adminAuth...))
	mux.Handle("GET /api/v1/admin/consultations", chainMiddleware(server.AdminListConsultations, adminAuth...))
	mux.Handle("POST /api/v1/admin/consultations/{id}/status", chainMiddleware(server.AdminSetConsultationStatus, adminAuth...))
	mux.Handle("GET /api/v1/admin/courses", chainMiddleware(server.AdminListCourses, adminAuth...))
	mux.Handle("POST /api/v1/admin/courses", chainMiddleware(server.AdminCreateCourse, adminAuth...))
	mux.Handle("PUT /api/v1/admin/courses/{id}", chainMiddleware(server.AdminUpdateCourse, adminAuth...))
	mux.Handle("DELETE /api/v1/admin/courses/{id}", chainMiddleware(server.AdminDeleteCourse, adminAuth...))
	mux.Handle("POST /api/v1/admin/lessons", chainMiddleware(server.AdminCreateLesson, adminAuth...))
	mux.Handle("PUT /api/v1/admin/lessons/{id}", chainMiddleware(server.AdminUpdateLesson, adminAuth...))
	mux.Handle("DELETE /api/v1/admin/lessons/{id}", chainMiddleware(server.AdminDeleteLesson, adminAuth...))
	mux.Handle("GET /api/v1/admin/progress", chainMiddleware(server.AdminUserProgress, adminAuth...))
	mux.Handle("GET /api/v1/admin/audit", chainMiddleware(server.AdminListAuditLogs, adminAuth...))

	return mux
}

// chainMiddleware оборачивает обработчик в цепочку middleware, первый в
// списке — внешний
func chainMiddleware(handler http.HandlerFunc, middleware ...func(http.Handler) http.Handler) http.HandlerFunc {
	h := http.Handler(handler)
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	}
}
