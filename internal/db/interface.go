package db

import (
	"context"
	"time"

	"github.com/kurshub/miniapp-backend/internal/models"
)

// Database определяет интерфейс для работы с базой данных
type Database interface {
	Initialize(ctx context.Context) error
	Close() error

	// Пользователи мини-аппа
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) error

	// Администраторы
	GetAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	GetAdminByID(ctx context.Context, adminID uint) (*models.AdminUser, error)
	CreateAdmin(ctx context.Context, admin *models.AdminUser) error

	// Курсы и уроки
	ListPublishedCourses(ctx context.Context) ([]models.Course, error)
	ListAllCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, courseID uint) (*models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	UpdateCourse(ctx context.Context, course *models.Course) error
	DeleteCourse(ctx context.Context, courseID uint) error
	ListCourseLessons(ctx context.Context, courseID uint) ([]models.Lesson, error)
	GetLesson(ctx context.Context, lessonID uint) (*models.Lesson, error)
	CreateLesson(ctx context.Context, lesson *models.Lesson) error
	UpdateLesson(ctx context.Context, lesson *models.Lesson) error
	DeleteLesson(ctx context.Context, lessonID uint) error

	// Записи на курсы. GetActiveEnrollment возвращает (nil, nil), если
	// активной записи нет
	GetActiveEnrollment(ctx context.Context, userID uint) (*models.Enrollment, error)
	GetEnrollment(ctx context.Context, userID, courseID uint) (*models.Enrollment, error)
	ListEnrollments(ctx context.Context, userID uint) ([]models.Enrollment, error)
	CompleteEnrollment(ctx context.Context, enrollmentID uint, completedAt time.Time) error

	// Транзакционное начало курса: проверка отсутствия активной записи,
	// списание с баланса и вставка записи одним коммитом
	StartCourseTx(ctx context.Context, userID uint, courseID uint, price float64) (*models.Enrollment, error)

	// Прогресс по урокам. GetProgress возвращает (nil, nil), если записи нет
	GetProgress(ctx context.Context, telegramUserID int64, lessonID uint) (*models.UserProgress, error)
	ListProgress(ctx context.Context, telegramUserID int64, lessonIDs []uint) ([]models.UserProgress, error)
	ListUserProgress(ctx context.Context, telegramUserID int64) ([]models.UserProgress, error)
	UpsertProgress(ctx context.Context, progress *models.UserProgress) error

	// Слоты доступности консультаций
	ListSlotsByDate(ctx context.Context, date string) ([]models.ConsultationSlot, error)
	ListSlotsInRange(ctx context.Context, fromDate, toDate string) ([]models.ConsultationSlot, error)
	CreateSlot(ctx context.Context, slot *models.ConsultationSlot) error
	UpdateSlot(ctx context.Context, slot *models.ConsultationSlot) error
	DeleteSlot(ctx context.Context, slotID uint) error

	// Консультации
	GetConsultation(ctx context.Context, consultationID uint) (*models.Consultation, error)
	ListActiveConsultationsByDate(ctx context.Context, date string) ([]models.Consultation, error)
	ListActiveConsultationsInRange(ctx context.Context, fromDate, toDate string) ([]models.Consultation, error)
	ListUserConsultations(ctx context.Context, telegramUserID int64) ([]models.Consultation, error)
	ListConsultations(ctx context.Context, status, date string) ([]models.Consultation, error)
	UpdateConsultationStatus(ctx context.Context, consultationID uint, status string) error
	ListConfirmedConsultationsByDate(ctx context.Context, date string) ([]models.Consultation, error)
	CompletePastConsultations(ctx context.Context, now time.Time, loc *time.Location) (int64, error)

	// Транзакционное бронирование: повторная проверка занятости слота и
	// баланса под блокировкой, списание и вставка одним коммитом
	CreateConsultationTx(ctx context.Context, userID uint, total float64, consultation *models.Consultation) error
	// Транзакционная отмена: возврат средств (если refund) и смена статуса
	CancelConsultationTx(ctx context.Context, consultation *models.Consultation, refund bool) error

	// Цены пакетов консультаций
	ListConsultationPrices(ctx context.Context) ([]models.ConsultationPrice, error)
	GetConsultationPrice(ctx context.Context, quantity int) (*models.ConsultationPrice, error)

	// Журнал действий администраторов
	InsertAuditLog(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, limit, offset int) ([]models.AuditLog, error)
}
