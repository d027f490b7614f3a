// Package mocks содержит мок Database для юнит-тестов сервисов
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kurshub/miniapp-backend/internal/models"
)

// Database — testify-мок интерфейса db.Database
type Database struct {
	mock.Mock
}

func (m *Database) Initialize(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *Database) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *Database) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *Database) UpsertUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *Database) GetAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminUser), args.Error(1)
}

func (m *Database) GetAdminByID(ctx context.Context, adminID uint) (*models.AdminUser, error) {
	args := m.Called(ctx, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminUser), args.Error(1)
}

func (m *Database) CreateAdmin(ctx context.Context, admin *models.AdminUser) error {
	args := m.Called(ctx, admin)
	return args.Error(0)
}

func (m *Database) ListPublishedCourses(ctx context.Context) ([]models.Course, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Course), args.Error(1)
}

func (m *Database) ListAllCourses(ctx context.Context) ([]models.Course, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Course), args.Error(1)
}

func (m *Database) CreateCourse(ctx context.Context, course *models.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *Database) UpdateCourse(ctx context.Context, course *models.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *Database) DeleteCourse(ctx context.Context, courseID uint) error {
	args := m.Called(ctx, courseID)
	return args.Error(0)
}

func (m *Database) GetCourse(ctx context.Context, courseID uint) (*models.Course, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Course), args.Error(1)
}

func (m *Database) ListCourseLessons(ctx context.Context, courseID uint) ([]models.Lesson, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Lesson), args.Error(1)
}

func (m *Database) GetLesson(ctx context.Context, lessonID uint) (*models.Lesson, error) {
	args := m.Called(ctx, lessonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lesson), args.Error(1)
}

func (m *Database) CreateLesson(ctx context.Context, lesson *models.Lesson) error {
	args := m.Called(ctx, lesson)
	return args.Error(0)
}

func (m *Database) UpdateLesson(ctx context.Context, lesson *models.Lesson) error {
	args := m.Called(ctx, lesson)
	return args.Error(0)
}

func (m *Database) DeleteLesson(ctx context.Context, lessonID uint) error {
	args := m.Called(ctx, lessonID)
	return args.Error(0)
}

func (m *Database) GetActiveEnrollment(ctx context.Context, userID uint) (*models.Enrollment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enrollment), args.Error(1)
}

func (m *Database) GetEnrollment(ctx context.Context, userID, courseID uint) (*models.Enrollment, error) {
	args := m.Called(ctx, userID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enrollment), args.Error(1)
}

func (m *Database) ListEnrollments(ctx context.Context, userID uint) ([]models.Enrollment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Enrollment), args.Error(1)
}

func (m *Database) CompleteEnrollment(ctx context.Context, enrollmentID uint, completedAt time.Time) error {
	args := m.Called(ctx, enrollmentID, completedAt)
	return args.Error(0)
}

func (m *Database) StartCourseTx(ctx context.Context, userID uint, courseID uint, price float64) (*models.Enrollment, error) {
	args := m.Called(ctx, userID, courseID, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Enrollment), args.Error(1)
}

func (m *Database) GetProgress(ctx context.Context, telegramUserID int64, lessonID uint) (*models.UserProgress, error) {
	args := m.Called(ctx, telegramUserID, lessonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProgress), args.Error(1)
}

func (m *Database) ListProgress(ctx context.Context, telegramUserID int64, lessonIDs []uint) ([]models.UserProgress, error) {
	args := m.Called(ctx, telegramUserID, lessonIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserProgress), args.Error(1)
}

func (m *Database) ListUserProgress(ctx context.Context, telegramUserID int64) ([]models.UserProgress, error) {
	args := m.Called(ctx, telegramUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserProgress), args.Error(1)
}

func (m *Database) UpsertProgress(ctx context.Context, progress *models.UserProgress) error {
	args := m.Called(ctx, progress)
	return args.Error(0)
}

func (m *Database) ListSlotsByDate(ctx context.Context, date string) ([]models.ConsultationSlot, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConsultationSlot), args.Error(1)
}

func (m *Database) ListSlotsInRange(ctx context.Context, fromDate, toDate string) ([]models.ConsultationSlot, error) {
	args := m.Called(ctx, fromDate, toDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConsultationSlot), args.Error(1)
}

func (m *Database) CreateSlot(ctx context.Context, slot *models.ConsultationSlot) error {
	args := m.Called(ctx, slot)
	return args.Error(0)
}

func (m *Database) UpdateSlot(ctx context.Context, slot *models.ConsultationSlot) error {
	args := m.Called(ctx, slot)
	return args.Error(0)
}

func (m *Database) DeleteSlot(ctx context.Context, slotID uint) error {
	args := m.Called(ctx, slotID)
	return args.Error(0)
}

func (m *Database) GetConsultation(ctx context.Context, consultationID uint) (*models.Consultation, error) {
	args := m.Called(ctx, consultationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Consultation), args.Error(1)
}

func (m *Database) ListActiveConsultationsByDate(ctx context.Context, date string) ([]models.Consultation, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Consultation), args.Error(1)
}

func (m *Database) ListActiveConsultationsInRange(ctx context.Context, fromDate, toDate string) ([]models.Consultation, error) {
	args := m.Called(ctx, fromDate, toDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Consultation), args.Error(1)
}

func (m *Database) ListUserConsultations(ctx context.Context, telegramUserID int64) ([]models.Consultation, error) {
	args := m.Called(ctx, telegramUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Consultation), args.Error(1)
}

func (m *Database) ListConsultations(ctx context.Context, status, date string) ([]models.Consultation, error) {
	args := m.Called(ctx, status, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Consultation), args.Error(1)
}

func (m *Database) UpdateConsultationStatus(ctx context.Context, consultationID uint, status string) error {
	args := m.Called(ctx, consultationID, status)
	return args.Error(0)
}

func (m *Database) ListConfirmedConsultationsByDate(ctx context.Context, date string) ([]models.Consultation, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Consultation), args.Error(1)
}

func (m *Database) CompletePastConsultations(ctx context.Context, now time.Time, loc *time.Location) (int64, error) {
	args := m.Called(ctx, now, loc)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Database) CreateConsultationTx(ctx context.Context, userID uint, total float64, consultation *models.Consultation) error {
	args := m.Called(ctx, userID, total, consultation)
	return args.Error(0)
}

func (m *Database) CancelConsultationTx(ctx context.Context, consultation *models.Consultation, refund bool) error {
	args := m.Called(ctx, consultation, refund)
	return args.Error(0)
}

func (m *Database) ListConsultationPrices(ctx context.Context) ([]models.ConsultationPrice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConsultationPrice), args.Error(1)
}

func (m *Database) GetConsultationPrice(ctx context.Context, quantity int) (*models.ConsultationPrice, error) {
	args := m.Called(ctx, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConsultationPrice), args.Error(1)
}

func (m *Database) InsertAuditLog(ctx context.Context, entry *models.AuditLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *Database) ListAuditLogs(ctx context.Context, limit, offset int) ([]models.AuditLog, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AuditLog), args.Error(1)
}
