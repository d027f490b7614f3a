package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/kurshub/miniapp-backend/internal/apperrors"
	"github.com/kurshub/miniapp-backend/internal/models"
	"github.com/kurshub/miniapp-backend/internal/schedule"
)

// GormDatabase реализует Database поверх Postgres через GORM
type GormDatabase struct {
	db *gorm.DB
}

func NewGormDatabase(dsn string) (*GormDatabase, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &GormDatabase{db: gdb}, nil
}

// Initialize прогоняет автомиграцию схемы
func (g *GormDatabase) Initialize(ctx context.Context) error {
	return g.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.AdminUser{},
		&models.Course{},
		&models.Lesson{},
		&models.LessonSession{},
		&models.Enrollment{},
		&models.UserProgress{},
		&models.Consultation{},
		&models.ConsultationSlot{},
		&models.ConsultationPrice{},
		&models.AuditLog{},
	)
}

func (g *GormDatabase) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Пользователи

func (g *GormDatabase) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	err := g.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %d", apperrors.ErrNotFound, telegramID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return &user, nil
}

// UpsertUser создает пользователя при первом входе и обновляет профиль при
// последующих. Баланс при обновлении не трогаем
func (g *GormDatabase) UpsertUser(ctx context.Context, user *models.User) error {
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "username", "currency", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// Администраторы

func (g *GormDatabase) GetAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := g.db.WithContext(ctx).Where("email = ?", email).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: admin %s", apperrors.ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return &admin, nil
}

func (g *GormDatabase) GetAdminByID(ctx context.Context, adminID uint) (*models.AdminUser, error) {
	var admin models.AdminUser
	err := g.db.WithContext(ctx).First(&admin, adminID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: admin %d", apperrors.ErrNotFound, adminID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return &admin, nil
}

func (g *GormDatabase) CreateAdmin(ctx context.Context, admin *models.AdminUser) error {
	if err := g.db.WithContext(ctx).Create(admin).Error; err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// Курсы и уроки

func (g *GormDatabase) ListPublishedCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := g.db.WithContext(ctx).Where("is_published = ?", true).Order("id").Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return courses, nil
}

func (g *GormDatabase) GetCourse(ctx context.Context, courseID uint) (*models.Course, error) {
	var course models.Course
	err := g.db.WithContext(ctx).First(&course, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: course %d", apperrors.ErrNotFound, courseID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return &course, nil
}

func (g *GormDatabase) ListAllCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := g.db.WithContext(ctx).Order("id").Find(&courses).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return courses, nil
}

func (g *GormDatabase) CreateCourse(ctx context.Context, course *models.Course) error {
	if err := g.db.WithContext(ctx).Create(course).Error; err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

func (g *GormDatabase) UpdateCourse(ctx context.Context, course *models.Course) error {
	res := g.db.WithContext(ctx).Model(&models.Course{}).
		Where("id = ?", course.ID).
		Updates(map[string]any{
			"title":        course.Title,
			"description":  course.Description,
			"image_url":    course.ImageURL,
			"price":        course.Price,
			"currency":     course.Currency,
			"is_published": course.IsPublished,
		})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: course %d", apperrors.ErrNotFound, course.ID)
	}
	return nil
}

func (g *GormDatabase) DeleteCourse(ctx context.Context, courseID uint) error {
	res := g.db.WithContext(ctx).Select(clause.Associations).Delete(&models.Course{ID: courseID})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: course %d", apperrors.ErrNotFound, courseID)
	}
	return nil
}

func (g *GormDatabase) ListCourseLessons(ctx context.Context, courseID uint) ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := g.db.WithContext(ctx).Where("course_id = ?", courseID).Order("order_index").Find(&lessons).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return lessons, nil
}

func (g *GormDatabase) GetLesson(ctx context.Context, lessonID uint) (*models.Lesson, error) {
	var lesson models.Lesson
	err := g.db.WithContext(ctx).Preload("Sessions", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("order_index")
	}).First(&lesson, lessonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: lesson %d", apperrors.ErrNotFound, lessonID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return &lesson, nil
}

func (g *GormDatabase) CreateLesson(ctx context.Context, lesson *models.Lesson) error {
	if err := g.db.WithContext(ctx).Create(lesson).Error; err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

func (g *GormDatabase) UpdateLesson(ctx context.Context, lesson *models.Lesson) error {
	res := g.db.WithContext(ctx).Model(&models.Lesson{}).
		Where("id = ?", lesson.ID).
		Updates(map[string]any{
			"course_id":          lesson.CourseID,
			"order_index":        lesson.OrderIndex,
			"title":              lesson.Title,
			"description":        lesson.Description,
			"content":            lesson.Content,
			"question":           lesson.Question,
			"video_description":  lesson.VideoDescription,
			"kinescope_video_id": lesson.KinescopeVideoID,
			"allow_photo_upload": lesson.AllowPhotoUpload,
		})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: lesson %d", apperrors.ErrNotFound, lesson.ID)
	}
	return nil
}

func (g *GormDatabase) DeleteLesson(ctx context.Context, lessonID uint) error {
	res := g.db.WithContext(ctx).Select(clause.Associations).Delete(&models.Lesson{ID: lessonID})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: lesson %d", apperrors.ErrNotFound, lessonID)
	}
	return nil
}

// Записи на курсы

func (g *GormDatabase) GetActiveEnrollment(ctx context.Context, userID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := g.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.EnrollmentActive).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return &enrollment, nil
}

func (g *GormDatabase) GetEnrollment(ctx context.Context, userID, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := g.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("started_at DESC").
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return &enrollment, nil
}

func (g *GormDatabase) ListEnrollments(ctx context.Context, userID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := g.db.WithContext(ctx).Where("user_id = ?", userID).Order("started_at DESC").Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return enrollments, nil
}

func (g *GormDatabase) CompleteEnrollment(ctx context.Context, enrollmentID uint, completedAt time.Time) error {
	err := g.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("id = ? AND status = ?", enrollmentID, models.EnrollmentActive).
		Updates(map[string]any{"status": models.EnrollmentCompleted, "completed_at": completedAt}).Error
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

func (g *GormDatabase) StartCourseTx(ctx context.Context, userID uint, courseID uint, price float64) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			return fmt.Errorf("%w: user %d", apperrors.ErrNotFound, userID)
		}

		var active int64
		if err := tx.Model(&models.Enrollment{}).
			Where("user_id = ? AND status = ?", userID, models.EnrollmentActive).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return apperrors.ErrActiveEnrollment
		}

		if user.Balance < price {
			return apperrors.ErrInsufficientBalance
		}
		if price > 0 {
			if err := tx.Model(&user).Update("balance", gorm.Expr("balance - ?", price)).Error; err != nil {
				return err
			}
		}

		enrollment = models.Enrollment{
			UserID:    userID,
			CourseID:  courseID,
			Status:    models.EnrollmentActive,
			StartedAt: time.Now(),
		}
		return tx.Create(&enrollment).Error
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrActiveEnrollment) ||
			errors.Is(err, apperrors.ErrInsufficientBalance) ||
			errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return &enrollment, nil
}

// Прогресс

func (g *GormDatabase) GetProgress(ctx context.Context, telegramUserID int64, lessonID uint) (*models.UserProgress, error) {
	var progress models.UserProgress
	err := g.db.WithContext(ctx).
		Where("telegram_user_id = ? AND lesson_id = ?", telegramUserID, lessonID).
		First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return &progress, nil
}

func (g *GormDatabase) ListProgress(ctx context.Context, telegramUserID int64, lessonIDs []uint) ([]models.UserProgress, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}
	var rows []models.UserProgress
	err := g.db.WithContext(ctx).
		Where("telegram_user_id = ? AND lesson_id IN ?", telegramUserID, lessonIDs).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return rows, nil
}

func (g *GormDatabase) ListUserProgress(ctx context.Context, telegramUserID int64) ([]models.UserProgress, error) {
	var rows []models.UserProgress
	err := g.db.WithContext(ctx).
		Where("telegram_user_id = ?", telegramUserID).
		Order("lesson_id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return rows, nil
}

// UpsertProgress пишет ровно одну строку на пару (telegram_user_id, lesson_id).
// Уникальный индекс делает операцию безопасной при одновременной двойной
// отправке одного ответа: вторая вставка превращается в UPDATE
func (g *GormDatabase) UpsertProgress(ctx context.Context, progress *models.UserProgress) error {
	err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "telegram_user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "user_answer", "photo_url", "completed_at", "updated_at"}),
	}).Create(progress).Error
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// Слоты

func (g *GormDatabase) ListSlotsByDate(ctx context.Context, date string) ([]models.ConsultationSlot, error) {
	var slots []models.ConsultationSlot
	err := g.db.WithContext(ctx).Where("date = ?", date).Order("start_time").Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return slots, nil
}

func (g *GormDatabase) ListSlotsInRange(ctx context.Context, fromDate, toDate string) ([]models.ConsultationSlot, error) {
	var slots []models.ConsultationSlot
	err := g.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", fromDate, toDate).
		Order("date, start_time").Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return slots, nil
}

func (g *GormDatabase) CreateSlot(ctx context.Context, slot *models.ConsultationSlot) error {
	if err := g.db.WithContext(ctx).Create(slot).Error; err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

func (g *GormDatabase) UpdateSlot(ctx context.Context, slot *models.ConsultationSlot) error {
	res := g.db.WithContext(ctx).Model(&models.ConsultationSlot{}).
		Where("id = ?", slot.ID).
		Updates(map[string]any{
			"date":         slot.Date,
			"start_time":   slot.StartTime,
			"end_time":     slot.EndTime,
			"is_available": slot.IsAvailable,
		})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: slot %d", apperrors.ErrNotFound, slot.ID)
	}
	return nil
}

func (g *GormDatabase) DeleteSlot(ctx context.Context, slotID uint) error {
	res := g.db.WithContext(ctx).Delete(&models.ConsultationSlot{}, slotID)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: slot %d", apperrors.ErrNotFound, slotID)
	}
	return nil
}

// Консультации

func (g *GormDatabase) GetConsultation(ctx context.Context, consultationID uint) (*models.Consultation, error) {
	var c models.Consultation
	err := g.db.WithContext(ctx).First(&c, consultationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: consultation %d", apperrors.ErrNotFound, consultationID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return &c, nil
}

func (g *GormDatabase) ListActiveConsultationsByDate(ctx context.Context, date string) ([]models.Consultation, error) {
	var list []models.Consultation
	err := g.db.WithContext(ctx).
		Where("date = ? AND status IN ?", date, models.ActiveConsultationStatuses).
		Order("time").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return list, nil
}

func (g *GormDatabase) ListActiveConsultationsInRange(ctx context.Context, fromDate, toDate string) ([]models.Consultation, error) {
	var list []models.Consultation
	err := g.db.WithContext(ctx).
		Where("date >= ? AND date <= ? AND status IN ?", fromDate, toDate, models.ActiveConsultationStatuses).
		Order("date, time").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return list, nil
}

func (g *GormDatabase) ListUserConsultations(ctx context.Context, telegramUserID int64) ([]models.Consultation, error) {
	var list []models.Consultation
	err := g.db.WithContext(ctx).
		Where("telegram_user_id = ?", telegramUserID).
		Order("date DESC, time DESC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return list, nil
}

func (g *GormDatabase) ListConsultations(ctx context.Context, status, date string) ([]models.Consultation, error) {
	q := g.db.WithContext(ctx).Model(&models.Consultation{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if date != "" {
		q = q.Where("date = ?", date)
	}
	var list []models.Consultation
	if err := q.Order("date DESC, time DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return list, nil
}

func (g *GormDatabase) UpdateConsultationStatus(ctx context.Context, consultationID uint, status string) error {
	res := g.db.WithContext(ctx).Model(&models.Consultation{}).
		Where("id = ?", consultationID).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: consultation %d", apperrors.ErrNotFound, consultationID)
	}
	return nil
}

func (g *GormDatabase) ListConfirmedConsultationsByDate(ctx context.Context, date string) ([]models.Consultation, error) {
	var list []models.Consultation
	err := g.db.WithContext(ctx).
		Where("date = ? AND status = ?", date, models.ConsultationConfirmed).
		Order("time").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return list, nil
}

// CompletePastConsultations переводит прошедшие подтвержденные консультации
// в completed. Даты и времена хранятся строками "2006-01-02"/"15:04", они
// сравниваются лексикографически корректно
func (g *GormDatabase) CompletePastConsultations(ctx context.Context, now time.Time, loc *time.Location) (int64, error) {
	local := now.In(loc)
	today := local.Format("2006-01-02")
	cutoff := local.Format("15:04")

	res := g.db.WithContext(ctx).Model(&models.Consultation{}).
		Where("status = ? AND (date < ? OR (date = ? AND time < ?))", models.ConsultationConfirmed, today, today, cutoff).
		Update("status", models.ConsultationCompleted)
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", apperrors.ErrPersistence, res.Error)
	}
	return res.RowsAffected, nil
}

// CreateConsultationTx выполняет бронирование атомарно. Брони на одну дату
// сериализуются advisory-блокировкой по дате: блокировка строк пользователей
// не защищает от гонки двух РАЗНЫХ пользователей за один слот (каждый держит
// свою строку и не видит незакоммиченную вставку соперника), а уникальный
// индекс не умеет выражать буфер ±час. Под блокировкой повторно проверяется
// занятость слота и достаточность баланса, затем списание и вставка.
// Проигравший гонку запрос получает ErrSlotTaken, а не общую ошибку
func (g *GormDatabase) CreateConsultationTx(ctx context.Context, userID uint, total float64, consultation *models.Consultation) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Блокировка снимается автоматически на commit/rollback
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", consultation.Date).Error; err != nil {
			return err
		}

		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
			return fmt.Errorf("%w: user %d", apperrors.ErrNotFound, userID)
		}

		requested, err := schedule.ParseTimeOfDay(consultation.Time)
		if err != nil {
			return err
		}

		var active []models.Consultation
		if err := tx.
			Where("date = ? AND status IN ?", consultation.Date, models.ActiveConsultationStatuses).
			Find(&active).Error; err != nil {
			return err
		}
		booked := make([]schedule.TimeOfDay, 0, len(active))
		for _, c := range active {
			t, err := schedule.ParseTimeOfDay(c.Time)
			if err != nil {
				continue
			}
			booked = append(booked, t)
		}
		for _, b := range booked {
			d := int(requested) - int(b)
			if d < 0 {
				d = -d
			}
			if d <= schedule.BookingBufferMinutes {
				return apperrors.ErrSlotTaken
			}
		}

		if user.Balance < total {
			return apperrors.ErrInsufficientBalance
		}
		if err := tx.Model(&user).Update("balance", gorm.Expr("balance - ?", total)).Error; err != nil {
			return err
		}

		return tx.Create(consultation).Error
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrSlotTaken) ||
			errors.Is(err, apperrors.ErrInsufficientBalance) ||
			errors.Is(err, apperrors.ErrValidation) ||
			errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

func (g *GormDatabase) CancelConsultationTx(ctx context.Context, consultation *models.Consultation, refund bool) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Consultation{}).
			Where("id = ? AND status IN ?", consultation.ID, models.ActiveConsultationStatuses).
			Update("status", models.ConsultationCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: consultation %d", apperrors.ErrNotFound, consultation.ID)
		}

		if refund {
			total := consultation.Price * float64(consultation.Quantity)
			if err := tx.Model(&models.User{}).
				Where("telegram_id = ?", consultation.TelegramUserID).
				Update("balance", gorm.Expr("balance + ?", total)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

// Цены

func (g *GormDatabase) ListConsultationPrices(ctx context.Context) ([]models.ConsultationPrice, error) {
	var prices []models.ConsultationPrice
	err := g.db.WithContext(ctx).Order("quantity").Find(&prices).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return prices, nil
}

func (g *GormDatabase) GetConsultationPrice(ctx context.Context, quantity int) (*models.ConsultationPrice, error) {
	var price models.ConsultationPrice
	err := g.db.WithContext(ctx).Where("quantity = ?", quantity).First(&price).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: price for quantity %d", apperrors.ErrNotFound, quantity)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return &price, nil
}

// Журнал

func (g *GormDatabase) InsertAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if err := g.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return nil
}

func (g *GormDatabase) ListAuditLogs(ctx context.Context, limit, offset int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var logs []models.AuditLog
	err := g.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset).Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	return logs, nil
}
