package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/kurshub/miniapp-backend/internal/db"
	"github.com/kurshub/miniapp-backend/internal/models"
)

// Действия, фиксируемые в журнале
const (
	ActionSlotCreate         = "slot.create"
	ActionSlotUpdate         = "slot.update"
	ActionSlotDelete         = "slot.delete"
	ActionConsultationStatus = "consultation.status"
	ActionConsultationCancel = "consultation.cancel"
	ActionCourseCreate       = "course.create"
	ActionCourseUpdate       = "course.update"
	ActionCourseDelete       = "course.delete"
	ActionLessonCreate       = "lesson.create"
	ActionLessonUpdate       = "lesson.update"
	ActionLessonDelete       = "lesson.delete"
	ActionAdminLogin         = "admin.login"
)

// Service coordinates audit logging and retrieval
// It ensures consistent defaults and shields handlers from storage specifics
type Service struct {
	db  db.Database
	log *slog.Logger
}

// NewService builds an audit service instance
func NewService(database db.Database, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: database, log: log}
}

// Record captures runtime context of an admin action
type Record struct {
	AdminID  uint
	Action   string
	Entity   string
	EntityID uint
	Details  map[string]any
}

// LogAction stores audit record synchronously. Сбой записи журнала не должен
// ронять действие админа, поэтому вызывающие обычно игнорируют ошибку,
// а сюда она попадает в лог
func (s *Service) LogAction(ctx context.Context, record Record) error {
	if record.Action == "" {
		return errors.New("action is required")
	}

	entry := &models.AuditLog{
		AdminID:  record.AdminID,
		Action:   record.Action,
		Entity:   record.Entity,
		EntityID: record.EntityID,
	}
	if len(record.Details) > 0 {
		data, err := json.Marshal(record.Details)
		if err != nil {
			s.log.Warn("failed to marshal audit details", "action", record.Action, "error", err)
		} else {
			entry.Details = datatypes.JSON(data)
		}
	}

	if err := s.db.InsertAuditLog(ctx, entry); err != nil {
		s.log.Error("failed to write audit log", "action", record.Action, "error", err)
		return err
	}
	return nil
}

// List возвращает страницу журнала, новые записи сверху
func (s *Service) List(ctx context.Context, limit, offset int) ([]models.AuditLog, error) {
	return s.db.ListAuditLogs(ctx, limit, offset)
}
