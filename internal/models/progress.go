package models

import "time"

// Статусы прогресса по уроку. "skipped" — значение-заглушка для записи без
// одобренного ответа: схема не допускает пустого статуса.
const (
	ProgressCompleted = "completed"
	ProgressSkipped   = "skipped"
)

// UserProgress — единственная запись на пару (telegram_user_id, lesson_id).
// CompletedAt выставляется при первом одобрении и никогда не очищается,
// даже если последующая пересдача не одобрена ("ever approved" маркер).
type UserProgress struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	TelegramUserID int64      `gorm:"uniqueIndex:idx_user_lesson" json:"telegram_user_id"`
	LessonID       uint       `gorm:"uniqueIndex:idx_user_lesson" json:"lesson_id"`
	Status         string     `json:"status"`
	UserAnswer     string     `json:"user_answer"`
	PhotoURL       *string    `json:"photo_url,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Completed сообщает, одобрен ли текущий ответ
func (p *UserProgress) Completed() bool {
	return p != nil && p.Status == ProgressCompleted
}
