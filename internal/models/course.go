package models

import "time"

// Course (Курс)
type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Price       float64   `json:"price"`
	Currency    string    `gorm:"default:RUB" json:"currency"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Lessons []Lesson `gorm:"constraint:OnDelete:CASCADE;" json:"lessons,omitempty"`
}

// Lesson (Урок). OrderIndex задаёт последовательность разблокировки.
type Lesson struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CourseID         uint      `gorm:"index" json:"course_id"`
	OrderIndex       int       `gorm:"index" json:"order_index"`
	Title            string    `json:"title"`
	Description      string    `json:"lesson_description"`
	Content          string    `json:"content"`
	Question         string    `json:"question"`
	VideoDescription string    `json:"video_description"`
	KinescopeVideoID string    `json:"kinescope_video_id"`
	AllowPhotoUpload bool      `json:"allow_photo_upload"`
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`

	Sessions []LessonSession `gorm:"constraint:OnDelete:CASCADE;" json:"sessions,omitempty"`
}

// LessonSession — занятие внутри урока (дополнительные блоки контента)
type LessonSession struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	LessonID   uint   `gorm:"index" json:"lesson_id"`
	OrderIndex int    `json:"order_index"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

// Статусы записи на курс
const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
)

// Enrollment — запись пользователя на курс. Бизнес-правило: не более одной
// активной записи на пользователя одновременно (контролируется start_course).
type Enrollment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"index" json:"user_id"`
	CourseID    uint       `gorm:"index" json:"course_id"`
	Status      string     `gorm:"default:active" json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
