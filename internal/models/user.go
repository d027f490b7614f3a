package models

import "time"

// User — пользователь Mini App. Ключ во внешних потоках — Telegram ID,
// внутренние связи (enrollment) идут через ID.
type User struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	TelegramID  int64  `gorm:"uniqueIndex" json:"telegram_id"`
	FirstName   string `json:"first_name"`
	Username    string `json:"username"`
	CountryCode string `json:"country_code"`
	Currency    string `gorm:"default:RUB" json:"currency"`
	Balance     float64 `json:"balance"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AdminUser — учётная запись админ-панели
type AdminUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex" json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `gorm:"default:manager" json:"role"` // admin | manager
	CreatedAt    time.Time `json:"created_at"`
}
