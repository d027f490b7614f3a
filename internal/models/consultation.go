package models

import "time"

// Форматы и статусы консультаций
const (
	FormatZoom     = "Zoom"
	FormatTelegram = "Telegram"

	ConsultationPending   = "pending"
	ConsultationConfirmed = "confirmed"
	ConsultationCompleted = "completed"
	ConsultationCancelled = "cancelled"
)

// ActiveConsultationStatuses — статусы, при которых бронь занимает слот.
// Отменённые и проведённые консультации слот не блокируют.
var ActiveConsultationStatuses = []string{ConsultationPending, ConsultationConfirmed}

// Consultation — бронь консультации. Date в формате "2006-01-02",
// Time в формате "15:04"; арифметика по часам живёт в пакете schedule.
type Consultation struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TelegramUserID int64     `gorm:"index" json:"telegram_user_id"`
	Format         string    `json:"format"`
	Date           string    `gorm:"index:idx_consultation_slot" json:"consultation_date"`
	Time           string    `gorm:"index:idx_consultation_slot" json:"consultation_time"`
	Quantity       int       `json:"quantity"`
	Price          float64   `json:"price"`
	Currency       string    `json:"currency"`
	Comment        *string   `json:"comment,omitempty"`
	Status         string    `gorm:"default:pending" json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StartsAt собирает дату и время начала в указанной таймзоне
func (c *Consultation) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", c.Date+" "+c.Time, loc)
}

// ConsultationSlot — объявленное админом окно доступности на дату.
// Времена в формате "15:04"; инвариант StartTime < EndTime.
type ConsultationSlot struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Date        string    `gorm:"index" json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	IsAvailable bool      `gorm:"default:true" json:"is_available"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// ConsultationPrice — цена за одну консультацию при покупке пакета Quantity
// штук. Валюты без своей колонки считаются от рубля (см. пакет currency).
type ConsultationPrice struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	Quantity int      `gorm:"uniqueIndex" json:"quantity"`
	PriceRUB float64  `json:"price_rub"`
	PriceUSD *float64 `json:"price_usd,omitempty"`
	PriceEUR *float64 `json:"price_eur,omitempty"`
	PriceUAH *float64 `json:"price_uah,omitempty"`
}
