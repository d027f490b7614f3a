package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kurshub/miniapp-backend/internal/apperrors"
	"github.com/kurshub/miniapp-backend/internal/currency"
	"github.com/kurshub/miniapp-backend/internal/db"
	"github.com/kurshub/miniapp-backend/internal/models"
	"github.com/kurshub/miniapp-backend/internal/schedule"
	"github.com/kurshub/miniapp-backend/internal/telegram"
)

// CancelWindow — за сколько до начала пользователь еще может отменить бронь
// сам. Позже отменяет только админ
const CancelWindow = 24 * time.Hour

// BookRequest — заявка пользователя на бронирование
type BookRequest struct {
	Format   string  `json:"format"`
	Date     string  `json:"consultation_date"`
	Time     string  `json:"consultation_time"`
	Quantity int     `json:"quantity"`
	Comment  *string `json:"comment,omitempty"`
}

// HourInfo — статус одного часа в админском календаре дня
type HourInfo struct {
	Hour   int    `json:"hour"`
	Status string `json:"status"`
}

type Service struct {
	db     db.Database
	tg     *telegram.Client
	logger *slog.Logger
	step   int
	loc    *time.Location
}

func NewService(database db.Database, tg *telegram.Client, logger *slog.Logger, stepMinutes int, loc *time.Location) *Service {
	if stepMinutes <= 0 {
		stepMinutes = schedule.DefaultStepMinutes
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{db: database, tg: tg, logger: logger, step: stepMinutes, loc: loc}
}

// AvailableTimes возвращает свободные времена начала на дату в формате "15:04"
func (s *Service) AvailableTimes(ctx context.Context, date string) ([]string, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	windows, bookings, err := s.dayState(ctx, date)
	if err != nil {
		return nil, err
	}

	available := schedule.ComputeAvailableTimes(windows, bookings, s.step)
	result := make([]string, 0, len(available))
	for _, t := range available {
		result = append(result, t.String())
	}
	return result, nil
}

// DaysWithSlots возвращает даты диапазона, где есть хоть одно свободное время.
// Календарь на фронте подсвечивает только такие дни
func (s *Service) DaysWithSlots(ctx context.Context, fromDate, toDate string) ([]string, error) {
	if err := validateDate(fromDate); err != nil {
		return nil, err
	}
	if err := validateDate(toDate); err != nil {
		return nil, err
	}

	slots, err := s.db.ListSlotsInRange(ctx, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	consultations, err := s.db.ListActiveConsultationsInRange(ctx, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	windowsByDate := make(map[string][]schedule.Window)
	for _, slot := range slots {
		if !slot.IsAvailable {
			continue
		}
		w, err := slotWindow(slot)
		if err != nil {
			s.logger.Warn("skipping malformed slot", "slot_id", slot.ID, "error", err)
			continue
		}
		windowsByDate[slot.Date] = append(windowsByDate[slot.Date], w)
	}
	bookingsByDate := make(map[string][]schedule.TimeOfDay)
	for _, c := range consultations {
		t, err := schedule.ParseTimeOfDay(c.Time)
		if err != nil {
			continue
		}
		bookingsByDate[c.Date] = append(bookingsByDate[c.Date], t)
	}

	var days []string
	for date := fromDate; date <= toDate; date = nextDate(date) {
		if len(schedule.ComputeAvailableTimes(windowsByDate[date], bookingsByDate[date], s.step)) > 0 {
			days = append(days, date)
		}
	}
	return days, nil
}

// Prices возвращает пакеты консультаций с ценой в валюте пользователя
func (s *Service) Prices(ctx context.Context, userCurrency string) ([]models.ConsultationPrice, map[int]float64, error) {
	prices, err := s.db.ListConsultationPrices(ctx)
	if err != nil {
		return nil, nil, err
	}
	converted := make(map[int]float64, len(prices))
	for _, p := range prices {
		converted[p.Quantity] = currency.PriceFor(p, userCurrency)
	}
	return prices, converted, nil
}

// Book бронирует консультацию. Доступность считается заранее как подсказка,
// решающая проверка занятости и баланса происходит в транзакции вставки:
// выдача калькулятора — не резерв
func (s *Service) Book(ctx context.Context, user *models.User, req BookRequest) (*models.Consultation, error) {
	if user == nil {
		return nil, fmt.Errorf("%w: no user", apperrors.ErrAuthentication)
	}
	if err := s.validateBookRequest(req); err != nil {
		return nil, err
	}

	windows, bookings, err := s.dayState(ctx, req.Date)
	if err != nil {
		return nil, err
	}
	requested, err := schedule.ParseTimeOfDay(req.Time)
	if err != nil {
		return nil, err
	}
	if !containsTime(schedule.ComputeAvailableTimes(windows, bookings, s.step), requested) {
		return nil, fmt.Errorf("%w: %s %s", apperrors.ErrSlotTaken, req.Date, req.Time)
	}

	priceRow, err := s.db.GetConsultationPrice(ctx, req.Quantity)
	if err != nil {
		return nil, err
	}
	price := currency.PriceFor(*priceRow, user.Currency)
	total := price * float64(req.Quantity)
	if user.Balance < total {
		return nil, fmt.Errorf("%w: need %s", apperrors.ErrInsufficientBalance, currency.Format(total, user.Currency))
	}

	consultation := &models.Consultation{
		TelegramUserID: user.TelegramID,
		Format:         req.Format,
		Date:           req.Date,
		Time:           req.Time,
		Quantity:       req.Quantity,
		Price:          price,
		Currency:       user.Currency,
		Comment:        req.Comment,
		Status:         models.ConsultationPending,
	}
	if err := s.db.CreateConsultationTx(ctx, user.ID, total, consultation); err != nil {
		return nil, err
	}

	s.notify(user.TelegramID, fmt.Sprintf("Заявка на консультацию %s в %s принята. Мы подтвердим её в ближайшее время.", req.Date, req.Time))
	s.notifyAdmin(fmt.Sprintf("Новая заявка на консультацию: %s в %s, формат %s, пакет %d шт., %s (@%s)",
		req.Date, req.Time, req.Format, req.Quantity, user.FirstName, user.Username))

	return consultation, nil
}

// Cancel — отмена собственной брони пользователем. Разрешена только для
// pending и не позже чем за сутки до начала; деньги возвращаются на баланс
func (s *Service) Cancel(ctx context.Context, user *models.User, consultationID uint) error {
	if user == nil {
		return fmt.Errorf("%w: no user", apperrors.ErrAuthentication)
	}

	consultation, err := s.db.GetConsultation(ctx, consultationID)
	if err != nil {
		return err
	}
	if consultation.TelegramUserID != user.TelegramID {
		return fmt.Errorf("%w: consultation %d", apperrors.ErrAccessDenied, consultationID)
	}
	if consultation.Status != models.ConsultationPending {
		return fmt.Errorf("%w: status %s", apperrors.ErrCancelWindowClosed, consultation.Status)
	}

	startsAt, err := consultation.StartsAt(s.loc)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrPersistence, err)
	}
	if time.Now().In(s.loc).After(startsAt.Add(-CancelWindow)) {
		return fmt.Errorf("%w: less than 24h before start", apperrors.ErrCancelWindowClosed)
	}

	if err := s.db.CancelConsultationTx(ctx, consultation, true); err != nil {
		return err
	}

	s.notifyAdmin(fmt.Sprintf("Пользователь %s (@%s) отменил консультацию %s в %s",
		user.FirstName, user.Username, consultation.Date, consultation.Time))
	return nil
}

// ListForUser возвращает все брони пользователя, новые сверху
func (s *Service) ListForUser(ctx context.Context, telegramUserID int64) ([]models.Consultation, error) {
	return s.db.ListUserConsultations(ctx, telegramUserID)
}

// List — админский список с фильтрами по статусу и дате
func (s *Service) List(ctx context.Context, status, date string) ([]models.Consultation, error) {
	if date != "" {
		if err := validateDate(date); err != nil {
			return nil, err
		}
	}
	return s.db.ListConsultations(ctx, status, date)
}

// SetStatus — ручная смена статуса админом. confirm уведомляет пользователя,
// cancel возвращает деньги
func (s *Service) SetStatus(ctx context.Context, consultationID uint, status string) error {
	switch status {
	case models.ConsultationConfirmed, models.ConsultationCompleted:
	case models.ConsultationCancelled:
		return s.AdminCancel(ctx, consultationID)
	default:
		return fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, status)
	}

	consultation, err := s.db.GetConsultation(ctx, consultationID)
	if err != nil {
		return err
	}
	if err := s.db.UpdateConsultationStatus(ctx, consultationID, status); err != nil {
		return err
	}

	if status == models.ConsultationConfirmed {
		s.notify(consultation.TelegramUserID, fmt.Sprintf("Ваша консультация %s в %s подтверждена ✅", consultation.Date, consultation.Time))
	}
	return nil
}

// AdminCancel отменяет бронь от имени админа в любой момент, с возвратом
func (s *Service) AdminCancel(ctx context.Context, consultationID uint) error {
	consultation, err := s.db.GetConsultation(ctx, consultationID)
	if err != nil {
		return err
	}
	if err := s.db.CancelConsultationTx(ctx, consultation, true); err != nil {
		return err
	}
	s.notify(consultation.TelegramUserID, fmt.Sprintf("Ваша консультация %s в %s отменена, средства возвращены на баланс.", consultation.Date, consultation.Time))
	return nil
}

// DayCalendar возвращает почасовую раскраску дня для админского календаря.
// Классификация не учитывает буфер вокруг броней, в отличие от расчёта
// доступных времен
func (s *Service) DayCalendar(ctx context.Context, date string) ([]HourInfo, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	windows, bookings, err := s.dayState(ctx, date)
	if err != nil {
		return nil, err
	}

	hours := make([]HourInfo, 0, 24)
	for h := 0; h < 24; h++ {
		hours = append(hours, HourInfo{Hour: h, Status: string(schedule.HourStatus(windows, bookings, h))})
	}
	return hours, nil
}

// Слоты (админ)

func (s *Service) ListSlots(ctx context.Context, fromDate, toDate string) ([]models.ConsultationSlot, error) {
	if err := validateDate(fromDate); err != nil {
		return nil, err
	}
	if err := validateDate(toDate); err != nil {
		return nil, err
	}
	return s.db.ListSlotsInRange(ctx, fromDate, toDate)
}

func (s *Service) CreateSlot(ctx context.Context, slot *models.ConsultationSlot) error {
	if err := validateSlot(slot); err != nil {
		return err
	}
	return s.db.CreateSlot(ctx, slot)
}

func (s *Service) UpdateSlot(ctx context.Context, slot *models.ConsultationSlot) error {
	if err := validateSlot(slot); err != nil {
		return err
	}
	return s.db.UpdateSlot(ctx, slot)
}

func (s *Service) DeleteSlot(ctx context.Context, slotID uint) error {
	return s.db.DeleteSlot(ctx, slotID)
}

// dayState собирает окна доступности и активные брони даты
func (s *Service) dayState(ctx context.Context, date string) ([]schedule.Window, []schedule.TimeOfDay, error) {
	slots, err := s.db.ListSlotsByDate(ctx, date)
	if err != nil {
		return nil, nil, err
	}
	consultations, err := s.db.ListActiveConsultationsByDate(ctx, date)
	if err != nil {
		return nil, nil, err
	}

	windows := make([]schedule.Window, 0, len(slots))
	for _, slot := range slots {
		if !slot.IsAvailable {
			continue
		}
		w, err := slotWindow(slot)
		if err != nil {
			s.logger.Warn("skipping malformed slot", "slot_id", slot.ID, "error", err)
			continue
		}
		windows = append(windows, w)
	}

	bookings := make([]schedule.TimeOfDay, 0, len(consultations))
	for _, c := range consultations {
		t, err := schedule.ParseTimeOfDay(c.Time)
		if err != nil {
			s.logger.Warn("skipping consultation with malformed time", "consultation_id", c.ID, "error", err)
			continue
		}
		bookings = append(bookings, t)
	}
	return windows, bookings, nil
}

func (s *Service) validateBookRequest(req BookRequest) error {
	if req.Format != models.FormatZoom && req.Format != models.FormatTelegram {
		return fmt.Errorf("%w: format must be Zoom or Telegram", apperrors.ErrValidation)
	}
	if err := validateDate(req.Date); err != nil {
		return err
	}
	if _, err := schedule.ParseTimeOfDay(req.Time); err != nil {
		return err
	}
	if req.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be positive", apperrors.ErrValidation)
	}
	return nil
}

// notify и notifyAdmin — best-effort: сбой уведомления не откатывает бронь
func (s *Service) notify(telegramUserID int64, msg string) {
	if err := s.tg.NotifyUser(telegramUserID, msg); err != nil {
		s.logger.Warn("failed to notify user", "telegram_user_id", telegramUserID, "error", err)
	}
}

func (s *Service) notifyAdmin(msg string) {
	if err := s.tg.NotifyAdmin(msg); err != nil {
		s.logger.Warn("failed to notify admin", "error", err)
	}
}

func validateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: invalid date %q", apperrors.ErrValidation, date)
	}
	return nil
}

func validateSlot(slot *models.ConsultationSlot) error {
	if slot == nil {
		return fmt.Errorf("%w: slot is required", apperrors.ErrValidation)
	}
	if err := validateDate(slot.Date); err != nil {
		return err
	}
	start, err := schedule.ParseTimeOfDay(slot.StartTime)
	if err != nil {
		return err
	}
	end, err := schedule.ParseTimeOfDay(slot.EndTime)
	if err != nil {
		return err
	}
	if start >= end {
		return fmt.Errorf("%w: start_time must be before end_time", apperrors.ErrValidation)
	}
	return nil
}

func slotWindow(slot models.ConsultationSlot) (schedule.Window, error) {
	start, err := schedule.ParseTimeOfDay(slot.StartTime)
	if err != nil {
		return schedule.Window{}, err
	}
	end, err := schedule.ParseTimeOfDay(slot.EndTime)
	if err != nil {
		return schedule.Window{}, err
	}
	return schedule.Window{Start: start, End: end}, nil
}

func containsTime(list []schedule.TimeOfDay, t schedule.TimeOfDay) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

func nextDate(date string) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "9999-12-31"
	}
	return d.AddDate(0, 0, 1).Format("2006-01-02")
}
