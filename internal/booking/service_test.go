package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kurshub/miniapp-backend/internal/apperrors"
	"github.com/kurshub/miniapp-backend/internal/config"
	dbmocks "github.com/kurshub/miniapp-backend/internal/db/mocks"
	"github.com/kurshub/miniapp-backend/internal/models"
	"github.com/kurshub/miniapp-backend/internal/telegram"
)

func setupService(t *testing.T) (*Service, *dbmocks.Database) {
	t.Helper()
	mockDB := new(dbmocks.Database)
	tg, err := telegram.NewClient(&config.Config{})
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(mockDB, tg, logger, 60, time.UTC), mockDB
}

func daySlots(date string) []models.ConsultationSlot {
	return []models.ConsultationSlot{
		{ID: 1, Date: date, StartTime: "09:00", EndTime: "17:00", IsAvailable: true},
	}
}

func testUser() *models.User {
	return &models.User{ID: 3, TelegramID: 111222, FirstName: "Анна", Username: "anna", Currency: "RUB", Balance: 20000}
}

func TestAvailableTimes(t *testing.T) {
	svc, mockDB := setupService(t)
	ctx := context.Background()

	mockDB.On("ListSlotsByDate", ctx, "2025-04-01").Return(daySlots("2025-04-01"), nil)
	mockDB.On("ListActiveConsultationsByDate", ctx, "2025-04-01").Return([]models.Consultation{
		{ID: 5, Date: "2025-04-01", Time: "12:00", Status: models.ConsultationPending},
	}, nil)

	got, err := svc.AvailableTimes(ctx, "2025-04-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00", "14:00", "15:00", "16:00"}, got)
	mockDB.AssertExpectations(t)
}

func TestAvailableTimes_BadDate(t *testing.T) {
	svc, _ := setupService(t)
	_, err := svc.AvailableTimes(context.Background(), "01.04.2025")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestAvailableTimes_NoSlots(t *testing.T) {
	svc, mockDB := setupService(t)
	ctx := context.Background()

	mockDB.On("ListSlotsByDate", ctx, "2025-04-02").Return([]models.ConsultationSlot{}, nil)
	mockDB.On("ListActiveConsultationsByDate", ctx, "2025-04-02").Return([]models.Consultation{}, nil)

	got, err := svc.AvailableTimes(ctx, "2025-04-02")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBook(t *testing.T) {
	svc, mockDB := setupService(t)
	ctx := context.Background()
	user := testUser()

	mockDB.On("ListSlotsByDate", ctx, "2025-04-01").Return(daySlots("2025-04-01"), nil)
	mockDB.On("ListActiveConsultationsByDate", ctx, "2025-04-01").Return([]models.Consultation{}, nil)
	mockDB.On("GetConsultationPrice", ctx, 1).Return(&models.ConsultationPrice{Quantity: 1, PriceRUB: 9000}, nil)
	mockDB.On("CreateConsultationTx", ctx, uint(3), 9000.0, mock.MatchedBy(func(c *models.Consultation) bool {
		return c.TelegramUserID == 111222 &&
			c.Date == "2025-04-01" && c.Time == "10:00" &&
			c.Status == models.ConsultationPending && c.Price == 9000
	})).Return(nil)

	got, err := svc.Book(ctx, user, BookRequest{Format: models.FormatZoom, Date: "2025-04-01", Time: "10:00", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, "RUB", got.Currency)
	mockDB.AssertExpectations(t)
}

func TestBook_TimeNotAvailable(t *testing.T) {
	svc, mockDB := setupService(t)
	ctx := context.Background()

	mockDB.On("ListSlotsByDate", ctx, "2025-04-01").Return(daySlots("2025-04-01"), nil)
	mockDB.On("ListActiveConsultationsByDate", ctx, "2025-04-01").Return([]models.Consultation{
		{ID: 5, Date: "2025-04-01", Time: "11:00", Status: models.ConsultationConfirmed},
	}, nil)

	// 12:00 попадает в буфер вокруг брони на 11:00
	_, err := svc.Book(ctx, testUser(), BookRequest{Format: models.FormatZoom, Date: "2025-04-01", Time: "12:00", Quantity: 1})
	assert.True(t, errors.Is(err, apperrors.ErrSlotTaken))
}

func TestBook_RaceLoserGetsSlotTaken(t *testing.T) {
	svc, mockDB := setupService(t)
	ctx := context.Background()

	// Предварительная проверка доступности проходит (слот выглядит свободным),
	// но соперник успевает первым: транзакция под advisory-блокировкой даты
	// обнаруживает конфликт, и проигравший получает именно ErrSlotTaken
	mockDB.On("ListSlotsByDate", ctx, "2025-04-01").Return(daySlots("2025-04-01"), nil)
	mockDB.On("ListActiveConsultationsByDate", ctx, "2025-04-01").Return([]models.Consultation{}, nil)
	mockDB.On("GetConsultationPrice", ctx, 1).Return(&models.ConsultationPrice{Quantity: 1, PriceRUB: 9000}, nil)
	mockDB.On("CreateConsultationTx", ctx, uint(3), 9000.0, mock.Anything).Return(apperrors.ErrSlotTaken)

	_, err := svc.Book(ctx, testUser(), BookRequest{Format: models.FormatZoom, Date: "2025-04-01", Time: "10:00", Quantity: 1})
	assert.True(t, errors.Is(err, apperrors.ErrSlotTaken))
	mockDB.AssertExpectations(t)
}

func TestBook_InsufficientBalance(t *testing.T) {
	svc, mockDB := setupService(t)
	ctx := context.Background()
	user := testUser()
	user.Balance = 100

	mockDB.On("ListSlotsByDate", ctx, "2025-04-01").Return(daySlots("2025-04-01"), nil)
	mockDB.On("ListActiveConsultationsByDate", ctx, "2025-04-01").Return([]models.Consultation{}, nil)
	mockDB.On("GetConsultationPrice", ctx, 2).Return(&models.ConsultationPrice{Quantity: 2, PriceRUB: 8000}, nil)

	_, err := svc.Book(ctx, user, BookRequest{Format: models.FormatTelegram, Date: "2025-04-01", Time: "10:00", Quantity: 2})
	assert.True(t, errors.Is(err, apperrors.ErrInsufficientBalance))
	mockDB.AssertNotCalled(t, "CreateConsultationTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBook_Validation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	cases := []BookRequest{
		{Format: "Skype", Date: "2025-04-01", Time: "10:00", Quantity: 1},
		{Format: models.FormatZoom, Date: "не дата", Time: "10:00", Quantity: 1},
		{Format: models.FormatZoom, Date: "2025-04-01", Time: "25:00", Quantity: 1},
		{Format: models.FormatZoom, Date: "2025-04-01", Time: "10:00", Quantity: 0},
	}
	for _, req := range cases {
		_, err := svc.Book(ctx, testUser(), req)
		assert.True(t, errors.Is(err, apperrors.ErrValidation), "%+v", req)
	}
}

func TestCancel(t *testing.T) {
	svc, mockDB := setupService(t)
	ctx := context.Background()
	user := testUser()

	future := time.Now().UTC().AddDate(0, 0, 7)
	consultation := &models.Consultation{
		ID:             9,
		TelegramUserID: user.TelegramID,
		Date:           future.Format("2006-01-02"),
		Time:           "12:00",
		Quantity:       1,
		Price:          9000,
		Status:         models.ConsultationPending,
	}
	mockDB.On("GetConsultation", ctx, uint(9)).Return(consultation, nil)
	mockDB.On("CancelConsultationTx", ctx, consultation, true).Return(nil)

	require.NoError(t, svc.Cancel(ctx, user, 9))
	mockDB.AssertExpectations(t)
}

func TestCancel_Rules(t *testing.T) {
	svc, mockDB := setupService(t)
	ctx := context.Background()
	user := testUser()
	future := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")

	// Чужая бронь
	mockDB.On("GetConsultation", ctx, uint(1)).Return(&models.Consultation{
		ID: 1, TelegramUserID: 999, Date: future, Time: "12:00", Status: models.ConsultationPending,
	}, nil)
	assert.True(t, errors.Is(svc.Cancel(ctx, user, 1), apperrors.ErrAccessDenied))

	// Уже подтверждена: самостоятельная отмена закрыта
	mockDB.On("GetConsultation", ctx, uint(2)).Return(&models.Consultation{
		ID: 2, TelegramUserID: user.TelegramID, Date: future, Time: "12:00", Status: models.ConsultationConfirmed,
	}, nil)
	assert.True(t, errors.Is(svc.Cancel(ctx, user, 2), apperrors.ErrCancelWindowClosed))

	// Меньше суток до начала
	soon := time.Now().UTC().Add(3 * time.Hour)
	mockDB.On("GetConsultation", ctx, uint(3)).Return(&models.Consultation{
		ID: 3, TelegramUserID: user.TelegramID,
		Date: soon.Format("2006-01-02"), Time: soon.Format("15:04"),
		Status: models.ConsultationPending,
	}, nil)
	assert.True(t, errors.Is(svc.Cancel(ctx, user, 3), apperrors.ErrCancelWindowClosed))
}

func TestSetStatus_ConfirmAndCancel(t *testing.T) {
	svc, mockDB := setupService(t)
	ctx := context.Background()

	consultation := &models.Consultation{ID: 4, TelegramUserID: 111222, Date: "2025-04-01", Time: "10:00", Quantity: 1, Price: 9000, Status: models.ConsultationPending}
	mockDB.On("GetConsultation", ctx, uint(4)).Return(consultation, nil)
	mockDB.On("UpdateConsultationStatus", ctx, uint(4), models.ConsultationConfirmed).Return(nil)
	require.NoError(t, svc.SetStatus(ctx, 4, models.ConsultationConfirmed))

	// cancelled уходит через AdminCancel с возвратом средств
	mockDB.On("CancelConsultationTx", ctx, consultation, true).Return(nil)
	require.NoError(t, svc.SetStatus(ctx, 4, models.ConsultationCancelled))

	assert.True(t, errors.Is(svc.SetStatus(ctx, 4, "paused"), apperrors.ErrValidation))
	mockDB.AssertExpectations(t)
}

func TestDayCalendar(t *testing.T) {
	svc, mockDB := setupService(t)
	ctx := context.Background()

	mockDB.On("ListSlotsByDate", ctx, "2025-04-01").Return(daySlots("2025-04-01"), nil)
	mockDB.On("ListActiveConsultationsByDate", ctx, "2025-04-01").Return([]models.Consultation{
		{ID: 5, Date: "2025-04-01", Time: "12:00", Status: models.ConsultationPending},
	}, nil)

	hours, err := svc.DayCalendar(ctx, "2025-04-01")
	require.NoError(t, err)
	require.Len(t, hours, 24)
	assert.Equal(t, "unavailable", hours[8].Status)
	assert.Equal(t, "free", hours[9].Status)
	assert.Equal(t, "free", hours[11].Status) // буфер в календаре не применяется
	assert.Equal(t, "busy", hours[12].Status)
	assert.Equal(t, "unavailable", hours[17].Status)
}

func TestCreateSlot_Validation(t *testing.T) {
	svc, mockDB := setupService(t)
	ctx := context.Background()

	err := svc.CreateSlot(ctx, &models.ConsultationSlot{Date: "2025-04-01", StartTime: "17:00", EndTime: "09:00"})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	mockDB.On("CreateSlot", ctx, mock.Anything).Return(nil)
	require.NoError(t, svc.CreateSlot(ctx, &models.ConsultationSlot{Date: "2025-04-01", StartTime: "09:00", EndTime: "17:00", IsAvailable: true}))
}

func TestDaysWithSlots(t *testing.T) {
	svc, mockDB := setupService(t)
	ctx := context.Background()

	mockDB.On("ListSlotsInRange", ctx, "2025-04-01", "2025-04-03").Return([]models.ConsultationSlot{
		{ID: 1, Date: "2025-04-01", StartTime: "09:00", EndTime: "11:00", IsAvailable: true},
		{ID: 2, Date: "2025-04-02", StartTime: "09:00", EndTime: "10:00", IsAvailable: true},
		{ID: 3, Date: "2025-04-03", StartTime: "09:00", EndTime: "10:00", IsAvailable: false},
	}, nil)
	mockDB.On("ListActiveConsultationsInRange", ctx, "2025-04-01", "2025-04-03").Return([]models.Consultation{
		// Бронь на 09:00 закрывает единственное время 2 апреля
		{ID: 7, Date: "2025-04-02", Time: "09:00", Status: models.ConsultationConfirmed},
	}, nil)

	days, err := svc.DaysWithSlots(ctx, "2025-04-01", "2025-04-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-04-01"}, days)
}
