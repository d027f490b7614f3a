package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/kurshub/miniapp-backend/internal/apperrors"
	"github.com/kurshub/miniapp-backend/internal/audit"
	"github.com/kurshub/miniapp-backend/internal/booking"
	"github.com/kurshub/miniapp-backend/internal/config"
	"github.com/kurshub/miniapp-backend/internal/course"
	"github.com/kurshub/miniapp-backend/internal/db"
	"github.com/kurshub/miniapp-backend/internal/grading"
	httpserver "github.com/kurshub/miniapp-backend/internal/http"
	"github.com/kurshub/miniapp-backend/internal/jwt"
	"github.com/kurshub/miniapp-backend/internal/logger"
	"github.com/kurshub/miniapp-backend/internal/models"
	"github.com/kurshub/miniapp-backend/internal/progress"
	"github.com/kurshub/miniapp-backend/internal/rbac"
	"github.com/kurshub/miniapp-backend/internal/storage"
	"github.com/kurshub/miniapp-backend/internal/telegram"
	"github.com/kurshub/miniapp-backend/internal/video"
)

// App держит собранные зависимости приложения и управляет их жизненным циклом
type App struct {
	Config *config.Config
	Router http.Handler

	database db.Database
	cron     *cron.Cron
	log      *slog.Logger
}

// Initialize настраивает все зависимости и возвращает готовое приложение
func Initialize(ctx context.Context) (*App, error) {
	// Загрузка конфигурации
	cfg := config.Load()

	// Инициализация Telegram клиента
	tgClient, err := telegram.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram client: %w", err)
	}

	// Инициализация логгера
	log := logger.New(tgClient)
	slog.SetDefault(log)

	// Инициализация Postgres
	database, err := db.NewGormDatabase(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := seedAdmin(ctx, database, cfg, log); err != nil {
		return nil, fmt.Errorf("failed to seed admin account: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	// Инициализация JWT менеджера и RBAC
	jwtManager := jwt.NewJWTManager(cfg)
	rbacManager := rbac.NewRBAC()

	// Инициализация S3 клиента (R2)
	storageClient, err := storage.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage client: %w", err)
	}

	// Инициализация внешних клиентов
	kinescope := video.NewKinescopeClient(cfg.KinescopeAPIURL, cfg.KinescopeAPIToken)
	videoService := video.NewService(kinescope)
	grader := grading.NewClient(cfg.GradingWebhookURL)

	// Политика открытия уроков
	var cooldown progress.CooldownPolicy
	switch cfg.UnlockCooldown {
	case "none":
		cooldown = progress.NoCooldown{}
	default:
		cooldown = progress.NextCalendarDay{Location: loc}
	}
	unlockEvaluator := progress.NewEvaluator(cooldown)

	// Инициализация сервисов
	bookingService := booking.NewService(database, tgClient, log, cfg.SlotStepMinutes, loc)
	courseService := course.NewService(database, grader, videoService, unlockEvaluator, tgClient, log)
	auditService := audit.NewService(database, log)

	// Инициализация HTTP сервера
	server := httpserver.NewServer(database, bookingService, courseService, storageClient, auditService, jwtManager, rbacManager, cfg.TelegramBotToken, cfg.Env)

	// Настройка роутера
	router := httpserver.SetupRouter(server, jwtManager)

	app := &App{
		Config:   cfg,
		Router:   router,
		database: database,
		cron:     cron.New(cron.WithLocation(loc)),
		log:      log,
	}
	if err := app.scheduleJobs(tgClient, loc); err != nil {
		return nil, fmt.Errorf("failed to schedule jobs: %w", err)
	}

	slog.Info("Application initialized successfully")
	return app, nil
}

// seedAdmin создаёт первую учётную запись админ-панели из ADMIN_EMAIL и
// ADMIN_PASSWORD. Без неё вход в панель невозможен: регистрации админов
// через API нет. Повторный старт с существующим email ничего не меняет
func seedAdmin(ctx context.Context, database db.Database, cfg *config.Config, log *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	if _, err := database.GetAdminByEmail(ctx, cfg.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := database.CreateAdmin(ctx, &models.AdminUser{
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		Role:         string(rbac.RoleAdmin),
	}); err != nil {
		return err
	}
	log.Info("Admin account created", "email", cfg.AdminEmail)
	return nil
}

// scheduleJobs регистрирует фоновые задачи: утреннее напоминание о завтрашних
// консультациях и перевод прошедших подтверждённых консультаций в completed
func (a *App) scheduleJobs(tg *telegram.Client, loc *time.Location) error {
	if _, err := a.cron.AddFunc("0 10 * * *", func() {
		a.remindTomorrowConsultations(tg, loc)
	}); err != nil {
		return err
	}
	if _, err := a.cron.AddFunc("*/30 * * * *", func() {
		a.completePastConsultations(loc)
	}); err != nil {
		return err
	}
	return nil
}

func (a *App) remindTomorrowConsultations(tg *telegram.Client, loc *time.Location) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	tomorrow := time.Now().In(loc).AddDate(0, 0, 1).Format("2006-01-02")
	consultations, err := a.database.ListConfirmedConsultationsByDate(ctx, tomorrow)
	if err != nil {
		a.log.Error("Failed to load tomorrow's consultations", "date", tomorrow, "error", err)
		return
	}

	if len(consultations) == 0 {
		return
	}

	summary := fmt.Sprintf("Консультации на завтра (%s):\n", tomorrow)
	for _, c := range consultations {
		summary += fmt.Sprintf("— %s, %s\n", c.Time, c.Format)
		msg := fmt.Sprintf("Напоминание: завтра в %s у вас консультация (%s).", c.Time, c.Format)
		if err := tg.NotifyUser(c.TelegramUserID, msg); err != nil {
			a.log.Error("Failed to send consultation reminder",
				"consultation_id", c.ID, "telegram_user_id", c.TelegramUserID, "error", err)
		}
	}
	if err := tg.NotifyAdmin(summary); err != nil {
		a.log.Error("Failed to send admin consultation summary", "error", err)
	}
	a.log.Info("Consultation reminders sent", "date", tomorrow, "count", len(consultations))
}

func (a *App) completePastConsultations(loc *time.Location) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	updated, err := a.database.CompletePastConsultations(ctx, time.Now(), loc)
	if err != nil {
		a.log.Error("Failed to complete past consultations", "error", err)
		return
	}
	if updated > 0 {
		a.log.Info("Past consultations marked completed", "count", updated)
	}
}

// Start запускает фоновые задачи
func (a *App) Start() {
	a.cron.Start()
}

// Shutdown останавливает фоновые задачи и закрывает соединение с базой
func (a *App) Shutdown(ctx context.Context) error {
	stopped := a.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
	return a.database.Close()
}
