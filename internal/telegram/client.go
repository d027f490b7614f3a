package telegram

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kurshub/miniapp-backend/internal/config"
)

// Client отправляет уведомления через Telegram Bot API.
// При пустой конфигурации все методы превращаются в no-op, чтобы
// не ронять приложение в окружениях без бота (тесты, локальная разработка).
type Client struct {
	bot         *tgbotapi.BotAPI
	adminChatID int64
}

func NewClient(cfg *config.Config) (*Client, error) {
	c := &Client{}
	if cfg.TelegramBotToken == "" {
		return c, nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	c.bot = bot

	if cfg.TelegramAdminChatID != "" {
		chatID, err := strconv.ParseInt(cfg.TelegramAdminChatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ADMIN_CHAT_ID: %w", err)
		}
		c.adminChatID = chatID
	}

	return c, nil
}

// SendAlert отправляет сообщение об ошибке в админский чат
func (c *Client) SendAlert(msg string) error {
	return c.NotifyAdmin("🚨 ERROR: " + msg)
}

// NotifyAdmin отправляет произвольное сообщение в админский чат
func (c *Client) NotifyAdmin(msg string) error {
	if c.bot == nil || c.adminChatID == 0 {
		return nil
	}
	_, err := c.bot.Send(tgbotapi.NewMessage(c.adminChatID, msg))
	return err
}

// NotifyUser отправляет сообщение пользователю по его Telegram ID
func (c *Client) NotifyUser(telegramUserID int64, msg string) error {
	if c.bot == nil {
		return nil
	}
	_, err := c.bot.Send(tgbotapi.NewMessage(telegramUserID, msg))
	return err
}
