package grading

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kurshub/miniapp-backend/internal/apperrors"
)

// Тексты по умолчанию, когда внешняя проверка не прислала сообщение
const (
	defaultApprovedMessage = "Отличная работа! Урок засчитан."
	defaultRejectedMessage = "Ответ пока не принят. Посмотрите урок ещё раз и попробуйте снова."
)

// Request — полезная нагрузка вебхука проверки ответа. Поля с контекстом
// урока (вопрос, описание видео) отправляются вместе с ответом, чтобы
// проверяющая сторона не ходила за ними сама.
type Request struct {
	LessonID         uint    `json:"lesson_id"`
	Question         string  `json:"question"`
	UserAnswer       string  `json:"user_answer"`
	VideoDescription string  `json:"video_description"`
	PhotoURL         *string `json:"photo_url,omitempty"`
	TelegramUserID   int64   `json:"telegram_user_id"`
}

// Verdict — вердикт внешней проверки
type Verdict struct {
	Approved bool   `json:"approved"`
	Message  string `json:"message"`
}

// Client ходит в n8n-вебхук проверки ответов
type Client struct {
	webhookURL string
	httpClient *http.Client
}

func NewClient(webhookURL string) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Grade отправляет ответ на проверку и возвращает вердикт. Любой не-2xx
// статус и сетевые сбои — ошибка внешнего сервиса; частичных состояний
// после неё не остаётся, сохранение делает вызывающий.
func (c *Client) Grade(ctx context.Context, req Request) (Verdict, error) {
	if c.webhookURL == "" {
		return Verdict{}, fmt.Errorf("%w: grading webhook is not configured", apperrors.ErrUpstream)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to marshal grading request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to create grading request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: grading webhook call failed: %v", apperrors.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Verdict{}, fmt.Errorf("%w: grading webhook returned status %d", apperrors.ErrUpstream, resp.StatusCode)
	}

	var verdict Verdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return Verdict{}, fmt.Errorf("%w: failed to decode grading response: %v", apperrors.ErrUpstream, err)
	}

	if verdict.Message == "" {
		if verdict.Approved {
			verdict.Message = defaultApprovedMessage
		} else {
			verdict.Message = defaultRejectedMessage
		}
	}
	return verdict, nil
}
