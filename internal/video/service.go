package video

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kurshub/miniapp-backend/internal/apperrors"
)

// Повтор при статусе "обрабатывается": три попытки с фиксированной паузой,
// дальше отдаём 202 и клиент пробует позже сам
const (
	maxProcessingAttempts = 3
	defaultRetryDelay     = 2 * time.Second
)

// VideoInfo — данные для плеера на странице урока
type VideoInfo struct {
	EmbedURL  string  `json:"embedUrl"`
	VideoID   string  `json:"videoId"`
	Title     string  `json:"title"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
	Status    string  `json:"status"`
}

type Service struct {
	client     *KinescopeClient
	retryDelay time.Duration
}

func NewService(client *KinescopeClient) *Service {
	return &Service{client: client, retryDelay: defaultRetryDelay}
}

// Resolve возвращает embed-ссылку и метаданные видео урока. Для ещё не
// обработанного видео делает до трёх попыток с паузой; если видео так и не
// готово, возвращает ErrVideoProcessing вместе с частичным VideoInfo,
// чтобы обработчик мог отдать 202 со статусом.
func (s *Service) Resolve(ctx context.Context, videoID string) (*VideoInfo, error) {
	if videoID == "" {
		return nil, fmt.Errorf("%w: video id is required", apperrors.ErrValidation)
	}

	var v *KinescopeVideo
	var err error
	for attempt := 1; attempt <= maxProcessingAttempts; attempt++ {
		v, err = s.client.GetVideo(ctx, videoID)
		if err != nil {
			return nil, err
		}
		if v.Status != StatusProcessing && v.Status != StatusUploading {
			break
		}
		if attempt == maxProcessingAttempts {
			return &VideoInfo{VideoID: v.ID, Status: v.Status}, fmt.Errorf("%w: status %s", apperrors.ErrVideoProcessing, v.Status)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}

	if v.Status == StatusError {
		return nil, fmt.Errorf("%w: kinescope reports video %s is broken", apperrors.ErrUpstream, videoID)
	}

	thumbnail := v.Poster.Original
	if thumbnail == "" {
		thumbnail = v.Poster.MD
	}
	return &VideoInfo{
		EmbedURL:  fmt.Sprintf("https://kinescope.io/embed/%s", v.ID),
		VideoID:   v.ID,
		Title:     v.Title,
		Duration:  v.Duration,
		Thumbnail: thumbnail,
		Status:    v.Status,
	}, nil
}

// ExtractVideoID достаёт id из устаревшего поля videoPath: в старых записях
// уроков там лежал полный путь, id — последний сегмент
func ExtractVideoID(videoPath string) string {
	trimmed := strings.Trim(strings.TrimSpace(videoPath), "/")
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "/")
	return parts[len(parts)-1]
}
