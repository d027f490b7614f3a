package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurshub/miniapp-backend/internal/models"
)

func strPtr(s string) *string { return &s }

func TestResolveOutcome_FirstApproval(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	got := ResolveOutcome(nil, true, Submission{Answer: "мой ответ"}, now)

	assert.Equal(t, models.ProgressCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, now, *got.CompletedAt)
	assert.Equal(t, "мой ответ", got.UserAnswer)
	assert.Nil(t, got.PhotoURL)
}

func TestResolveOutcome_FirstRejection(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	got := ResolveOutcome(nil, false, Submission{Answer: "слабый ответ"}, now)

	// Записи не было: статус-заглушка, completed_at не выставляется
	assert.Equal(t, models.ProgressSkipped, got.Status)
	assert.Nil(t, got.CompletedAt)
	assert.Equal(t, "слабый ответ", got.UserAnswer)
}

func TestResolveOutcome_ApprovalAfterRejection(t *testing.T) {
	now := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	prev := &models.UserProgress{Status: models.ProgressSkipped, UserAnswer: "старый"}

	got := ResolveOutcome(prev, true, Submission{Answer: "новый"}, now)

	assert.Equal(t, models.ProgressCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, now, *got.CompletedAt)
	assert.Equal(t, "новый", got.UserAnswer)
}

func TestResolveOutcome_ReapprovalRefreshesTimestamp(t *testing.T) {
	first := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)
	prev := &models.UserProgress{Status: models.ProgressCompleted, CompletedAt: &first}

	got := ResolveOutcome(prev, true, Submission{Answer: "пересдача"}, second)

	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, second, *got.CompletedAt)
}

func TestResolveOutcome_StickyCompletion(t *testing.T) {
	completed := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	now := completed.Add(24 * time.Hour)
	prev := &models.UserProgress{
		Status:      models.ProgressCompleted,
		UserAnswer:  "одобренный",
		CompletedAt: &completed,
	}

	got := ResolveOutcome(prev, false, Submission{Answer: "неудачная правка"}, now)

	// Отклонённая пересдача не откатывает одобрение
	assert.Equal(t, models.ProgressCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, completed, *got.CompletedAt)
	assert.Equal(t, "неудачная правка", got.UserAnswer)
}

func TestResolveOutcome_PhotoOverwritten(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	prev := &models.UserProgress{
		Status:   models.ProgressSkipped,
		PhotoURL: strPtr("https://cdn.example.com/old.jpg"),
	}

	got := ResolveOutcome(prev, false, Submission{
		Answer: "с фото",
		Photo:  models.PhotoRef{URLs: []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"}},
	}, now)

	require.NotNil(t, got.PhotoURL)
	assert.JSONEq(t, `["https://cdn.example.com/a.jpg","https://cdn.example.com/b.jpg"]`, *got.PhotoURL)

	// Попытка без фото очищает колонку
	got = ResolveOutcome(prev, false, Submission{Answer: "без фото"}, now)
	assert.Nil(t, got.PhotoURL)
}
