package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurshub/miniapp-backend/internal/models"
)

func courseLessons() []models.Lesson {
	return []models.Lesson{
		{ID: 10, CourseID: 1, OrderIndex: 1, Title: "Введение"},
		{ID: 11, CourseID: 1, OrderIndex: 2, Title: "Основы"},
		{ID: 12, CourseID: 1, OrderIndex: 3, Title: "Практика"},
	}
}

func activeEnrollment() *models.Enrollment {
	return &models.Enrollment{ID: 1, UserID: 5, CourseID: 1, Status: models.EnrollmentActive}
}

func completedAt(ts time.Time) map[uint]*models.UserProgress {
	return map[uint]*models.UserProgress{
		10: {LessonID: 10, Status: models.ProgressCompleted, CompletedAt: &ts},
	}
}

func TestEvaluate_NoEnrollment(t *testing.T) {
	e := NewEvaluator(nil)
	lessons := courseLessons()

	d := e.Evaluate(&lessons[0], lessons, nil, nil, time.Now())
	assert.False(t, d.Unlocked)
	assert.Equal(t, "Начните курс, чтобы открыть уроки", d.Message)

	// Запись на другой курс не считается
	other := &models.Enrollment{ID: 2, UserID: 5, CourseID: 99, Status: models.EnrollmentActive}
	d = e.Evaluate(&lessons[0], lessons, other, nil, time.Now())
	assert.False(t, d.Unlocked)
}

func TestEvaluate_FirstLessonAlwaysUnlocked(t *testing.T) {
	e := NewEvaluator(NextCalendarDay{Location: time.UTC})
	lessons := courseLessons()

	d := e.Evaluate(&lessons[0], lessons, activeEnrollment(), nil, time.Now())
	assert.True(t, d.Unlocked)
	assert.Empty(t, d.Message)
}

func TestEvaluate_SequentialGating(t *testing.T) {
	e := NewEvaluator(nil)
	lessons := courseLessons()

	// Предыдущий урок не завершён
	d := e.Evaluate(&lessons[1], lessons, activeEnrollment(), nil, time.Now())
	assert.False(t, d.Unlocked)
	assert.Equal(t, "Сначала завершите предыдущий урок", d.Message)

	// skipped не открывает следующий
	progress := map[uint]*models.UserProgress{
		10: {LessonID: 10, Status: models.ProgressSkipped},
	}
	d = e.Evaluate(&lessons[1], lessons, activeEnrollment(), progress, time.Now())
	assert.False(t, d.Unlocked)

	// completed открывает
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	d = e.Evaluate(&lessons[1], lessons, activeEnrollment(), completedAt(now.Add(-48*time.Hour)), now)
	assert.True(t, d.Unlocked)

	// Третий урок требует второй, а не первый
	d = e.Evaluate(&lessons[2], lessons, activeEnrollment(), completedAt(now.Add(-48*time.Hour)), now)
	assert.False(t, d.Unlocked)
}

func TestEvaluate_UnorderedInput(t *testing.T) {
	e := NewEvaluator(nil)
	lessons := courseLessons()
	shuffled := []models.Lesson{lessons[2], lessons[0], lessons[1]}

	d := e.Evaluate(&lessons[0], shuffled, activeEnrollment(), nil, time.Now())
	assert.True(t, d.Unlocked)
}

func TestEvaluate_MissingData(t *testing.T) {
	e := NewEvaluator(nil)
	lessons := courseLessons()

	d := e.Evaluate(nil, lessons, activeEnrollment(), nil, time.Now())
	assert.False(t, d.Unlocked)
	assert.Equal(t, "Урок недоступен", d.Message)

	d = e.Evaluate(&lessons[0], nil, activeEnrollment(), nil, time.Now())
	assert.False(t, d.Unlocked)

	// Урок не из переданного списка
	stray := &models.Lesson{ID: 77, CourseID: 1, OrderIndex: 9}
	d = e.Evaluate(stray, lessons, activeEnrollment(), nil, time.Now())
	assert.False(t, d.Unlocked)
}

func TestEvaluate_NextCalendarDayCooldown(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	e := NewEvaluator(NextCalendarDay{Location: loc})
	lessons := courseLessons()

	completed := time.Date(2025, 3, 10, 23, 30, 0, 0, loc)

	// Тот же календарный день: закрыт с сообщением про завтра
	d := e.Evaluate(&lessons[1], lessons, activeEnrollment(), completedAt(completed), completed.Add(10*time.Minute))
	assert.False(t, d.Unlocked)
	assert.Equal(t, "Урок откроется завтра, отдохните", d.Message)

	// Сразу после местной полуночи: открыт, хотя прошло меньше часа
	d = e.Evaluate(&lessons[1], lessons, activeEnrollment(), completedAt(completed), completed.Add(40*time.Minute))
	assert.True(t, d.Unlocked)
}

func TestNextCalendarDay(t *testing.T) {
	p := NextCalendarDay{Location: time.UTC}
	completed := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.False(t, p.Elapsed(completed, completed.Add(14*time.Hour)))          // 23:00 того же дня
	assert.True(t, p.Elapsed(completed, completed.Add(16*time.Hour)))           // 01:00 следующего
	assert.True(t, p.Elapsed(completed, completed.Add(30*24*time.Hour)))        // через месяц
	assert.True(t, NoCooldown{}.Elapsed(completed, completed.Add(time.Minute))) // NoCooldown не ждёт
}
