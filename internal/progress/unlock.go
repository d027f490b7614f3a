package progress

import (
	"sort"
	"time"

	"github.com/kurshub/miniapp-backend/internal/models"
)

// Сообщения гейтинга уроков (показываются пользователю как есть)
const (
	msgEnrollmentRequired = "Начните курс, чтобы открыть уроки"
	msgCompletePrevious   = "Сначала завершите предыдущий урок"
	msgAvailableTomorrow  = "Урок откроется завтра, отдохните"
	msgLessonUnavailable  = "Урок недоступен"
)

// Decision — результат проверки доступа к уроку
type Decision struct {
	Unlocked bool   `json:"unlocked"`
	Message  string `json:"message,omitempty"`
}

// CooldownPolicy решает, прошло ли достаточно времени после одобрения
// предыдущего урока, чтобы открыть следующий. Вынесена в интерфейс, чтобы
// правило можно было менять конфигом, не трогая сам гейтинг.
type CooldownPolicy interface {
	// Elapsed: completedAt — момент одобрения предыдущего урока
	Elapsed(completedAt, now time.Time) bool
}

// NoCooldown открывает следующий урок сразу после одобрения предыдущего
type NoCooldown struct{}

func (NoCooldown) Elapsed(_, _ time.Time) bool { return true }

// NextCalendarDay открывает следующий урок со следующего календарного дня
// в заданной таймзоне ("завтра можете приступить"), а не через плавающие
// 24 часа.
type NextCalendarDay struct {
	Location *time.Location
}

func (p NextCalendarDay) Elapsed(completedAt, now time.Time) bool {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	c := completedAt.In(loc)
	n := now.In(loc)
	cy, cm, cd := c.Date()
	ny, nm, nd := n.Date()
	return time.Date(ny, nm, nd, 0, 0, 0, 0, loc).After(time.Date(cy, cm, cd, 0, 0, 0, 0, loc))
}

// Evaluator проверяет доступ пользователя к уроку по записи о курсе и
// прогрессу. Никогда не возвращает ошибку: при неполных данных урок просто
// закрыт с общим сообщением.
type Evaluator struct {
	Cooldown CooldownPolicy
}

func NewEvaluator(cooldown CooldownPolicy) *Evaluator {
	if cooldown == nil {
		cooldown = NoCooldown{}
	}
	return &Evaluator{Cooldown: cooldown}
}

// Evaluate решает, открыт ли урок. courseLessons — все уроки курса урока
// lesson; progressByLesson — прогресс пользователя по id урока; enrollment —
// запись о курсе (nil, если пользователь курс не начинал).
func (e *Evaluator) Evaluate(lesson *models.Lesson, courseLessons []models.Lesson, enrollment *models.Enrollment, progressByLesson map[uint]*models.UserProgress, now time.Time) Decision {
	if lesson == nil || len(courseLessons) == 0 {
		return Decision{Unlocked: false, Message: msgLessonUnavailable}
	}
	if enrollment == nil || enrollment.CourseID != lesson.CourseID {
		return Decision{Unlocked: false, Message: msgEnrollmentRequired}
	}

	ordered := make([]models.Lesson, len(courseLessons))
	copy(ordered, courseLessons)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].OrderIndex < ordered[j].OrderIndex })

	idx := -1
	for i := range ordered {
		if ordered[i].ID == lesson.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return Decision{Unlocked: false, Message: msgLessonUnavailable}
	}

	// Первый урок курса открыт каждому записавшемуся безусловно
	if idx == 0 {
		return Decision{Unlocked: true}
	}

	prev := progressByLesson[ordered[idx-1].ID]
	if !prev.Completed() {
		return Decision{Unlocked: false, Message: msgCompletePrevious}
	}
	if prev.CompletedAt != nil && !e.Cooldown.Elapsed(*prev.CompletedAt, now) {
		return Decision{Unlocked: false, Message: msgAvailableTomorrow}
	}
	return Decision{Unlocked: true}
}
