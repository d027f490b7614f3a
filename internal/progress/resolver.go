package progress

import (
	"time"

	"github.com/kurshub/miniapp-backend/internal/models"
)

// Submission — последняя попытка пользователя по уроку
type Submission struct {
	Answer string
	Photo  models.PhotoRef
}

// ResolveOutcome вычисляет следующее состояние прогресса по вердикту внешней
// проверки. Чистая функция: читает предыдущую запись (может быть nil),
// возвращает значения для upsert по ключу (telegram_user_id, lesson_id).
//
// Политика:
//   - approved: status=completed, completed_at=now (обновляется и при
//     повторном одобрении);
//   - не approved: статус прежний (или skipped, если записи не было),
//     ранее выставленный completed_at сохраняется и никогда не очищается;
//   - ответ и фото перезаписываются последней попыткой независимо от
//     вердикта, чтобы пользователь мог править отклонённый ответ.
func ResolveOutcome(prev *models.UserProgress, approved bool, sub Submission, now time.Time) models.UserProgress {
	next := models.UserProgress{
		UserAnswer: sub.Answer,
		PhotoURL:   sub.Photo.Encode(),
	}

	if approved {
		next.Status = models.ProgressCompleted
		completedAt := now
		next.CompletedAt = &completedAt
		return next
	}

	if prev != nil {
		next.Status = prev.Status
		next.CompletedAt = prev.CompletedAt
	} else {
		next.Status = models.ProgressSkipped
	}
	return next
}
