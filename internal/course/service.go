package course

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kurshub/miniapp-backend/internal/apperrors"
	"github.com/kurshub/miniapp-backend/internal/db"
	"github.com/kurshub/miniapp-backend/internal/grading"
	"github.com/kurshub/miniapp-backend/internal/models"
	"github.com/kurshub/miniapp-backend/internal/progress"
	"github.com/kurshub/miniapp-backend/internal/telegram"
	"github.com/kurshub/miniapp-backend/internal/video"
)

// Grader — внешняя проверка ответов (n8n-вебхук в проде)
type Grader interface {
	Grade(ctx context.Context, req grading.Request) (grading.Verdict, error)
}

// CourseSummary — карточка курса в списке
type CourseSummary struct {
	models.Course
	LessonCount int  `json:"lesson_count"`
	Enrolled    bool `json:"enrolled"`
	Completed   bool `json:"completed"`
}

// LessonState — урок в списке курса с состоянием доступа
type LessonState struct {
	ID         uint   `json:"id"`
	OrderIndex int    `json:"order_index"`
	Title      string `json:"title"`
	Unlocked   bool   `json:"unlocked"`
	Message    string `json:"message,omitempty"`
	Completed  bool   `json:"completed"`
}

// CourseDetail — курс со списком уроков и их доступностью
type CourseDetail struct {
	models.Course
	Lessons []LessonState `json:"lessons"`
}

// LessonView — страница урока. Контент отдаётся только когда урок открыт
type LessonView struct {
	ID               uint                   `json:"id"`
	CourseID         uint                   `json:"course_id"`
	OrderIndex       int                    `json:"order_index"`
	Title            string                 `json:"title"`
	Unlocked         bool                   `json:"unlocked"`
	Message          string                 `json:"message,omitempty"`
	Description      string                 `json:"description,omitempty"`
	Content          string                 `json:"content,omitempty"`
	Question         string                 `json:"question,omitempty"`
	AllowPhotoUpload bool                   `json:"allow_photo_upload"`
	HasVideo         bool                   `json:"has_video"`
	Sessions         []models.LessonSession `json:"sessions,omitempty"`
	Completed        bool                   `json:"completed"`
	UserAnswer       string                 `json:"user_answer,omitempty"`
	PhotoURLs        []string               `json:"photo_urls,omitempty"`
}

// SubmitRequest — отправка ответа на проверку
type SubmitRequest struct {
	LessonID  uint     `json:"lesson_id"`
	Answer    string   `json:"answer"`
	PhotoURLs []string `json:"photo_urls,omitempty"`
}

// SubmitResult — итог проверки для пользователя
type SubmitResult struct {
	Approved        bool   `json:"approved"`
	Message         string `json:"message"`
	CourseCompleted bool   `json:"course_completed"`
}

type Service struct {
	db     db.Database
	grader Grader
	video  *video.Service
	unlock *progress.Evaluator
	tg     *telegram.Client
	logger *slog.Logger
}

func NewService(database db.Database, grader Grader, videoSvc *video.Service, unlock *progress.Evaluator, tg *telegram.Client, logger *slog.Logger) *Service {
	return &Service{db: database, grader: grader, video: videoSvc, unlock: unlock, tg: tg, logger: logger}
}

// ListCourses возвращает опубликованные курсы с пометкой о записи пользователя
func (s *Service) ListCourses(ctx context.Context, user *models.User) ([]CourseSummary, error) {
	courses, err := s.db.ListPublishedCourses(ctx)
	if err != nil {
		return nil, err
	}

	enrollmentByCourse := make(map[uint]models.Enrollment)
	if user != nil {
		enrollments, err := s.db.ListEnrollments(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		for _, e := range enrollments {
			// При нескольких записях приоритет у активной
			if prev, ok := enrollmentByCourse[e.CourseID]; !ok || prev.Status != models.EnrollmentActive {
				enrollmentByCourse[e.CourseID] = e
			}
		}
	}

	result := make([]CourseSummary, 0, len(courses))
	for _, c := range courses {
		lessons, err := s.db.ListCourseLessons(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		summary := CourseSummary{Course: c, LessonCount: len(lessons)}
		if e, ok := enrollmentByCourse[c.ID]; ok {
			summary.Enrolled = e.Status == models.EnrollmentActive
			summary.Completed = e.Status == models.EnrollmentCompleted
		}
		result = append(result, summary)
	}
	return result, nil
}

// GetCourse возвращает курс с уроками и их доступностью для пользователя
func (s *Service) GetCourse(ctx context.Context, user *models.User, courseID uint) (*CourseDetail, error) {
	courseRow, err := s.db.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.db.ListCourseLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}

	enrollment, progressByLesson, err := s.userCourseState(ctx, user, courseID, lessons)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	detail := &CourseDetail{Course: *courseRow, Lessons: make([]LessonState, 0, len(lessons))}
	for i := range lessons {
		decision := s.unlock.Evaluate(&lessons[i], lessons, enrollment, progressByLesson, now)
		detail.Lessons = append(detail.Lessons, LessonState{
			ID:         lessons[i].ID,
			OrderIndex: lessons[i].OrderIndex,
			Title:      lessons[i].Title,
			Unlocked:   decision.Unlocked,
			Message:    decision.Message,
			Completed:  progressByLesson[lessons[i].ID].Completed(),
		})
	}
	return detail, nil
}

// StartCourse записывает пользователя на курс. Одновременно активен только
// один курс; списание и вставка записи атомарны
func (s *Service) StartCourse(ctx context.Context, user *models.User, courseID uint) (*models.Enrollment, error) {
	if user == nil {
		return nil, fmt.Errorf("%w: no user", apperrors.ErrAuthentication)
	}
	courseRow, err := s.db.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !courseRow.IsPublished {
		return nil, fmt.Errorf("%w: course %d", apperrors.ErrNotFound, courseID)
	}

	enrollment, err := s.db.StartCourseTx(ctx, user.ID, courseID, courseRow.Price)
	if err != nil {
		return nil, err
	}

	if err := s.tg.NotifyAdmin(fmt.Sprintf("Пользователь %s (@%s) начал курс «%s»", user.FirstName, user.Username, courseRow.Title)); err != nil {
		s.logger.Warn("failed to notify admin", "error", err)
	}
	return enrollment, nil
}

// GetLesson возвращает страницу урока. Для закрытого урока контент, вопрос
// и сессии не отдаются, только причина блокировки
func (s *Service) GetLesson(ctx context.Context, user *models.User, lessonID uint) (*LessonView, error) {
	lesson, err := s.db.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.db.ListCourseLessons(ctx, lesson.CourseID)
	if err != nil {
		return nil, err
	}

	enrollment, progressByLesson, err := s.userCourseState(ctx, user, lesson.CourseID, lessons)
	if err != nil {
		return nil, err
	}

	decision := s.unlock.Evaluate(lesson, lessons, enrollment, progressByLesson, time.Now())
	view := &LessonView{
		ID:         lesson.ID,
		CourseID:   lesson.CourseID,
		OrderIndex: lesson.OrderIndex,
		Title:      lesson.Title,
		Unlocked:   decision.Unlocked,
		Message:    decision.Message,
	}
	if !decision.Unlocked {
		return view, nil
	}

	view.Description = lesson.Description
	view.Content = lesson.Content
	view.Question = lesson.Question
	view.AllowPhotoUpload = lesson.AllowPhotoUpload
	view.HasVideo = lesson.KinescopeVideoID != ""
	view.Sessions = lesson.Sessions
	if p := progressByLesson[lesson.ID]; p != nil {
		view.Completed = p.Completed()
		view.UserAnswer = p.UserAnswer
		view.PhotoURLs = models.ParsePhotoRef(p.PhotoURL).URLs
	}
	return view, nil
}

// LessonVideo резолвит видео урока через Kinescope
func (s *Service) LessonVideo(ctx context.Context, user *models.User, lessonID uint) (*video.VideoInfo, error) {
	lesson, err := s.db.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	videoID := video.ExtractVideoID(lesson.KinescopeVideoID)
	if videoID == "" {
		return nil, fmt.Errorf("%w: lesson %d has no video", apperrors.ErrNotFound, lessonID)
	}
	return s.video.Resolve(ctx, videoID)
}

// SubmitAnswer прогоняет ответ через внешнюю проверку и фиксирует исход.
// Контекст урока загружается до вызова проверки: если его нет, операция
// падает целиком без частичных состояний. Сохранение после вердикта
// обязано пройти, иначе пользователю нельзя сообщать "одобрено"
func (s *Service) SubmitAnswer(ctx context.Context, user *models.User, req SubmitRequest) (*SubmitResult, error) {
	if user == nil {
		return nil, fmt.Errorf("%w: no user", apperrors.ErrAuthentication)
	}
	if req.LessonID == 0 {
		return nil, fmt.Errorf("%w: lesson_id is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(req.Answer) == "" {
		return nil, fmt.Errorf("%w: answer is required", apperrors.ErrValidation)
	}

	lesson, err := s.db.GetLesson(ctx, req.LessonID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.db.ListCourseLessons(ctx, lesson.CourseID)
	if err != nil {
		return nil, err
	}
	enrollment, progressByLesson, err := s.userCourseState(ctx, user, lesson.CourseID, lessons)
	if err != nil {
		return nil, err
	}
	if decision := s.unlock.Evaluate(lesson, lessons, enrollment, progressByLesson, time.Now()); !decision.Unlocked {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAccessDenied, decision.Message)
	}

	photo := models.PhotoRef{URLs: req.PhotoURLs}
	verdict, err := s.grader.Grade(ctx, grading.Request{
		LessonID:         lesson.ID,
		Question:         lesson.Question,
		UserAnswer:       req.Answer,
		VideoDescription: lesson.VideoDescription,
		PhotoURL:         photo.Encode(),
		TelegramUserID:   user.TelegramID,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	prev := progressByLesson[lesson.ID]
	next := progress.ResolveOutcome(prev, verdict.Approved, progress.Submission{Answer: req.Answer, Photo: photo}, now)
	next.TelegramUserID = user.TelegramID
	next.LessonID = lesson.ID
	if err := s.db.UpsertProgress(ctx, &next); err != nil {
		return nil, err
	}

	result := &SubmitResult{Approved: verdict.Approved, Message: verdict.Message}
	if verdict.Approved && enrollment != nil {
		progressByLesson[lesson.ID] = &next
		if allCompleted(lessons, progressByLesson) {
			if err := s.db.CompleteEnrollment(ctx, enrollment.ID, now); err != nil {
				s.logger.Error("failed to complete enrollment", "enrollment_id", enrollment.ID, "error", err)
			} else {
				result.CourseCompleted = true
				if err := s.tg.NotifyUser(user.TelegramID, "Поздравляем! Вы прошли курс до конца 🎉"); err != nil {
					s.logger.Warn("failed to notify user", "error", err)
				}
			}
		}
	}
	return result, nil
}

// Cabinet — данные личного кабинета: активный курс с процентом прохождения
// и история записей
type Cabinet struct {
	User         *models.User        `json:"user"`
	ActiveCourse *ActiveCourseInfo   `json:"active_course,omitempty"`
	Enrollments  []models.Enrollment `json:"enrollments"`
}

type ActiveCourseInfo struct {
	Course           models.Course `json:"course"`
	LessonsTotal     int           `json:"lessons_total"`
	LessonsComplete  int           `json:"lessons_complete"`
	LessonsSkipped   int           `json:"lessons_skipped"`
	LessonsRemaining int           `json:"lessons_remaining"`
	ProgressPercent  int           `json:"progress_percent"`
}

func (s *Service) GetCabinet(ctx context.Context, user *models.User) (*Cabinet, error) {
	if user == nil {
		return nil, fmt.Errorf("%w: no user", apperrors.ErrAuthentication)
	}

	enrollments, err := s.db.ListEnrollments(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	cabinet := &Cabinet{User: user, Enrollments: enrollments}

	active, err := s.db.GetActiveEnrollment(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return cabinet, nil
	}

	courseRow, err := s.db.GetCourse(ctx, active.CourseID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.db.ListCourseLessons(ctx, active.CourseID)
	if err != nil {
		return nil, err
	}
	_, progressByLesson, err := s.userCourseState(ctx, user, active.CourseID, lessons)
	if err != nil {
		return nil, err
	}

	complete, skipped := 0, 0
	for _, l := range lessons {
		p := progressByLesson[l.ID]
		switch {
		case p.Completed():
			complete++
		case p != nil && p.Status == models.ProgressSkipped:
			skipped++
		}
	}
	info := &ActiveCourseInfo{
		Course:           *courseRow,
		LessonsTotal:     len(lessons),
		LessonsComplete:  complete,
		LessonsSkipped:   skipped,
		LessonsRemaining: len(lessons) - complete,
	}
	if len(lessons) > 0 {
		info.ProgressPercent = complete * 100 / len(lessons)
	}
	cabinet.ActiveCourse = info
	return cabinet, nil
}

// Админские операции с контентом

func (s *Service) AdminListCourses(ctx context.Context) ([]models.Course, error) {
	return s.db.ListAllCourses(ctx)
}

func (s *Service) AdminSaveCourse(ctx context.Context, courseRow *models.Course) error {
	if strings.TrimSpace(courseRow.Title) == "" {
		return fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if courseRow.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", apperrors.ErrValidation)
	}
	if courseRow.ID == 0 {
		return s.db.CreateCourse(ctx, courseRow)
	}
	return s.db.UpdateCourse(ctx, courseRow)
}

func (s *Service) AdminDeleteCourse(ctx context.Context, courseID uint) error {
	return s.db.DeleteCourse(ctx, courseID)
}

func (s *Service) AdminSaveLesson(ctx context.Context, lesson *models.Lesson) error {
	if strings.TrimSpace(lesson.Title) == "" {
		return fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if lesson.CourseID == 0 {
		return fmt.Errorf("%w: course_id is required", apperrors.ErrValidation)
	}
	if lesson.OrderIndex < 0 {
		return fmt.Errorf("%w: order_index must not be negative", apperrors.ErrValidation)
	}
	if _, err := s.db.GetCourse(ctx, lesson.CourseID); err != nil {
		return err
	}
	if lesson.ID == 0 {
		return s.db.CreateLesson(ctx, lesson)
	}
	return s.db.UpdateLesson(ctx, lesson)
}

func (s *Service) AdminDeleteLesson(ctx context.Context, lessonID uint) error {
	return s.db.DeleteLesson(ctx, lessonID)
}

// AdminUserProgress возвращает прогресс пользователя: по всем урокам или,
// если lessonID задан, по одному
func (s *Service) AdminUserProgress(ctx context.Context, telegramUserID int64, lessonID uint) ([]models.UserProgress, error) {
	if telegramUserID == 0 {
		return nil, fmt.Errorf("%w: telegram_user_id is required", apperrors.ErrValidation)
	}
	if lessonID != 0 {
		row, err := s.db.GetProgress(ctx, telegramUserID, lessonID)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return []models.UserProgress{}, nil
		}
		return []models.UserProgress{*row}, nil
	}
	return s.db.ListUserProgress(ctx, telegramUserID)
}

// userCourseState собирает активную запись на курс и прогресс по его урокам
func (s *Service) userCourseState(ctx context.Context, user *models.User, courseID uint, lessons []models.Lesson) (*models.Enrollment, map[uint]*models.UserProgress, error) {
	progressByLesson := make(map[uint]*models.UserProgress, len(lessons))
	if user == nil {
		return nil, progressByLesson, nil
	}

	enrollment, err := s.db.GetEnrollment(ctx, user.ID, courseID)
	if err != nil {
		return nil, nil, err
	}
	// Гейтинг уроков работает только от активной записи
	if enrollment != nil && enrollment.Status != models.EnrollmentActive {
		enrollment = nil
	}

	ids := make([]uint, 0, len(lessons))
	for _, l := range lessons {
		ids = append(ids, l.ID)
	}
	rows, err := s.db.ListProgress(ctx, user.TelegramID, ids)
	if err != nil {
		return nil, nil, err
	}
	for i := range rows {
		progressByLesson[rows[i].LessonID] = &rows[i]
	}
	return enrollment, progressByLesson, nil
}

func allCompleted(lessons []models.Lesson, progressByLesson map[uint]*models.UserProgress) bool {
	for _, l := range lessons {
		if !progressByLesson[l.ID].Completed() {
			return false
		}
	}
	return len(lessons) > 0
}
