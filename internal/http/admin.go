package http

import (
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/kurshub/miniapp-backend/internal/audit"
	"github.com/kurshub/miniapp-backend/internal/models"
	"github.com/kurshub/miniapp-backend/internal/rbac"
)

// requirePermission проверяет разрешение роли из JWT claims
func (s *Server) requirePermission(w http.ResponseWriter, r *http.Request, permission rbac.Permission) bool {
	claims, ok := GetAdminClaims(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "authentication required")
		return false
	}
	if !s.rbac.CheckPermissionWithRole(rbac.Role(claims.Role), permission) {
		s.writeError(w, http.StatusForbidden, "access denied")
		return false
	}
	return true
}

// AdminLogin аутентифицирует администратора
// @Summary	Вход в админ-панель
// @Tags		admin
// @Accept		json
// @Produce	json
// @Param		request	body		AdminLoginRequest	true	"Учетные данные"
// @Success	200	{object}	AdminLoginResponse
// @Failure	401	{object}	ErrorResponse
// @Router		/admin/auth/login [post]
func (s *Server) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := s.validateRequest(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	admin, err := s.db.GetAdminByEmail(r.Context(), req.Email)
	if err != nil {
		// Не раскрываем, существует ли такой email
		s.writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		s.writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if s.jwtManager == nil {
		s.writeError(w, http.StatusServiceUnavailable, "admin auth is not configured")
		return
	}

	access, refresh, err := s.jwtManager.GenerateTokenPair(admin.ID, admin.Email, admin.Role)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	_ = s.auditService.LogAction(r.Context(), audit.Record{
		AdminID: admin.ID,
		Action:  audit.ActionAdminLogin,
		Entity:  "admin_user",
	})

	s.writeJSON(w, http.StatusOK, AdminLoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		Role:         admin.Role,
	})
}

// AdminRefreshToken обновляет access токен
// @Summary	Обновление access токена
// @Tags		admin
// @Accept		json
// @Produce	json
// @Param		request	body		RefreshTokenRequest	true	"Refresh токен"
// @Success	200	{object}	RefreshTokenResponse
// @Failure	401	{object}	ErrorResponse
// @Router		/admin/auth/refresh [post]
func (s *Server) AdminRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := s.validateRequest(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}
	if s.jwtManager == nil {
		s.writeError(w, http.StatusServiceUnavailable, "admin auth is not configured")
		return
	}

	access, err := s.jwtManager.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		s.writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, RefreshTokenResponse{AccessToken: access})
}

// AdminMe возвращает текущего администратора. Данные берутся из базы, а не
// из claims: роль могла смениться после выпуска токена
// @Summary	Текущий администратор
// @Tags		admin
// @Produce	json
// @Success	200	{object}	AdminMeResponse
// @Failure	401	{object}	ErrorResponse
// @Router		/admin/me [get]
func (s *Server) AdminMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetAdminClaims(r)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	admin, err := s.db.GetAdminByID(r.Context(), claims.AdminID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, AdminMeResponse{
		ID:          admin.ID,
		Email:       admin.Email,
		Role:        admin.Role,
		Permissions: s.rbac.GetRolePermissions(rbac.Role(admin.Role)),
	})
}

// AdminListSlots возвращает окна доступности за диапазон дат
// @Summary	Слоты за период
// @Tags		admin
// @Produce	json
// @Param		from	query		string	true	"Начало YYYY-MM-DD"
// @Param		to		query		string	true	"Конец YYYY-MM-DD"
// @Success	200	{array}	models.ConsultationSlot
// @Router		/admin/slots [get]
func (s *Server) AdminListSlots(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.PermissionSlotsManage) {
		return
	}
	slots, err := s.bookingService.ListSlots(r.Context(), r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, slots)
}

// AdminCreateSlot создаёт окно доступности
// @Summary	Создать слот
// @Tags		admin
// @Accept		json
// @Produce	json
// @Param		request	body		SlotRequest	true	"Слот"
// @Success	201	{object}	models.ConsultationSlot
// @Router		/admin/slots [post]
func (s *Server) AdminCreateSlot(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.PermissionSlotsManage) {
		return
	}
	var req SlotRequest
	if err := s.validateRequest(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	slot := &models.ConsultationSlot{
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsAvailable: true,
	}
	if req.IsAvailable != nil {
		slot.IsAvailable = *req.IsAvailable
	}
	if err := s.bookingService.CreateSlot(r.Context(), slot); err != nil {
		s.writeDomainError(w, err)
		return
	}

	claims, _ := GetAdminClaims(r)
	_ = s.auditService.LogAction(r.Context(), audit.Record{
		AdminID:  claims.AdminID,
		Action:   audit.ActionSlotCreate,
		Entity:   "consultation_slot",
		EntityID: slot.ID,
		Details:  map[string]any{"date": slot.Date, "start": slot.StartTime, "end": slot.EndTime},
	})
	s.writeJSON(w, http.StatusCreated, slot)
}

// AdminUpdateSlot изменяет окно доступности
// @Summary	Изменить слот
// @Tags		admin
// @Accept		json
// @Produce	json
// @Param		id		path	int			true	"ID слота"
// @Param		request	body	SlotRequest	true	"Слот"
// @Success	200	{object}	models.ConsultationSlot
// @Router		/admin/slots/{id} [put]
func (s *Server) AdminUpdateSlot(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.PermissionSlotsManage) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid slot id")
		return
	}
	var req SlotRequest
	if err := s.validateRequest(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	slot := &models.ConsultationSlot{
		ID:          id,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsAvailable: true,
	}
	if req.IsAvailable != nil {
		slot.IsAvailable = *req.IsAvailable
	}
	if err := s.bookingService.UpdateSlot(r.Context(), slot); err != nil {
		s.writeDomainError(w, err)
		return
	}

	claims, _ := GetAdminClaims(r)
	_ = s.auditService.LogAction(r.Context(), audit.Record{
		AdminID:  claims.AdminID,
		Action:   audit.ActionSlotUpdate,
		Entity:   "consultation_slot",
		EntityID: id,
	})
	s.writeJSON(w, http.StatusOK, slot)
}

// AdminDeleteSlot удаляет окно доступности
// @Summary	Удалить слот
// @Tags		admin
// @Produce	json
// @Param		id	path	int	true	"ID слота"
// @Success	200	{object}	SuccessResponse
// @Router		/admin/slots/{id} [delete]
func (s *Server) AdminDeleteSlot(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.PermissionSlotsManage) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid slot id")
		return
	}
	if err := s.bookingService.DeleteSlot(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}

	claims, _ := GetAdminClaims(r)
	_ = s.auditService.LogAction(r.Context(), audit.Record{
		AdminID:  claims.AdminID,
		Action:   audit.ActionSlotDelete,
		Entity:   "consultation_slot",
		EntityID: id,
	})
	s.writeJSON(w, http.StatusOK, SuccessResponse{Message: "Слот удалён"})
}

// AdminDayCalendar возвращает почасовую раскраску дня
// @Summary	Календарь дня
// @Tags		admin
// @Produce	json
// @Param		date	query		string	true	"Дата YYYY-MM-DD"
// @Success	200	{array}	booking.HourInfo
// @Router		/admin/calendar [get]
func (s *Server) AdminDayCalendar(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.PermissionSlotsManage) {
		return
	}
	hours, err := s.bookingService.DayCalendar(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, hours)
}

// AdminListConsultations возвращает брони с фильтрами
// @Summary	Список броней
// @Tags		admin
// @Produce	json
// @Param		status	query		string	false	"Статус"
// @Param		date	query		string	false	"Дата YYYY-MM-DD"
// @Success	200	{array}	models.Consultation
// @Router		/admin/consultations [get]
func (s *Server) AdminListConsultations(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.PermissionConsultationsView) {
		return
	}
	list, err := s.bookingService.List(r.Context(), r.URL.Query().Get("status"), r.URL.Query().Get("date"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

// AdminSetConsultationStatus меняет статус брони
// @Summary	Сменить статус брони
// @Tags		admin
// @Accept		json
// @Produce	json
// @Param		id		path	int							true	"ID брони"
// @Param		request	body	ConsultationStatusRequest	true	"Статус"
// @Success	200	{object}	SuccessResponse
// @Router		/admin/consultations/{id}/status [post]
func (s *Server) AdminSetConsultationStatus(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.PermissionConsultationsManage) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid consultation id")
		return
	}
	var req ConsultationStatusRequest
	if err := s.validateRequest(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}
	if err := s.bookingService.SetStatus(r.Context(), id, req.Status); err != nil {
		s.writeDomainError(w, err)
		return
	}

	claims, _ := GetAdminClaims(r)
	_ = s.auditService.LogAction(r.Context(), audit.Record{
		AdminID:  claims.AdminID,
		Action:   audit.ActionConsultationStatus,
		Entity:   "consultation",
		EntityID: id,
		Details:  map[string]any{"status": req.Status},
	})
	s.writeJSON(w, http.StatusOK, SuccessResponse{Message: "Статус обновлён"})
}

// AdminListCourses возвращает все курсы, включая неопубликованные
// @Summary	Все курсы
// @Tags		admin
// @Produce	json
// @Success	200	{array}	models.Course
// @Router		/admin/courses [get]
func (s *Server) AdminListCourses(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.PermissionContentView) {
		return
	}
	courses, err := s.courseService.AdminListCourses(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, courses)
}

// AdminCreateCourse создаёт курс
// @Summary	Создать курс
// @Tags		admin
// @Accept		json
// @Produce	json
// @Param		request	body		CourseRequest	true	"Курс"
// @Success	201	{object}	models.Course
// @Router		/admin/courses [post]
func (s *Server) AdminCreateCourse(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.PermissionContentManage) {
		return
	}
	var req CourseRequest
	if err := s.validateRequest(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	courseRow := req.toModel(0)
	if err := s.courseService.AdminSaveCourse(r.Context(), courseRow); err != nil {
		s.writeDomainError(w, err)
		return
	}

	claims, _ := GetAdminClaims(r)
	_ = s.auditService.LogAction(r.Context(), audit.Record{
		AdminID:  claims.AdminID,
		Action:   audit.ActionCourseCreate,
		Entity:   "course",
		EntityID: courseRow.ID,
		Details:  map[string]any{"title": courseRow.Title},
	})
	s.writeJSON(w, http.StatusCreated, courseRow)
}

// AdminUpdateCourse изменяет курс
// @Summary	Изменить курс
// @Tags		admin
// @Accept		json
// @Produce	json
// @Param		id		path	int				true	"ID курса"
// @Param		request	body	CourseRequest	true	"Курс"
// @Success	200	{object}	models.Course
// @Router		/admin/courses/{id} [put]
func (s *Server) AdminUpdateCourse(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.PermissionContentManage) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}
	var req CourseRequest
	if err := s.validateRequest(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	courseRow := req.toModel(id)
	if err := s.courseService.AdminSaveCourse(r.Context(), courseRow); err != nil {
		s.writeDomainError(w, err)
		return
	}

	claims, _ := GetAdminClaims(r)
	_ = s.auditService.LogAction(r.Context(), audit.Record{
		AdminID:  claims.AdminID,
		Action:   audit.ActionCourseUpdate,
		Entity:   "course",
		EntityID: id,
	})
	s.writeJSON(w, http.StatusOK, courseRow)
}

// AdminDeleteCourse удаляет курс вместе с уроками
// @Summary	Удалить курс
// @Tags		admin
// @Produce	json
// @Param		id	path	int	true	"ID курса"
// @Success	200	{object}	SuccessResponse
// @Router		/admin/courses/{id} [delete]
func (s *Server) AdminDeleteCourse(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.PermissionContentManage) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid course id")
		return
	}
	if err := s.courseService.AdminDeleteCourse(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}

	claims, _ := GetAdminClaims(r)
	_ = s.auditService.LogAction(r.Context(), audit.Record{
		AdminID:  claims.AdminID,
		Action:   audit.ActionCourseDelete,
		Entity:   "course",
		EntityID: id,
	})
	s.writeJSON(w, http.StatusOK, SuccessResponse{Message: "Курс удалён"})
}

// AdminCreateLesson создаёт урок
// @Summary	Создать урок
// @Tags		admin
// @Accept		json
// @Produce	json
// @Param		request	body		LessonRequest	true	"Урок"
// @Success	201	{object}	models.Lesson
// @Router		/admin/lessons [post]
func (s *Server) AdminCreateLesson(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.PermissionContentManage) {
		return
	}
	var req LessonRequest
	if err := s.validateRequest(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	lesson := req.toModel(0)
	if err := s.courseService.AdminSaveLesson(r.Context(), lesson); err != nil {
		s.writeDomainError(w, err)
		return
	}

	claims, _ := GetAdminClaims(r)
	_ = s.auditService.LogAction(r.Context(), audit.Record{
		AdminID:  claims.AdminID,
		Action:   audit.ActionLessonCreate,
		Entity:   "lesson",
		EntityID: lesson.ID,
		Details:  map[string]any{"course_id": lesson.CourseID, "title": lesson.Title},
	})
	s.writeJSON(w, http.StatusCreated, lesson)
}

// AdminUpdateLesson изменяет урок
// @Summary	Изменить урок
// @Tags		admin
// @Accept		json
// @Produce	json
// @Param		id		path	int				true	"ID урока"
// @Param		request	body	LessonRequest	true	"Урок"
// @Success	200	{object}	models.Lesson
// @Router		/admin/lessons/{id} [put]
func (s *Server) AdminUpdateLesson(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.PermissionContentManage) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}
	var req LessonRequest
	if err := s.validateRequest(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	lesson := req.toModel(id)
	if err := s.courseService.AdminSaveLesson(r.Context(), lesson); err != nil {
		s.writeDomainError(w, err)
		return
	}

	claims, _ := GetAdminClaims(r)
	_ = s.auditService.LogAction(r.Context(), audit.Record{
		AdminID:  claims.AdminID,
		Action:   audit.ActionLessonUpdate,
		Entity:   "lesson",
		EntityID: id,
	})
	s.writeJSON(w, http.StatusOK, lesson)
}

// AdminDeleteLesson удаляет урок
// @Summary	Удалить урок
// @Tags		admin
// @Produce	json
// @Param		id	path	int	true	"ID урока"
// @Success	200	{object}	SuccessResponse
// @Router		/admin/lessons/{id} [delete]
func (s *Server) AdminDeleteLesson(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.PermissionContentManage) {
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid lesson id")
		return
	}
	if err := s.courseService.AdminDeleteLesson(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}

	claims, _ := GetAdminClaims(r)
	_ = s.auditService.LogAction(r.Context(), audit.Record{
		AdminID:  claims.AdminID,
		Action:   audit.ActionLessonDelete,
		Entity:   "lesson",
		EntityID: id,
	})
	s.writeJSON(w, http.StatusOK, SuccessResponse{Message: "Урок удалён"})
}

// AdminUserProgress возвращает прогресс пользователя по всем урокам или по
// одному, если передан lesson_id
// @Summary	Прогресс пользователя
// @Tags		admin
// @Produce	json
// @Param		telegram_user_id	query		int	true	"Telegram ID пользователя"
// @Param		lesson_id			query		int	false	"ID урока"
// @Success	200	{array}	models.UserProgress
// @Router		/admin/progress [get]
func (s *Server) AdminUserProgress(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.PermissionProgressView) {
		return
	}
	telegramUserID, _ := strconv.ParseInt(r.URL.Query().Get("telegram_user_id"), 10, 64)
	lessonID, _ := strconv.ParseUint(r.URL.Query().Get("lesson_id"), 10, 32)
	rows, err := s.courseService.AdminUserProgress(r.Context(), telegramUserID, uint(lessonID))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

// AdminListAuditLogs возвращает страницу журнала действий
// @Summary	Журнал действий
// @Tags		admin
// @Produce	json
// @Param		limit	query		int	false	"Размер страницы"
// @Param		offset	query		int	false	"Смещение"
// @Success	200	{array}	models.AuditLog
// @Router		/admin/audit [get]
func (s *Server) AdminListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if !s.requirePermission(w, r, rbac.PermissionAuditView) {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	logs, err := s.auditService.List(r.Context(), limit, offset)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, logs)
}
