package rbac

// Permission представляет разрешение в админ-панели
type Permission string

const (
	// Расписание и консультации
	PermissionSlotsManage         Permission = "slots:manage"
	PermissionConsultationsView   Permission = "consultations:view"
	PermissionConsultationsManage Permission = "consultations:manage"

	// Контент курсов
	PermissionContentView   Permission = "content:view"
	PermissionContentManage Permission = "content:manage"

	// Пользователи и прогресс
	PermissionProgressView Permission = "progress:view"

	// Административные разрешения
	PermissionAdminManage Permission = "admin:manage"
	PermissionAuditView   Permission = "audit:view"
)

// Role представляет роль администратора
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
)

// RBAC управляет ролями и разрешениями
type RBAC struct {
	rolePermissions map[Role][]Permission
}

// NewRBAC создает новый RBAC менеджер
func NewRBAC() *RBAC {
	rbac := &RBAC{
		rolePermissions: make(map[Role][]Permission),
	}
	rbac.initializeRolePermissions()
	return rbac
}

// initializeRolePermissions инициализирует разрешения для каждой роли
func (r *RBAC) initializeRolePermissions() {
	// Admin - все разрешения
	r.rolePermissions[RoleAdmin] = []Permission{
		PermissionSlotsManage,
		PermissionConsultationsView,
		PermissionConsultationsManage,
		PermissionContentView,
		PermissionContentManage,
		PermissionProgressView,
		PermissionAdminManage,
		PermissionAuditView,
	}

	// Manager - ведёт расписание и заявки, но не трогает контент,
	// админов и журнал
	r.rolePermissions[RoleManager] = []Permission{
		PermissionSlotsManage,
		PermissionConsultationsView,
		PermissionConsultationsManage,
		PermissionContentView,
		PermissionProgressView,
	}
}

// CheckPermissionWithRole проверяет разрешение для указанной роли
func (r *RBAC) CheckPermissionWithRole(role Role, permission Permission) bool {
	for _, p := range r.rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// GetRolePermissions возвращает список разрешений роли
func (r *RBAC) GetRolePermissions(role Role) []Permission {
	perms := r.rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// IsValidRole проверяет, что роль существует
func (r *RBAC) IsValidRole(role Role) bool {
	_, ok := r.rolePermissions[role]
	return ok
}
