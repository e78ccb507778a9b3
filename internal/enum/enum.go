package enum

// ── Roles (roles table, seeded by the init migration) ──

const (
	UserRoleAdmin    = "ADMIN"
	UserRoleEmployee = "EMPLOYEE"
	UserRoleUnknown  = "UNKNOWN"
)

const (
	RoleIDAdmin    int16 = 1
	RoleIDEmployee int16 = 2
)

// ── Order lifecycle (order_status enum in DB) ──

const (
	OrderStatusPending   = "PENDING"
	OrderStatusCompleted = "COMPLETED"
)

// ── Event topics (WebSocket rooms) ──

const (
	TopicOrders   = "orders"
	TopicInvoices = "invoices"
)

// RoleName maps a role_id to its name. Unrecognised ids are UNKNOWN and
// pass no role gate.
func RoleName(id int16) string {
	switch id {
	case RoleIDAdmin:
		return UserRoleAdmin
	case RoleIDEmployee:
		return UserRoleEmployee
	default:
		return UserRoleUnknown
	}
}

// RoleID is the inverse of RoleName. ok is false for anything that is not
// ADMIN or EMPLOYEE.
func RoleID(name string) (int16, bool) {
	switch name {
	case UserRoleAdmin:
		return RoleIDAdmin, true
	case UserRoleEmployee:
		return RoleIDEmployee, true
	default:
		return 0, false
	}
}

func IsStaffRole(role string) bool {
	return role == UserRoleAdmin || role == UserRoleEmployee
}
