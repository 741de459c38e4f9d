package domain

// Role is the authenticated caller's role as asserted by the session service.
type Role string

const (
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleSupervisor || r == RoleAdmin
}
