package enums

// UserRole identifies the capability tier of an authenticated user.
type UserRole string

const (
	RoleMember    UserRole = "member"
	RoleOrganizer UserRole = "organizer"
	RoleAdmin     UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	switch r {
	case RoleMember, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}
