package enums

import "fmt"

// UserRole distinguishes platform actors.
type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleEducator UserRole = "educator"
	UserRoleStudent  UserRole = "student"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleEducator,
	UserRoleStudent,
}

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
