package types

import "fmt"

// Role is the closed set of account roles. Authorization points switch on
// it exhaustively instead of sprinkling boolean predicates around.
type Role string

const (
	RoleStudent   Role = "student"
	RoleTeacher   Role = "teacher"
	RoleMethodist Role = "methodist"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleTeacher, RoleMethodist:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleMethodist:
		return true
	}
	return false
}
