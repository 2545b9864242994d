package identity

// Role is the closed set of actor kinds in the school system. Every
// principal has exactly one role at any instant.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleParent  Role = "parent"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

// Normalize maps a stored role string onto the closed set. Unknown values
// collapse to the least-privileged role rather than the most-privileged
// one.
func Normalize(s string) Role {
	if r := Role(s); r.Valid() {
		return r
	}
	return RoleStudent
}

// Principal is an authenticated actor with their resolved role.
type Principal struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	ClassOrDept string `json:"class_or_dept,omitempty"`
}
