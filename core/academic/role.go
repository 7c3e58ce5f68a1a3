package academic

import "fmt"

type RoleKind string

const (
	RoleNone    RoleKind = "none"
	RoleStudent RoleKind = "student"
	RoleTeacher RoleKind = "teacher"
	RoleBoard   RoleKind = "academic_board"
)

// Role is what a user acts as: exactly one of Student, Teacher or AcademicBoard member, or none.
// ProfileID is the id of the matching profile (Student.ID, Teacher.ID or BoardMember.ID).
type Role struct {
	Kind      RoleKind `json:"kind"`
	ProfileID int64    `json:"profile_id,omitempty"`
}

func StudentRole(id int64) Role { return Role{Kind: RoleStudent, ProfileID: id} }
func TeacherRole(id int64) Role { return Role{Kind: RoleTeacher, ProfileID: id} }
func BoardRole(id int64) Role   { return Role{Kind: RoleBoard, ProfileID: id} }
func NoRole() Role              { return Role{Kind: RoleNone} }

// ParseRole rebuilds a Role from its claims representation.
func ParseRole(kind string, profileID int64) (Role, error) {
	switch k := RoleKind(kind); k {
	case RoleStudent, RoleTeacher, RoleBoard:
		if profileID <= 0 {
			return NoRole(), fmt.Errorf("role %q without profile", kind)
		}
		return Role{Kind: k, ProfileID: profileID}, nil
	case RoleNone, "":
		return NoRole(), nil
	default:
		return NoRole(), fmt.Errorf("unknown role %q", kind)
	}
}

func (r Role) IsStudent() bool { return r.Kind == RoleStudent }
func (r Role) IsTeacher() bool { return r.Kind == RoleTeacher }
func (r Role) IsBoard() bool   { return r.Kind == RoleBoard }
func (r Role) IsNone() bool    { return !(r.IsStudent() || r.IsTeacher() || r.IsBoard()) }

func (r Role) String() string {
	if r.IsNone() {
		return string(RoleNone)
	}
	return fmt.Sprintf("%s:%d", r.Kind, r.ProfileID)
}
