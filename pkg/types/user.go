package types

// Role represents the two user roles in the portal
type Role string

const (
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
)

// Valid reports whether the role is one the portal recognizes
func (r Role) Valid() bool {
	return r == RoleDoctor || r == RolePatient
}

// User represents a portal user
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Email string `json:"email"`
}
