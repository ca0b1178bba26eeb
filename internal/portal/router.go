package portal

import "github.com/smarthealth/portal/pkg/types"

// Screen identifiers the shell can render
const (
	ScreenDoctorDashboard  = "dashboard"
	ScreenDoctorPatients   = "patients"
	ScreenPatientHealth    = "health"
	ScreenPatientAssistant = "assistant"
	ScreenPatientProfile   = "profile"
)

// ResolveScreen maps (role, selected tab) to the view to render. An
// unrecognized tab falls back to the role's default; never an error.
func ResolveScreen(role types.Role, tabID string) string {
	if role == types.RolePatient {
		switch tabID {
		case ScreenPatientHealth, ScreenPatientAssistant, ScreenPatientProfile:
			return tabID
		default:
			return ScreenPatientHealth
		}
	}

	switch tabID {
	case ScreenDoctorDashboard, ScreenDoctorPatients:
		return tabID
	default:
		return ScreenDoctorDashboard
	}
}

// DefaultScreen is the landing view for a freshly established session
func DefaultScreen(role types.Role) string {
	if role == types.RolePatient {
		return ScreenPatientHealth
	}
	return ScreenDoctorDashboard
}
