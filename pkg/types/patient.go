package types

// RecordType categorizes a historical medical record
type RecordType string

const (
	RecordConsultation RecordType = "Consultation"
	RecordLabReport    RecordType = "Lab Report"
	RecordEmergency    RecordType = "Emergency"
)

// MedicalRecord is an immutable historical fact about a patient
type MedicalRecord struct {
	ID        string     `json:"id"`
	Date      string     `json:"date"`
	Condition string     `json:"condition"`
	Notes     string     `json:"notes"`
	Type      RecordType `json:"type"`
}

// ReportType distinguishes uploaded report formats
type ReportType string

const (
	ReportPDF   ReportType = "PDF"
	ReportImage ReportType = "IMAGE"
)

// MedicalReport represents a patient-uploaded document. Immutable after creation.
type MedicalReport struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Date string     `json:"date"`
	Type ReportType `json:"type"`
	URL  string     `json:"url"`
}

// Medication is a value type embedded in prescriptions
type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

// Prescription represents a doctor-issued prescription. Immutable after creation.
type Prescription struct {
	ID          string       `json:"id"`
	Date        string       `json:"date"`
	DoctorName  string       `json:"doctorName"`
	Medications []Medication `json:"medications"`
	Notes       string       `json:"notes,omitempty"`
}

// Patient represents a roster member. Prescriptions and reports are
// maintained newest-first; insertion is always a prepend.
type Patient struct {
	User
	Age               int             `json:"age"`
	BloodGroup        string          `json:"bloodGroup"`
	Phone             string          `json:"phone,omitempty"`
	Address           string          `json:"address,omitempty"`
	Allergies         []string        `json:"allergies"`
	ChronicConditions []string        `json:"chronicConditions"`
	History           []MedicalRecord `json:"history"`
	Prescriptions     []Prescription  `json:"prescriptions"`
	Reports           []MedicalReport `json:"reports"`
}

// Context projects the fields the prescription analyzer needs
func (p *Patient) Context() PatientContext {
	return PatientContext{
		Allergies:         p.Allergies,
		ChronicConditions: p.ChronicConditions,
		Age:               p.Age,
	}
}

// PatientProfileUpdate carries a partial profile update. Nil fields are left
// unchanged; Allergies and ChronicConditions replace the existing lists
// wholesale when provided.
type PatientProfileUpdate struct {
	Name              *string   `json:"name,omitempty"`
	Email             *string   `json:"email,omitempty"`
	Age               *int      `json:"age,omitempty"`
	BloodGroup        *string   `json:"bloodGroup,omitempty"`
	Phone             *string   `json:"phone,omitempty"`
	Address           *string   `json:"address,omitempty"`
	Allergies         *[]string `json:"allergies,omitempty"`
	ChronicConditions *[]string `json:"chronicConditions,omitempty"`
}
