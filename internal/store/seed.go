package store

import (
	"time"

	"github.com/smarthealth/portal/pkg/types"
)

// Seed data for the demo roster. Patients and the doctor live for the
// process lifetime; there is no deletion path.

func seedDoctor() types.User {
	return types.User{
		ID:    "d1",
		Name:  "Dr. Sarah Connor",
		Role:  types.RoleDoctor,
		Email: "sarah.connor@clinic.com",
	}
}

func seedPatients() []*types.Patient {
	return []*types.Patient{
		{
			User: types.User{
				ID:    "p1",
				Name:  "John Doe",
				Role:  types.RolePatient,
				Email: "john@example.com",
			},
			Age:               45,
			BloodGroup:        "O+",
			Phone:             "+1 (555) 123-4567",
			Address:           "123 Main St, New York, NY",
			Allergies:         []string{"Penicillin", "Peanuts"},
			ChronicConditions: []string{"Hypertension", "Asthma"},
			History: []types.MedicalRecord{
				{ID: "h1", Date: "2023-10-15", Type: types.RecordConsultation, Condition: "Flu Symptoms", Notes: "Prescribed rest and hydration."},
				{ID: "h2", Date: "2023-11-20", Type: types.RecordLabReport, Condition: "Annual Checkup", Notes: "Cholesterol slightly elevated."},
			},
			Prescriptions: []types.Prescription{
				{
					ID:         "pr1",
					Date:       "2023-10-15",
					DoctorName: "Dr. Smith",
					Medications: []types.Medication{
						{Name: "Paracetamol", Dosage: "500mg", Frequency: "Every 6 hours", Duration: "5 days"},
					},
				},
			},
			Reports: []types.MedicalReport{
				{ID: "r1", Name: "Blood_Test_Oct23.pdf", Date: "2023-10-15", Type: types.ReportPDF, URL: ""},
			},
		},
		{
			User: types.User{
				ID:    "p2",
				Name:  "Jane Smith",
				Role:  types.RolePatient,
				Email: "jane@example.com",
			},
			Age:               32,
			BloodGroup:        "A-",
			Phone:             "+1 (555) 987-6543",
			Address:           "456 Oak Ave, San Francisco, CA",
			Allergies:         []string{},
			ChronicConditions: []string{"Diabetes Type 2"},
			History:           []types.MedicalRecord{},
			Prescriptions:     []types.Prescription{},
			Reports:           []types.MedicalReport{},
		},
	}
}

func seedAlerts() []*types.SOSAlert {
	return []*types.SOSAlert{
		{
			ID:          "sos1",
			PatientID:   "p1",
			PatientName: "John Doe",
			Timestamp:   time.Now().Add(-30 * time.Minute),
			Location:    &types.Location{Lat: 40.7128, Lng: -74.0060},
			Status:      types.AlertActive,
		},
	}
}
