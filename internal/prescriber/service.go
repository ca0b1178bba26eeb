package prescriber

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smarthealth/portal/internal/assistant"
	"github.com/smarthealth/portal/internal/store"
	"github.com/smarthealth/portal/pkg/logger"
	"github.com/smarthealth/portal/pkg/types"
)

// Service implements the dictation-driven prescription writer: analyze a
// free-text dictation against the patient's context, then save the
// structured result to the roster.
type Service struct {
	store  *store.Store
	client assistant.Client
	logger *logger.Logger
}

// NewService creates a new prescription writer service
func NewService(st *store.Store, client assistant.Client, log *logger.Logger) *Service {
	return &Service{
		store:  st,
		client: client,
		logger: log,
	}
}

// Analyze resolves the patient's context and asks the model to extract
// structured medications and check their safety. A failed gateway call is
// absorbed into the fixed negative-safety result; it is a valid answer, not
// an error.
func (s *Service) Analyze(ctx context.Context, patientID, dictation string) (types.PrescriptionAnalysis, error) {
	if dictation == "" {
		return types.PrescriptionAnalysis{}, types.NewValidationError(types.ErrCodeInvalidInput, "dictation text is required")
	}

	patient, err := s.store.Patient(patientID)
	if err != nil {
		return types.PrescriptionAnalysis{}, err
	}

	result, err := s.client.AnalyzePrescription(ctx, dictation, patient.Context())
	if err != nil {
		s.logger.WithComponent("prescriber").WithError(err).WithField("patient_id", patientID).Warn("Prescription analysis failed, returning negative result")
		return assistant.FallbackAnalysis(), nil
	}

	s.logger.WithFields(map[string]interface{}{
		"patient_id":  patientID,
		"safe":        result.Safe,
		"medications": len(result.Medications),
		"warnings":    len(result.Warnings),
	}).Info("Prescription analyzed")
	return result, nil
}

// Save builds a prescription from the confirmed medications and prepends it
// to the patient's list. Whether a negative analysis blocks saving is UI
// policy; the store accepts any structured prescription.
func (s *Service) Save(patientID, doctorName string, medications []types.Medication, notes string) (types.Prescription, error) {
	if len(medications) == 0 {
		return types.Prescription{}, types.NewValidationError(types.ErrCodeInvalidInput, "at least one medication is required")
	}

	rx := types.Prescription{
		ID:          uuid.New().String(),
		Date:        time.Now().Format("2006-01-02"),
		DoctorName:  doctorName,
		Medications: medications,
		Notes:       notes,
	}

	if err := s.store.AddPrescription(patientID, rx); err != nil {
		return types.Prescription{}, err
	}

	return rx, nil
}
