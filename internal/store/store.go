package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/smarthealth/portal/pkg/logger"
	"github.com/smarthealth/portal/pkg/monitoring"
	"github.com/smarthealth/portal/pkg/types"
)

// Session is the currently authenticated user driving the portal. When the
// role is PATIENT, Patient holds a snapshot of the matching roster entry;
// the store re-derives it after every roster mutation so the two never
// diverge.
type Session struct {
	User    types.User     `json:"user"`
	Patient *types.Patient `json:"patient,omitempty"`
}

// Store is the single authoritative in-memory source of truth for session
// identity, the patient roster, and the alert roster. Every operation is one
// indivisible step under a single mutex; reads return copies, never interior
// pointers.
type Store struct {
	mu      sync.Mutex
	logger  *logger.Logger
	metrics *monitoring.MetricsCollector
	doctor  types.User
	session *Session
	roster  []*types.Patient
	alerts  []*types.SOSAlert
}

// New creates a store populated with the seed roster, the fixed doctor
// identity, and the seed alerts. metrics may be nil.
func New(log *logger.Logger, metrics *monitoring.MetricsCollector) *Store {
	return &Store{
		logger:  log,
		metrics: metrics,
		doctor:  seedDoctor(),
		roster:  seedPatients(),
		alerts:  seedAlerts(),
	}
}

func (s *Store) recordOp(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordStoreOperation(operation, outcome)
	}
}

// Login establishes the session for the given role. For DOCTOR the fixed
// doctor identity is used. For PATIENT the ID is resolved in the roster,
// defaulting to the first roster entry when empty; an unknown ID leaves the
// session untouched.
func (s *Store) Login(role types.Role, patientID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !role.Valid() {
		s.recordOp("login", "invalid")
		return Session{}, types.NewValidationError(types.ErrCodeInvalidInput, "unknown role")
	}

	if role == types.RoleDoctor {
		s.session = &Session{User: s.doctor}
		s.logger.WithField("user_id", s.doctor.ID).Info("Doctor session established")
		s.recordOp("login", "ok")
		return *s.session, nil
	}

	var patient *types.Patient
	if patientID == "" {
		if len(s.roster) == 0 {
			s.recordOp("login", "not_found")
			return Session{}, types.NewNotFoundError(types.ErrCodeNotFound, "patient roster is empty")
		}
		patient = s.roster[0]
	} else {
		patient = s.findPatientLocked(patientID)
		if patient == nil {
			s.logger.WithField("patient_id", patientID).Warn("Login for unknown patient")
			s.recordOp("login", "not_found")
			return Session{}, types.NewNotFoundError(types.ErrCodeNotFound, "patient not found")
		}
	}

	snapshot := clonePatient(patient)
	s.session = &Session{User: snapshot.User, Patient: &snapshot}
	s.logger.WithField("user_id", snapshot.ID).Info("Patient session established")
	s.recordOp("login", "ok")
	return s.copySessionLocked(), nil
}

// Logout clears the session unconditionally
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		s.logger.WithField("user_id", s.session.User.ID).Info("Session cleared")
	}
	s.session = nil
}

// Session returns a copy of the current session, if any
func (s *Store) Session() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return Session{}, false
	}
	return s.copySessionLocked(), true
}

// Patients returns a copy of the roster
func (s *Store) Patients() []types.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()

	return lo.Map(s.roster, func(p *types.Patient, _ int) types.Patient {
		return clonePatient(p)
	})
}

// Patient returns a copy of the roster entry with the given ID
func (s *Store) Patient(id string) (types.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findPatientLocked(id)
	if p == nil {
		return types.Patient{}, types.NewNotFoundError(types.ErrCodeNotFound, "patient not found")
	}
	return clonePatient(p), nil
}

// Alerts returns a copy of the alert roster, newest first
func (s *Store) Alerts() []types.SOSAlert {
	s.mu.Lock()
	defer s.mu.Unlock()

	return lo.Map(s.alerts, func(a *types.SOSAlert, _ int) types.SOSAlert {
		return cloneAlert(a)
	})
}

// ActiveAlertCount reports how many alerts are currently Active
func (s *Store) ActiveAlertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return lo.CountBy(s.alerts, func(a *types.SOSAlert) bool {
		return a.Status == types.AlertActive
	})
}

// TriggerSOS raises a new Active alert for the current patient session. The
// location is stored unchanged; the zero-coordinate sentinel is the caller's
// fallback when geolocation is unavailable.
func (s *Store) TriggerSOS(location *types.Location) (types.SOSAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || s.session.User.Role != types.RolePatient {
		s.logger.Audit(s.sessionUserIDLocked(), "trigger_sos", "alerts", false, nil)
		s.recordOp("trigger_sos", "denied")
		return types.SOSAlert{}, types.NewForbiddenError(types.ErrCodeForbidden, "only a patient session can trigger SOS")
	}

	// Copy the location so the caller cannot reach store state afterwards
	var loc *types.Location
	if location != nil {
		l := *location
		loc = &l
	}

	alert := &types.SOSAlert{
		ID:          uuid.New().String(),
		PatientID:   s.session.User.ID,
		PatientName: s.session.User.Name,
		Timestamp:   time.Now(),
		Location:    loc,
		Status:      types.AlertActive,
	}
	s.alerts = append([]*types.SOSAlert{alert}, s.alerts...)

	s.logger.WithFields(map[string]interface{}{
		"alert_id":   alert.ID,
		"patient_id": alert.PatientID,
	}).Info("SOS alert raised")
	s.recordOp("trigger_sos", "ok")
	return cloneAlert(alert), nil
}

// ResolveAlert transitions an alert Active -> Resolved. Resolving an already
// resolved alert is a no-op; the transition is one-way and terminal.
func (s *Store) ResolveAlert(alertID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alert, found := lo.Find(s.alerts, func(a *types.SOSAlert) bool {
		return a.ID == alertID
	})
	if !found {
		s.recordOp("resolve_alert", "not_found")
		return types.NewNotFoundError(types.ErrCodeNotFound, "alert not found")
	}

	if alert.Status == types.AlertResolved {
		s.recordOp("resolve_alert", "ok")
		return nil
	}

	alert.Status = types.AlertResolved
	s.logger.WithField("alert_id", alertID).Info("SOS alert resolved")
	s.recordOp("resolve_alert", "ok")
	return nil
}

// AddPrescription prepends a prescription to the named patient's list
func (s *Store) AddPrescription(patientID string, rx types.Prescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	patient := s.findPatientLocked(patientID)
	if patient == nil {
		s.recordOp("add_prescription", "not_found")
		return types.NewNotFoundError(types.ErrCodeNotFound, "patient not found")
	}

	patient.Prescriptions = append([]types.Prescription{rx}, patient.Prescriptions...)
	s.syncSessionLocked()

	s.logger.WithFields(map[string]interface{}{
		"patient_id":      patientID,
		"prescription_id": rx.ID,
	}).Info("Prescription recorded")
	s.recordOp("add_prescription", "ok")
	return nil
}

// AddReport prepends a report to the named patient's list
func (s *Store) AddReport(patientID string, report types.MedicalReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	patient := s.findPatientLocked(patientID)
	if patient == nil {
		s.recordOp("add_report", "not_found")
		return types.NewNotFoundError(types.ErrCodeNotFound, "patient not found")
	}

	patient.Reports = append([]types.MedicalReport{report}, patient.Reports...)
	s.syncSessionLocked()

	s.logger.WithFields(map[string]interface{}{
		"patient_id": patientID,
		"report_id":  report.ID,
	}).Info("Report recorded")
	s.recordOp("add_report", "ok")
	return nil
}

// UpdatePatientProfile merges the given fields into the roster entry backing
// the current patient session. Nil fields are left unchanged; allergy and
// condition lists are replaced wholesale when provided.
func (s *Store) UpdatePatientProfile(update types.PatientProfileUpdate) (types.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil || s.session.User.Role != types.RolePatient {
		s.logger.Audit(s.sessionUserIDLocked(), "update_profile", "roster", false, nil)
		s.recordOp("update_profile", "denied")
		return types.Patient{}, types.NewForbiddenError(types.ErrCodeForbidden, "only a patient session can update the profile")
	}

	patient := s.findPatientLocked(s.session.User.ID)
	if patient == nil {
		return types.Patient{}, types.NewInternalError(types.ErrCodeInternalError, "session references a patient missing from the roster", nil)
	}

	if update.Name != nil {
		patient.Name = *update.Name
	}
	if update.Email != nil {
		patient.Email = *update.Email
	}
	if update.Age != nil {
		patient.Age = *update.Age
	}
	if update.BloodGroup != nil {
		patient.BloodGroup = *update.BloodGroup
	}
	if update.Phone != nil {
		patient.Phone = *update.Phone
	}
	if update.Address != nil {
		patient.Address = *update.Address
	}
	if update.Allergies != nil {
		patient.Allergies = append([]string(nil), (*update.Allergies)...)
	}
	if update.ChronicConditions != nil {
		patient.ChronicConditions = append([]string(nil), (*update.ChronicConditions)...)
	}

	s.syncSessionLocked()

	s.logger.WithField("patient_id", patient.ID).Info("Patient profile updated")
	s.recordOp("update_profile", "ok")
	return clonePatient(patient), nil
}

// syncSessionLocked re-derives the session snapshot from the roster entry
// matching the session ID. Called inside the critical section of every
// roster mutation so observers never see the roster and the session
// disagree.
func (s *Store) syncSessionLocked() {
	if s.session == nil || s.session.User.Role != types.RolePatient {
		return
	}

	patient := s.findPatientLocked(s.session.User.ID)
	if patient == nil {
		return
	}

	snapshot := clonePatient(patient)
	s.session.User = snapshot.User
	s.session.Patient = &snapshot
}

func (s *Store) findPatientLocked(id string) *types.Patient {
	patient, found := lo.Find(s.roster, func(p *types.Patient) bool {
		return p.ID == id
	})
	if !found {
		return nil
	}
	return patient
}

func (s *Store) copySessionLocked() Session {
	out := Session{User: s.session.User}
	if s.session.Patient != nil {
		snapshot := clonePatient(s.session.Patient)
		out.Patient = &snapshot
	}
	return out
}

func (s *Store) sessionUserIDLocked() string {
	if s.session == nil {
		return ""
	}
	return s.session.User.ID
}

// clonePatient deep-copies a patient so callers can never reach into the
// roster through a returned value
func clonePatient(p *types.Patient) types.Patient {
	out := *p
	out.Allergies = append([]string(nil), p.Allergies...)
	out.ChronicConditions = append([]string(nil), p.ChronicConditions...)
	out.History = append([]types.MedicalRecord(nil), p.History...)
	out.Prescriptions = lo.Map(p.Prescriptions, func(rx types.Prescription, _ int) types.Prescription {
		cp := rx
		cp.Medications = append([]types.Medication(nil), rx.Medications...)
		return cp
	})
	out.Reports = append([]types.MedicalReport(nil), p.Reports...)
	return out
}

func cloneAlert(a *types.SOSAlert) types.SOSAlert {
	out := *a
	if a.Location != nil {
		loc := *a.Location
		out.Location = &loc
	}
	return out
}
