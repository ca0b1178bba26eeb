package portal

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/smarthealth/portal/internal/assistant"
	"github.com/smarthealth/portal/internal/prescriber"
	"github.com/smarthealth/portal/internal/store"
	"github.com/smarthealth/portal/pkg/logger"
	"github.com/smarthealth/portal/pkg/monitoring"
	"github.com/smarthealth/portal/pkg/types"
)

// Handlers handles HTTP requests for the portal service
type Handlers struct {
	store      *store.Store
	chat       *assistant.ChatSession
	prescriber *prescriber.Service
	uploads    UploadPolicy
	metrics    *monitoring.MetricsCollector
	logger     *logger.Logger
}

// NewHandlers creates new HTTP handlers. metrics may be nil.
func NewHandlers(st *store.Store, chat *assistant.ChatSession, rx *prescriber.Service, uploads UploadPolicy, metrics *monitoring.MetricsCollector, log *logger.Logger) *Handlers {
	return &Handlers{
		store:      st,
		chat:       chat,
		prescriber: rx,
		uploads:    uploads,
		metrics:    metrics,
		logger:     log,
	}
}

// RegisterRoutes registers HTTP routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	// Session and navigation
	router.HandleFunc("/session/login", h.Login).Methods("POST")
	router.HandleFunc("/session/logout", h.Logout).Methods("POST")
	router.HandleFunc("/session", h.GetSession).Methods("GET")
	router.HandleFunc("/screen", h.GetScreen).Methods("GET")

	// Roster
	router.HandleFunc("/patients", h.ListPatients).Methods("GET")
	router.HandleFunc("/patients/{patientID}", h.GetPatient).Methods("GET")
	router.HandleFunc("/patients/{patientID}/prescriptions", h.CreatePrescription).Methods("POST")
	router.HandleFunc("/patients/{patientID}/reports", h.UploadReport).Methods("POST")
	router.HandleFunc("/profile", h.UpdateProfile).Methods("PUT")

	// SOS alerts
	router.HandleFunc("/alerts", h.ListAlerts).Methods("GET")
	router.HandleFunc("/alerts/sos", h.TriggerSOS).Methods("POST")
	router.HandleFunc("/alerts/{alertID}/resolve", h.ResolveAlert).Methods("POST")

	// AI assistant
	router.HandleFunc("/assistant/chat", h.Chat).Methods("POST")
	router.HandleFunc("/assistant/history", h.ChatHistory).Methods("GET")
	router.HandleFunc("/assistant/reset", h.ResetChat).Methods("POST")

	// Prescription writer
	router.HandleFunc("/prescriber/analyze", h.AnalyzeDictation).Methods("POST")

	// Health check
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}

type loginRequest struct {
	Role      types.Role `json:"role"`
	PatientID string     `json:"patientId,omitempty"`
}

// Login establishes a session for the requested role
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	session, err := h.store.Login(req.Role, req.PatientID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": session,
		"screen":  DefaultScreen(session.User.Role),
	})
}

// Logout clears the session and the chat transcript unconditionally. The
// transcript lives only for the session; the next login starts clean.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.store.Logout()
	h.chat.Reset()
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// GetSession returns the current session
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.store.Session()
	if !ok {
		h.writeError(w, http.StatusNotFound, "no_session", "No active session")
		return
	}
	h.writeJSON(w, http.StatusOK, session)
}

// GetScreen resolves the view for the session role and requested tab
func (h *Handlers) GetScreen(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w)
	if !ok {
		return
	}

	screen := ResolveScreen(session.User.Role, r.URL.Query().Get("tab"))
	h.writeJSON(w, http.StatusOK, map[string]string{"screen": screen})
}

// ListPatients returns the roster. Doctor only.
func (h *Handlers) ListPatients(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w)
	if !ok {
		return
	}

	if session.User.Role != types.RoleDoctor {
		h.logger.Audit(session.User.ID, "list_patients", "roster", false, nil)
		h.writeError(w, http.StatusForbidden, "access_denied", "Only a doctor can list the roster")
		return
	}

	patients := h.store.Patients()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}

// GetPatient returns one roster entry. Doctors see anyone; a patient only
// themself.
func (h *Handlers) GetPatient(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w)
	if !ok {
		return
	}

	patientID := mux.Vars(r)["patientID"]
	if session.User.Role != types.RoleDoctor && session.User.ID != patientID {
		h.logger.Audit(session.User.ID, "get_patient", patientID, false, nil)
		h.writeError(w, http.StatusForbidden, "access_denied", "Patients can only view their own record")
		return
	}

	patient, err := h.store.Patient(patientID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, patient)
}

type createPrescriptionRequest struct {
	Medications []types.Medication `json:"medications"`
	Notes       string             `json:"notes,omitempty"`
}

// CreatePrescription saves a confirmed prescription for a patient. Doctor
// only; the doctor's name is taken from the session.
func (h *Handlers) CreatePrescription(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w)
	if !ok {
		return
	}

	if session.User.Role != types.RoleDoctor {
		h.logger.Audit(session.User.ID, "create_prescription", "roster", false, nil)
		h.writeError(w, http.StatusForbidden, "access_denied", "Only a doctor can write prescriptions")
		return
	}

	var req createPrescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	rx, err := h.prescriber.Save(mux.Vars(r)["patientID"], session.User.Name, req.Medications, req.Notes)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, rx)
}

type uploadReportRequest struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// UploadReport validates and stores an uploaded report. A patient can only
// upload to their own record.
func (h *Handlers) UploadReport(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w)
	if !ok {
		return
	}

	patientID := mux.Vars(r)["patientID"]
	if session.User.Role != types.RoleDoctor && session.User.ID != patientID {
		h.logger.Audit(session.User.ID, "upload_report", patientID, false, nil)
		h.writeError(w, http.StatusForbidden, "access_denied", "Patients can only upload to their own record")
		return
	}

	var req uploadReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "validation_error", "Report name is required")
		return
	}

	// Rejected before any state mutation
	if err := h.uploads.ValidateReport(req.MimeType, req.Data); err != nil {
		h.writeDomainError(w, err)
		return
	}

	report := types.MedicalReport{
		ID:   uuid.New().String(),
		Name: req.Name,
		Date: time.Now().Format("2006-01-02"),
		Type: ReportTypeFor(req.MimeType),
		URL:  DataURI(req.MimeType, req.Data),
	}

	if err := h.store.AddReport(patientID, report); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, report)
}

// UpdateProfile merges a partial profile update into the session patient's
// roster entry. The store enforces the role gate.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update types.PatientProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	patient, err := h.store.UpdatePatientProfile(update)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, patient)
}

// ListAlerts returns the alert roster, newest first
func (h *Handlers) ListAlerts(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSession(w); !ok {
		return
	}

	alerts := h.store.Alerts()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

type triggerSOSRequest struct {
	Location *types.Location `json:"location"`
}

// TriggerSOS raises an SOS alert for the current patient session. When the
// caller has no geolocation, the zero-coordinate sentinel is stored.
func (h *Handlers) TriggerSOS(w http.ResponseWriter, r *http.Request) {
	var req triggerSOSRequest
	if r.Body != nil {
		// An empty or absent body means no geolocation
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	location := req.Location
	if location == nil {
		location = &types.Location{}
	}

	alert, err := h.store.TriggerSOS(location)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSOSAlert()
		h.metrics.SetActiveAlerts(h.store.ActiveAlertCount())
	}

	h.writeJSON(w, http.StatusCreated, alert)
}

// ResolveAlert transitions an alert to Resolved; idempotent
func (h *Handlers) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSession(w); !ok {
		return
	}

	if err := h.store.ResolveAlert(mux.Vars(r)["alertID"]); err != nil {
		h.writeDomainError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.SetActiveAlerts(h.store.ActiveAlertCount())
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Alert resolved"})
}

type chatRequest struct {
	Message    string            `json:"message"`
	Attachment *types.Attachment `json:"attachment,omitempty"`
}

// Chat sends one assistant turn and returns the model reply
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSession(w); !ok {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	if req.Attachment != nil {
		if err := h.uploads.ValidateChatAttachment(req.Attachment.MimeType, req.Attachment.Data); err != nil {
			h.writeDomainError(w, err)
			return
		}
	}

	reply, err := h.chat.Send(r.Context(), req.Message, req.Attachment)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, reply)
}

// ChatHistory returns the transcript in order
func (h *Handlers) ChatHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSession(w); !ok {
		return
	}

	history := h.chat.History()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": history,
		"count":    len(history),
	})
}

// ResetChat clears the transcript
func (h *Handlers) ResetChat(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireSession(w); !ok {
		return
	}

	h.chat.Reset()
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Chat reset"})
}

type analyzeRequest struct {
	PatientID string `json:"patientId"`
	Dictation string `json:"dictation"`
}

// AnalyzeDictation runs the AI safety analysis over a dictated prescription.
// Doctor only. A gateway failure still yields HTTP 200 with the
// negative-safety result.
func (h *Handlers) AnalyzeDictation(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w)
	if !ok {
		return
	}

	if session.User.Role != types.RoleDoctor {
		h.logger.Audit(session.User.ID, "analyze_dictation", "prescriber", false, nil)
		h.writeError(w, http.StatusForbidden, "access_denied", "Only a doctor can analyze prescriptions")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	result, err := h.prescriber.Analyze(r.Context(), req.PatientID, req.Dictation)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HealthCheck reports service liveness
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// requireSession resolves the current session or writes a 401
func (h *Handlers) requireSession(w http.ResponseWriter) (store.Session, bool) {
	session, ok := h.store.Session()
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "No active session")
		return store.Session{}, false
	}
	return session, true
}

// writeDomainError maps a typed portal error to an HTTP status
func (h *Handlers) writeDomainError(w http.ResponseWriter, err error) {
	var pe *types.PortalError
	if !errors.As(err, &pe) {
		h.writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch pe.Kind {
	case types.ErrorKindValidation:
		status = http.StatusBadRequest
	case types.ErrorKindForbidden:
		status = http.StatusForbidden
	case types.ErrorKindNotFound:
		status = http.StatusNotFound
	case types.ErrorKindExternal:
		status = http.StatusBadGateway
	}

	h.writeError(w, status, string(pe.Kind), pe.Message)
}

// writeJSON writes a JSON response
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (h *Handlers) writeError(w http.ResponseWriter, status int, code, message string) {
	errorResponse := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	}

	h.writeJSON(w, status, errorResponse)
}
