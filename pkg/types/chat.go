package types

import "time"

// ChatRole identifies the author of a chat message
type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// Attachment is a base64-encoded file riding along with a chat message
type Attachment struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
	Name     string `json:"name,omitempty"`
}

// ChatMessage is one turn of the assistant transcript. The transcript is
// append-only and lives only for the chat session.
type ChatMessage struct {
	ID         string      `json:"id"`
	Role       ChatRole    `json:"role"`
	Text       string      `json:"text"`
	Timestamp  time.Time   `json:"timestamp"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// PatientContext is the slice of patient state fed to the prescription analyzer
type PatientContext struct {
	Allergies         []string `json:"allergies"`
	ChronicConditions []string `json:"chronicConditions"`
	Age               int      `json:"age"`
}

// PrescriptionAnalysis is the structured result of AI prescription analysis.
// A failed analysis is represented as a valid negative result (Safe=false
// with a system-error warning), never as an error surfaced to the caller.
type PrescriptionAnalysis struct {
	Medications []Medication `json:"structuredPrescription"`
	Safe        bool         `json:"safe"`
	Warnings    []string     `json:"warnings"`
}
