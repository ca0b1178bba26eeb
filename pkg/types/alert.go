package types

import "time"

// AlertStatus is the lifecycle state of an SOS alert
type AlertStatus string

const (
	AlertActive   AlertStatus = "Active"
	AlertResolved AlertStatus = "Resolved"
)

// Location is a geographic coordinate pair. The zero value is the sentinel
// used when geolocation is unavailable or denied.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SOSAlert represents an emergency notification raised by a patient.
// Status only ever transitions Active -> Resolved; alerts are never deleted.
type SOSAlert struct {
	ID          string      `json:"id"`
	PatientID   string      `json:"patientId"`
	PatientName string      `json:"patientName"`
	Timestamp   time.Time   `json:"timestamp"`
	Location    *Location   `json:"location"`
	Status      AlertStatus `json:"status"`
}
