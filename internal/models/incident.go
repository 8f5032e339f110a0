package models

import "time"

type IncidentStatus string

const (
	IncidentOpen          IncidentStatus = "open"
	IncidentInvestigating IncidentStatus = "investigating"
	IncidentResolved      IncidentStatus = "resolved"
	IncidentClosed        IncidentStatus = "closed"
)

// Incident is an internal security incident record.
type Incident struct {
	Base
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"size:100" json:"category"` // phishing, malware, outage, ...
	Severity    Severity       `gorm:"type:varchar(20);not null;index" json:"severity"`
	Status      IncidentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ReportedBy  string         `gorm:"size:255" json:"reported_by"`
	OccurredAt  time.Time      `gorm:"not null" json:"occurred_at"`
	ResolvedAt  *time.Time     `json:"resolved_at"`

	DeviceID *uint   `json:"device_id"`
	Device   *Device `json:"device,omitempty"`
}

func (i Incident) IsOpen() bool {
	return i.Status == IncidentOpen || i.Status == IncidentInvestigating
}
