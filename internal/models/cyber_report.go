package models

import "time"

// ReportType follows the NIS2 Art. 23 reporting stages.
type ReportType string

const (
	ReportEarlyWarning ReportType = "early_warning"
	ReportNotification ReportType = "notification"
	ReportFinal        ReportType = "final"
)

type ReportStatus string

const (
	ReportDraft     ReportStatus = "draft"
	ReportSubmitted ReportStatus = "submitted"
)

// CyberIncidentReport is a report to the competent authority / CSIRT.
type CyberIncidentReport struct {
	Base
	IncidentID *uint     `json:"incident_id"`
	Incident   *Incident `json:"incident,omitempty"`

	Title             string       `gorm:"size:255;not null" json:"title"`
	ReportType        ReportType   `gorm:"type:varchar(20);not null;index" json:"report_type"`
	Authority         string       `gorm:"size:255" json:"authority"`
	DetectedAt        time.Time    `gorm:"not null" json:"detected_at"`
	SubmittedAt       *time.Time   `json:"submitted_at"`
	Status            ReportStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Summary           string       `gorm:"type:text" json:"summary"`
	SignificantImpact bool         `json:"significant_impact"`
	CrossBorder       bool         `json:"cross_border"`
}
