package models

import "time"

type ControlStatus string

const (
	ControlNotStarted    ControlStatus = "not_started"
	ControlInProgress    ControlStatus = "in_progress"
	ControlImplemented   ControlStatus = "implemented"
	ControlNotApplicable ControlStatus = "not_applicable"
)

// NIS2Control is one cybersecurity risk-management measure (Art. 21).
type NIS2Control struct {
	Base
	Code        string        `gorm:"size:32;not null;index" json:"code"` // e.g. 21.2.a
	Title       string        `gorm:"size:255;not null" json:"title"`
	Domain      string        `gorm:"size:100" json:"domain"`
	Description string        `gorm:"type:text" json:"description"`
	Status      ControlStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Owner       string        `gorm:"size:255" json:"owner"`
	ReviewDate  *time.Time    `json:"review_date"`
	Evidence    string        `gorm:"type:text" json:"evidence"`
}

func (NIS2Control) TableName() string {
	return "nis2_controls"
}
