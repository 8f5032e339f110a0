package models

import "time"

type RiskTreatment string

const (
	TreatmentMitigate RiskTreatment = "mitigate"
	TreatmentAccept   RiskTreatment = "accept"
	TreatmentTransfer RiskTreatment = "transfer"
	TreatmentAvoid    RiskTreatment = "avoid"
)

type RiskStatus string

const (
	RiskOpen    RiskStatus = "open"
	RiskTreated RiskStatus = "treated"
	RiskClosed  RiskStatus = "closed"
)

// RiskEntry is a row of the risk register. Score and Level are derived
// from Likelihood and Impact and never taken from the client.
type RiskEntry struct {
	Base
	Title       string        `gorm:"size:255;not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	Category    string        `gorm:"size:100" json:"category"`
	Likelihood  int           `gorm:"not null" json:"likelihood"`
	Impact      int           `gorm:"not null" json:"impact"`
	Score       int           `gorm:"not null;index" json:"score"`
	Level       string        `gorm:"size:16;not null;index" json:"level"`
	Owner       string        `gorm:"size:255" json:"owner"`
	Treatment   RiskTreatment `gorm:"type:varchar(20)" json:"treatment"`
	Status      RiskStatus    `gorm:"type:varchar(20);not null;index" json:"status"`
	ReviewDate  *time.Time    `json:"review_date"`

	ControlID *uint        `json:"control_id"`
	Control   *NIS2Control `json:"control,omitempty"`
}
