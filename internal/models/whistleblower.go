package models

import "time"

// WhistleblowerConfidant is the person designated to receive reports
// under the whistleblower protection act (ZZPri).
type WhistleblowerConfidant struct {
	Base
	Name        string     `gorm:"size:255;not null" json:"name"`
	Email       string     `gorm:"size:255;not null" json:"email"`
	Phone       string     `gorm:"size:50" json:"phone"`
	Position    string     `gorm:"size:255" json:"position"`
	AppointedAt *time.Time `json:"appointed_at"`
	Active      bool       `gorm:"index" json:"active"`
	Deputy      bool       `json:"deputy"`
}

type ProcedureChannel string

const (
	ChannelInternal ProcedureChannel = "internal"
	ChannelExternal ProcedureChannel = "external"
)

type ProcedureStatus string

const (
	ProcedureDraft    ProcedureStatus = "draft"
	ProcedureActive   ProcedureStatus = "active"
	ProcedureArchived ProcedureStatus = "archived"
)

type WhistleblowerProcedure struct {
	Base
	Title       string           `gorm:"size:255;not null" json:"title"`
	Version     string           `gorm:"size:32;not null" json:"version"`
	Channel     ProcedureChannel `gorm:"type:varchar(20);not null" json:"channel"`
	Description string           `gorm:"type:text" json:"description"`
	Status      ProcedureStatus  `gorm:"type:varchar(20);not null;index" json:"status"`
	AdoptedAt   *time.Time       `json:"adopted_at"`

	ConfidantID *uint                   `json:"confidant_id"`
	Confidant   *WhistleblowerConfidant `json:"confidant,omitempty"`
}
