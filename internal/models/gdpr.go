package models

import "time"

type BreachRisk string

const (
	BreachRiskNone BreachRisk = "none"
	BreachRiskLow  BreachRisk = "low"
	BreachRiskHigh BreachRisk = "high"
)

type BreachStatus string

const (
	BreachOpen      BreachStatus = "open"
	BreachContained BreachStatus = "contained"
	BreachClosed    BreachStatus = "closed"
)

// GDPRBreach is an entry of the Art. 33(5) breach log.
type GDPRBreach struct {
	Base
	Title               string       `gorm:"size:255;not null" json:"title"`
	Description         string       `gorm:"type:text" json:"description"`
	DiscoveredAt        time.Time    `gorm:"not null;index" json:"discovered_at"`
	DataCategories      string       `gorm:"size:500" json:"data_categories"`
	AffectedSubjects    int          `json:"affected_subjects"`
	RiskToRights        BreachRisk   `gorm:"type:varchar(10)" json:"risk_to_rights"`
	AuthorityNotified   bool         `gorm:"index" json:"authority_notified"`
	AuthorityNotifiedAt *time.Time   `json:"authority_notified_at"`
	SubjectsNotified    bool         `json:"subjects_notified"`
	Status              BreachStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ReminderSentAt      *time.Time   `json:"reminder_sent_at"`
}

func (GDPRBreach) TableName() string {
	return "gdpr_breaches"
}

type LegalBasis string

const (
	BasisAdequacy   LegalBasis = "adequacy"
	BasisSCC        LegalBasis = "scc"
	BasisBCR        LegalBasis = "bcr"
	BasisDerogation LegalBasis = "derogation"
	BasisConsent    LegalBasis = "consent"
)

// GDPRTransfer records a transfer of personal data to a third country.
type GDPRTransfer struct {
	Base
	Recipient      string     `gorm:"size:255;not null" json:"recipient"`
	Country        string     `gorm:"size:2;not null;index" json:"country"`
	DataCategories string     `gorm:"size:500" json:"data_categories"`
	Purpose        string     `gorm:"type:text;not null" json:"purpose"`
	LegalBasis     LegalBasis `gorm:"type:varchar(20);not null;index" json:"legal_basis"`
	Safeguards     string     `gorm:"type:text" json:"safeguards"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	TIACompleted   bool       `json:"tia_completed"` // transfer impact assessment
}

func (GDPRTransfer) TableName() string {
	return "gdpr_transfers"
}
