package models

import "time"

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

type SupportTicket struct {
	Base
	Subject     string         `gorm:"size:255;not null" json:"subject"`
	Description string         `gorm:"type:text" json:"description"`
	Priority    TicketPriority `gorm:"type:varchar(20);not null;index" json:"priority"`
	Status      TicketStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	Requester   string         `gorm:"size:255" json:"requester"`
	Assignee    string         `gorm:"size:255" json:"assignee"`
	DueDate     *time.Time     `json:"due_date"`
	ClosedAt    *time.Time     `json:"closed_at"`

	DeviceID *uint   `json:"device_id"`
	Device   *Device `json:"device,omitempty"`
}

func (t TicketStatus) IsDone() bool {
	return t == TicketResolved || t == TicketClosed
}
