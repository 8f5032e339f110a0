package models

import "time"

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// 0 for actions performed by the system (reminders, seeding)
	UserID uint  `gorm:"index" json:"user_id"`
	User   *User `json:"user,omitempty"`

	Entity   string `gorm:"size:50;not null;index" json:"entity"` // "incident", "gdpr_breach", ...
	EntityID uint   `json:"entity_id"`
	Action   string `gorm:"size:50;not null" json:"action"` // "create", "update", "delete", "remind"
	Details  string `gorm:"type:text" json:"details"`
}
