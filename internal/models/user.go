package models

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleDPO      UserRole = "dpo"      // data protection officer
	RoleSecurity UserRole = "security" // NIS2 / security officer
	RoleStaff    UserRole = "staff"
	RoleViewer   UserRole = "viewer"
)

type User struct {
	Base
	Username     string   `gorm:"uniqueIndex;size:100;not null" json:"username"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Role         UserRole `gorm:"type:varchar(20);not null" json:"role"`
}
