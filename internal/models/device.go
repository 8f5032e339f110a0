package models

import "time"

type DeviceType string

const (
	DeviceServer      DeviceType = "server"
	DeviceWorkstation DeviceType = "workstation"
	DeviceLaptop      DeviceType = "laptop"
	DeviceNetwork     DeviceType = "network"
	DeviceMobile      DeviceType = "mobile"
	DeviceIoT         DeviceType = "iot"
	DeviceOther       DeviceType = "other"
)

type DeviceStatus string

const (
	DeviceActive      DeviceStatus = "active"
	DeviceMaintenance DeviceStatus = "maintenance"
	DeviceRetired     DeviceStatus = "retired"
)

// Device is an entry of the asset inventory.
type Device struct {
	Base
	Name            string       `gorm:"size:255;not null" json:"name"`
	DeviceType      DeviceType   `gorm:"type:varchar(20);not null" json:"device_type"`
	SerialNumber    string       `gorm:"size:100;index" json:"serial_number"`
	Location        string       `gorm:"size:255" json:"location"`
	Owner           string       `gorm:"size:255" json:"owner"`
	IPAddress       string       `gorm:"size:45" json:"ip_address"`
	OperatingSystem string       `gorm:"size:100" json:"operating_system"`
	Criticality     Severity     `gorm:"type:varchar(20)" json:"criticality"`
	Status          DeviceStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	LastPatchedAt   *time.Time   `json:"last_patched_at"`
}
