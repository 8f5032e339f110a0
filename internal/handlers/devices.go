package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var deviceList = listSpec{
	search: []string{"name", "serial_number", "location", "owner", "ip_address", "operating_system"},
	filters: map[string]filterDef{
		"device_type": textFilter("device_type"),
		"status":      textFilter("status"),
		"criticality": textFilter("criticality"),
		"location":    textFilter("location"),
	},
	sorts: map[string]string{
		"name":            "name",
		"created_at":      "created_at",
		"last_patched_at": "last_patched_at",
		"criticality":     "criticality",
		"status":          "status",
	},
	defaultSort: "name",
}

type deviceForm struct {
	Name            string `form:"name" json:"name" binding:"required,min=2,max=255"`
	DeviceType      string `form:"device_type" json:"device_type" binding:"required,oneof=server workstation laptop network mobile iot other"`
	SerialNumber    string `form:"serial_number" json:"serial_number" binding:"max=100"`
	Location        string `form:"location" json:"location" binding:"max=255"`
	Owner           string `form:"owner" json:"owner" binding:"max=255"`
	IPAddress       string `form:"ip_address" json:"ip_address" binding:"omitempty,ip"`
	OperatingSystem string `form:"operating_system" json:"operating_system" binding:"max=100"`
	Criticality     string `form:"criticality" json:"criticality" binding:"omitempty,oneof=low medium high critical"`
	Status          string `form:"status" json:"status" binding:"omitempty,oneof=active maintenance retired"`
	LastPatchedAt   string `form:"last_patched_at" json:"last_patched_at" binding:"omitempty,isodate"`
}

func (f deviceForm) apply(c *gin.Context, d *models.Device) bool {
	serial := strings.TrimSpace(f.SerialNumber)

	// serial numbers are unique when given
	if serial != "" && serial != d.SerialNumber {
		var count int64
		database.DB.Model(&models.Device{}).
			Where("serial_number = ? AND id <> ?", serial, d.ID).
			Count(&count)
		if count > 0 {
			respondFieldError(c, "serial_number", "a device with this serial number already exists")
			return false
		}
	}

	status := models.DeviceStatus(f.Status)
	if status == "" {
		status = models.DeviceActive
	}

	d.Name = strings.TrimSpace(f.Name)
	d.DeviceType = models.DeviceType(f.DeviceType)
	d.SerialNumber = serial
	d.Location = strings.TrimSpace(f.Location)
	d.Owner = strings.TrimSpace(f.Owner)
	d.IPAddress = strings.TrimSpace(f.IPAddress)
	d.OperatingSystem = strings.TrimSpace(f.OperatingSystem)
	d.Criticality = models.Severity(f.Criticality)
	d.Status = status
	d.LastPatchedAt = parseOptionalDate(f.LastPatchedAt)
	return true
}

func ListDevices(c *gin.Context) {
	items, total, ok := listRecords[models.Device](c, deviceList)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

// GetDevice returns the device with its incidents and open tickets.
func GetDevice(c *gin.Context) {
	d, ok := loadRecord[models.Device](c)
	if !ok {
		return
	}

	incidents := []models.Incident{}
	database.DB.Where("device_id = ?", d.ID).Order("occurred_at desc").Find(&incidents)

	tickets := []models.SupportTicket{}
	database.DB.Where("device_id = ? AND status IN ?", d.ID,
		[]models.TicketStatus{models.TicketOpen, models.TicketInProgress}).
		Order("created_at desc").Find(&tickets)

	c.JSON(http.StatusOK, gin.H{
		"device":    d,
		"incidents": incidents,
		"tickets":   tickets,
	})
}

func CreateDevice(c *gin.Context) {
	var form deviceForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	var d models.Device
	if !form.apply(c, &d) {
		return
	}
	if err := database.DB.Create(&d).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save device")
		return
	}

	audit(c, "device", d.ID, "create", "Device created: "+d.Name)
	c.JSON(http.StatusCreated, d)
}

func UpdateDevice(c *gin.Context) {
	d, ok := loadRecord[models.Device](c)
	if !ok {
		return
	}

	var form deviceForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}
	if !form.apply(c, d) {
		return
	}
	if err := database.DB.Save(d).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save device")
		return
	}

	audit(c, "device", d.ID, "update", "Device updated: "+d.Name)
	c.JSON(http.StatusOK, d)
}

func DeleteDevice(c *gin.Context) {
	d, ok := loadRecord[models.Device](c)
	if !ok {
		return
	}

	// incidents and tickets keep their history but lose the link
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Incident{}).Where("device_id = ?", d.ID).Update("device_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.SupportTicket{}).Where("device_id = ?", d.ID).Update("device_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(d).Error
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to delete device")
		return
	}

	audit(c, "device", d.ID, "delete", "Device deleted: "+d.Name)
	c.Status(http.StatusNoContent)
}

func ExportDevices(c *gin.Context) {
	exportRecords(c, deviceList, "Devices",
		[]string{"ID", "Name", "Type", "Serial", "Location", "Owner", "IP", "OS", "Criticality", "Status", "Last patched"},
		func(d models.Device) []string {
			return []string{
				strconv.FormatUint(uint64(d.ID), 10),
				d.Name,
				string(d.DeviceType),
				d.SerialNumber,
				d.Location,
				d.Owner,
				d.IPAddress,
				d.OperatingSystem,
				string(d.Criticality),
				string(d.Status),
				formatDate(d.LastPatchedAt),
			}
		})
}
