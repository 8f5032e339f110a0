package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/models"

	"github.com/gin-gonic/gin"
)

var incidentList = listSpec{
	search: []string{"title", "description", "category", "reported_by"},
	filters: map[string]filterDef{
		"status":    textFilter("status"),
		"severity":  textFilter("severity"),
		"category":  textFilter("category"),
		"device_id": idFilter("device_id"),
	},
	sorts: map[string]string{
		"occurred_at": "occurred_at",
		"created_at":  "created_at",
		"severity":    "severity",
		"status":      "status",
		"title":       "title",
	},
	defaultSort: "occurred_at",
	defaultDesc: true,
}

type incidentForm struct {
	Title       string `form:"title" json:"title" binding:"required,min=3,max=255"`
	Description string `form:"description" json:"description"`
	Category    string `form:"category" json:"category" binding:"max=100"`
	Severity    string `form:"severity" json:"severity" binding:"required,oneof=low medium high critical"`
	Status      string `form:"status" json:"status" binding:"omitempty,oneof=open investigating resolved closed"`
	ReportedBy  string `form:"reported_by" json:"reported_by" binding:"max=255"`
	OccurredAt  string `form:"occurred_at" json:"occurred_at" binding:"required,isodate"`
	ResolvedAt  string `form:"resolved_at" json:"resolved_at" binding:"omitempty,isodate"`
	DeviceID    *uint  `form:"device_id" json:"device_id"`
}

func (f incidentForm) apply(c *gin.Context, inc *models.Incident) bool {
	occurred, _ := parseDate(f.OccurredAt)
	resolved := parseOptionalDate(f.ResolvedAt)
	if resolved != nil && resolved.Before(occurred) {
		respondFieldError(c, "resolved_at", "resolved_at must not precede occurred_at")
		return false
	}
	if !deviceExists(c, f.DeviceID) {
		return false
	}

	status := models.IncidentStatus(f.Status)
	if status == "" {
		status = models.IncidentOpen
	}
	// closing an incident stamps the resolution time when none was given
	if resolved == nil && (status == models.IncidentResolved || status == models.IncidentClosed) {
		now := time.Now().UTC()
		resolved = &now
	}

	inc.Title = strings.TrimSpace(f.Title)
	inc.Description = strings.TrimSpace(f.Description)
	inc.Category = strings.TrimSpace(f.Category)
	inc.Severity = models.Severity(f.Severity)
	inc.Status = status
	inc.ReportedBy = strings.TrimSpace(f.ReportedBy)
	inc.OccurredAt = occurred
	inc.ResolvedAt = resolved
	inc.DeviceID = f.DeviceID
	return true
}

func deviceExists(c *gin.Context, id *uint) bool {
	if id == nil {
		return true
	}
	var count int64
	database.DB.Model(&models.Device{}).Where("id = ?", *id).Count(&count)
	if count == 0 {
		respondFieldError(c, "device_id", "device not found")
		return false
	}
	return true
}

func ListIncidents(c *gin.Context) {
	items, total, ok := listRecords[models.Incident](c, incidentList)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func GetIncident(c *gin.Context) {
	inc, ok := loadRecord[models.Incident](c, "Device")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, inc)
}

func CreateIncident(c *gin.Context) {
	var form incidentForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	var inc models.Incident
	if !form.apply(c, &inc) {
		return
	}
	if err := database.DB.Create(&inc).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save incident")
		return
	}

	audit(c, "incident", inc.ID, "create", "Incident created: "+inc.Title)
	c.JSON(http.StatusCreated, inc)
}

func UpdateIncident(c *gin.Context) {
	inc, ok := loadRecord[models.Incident](c)
	if !ok {
		return
	}

	var form incidentForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	prevStatus := inc.Status
	if !form.apply(c, inc) {
		return
	}
	if err := database.DB.Save(inc).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save incident")
		return
	}

	details := "Incident updated: " + inc.Title
	if prevStatus != inc.Status {
		details += " (status " + string(prevStatus) + " -> " + string(inc.Status) + ")"
	}
	audit(c, "incident", inc.ID, "update", details)
	c.JSON(http.StatusOK, inc)
}

func DeleteIncident(c *gin.Context) {
	inc, ok := loadRecord[models.Incident](c)
	if !ok {
		return
	}
	if err := database.DB.Delete(inc).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to delete incident")
		return
	}
	audit(c, "incident", inc.ID, "delete", "Incident deleted: "+inc.Title)
	c.Status(http.StatusNoContent)
}

func ExportIncidents(c *gin.Context) {
	exportRecords(c, incidentList, "Incidents",
		[]string{"ID", "Title", "Category", "Severity", "Status", "Reported by", "Occurred", "Resolved"},
		func(i models.Incident) []string {
			return []string{
				strconv.FormatUint(uint64(i.ID), 10),
				i.Title,
				i.Category,
				string(i.Severity),
				string(i.Status),
				i.ReportedBy,
				formatTime(i.OccurredAt),
				formatDate(i.ResolvedAt),
			}
		})
}
