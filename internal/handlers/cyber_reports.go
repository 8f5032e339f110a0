package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"zzpri-tracker/internal/compliance"
	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/models"

	"github.com/gin-gonic/gin"
)

var cyberReportList = listSpec{
	search: []string{"title", "authority", "summary"},
	filters: map[string]filterDef{
		"status":      textFilter("status"),
		"report_type": textFilter("report_type"),
		"incident_id": idFilter("incident_id"),
	},
	sorts: map[string]string{
		"detected_at": "detected_at",
		"created_at":  "created_at",
		"status":      "status",
		"report_type": "report_type",
	},
	defaultSort: "detected_at",
	defaultDesc: true,
}

type cyberReportView struct {
	models.CyberIncidentReport
	Deadline *time.Time         `json:"deadline"`
	Urgency  compliance.Urgency `json:"urgency"`
}

func newCyberReportView(now time.Time, r models.CyberIncidentReport) cyberReportView {
	v := cyberReportView{CyberIncidentReport: r, Urgency: compliance.ReportUrgency(now, r)}
	if d, err := compliance.ReportDeadline(r.ReportType, r.DetectedAt); err == nil {
		v.Deadline = &d
	}
	return v
}

type cyberReportForm struct {
	IncidentID        *uint  `form:"incident_id" json:"incident_id"`
	Title             string `form:"title" json:"title" binding:"required,min=3,max=255"`
	ReportType        string `form:"report_type" json:"report_type" binding:"required,oneof=early_warning notification final"`
	Authority         string `form:"authority" json:"authority" binding:"max=255"`
	DetectedAt        string `form:"detected_at" json:"detected_at" binding:"required,isodate"`
	SubmittedAt       string `form:"submitted_at" json:"submitted_at" binding:"omitempty,isodate"`
	Status            string `form:"status" json:"status" binding:"omitempty,oneof=draft submitted"`
	Summary           string `form:"summary" json:"summary"`
	SignificantImpact bool   `form:"significant_impact" json:"significant_impact"`
	CrossBorder       bool   `form:"cross_border" json:"cross_border"`
}

func (f cyberReportForm) apply(c *gin.Context, r *models.CyberIncidentReport) bool {
	if f.IncidentID != nil {
		var count int64
		database.DB.Model(&models.Incident{}).Where("id = ?", *f.IncidentID).Count(&count)
		if count == 0 {
			respondFieldError(c, "incident_id", "incident not found")
			return false
		}
	}

	detected, _ := parseDate(f.DetectedAt)
	submitted := parseOptionalDate(f.SubmittedAt)
	status := models.ReportStatus(f.Status)
	if status == "" {
		status = models.ReportDraft
	}
	if status == models.ReportSubmitted && submitted == nil {
		now := time.Now().UTC()
		submitted = &now
	}
	if submitted != nil && submitted.Before(detected) {
		respondFieldError(c, "submitted_at", "submitted_at must not precede detected_at")
		return false
	}

	r.IncidentID = f.IncidentID
	r.Title = strings.TrimSpace(f.Title)
	r.ReportType = models.ReportType(f.ReportType)
	r.Authority = strings.TrimSpace(f.Authority)
	r.DetectedAt = detected
	r.SubmittedAt = submitted
	r.Status = status
	r.Summary = strings.TrimSpace(f.Summary)
	r.SignificantImpact = f.SignificantImpact
	r.CrossBorder = f.CrossBorder
	return true
}

func ListCyberReports(c *gin.Context) {
	items, total, ok := listRecords[models.CyberIncidentReport](c, cyberReportList)
	if !ok {
		return
	}
	now := time.Now()
	views := make([]cyberReportView, len(items))
	for i, r := range items {
		views[i] = newCyberReportView(now, r)
	}
	c.JSON(http.StatusOK, gin.H{"items": views, "total": total})
}

func GetCyberReport(c *gin.Context) {
	r, ok := loadRecord[models.CyberIncidentReport](c, "Incident")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newCyberReportView(time.Now(), *r))
}

func CreateCyberReport(c *gin.Context) {
	var form cyberReportForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	var r models.CyberIncidentReport
	if !form.apply(c, &r) {
		return
	}
	if err := database.DB.Create(&r).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save report")
		return
	}

	audit(c, "cyber_report", r.ID, "create", "Cyber incident report created: "+r.Title+" ("+string(r.ReportType)+")")
	c.JSON(http.StatusCreated, newCyberReportView(time.Now(), r))
}

func UpdateCyberReport(c *gin.Context) {
	r, ok := loadRecord[models.CyberIncidentReport](c)
	if !ok {
		return
	}

	var form cyberReportForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}
	if !form.apply(c, r) {
		return
	}
	if err := database.DB.Save(r).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save report")
		return
	}

	audit(c, "cyber_report", r.ID, "update", "Cyber incident report updated: "+r.Title)
	c.JSON(http.StatusOK, newCyberReportView(time.Now(), *r))
}

func DeleteCyberReport(c *gin.Context) {
	r, ok := loadRecord[models.CyberIncidentReport](c)
	if !ok {
		return
	}
	if err := database.DB.Delete(r).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to delete report")
		return
	}
	audit(c, "cyber_report", r.ID, "delete", "Cyber incident report deleted: "+r.Title)
	c.Status(http.StatusNoContent)
}

func ExportCyberReports(c *gin.Context) {
	now := time.Now()
	exportRecords(c, cyberReportList, "Cyber Incident Reports",
		[]string{"ID", "Title", "Type", "Authority", "Detected", "Deadline", "Status", "Submitted", "Urgency"},
		func(r models.CyberIncidentReport) []string {
			v := newCyberReportView(now, r)
			return []string{
				strconv.FormatUint(uint64(r.ID), 10),
				r.Title,
				string(r.ReportType),
				r.Authority,
				formatTime(r.DetectedAt),
				formatDate(v.Deadline),
				string(r.Status),
				formatDate(r.SubmittedAt),
				string(v.Urgency),
			}
		})
}
