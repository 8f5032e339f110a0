package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/models"

	"github.com/gin-gonic/gin"
)

var controlList = listSpec{
	search: []string{"code", "title", "domain", "owner", "description"},
	filters: map[string]filterDef{
		"status": textFilter("status"),
		"domain": textFilter("domain"),
		"owner":  textFilter("owner"),
	},
	sorts: map[string]string{
		"code":        "code",
		"title":       "title",
		"status":      "status",
		"review_date": "review_date",
	},
	defaultSort: "code",
}

type controlForm struct {
	Code        string `form:"code" json:"code" binding:"required,max=32"`
	Title       string `form:"title" json:"title" binding:"required,min=3,max=255"`
	Domain      string `form:"domain" json:"domain" binding:"max=100"`
	Description string `form:"description" json:"description"`
	Status      string `form:"status" json:"status" binding:"omitempty,oneof=not_started in_progress implemented not_applicable"`
	Owner       string `form:"owner" json:"owner" binding:"max=255"`
	ReviewDate  string `form:"review_date" json:"review_date" binding:"omitempty,isodate"`
	Evidence    string `form:"evidence" json:"evidence"`
}

func (f controlForm) apply(c *gin.Context, ctl *models.NIS2Control) bool {
	code := strings.TrimSpace(f.Code)

	if code != ctl.Code {
		var count int64
		database.DB.Model(&models.NIS2Control{}).
			Where("LOWER(code) = LOWER(?) AND id <> ?", code, ctl.ID).
			Count(&count)
		if count > 0 {
			respondFieldError(c, "code", "a control with this code already exists")
			return false
		}
	}

	status := models.ControlStatus(f.Status)
	if status == "" {
		status = models.ControlNotStarted
	}

	ctl.Code = code
	ctl.Title = strings.TrimSpace(f.Title)
	ctl.Domain = strings.TrimSpace(f.Domain)
	ctl.Description = strings.TrimSpace(f.Description)
	ctl.Status = status
	ctl.Owner = strings.TrimSpace(f.Owner)
	ctl.ReviewDate = parseOptionalDate(f.ReviewDate)
	ctl.Evidence = strings.TrimSpace(f.Evidence)
	return true
}

func ListControls(c *gin.Context) {
	items, total, ok := listRecords[models.NIS2Control](c, controlList)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

// GetControl returns the control together with the risks it treats.
func GetControl(c *gin.Context) {
	ctl, ok := loadRecord[models.NIS2Control](c)
	if !ok {
		return
	}

	risks := []models.RiskEntry{}
	database.DB.Where("control_id = ?", ctl.ID).Order("score desc").Find(&risks)

	c.JSON(http.StatusOK, gin.H{
		"control": ctl,
		"risks":   risks,
	})
}

func CreateControl(c *gin.Context) {
	var form controlForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	var ctl models.NIS2Control
	if !form.apply(c, &ctl) {
		return
	}
	if err := database.DB.Create(&ctl).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save control")
		return
	}

	audit(c, "nis2_control", ctl.ID, "create", "NIS2 control created: "+ctl.Code)
	c.JSON(http.StatusCreated, ctl)
}

func UpdateControl(c *gin.Context) {
	ctl, ok := loadRecord[models.NIS2Control](c)
	if !ok {
		return
	}

	var form controlForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	prevStatus := ctl.Status
	if !form.apply(c, ctl) {
		return
	}
	if err := database.DB.Save(ctl).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save control")
		return
	}

	action, details := "update", "NIS2 control updated: "+ctl.Code
	if prevStatus != ctl.Status {
		action = "status_change"
		details = "NIS2 control " + ctl.Code + " status changed to: " + string(ctl.Status)
	}
	audit(c, "nis2_control", ctl.ID, action, details)
	c.JSON(http.StatusOK, ctl)
}

func DeleteControl(c *gin.Context) {
	ctl, ok := loadRecord[models.NIS2Control](c)
	if !ok {
		return
	}

	var linked int64
	database.DB.Model(&models.RiskEntry{}).Where("control_id = ?", ctl.ID).Count(&linked)
	if linked > 0 {
		respondError(c, http.StatusConflict, "control is referenced by risks")
		return
	}

	if err := database.DB.Delete(ctl).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to delete control")
		return
	}
	audit(c, "nis2_control", ctl.ID, "delete", "NIS2 control deleted: "+ctl.Code)
	c.Status(http.StatusNoContent)
}

func ExportControls(c *gin.Context) {
	exportRecords(c, controlList, "NIS2 Controls",
		[]string{"ID", "Code", "Title", "Domain", "Status", "Owner", "Review date"},
		func(ctl models.NIS2Control) []string {
			return []string{
				strconv.FormatUint(uint64(ctl.ID), 10),
				ctl.Code,
				ctl.Title,
				ctl.Domain,
				string(ctl.Status),
				ctl.Owner,
				formatDate(ctl.ReviewDate),
			}
		})
}
