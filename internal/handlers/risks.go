package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"zzpri-tracker/internal/compliance"
	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/models"

	"github.com/gin-gonic/gin"
)

var riskList = listSpec{
	search: []string{"title", "description", "category", "owner"},
	filters: map[string]filterDef{
		"level":      textFilter("level"),
		"status":     textFilter("status"),
		"treatment":  textFilter("treatment"),
		"category":   textFilter("category"),
		"control_id": idFilter("control_id"),
	},
	sorts: map[string]string{
		"score":       "score",
		"title":       "title",
		"created_at":  "created_at",
		"review_date": "review_date",
	},
	defaultSort: "score",
	defaultDesc: true,
}

type riskForm struct {
	Title       string `form:"title" json:"title" binding:"required,min=3,max=255"`
	Description string `form:"description" json:"description"`
	Category    string `form:"category" json:"category" binding:"max=100"`
	Likelihood  int    `form:"likelihood" json:"likelihood" binding:"required,min=1,max=5"`
	Impact      int    `form:"impact" json:"impact" binding:"required,min=1,max=5"`
	Owner       string `form:"owner" json:"owner" binding:"max=255"`
	Treatment   string `form:"treatment" json:"treatment" binding:"omitempty,oneof=mitigate accept transfer avoid"`
	Status      string `form:"status" json:"status" binding:"omitempty,oneof=open treated closed"`
	ReviewDate  string `form:"review_date" json:"review_date" binding:"omitempty,isodate"`
	ControlID   *uint  `form:"control_id" json:"control_id"`
}

func (f riskForm) apply(c *gin.Context, r *models.RiskEntry) bool {
	if f.ControlID != nil {
		var count int64
		database.DB.Model(&models.NIS2Control{}).Where("id = ?", *f.ControlID).Count(&count)
		if count == 0 {
			respondFieldError(c, "control_id", "control not found")
			return false
		}
	}

	status := models.RiskStatus(f.Status)
	if status == "" {
		status = models.RiskOpen
	}

	r.Title = strings.TrimSpace(f.Title)
	r.Description = strings.TrimSpace(f.Description)
	r.Category = strings.TrimSpace(f.Category)
	r.Likelihood = f.Likelihood
	r.Impact = f.Impact
	r.Owner = strings.TrimSpace(f.Owner)
	r.Treatment = models.RiskTreatment(f.Treatment)
	r.Status = status
	r.ReviewDate = parseOptionalDate(f.ReviewDate)
	r.ControlID = f.ControlID

	if err := compliance.ApplyRisk(r); err != nil {
		respondFieldError(c, "likelihood", err.Error())
		return false
	}
	return true
}

func ListRisks(c *gin.Context) {
	items, total, ok := listRecords[models.RiskEntry](c, riskList)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func GetRisk(c *gin.Context) {
	r, ok := loadRecord[models.RiskEntry](c, "Control")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, r)
}

func CreateRisk(c *gin.Context) {
	var form riskForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	var r models.RiskEntry
	if !form.apply(c, &r) {
		return
	}
	if err := database.DB.Create(&r).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save risk")
		return
	}

	audit(c, "risk", r.ID, "create", "Risk created: "+r.Title+" (score "+strconv.Itoa(r.Score)+", "+r.Level+")")
	c.JSON(http.StatusCreated, r)
}

func UpdateRisk(c *gin.Context) {
	r, ok := loadRecord[models.RiskEntry](c)
	if !ok {
		return
	}

	var form riskForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	prevLevel := r.Level
	if !form.apply(c, r) {
		return
	}
	if err := database.DB.Save(r).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save risk")
		return
	}

	details := "Risk updated: " + r.Title
	if prevLevel != r.Level {
		details += " (level " + prevLevel + " -> " + r.Level + ")"
	}
	audit(c, "risk", r.ID, "update", details)
	c.JSON(http.StatusOK, r)
}

func DeleteRisk(c *gin.Context) {
	r, ok := loadRecord[models.RiskEntry](c)
	if !ok {
		return
	}
	if err := database.DB.Delete(r).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to delete risk")
		return
	}
	audit(c, "risk", r.ID, "delete", "Risk deleted: "+r.Title)
	c.Status(http.StatusNoContent)
}

func ExportRisks(c *gin.Context) {
	exportRecords(c, riskList, "Risk Register",
		[]string{"ID", "Title", "Category", "Likelihood", "Impact", "Score", "Level", "Owner", "Treatment", "Status", "Review"},
		func(r models.RiskEntry) []string {
			return []string{
				strconv.FormatUint(uint64(r.ID), 10),
				r.Title,
				r.Category,
				strconv.Itoa(r.Likelihood),
				strconv.Itoa(r.Impact),
				strconv.Itoa(r.Score),
				r.Level,
				r.Owner,
				string(r.Treatment),
				string(r.Status),
				formatDate(r.ReviewDate),
			}
		})
}
