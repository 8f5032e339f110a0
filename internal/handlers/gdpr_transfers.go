package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/models"

	"github.com/gin-gonic/gin"
)

var transferList = listSpec{
	search: []string{"recipient", "purpose", "data_categories", "country"},
	filters: map[string]filterDef{
		"country":       textFilter("country"),
		"legal_basis":   textFilter("legal_basis"),
		"tia_completed": boolFilter("tia_completed"),
	},
	sorts: map[string]string{
		"recipient":  "recipient",
		"country":    "country",
		"start_date": "start_date",
		"created_at": "created_at",
	},
	defaultSort: "recipient",
}

type transferForm struct {
	Recipient      string `form:"recipient" json:"recipient" binding:"required,min=2,max=255"`
	Country        string `form:"country" json:"country" binding:"required,iso3166_1_alpha2"`
	DataCategories string `form:"data_categories" json:"data_categories" binding:"max=500"`
	Purpose        string `form:"purpose" json:"purpose" binding:"required,min=3"`
	LegalBasis     string `form:"legal_basis" json:"legal_basis" binding:"required,oneof=adequacy scc bcr derogation consent"`
	Safeguards     string `form:"safeguards" json:"safeguards"`
	StartDate      string `form:"start_date" json:"start_date" binding:"omitempty,isodate"`
	EndDate        string `form:"end_date" json:"end_date" binding:"omitempty,isodate"`
	TIACompleted   bool   `form:"tia_completed" json:"tia_completed"`
}

func (f transferForm) apply(c *gin.Context, t *models.GDPRTransfer) bool {
	start := parseOptionalDate(f.StartDate)
	end := parseOptionalDate(f.EndDate)
	if start != nil && end != nil && end.Before(*start) {
		respondFieldError(c, "end_date", "end_date must not precede start_date")
		return false
	}

	basis := models.LegalBasis(f.LegalBasis)
	safeguards := strings.TrimSpace(f.Safeguards)
	// SCCs and BCRs are safeguards themselves and must be named
	if (basis == models.BasisSCC || basis == models.BasisBCR) && safeguards == "" {
		respondFieldError(c, "safeguards", "safeguards are required for scc and bcr transfers")
		return false
	}

	t.Recipient = strings.TrimSpace(f.Recipient)
	t.Country = strings.ToUpper(f.Country)
	t.DataCategories = strings.TrimSpace(f.DataCategories)
	t.Purpose = strings.TrimSpace(f.Purpose)
	t.LegalBasis = basis
	t.Safeguards = safeguards
	t.StartDate = start
	t.EndDate = end
	t.TIACompleted = f.TIACompleted
	return true
}

func ListTransfers(c *gin.Context) {
	items, total, ok := listRecords[models.GDPRTransfer](c, transferList)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func GetTransfer(c *gin.Context) {
	t, ok := loadRecord[models.GDPRTransfer](c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, t)
}

func CreateTransfer(c *gin.Context) {
	var form transferForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	var t models.GDPRTransfer
	if !form.apply(c, &t) {
		return
	}
	if err := database.DB.Create(&t).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save transfer")
		return
	}

	audit(c, "gdpr_transfer", t.ID, "create", "Transfer recorded: "+t.Recipient+" ("+t.Country+")")
	c.JSON(http.StatusCreated, t)
}

func UpdateTransfer(c *gin.Context) {
	t, ok := loadRecord[models.GDPRTransfer](c)
	if !ok {
		return
	}

	var form transferForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}
	if !form.apply(c, t) {
		return
	}
	if err := database.DB.Save(t).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save transfer")
		return
	}

	audit(c, "gdpr_transfer", t.ID, "update", "Transfer updated: "+t.Recipient)
	c.JSON(http.StatusOK, t)
}

func DeleteTransfer(c *gin.Context) {
	t, ok := loadRecord[models.GDPRTransfer](c)
	if !ok {
		return
	}
	if err := database.DB.Delete(t).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to delete transfer")
		return
	}
	audit(c, "gdpr_transfer", t.ID, "delete", "Transfer deleted: "+t.Recipient)
	c.Status(http.StatusNoContent)
}

func ExportTransfers(c *gin.Context) {
	exportRecords(c, transferList, "GDPR Transfers",
		[]string{"ID", "Recipient", "Country", "Data categories", "Purpose", "Legal basis", "Safeguards", "Start", "End", "TIA"},
		func(t models.GDPRTransfer) []string {
			return []string{
				strconv.FormatUint(uint64(t.ID), 10),
				t.Recipient,
				t.Country,
				t.DataCategories,
				t.Purpose,
				string(t.LegalBasis),
				t.Safeguards,
				formatDate(t.StartDate),
				formatDate(t.EndDate),
				yesNo(t.TIACompleted),
			}
		})
}
