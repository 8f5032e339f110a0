package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/models"

	"github.com/gin-gonic/gin"
)

//
// CONFIDANTS
//

var confidantList = listSpec{
	search: []string{"name", "position"},
	filters: map[string]filterDef{
		"active": boolFilter("active"),
		"deputy": boolFilter("deputy"),
	},
	sorts: map[string]string{
		"name":         "name",
		"appointed_at": "appointed_at",
		"created_at":   "created_at",
	},
	defaultSort: "name",
}

// canSeeContacts reports whether the caller may see confidant contact details.
func canSeeContacts(c *gin.Context) bool {
	role := currentRole(c)
	return role == models.RoleAdmin || role == models.RoleDPO
}

func maskConfidant(c *gin.Context, w models.WhistleblowerConfidant) models.WhistleblowerConfidant {
	if canSeeContacts(c) {
		return w
	}
	w.Email = maskEmail(w.Email)
	if w.Phone != "" {
		w.Phone = maskPhone(w.Phone)
	}
	return w
}

// maskEmail keeps at most two characters of the local part.
func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	runes := []rune(local)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return string(runes) + "***@" + domain
}

// maskPhone keeps the last two digits.
func maskPhone(phone string) string {
	runes := []rune(phone)
	if len(runes) <= 4 {
		return "***"
	}
	return strings.Repeat("*", len(runes)-2) + string(runes[len(runes)-2:])
}

type confidantForm struct {
	Name        string `form:"name" json:"name" binding:"required,min=3,max=255"`
	Email       string `form:"email" json:"email" binding:"required,email,max=255"`
	Phone       string `form:"phone" json:"phone" binding:"omitempty,e164"`
	Position    string `form:"position" json:"position" binding:"max=255"`
	AppointedAt string `form:"appointed_at" json:"appointed_at" binding:"omitempty,isodate"`
	Active      *bool  `form:"active" json:"active"`
	Deputy      bool   `form:"deputy" json:"deputy"`
}

func (f confidantForm) apply(c *gin.Context, w *models.WhistleblowerConfidant) bool {
	email := strings.ToLower(strings.TrimSpace(f.Email))
	if !strings.EqualFold(email, w.Email) {
		var count int64
		database.DB.Model(&models.WhistleblowerConfidant{}).
			Where("LOWER(email) = ? AND id <> ?", email, w.ID).
			Count(&count)
		if count > 0 {
			respondFieldError(c, "email", "a confidant with this e-mail already exists")
			return false
		}
	}

	active := true
	if f.Active != nil {
		active = *f.Active
	}

	w.Name = strings.TrimSpace(f.Name)
	w.Email = email
	w.Phone = strings.TrimSpace(f.Phone)
	w.Position = strings.TrimSpace(f.Position)
	w.AppointedAt = parseOptionalDate(f.AppointedAt)
	w.Active = active
	w.Deputy = f.Deputy
	return true
}

func ListConfidants(c *gin.Context) {
	items, total, ok := listRecords[models.WhistleblowerConfidant](c, confidantList)
	if !ok {
		return
	}
	for i := range items {
		items[i] = maskConfidant(c, items[i])
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func GetConfidant(c *gin.Context) {
	w, ok := loadRecord[models.WhistleblowerConfidant](c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, maskConfidant(c, *w))
}

func CreateConfidant(c *gin.Context) {
	var form confidantForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	var w models.WhistleblowerConfidant
	if !form.apply(c, &w) {
		return
	}
	if err := database.DB.Create(&w).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save confidant")
		return
	}

	audit(c, "confidant", w.ID, "create", "Confidant appointed: "+w.Name)
	c.JSON(http.StatusCreated, w)
}

func UpdateConfidant(c *gin.Context) {
	w, ok := loadRecord[models.WhistleblowerConfidant](c)
	if !ok {
		return
	}

	var form confidantForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}
	if !form.apply(c, w) {
		return
	}
	if err := database.DB.Save(w).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save confidant")
		return
	}

	audit(c, "confidant", w.ID, "update", "Confidant updated: "+w.Name)
	c.JSON(http.StatusOK, w)
}

func DeleteConfidant(c *gin.Context) {
	w, ok := loadRecord[models.WhistleblowerConfidant](c)
	if !ok {
		return
	}

	var active int64
	database.DB.Model(&models.WhistleblowerProcedure{}).
		Where("confidant_id = ? AND status = ?", w.ID, models.ProcedureActive).
		Count(&active)
	if active > 0 {
		respondError(c, http.StatusConflict, "confidant is assigned to an active procedure")
		return
	}

	if err := database.DB.Delete(w).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to delete confidant")
		return
	}
	audit(c, "confidant", w.ID, "delete", "Confidant removed: "+w.Name)
	c.Status(http.StatusNoContent)
}

func ExportConfidants(c *gin.Context) {
	exportRecords(c, confidantList, "Whistleblower Confidants",
		[]string{"ID", "Name", "E-mail", "Phone", "Position", "Appointed", "Active", "Deputy"},
		func(w models.WhistleblowerConfidant) []string {
			w = maskConfidant(c, w)
			return []string{
				strconv.FormatUint(uint64(w.ID), 10),
				w.Name,
				w.Email,
				w.Phone,
				w.Position,
				formatDate(w.AppointedAt),
				yesNo(w.Active),
				yesNo(w.Deputy),
			}
		})
}

//
// PROCEDURES
//

var procedureList = listSpec{
	search: []string{"title", "description", "version"},
	filters: map[string]filterDef{
		"status":       textFilter("status"),
		"channel":      textFilter("channel"),
		"confidant_id": idFilter("confidant_id"),
	},
	sorts: map[string]string{
		"title":      "title",
		"adopted_at": "adopted_at",
		"created_at": "created_at",
		"status":     "status",
	},
	defaultSort: "title",
	preload:     []string{"Confidant"},
}

type procedureForm struct {
	Title       string `form:"title" json:"title" binding:"required,min=3,max=255"`
	Version     string `form:"version" json:"version" binding:"required,max=32"`
	Channel     string `form:"channel" json:"channel" binding:"required,oneof=internal external"`
	Description string `form:"description" json:"description"`
	Status      string `form:"status" json:"status" binding:"omitempty,oneof=draft active archived"`
	AdoptedAt   string `form:"adopted_at" json:"adopted_at" binding:"omitempty,isodate"`
	ConfidantID *uint  `form:"confidant_id" json:"confidant_id"`
}

func (f procedureForm) apply(c *gin.Context, p *models.WhistleblowerProcedure) bool {
	status := models.ProcedureStatus(f.Status)
	if status == "" {
		status = models.ProcedureDraft
	}

	if f.ConfidantID != nil {
		var w models.WhistleblowerConfidant
		if err := database.DB.First(&w, *f.ConfidantID).Error; err != nil {
			respondFieldError(c, "confidant_id", "confidant not found")
			return false
		}
		if status == models.ProcedureActive && !w.Active {
			respondFieldError(c, "confidant_id", "an active procedure needs an active confidant")
			return false
		}
	}

	// internal channels must name who receives reports before going live
	if status == models.ProcedureActive && models.ProcedureChannel(f.Channel) == models.ChannelInternal && f.ConfidantID == nil {
		respondFieldError(c, "confidant_id", "an active internal procedure needs a confidant")
		return false
	}

	adopted := parseOptionalDate(f.AdoptedAt)
	if status == models.ProcedureActive && adopted == nil {
		adopted = p.AdoptedAt
	}

	p.Title = strings.TrimSpace(f.Title)
	p.Version = strings.TrimSpace(f.Version)
	p.Channel = models.ProcedureChannel(f.Channel)
	p.Description = strings.TrimSpace(f.Description)
	p.Status = status
	p.AdoptedAt = adopted
	p.ConfidantID = f.ConfidantID
	return true
}

func ListProcedures(c *gin.Context) {
	items, total, ok := listRecords[models.WhistleblowerProcedure](c, procedureList)
	if !ok {
		return
	}
	for i := range items {
		if items[i].Confidant != nil {
			masked := maskConfidant(c, *items[i].Confidant)
			items[i].Confidant = &masked
		}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

// GetProcedure returns the procedure with its documents.
func GetProcedure(c *gin.Context) {
	p, ok := loadRecord[models.WhistleblowerProcedure](c, "Confidant")
	if !ok {
		return
	}
	if p.Confidant != nil {
		masked := maskConfidant(c, *p.Confidant)
		p.Confidant = &masked
	}

	docs := []models.ProcedureDocument{}
	database.DB.Where("procedure_id = ?", p.ID).Order("created_at desc").Find(&docs)

	c.JSON(http.StatusOK, gin.H{
		"procedure": p,
		"documents": docs,
	})
}

func CreateProcedure(c *gin.Context) {
	var form procedureForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	var p models.WhistleblowerProcedure
	if !form.apply(c, &p) {
		return
	}
	if err := database.DB.Create(&p).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save procedure")
		return
	}

	audit(c, "procedure", p.ID, "create", "Whistleblower procedure created: "+p.Title+" v"+p.Version)
	c.JSON(http.StatusCreated, p)
}

func UpdateProcedure(c *gin.Context) {
	p, ok := loadRecord[models.WhistleblowerProcedure](c)
	if !ok {
		return
	}

	var form procedureForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	prevStatus := p.Status
	if !form.apply(c, p) {
		return
	}
	if err := database.DB.Omit("Confidant").Save(p).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save procedure")
		return
	}

	action, details := "update", "Whistleblower procedure updated: "+p.Title
	if prevStatus != p.Status {
		action = "status_change"
		details = "Whistleblower procedure " + p.Title + " status changed to: " + string(p.Status)
	}
	audit(c, "procedure", p.ID, action, details)
	c.JSON(http.StatusOK, p)
}

func DeleteProcedure(c *gin.Context) {
	p, ok := loadRecord[models.WhistleblowerProcedure](c)
	if !ok {
		return
	}

	var docs int64
	database.DB.Model(&models.ProcedureDocument{}).Where("procedure_id = ?", p.ID).Count(&docs)
	if docs > 0 {
		respondError(c, http.StatusConflict, "procedure still has documents")
		return
	}

	if err := database.DB.Delete(p).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to delete procedure")
		return
	}
	audit(c, "procedure", p.ID, "delete", "Whistleblower procedure deleted: "+p.Title)
	c.Status(http.StatusNoContent)
}

func ExportProcedures(c *gin.Context) {
	exportRecords(c, procedureList, "Whistleblower Procedures",
		[]string{"ID", "Title", "Version", "Channel", "Status", "Adopted", "Confidant"},
		func(p models.WhistleblowerProcedure) []string {
			var confidant string
			if p.Confidant != nil {
				confidant = p.Confidant.Name
			}
			return []string{
				strconv.FormatUint(uint64(p.ID), 10),
				p.Title,
				p.Version,
				string(p.Channel),
				string(p.Status),
				formatDate(p.AdoptedAt),
				confidant,
			}
		})
}
