package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"zzpri-tracker/internal/compliance"
	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/models"
	"zzpri-tracker/internal/notify"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var breachList = listSpec{
	search: []string{"title", "description", "data_categories"},
	filters: map[string]filterDef{
		"status":             textFilter("status"),
		"risk_to_rights":     textFilter("risk_to_rights"),
		"authority_notified": boolFilter("authority_notified"),
	},
	sorts: map[string]string{
		"discovered_at":     "discovered_at",
		"affected_subjects": "affected_subjects",
		"created_at":        "created_at",
		"status":            "status",
	},
	defaultSort: "discovered_at",
	defaultDesc: true,
	extra:       breachUrgencyScope,
}

// breachUrgencyScope turns the derived urgency filter into conditions on
// authority_notified and discovered_at, so counts and pages stay exact.
func breachUrgencyScope(c *gin.Context, db *gorm.DB) (*gorm.DB, bool) {
	u := compliance.Urgency(strings.TrimSpace(c.Query("urgency")))
	if u == "" {
		return db, true
	}
	if u == compliance.UrgencyDone {
		return db.Where("authority_notified = ?", true), true
	}

	w, ok := compliance.UrgencyWindow(time.Now().UTC(), u)
	if !ok {
		respondError(c, http.StatusBadRequest, "invalid filter urgency")
		return nil, false
	}
	w = w.Shift(-compliance.BreachNotificationWindow)

	db = db.Where("authority_notified = ?", false)
	if !w.From.IsZero() {
		op := " >= ?"
		if w.FromOpen {
			op = " > ?"
		}
		db = db.Where("discovered_at"+op, w.From)
	}
	if !w.To.IsZero() {
		op := " < ?"
		if w.ToClosed {
			op = " <= ?"
		}
		db = db.Where("discovered_at"+op, w.To)
	}
	return db, true
}

type breachView struct {
	models.GDPRBreach
	Deadline time.Time          `json:"deadline"`
	DaysLeft int                `json:"days_left"`
	Urgency  compliance.Urgency `json:"urgency"`
}

func newBreachView(now time.Time, b models.GDPRBreach) breachView {
	deadline := compliance.BreachDeadline(b.DiscoveredAt)
	return breachView{
		GDPRBreach: b,
		Deadline:   deadline,
		DaysLeft:   compliance.DaysUntil(now, deadline),
		Urgency:    compliance.BreachUrgency(now, b),
	}
}

type breachForm struct {
	Title               string `form:"title" json:"title" binding:"required,min=3,max=255"`
	Description         string `form:"description" json:"description"`
	DiscoveredAt        string `form:"discovered_at" json:"discovered_at" binding:"required,isodate"`
	DataCategories      string `form:"data_categories" json:"data_categories" binding:"max=500"`
	AffectedSubjects    int    `form:"affected_subjects" json:"affected_subjects" binding:"min=0"`
	RiskToRights        string `form:"risk_to_rights" json:"risk_to_rights" binding:"omitempty,oneof=none low high"`
	AuthorityNotified   bool   `form:"authority_notified" json:"authority_notified"`
	AuthorityNotifiedAt string `form:"authority_notified_at" json:"authority_notified_at" binding:"omitempty,isodate"`
	SubjectsNotified    bool   `form:"subjects_notified" json:"subjects_notified"`
	Status              string `form:"status" json:"status" binding:"omitempty,oneof=open contained closed"`
}

func (f breachForm) apply(c *gin.Context, b *models.GDPRBreach) bool {
	discovered, _ := parseDate(f.DiscoveredAt)
	if discovered.After(time.Now().Add(time.Hour)) {
		respondFieldError(c, "discovered_at", "discovered_at lies in the future")
		return false
	}

	notifiedAt := parseOptionalDate(f.AuthorityNotifiedAt)
	switch {
	case !f.AuthorityNotified:
		notifiedAt = nil
	case notifiedAt == nil:
		notifiedAt = b.AuthorityNotifiedAt
		if notifiedAt == nil {
			now := time.Now().UTC()
			notifiedAt = &now
		}
	}
	if notifiedAt != nil && notifiedAt.Before(discovered) {
		respondFieldError(c, "authority_notified_at", "authority_notified_at must not precede discovered_at")
		return false
	}

	status := models.BreachStatus(f.Status)
	if status == "" {
		status = models.BreachOpen
	}
	risk := models.BreachRisk(f.RiskToRights)
	if risk == "" {
		risk = models.BreachRiskLow
	}

	b.Title = strings.TrimSpace(f.Title)
	b.Description = strings.TrimSpace(f.Description)
	b.DiscoveredAt = discovered
	b.DataCategories = strings.TrimSpace(f.DataCategories)
	b.AffectedSubjects = f.AffectedSubjects
	b.RiskToRights = risk
	b.AuthorityNotified = f.AuthorityNotified
	b.AuthorityNotifiedAt = notifiedAt
	b.SubjectsNotified = f.SubjectsNotified
	b.Status = status
	return true
}

func ListBreaches(c *gin.Context) {
	items, total, ok := listRecords[models.GDPRBreach](c, breachList)
	if !ok {
		return
	}

	now := time.Now()
	views := make([]breachView, 0, len(items))
	for _, b := range items {
		views = append(views, newBreachView(now, b))
	}
	c.JSON(http.StatusOK, gin.H{"items": views, "total": total})
}

func GetBreach(c *gin.Context) {
	b, ok := loadRecord[models.GDPRBreach](c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newBreachView(time.Now(), *b))
}

func CreateBreach(c *gin.Context) {
	var form breachForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	var b models.GDPRBreach
	if !form.apply(c, &b) {
		return
	}
	if err := database.DB.Create(&b).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save breach")
		return
	}

	audit(c, "gdpr_breach", b.ID, "create", "GDPR breach logged: "+b.Title)
	c.JSON(http.StatusCreated, newBreachView(time.Now(), b))
}

func UpdateBreach(c *gin.Context) {
	b, ok := loadRecord[models.GDPRBreach](c)
	if !ok {
		return
	}

	var form breachForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}
	if !form.apply(c, b) {
		return
	}
	if err := database.DB.Save(b).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save breach")
		return
	}

	audit(c, "gdpr_breach", b.ID, "update", "GDPR breach updated: "+b.Title)
	c.JSON(http.StatusOK, newBreachView(time.Now(), *b))
}

func DeleteBreach(c *gin.Context) {
	b, ok := loadRecord[models.GDPRBreach](c)
	if !ok {
		return
	}
	if err := database.DB.Delete(b).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to delete breach")
		return
	}
	audit(c, "gdpr_breach", b.ID, "delete", "GDPR breach deleted: "+b.Title)
	c.Status(http.StatusNoContent)
}

// NotifyAuthority records that the supervisory authority has been notified.
func NotifyAuthority(c *gin.Context) {
	b, ok := loadRecord[models.GDPRBreach](c)
	if !ok {
		return
	}
	if b.AuthorityNotified {
		respondError(c, http.StatusConflict, "authority already notified")
		return
	}

	now := time.Now().UTC()
	b.AuthorityNotified = true
	b.AuthorityNotifiedAt = &now
	if err := database.DB.Save(b).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save breach")
		return
	}

	details := "Supervisory authority notified"
	if now.After(compliance.BreachDeadline(b.DiscoveredAt)) {
		details += " after the 72h deadline"
	}
	audit(c, "gdpr_breach", b.ID, "notify_authority", details)
	c.JSON(http.StatusOK, newBreachView(now, *b))
}

// BreachReminderHandler triggers an immediate reminder mail for one breach.
type BreachReminderHandler struct {
	Reminder *notify.BreachReminder
}

func (h *BreachReminderHandler) Remind(c *gin.Context) {
	b, ok := loadRecord[models.GDPRBreach](c)
	if !ok {
		return
	}
	if b.AuthorityNotified {
		respondError(c, http.StatusConflict, "authority already notified")
		return
	}

	err := h.Reminder.Send(c.Request.Context(), time.Now(), b)
	if errors.Is(err, notify.ErrNotConfigured) {
		respondError(c, http.StatusServiceUnavailable, "mail delivery is not configured")
		return
	}
	if err != nil {
		slog.Error("failed to send breach reminder", "breach", b.ID, "err", err)
		respondError(c, http.StatusBadGateway, "failed to send reminder")
		return
	}

	dashboardCache.Purge()
	c.JSON(http.StatusOK, newBreachView(time.Now(), *b))
}

func ExportBreaches(c *gin.Context) {
	now := time.Now()
	exportRecords(c, breachList, "GDPR Breaches",
		[]string{"ID", "Title", "Discovered", "Deadline", "Data categories", "Subjects", "Risk", "Authority notified", "Subjects notified", "Status", "Urgency"},
		func(b models.GDPRBreach) []string {
			v := newBreachView(now, b)
			notified := yesNo(b.AuthorityNotified)
			if b.AuthorityNotifiedAt != nil {
				notified = formatTime(*b.AuthorityNotifiedAt)
			}
			return []string{
				strconv.FormatUint(uint64(b.ID), 10),
				b.Title,
				formatTime(b.DiscoveredAt),
				formatTime(v.Deadline),
				b.DataCategories,
				strconv.Itoa(b.AffectedSubjects),
				string(b.RiskToRights),
				notified,
				yesNo(b.SubjectsNotified),
				string(b.Status),
				string(v.Urgency),
			}
		})
}
