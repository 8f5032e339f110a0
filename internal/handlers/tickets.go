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

var ticketList = listSpec{
	search: []string{"subject", "description", "requester", "assignee"},
	filters: map[string]filterDef{
		"status":    textFilter("status"),
		"priority":  textFilter("priority"),
		"assignee":  textFilter("assignee"),
		"requester": textFilter("requester"),
		"device_id": idFilter("device_id"),
	},
	sorts: map[string]string{
		"due_date":   "due_date",
		"created_at": "created_at",
		"priority":   "priority",
		"status":     "status",
		"subject":    "subject",
	},
	defaultSort: "created_at",
	defaultDesc: true,
}

type ticketView struct {
	models.SupportTicket
	Urgency compliance.Urgency `json:"urgency"`
}

type ticketForm struct {
	Subject     string `form:"subject" json:"subject" binding:"required,min=3,max=255"`
	Description string `form:"description" json:"description"`
	Priority    string `form:"priority" json:"priority" binding:"required,oneof=low medium high urgent"`
	Status      string `form:"status" json:"status" binding:"omitempty,oneof=open in_progress resolved closed"`
	Requester   string `form:"requester" json:"requester" binding:"max=255"`
	Assignee    string `form:"assignee" json:"assignee" binding:"max=255"`
	DueDate     string `form:"due_date" json:"due_date" binding:"omitempty,isodate"`
	DeviceID    *uint  `form:"device_id" json:"device_id"`
}

func (f ticketForm) apply(c *gin.Context, t *models.SupportTicket) bool {
	if !deviceExists(c, f.DeviceID) {
		return false
	}

	status := models.TicketStatus(f.Status)
	if status == "" {
		status = models.TicketOpen
	}
	switch {
	case status.IsDone() && t.ClosedAt == nil:
		now := time.Now().UTC()
		t.ClosedAt = &now
	case !status.IsDone():
		// reopened
		t.ClosedAt = nil
	}

	requester := strings.TrimSpace(f.Requester)
	if requester == "" && t.ID == 0 {
		if u, ok := c.Get("CurrentUser"); ok {
			if user, ok := u.(models.User); ok {
				requester = user.Username
			}
		}
	}

	t.Subject = strings.TrimSpace(f.Subject)
	t.Description = strings.TrimSpace(f.Description)
	t.Priority = models.TicketPriority(f.Priority)
	t.Status = status
	t.Requester = requester
	t.Assignee = strings.TrimSpace(f.Assignee)
	t.DueDate = parseOptionalDate(f.DueDate)
	t.DeviceID = f.DeviceID
	return true
}

func ListTickets(c *gin.Context) {
	items, total, ok := listRecords[models.SupportTicket](c, ticketList)
	if !ok {
		return
	}
	now := time.Now()
	views := make([]ticketView, len(items))
	for i, t := range items {
		views[i] = ticketView{SupportTicket: t, Urgency: compliance.TicketUrgency(now, t)}
	}
	c.JSON(http.StatusOK, gin.H{"items": views, "total": total})
}

func GetTicket(c *gin.Context) {
	t, ok := loadRecord[models.SupportTicket](c, "Device")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ticketView{SupportTicket: *t, Urgency: compliance.TicketUrgency(time.Now(), *t)})
}

func CreateTicket(c *gin.Context) {
	var form ticketForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	var t models.SupportTicket
	if !form.apply(c, &t) {
		return
	}
	if err := database.DB.Create(&t).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save ticket")
		return
	}

	audit(c, "ticket", t.ID, "create", "Ticket created: "+t.Subject)
	c.JSON(http.StatusCreated, ticketView{SupportTicket: t, Urgency: compliance.TicketUrgency(time.Now(), t)})
}

func UpdateTicket(c *gin.Context) {
	t, ok := loadRecord[models.SupportTicket](c)
	if !ok {
		return
	}

	var form ticketForm
	if err := c.ShouldBind(&form); err != nil {
		respondBindError(c, err)
		return
	}

	prevStatus := t.Status
	if !form.apply(c, t) {
		return
	}
	if err := database.DB.Save(t).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save ticket")
		return
	}

	action, details := "update", "Ticket updated: "+t.Subject
	if prevStatus != t.Status {
		action = "status_change"
		details = "Ticket status changed to: " + string(t.Status)
	}
	audit(c, "ticket", t.ID, action, details)
	c.JSON(http.StatusOK, ticketView{SupportTicket: *t, Urgency: compliance.TicketUrgency(time.Now(), *t)})
}

func DeleteTicket(c *gin.Context) {
	t, ok := loadRecord[models.SupportTicket](c)
	if !ok {
		return
	}
	if err := database.DB.Delete(t).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "failed to delete ticket")
		return
	}
	audit(c, "ticket", t.ID, "delete", "Ticket deleted: "+t.Subject)
	c.Status(http.StatusNoContent)
}

func ExportTickets(c *gin.Context) {
	now := time.Now()
	exportRecords(c, ticketList, "Support Tickets",
		[]string{"ID", "Subject", "Priority", "Status", "Requester", "Assignee", "Due", "Closed", "Urgency"},
		func(t models.SupportTicket) []string {
			return []string{
				strconv.FormatUint(uint64(t.ID), 10),
				t.Subject,
				string(t.Priority),
				string(t.Status),
				t.Requester,
				t.Assignee,
				formatDate(t.DueDate),
				formatDate(t.ClosedAt),
				string(compliance.TicketUrgency(now, t)),
			}
		})
}
