package handlers

import (
	"context"
	"net/http"
	"time"

	"zzpri-tracker/internal/compliance"
	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const dashboardTTL = 30 * time.Second

var dashboardCache = expirable.NewLRU[string, *Dashboard](1, nil, dashboardTTL)

type Dashboard struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Totals      map[string]int64 `json:"totals"`

	OpenIncidentsBySeverity map[string]int64 `json:"open_incidents_by_severity"`
	OpenRisksByLevel        map[string]int64 `json:"open_risks_by_level"`
	ControlsByStatus        map[string]int64 `json:"controls_by_status"`
	NIS2Coverage            float64          `json:"nis2_coverage"`

	OpenBreaches      int64                     `json:"open_breaches"`
	OverdueBreaches   int64                     `json:"overdue_breaches"`
	OverdueTickets    int64                     `json:"overdue_tickets"`
	ReportsDue        int64                     `json:"reports_due"`
	ActiveConfidants  int64                     `json:"active_confidants"`
	ActiveProcedures  int64                     `json:"active_procedures"`
	UpcomingDeadlines []compliance.DeadlineItem `json:"upcoming_deadlines"`
}

const upcomingLimit = 10

func GetDashboard(c *gin.Context) {
	if d, ok := dashboardCache.Get("dashboard"); ok {
		c.JSON(http.StatusOK, d)
		return
	}

	d, err := BuildDashboard(c.Request.Context(), time.Now().UTC())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to build dashboard")
		return
	}
	dashboardCache.Add("dashboard", d)
	c.JSON(http.StatusOK, d)
}

type groupCount struct {
	Bucket string
	Count  int64
}

func countBy(db *gorm.DB, model any, column string, where ...any) (map[string]int64, error) {
	var rows []groupCount
	q := db.Model(model).Select(column + " AS bucket, COUNT(*) AS count")
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	if err := q.Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Bucket] = r.Count
	}
	return out, nil
}

// BuildDashboard aggregates the figures shown on the landing page.
func BuildDashboard(ctx context.Context, now time.Time) (*Dashboard, error) {
	db := database.DB.WithContext(ctx)
	d := &Dashboard{GeneratedAt: now, Totals: map[string]int64{}}

	totals := map[string]any{
		"incidents":      &models.Incident{},
		"cyber_reports":  &models.CyberIncidentReport{},
		"devices":        &models.Device{},
		"tickets":        &models.SupportTicket{},
		"nis2_controls":  &models.NIS2Control{},
		"risks":          &models.RiskEntry{},
		"gdpr_breaches":  &models.GDPRBreach{},
		"gdpr_transfers": &models.GDPRTransfer{},
		"confidants":     &models.WhistleblowerConfidant{},
		"procedures":     &models.WhistleblowerProcedure{},
		"documents":      &models.ProcedureDocument{},
	}
	counts := make(map[string]*int64, len(totals))
	for name := range totals {
		counts[name] = new(int64)
	}

	var (
		controls     map[string]int64
		openBreaches []models.GDPRBreach
		draftReports []models.CyberIncidentReport
		openTickets  []models.SupportTicket
	)

	g, _ := errgroup.WithContext(ctx)
	for name, model := range totals {
		name, model := name, model
		g.Go(func() error {
			return db.Model(model).Count(counts[name]).Error
		})
	}
	g.Go(func() (err error) {
		d.OpenIncidentsBySeverity, err = countBy(db, &models.Incident{}, "severity",
			"status IN ?", []models.IncidentStatus{models.IncidentOpen, models.IncidentInvestigating})
		return err
	})
	g.Go(func() (err error) {
		d.OpenRisksByLevel, err = countBy(db, &models.RiskEntry{}, "level", "status <> ?", models.RiskClosed)
		return err
	})
	g.Go(func() (err error) {
		controls, err = countBy(db, &models.NIS2Control{}, "status")
		return err
	})
	g.Go(func() error {
		return db.Where("authority_notified = ?", false).Find(&openBreaches).Error
	})
	g.Go(func() error {
		return db.Where("status = ?", models.ReportDraft).Find(&draftReports).Error
	})
	g.Go(func() error {
		return db.Where("status IN ?", []models.TicketStatus{models.TicketOpen, models.TicketInProgress}).
			Where("due_date IS NOT NULL").Find(&openTickets).Error
	})
	g.Go(func() error {
		return db.Model(&models.WhistleblowerConfidant{}).Where("active = ?", true).Count(&d.ActiveConfidants).Error
	})
	g.Go(func() error {
		return db.Model(&models.WhistleblowerProcedure{}).Where("status = ?", models.ProcedureActive).Count(&d.ActiveProcedures).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for name, n := range counts {
		d.Totals[name] = *n
	}

	d.ControlsByStatus = controls
	byStatus := make(map[models.ControlStatus]int64, len(controls))
	for k, v := range controls {
		byStatus[models.ControlStatus(k)] = v
	}
	d.NIS2Coverage = compliance.ControlCoverage(byStatus)

	for _, b := range openBreaches {
		if b.Status != models.BreachClosed {
			d.OpenBreaches++
		}
		if compliance.BreachUrgency(now, b) == compliance.UrgencyOverdue {
			d.OverdueBreaches++
		}
	}
	for _, t := range openTickets {
		if compliance.TicketUrgency(now, t) == compliance.UrgencyOverdue {
			d.OverdueTickets++
		}
	}
	d.ReportsDue = int64(len(draftReports))

	upcoming := compliance.OpenDeadlines(now, openBreaches, draftReports, openTickets)
	if len(upcoming) > upcomingLimit {
		upcoming = upcoming[:upcomingLimit]
	}
	d.UpcomingDeadlines = upcoming
	return d, nil
}
