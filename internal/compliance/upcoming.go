package compliance

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"zzpri-tracker/internal/models"
)

// DeadlineItem is one open obligation with a due date.
type DeadlineItem struct {
	Kind    string    `json:"kind"`
	ID      uint      `json:"id"`
	Title   string    `json:"title"`
	Due     time.Time `json:"due"`
	Days    int       `json:"days"`
	Urgency Urgency   `json:"urgency"`
}

// OpenDeadlines merges unfulfilled breach notifications, unsubmitted NIS2
// reports and open tickets with a due date, soonest first.
func OpenDeadlines(now time.Time, breaches []models.GDPRBreach, reports []models.CyberIncidentReport, tickets []models.SupportTicket) []DeadlineItem {
	var items []DeadlineItem
	add := func(kind string, id uint, title string, due time.Time) {
		items = append(items, DeadlineItem{
			Kind:    kind,
			ID:      id,
			Title:   title,
			Due:     due,
			Days:    DaysUntil(now, due),
			Urgency: ClassifyDeadline(now, due),
		})
	}

	for _, b := range breaches {
		if b.AuthorityNotified {
			continue
		}
		add("gdpr_breach", b.ID, b.Title, BreachDeadline(b.DiscoveredAt))
	}
	for _, r := range reports {
		if r.Status == models.ReportSubmitted {
			continue
		}
		due, err := ReportDeadline(r.ReportType, r.DetectedAt)
		if err != nil {
			continue
		}
		add("cyber_report", r.ID, fmt.Sprintf("%s (%s)", r.Title, r.ReportType), due)
	}
	for _, t := range tickets {
		if t.Status.IsDone() || t.DueDate == nil {
			continue
		}
		add("ticket", t.ID, t.Subject, *t.DueDate)
	}

	slices.SortStableFunc(items, func(a, b DeadlineItem) int {
		return cmp.Compare(a.Due.UnixNano(), b.Due.UnixNano())
	})
	return items
}
