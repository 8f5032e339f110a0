package compliance

import (
	"fmt"
	"time"

	"zzpri-tracker/internal/models"
)

type Urgency string

const (
	UrgencyNone    Urgency = "none" // no deadline
	UrgencyDone    Urgency = "done" // obligation already fulfilled
	UrgencyOK      Urgency = "ok"
	UrgencySoon    Urgency = "soon"
	UrgencyUrgent  Urgency = "urgent"
	UrgencyOverdue Urgency = "overdue"
)

const (
	BreachNotificationWindow = 72 * time.Hour
	urgentWithin             = 24 * time.Hour
	soonWithin               = 7 * 24 * time.Hour
)

func ClassifyDeadline(now, deadline time.Time) Urgency {
	left := deadline.Sub(now)
	switch {
	case left < 0:
		return UrgencyOverdue
	case left < urgentWithin:
		return UrgencyUrgent
	case left <= soonWithin:
		return UrgencySoon
	default:
		return UrgencyOK
	}
}

// DeadlineWindow is the span of deadlines that ClassifyDeadline puts into
// one urgency class at a fixed moment. A zero bound is unbounded.
type DeadlineWindow struct {
	From     time.Time
	FromOpen bool // From itself is excluded
	To       time.Time
	ToClosed bool // To itself is included
}

// UrgencyWindow inverts ClassifyDeadline for the time-based classes.
func UrgencyWindow(now time.Time, u Urgency) (DeadlineWindow, bool) {
	switch u {
	case UrgencyOverdue:
		return DeadlineWindow{To: now}, true
	case UrgencyUrgent:
		return DeadlineWindow{From: now, To: now.Add(urgentWithin)}, true
	case UrgencySoon:
		return DeadlineWindow{From: now.Add(urgentWithin), To: now.Add(soonWithin), ToClosed: true}, true
	case UrgencyOK:
		return DeadlineWindow{From: now.Add(soonWithin), FromOpen: true}, true
	default:
		return DeadlineWindow{}, false
	}
}

// Shift moves both bounds by d.
func (w DeadlineWindow) Shift(d time.Duration) DeadlineWindow {
	if !w.From.IsZero() {
		w.From = w.From.Add(d)
	}
	if !w.To.IsZero() {
		w.To = w.To.Add(d)
	}
	return w
}

// Contains reports whether deadline lies in the window.
func (w DeadlineWindow) Contains(deadline time.Time) bool {
	if !w.From.IsZero() {
		if deadline.Before(w.From) || (w.FromOpen && deadline.Equal(w.From)) {
			return false
		}
	}
	if !w.To.IsZero() {
		if deadline.After(w.To) || (!w.ToClosed && deadline.Equal(w.To)) {
			return false
		}
	}
	return true
}

// ClassifyOptional returns UrgencyNone for a missing deadline.
func ClassifyOptional(now time.Time, deadline *time.Time) Urgency {
	if deadline == nil {
		return UrgencyNone
	}
	return ClassifyDeadline(now, *deadline)
}

// DaysUntil counts calendar days from now to deadline in now's location.
// Negative when the deadline day has passed.
func DaysUntil(now, deadline time.Time) int {
	y1, m1, d1 := now.Date()
	y2, m2, d2 := deadline.In(now.Location()).Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func BreachDeadline(discoveredAt time.Time) time.Time {
	return discoveredAt.Add(BreachNotificationWindow)
}

func BreachUrgency(now time.Time, b models.GDPRBreach) Urgency {
	if b.AuthorityNotified {
		return UrgencyDone
	}
	return ClassifyDeadline(now, BreachDeadline(b.DiscoveredAt))
}

// NeedsReminder reports whether an unnotified breach is inside the reminder
// window and has not been reminded yet. Overdue breaches qualify too.
func NeedsReminder(now, discoveredAt time.Time, notified bool, reminderSentAt *time.Time, window time.Duration) bool {
	if notified || reminderSentAt != nil {
		return false
	}
	return BreachDeadline(discoveredAt).Sub(now) <= window
}

// ReportDeadline is when a NIS2 report of the given stage is due.
func ReportDeadline(t models.ReportType, detectedAt time.Time) (time.Time, error) {
	switch t {
	case models.ReportEarlyWarning:
		return detectedAt.Add(24 * time.Hour), nil
	case models.ReportNotification:
		return detectedAt.Add(72 * time.Hour), nil
	case models.ReportFinal:
		return detectedAt.AddDate(0, 0, 30), nil
	}
	return time.Time{}, fmt.Errorf("unknown report type %q", t)
}

func ReportUrgency(now time.Time, r models.CyberIncidentReport) Urgency {
	if r.Status == models.ReportSubmitted {
		return UrgencyDone
	}
	deadline, err := ReportDeadline(r.ReportType, r.DetectedAt)
	if err != nil {
		return UrgencyNone
	}
	return ClassifyDeadline(now, deadline)
}

func TicketUrgency(now time.Time, t models.SupportTicket) Urgency {
	if t.Status.IsDone() {
		return UrgencyDone
	}
	return ClassifyOptional(now, t.DueDate)
}
