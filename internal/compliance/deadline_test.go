package compliance

import (
	"testing"
	"time"

	"zzpri-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestClassifyDeadline(t *testing.T) {
	assert.Equal(t, UrgencyOverdue, ClassifyDeadline(now, now.Add(-time.Minute)))
	assert.Equal(t, UrgencyUrgent, ClassifyDeadline(now, now))
	assert.Equal(t, UrgencyUrgent, ClassifyDeadline(now, now.Add(23*time.Hour)))
	assert.Equal(t, UrgencySoon, ClassifyDeadline(now, now.Add(24*time.Hour)))
	assert.Equal(t, UrgencySoon, ClassifyDeadline(now, now.Add(7*24*time.Hour)))
	assert.Equal(t, UrgencyOK, ClassifyDeadline(now, now.Add(8*24*time.Hour)))
	assert.Equal(t, UrgencyNone, ClassifyOptional(now, nil))
}

func TestDaysUntil(t *testing.T) {
	assert.Equal(t, 0, DaysUntil(now, now.Add(11*time.Hour)))
	assert.Equal(t, 1, DaysUntil(now, now.Add(13*time.Hour)))
	assert.Equal(t, -1, DaysUntil(now, now.Add(-13*time.Hour)))
	assert.Equal(t, 30, DaysUntil(now, now.AddDate(0, 0, 30)))
}

func TestBreachUrgency(t *testing.T) {
	b := models.GDPRBreach{DiscoveredAt: now.Add(-60 * time.Hour)}
	assert.Equal(t, UrgencyUrgent, BreachUrgency(now, b))

	b.DiscoveredAt = now.Add(-80 * time.Hour)
	assert.Equal(t, UrgencyOverdue, BreachUrgency(now, b))

	b.AuthorityNotified = true
	assert.Equal(t, UrgencyDone, BreachUrgency(now, b))
}

func TestNeedsReminder(t *testing.T) {
	window := 24 * time.Hour

	assert.False(t, NeedsReminder(now, now.Add(-10*time.Hour), false, nil, window))
	assert.True(t, NeedsReminder(now, now.Add(-50*time.Hour), false, nil, window))
	assert.True(t, NeedsReminder(now, now.Add(-100*time.Hour), false, nil, window))
	assert.False(t, NeedsReminder(now, now.Add(-50*time.Hour), true, nil, window))

	sent := now.Add(-time.Hour)
	assert.False(t, NeedsReminder(now, now.Add(-50*time.Hour), false, &sent, window))
}

func TestReportDeadline(t *testing.T) {
	d, err := ReportDeadline(models.ReportEarlyWarning, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), d)

	d, err = ReportDeadline(models.ReportNotification, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(72*time.Hour), d)

	d, err = ReportDeadline(models.ReportFinal, now)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 30), d)

	_, err = ReportDeadline("weekly", now)
	assert.Error(t, err)
}

func TestReportAndTicketUrgency(t *testing.T) {
	r := models.CyberIncidentReport{ReportType: models.ReportEarlyWarning, DetectedAt: now.Add(-30 * time.Hour), Status: models.ReportDraft}
	assert.Equal(t, UrgencyOverdue, ReportUrgency(now, r))
	r.Status = models.ReportSubmitted
	assert.Equal(t, UrgencyDone, ReportUrgency(now, r))

	due := now.Add(3 * 24 * time.Hour)
	tk := models.SupportTicket{Status: models.TicketOpen, DueDate: &due}
	assert.Equal(t, UrgencySoon, TicketUrgency(now, tk))
	tk.Status = models.TicketClosed
	assert.Equal(t, UrgencyDone, TicketUrgency(now, tk))
	tk.Status = models.TicketOpen
	tk.DueDate = nil
	assert.Equal(t, UrgencyNone, TicketUrgency(now, tk))
}

func TestUrgencyWindowMatchesClassifyDeadline(t *testing.T) {
	offsets := []time.Duration{
		-time.Hour, -time.Nanosecond, 0, time.Hour, 24*time.Hour - time.Nanosecond, 24 * time.Hour,
		3 * 24 * time.Hour, 7 * 24 * time.Hour, 7*24*time.Hour + time.Nanosecond, 30 * 24 * time.Hour,
	}
	classes := []Urgency{UrgencyOverdue, UrgencyUrgent, UrgencySoon, UrgencyOK}

	for _, off := range offsets {
		deadline := now.Add(off)
		want := ClassifyDeadline(now, deadline)
		for _, u := range classes {
			w, ok := UrgencyWindow(now, u)
			require.True(t, ok)
			assert.Equal(t, u == want, w.Contains(deadline), "offset %s, class %s", off, u)
		}
	}

	_, ok := UrgencyWindow(now, UrgencyDone)
	assert.False(t, ok)
}

func TestDeadlineWindowShift(t *testing.T) {
	w, _ := UrgencyWindow(now, UrgencyUrgent)
	discovered := w.Shift(-BreachNotificationWindow)
	assert.Equal(t, now.Add(-72*time.Hour), discovered.From)
	assert.Equal(t, now.Add(-48*time.Hour), discovered.To)

	overdue, _ := UrgencyWindow(now, UrgencyOverdue)
	assert.True(t, overdue.Shift(time.Hour).From.IsZero())
}

func TestOpenDeadlines(t *testing.T) {
	due := now.Add(10 * 24 * time.Hour)
	items := OpenDeadlines(now,
		[]models.GDPRBreach{
			{Base: models.Base{ID: 1}, Title: "lost laptop", DiscoveredAt: now.Add(-70 * time.Hour)},
			{Base: models.Base{ID: 2}, Title: "reported", DiscoveredAt: now, AuthorityNotified: true},
		},
		[]models.CyberIncidentReport{
			{Base: models.Base{ID: 3}, Title: "ransomware", ReportType: models.ReportNotification, DetectedAt: now, Status: models.ReportDraft},
		},
		[]models.SupportTicket{
			{Base: models.Base{ID: 4}, Subject: "patch vpn", Status: models.TicketOpen, DueDate: &due},
			{Base: models.Base{ID: 5}, Subject: "no due date", Status: models.TicketOpen},
		},
	)

	require.Len(t, items, 3)
	assert.Equal(t, "gdpr_breach", items[0].Kind)
	assert.Equal(t, UrgencyUrgent, items[0].Urgency)
	assert.Equal(t, "cyber_report", items[1].Kind)
	assert.Equal(t, "ransomware (notification)", items[1].Title)
	assert.Equal(t, "ticket", items[2].Kind)
	assert.Equal(t, 10, items[2].Days)
}
