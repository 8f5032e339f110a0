package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"zzpri-tracker/internal/compliance"
	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/models"

	"github.com/pkg/errors"
)

// BreachReminder mails the DPO about GDPR breaches approaching the
// 72h authority notification deadline.
type BreachReminder struct {
	Mailer    Mailer
	Recipient string
	Window    time.Duration
}

// RunOnce sends one reminder per qualifying breach and returns how many were sent.
func (r *BreachReminder) RunOnce(ctx context.Context, now time.Time) (int, error) {
	if r.Recipient == "" {
		return 0, ErrNotConfigured
	}

	var breaches []models.GDPRBreach
	err := database.DB.WithContext(ctx).
		Where("authority_notified = ? AND reminder_sent_at IS NULL", false).
		Where("discovered_at <= ?", now.Add(r.Window-compliance.BreachNotificationWindow)).
		Order("discovered_at asc").
		Find(&breaches).Error
	if err != nil {
		return 0, errors.Wrap(err, "could not load breaches")
	}

	sent := 0
	for i := range breaches {
		b := &breaches[i]
		if !compliance.NeedsReminder(now, b.DiscoveredAt, b.AuthorityNotified, b.ReminderSentAt, r.Window) {
			continue
		}
		if err := r.Send(ctx, now, b); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// Send mails a reminder for b and records it.
func (r *BreachReminder) Send(ctx context.Context, now time.Time, b *models.GDPRBreach) error {
	if r.Recipient == "" {
		return ErrNotConfigured
	}
	if err := r.Mailer.Send(ctx, ReminderMessage(r.Recipient, now, *b)); err != nil {
		return err
	}

	b.ReminderSentAt = &now
	if err := database.DB.WithContext(ctx).Model(b).Update("reminder_sent_at", now).Error; err != nil {
		return errors.Wrap(err, "could not mark breach reminded")
	}
	database.CreateAuditLog(database.SystemUserID, "gdpr_breach", b.ID, "remind", "Reminder sent to "+r.Recipient)
	slog.Info("breach reminder sent", "breach", b.ID, "to", r.Recipient)
	return nil
}

// Run calls RunOnce every interval until ctx is cancelled.
func (r *BreachReminder) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := r.RunOnce(ctx, time.Now()); err != nil {
			slog.Error("breach reminder run failed", "err", err)
		} else if n > 0 {
			slog.Info("breach reminders sent", "count", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func ReminderMessage(to string, now time.Time, b models.GDPRBreach) Message {
	deadline := compliance.BreachDeadline(b.DiscoveredAt)
	left := deadline.Sub(now).Round(time.Minute)

	var status string
	if left < 0 {
		status = fmt.Sprintf("The notification deadline passed %s ago.", -left)
	} else {
		status = fmt.Sprintf("%s remain until the notification deadline.", left)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "GDPR breach #%d \"%s\" has not been notified to the supervisory authority.\n\n", b.ID, b.Title)
	fmt.Fprintf(&body, "Discovered: %s\n", b.DiscoveredAt.Format(time.RFC3339))
	fmt.Fprintf(&body, "Deadline:   %s\n", deadline.Format(time.RFC3339))
	fmt.Fprintf(&body, "Affected data subjects: %d\n", b.AffectedSubjects)
	if b.DataCategories != "" {
		fmt.Fprintf(&body, "Data categories: %s\n", b.DataCategories)
	}
	body.WriteString("\n" + status + "\n")

	return Message{
		To:      to,
		Subject: fmt.Sprintf("[GDPR] Breach #%d: authority notification due %s", b.ID, deadline.Format("2006-01-02 15:04")),
		Body:    body.String(),
	}
}
