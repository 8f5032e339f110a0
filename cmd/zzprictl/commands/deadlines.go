package commands

import (
	"fmt"
	"io"
	"time"

	"zzpri-tracker/internal/compliance"
	"zzpri-tracker/internal/database"
	"zzpri-tracker/internal/models"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newDeadlinesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deadlines",
		Short: "List open GDPR, NIS2 and ticket deadlines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setup()

			overdueOnly, err := cmd.Flags().GetBool("overdue")
			if err != nil {
				return err
			}

			items, err := loadDeadlines(time.Now().UTC())
			if err != nil {
				return err
			}
			if overdueOnly {
				filtered := items[:0]
				for _, it := range items {
					if it.Urgency == compliance.UrgencyOverdue {
						filtered = append(filtered, it)
					}
				}
				items = filtered
			}

			renderDeadlines(cmd.OutOrStdout(), items)
			return nil
		},
	}

	cmd.Flags().Bool("overdue", false, "only show overdue items")
	return cmd
}

func loadDeadlines(now time.Time) ([]compliance.DeadlineItem, error) {
	var (
		breaches []models.GDPRBreach
		reports  []models.CyberIncidentReport
		tickets  []models.SupportTicket
	)
	if err := database.DB.Where("authority_notified = ?", false).Find(&breaches).Error; err != nil {
		return nil, err
	}
	if err := database.DB.Where("status = ?", models.ReportDraft).Find(&reports).Error; err != nil {
		return nil, err
	}
	if err := database.DB.Where("due_date IS NOT NULL").
		Where("status IN ?", []models.TicketStatus{models.TicketOpen, models.TicketInProgress}).
		Find(&tickets).Error; err != nil {
		return nil, err
	}
	return compliance.OpenDeadlines(now, breaches, reports, tickets), nil
}

var urgencyColors = map[compliance.Urgency]text.Colors{
	compliance.UrgencyOverdue: {text.FgRed, text.Bold},
	compliance.UrgencyUrgent:  {text.FgRed},
	compliance.UrgencySoon:    {text.FgYellow},
	compliance.UrgencyOK:      {text.FgGreen},
}

func renderDeadlines(w io.Writer, items []compliance.DeadlineItem) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetAllowedRowLength(130)
	tw.AppendHeader(table.Row{"Kind", "ID", "Title", "Due", "Days", "Urgency"})
	for _, it := range items {
		urgency := string(it.Urgency)
		if colors, ok := urgencyColors[it.Urgency]; ok {
			urgency = colors.Sprint(urgency)
		}
		tw.AppendRow(table.Row{it.Kind, it.ID, it.Title, it.Due.Format("2006-01-02 15:04"), it.Days, urgency})
	}
	tw.AppendFooter(table.Row{"", "", fmt.Sprintf("%d open", len(items))})
	tw.Render()
}
