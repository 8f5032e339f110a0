package commands

import (
	"fmt"
	"time"

	"zzpri-tracker/internal/notify"

	"github.com/spf13/cobra"
)

func newRemindCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send GDPR breach deadline reminders once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := setup()

			window, err := cmd.Flags().GetDuration("window")
			if err != nil {
				return err
			}
			if window == 0 {
				window = cfg.ReminderWindow
			}

			reminder := &notify.BreachReminder{
				Mailer: notify.SMTPMailer{
					Host:     cfg.SMTPHost,
					Port:     cfg.SMTPPort,
					Username: cfg.SMTPUser,
					Password: cfg.SMTPPassword,
					From:     cfg.MailFrom,
				},
				Recipient: cfg.DPOEmail,
				Window:    window,
			}

			n, err := reminder.RunOnce(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d reminder(s) sent\n", n)
			return nil
		},
	}

	cmd.Flags().Duration("window", 0, "remind about deadlines this close (defaults to REMINDER_WINDOW)")
	return cmd
}
