package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"
)

func newSlotsCmd() *cobra.Command {
	var (
		account   string
		from      string
		to        string
		duration  time.Duration
		limit     int
		calendars []string
	)

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List free slots between two dates",
		Long: `Search the calendars of an account for free slots within business hours.
Both dates are inclusive and given as YYYY-MM-DD; --to defaults to --from.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromDate, err := civil.ParseDate(from)
			if err != nil {
				return fmt.Errorf("invalid --from date, expected YYYY-MM-DD: %w", err)
			}
			toDate := fromDate
			if to != "" {
				if toDate, err = civil.ParseDate(to); err != nil {
					return fmt.Errorf("invalid --to date, expected YYYY-MM-DD: %w", err)
				}
			}

			a, err := newApp(cmd.Context(), appOptions{logOutput: os.Stderr})
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			svc, err := a.sc.Scheduler(account)
			if err != nil {
				return err
			}
			slots, err := svc.FindSlots(cmd.Context(), fromDate, toDate, duration, limit, trimAll(calendars))
			if err != nil {
				return err
			}
			printSlots(cmd.OutOrStdout(), slots)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Google account name to use")
	cmd.Flags().StringVar(&from, "from", civil.DateOf(time.Now()).String(), "First day to search (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day to search (YYYY-MM-DD)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Slot length, for example 45m (default from configuration)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of slots")
	cmd.Flags().StringSliceVar(&calendars, "calendar", nil, "Calendars to check for conflicts (default from configuration)")
	return cmd
}

// trimAll drops empty entries and surrounding whitespace.
func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
