package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/mailmeet/internal/scheduling"
)

func newSuggestCmd() *cobra.Command {
	var (
		account        string
		duration       time.Duration
		maxSuggestions int
		calendars      []string
	)

	cmd := &cobra.Command{
		Use:   "suggest <thread-id>",
		Short: "Suggest slots for the meeting a Gmail thread asks for",
		Long: `Read a Gmail thread, decide whether it asks for a meeting and suggest free
slots. When the thread names a time that is free, that slot is listed first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), appOptions{logOutput: os.Stderr})
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			svc, err := a.sc.Scheduler(account)
			if err != nil {
				return err
			}
			proposal, err := svc.SuggestForThread(cmd.Context(), args[0], scheduling.SuggestOptions{
				Duration:       duration,
				MaxSuggestions: maxSuggestions,
				CalendarIDs:    trimAll(calendars),
			})
			if err != nil {
				return fmt.Errorf("failed to suggest slots: %w", err)
			}
			printProposal(cmd.OutOrStdout(), proposal)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Google account name to use")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Meeting length, for example 45m (default from configuration)")
	cmd.Flags().IntVar(&maxSuggestions, "max", 0, "Maximum number of suggestions (default from configuration)")
	cmd.Flags().StringSliceVar(&calendars, "calendar", nil, "Calendars to check for conflicts (default from configuration)")
	return cmd
}
