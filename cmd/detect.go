package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/mailmeet/internal/config"
	"github.com/teemow/mailmeet/internal/scheduling"
)

func newDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect [file]",
		Short: "Decide whether a text asks for a meeting",
		Long: `Read a text from a file, or from standard input when no file is given, and
print whether it asks for a meeting together with the ranked date and time hints.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			opts, err := scheduling.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}

			text, err := readText(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			svc := scheduling.NewService(opts, nil, nil, nil)
			printDecision(cmd.OutOrStdout(), svc.DetectIntent(text, time.Now()))
			return nil
		},
	}
	return cmd
}

// readText returns the content of the file in args, or all of stdin.
func readText(stdin io.Reader, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) > 0 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return string(data), nil
}
