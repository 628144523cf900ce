package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mailmeet application
var rootCmd = &cobra.Command{
	Use:   "mailmeet",
	Short: "Finds meeting requests in Gmail and proposes free calendar slots",
	Long: `mailmeet reads email threads, decides whether they ask for a meeting and
suggests free slots from your Google Calendar within business hours.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (default)
  - A set of CLI commands: detect, slots, suggest and watch`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// configFile is the path given with --config.
var configFile string

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mailmeet version %s\n" .Version}}`)

	// If no subcommand is provided, run the MCP server
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: mailmeet.yaml in . or $HOME/.config/mailmeet)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newDetectCmd())
	rootCmd.AddCommand(newSlotsCmd())
	rootCmd.AddCommand(newSuggestCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
