package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/teemow/mailmeet/internal/logging"
	"github.com/teemow/mailmeet/internal/scheduling"
)

var _ cron.Logger = (*logging.SlogAdapter)(nil)

func newWatchCmd() *cobra.Command {
	var (
		account        string
		schedule       string
		query          string
		maxThreads     int
		once           bool
		debugMode      bool
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Periodically scan Gmail for meeting requests",
		Long: `Scan the threads matching a Gmail query on a cron schedule. Each thread that
asks for a meeting is printed once, with suggested free slots.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := cron.ParseStandard(schedule); err != nil {
				return fmt.Errorf("invalid --schedule %q: %w", schedule, err)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := newApp(ctx, appOptions{debug: debugMode, logOutput: os.Stderr, instrument: !once})
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			svc, err := a.sc.Scheduler(account)
			if err != nil {
				return err
			}
			client, err := a.sc.GmailClient(account)
			if err != nil {
				return err
			}

			if query == "" {
				query = a.cfg.Mail.WatchQuery
			}
			if maxThreads <= 0 {
				maxThreads = a.cfg.Mail.MaxThreads
			}
			w := newWatcher(svc, client, query, maxThreads, a.logger, cmd.OutOrStdout())

			if once {
				w.scan(ctx)
				return nil
			}

			metricsConfig := MetricsConfig{Enabled: metricsEnabled, Addr: metricsAddr}
			loadMetricsEnvVars(cmd, &metricsConfig)
			if metricsConfig.Enabled && a.provider.Enabled() {
				stop, err := startMetricsServer(a, metricsConfig.Addr)
				if err != nil {
					return err
				}
				defer stop()
			}

			return w.run(ctx, schedule)
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Google account name to use")
	cmd.Flags().StringVar(&schedule, "schedule", "*/15 * * * *", "Cron schedule of the scans")
	cmd.Flags().StringVar(&query, "query", "", "Gmail search query (default from configuration, is:unread)")
	cmd.Flags().IntVar(&maxThreads, "max-threads", 0, "Maximum number of threads per scan (default from configuration)")
	cmd.Flags().BoolVar(&once, "once", false, "Scan once and exit")
	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	addMetricsFlags(cmd, &metricsEnabled, &metricsAddr)
	return cmd
}

// watcher reports the meeting requests found by periodic scans. A thread is reported
// only the first time it is seen.
type watcher struct {
	svc        *scheduling.Service
	lister     scheduling.ThreadLister
	query      string
	maxThreads int
	logger     *slog.Logger
	out        io.Writer

	mu   sync.Mutex
	seen map[string]bool
}

func newWatcher(svc *scheduling.Service, lister scheduling.ThreadLister, query string, maxThreads int, logger *slog.Logger, out io.Writer) *watcher {
	return &watcher{
		svc:        svc,
		lister:     lister,
		query:      query,
		maxThreads: maxThreads,
		logger:     logging.WithOperation(logger, "watch.scan"),
		out:        out,
		seen:       make(map[string]bool),
	}
}

// run scans on schedule until ctx is done. A scan still running when the next one is
// due causes that one to be skipped.
func (w *watcher) run(ctx context.Context, schedule string) error {
	adapter := logging.NewSlogAdapter(w.logger)
	c := cron.New(
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)
	if _, err := c.AddFunc(schedule, func() { w.scan(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	w.logger.Info("watching for meeting requests", slog.String("schedule", schedule), slog.String("query", w.query))
	c.Start()
	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done()
	w.logger.Info("watch stopped")
	return nil
}

// scan runs one scan and prints the new proposals. It returns how many were printed.
func (w *watcher) scan(ctx context.Context) int {
	proposals, err := w.svc.Scan(ctx, w.lister, w.query, w.maxThreads, scheduling.SuggestOptions{})
	if err != nil {
		w.logger.Warn("scan incomplete", logging.Err(err))
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	printed := 0
	for _, p := range proposals {
		if w.seen[p.ThreadID] {
			continue
		}
		w.seen[p.ThreadID] = true
		printed++
		printProposal(w.out, p)
		fmt.Fprintln(w.out)
	}
	w.logger.Info("scan finished", logging.Count(len(proposals)), slog.Int("new", printed))
	return printed
}
