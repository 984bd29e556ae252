package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/conneroisu/csvguard/internal/input"
	"github.com/conneroisu/csvguard/internal/watcher"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch FILE",
	Aliases: []string{"w"},
	Short:   "Re-validate a file whenever it changes",
	Long: `Validate FILE once, then again every time it is written. Bursts of
file system events are grouped so one save triggers one run.

Accepts the same flags as validate. Runs until interrupted.

Examples:
  csvguard watch data.csv
  csvguard watch --debounce 1s --summary data.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchFlags    *RunFlags
	watchDebounce time.Duration
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchFlags = AddRunFlags(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Quiet period before a change triggers a run")
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := args[0]
	if path == input.Stdin {
		return fmt.Errorf("watch needs a file, not stdin")
	}

	cfg, err := loadRunConfig(cmd, watchFlags)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := cliLogger.WithComponent("watch")

	run := func(ctx context.Context) {
		metrics, err := validateOnce(ctx, cfg, path, cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			logger.Error(ctx, err, "validation failed", "path", path)
			return
		}
		logger.Info(ctx, "validation finished",
			"path", path,
			"records", metrics.Records,
			"issues", metrics.Issues)
	}

	fileWatcher, err := watcher.NewFileWatcher(watchDebounce, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	if err := fileWatcher.WatchFile(path); err != nil {
		return err
	}
	fileWatcher.AddFilter(watcher.NoTempFilter)
	fileWatcher.AddHandler(newWatchHandler(run))

	run(ctx)

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	logger.Info(ctx, "watching for changes", "path", path)

	<-ctx.Done()
	logger.Info(context.Background(), "stopping file watcher")

	return nil
}

// newWatchHandler re-runs validation after a change group. A group that
// only deletes or renames the file is ignored until it reappears.
func newWatchHandler(run func(context.Context)) watcher.ChangeHandler {
	return func(ctx context.Context, events []watcher.ChangeEvent) error {
		for _, event := range events {
			if event.Type == watcher.EventTypeCreated || event.Type == watcher.EventTypeModified {
				cliLogger.Debug(ctx, "change detected", "path", event.Path, "type", event.Type.String())
				run(ctx)
				return nil
			}
		}

		return nil
	}
}
