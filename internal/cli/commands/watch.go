package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/ptxmeta/internal/watch"
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <module.yaml>",
		Short: "Re-read a module's annotations whenever its descriptor changes",
		Long: `Load a module descriptor, print its functions, then watch the file.

On every change the module is loaded again and swapped into the session. The
annotations cached for the old module are dropped before it is discarded, so
the new listing always reflects the file on disk.`,
		Example: `  # Watch a module until interrupted
  ptxmeta watch kernels.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := setup(cmd, args[0])
	if err != nil {
		return err
	}

	// reloads run on the watcher's goroutine
	var mu sync.Mutex
	defer func() {
		mu.Lock()
		defer mu.Unlock()
		env.close()
	}()

	if err := env.guard(cmd, func() error {
		renderKernels(cmd, env)
		return nil
	}); err != nil {
		return err
	}

	watcher, err := watch.NewFileWatcher([]string{env.path}, watch.DefaultDebounce, env.logger, func([]string) error {
		mu.Lock()
		defer mu.Unlock()
		return reloadAndRender(ctx, cmd, env)
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	yellow := color.New(color.FgYellow)
	if env.noColor {
		yellow.DisableColor()
	}
	yellow.Fprintf(out, "Watching %s, press Ctrl+C to stop\n", env.path)

	<-ctx.Done()

	if err := watcher.Stop(); err != nil {
		return fmt.Errorf("error stopping watcher: %w", err)
	}
	return nil
}

// reloadAndRender swaps the changed module into the session and prints it
// again. A file that fails to load leaves the previous module in place.
func reloadAndRender(ctx context.Context, cmd *cobra.Command, env *environment) error {
	if err := env.reload(ctx); err != nil {
		env.report(cmd, err)
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	green := color.New(color.FgGreen)
	if env.noColor {
		green.DisableColor()
	}
	green.Fprintf(out, "Reloaded %s\n", env.path)

	env.logger.Info("module reloaded",
		zap.String("path", env.path),
		zap.Int("functions", len(env.module.Functions())),
	)

	return env.guard(cmd, func() error {
		renderKernels(cmd, env)
		return nil
	})
}
