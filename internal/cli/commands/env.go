package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/ptxmeta/internal/annotations"
	"github.com/conduit-lang/ptxmeta/internal/cli/config"
	"github.com/conduit-lang/ptxmeta/internal/cli/ui"
	"github.com/conduit-lang/ptxmeta/internal/ir/mem"
	"github.com/conduit-lang/ptxmeta/internal/session"
)

// environment is what a module command works with: configuration, a session
// owning the annotation cache, and the loaded module registered with it.
type environment struct {
	cfg     *config.Config
	logger  *zap.Logger
	session *session.Session
	module  *mem.Module
	path    string
	noColor bool
	// skipped is the violation count already reported by warnSkipped
	skipped uint64
}

// setup loads configuration and the module at path, then warms the
// annotation cache for every global value in it.
func setup(cmd *cobra.Command, path string) (*environment, error) {
	configPath, _ := cmd.Flags().GetString("config")
	noColor, _ := cmd.Flags().GetBool("no-color")
	noAssert, _ := cmd.Flags().GetBool("no-assert")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if noAssert {
		cfg.Annotations.Assertions = false
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	m, err := mem.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load module %s: %w", path, err)
	}

	env := &environment{
		cfg:     cfg,
		logger:  logger,
		session: session.New(cfg.SessionOptions(), logger),
		module:  m,
		path:    path,
		noColor: noColor,
	}
	env.session.Register(m)

	if err := env.session.Warm(cmd.Context(), m, m.GlobalValues()); err != nil {
		env.report(cmd, err)
		env.close()
		return nil, err
	}
	return env, nil
}

// reload loads the module again and swaps it into the session. The old
// module's cached annotations are dropped before the new one is warmed. If
// the file cannot be loaded the current module is kept.
func (e *environment) reload(ctx context.Context) error {
	m, err := mem.LoadFile(e.path)
	if err != nil {
		return fmt.Errorf("failed to load module %s: %w", e.path, err)
	}

	e.session.Replace(e.module, m)
	e.module = m
	return e.session.Warm(ctx, m, m.GlobalValues())
}

// cache returns the session's annotation cache
func (e *environment) cache() *annotations.Cache {
	return e.session.Annotations()
}

// guard runs render, turning an invariant violation raised by a query into
// an error.
func (e *environment) guard(cmd *cobra.Command, render func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*annotations.InvariantError)
			if !ok {
				panic(r)
			}
			e.report(cmd, ie)
			err = ie
		}
	}()
	if err := render(); err != nil {
		return err
	}
	e.warnSkipped(cmd)
	return nil
}

// warnSkipped prints a warning when violations were tolerated since the
// last report
func (e *environment) warnSkipped(cmd *cobra.Command) {
	total := e.cache().Stats().Skipped
	if total <= e.skipped {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), ui.SkippedWarning(total-e.skipped, e.path, e.noColor))
	e.skipped = total
}

// report prints invariant violations in the ui error format
func (e *environment) report(cmd *cobra.Command, err error) {
	var ie *annotations.InvariantError
	if errors.As(err, &ie) {
		fmt.Fprint(cmd.ErrOrStderr(), ui.InvariantError(ie, e.path, e.noColor))
	}
}

// close releases the module through the session teardown path
func (e *environment) close() {
	e.session.Release(e.module)
	e.session.Close()
	_ = e.logger.Sync()
}
