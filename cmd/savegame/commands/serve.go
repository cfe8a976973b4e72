package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kurobon/gitsavegame/internal/server"
	"github.com/kurobon/gitsavegame/internal/view"
	"github.com/kurobon/gitsavegame/internal/watch"
)

const shutdownTimeout = 5 * time.Second

func newWatcher(e *env) (*watch.Watcher, error) {
	return watch.New(e.repo.Root(), e.controller, watch.Options{
		Enabled:  func() bool { return e.cfg.AutoSaveEnabled },
		Debounce: e.cfg.Watch.Debounce,
		Ignore:   e.cfg.Watch.Ignore,
		Logger:   e.logger,
	})
}

func newWatchCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Auto-save files as they are written until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			if !e.cfg.AutoSaveEnabled {
				e.logger.Warn("auto_save_enabled is off; file writes will not be saved")
			}
			w, err := newWatcher(e)
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for saves (Ctrl+C to stop)\n", e.repo.Root())
			return w.Start(ctx)
		},
	}
}

func newServeCommand(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP save menu and the auto-save watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = e.cfg.Server.Addr
			}

			sessions := view.NewManager(e.controller, e.cfg.MaxSaveSlots)
			defer sessions.Close()

			w, err := newWatcher(e)
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           server.NewServer(sessions, e.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return w.Start(gctx)
			})
			g.Go(func() error {
				e.logger.Info("Server listening", "addr", addr, "dir", e.repo.Root())
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	return cmd
}
