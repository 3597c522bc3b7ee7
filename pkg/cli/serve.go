package cli

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/miketth/layoutfix/pkg/hyprland"
	"codeberg.org/miketth/layoutfix/pkg/server"
	"codeberg.org/miketth/layoutfix/pkg/switcher"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCmd(e *env) *cobra.Command {
	var socket string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve translations and sessions on a unix socket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if socket != "" {
				e.cfg.Server.Socket = socket
			}
			return e.serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&socket, "socket", "", "socket path (default $XDG_RUNTIME_DIR/layoutfix.sock)")

	return cmd
}

func (e *env) serve(ctx context.Context) error {
	log := e.log

	store, saver, err := openStore(e.cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	h, err := newHyprland(e.cfg, log)
	if err != nil {
		log.Warnw("running without hyprland integration", "error", err)
		h = nil
	}

	g, ctx := errgroup.WithContext(ctx)

	var detector switcher.LayoutDetector
	var activator switcher.LayoutActivator
	if osl := h.osLayoutsOrNil(); osl != nil {
		activator = osl

		events, err := hyprland.Connect(ctx)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer events.Close()

		watcher := switcher.NewWatcher(events, h.resolver, osl, log)
		detector = watcher

		g.Go(func() error {
			err := watcher.ProcessLines(ctx)
			if err != nil {
				return fmt.Errorf("process lines: %w", err)
			}
			return nil
		})
	}

	path, err := e.cfg.SocketPath()
	if err != nil {
		return err
	}
	ln, err := listen(path)
	if err != nil {
		return err
	}

	srv := server.New(e.sw, store, detector, activator, log)

	g.Go(func() error {
		err := srv.Serve(ctx, ln)
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := systemdNotifyLoop(ctx)
		if err != nil {
			return fmt.Errorf("systemd notify: %w", err)
		}
		return nil
	})

	if saver != nil {
		g.Go(func() error {
			err := saver(ctx)
			if err != nil {
				return fmt.Errorf("save sessions: %w", err)
			}
			return nil
		})
	}

	log.Infow("started layoutfix", "socket", ln.Addr().String(), "store", e.cfg.Store.Backend)

	err = g.Wait()
	switch {
	case errors.Is(err, context.Canceled):
		log.Info("shutting down")
		return nil
	case err != nil:
		return err
	}

	return nil
}
