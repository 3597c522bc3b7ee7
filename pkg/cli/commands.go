package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"codeberg.org/miketth/layoutfix/pkg/layouts"
	"codeberg.org/miketth/layoutfix/pkg/switcher"
	"github.com/spf13/cobra"
)

const defaultSession = "last"

// inputText joins args, or reads stdin when there are none.
func (e *env) inputText(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(e.stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

// detect resolves the source layout: the flag if given, otherwise the OS.
func (e *env) detect(cmd *cobra.Command, flag string) (layouts.Name, osLayouts, error) {
	h, err := newHyprland(e.cfg, e.log)
	if err != nil && flag == "" {
		return "", nil, fmt.Errorf("hyprland: %w", err)
	}
	if err != nil {
		e.log.Debugw("hyprland unavailable", "error", err)
	}
	osl := h.osLayoutsOrNil()

	if flag != "" {
		name, err := layouts.ParseName(flag)
		return name, osl, err
	}
	if osl == nil {
		return "", nil, errors.New("no --source given and hyprland integration is disabled")
	}

	name, err := osl.ActiveLayout(cmd.Context())
	if err != nil {
		return "", nil, fmt.Errorf("detect layout: %w", err)
	}
	return name, osl, nil
}

func translateCmd(e *env) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Retype text from one layout into another",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := e.inputText(args)
			if err != nil {
				return err
			}
			fromName, err := layouts.ParseName(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			toName, err := layouts.ParseName(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			out, err := e.sw.Translate(text, fromName, toName)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(e.stdout, out)
			return err
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "layout the text was typed in")
	cmd.Flags().StringVar(&to, "to", "", "layout the text was meant for")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func startCmd(e *env) *cobra.Command {
	var source, session string
	var activate bool

	cmd := &cobra.Command{
		Use:   "start [text...]",
		Short: "Start a switching session and print the first translation",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := e.inputText(args)
			if err != nil {
				return err
			}
			name, osl, err := e.detect(cmd, source)
			if err != nil {
				return err
			}

			sess, err := e.sw.StartSession(name, text)
			if err != nil {
				return err
			}

			if err := e.saveSession(session, sess); err != nil {
				return err
			}
			return e.finish(cmd, sess, osl, activate)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "layout the text was typed in (default: the active one)")
	cmd.Flags().StringVar(&session, "session", defaultSession, "name to save the session under")
	cmd.Flags().BoolVar(&activate, "activate", false, "switch the keyboard to the target layout")

	return cmd
}

func nextCmd(e *env) *cobra.Command {
	var session string
	var activate bool

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Retype the session's text for the next layout in its cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore(e.cfg, e.log)
			if err != nil {
				return err
			}
			defer store.Close()

			state, ok, err := store.GetSession(session)
			if err != nil {
				return fmt.Errorf("load session: %w", err)
			}
			if !ok {
				return fmt.Errorf("no session %q, run start first", session)
			}

			sess, err := e.sw.RestoreSession(state)
			if err != nil {
				return err
			}
			sess.Next()

			if err := store.SetSession(session, sess.State()); err != nil {
				return fmt.Errorf("save session: %w", err)
			}

			var osl osLayouts
			if activate {
				h, err := newHyprland(e.cfg, e.log)
				if err != nil {
					return fmt.Errorf("hyprland: %w", err)
				}
				osl = h.osLayoutsOrNil()
			}
			return e.finish(cmd, sess, osl, activate)
		},
	}

	cmd.Flags().StringVar(&session, "session", defaultSession, "session to continue")
	cmd.Flags().BoolVar(&activate, "activate", false, "switch the keyboard to the target layout")

	return cmd
}

func endCmd(e *env) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "end",
		Short: "Forget a switching session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore(e.cfg, e.log)
			if err != nil {
				return err
			}
			defer store.Close()

			_, ok, err := store.GetSession(session)
			if err != nil {
				return fmt.Errorf("load session: %w", err)
			}
			if !ok {
				return fmt.Errorf("no session %q", session)
			}

			if err := store.DeleteSession(session); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			e.log.Debugw("session ended", "session", session)
			return nil
		},
	}

	cmd.Flags().StringVar(&session, "session", defaultSession, "session to end")

	return cmd
}

func (e *env) saveSession(name string, sess *switcher.Session) error {
	store, _, err := openStore(e.cfg, e.log)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SetSession(name, sess.State()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (e *env) finish(cmd *cobra.Command, sess *switcher.Session, osl osLayouts, activate bool) error {
	e.log.Debugw("translated", "source", sess.Source(), "target", sess.Target())

	if activate {
		if osl == nil {
			return errors.New("--activate needs the hyprland integration")
		}
		if err := osl.Activate(cmd.Context(), sess.Target()); err != nil {
			return fmt.Errorf("activate %s: %w", sess.Target(), err)
		}
	}

	_, err := fmt.Fprintln(e.stdout, sess.Current())
	return err
}

func layoutsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List the known layouts and their switching order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, t := range e.sw.Registry().Tables() {
				cycle, err := e.sw.Cycle(t.Name())
				if err != nil {
					return err
				}

				targets := make([]string, 0, len(cycle))
				for _, c := range cycle {
					targets = append(targets, string(c))
				}
				if _, err := fmt.Fprintf(e.stdout, "%s\t%s\t%s\n", t.Name(), strings.Join(targets, " -> "), string(t.Alphabet())); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
