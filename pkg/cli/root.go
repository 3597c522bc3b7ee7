package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/miketth/layoutfix/pkg/config"
	"codeberg.org/miketth/layoutfix/pkg/logging"
	"codeberg.org/miketth/layoutfix/pkg/switcher"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// env is what every command needs once flags and config are parsed.
type env struct {
	v       *viper.Viper
	cfgFile string

	cfg *config.Config
	log *zap.SugaredLogger
	sw  *switcher.Switcher

	stdin  io.Reader
	stdout io.Writer
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewRootCommand(os.Stdin, os.Stdout).ExecuteContext(ctx)
}

func NewRootCommand(stdin io.Reader, stdout io.Writer) *cobra.Command {
	e := &env{
		v:      viper.New(),
		stdin:  stdin,
		stdout: stdout,
	}

	root := &cobra.Command{
		Use:   "layoutfix",
		Short: "Retype text that was typed under the wrong keyboard layout",
		// errors are reported once, by main
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.log != nil {
				_ = e.log.Sync()
			}
		},
	}
	root.SetOut(stdout)
	root.SetIn(stdin)

	flags := root.PersistentFlags()
	flags.StringVarP(&e.cfgFile, "config", "c", "", "config file (default $XDG_CONFIG_HOME/layoutfix/config.yaml)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("store-backend", "", "session store: memory, json or sqlite")
	flags.String("store-path", "", "session store file")
	flags.Bool("hyprland", true, "use hyprland to detect and switch layouts")

	for key, flag := range map[string]string{
		"log.level":        "log-level",
		"store.backend":    "store-backend",
		"store.path":       "store-path",
		"hyprland.enabled": "hyprland",
	} {
		if err := e.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(
		translateCmd(e),
		startCmd(e),
		nextCmd(e),
		endCmd(e),
		layoutsCmd(e),
		serveCmd(e),
	)

	return root
}

func (e *env) init() error {
	cfg, err := config.Load(e.v, e.cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	e.cfg = cfg

	e.log, err = logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	e.sw, err = newSwitcher(cfg)
	if err != nil {
		return fmt.Errorf("create switcher: %w", err)
	}

	return nil
}
