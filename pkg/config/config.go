package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"codeberg.org/miketth/layoutfix/pkg/layouts"
	"codeberg.org/miketth/layoutfix/pkg/logging"
	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

const appName = "layoutfix"

const (
	BackendMemory = "memory"
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

type Config struct {
	Log      logging.Config `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
	Hyprland HyprlandConfig `mapstructure:"hyprland"`
	Layouts  LayoutsConfig  `mapstructure:"layouts"`
}

type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

type ServerConfig struct {
	Socket string `mapstructure:"socket"`
}

type HyprlandConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	EvdevXML string `mapstructure:"evdev_xml"`
}

type LayoutsConfig struct {
	// Codes maps layout names to xkb layout codes.
	Codes map[string]string `mapstructure:"codes"`
	// Cycles overrides the target order of sessions per source layout.
	Cycles map[string][]string `mapstructure:"cycles"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("store.backend", BackendJSON)
	v.SetDefault("store.path", "")
	v.SetDefault("server.socket", "")
	v.SetDefault("hyprland.enabled", true)
	v.SetDefault("hyprland.evdev_xml", "/usr/share/X11/xkb/rules/evdev.xml")
	v.SetDefault("layouts.codes", map[string]string{
		string(layouts.Russian): "ru",
		string(layouts.English): "us",
	})
}

// Load reads file, or layoutfix/config.yaml from the XDG config dirs if file
// is empty, then applies LAYOUTFIX_* environment overrides.
func Load(v *viper.Viper, file string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file == "" {
		found, err := xdg.SearchConfigFile(filepath.Join(appName, "config.yaml"))
		if err == nil {
			file = found
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case BackendMemory, BackendJSON, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("store.backend must be one of memory, json, sqlite, got %q", c.Store.Backend))
	}

	for name, code := range c.Layouts.Codes {
		if _, err := layouts.Get(layouts.Name(name)); err != nil {
			errs = append(errs, fmt.Errorf("layouts.codes: %w", err))
		}
		if code == "" {
			errs = append(errs, fmt.Errorf("layouts.codes: empty code for %q", name))
		}
	}

	for source, cycle := range c.Layouts.Cycles {
		if _, err := layouts.Get(layouts.Name(source)); err != nil {
			errs = append(errs, fmt.Errorf("layouts.cycles: %w", err))
		}
		if len(cycle) == 0 {
			errs = append(errs, fmt.Errorf("layouts.cycles: empty cycle for %q", source))
		}
		for _, target := range cycle {
			if _, err := layouts.ParseName(target); err != nil {
				errs = append(errs, fmt.Errorf("layouts.cycles.%s: %w", source, err))
			}
		}
	}

	return errors.Join(errs...)
}

// XkbCodes returns the xkb code to layout name table.
func (c *Config) XkbCodes() map[string]layouts.Name {
	out := make(map[string]layouts.Name, len(c.Layouts.Codes))
	for name, code := range c.Layouts.Codes {
		out[code] = layouts.Name(name)
	}
	return out
}

// CycleOverrides returns the configured cycles with parsed layout names.
// Call Validate first.
func (c *Config) CycleOverrides() map[layouts.Name][]layouts.Name {
	out := make(map[layouts.Name][]layouts.Name, len(c.Layouts.Cycles))
	for source, cycle := range c.Layouts.Cycles {
		names := make([]layouts.Name, 0, len(cycle))
		for _, target := range cycle {
			name, _ := layouts.ParseName(target)
			names = append(names, name)
		}
		out[layouts.Name(source)] = names
	}
	return out
}

// StorePath returns the configured store path, or a file in the XDG state dir.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}

	ext := ".json"
	if c.Store.Backend == BackendSQLite {
		ext = ".db"
	}

	path, err := xdg.StateFile(filepath.Join(appName, "sessions"+ext))
	if err != nil {
		return "", fmt.Errorf("get state file: %w", err)
	}
	return path, nil
}

// SocketPath returns the daemon socket, by default in $XDG_RUNTIME_DIR.
func (c *Config) SocketPath() (string, error) {
	if c.Server.Socket != "" {
		return c.Server.Socket, nil
	}

	path, err := xdg.RuntimeFile(appName + ".sock")
	if err != nil {
		return "", fmt.Errorf("get runtime file: %w", err)
	}
	return path, nil
}
