package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/kavmehta/chatlens/internal/parse"
)

type Config struct {
	ExportRoot        string   `toml:"export_root"`
	DBPath            string   `toml:"db_path"`
	DayFirst          bool     `toml:"day_first"`
	MediaPlaceholders []string `toml:"media_placeholders"`
	StopWords         []string `toml:"stop_words"`
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ExportRoot: filepath.Join(home, "chat-exports"),
		DBPath:     filepath.Join(home, ".config", "chatlens", "chatlens.db"),
		DayFirst:   true,
	}

	cfgPath := filepath.Join(home, ".config", "chatlens", "config.toml")
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	cfg.ExportRoot = expandHome(cfg.ExportRoot, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)

	return cfg, nil
}

// ParseOptions builds parser options from the config, falling back to the
// built-in placeholder list when none are configured.
func (c *Config) ParseOptions() parse.Options {
	opts := parse.DefaultOptions()
	opts.DayFirst = c.DayFirst
	if len(c.MediaPlaceholders) > 0 {
		opts.MediaPlaceholders = c.MediaPlaceholders
	}
	return opts
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
