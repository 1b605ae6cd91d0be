package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "HTROF_"

var configFileNames = []string{"htrof.yaml", "htrof.yml"}

// Config holds the front end settings.
type Config struct {
	Debug       bool          `koanf:"debug"`
	Trace       bool          `koanf:"trace"`
	Run         bool          `koanf:"run"`
	Timeout     time.Duration `koanf:"timeout"`
	Delay       time.Duration `koanf:"delay"`
	LogLevel    string        `koanf:"log_level"`
	LogFile     string        `koanf:"log_file"`
	LogJournal  bool          `koanf:"log_journal"`
	HistoryFile string        `koanf:"history_file"`
	Prompt      string        `koanf:"prompt"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

func defaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"debug":        false,
		"trace":        false,
		"run":          false,
		"timeout":      "0s",
		"delay":        defaultDelay.String(),
		"log_level":    "info",
		"log_file":     "",
		"log_journal":  false,
		"history_file": "",
		"prompt":       "> ",
	}
}

// findConfigFile returns explicit if set, or else the first config file found
// in the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// loadConfig layers, from lowest to highest precedence: defaults, the config
// file, HTROF_ environment variables, and explicitly set flags.
func loadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultConfig(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	cfgFile = findConfigFile(cfgFile)
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// HTROF_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = cfgFile
	return &cfg, nil
}

// addConfigFlags defines a flag for every config key.
func addConfigFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (default: ./htrof.yaml)")
	flags.Bool("debug", false, "print a machine snapshot after every step")
	flags.Bool("trace", false, "log every executed instruction")
	flags.Bool("run", false, "run the program file once and exit, instead of starting a session")
	flags.Duration("timeout", 0, "time limit for each run")
	flags.Duration("delay", defaultDelay, "default pause length for wait")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.String("log-file", "", "also write JSON logs to this file")
	flags.Bool("log-journal", false, "also send logs to the systemd journal")
	flags.String("history-file", "", "session history file")
	flags.String("prompt", "", "prompt suffix, shown after the program length")
}
