package main

import (
	"time"

	"github.com/tinytelemetry/msglog/internal/model"
	"github.com/tinytelemetry/msglog/internal/wshub"
)

const (
	defaultBindHost      = "127.0.0.1"
	defaultAPIPort       = 3000
	defaultWSPath        = model.DefaultWSPath
	defaultMaxHistory    = model.DefaultMaxHistory
	defaultTimerInterval = model.DefaultTimerInterval
	defaultPushBuffer    = wshub.DefaultSendBuffer
	defaultLogMaxSizeMB  = 25
	defaultLogMaxBackups = 5
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	APIEnabled      bool          `mapstructure:"api-enabled" yaml:"api-enabled"`
	APIPort         int           `mapstructure:"api-port" yaml:"api-port"`
	APIAddr         string        `mapstructure:"api-addr" yaml:"api-addr"`
	WSPath          string        `mapstructure:"ws-path" yaml:"ws-path"`
	CORSEnabled     bool          `mapstructure:"cors-enabled" yaml:"cors-enabled"`
	SocketPath      string        `mapstructure:"socket-path" yaml:"socket-path"`
	StatePath       string        `mapstructure:"state-path" yaml:"state-path"`
	MaxHistory      int           `mapstructure:"max-history" yaml:"max-history"`
	LogContent      bool          `mapstructure:"log-content" yaml:"log-content"`
	TimerInterval   time.Duration `mapstructure:"timer-interval" yaml:"timer-interval"`
	TerminalEnabled bool          `mapstructure:"terminal-enabled" yaml:"terminal-enabled"`
	PushBuffer      int           `mapstructure:"push-buffer" yaml:"push-buffer"`
	LogFile         string        `mapstructure:"log-file" yaml:"log-file"`
	LogMaxSizeMB    int           `mapstructure:"log-max-size-mb" yaml:"log-max-size-mb"`
	LogMaxBackups   int           `mapstructure:"log-max-backups" yaml:"log-max-backups"`
	ConfigPath      string        `mapstructure:"-" yaml:"-"` // not from config file
}

func (c appConfig) appConfig() model.AppConfig {
	return model.AppConfig{MaxHistory: c.MaxHistory, LogContent: c.LogContent}
}
