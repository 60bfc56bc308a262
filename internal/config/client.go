package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/STTM-NSU/pricefeed/internal/model"
)

type HistoryDriver string

const (
	Memory   HistoryDriver = "memory"
	Postgres HistoryDriver = "postgres"
	SQLite   HistoryDriver = "sqlite"
)

type HistoryConfig struct {
	Driver     HistoryDriver `yaml:"driver"`
	SQLitePath string        `yaml:"sqlite_path"` // postgres settings come from env
}

const (
	_historyDriverDefault = Memory
	_sqlitePathDefault    = "pricefeed.db"
)

func (c *HistoryConfig) ValidateAndSetup() error {
	if c.Driver == "" {
		c.Driver = _historyDriverDefault
	}
	switch c.Driver {
	case Memory, Postgres:
	case SQLite:
		if c.SQLitePath == "" {
			c.SQLitePath = _sqlitePathDefault
		}
	default:
		return fmt.Errorf("unknown history driver %q", c.Driver)
	}
	return nil
}

type ClientConfig struct {
	ServerURL         string           `yaml:"server_url"`
	LogLevel          string           `yaml:"log_level"`
	ReconnectBackoff  time.Duration    `yaml:"reconnect_backoff"`
	HandshakeTimeout  time.Duration    `yaml:"handshake_timeout"`
	ReadTimeout       time.Duration    `yaml:"read_timeout"` // silence before reconnecting
	NotificationLimit int              `yaml:"notification_limit"`
	History           HistoryConfig    `yaml:"history"`
	Holdings          []model.Position `yaml:"holdings"`
}

const (
	_serverURLDefault         = "ws://localhost:3000/ws"
	_reconnectBackoffDefault  = 3 * time.Second
	_handshakeTimeoutDefault  = 10 * time.Second
	_readTimeoutDefault       = 10 * time.Second
	_notificationLimitDefault = 50
)

func (c *ClientConfig) ValidateAndSetup() error {
	if c.ServerURL == "" {
		c.ServerURL = _serverURLDefault
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("%w: invalid server url", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server url must be ws:// or wss://, got %q", c.ServerURL)
	}
	if c.LogLevel == "" {
		c.LogLevel = _logLevelDefault
	}
	if c.ReconnectBackoff <= 0 {
		c.ReconnectBackoff = _reconnectBackoffDefault
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = _handshakeTimeoutDefault
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = _readTimeoutDefault
	}
	if c.NotificationLimit <= 0 {
		c.NotificationLimit = _notificationLimitDefault
	}

	if err := c.History.ValidateAndSetup(); err != nil {
		return fmt.Errorf("%w: can't setup history", err)
	}

	for _, h := range c.Holdings {
		if h.Symbol == "" {
			return fmt.Errorf("holding without symbol")
		}
	}

	return nil
}

// LoadClientConfig reads filename, or returns the defaults when it is empty.
func LoadClientConfig(filename string) (ClientConfig, error) {
	var cfg ClientConfig
	if err := load(filename, &cfg); err != nil {
		return cfg, err
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}
