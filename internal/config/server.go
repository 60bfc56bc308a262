package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/STTM-NSU/pricefeed/internal/market"
	"github.com/STTM-NSU/pricefeed/internal/model"
	"gopkg.in/yaml.v3"
)

type TickConfig struct {
	Interval       time.Duration `yaml:"interval"`
	AlertThreshold float64       `yaml:"alert_threshold"` // percent, single tick
	Seed           uint64        `yaml:"seed"`            // 0 = time based
}

const (
	_tickIntervalDefault   = 1 * time.Second
	_alertThresholdDefault = 0.05
)

func (c *TickConfig) Setup() {
	if c.Interval <= 0 {
		c.Interval = _tickIntervalDefault
	}
	if c.AlertThreshold <= 0 {
		c.AlertThreshold = _alertThresholdDefault
	}
}

type HubConfig struct {
	HandshakesPerSecond int           `yaml:"handshakes_per_second"`
	WriteTimeout        time.Duration `yaml:"write_timeout"`
	PingPeriod          time.Duration `yaml:"ping_period"`
	OutboxLimit         int           `yaml:"outbox_limit"`
}

const (
	_handshakesPerSecondDefault = 100
	_writeTimeoutDefault        = 10 * time.Second
	_pingPeriodDefault          = 30 * time.Second
	_outboxLimitDefault         = 64
)

func (c *HubConfig) Setup() {
	if c.HandshakesPerSecond <= 0 {
		c.HandshakesPerSecond = _handshakesPerSecondDefault
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = _writeTimeoutDefault
	}
	if c.PingPeriod <= 0 {
		c.PingPeriod = _pingPeriodDefault
	}
	if c.OutboxLimit <= 0 {
		c.OutboxLimit = _outboxLimitDefault
	}
}

type ServerConfig struct {
	Port        string      `yaml:"port"`
	WSPath      string      `yaml:"ws_path"`
	LogLevel    string      `yaml:"log_level"`
	Tick        TickConfig  `yaml:"tick"`
	Hub         HubConfig   `yaml:"hub"`
	Instruments model.Batch `yaml:"instruments"` // defaults to the built-in pairs
}

const (
	_portDefault     = "3000"
	_wsPathDefault   = "/ws"
	_logLevelDefault = "info"
)

func (c *ServerConfig) ValidateAndSetup() error {
	if c.Port == "" {
		c.Port = _portDefault
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("%w: invalid port %q", err, c.Port)
	}
	if c.WSPath == "" {
		c.WSPath = _wsPathDefault
	}
	if !strings.HasPrefix(c.WSPath, "/") {
		return fmt.Errorf("ws path must start with /: %q", c.WSPath)
	}
	if c.LogLevel == "" {
		c.LogLevel = _logLevelDefault
	}

	c.Tick.Setup()
	c.Hub.Setup()

	if len(c.Instruments) == 0 {
		c.Instruments = market.DefaultInstruments()
	}
	for _, q := range c.Instruments {
		if q.Symbol == "" {
			return fmt.Errorf("instrument without symbol")
		}
		if q.LTP <= 0 {
			return fmt.Errorf("instrument %s: ltp must be positive", q.Symbol)
		}
	}

	return nil
}

// LoadServerConfig reads filename, or returns the defaults when it is empty.
func LoadServerConfig(filename string) (ServerConfig, error) {
	var cfg ServerConfig
	if err := load(filename, &cfg); err != nil {
		return cfg, err
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}

func load(filename string, cfg any) error {
	if filename == "" {
		return nil
	}

	input, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("%w: can't read file", err)
	}

	if err := yaml.Unmarshal(input, cfg); err != nil {
		return fmt.Errorf("%w: can't unmarshal config", err)
	}

	return nil
}
