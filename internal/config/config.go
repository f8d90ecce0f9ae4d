// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config defines the global configuration structure
type Config struct {
	Serial       SerialConfig `mapstructure:"serial"`
	SlaveAddress int          `mapstructure:"slave_address"`
	Log          LogConfig    `mapstructure:"log"`
	Poll         PollConfig   `mapstructure:"poll"`
	Sim          SimConfig    `mapstructure:"sim"`
}

// LogConfig defines logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	File  string `mapstructure:"file"`  // Log file path
}

// SerialConfig defines the RS-485 link settings. The MXR6020B talks
// 9600 baud, 8 data bits, no parity, 1 stop bit; the defaults match.
type SerialConfig struct {
	Device   string        `mapstructure:"device"`
	BaudRate int           `mapstructure:"baud_rate"`
	DataBits int           `mapstructure:"data_bits"`
	Parity   string        `mapstructure:"parity"`
	StopBits int           `mapstructure:"stop_bits"`
	Timeout  time.Duration `mapstructure:"timeout"` // Response timeout per read phase
}

// PollConfig defines the cadence of the watch command.
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// SimConfig defines the simulated module served by the sim command.
type SimConfig struct {
	Device       string            `mapstructure:"device"`
	SlaveAddress int               `mapstructure:"slave_address"`
	Persistence  PersistenceConfig `mapstructure:"persistence"`
}

// PersistenceConfig defines register storage for the simulated module.
type PersistenceConfig struct {
	Type string `mapstructure:"type"` // "memory", "mmap"
	Path string `mapstructure:"path"` // File path for "mmap" type
}

// LoadConfig loads configuration from file
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/dcconverter/")
		v.AddConfigPath("$HOME/.dcconverter")
		v.AddConfigPath(".")
	}

	// Set defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("slave_address", 1)
	v.SetDefault("poll.interval", time.Second)
	v.SetDefault("sim.slave_address", 1)
	v.SetDefault("sim.persistence.type", "memory")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file found; run on defaults and flags.
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	fixupSerial(&config.Serial)
	if config.Poll.Interval <= 0 {
		config.Poll.Interval = time.Second
	}

	return &config, nil
}

func fixupSerial(s *SerialConfig) {
	s.Parity = strings.ToUpper(s.Parity)
	if s.BaudRate == 0 {
		s.BaudRate = 9600
	}
	if s.DataBits == 0 {
		s.DataBits = 8
	}
	if s.Parity == "" {
		s.Parity = "N"
	}
	if s.StopBits == 0 {
		s.StopBits = 1
	}
	if s.Timeout == 0 {
		s.Timeout = time.Second
	}
}
