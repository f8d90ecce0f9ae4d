// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigFromFile(t *testing.T) {
	content := `
serial:
  device: /dev/ttyUSB0
  baud_rate: 19200
  parity: e
  timeout: 500ms
slave_address: 5
log:
  level: debug
poll:
  interval: 2s
sim:
  device: /dev/ttyUSB1
  slave_address: 5
  persistence:
    type: mmap
    path: /tmp/registers.bin
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Serial.Device != "/dev/ttyUSB0" {
		t.Errorf("Serial.Device = %q, want /dev/ttyUSB0", cfg.Serial.Device)
	}
	if cfg.Serial.BaudRate != 19200 {
		t.Errorf("Serial.BaudRate = %d, want 19200", cfg.Serial.BaudRate)
	}
	if cfg.Serial.Parity != "E" {
		t.Errorf("Serial.Parity = %q, want E (upper-cased)", cfg.Serial.Parity)
	}
	if cfg.Serial.Timeout != 500*time.Millisecond {
		t.Errorf("Serial.Timeout = %v, want 500ms", cfg.Serial.Timeout)
	}
	if cfg.SlaveAddress != 5 {
		t.Errorf("SlaveAddress = %d, want 5", cfg.SlaveAddress)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Poll.Interval != 2*time.Second {
		t.Errorf("Poll.Interval = %v, want 2s", cfg.Poll.Interval)
	}
	if cfg.Sim.Persistence.Type != "mmap" || cfg.Sim.Persistence.Path != "/tmp/registers.bin" {
		t.Errorf("Sim.Persistence = %+v, want mmap at /tmp/registers.bin", cfg.Sim.Persistence)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	// Empty file: everything falls back to defaults.
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Serial.BaudRate != 9600 || cfg.Serial.DataBits != 8 ||
		cfg.Serial.Parity != "N" || cfg.Serial.StopBits != 1 {
		t.Errorf("serial defaults = %+v, want 9600 8N1", cfg.Serial)
	}
	if cfg.Serial.Timeout != time.Second {
		t.Errorf("Serial.Timeout = %v, want 1s", cfg.Serial.Timeout)
	}
	if cfg.SlaveAddress != 1 {
		t.Errorf("SlaveAddress = %d, want 1", cfg.SlaveAddress)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Poll.Interval != time.Second {
		t.Errorf("Poll.Interval = %v, want 1s", cfg.Poll.Interval)
	}
	if cfg.Sim.Persistence.Type != "memory" {
		t.Errorf("Sim.Persistence.Type = %q, want memory", cfg.Sim.Persistence.Type)
	}
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n  - not yaml"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() error = nil, want parse failure")
	}
}
