// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package converter is the high-level interface to a Maxwell MXR6020B
// DC-DC converter module on an RS-485 bus: set point control, start/stop,
// and aggregated status snapshots.
package converter

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/LeeJunHeon/dcconverter/internal/config"
	"github.com/LeeJunHeon/dcconverter/modbus"
	transportrtu "github.com/LeeJunHeon/dcconverter/transport/rtu"
)

// Status is a snapshot of the module state, constructed fresh on every
// ReadStatus call and owned by the caller.
type Status struct {
	PowerOn      bool
	VoltageV     float64
	CurrentA     float64
	AlarmMask    uint32
	ActiveAlarms []string
}

// Converter owns one driver instance bound to one open connection.
// Its state machine is {Disconnected, Connected}: operations other than
// Connect/Close require Connected and fail without I/O otherwise.
//
// The module's own run/alarm state is authoritative on the hardware and
// is only observed, never cached across polls.
type Converter struct {
	serial config.SerialConfig

	mu        sync.Mutex
	transport *transportrtu.Client
	client    *modbus.Client
}

// New returns a disconnected Converter. serial carries the link settings
// (baud rate, framing, response timeout); the device path is chosen at
// Connect time.
func New(serial config.SerialConfig) *Converter {
	return &Converter{serial: serial}
}

// Connect opens the serial device and binds the driver to slaveAddr
// (0-62). Any prior connection is closed first so the old handle does
// not leak.
func (c *Converter) Connect(ctx context.Context, device string, slaveAddr int) error {
	c.Close()

	cfg := c.serial
	cfg.Device = device

	t := transportrtu.NewClient(cfg)
	client, err := modbus.NewClient(slaveAddr, t)
	if err != nil {
		return err
	}
	if err := t.Connect(ctx); err != nil {
		return fmt.Errorf("connect to module: %w", err)
	}

	slog.Info("module connected",
		"device", device,
		"slave", slaveAddr,
		"baud", cfg.BaudRate,
		"timeout", cfg.Timeout)

	c.mu.Lock()
	c.transport = t
	c.client = client
	c.mu.Unlock()
	return nil
}

// Close releases the serial handle. It is idempotent and always leaves
// the Converter in Disconnected state.
func (c *Converter) Close() error {
	c.mu.Lock()
	t := c.transport
	c.transport = nil
	c.client = nil
	c.mu.Unlock()

	if t == nil {
		return nil
	}
	slog.Info("module disconnected")
	return t.Close()
}

// IsConnected reports whether the serial handle is open.
func (c *Converter) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.transport != nil && c.transport.Connected()
}

// driver returns the bound client, or a ConfigError while Disconnected.
func (c *Converter) driver() (*modbus.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil, &modbus.ConfigError{Reason: "not connected: call Connect first"}
	}
	return c.client, nil
}

// StartOutput sets the operating point and commands the module on, as a
// single 0x10 write of [control=1, Vhi, Vlo, Ihi, Ilo] at register 101.
// Issuing it while the output is already running adopts the new set
// point without a stop/start cycle.
func (c *Converter) StartOutput(ctx context.Context, voltageV, currentA float64) error {
	cl, err := c.driver()
	if err != nil {
		return err
	}

	vRaw, err := toMilli("voltage", voltageV)
	if err != nil {
		return err
	}
	iRaw, err := toMilli("current", currentA)
	if err != nil {
		return err
	}

	vHi, vLo := modbus.SplitUint32(vRaw)
	iHi, iLo := modbus.SplitUint32(iRaw)

	values := []uint16{controlOn, vHi, vLo, iHi, iLo}
	if err := cl.WriteMultipleRegisters(ctx, RegControl, values); err != nil {
		return fmt.Errorf("start output (V=%.3f, I=%.3f): %w", voltageV, currentA, err)
	}
	return nil
}

// UpdateOutput re-sends the set point while the output is running.
// Control register 101 stays at 1, so the module adopts the new values
// without switching off.
func (c *Converter) UpdateOutput(ctx context.Context, voltageV, currentA float64) error {
	return c.StartOutput(ctx, voltageV, currentA)
}

// StopOutput switches the output off with a single register write.
func (c *Converter) StopOutput(ctx context.Context) error {
	cl, err := c.driver()
	if err != nil {
		return err
	}
	if err := cl.WriteSingleRegister(ctx, RegControl, controlOff); err != nil {
		return fmt.Errorf("stop output: %w", err)
	}
	return nil
}

// ReadVI reads the live output voltage and current in volts/amps.
func (c *Converter) ReadVI(ctx context.Context) (voltageV, currentA float64, err error) {
	cl, err := c.driver()
	if err != nil {
		return 0, 0, err
	}

	regs, err := cl.ReadHoldingRegisters(ctx, RegVoltHigh, 4)
	if err != nil {
		return 0, 0, fmt.Errorf("read V/I (302-305): %w", err)
	}

	voltageV = float64(modbus.CombineUint32(regs[0], regs[1])) / milliPerUnit
	currentA = float64(modbus.CombineUint32(regs[2], regs[3])) / milliPerUnit
	return voltageV, currentA, nil
}

// ReadAlarmMask reads the 32-bit alarm bitmap.
func (c *Converter) ReadAlarmMask(ctx context.Context) (uint32, error) {
	cl, err := c.driver()
	if err != nil {
		return 0, err
	}

	regs, err := cl.ReadHoldingRegisters(ctx, RegAlarmHigh, 2)
	if err != nil {
		return 0, fmt.Errorf("read alarms (306-307): %w", err)
	}
	return modbus.CombineUint32(regs[0], regs[1]), nil
}

// ReadPowerOn reads the output state flag.
func (c *Converter) ReadPowerOn(ctx context.Context) (bool, error) {
	cl, err := c.driver()
	if err != nil {
		return false, err
	}

	regs, err := cl.ReadHoldingRegisters(ctx, RegPowerOn, 1)
	if err != nil {
		return false, fmt.Errorf("read power flag (301): %w", err)
	}
	return regs[0] != 0, nil
}

// ReadStatus aggregates the power flag, V/I and alarm reads into one
// snapshot. The three reads are sequential exchanges and not atomic
// against the device. A failed sub-read is surfaced to the caller,
// attributed to its register block; no value is silently substituted.
func (c *Converter) ReadStatus(ctx context.Context) (*Status, error) {
	powerOn, err := c.ReadPowerOn(ctx)
	if err != nil {
		return nil, err
	}
	voltageV, currentA, err := c.ReadVI(ctx)
	if err != nil {
		return nil, err
	}
	mask, err := c.ReadAlarmMask(ctx)
	if err != nil {
		return nil, err
	}

	return &Status{
		PowerOn:      powerOn,
		VoltageV:     voltageV,
		CurrentA:     currentA,
		AlarmMask:    mask,
		ActiveAlarms: DecodeAlarms(mask),
	}, nil
}

// toMilli converts volts/amps to the milli-unit wire encoding.
func toMilli(name string, v float64) (uint32, error) {
	milli := math.Round(v * milliPerUnit)
	if milli < 0 || milli > math.MaxUint32 || math.IsNaN(milli) {
		return 0, &modbus.ConfigError{
			Reason: fmt.Sprintf("%s %v out of range", name, v),
		}
	}
	return uint32(milli), nil
}
