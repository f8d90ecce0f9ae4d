// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package sim provides a behavioral model of an MXR6020B module and a
// serial RTU slave serving it, for integration tests and bench work
// against a virtual module.
package sim

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/LeeJunHeon/dcconverter/converter"
	"github.com/LeeJunHeon/dcconverter/modbus"
)

// RegisterCount covers the module's documented register map (101-105
// writable, 301-307 read-only) with room to spare.
const RegisterCount = 512

// Device models the module's holding-register table together with its
// control semantics: writing control=1 latches the set point into the
// read-only telemetry block, control=0 drops the output.
type Device struct {
	mu      sync.Mutex
	regs    []uint16
	storage Storage
}

// NewDevice loads the register table from storage.
func NewDevice(storage Storage) (*Device, error) {
	regs, err := storage.Load()
	if err != nil {
		return nil, fmt.Errorf("load register table: %w", err)
	}
	if len(regs) != RegisterCount {
		return nil, fmt.Errorf("register table has %d registers, want %d", len(regs), RegisterCount)
	}
	return &Device{regs: regs, storage: storage}, nil
}

// Close releases the backing storage.
func (d *Device) Close() error {
	return d.storage.Close()
}

// ReadHoldingRegisters returns qty registers starting at address, or a
// Modbus exception code.
func (d *Device) ReadHoldingRegisters(address, quantity uint16) ([]uint16, byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if quantity == 0 || quantity > modbus.MaxQuantity {
		return nil, modbus.ExceptionCodeIllegalDataValue
	}
	if int(address)+int(quantity) > RegisterCount {
		return nil, modbus.ExceptionCodeIllegalDataAddress
	}

	out := make([]uint16, quantity)
	copy(out, d.regs[address:int(address)+int(quantity)])
	return out, 0
}

// WriteSingleRegister writes one register of the control block.
func (d *Device) WriteSingleRegister(address, value uint16) byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !writable(address, 1) {
		return modbus.ExceptionCodeIllegalDataAddress
	}
	d.regs[address] = value
	if address == converter.RegControl {
		d.applyControl()
	}
	d.sync()
	return 0
}

// WriteMultipleRegisters writes a block of control registers.
func (d *Device) WriteMultipleRegisters(address uint16, values []uint16) byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(values) == 0 || len(values) > modbus.MaxQuantity {
		return modbus.ExceptionCodeIllegalDataValue
	}
	if !writable(address, len(values)) {
		return modbus.ExceptionCodeIllegalDataAddress
	}

	copy(d.regs[address:], values)
	if address == converter.RegControl {
		d.applyControl()
	}
	d.sync()
	return 0
}

// SetAlarmMask plants an alarm bitmap into the read-only block. Test and
// bench hook; not reachable over the bus.
func (d *Device) SetAlarmMask(mask uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.regs[converter.RegAlarmHigh], d.regs[converter.RegAlarmLow] = modbus.SplitUint32(mask)
	d.sync()
}

// applyControl latches the control block into the telemetry block.
// Caller must hold the mutex.
func (d *Device) applyControl() {
	if d.regs[converter.RegControl] != 0 {
		d.regs[converter.RegPowerOn] = 1
		d.regs[converter.RegVoltHigh] = d.regs[converter.RegSetVHigh]
		d.regs[converter.RegVoltLow] = d.regs[converter.RegSetVLow]
		d.regs[converter.RegCurrHigh] = d.regs[converter.RegSetIHigh]
		d.regs[converter.RegCurrLow] = d.regs[converter.RegSetILow]
		return
	}
	d.regs[converter.RegPowerOn] = 0
	d.regs[converter.RegVoltHigh] = 0
	d.regs[converter.RegVoltLow] = 0
	d.regs[converter.RegCurrHigh] = 0
	d.regs[converter.RegCurrLow] = 0
}

func (d *Device) sync() {
	if err := d.storage.Sync(); err != nil {
		slog.Warn("register table sync failed", "err", err)
	}
}

// writable reports whether the range lies inside the writable control
// block. The telemetry block (301-307) is read-only over the bus.
func writable(address uint16, quantity int) bool {
	return address >= converter.RegControl &&
		int(address)+quantity <= converter.RegSetILow+1
}
