// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package converter

// Register map of the MXR6020B, per the "MXR6020B RS485 Communication
// Protocol" manual (V1.01.01). Voltage and current are transmitted as
// 32-bit integers in thousandths of a volt/amp, split across two
// registers, high word first.
const (
	// Writable control block, written as one 0x10 transaction.
	RegControl  = 101 // 1 = output on (re-writing adopts a new set point), 0 = off
	RegSetVHigh = 102
	RegSetVLow  = 103
	RegSetIHigh = 104
	RegSetILow  = 105

	// Read-only telemetry block.
	RegPowerOn   = 301 // 0 = shutdown, 1 = power on
	RegVoltHigh  = 302
	RegVoltLow   = 303
	RegCurrHigh  = 304
	RegCurrLow   = 305
	RegAlarmHigh = 306
	RegAlarmLow  = 307
)

const (
	controlOn  = 1
	controlOff = 0

	// milliPerUnit scales volts/amps to the wire encoding.
	milliPerUnit = 1000
)
