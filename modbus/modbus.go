// Copyright (c) 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import "context"

// Function codes supported by the MXR6020B module.
const (
	FuncCodeReadHoldingRegisters   = 0x03
	FuncCodeWriteSingleRegister    = 0x06
	FuncCodeWriteMultipleRegisters = 0x10
)

// Exception codes returned by a slave in an exception response
// (function code with the high bit set).
const (
	ExceptionCodeIllegalFunction     = 0x01
	ExceptionCodeIllegalDataAddress  = 0x02
	ExceptionCodeIllegalDataValue    = 0x03
	ExceptionCodeServerDeviceFailure = 0x04
)

const (
	// MaxSlaveID is the highest RS-485 address the module manual allows.
	MaxSlaveID = 62

	// MaxQuantity limits the register block size per transaction.
	// The module manual rejects larger blocks.
	MaxQuantity = 30
)

// ProtocolDataUnit (PDU) is independent of the underlying communication layer.
type ProtocolDataUnit struct {
	FunctionCode byte
	Data         []byte
}

// Transporter performs a single request/response exchange with a slave.
// Implementations must serialize exchanges internally: the RS-485 bus is
// half-duplex and at most one frame may be in flight per connection.
type Transporter interface {
	Send(ctx context.Context, slaveID byte, pdu ProtocolDataUnit) (ProtocolDataUnit, error)
}

// Connector manages the underlying connection lifecycle.
type Connector interface {
	Connect(ctx context.Context) error
	Close() error
}
