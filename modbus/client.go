// Copyright (c) 2014 Quoc-Viet Nguyen. All rights reserved.
// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import (
	"context"
	"encoding/binary"
	"fmt"
)

// Client implements the register operations of the MXR6020B protocol on
// top of a Transporter. It performs no retry: one failed round trip is
// one reported failure.
type Client struct {
	slaveID byte
	t       Transporter
}

// NewClient returns a Client bound to one slave address.
func NewClient(slaveID int, t Transporter) (*Client, error) {
	if slaveID < 0 || slaveID > MaxSlaveID {
		return nil, &ConfigError{
			Reason: fmt.Sprintf("slave address %d out of range 0-%d", slaveID, MaxSlaveID),
		}
	}
	return &Client{slaveID: byte(slaveID), t: t}, nil
}

// SlaveID returns the bound slave address.
func (c *Client) SlaveID() byte {
	return c.slaveID
}

// ReadHoldingRegisters reads qty registers starting at start (0x03).
// It returns the register values in order, most-significant register
// first, exactly as transmitted.
func (c *Client) ReadHoldingRegisters(ctx context.Context, start, qty uint16) ([]uint16, error) {
	if qty < 1 || qty > MaxQuantity {
		return nil, &ConfigError{
			Reason: fmt.Sprintf("quantity '%v' must be between '1' and '%v'", qty, MaxQuantity),
		}
	}

	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data, start)
	binary.BigEndian.PutUint16(data[2:], qty)

	resp, err := c.t.Send(ctx, c.slaveID, ProtocolDataUnit{
		FunctionCode: FuncCodeReadHoldingRegisters,
		Data:         data,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) < 1 {
		return nil, &ProtocolError{Reason: "response data is empty"}
	}
	byteCount := int(resp.Data[0])
	if byteCount != int(qty)*2 {
		return nil, &ProtocolError{
			Reason: fmt.Sprintf("response byte count '%v' does not match request quantity '%v'", byteCount, qty),
		}
	}
	if len(resp.Data)-1 != byteCount {
		return nil, &ProtocolError{
			Reason: fmt.Sprintf("response data size '%v' does not match byte count '%v'", len(resp.Data)-1, byteCount),
		}
	}

	regs := make([]uint16, qty)
	for i := range regs {
		regs[i] = binary.BigEndian.Uint16(resp.Data[1+i*2:])
	}
	return regs, nil
}

// WriteSingleRegister writes one register (0x06). The slave merely echoes
// the write, so success carries no decoded value.
func (c *Client) WriteSingleRegister(ctx context.Context, reg, value uint16) error {
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data, reg)
	binary.BigEndian.PutUint16(data[2:], value)

	resp, err := c.t.Send(ctx, c.slaveID, ProtocolDataUnit{
		FunctionCode: FuncCodeWriteSingleRegister,
		Data:         data,
	})
	if err != nil {
		return err
	}
	return verifyEcho(resp.Data, data)
}

// WriteMultipleRegisters writes a block of registers starting at start
// (0x10). The response echoes start and quantity only, no data.
func (c *Client) WriteMultipleRegisters(ctx context.Context, start uint16, values []uint16) error {
	qty := len(values)
	if qty < 1 || qty > MaxQuantity {
		return &ConfigError{
			Reason: fmt.Sprintf("quantity '%v' must be between '1' and '%v'", qty, MaxQuantity),
		}
	}

	data := make([]byte, 5+qty*2)
	binary.BigEndian.PutUint16(data, start)
	binary.BigEndian.PutUint16(data[2:], uint16(qty))
	data[4] = byte(qty * 2)
	for i, v := range values {
		binary.BigEndian.PutUint16(data[5+i*2:], v)
	}

	resp, err := c.t.Send(ctx, c.slaveID, ProtocolDataUnit{
		FunctionCode: FuncCodeWriteMultipleRegisters,
		Data:         data,
	})
	if err != nil {
		return err
	}
	return verifyEcho(resp.Data, data[:4])
}

// verifyEcho checks the 4-byte echo payload of a write response against
// the request.
func verifyEcho(got, want []byte) error {
	if len(got) != len(want) {
		return &ProtocolError{
			Reason: fmt.Sprintf("response data size '%v' does not match expected '%v'", len(got), len(want)),
		}
	}
	for i := range got {
		if got[i] != want[i] {
			return &ProtocolError{
				Reason: fmt.Sprintf("response echo '% x' does not match request '% x'", got, want),
			}
		}
	}
	return nil
}
