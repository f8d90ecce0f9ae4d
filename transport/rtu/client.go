// Copyright (c) 2014 Quoc-Viet Nguyen. All rights reserved.
// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package rtu implements the Modbus RTU master transport over an RS-485
// serial line.
package rtu

import (
	"context"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/LeeJunHeon/dcconverter/internal/config"
	"github.com/LeeJunHeon/dcconverter/modbus"
	rtupacket "github.com/LeeJunHeon/dcconverter/modbus/rtu"
)

// Client implements modbus.Transporter (Modbus RTU Master) over one
// serial connection. Exchanges are serialized internally: the bus is
// half-duplex and concurrent writes would interleave frame bytes.
type Client struct {
	serialPort
}

// NewClient allocates and initializes a RTU Client.
func NewClient(cfg config.SerialConfig) *Client {
	return &Client{serialPort: serialPort{Config: cfg}}
}

// NewClientWithPort returns a Client running over an already-open port
// owned by the caller, e.g. an in-memory bus in tests. Connect is a
// no-op for such a client; Close closes the supplied port.
func NewClientWithPort(cfg config.SerialConfig, p Port) *Client {
	return &Client{serialPort: serialPort{Config: cfg, port: p}}
}

// Send performs one request/response exchange with the slave.
func (mb *Client) Send(ctx context.Context, slaveID byte, pdu modbus.ProtocolDataUnit) (modbus.ProtocolDataUnit, error) {
	adu := &rtupacket.ApplicationDataUnit{
		SlaveID: slaveID,
		Pdu:     pdu,
	}

	aduBytes, err := adu.Encode()
	if err != nil {
		return modbus.ProtocolDataUnit{}, err
	}

	respBytes, err := mb.send(ctx, aduBytes)
	if err != nil {
		return modbus.ProtocolDataUnit{}, err
	}

	respAdu, err := rtupacket.Decode(respBytes)
	if err != nil {
		return modbus.ProtocolDataUnit{}, err
	}

	if err := adu.Verify(respAdu); err != nil {
		return modbus.ProtocolDataUnit{}, err
	}

	return respAdu.Pdu, nil
}

// send writes one frame and acquires its response. At most one exchange
// is in flight per connection.
func (mb *Client) send(ctx context.Context, aduRequest []byte) ([]byte, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if mb.port == nil {
		return nil, &modbus.ConfigError{Reason: "serial port is not open"}
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// Drop stale bytes left over from an earlier aborted exchange so
	// the response read starts on a frame boundary.
	if err := mb.port.ResetInputBuffer(); err != nil {
		return nil, &modbus.CommError{Op: "flush input", Err: err}
	}

	slog.Debug("send to module", "request", hex.EncodeToString(aduRequest))
	if _, err := mb.port.Write(aduRequest); err != nil {
		return nil, &modbus.CommError{Op: "write request", Err: err}
	}

	// Let the request leave the UART before the response read begins.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(mb.calculateDelay(len(aduRequest))):
	}

	data, err := rtupacket.ReadResponse(mb.port, aduRequest[1], mb.Config.Timeout)
	if err != nil {
		return nil, err
	}
	slog.Debug("recv from module", "response", hex.EncodeToString(data))
	return data, nil
}

// calculateDelay estimates the transmission time of chars characters
// plus the inter-frame gap.
func (mb *Client) calculateDelay(chars int) time.Duration {
	var characterDelay, frameDelay int

	if mb.Config.BaudRate <= 0 || mb.Config.BaudRate > 19200 {
		characterDelay = 750
		frameDelay = 1750
	} else {
		characterDelay = 15000000 / mb.Config.BaudRate
		frameDelay = 35000000 / mb.Config.BaudRate
	}
	return time.Duration(characterDelay*chars+frameDelay) * time.Microsecond
}
