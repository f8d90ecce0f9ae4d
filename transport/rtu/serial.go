// Copyright (c) 2014 Quoc-Viet Nguyen. All rights reserved.
// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package rtu

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/LeeJunHeon/dcconverter/internal/config"
	"github.com/LeeJunHeon/dcconverter/modbus"
)

// readPollInterval bounds each low-level Read so the per-phase response
// deadline is observed. Set once at open; never mutated between calls.
const readPollInterval = 50 * time.Millisecond

// Port is the subset of the serial port surface the transport needs.
// go.bug.st/serial.Port satisfies it.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// serialPort has configuration and I/O controller.
type serialPort struct {
	Config config.SerialConfig

	mu sync.Mutex
	// port is the open serial handle, nil while disconnected.
	port Port
}

func (sp *serialPort) Connect(ctx context.Context) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	return sp.connect(ctx)
}

// connect opens the serial port if it is not open. Caller must hold the mutex.
func (sp *serialPort) connect(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if sp.port != nil {
		return nil
	}

	mode := &serial.Mode{
		BaudRate: sp.Config.BaudRate,
		DataBits: sp.Config.DataBits,
		Parity:   parity(sp.Config.Parity),
		StopBits: stopBits(sp.Config.StopBits),
	}
	p, err := serial.Open(sp.Config.Device, mode)
	if err != nil {
		return &modbus.CommError{
			Op:  "open " + sp.Config.Device,
			Err: err,
		}
	}
	if err := p.SetReadTimeout(readPollInterval); err != nil {
		p.Close()
		return &modbus.CommError{
			Op:  "configure " + sp.Config.Device,
			Err: fmt.Errorf("set read timeout: %w", err),
		}
	}
	sp.port = p
	return nil
}

func (sp *serialPort) Close() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	return sp.close()
}

// close closes the serial port if it is open. Caller must hold the mutex.
func (sp *serialPort) close() (err error) {
	if sp.port != nil {
		err = sp.port.Close()
		sp.port = nil
	}
	return
}

// Connected reports whether the serial handle is open.
func (sp *serialPort) Connected() bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	return sp.port != nil
}

func parity(s string) serial.Parity {
	switch s {
	case "E":
		return serial.EvenParity
	case "O":
		return serial.OddParity
	default:
		return serial.NoParity
	}
}

func stopBits(n int) serial.StopBits {
	if n == 2 {
		return serial.TwoStopBits
	}
	return serial.OneStopBit
}
