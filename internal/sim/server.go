// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/grid-x/serial"

	"github.com/LeeJunHeon/dcconverter/internal/config"
	"github.com/LeeJunHeon/dcconverter/modbus"
	"github.com/LeeJunHeon/dcconverter/modbus/crc"
	rtupacket "github.com/LeeJunHeon/dcconverter/modbus/rtu"
)

// Server serves a simulated module as an RTU slave on a serial device.
// Frames addressed to other slaves on the bus are ignored.
type Server struct {
	cfg     config.SerialConfig
	slaveID byte
	slave   *Slave
}

// NewServer creates a new RTU slave server.
func NewServer(cfg config.SerialConfig, slaveID byte, slave *Slave) *Server {
	return &Server{cfg: cfg, slaveID: slaveID, slave: slave}
}

// Start opens the serial device and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	spConfig := &serial.Config{
		Address:  s.cfg.Device,
		BaudRate: s.cfg.BaudRate,
		DataBits: s.cfg.DataBits,
		StopBits: s.cfg.StopBits,
		Parity:   s.cfg.Parity,
		Timeout:  s.cfg.Timeout,
	}

	port, err := serial.Open(spConfig)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.cfg.Device, err)
	}
	defer port.Close()
	slog.Info("simulated module listening", "device", s.cfg.Device, "slave", s.slaveID)

	go func() {
		<-ctx.Done()
		port.Close()
	}()

	return s.Serve(ctx, port)
}

// Serve answers requests on an already-open port until ctx is cancelled
// or the port fails permanently.
func (s *Server) Serve(ctx context.Context, port io.ReadWriteCloser) error {
	buf := make([]byte, rtupacket.MaxSize)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		// Read 1 byte to unblock
		n, err := port.Read(buf[:1])
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		if n == 0 {
			continue
		}

		// Read header (7 bytes total covers the byte count of 0x10)
		current := 1
		need := 7

		for current < need {
			n, err := port.Read(buf[current:need])
			if err != nil {
				break
			}
			current += n
		}

		if current < 2 {
			continue
		}

		functionCode := buf[1]

		expectedLen, err := rtupacket.CalculateRequestLength(functionCode, buf[:current])
		if err != nil {
			continue
		}

		for current < expectedLen {
			n, err := port.Read(buf[current:expectedLen])
			if err != nil {
				break
			}
			current += n
		}

		if current != expectedLen {
			continue
		}

		var c crc.CRC
		c.Reset().PushBytes(buf[:expectedLen-2])
		receivedChecksum := uint16(buf[expectedLen-1])<<8 | uint16(buf[expectedLen-2])
		if c.Value() != receivedChecksum {
			continue
		}

		// Another slave's exchange; stay silent.
		if buf[0] != s.slaveID {
			continue
		}

		reqPDU := modbus.ProtocolDataUnit{
			FunctionCode: functionCode,
			Data:         append([]byte(nil), buf[2:expectedLen-2]...),
		}

		respPDU := s.slave.Process(reqPDU)

		respADU := &rtupacket.ApplicationDataUnit{
			SlaveID: s.slaveID,
			Pdu:     respPDU,
		}
		respBytes, err := respADU.Encode()
		if err != nil {
			slog.Error("failed to encode response", "err", err)
			continue
		}
		if _, err := port.Write(respBytes); err != nil {
			slog.Error("failed to write response", "err", err)
		}
	}
}
