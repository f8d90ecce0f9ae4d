// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package rtu

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/LeeJunHeon/dcconverter/modbus"
)

// CalculateResponseLength returns the expected length of a response ADU
// for the given request ADU. For 0x03 the length depends on the requested
// quantity; write functions echo a fixed 8-byte frame.
func CalculateResponseLength(adu []byte) int {
	length := MinSize
	switch adu[1] {
	case modbus.FuncCodeReadHoldingRegisters:
		count := int(binary.BigEndian.Uint16(adu[4:]))
		length += 1 + count*2
	case modbus.FuncCodeWriteSingleRegister,
		modbus.FuncCodeWriteMultipleRegisters:
		length += 4
	}
	return length
}

// CalculateRequestLength returns the expected total length of a request
// ADU based on its header bytes. Used by the slave side to frame an
// incoming request.
func CalculateRequestLength(funcCode byte, header []byte) (int, error) {
	switch funcCode {
	case modbus.FuncCodeReadHoldingRegisters,
		modbus.FuncCodeWriteSingleRegister:
		// Fixed 8 bytes: [SlaveID, Func, Addr(2), Val(2), CRC(2)]
		return 8, nil
	case modbus.FuncCodeWriteMultipleRegisters:
		// [SlaveID, Func, Addr(2), Quant(2), ByteCount(1), Data(N), CRC(2)]
		// ByteCount is at offset 6.
		if len(header) < 7 {
			return 0, fmt.Errorf("need 7 bytes to determine length for 0x%02X, got %d", funcCode, len(header))
		}
		byteCount := int(header[6])
		return 7 + byteCount + 2, nil
	default:
		return 0, fmt.Errorf("unsupported function code: 0x%02X", funcCode)
	}
}

// ReadResponse performs a two-phase, byte-exact acquisition of one
// response frame. Phase one reads the 3-byte header (address, function,
// third byte). Phase two reads exactly the remainder the header declares:
// byte count plus CRC for 0x03, the rest of the fixed 8-byte echo for
// writes, or the rest of a 5-byte exception frame.
//
// Each phase is bounded by timeout and reads at most the requested
// number of bytes. The bus may carry a subsequent unrelated frame;
// reading whatever happens to be available would desynchronize framing
// for the next exchange.
func ReadResponse(r io.Reader, funcCode byte, timeout time.Duration) ([]byte, error) {
	header := make([]byte, headerSize)
	if err := readFull(r, header, time.Now().Add(timeout)); err != nil {
		return nil, err
	}

	var remainder int
	switch {
	case header[1] == funcCode|0x80:
		// [addr, func|0x80, exception code] read so far; CRC remains.
		remainder = ExceptionSize - headerSize
	case header[1] != funcCode:
		return nil, &modbus.ProtocolError{
			Reason: fmt.Sprintf("response function code '%v' does not match request '%v'", header[1], funcCode),
		}
	case funcCode == modbus.FuncCodeReadHoldingRegisters:
		byteCount := header[2]
		if byteCount == 0 || byteCount > 2*modbus.MaxQuantity {
			return nil, &modbus.ProtocolError{
				Reason: fmt.Sprintf("invalid byte count received: %d", byteCount),
			}
		}
		remainder = int(byteCount) + 2
	default:
		remainder = EchoSize - headerSize
	}

	frame := make([]byte, headerSize+remainder)
	copy(frame, header)
	if err := readFull(r, frame[headerSize:], time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	return frame, nil
}

// readFull reads exactly len(buf) bytes, bounded by the deadline. The
// underlying serial read must itself be timeout-bounded so that each
// Read call returns and the deadline is observed.
func readFull(r io.Reader, buf []byte, deadline time.Time) error {
	n := 0
	for n < len(buf) {
		if !time.Now().Before(deadline) {
			return &modbus.CommError{Op: "read response", Err: modbus.ErrTimeout}
		}
		k, err := r.Read(buf[n:])
		n += k
		if err != nil {
			if err == io.EOF && n < len(buf) {
				err = fmt.Errorf("short response: %d of %d bytes: %w", n, len(buf), modbus.ErrTimeout)
			}
			return &modbus.CommError{Op: "read response", Err: err}
		}
	}
	return nil
}
