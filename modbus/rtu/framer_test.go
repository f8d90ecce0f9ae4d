// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package rtu

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/LeeJunHeon/dcconverter/modbus"
)

func TestCalculateRequestLength(t *testing.T) {
	tests := []struct {
		name     string
		funcCode byte
		header   []byte
		want     int
		wantErr  bool
	}{
		{"ReadHoldingRegisters", 0x03, []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x01}, 8, false},
		{"WriteSingleRegister", 0x06, []byte{0x01, 0x06, 0x00, 0x00, 0xAA, 0xBB}, 8, false},
		{"WriteMultipleRegisters_ShortHeader", 0x10, []byte{0x01, 0x10, 0x00, 0x01, 0x00, 0x01}, 0, true},
		{"WriteMultipleRegisters_Valid", 0x10, []byte{0x01, 0x10, 0x00, 0x01, 0x00, 0x01, 0x02}, 7 + 2 + 2, false},
		{"UnknownFunction", 0x99, []byte{0x01, 0x99}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateRequestLength(tt.funcCode, tt.header)
			if (err != nil) != tt.wantErr {
				t.Errorf("CalculateRequestLength() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("CalculateRequestLength() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculateResponseLength(t *testing.T) {
	tests := []struct {
		name string
		adu  []byte
		want int
	}{
		{"Read4Registers", []byte{0x01, 0x03, 0x01, 0x2E, 0x00, 0x04}, 4 + 1 + 8},
		{"WriteSingle", []byte{0x01, 0x06, 0x00, 0x65, 0x00, 0x00}, 8},
		{"WriteMultiple", []byte{0x01, 0x10, 0x00, 0x65, 0x00, 0x05, 0x0A}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateResponseLength(tt.adu); got != tt.want {
				t.Errorf("CalculateResponseLength() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadResponseTwoPhase(t *testing.T) {
	// Well-formed 0x03 response carrying 4 registers.
	adu := &ApplicationDataUnit{
		SlaveID: 0x01,
		Pdu: modbus.ProtocolDataUnit{
			FunctionCode: modbus.FuncCodeReadHoldingRegisters,
			Data:         []byte{0x08, 0x00, 0x00, 0x2E, 0xE0, 0x00, 0x00, 0x27, 0x10},
		},
	}
	frame, err := adu.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	// Trailing bytes simulate a subsequent unrelated frame on the bus;
	// they must not be consumed.
	r := bytes.NewReader(append(append([]byte(nil), frame...), 0x02, 0x03, 0x04))

	got, err := ReadResponse(r, modbus.FuncCodeReadHoldingRegisters, time.Second)
	if err != nil {
		t.Fatalf("ReadResponse() error = %v", err)
	}
	if !bytes.Equal(got, frame) {
		t.Errorf("ReadResponse() = % x, want % x", got, frame)
	}
	if r.Len() != 3 {
		t.Errorf("reader has %d bytes left, want 3 (next frame untouched)", r.Len())
	}
}

func TestReadResponseFixedEcho(t *testing.T) {
	adu := &ApplicationDataUnit{
		SlaveID: 0x01,
		Pdu: modbus.ProtocolDataUnit{
			FunctionCode: modbus.FuncCodeWriteSingleRegister,
			Data:         []byte{0x00, 0x65, 0x00, 0x00},
		},
	}
	frame, err := adu.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, err := ReadResponse(bytes.NewReader(frame), modbus.FuncCodeWriteSingleRegister, time.Second)
	if err != nil {
		t.Fatalf("ReadResponse() error = %v", err)
	}
	if len(got) != EchoSize {
		t.Errorf("ReadResponse() returned %d bytes, want %d", len(got), EchoSize)
	}
}

func TestReadResponseException(t *testing.T) {
	adu := &ApplicationDataUnit{
		SlaveID: 0x01,
		Pdu: modbus.ProtocolDataUnit{
			FunctionCode: modbus.FuncCodeReadHoldingRegisters | 0x80,
			Data:         []byte{modbus.ExceptionCodeIllegalDataAddress},
		},
	}
	frame, err := adu.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, err := ReadResponse(bytes.NewReader(frame), modbus.FuncCodeReadHoldingRegisters, time.Second)
	if err != nil {
		t.Fatalf("ReadResponse() error = %v", err)
	}
	if len(got) != ExceptionSize {
		t.Errorf("ReadResponse() returned %d bytes, want %d", len(got), ExceptionSize)
	}
}

func TestReadResponseTruncatedAfterHeader(t *testing.T) {
	adu := &ApplicationDataUnit{
		SlaveID: 0x01,
		Pdu: modbus.ProtocolDataUnit{
			FunctionCode: modbus.FuncCodeReadHoldingRegisters,
			Data:         []byte{0x08, 0x00, 0x00, 0x2E, 0xE0, 0x00, 0x00, 0x27, 0x10},
		},
	}
	frame, err := adu.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	// The remainder never arrives.
	_, err = ReadResponse(bytes.NewReader(frame[:3]), modbus.FuncCodeReadHoldingRegisters, 20*time.Millisecond)
	var commErr *modbus.CommError
	if !errors.As(err, &commErr) {
		t.Fatalf("ReadResponse() error = %v, want *modbus.CommError", err)
	}
}

// silentReader models a serial port with nothing to deliver: each Read
// returns empty until the deadline-bounded caller gives up.
type silentReader struct{}

func (silentReader) Read(p []byte) (int, error) {
	time.Sleep(time.Millisecond)
	return 0, nil
}

func TestReadResponseTimesOutInsteadOfHanging(t *testing.T) {
	start := time.Now()
	_, err := ReadResponse(silentReader{}, modbus.FuncCodeReadHoldingRegisters, 30*time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, modbus.ErrTimeout) {
		t.Fatalf("ReadResponse() error = %v, want ErrTimeout", err)
	}
	var commErr *modbus.CommError
	if !errors.As(err, &commErr) {
		t.Fatalf("ReadResponse() error = %v, want *modbus.CommError", err)
	}
	if elapsed > time.Second {
		t.Errorf("ReadResponse() took %v, should respect the 30ms bound", elapsed)
	}
}

func TestReadResponseFunctionMismatch(t *testing.T) {
	_, err := ReadResponse(bytes.NewReader([]byte{0x01, 0x04, 0x02, 0x00, 0x00, 0x00, 0x00}),
		modbus.FuncCodeReadHoldingRegisters, time.Second)
	var protoErr *modbus.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("ReadResponse() error = %v, want *modbus.ProtocolError", err)
	}
}

func TestReadResponseInvalidByteCount(t *testing.T) {
	for _, bc := range []byte{0, 61} {
		_, err := ReadResponse(bytes.NewReader([]byte{0x01, 0x03, bc}),
			modbus.FuncCodeReadHoldingRegisters, time.Second)
		var protoErr *modbus.ProtocolError
		if !errors.As(err, &protoErr) {
			t.Errorf("byte count %d: error = %v, want *modbus.ProtocolError", bc, err)
		}
	}
}
