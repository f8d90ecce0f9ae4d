// Copyright (c) 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package crc

import (
	"testing"
)

func TestCRC(t *testing.T) {
	var crc CRC
	crc.Reset()
	crc.PushBytes([]byte{0x02, 0x07})

	if crc.Value() != 0x1241 {
		t.Fatalf("crc expected %v, actual %v", 0x1241, crc.Value())
	}
}

func TestCRCModbusVectors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		// Read 10 holding registers from slave 1. On the wire the CRC
		// bytes are C5 CD (low, high).
		{"ReadHoldingRegisters", []byte{0x01, 0x03, 0x00, 0x00, 0x00, 0x0A}, 0xCDC5},
		{"Empty", nil, 0xFFFF},
		{"SingleZero", []byte{0x00}, 0x40BF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var crc CRC
			crc.Reset().PushBytes(tt.data)
			if got := crc.Value(); got != tt.want {
				t.Errorf("crc16(% x) = %#04x, want %#04x", tt.data, got, tt.want)
			}
		})
	}
}

func TestCRCPushByteMatchesPushBytes(t *testing.T) {
	data := []byte{0x01, 0x10, 0x00, 0x65, 0x00, 0x05, 0x0A}

	var a, b CRC
	a.Reset().PushBytes(data)
	b.Reset()
	for _, x := range data {
		b.PushByte(x)
	}

	if a.Value() != b.Value() {
		t.Errorf("PushBytes %#04x and PushByte %#04x disagree", a.Value(), b.Value())
	}
}
