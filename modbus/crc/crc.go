// Copyright (c) 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package crc

const polynomial = 0xA001

// CRC is the Modbus CRC-16 accumulator.
// The same engine generates outgoing frame checksums and validates
// incoming ones.
type CRC struct {
	crc uint16
}

// Reset initializes the accumulator. It must be called before the first
// PushByte or PushBytes.
func (c *CRC) Reset() *CRC {
	c.crc = 0xFFFF
	return c
}

// PushByte updates the checksum with one byte.
func (c *CRC) PushByte(b byte) *CRC {
	c.crc ^= uint16(b)
	for i := 0; i < 8; i++ {
		if c.crc&1 != 0 {
			c.crc = c.crc>>1 ^ polynomial
		} else {
			c.crc >>= 1
		}
	}
	return c
}

// PushBytes updates the checksum with a sequence of bytes.
func (c *CRC) PushBytes(bs []byte) *CRC {
	for _, b := range bs {
		c.PushByte(b)
	}
	return c
}

// Value returns the 16-bit checksum. On the wire the low byte is
// transmitted first.
func (c *CRC) Value() uint16 {
	return c.crc
}
