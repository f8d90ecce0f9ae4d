// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

// The module transmits 32-bit physical quantities (millivolt-scaled
// voltage, milliamp-scaled current, alarm bitmap) as two consecutive
// 16-bit holding registers, high word first.

// SplitUint32 splits a 32-bit value into big-endian high/low words.
func SplitUint32(x uint32) (hi, lo uint16) {
	return uint16(x >> 16), uint16(x & 0xFFFF)
}

// CombineUint32 combines big-endian high/low words into one 32-bit value.
// It is the exact inverse of SplitUint32.
func CombineUint32(hi, lo uint16) uint32 {
	return uint32(hi)<<16 | uint32(lo)
}
