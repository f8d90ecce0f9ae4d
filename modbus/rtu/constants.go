// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package rtu

const (
	// MinSize is the smallest valid ADU: address, function and CRC.
	MinSize = 4
	// MaxSize is the largest ADU the protocol allows.
	MaxSize = 256

	// ExceptionSize is the fixed length of an exception response.
	ExceptionSize = 5
	// EchoSize is the fixed length of a write echo response (0x06/0x10).
	EchoSize = 8

	headerSize = 3
)
