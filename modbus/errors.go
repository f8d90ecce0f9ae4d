// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import (
	"errors"
	"fmt"
)

// ErrTimeout reports that a response read did not complete before the
// configured deadline.
var ErrTimeout = errors.New("modbus: request timed out")

// ConfigError reports an invalid parameter or use of a closed connection.
// No I/O was attempted.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "modbus: " + e.Reason
}

// CommError reports a transport-level failure: the port could not be
// opened, or the response timed out or arrived short.
type CommError struct {
	Op  string
	Err error
}

func (e *CommError) Error() string {
	return fmt.Sprintf("modbus: %s: %v", e.Op, e.Err)
}

func (e *CommError) Unwrap() error {
	return e.Err
}

// ProtocolError reports a malformed or mismatched response: CRC failure,
// or an echoed address, function code or byte count that does not match
// the request.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "modbus: " + e.Reason
}

// ExceptionError reports a Modbus exception response from the slave.
type ExceptionError struct {
	FunctionCode  byte
	ExceptionCode byte
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("modbus: exception '%d' (%s), function '%d'",
		e.ExceptionCode, exceptionMessage(e.ExceptionCode), e.FunctionCode)
}

func exceptionMessage(code byte) string {
	switch code {
	case ExceptionCodeIllegalFunction:
		return "illegal function"
	case ExceptionCodeIllegalDataAddress:
		return "illegal data address"
	case ExceptionCodeIllegalDataValue:
		return "illegal data value"
	case ExceptionCodeServerDeviceFailure:
		return "server device failure"
	default:
		return "unknown"
	}
}
