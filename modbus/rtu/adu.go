// Copyright (c) 2014 Quoc-Viet Nguyen. All rights reserved.
// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package rtu

import (
	"fmt"

	"github.com/LeeJunHeon/dcconverter/modbus"
	"github.com/LeeJunHeon/dcconverter/modbus/crc"
)

// ApplicationDataUnit is an RTU frame:
//
//	Slave Address   : 1 byte
//	Function        : 1 byte
//	Data            : 0 up to 252 bytes
//	CRC             : 2 bytes, low byte first
type ApplicationDataUnit struct {
	SlaveID byte
	Pdu     modbus.ProtocolDataUnit
}

// Decode parses a raw frame and validates its checksum.
// The CRC covers every byte except the trailing two.
func Decode(raw []byte) (*ApplicationDataUnit, error) {
	length := len(raw)
	if length < MinSize {
		return nil, &modbus.ProtocolError{
			Reason: fmt.Sprintf("response length '%v' does not meet minimum '%v'", length, MinSize),
		}
	}

	var c crc.CRC
	c.Reset().PushBytes(raw[0 : length-2])
	checksum := uint16(raw[length-1])<<8 | uint16(raw[length-2])
	if checksum != c.Value() {
		return nil, &modbus.ProtocolError{
			Reason: fmt.Sprintf("response crc '%04x' does not match expected '%04x'", checksum, c.Value()),
		}
	}

	adu := &ApplicationDataUnit{}
	adu.SlaveID = raw[0]
	adu.Pdu.FunctionCode = raw[1]
	adu.Pdu.Data = raw[2 : length-2]
	return adu, nil
}

// Encode serializes the ADU and appends the checksum, low byte first.
func (adu *ApplicationDataUnit) Encode() ([]byte, error) {
	length := len(adu.Pdu.Data) + 4
	if length > MaxSize {
		return nil, &modbus.ConfigError{
			Reason: fmt.Sprintf("length of data '%v' must not be bigger than '%v'", length, MaxSize),
		}
	}
	raw := make([]byte, length)

	raw[0] = adu.SlaveID
	raw[1] = adu.Pdu.FunctionCode
	copy(raw[2:], adu.Pdu.Data)

	var c crc.CRC
	c.Reset().PushBytes(raw[0 : length-2])
	checksum := c.Value()

	raw[length-1] = byte(checksum >> 8)
	raw[length-2] = byte(checksum)
	return raw, nil
}

// Verify checks the response against the request: the slave address must
// echo back unchanged, and an exception function code is surfaced as the
// slave's exception.
func (adu *ApplicationDataUnit) Verify(resp *ApplicationDataUnit) error {
	if resp.SlaveID != adu.SlaveID {
		return &modbus.ProtocolError{
			Reason: fmt.Sprintf("response slave id '%v' does not match request '%v'", resp.SlaveID, adu.SlaveID),
		}
	}
	if resp.Pdu.FunctionCode == adu.Pdu.FunctionCode|0x80 {
		code := byte(0)
		if len(resp.Pdu.Data) > 0 {
			code = resp.Pdu.Data[0]
		}
		return &modbus.ExceptionError{
			FunctionCode:  adu.Pdu.FunctionCode,
			ExceptionCode: code,
		}
	}
	if resp.Pdu.FunctionCode != adu.Pdu.FunctionCode {
		return &modbus.ProtocolError{
			Reason: fmt.Sprintf("response function code '%v' does not match request '%v'",
				resp.Pdu.FunctionCode, adu.Pdu.FunctionCode),
		}
	}
	return nil
}
