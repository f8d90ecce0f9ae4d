// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package sim

import (
	"encoding/binary"

	"github.com/LeeJunHeon/dcconverter/modbus"
)

// Slave executes Modbus function codes against a Device, producing the
// response PDU a real module would send.
type Slave struct {
	device *Device
}

// NewSlave creates a new Slave.
func NewSlave(device *Device) *Slave {
	return &Slave{device: device}
}

// Process executes one request PDU.
func (s *Slave) Process(req modbus.ProtocolDataUnit) modbus.ProtocolDataUnit {
	switch req.FunctionCode {
	case modbus.FuncCodeReadHoldingRegisters:
		return s.handleReadHoldingRegisters(req)
	case modbus.FuncCodeWriteSingleRegister:
		return s.handleWriteSingleRegister(req)
	case modbus.FuncCodeWriteMultipleRegisters:
		return s.handleWriteMultipleRegisters(req)
	default:
		return exception(req.FunctionCode, modbus.ExceptionCodeIllegalFunction)
	}
}

func (s *Slave) handleReadHoldingRegisters(req modbus.ProtocolDataUnit) modbus.ProtocolDataUnit {
	if len(req.Data) != 4 {
		return exception(req.FunctionCode, modbus.ExceptionCodeIllegalDataValue)
	}
	address := binary.BigEndian.Uint16(req.Data)
	quantity := binary.BigEndian.Uint16(req.Data[2:])

	regs, exCode := s.device.ReadHoldingRegisters(address, quantity)
	if exCode != 0 {
		return exception(req.FunctionCode, exCode)
	}

	data := make([]byte, 1+len(regs)*2)
	data[0] = byte(len(regs) * 2)
	for i, r := range regs {
		binary.BigEndian.PutUint16(data[1+i*2:], r)
	}
	return modbus.ProtocolDataUnit{FunctionCode: req.FunctionCode, Data: data}
}

func (s *Slave) handleWriteSingleRegister(req modbus.ProtocolDataUnit) modbus.ProtocolDataUnit {
	if len(req.Data) != 4 {
		return exception(req.FunctionCode, modbus.ExceptionCodeIllegalDataValue)
	}
	address := binary.BigEndian.Uint16(req.Data)
	value := binary.BigEndian.Uint16(req.Data[2:])

	if exCode := s.device.WriteSingleRegister(address, value); exCode != 0 {
		return exception(req.FunctionCode, exCode)
	}
	// 0x06 echoes the request.
	return modbus.ProtocolDataUnit{FunctionCode: req.FunctionCode, Data: req.Data}
}

func (s *Slave) handleWriteMultipleRegisters(req modbus.ProtocolDataUnit) modbus.ProtocolDataUnit {
	if len(req.Data) < 5 {
		return exception(req.FunctionCode, modbus.ExceptionCodeIllegalDataValue)
	}
	address := binary.BigEndian.Uint16(req.Data)
	quantity := binary.BigEndian.Uint16(req.Data[2:])
	byteCount := int(req.Data[4])

	if byteCount != int(quantity)*2 || len(req.Data) != 5+byteCount {
		return exception(req.FunctionCode, modbus.ExceptionCodeIllegalDataValue)
	}

	values := make([]uint16, quantity)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(req.Data[5+i*2:])
	}
	if exCode := s.device.WriteMultipleRegisters(address, values); exCode != 0 {
		return exception(req.FunctionCode, exCode)
	}

	// 0x10 echoes start and quantity only.
	return modbus.ProtocolDataUnit{FunctionCode: req.FunctionCode, Data: req.Data[:4]}
}

func exception(funcCode, exCode byte) modbus.ProtocolDataUnit {
	return modbus.ProtocolDataUnit{
		FunctionCode: funcCode | 0x80,
		Data:         []byte{exCode},
	}
}
