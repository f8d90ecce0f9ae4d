// Copyright (c) 2026 Lee JunHeon. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package sim

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/edsrzf/mmap-go"
)

const tableBytes = RegisterCount * 2

// Storage backs the simulated module's register table.
type Storage interface {
	// Load returns the RegisterCount-sized table. Loading twice is
	// undefined; a Storage backs exactly one Device.
	Load() ([]uint16, error)

	// Sync persists the table after a write.
	Sync() error

	Close() error
}

// MemoryStorage is a non-persistent table.
type MemoryStorage struct{}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (ms *MemoryStorage) Load() ([]uint16, error) {
	return make([]uint16, RegisterCount), nil
}

func (ms *MemoryStorage) Sync() error { return nil }

func (ms *MemoryStorage) Close() error { return nil }

// MmapStorage persists the register table through a memory-mapped file,
// so a simulated module keeps its state across restarts. The table is a
// zero-copy uint16 view of the mapping and relies on the host's
// endianness; the file is not portable across architectures.
type MmapStorage struct {
	path string
	file *os.File
	data mmap.MMap
}

// NewMmapStorage creates a new MmapStorage.
func NewMmapStorage(path string) *MmapStorage {
	return &MmapStorage{path: path}
}

// Load memory-maps the file, sizing it on first use.
func (ms *MmapStorage) Load() ([]uint16, error) {
	f, err := os.OpenFile(ms.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open mmap file: %w", err)
	}
	ms.file = f

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() != int64(tableBytes) {
		if err := f.Truncate(int64(tableBytes)); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to resize mmap file: %w", err)
		}
	}

	data, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to mmap file: %w", err)
	}
	ms.data = data

	return unsafe.Slice((*uint16)(unsafe.Pointer(&data[0])), RegisterCount), nil
}

// Sync flushes the mapping to disk.
func (ms *MmapStorage) Sync() error {
	if ms.data == nil {
		return nil
	}
	return ms.data.Flush()
}

// Close unmaps and closes the file.
func (ms *MmapStorage) Close() error {
	var first error
	if ms.data != nil {
		if err := ms.data.Flush(); err != nil && first == nil {
			first = err
		}
		if err := ms.data.Unmap(); err != nil && first == nil {
			first = err
		}
		ms.data = nil
	}
	if ms.file != nil {
		if err := ms.file.Close(); err != nil && first == nil {
			first = err
		}
		ms.file = nil
	}
	return first
}
