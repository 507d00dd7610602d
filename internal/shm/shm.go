// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shm allocates anonymous shared memory for software color buffers.
//
// A region is mapped once and addressed as a byte slice. No file name or
// descriptor outlives New: on Linux the memfd is closed as soon as the
// mapping exists, elsewhere the mapping is anonymous from the start.
package shm

import (
	"errors"
	"fmt"
)

// ErrInvalidSize is returned by New for a non-positive size.
var ErrInvalidSize = errors.New("shm: invalid size")

// Region is a mapped memory region.
type Region struct {
	data []byte
}

// New maps a zeroed region of size bytes.
func New(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	data, err := mapRegion(size)
	if err != nil {
		return nil, fmt.Errorf("shm: map %d bytes: %w", size, err)
	}
	return &Region{data: data}, nil
}

// Bytes returns the mapped memory. It is nil after Close.
func (r *Region) Bytes() []byte {
	if r == nil {
		return nil
	}
	return r.data
}

// Len returns the size of the region in bytes.
func (r *Region) Len() int {
	if r == nil {
		return 0
	}
	return len(r.data)
}

// Close unmaps the region. Calling Close more than once is a no-op.
func (r *Region) Close() error {
	if r == nil || r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	return unmapRegion(data)
}
