// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build linux

package shm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func mapRegion(size int) ([]byte, error) {
	fd, err := unix.MemfdCreate("wsurf-color-buffer", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("memfd_create: %w", err)
	}
	// The mapping keeps the memory alive after the descriptor is gone.
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		return nil, fmt.Errorf("ftruncate: %w", err)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return data, nil
}

func unmapRegion(data []byte) error {
	return unix.Munmap(data)
}
