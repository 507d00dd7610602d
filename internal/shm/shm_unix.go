// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build unix && !linux

package shm

import "golang.org/x/sys/unix"

func mapRegion(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_SHARED)
}

func unmapRegion(data []byte) error {
	return unix.Munmap(data)
}
