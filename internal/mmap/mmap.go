// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmap provides read-only access to a file's bytes through a
// shared memory mapping.
package mmap

import (
	"fmt"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

// ReaderAt reads a memory-mapped file.  The slice returned by Data is
// only valid until Close.
type ReaderAt struct {
	data []byte
}

// Open maps path read-only.  An empty file yields an empty ReaderAt
// without a mapping.
func Open(path string) (*ReaderAt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	size := fi.Size()
	if size == 0 {
		return &ReaderAt{}, nil
	}
	if size < 0 || size != int64(int(size)) {
		return nil, fmt.Errorf("mmap: file %q has unmappable size %d", path, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	// records are decoded front to back exactly once
	if err := unix.Madvise(data, unix.MADV_SEQUENTIAL); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("madvise: %w", err)
	}

	r := &ReaderAt{data: data}
	runtime.SetFinalizer(r, (*ReaderAt).Close)
	return r, nil
}

// Len returns the length of the mapped file.
func (r *ReaderAt) Len() int {
	return len(r.data)
}

// Data returns the mapped bytes, which must not be written to.
func (r *ReaderAt) Data() []byte {
	return r.data
}

// Close unmaps the file.  It is safe to call more than once.
func (r *ReaderAt) Close() error {
	if r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	runtime.SetFinalizer(r, nil)
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}
