// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mm2

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/bpowers/mm2/internal/mmap"
)

// LoadFile memory-maps the map file at path and decodes it.  The mapping
// is released before LoadFile returns.
func LoadFile(path string, opts ...Option) (*Database, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap.Open(%s): %w", path, err)
	}
	defer func() { _ = m.Close() }()

	db, err := Decode(m.Data(), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return db, nil
}

// SaveFile writes the database to path as version v.  The file is written
// under a temporary name and renamed into place, so readers never see a
// partial map.
func (db *Database) SaveFile(path string, v Version) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("filepath.Abs: %w", err)
	}
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "mm2-save.*.tmp")
	if err != nil {
		return fmt.Errorf("CreateTemp failed (may need permissions for dir %q): %w", dir, err)
	}
	tmpPath := f.Name()
	ok := false
	defer func() {
		if !ok {
			_ = f.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	w := bufio.NewWriter(f)
	if err := db.Save(w, v); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("bufio.Flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("f.Sync: %w", err)
	}
	if err := f.Chmod(0o644); err != nil {
		return fmt.Errorf("f.Chmod: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("f.Close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		ok = true
		return fmt.Errorf("os.Rename: %w", err)
	}
	ok = true
	db.logger.Debug("wrote map file", zap.String("path", path), zap.Int32("version", int32(v)))
	return nil
}
