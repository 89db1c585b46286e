// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mm2

import (
	"errors"
	"fmt"

	"github.com/bpowers/mm2/internal/layout"
	"github.com/bpowers/mm2/internal/qstream"
)

// TruncatedInputError is returned when the input ends in the middle of a
// header, record or compressed stream.
type TruncatedInputError = qstream.TruncatedError

// EncodingError is returned when a value can't be represented on disk, or
// the bytes on disk don't form a valid value.
type EncodingError = qstream.EncodingError

// UnsupportedVersionError is returned for files with a bad magic number or
// an unknown schema version, and when saving to an unknown version.
type UnsupportedVersionError = layout.UnsupportedVersionError

// ErrNotFound is returned by mutators given an id with no room.
var ErrNotFound = errors.New("room not found")

// DuplicateIdentifierError is returned when two rooms share an id.
type DuplicateIdentifierError struct {
	ID     RoomID
	First  int // record index of the first room with ID, or -1 if already in the database
	Second int
}

func (e *DuplicateIdentifierError) Error() string {
	if e.First < 0 {
		return fmt.Sprintf("duplicate room id %d", e.ID)
	}
	return fmt.Sprintf("duplicate room id %d in records %d and %d", e.ID, e.First, e.Second)
}

// RecordError locates a fatal error inside a room or info mark record.
type RecordError struct {
	Kind   string // "room" or "info mark"
	Index  int    // position of the record in the file
	Offset int64  // payload offset where the record starts
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s record %d at offset %d: %s", e.Kind, e.Index, e.Offset, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Warning is a recoverable problem found while loading.  The load carries
// on; warnings are available from Database.Warnings.
type Warning interface {
	error
	warning()
}

// DanglingReferenceWarning reports an exit listing a room id that isn't in
// the file.  The id is dropped.
type DanglingReferenceWarning struct {
	Room      RoomID
	Direction Direction
	Target    RoomID
	Inbound   bool // the id was in the inbound list
}

func (w *DanglingReferenceWarning) Error() string {
	list := "outbound"
	if w.Inbound {
		list = "inbound"
	}
	return fmt.Sprintf("room %d exit %s: %s room %d does not exist", w.Room, w.Direction, list, w.Target)
}

func (*DanglingReferenceWarning) warning() {}

// UnknownValueWarning reports an enumeration code with no name.  The field
// is set to its zero value.
type UnknownValueWarning struct {
	Kind  string // "room" or "info mark"
	Index int
	Field string
	Code  uint8
}

func (w *UnknownValueWarning) Error() string {
	return fmt.Sprintf("%s record %d: unknown %s code %d", w.Kind, w.Index, w.Field, w.Code)
}

func (*UnknownValueWarning) warning() {}
