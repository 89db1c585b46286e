// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package bitflags maps packed flag words and small enumeration codes to
// and from names.
package bitflags

import (
	"fmt"
	"math/bits"
)

// MaxWidth is the widest flag word the format stores.
const MaxWidth = 32

// Table names the bits of a flag word: bit i is names[i].
type Table struct {
	names  []string
	byName map[string]uint32
}

// NewTable returns a Table assigning names to bits 0, 1, 2, ... in order.
func NewTable(names ...string) *Table {
	if len(names) > MaxWidth {
		panic(fmt.Sprintf("invariant broken: %d names don't fit in a %d-bit word", len(names), MaxWidth))
	}
	t := &Table{
		names:  names,
		byName: make(map[string]uint32, len(names)),
	}
	for i, name := range names {
		if _, ok := t.byName[name]; ok {
			panic(fmt.Sprintf("invariant broken: duplicate flag name %q", name))
		}
		t.byName[name] = 1 << uint(i)
	}
	return t
}

// Set is a decoded flag word: the named bits plus whatever bits the table
// has no name for.
type Set struct {
	Names   []string
	Unknown uint32
}

// Known returns the mask of bits that have names.
func (t *Table) Known() uint32 {
	if len(t.names) == MaxWidth {
		return ^uint32(0)
	}
	return 1<<uint(len(t.names)) - 1
}

// Len returns the number of named bits.
func (t *Table) Len() int {
	return len(t.names)
}

// Bit returns the mask for name.
func (t *Table) Bit(name string) (uint32, bool) {
	b, ok := t.byName[name]
	return b, ok
}

// Names returns the names of the bits set in raw, lowest bit first.
func (t *Table) Names(raw uint32) []string {
	var names []string
	for known := raw & t.Known(); known != 0; known &= known - 1 {
		names = append(names, t.names[bits.TrailingZeros32(known)])
	}
	return names
}

// Decode splits raw into named and unknown bits.  It never fails.
func (t *Table) Decode(raw uint32) Set {
	return Set{
		Names:   t.Names(raw),
		Unknown: raw &^ t.Known(),
	}
}

// Encode is the inverse of Decode.  Unknown bits are passed through
// verbatim; an unrecognized name is an error.
func (t *Table) Encode(names []string, unknown uint32) (uint32, error) {
	raw := unknown
	for _, name := range names {
		b, ok := t.byName[name]
		if !ok {
			return 0, fmt.Errorf("unknown flag %q", name)
		}
		raw |= b
	}
	return raw, nil
}

// Fits reports whether every set bit of v is inside the low width bits.
func Fits(v uint32, width int) bool {
	if width >= MaxWidth {
		return true
	}
	return v>>uint(width) == 0
}

// Enum names the codes of a single-valued byte field.  Code 0 is the
// fallback used for codes without a name.
type Enum struct {
	names  []string
	byName map[string]uint8
}

func NewEnum(names ...string) *Enum {
	if len(names) == 0 || len(names) > 256 {
		panic(fmt.Sprintf("invariant broken: enum needs 1..256 names, got %d", len(names)))
	}
	e := &Enum{
		names:  names,
		byName: make(map[string]uint8, len(names)),
	}
	for i, name := range names {
		if _, ok := e.byName[name]; ok {
			panic(fmt.Sprintf("invariant broken: duplicate enum name %q", name))
		}
		e.byName[name] = uint8(i)
	}
	return e
}

// Name returns the name for code.  For out-of-range codes it returns the
// fallback name and false.
func (e *Enum) Name(code uint8) (string, bool) {
	if int(code) >= len(e.names) {
		return e.names[0], false
	}
	return e.names[code], true
}

// Code returns the code for name.
func (e *Enum) Code(name string) (uint8, bool) {
	c, ok := e.byName[name]
	return c, ok
}

// Valid reports whether code has a name.
func (e *Enum) Valid(code uint8) bool {
	return int(code) < len(e.names)
}

// Len returns the number of named codes.
func (e *Enum) Len() int {
	return len(e.names)
}
