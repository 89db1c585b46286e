// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package layout describes how each MMapper schema version lays out its
// records.  Everything that differs between versions lives in a Layout
// value; decoders consult its fields and never compare version numbers.
package layout

import (
	"fmt"
	"sort"
)

// Magic is the first word of every MMapper map file.
const Magic uint32 = 0xFFB2AF01

// Version is the schema version stored in the file header.
type Version int32

const (
	Version200 Version = 17 // initial supported version
	Version202 Version = 24 // ridable flag
	Version204 Version = 25 // zlib compression
	Version237 Version = 32 // 16-bit door flags, mark class and rotation
	Version240 Version = 33 // 16-bit exit flags, 32-bit mob and load flags, sundeath
	Version243 Version = 34 // qCompress framing
	Version251 Version = 35 // stop discarding no_match exit flags
	Version260 Version = 36 // north increments y

	Latest = Version260
)

// Compression is how the payload after the header is framed.
type Compression int

const (
	None Compression = iota
	Zlib
	QCompress // big-endian u32 uncompressed length, then a zlib stream
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Zlib:
		return "zlib"
	case QCompress:
		return "qcompress"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

// Layout is the record layout of one schema version.  Layouts are shared
// and must not be modified.
type Layout struct {
	Version     Version
	Release     int // MMapper release, e.g. 260 for 2.60
	Compression Compression

	HasRidable  bool
	HasSunDeath bool

	RoomFlagBits int // mob and load flags
	ExitFlagBits int
	DoorFlagBits int

	// DoorImpliesExit sets the exit flag on any exit carrying the door flag.
	DoorImpliesExit bool
	// DiscardNoMatch clears no_match on read; these releases wrote exit
	// flags shifted by one bit, so the stored bit is noise.
	DiscardNoMatch bool
	// FlipY is set when moving north decremented y on disk.
	FlipY bool

	// LegacyInfoMarks adds the name and timestamp fields to every info
	// mark, and stores positions relative to the room corner.
	LegacyInfoMarks bool
	HasMarkClass    bool  // class byte and rotation angle present
	RotationScale   int32 // stored rotation = angle * RotationScale

	Directions int
	Tables     *Tables
}

func (l *Layout) String() string {
	return fmt.Sprintf("schema %d (MMapper %d.%02d)", l.Version, l.Release/100, l.Release%100)
}

var layouts = buildLayouts()

func buildLayouts() map[Version]*Layout {
	v200 := Layout{
		Version:         Version200,
		Release:         200,
		Compression:     None,
		RoomFlagBits:    16,
		ExitFlagBits:    8,
		DoorFlagBits:    8,
		DoorImpliesExit: true,
		FlipY:           true,
		LegacyInfoMarks: true,
		RotationScale:   100,
		Directions:      7,
		Tables:          mmapperTables,
	}

	v202 := v200
	v202.Version, v202.Release = Version202, 202
	v202.HasRidable = true

	v204 := v202
	v204.Version, v204.Release = Version204, 204
	v204.Compression = Zlib
	v204.DiscardNoMatch = true

	v237 := v204
	v237.Version, v237.Release = Version237, 237
	v237.DoorFlagBits = 16
	v237.HasMarkClass = true

	v240 := v237
	v240.Version, v240.Release = Version240, 240
	v240.ExitFlagBits = 16
	v240.RoomFlagBits = 32
	v240.HasSunDeath = true
	v240.DoorImpliesExit = false

	v243 := v240
	v243.Version, v243.Release = Version243, 243
	v243.Compression = QCompress

	v251 := v243
	v251.Version, v251.Release = Version251, 251
	v251.DiscardNoMatch = false

	v260 := v251
	v260.Version, v260.Release = Version260, 260
	v260.FlipY = false
	v260.LegacyInfoMarks = false
	v260.RotationScale = 1

	m := make(map[Version]*Layout)
	for _, l := range []Layout{v200, v202, v204, v237, v240, v243, v251, v260} {
		l := l
		m[l.Version] = &l
	}
	return m
}

// UnsupportedVersionError is returned for a bad magic number or a schema
// version without a Layout.
type UnsupportedVersionError struct {
	Magic    uint32
	Version  Version
	BadMagic bool
}

func (e *UnsupportedVersionError) Error() string {
	if e.BadMagic {
		return fmt.Sprintf("bad magic number %#08x (want %#08x): not an MMapper map or corrupted", e.Magic, Magic)
	}
	return fmt.Sprintf("unsupported MMapper schema version %d", e.Version)
}

// Resolve checks a file header and returns the layout it selects.
func Resolve(magic uint32, v Version) (*Layout, error) {
	if magic != Magic {
		return nil, &UnsupportedVersionError{Magic: magic, Version: v, BadMagic: true}
	}
	return Lookup(v)
}

// Lookup returns the layout for v.
func Lookup(v Version) (*Layout, error) {
	l, ok := layouts[v]
	if !ok {
		return nil, &UnsupportedVersionError{Magic: Magic, Version: v}
	}
	return l, nil
}

// Versions returns every supported version, oldest first.
func Versions() []Version {
	vs := make([]Version, 0, len(layouts))
	for v := range layouts {
		vs = append(vs, v)
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
	return vs
}
