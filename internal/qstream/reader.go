// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package qstream reads and writes the primitive values of a QDataStream:
// big-endian integers, length-prefixed UTF-16 strings and packed flag words.
package qstream

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"
)

// NullString is the length prefix Qt writes for a null QString.
const NullString = math.MaxUint32

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// Reader is a cursor over an in-memory byte buffer.  It never copies the
// buffer, but every value it returns (including strings) is independent of it.
type Reader struct {
	data []byte
	off  int64
	base int64
}

// NewReader returns a Reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// NewReaderAt returns a Reader over data whose first byte sits at offset base
// of some enclosing stream.  Offsets in errors are reported relative to that
// enclosing stream.
func NewReaderAt(data []byte, base int64) *Reader {
	return &Reader{data: data, base: base}
}

// Offset returns the absolute position of the next byte to be read.
func (r *Reader) Offset() int64 {
	return r.base + r.off
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.data) - int(r.off)
}

func (r *Reader) next(n int) ([]byte, error) {
	if have := r.Len(); have < n {
		return nil, &TruncatedError{Offset: r.Offset(), Need: n, Have: have}
	}
	b := r.data[r.off : r.off+int64(n)]
	r.off += int64(n)
	return b, nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.next(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadBool reads a single byte, treating any non-zero value as true.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadUint8()
	return v != 0, err
}

// ReadBits reads a flag word stored in width bits (8, 16 or 32).
func (r *Reader) ReadBits(width int) (uint32, error) {
	switch width {
	case 8:
		v, err := r.ReadUint8()
		return uint32(v), err
	case 16:
		v, err := r.ReadUint16()
		return uint32(v), err
	case 32:
		return r.ReadUint32()
	default:
		panic(fmt.Sprintf("invariant broken: unsupported flag width %d", width))
	}
}

// ReadString reads a QString: a byte length followed by UTF-16BE code units.
// Null strings decode to "".
func (r *Reader) ReadString() (string, error) {
	start := r.Offset()
	n, err := r.ReadUint32()
	if err != nil {
		return "", err
	}
	if n == NullString {
		return "", nil
	}
	if n%2 != 0 {
		return "", &EncodingError{Offset: start, Reason: fmt.Sprintf("odd UTF-16 byte length %d", n)}
	}
	if uint64(n) > uint64(r.Len()) {
		return "", &TruncatedError{Offset: r.Offset(), Need: int(n), Have: r.Len()}
	}
	b, _ := r.next(int(n))
	if i := unpairedSurrogate(b); i >= 0 {
		return "", &EncodingError{Offset: start + 4 + int64(i), Reason: "unpaired UTF-16 surrogate"}
	}
	s, err := utf16BE.NewDecoder().Bytes(b)
	if err != nil {
		return "", &EncodingError{Offset: start, Reason: fmt.Sprintf("utf-16 decode: %s", err)}
	}
	return string(s), nil
}

// unpairedSurrogate returns the byte index of the first surrogate in b that
// is not part of a high-low pair, or -1.
func unpairedSurrogate(b []byte) int {
	for i := 0; i+1 < len(b); i += 2 {
		u := rune(binary.BigEndian.Uint16(b[i:]))
		if !utf16.IsSurrogate(u) {
			continue
		}
		if u < 0xdc00 && i+3 < len(b) {
			next := rune(binary.BigEndian.Uint16(b[i+2:]))
			if next >= 0xdc00 && next <= 0xdfff {
				i += 2
				continue
			}
		}
		return i
	}
	return -1
}

// ReadIDList reads uint32 values until the NullString terminator.
func (r *Reader) ReadIDList() ([]uint32, error) {
	var ids []uint32
	for {
		v, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		if v == NullString {
			return ids, nil
		}
		ids = append(ids, v)
	}
}
