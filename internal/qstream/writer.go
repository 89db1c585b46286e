// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package qstream

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
)

// Writer accumulates an encoded stream in memory.  The framing around a
// payload (compression, length prefixes) needs the finished bytes, so
// nothing is streamed until WriteTo.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer {
	return &Writer{}
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int64 {
	return int64(w.buf.Len())
}

// Bytes returns the encoded stream.  The slice aliases the Writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	return w.buf.WriteTo(dst)
}

func (w *Writer) WriteUint8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

// WriteBits writes a flag word in width bits (8, 16 or 32).  Set bits that
// don't fit are an error rather than being dropped.
func (w *Writer) WriteBits(width int, v uint32) error {
	if width < 32 && v>>uint(width) != 0 {
		return &EncodingError{
			Offset: w.Offset(),
			Reason: fmt.Sprintf("flags %#x don't fit in a %d-bit field", v, width),
		}
	}
	switch width {
	case 8:
		w.WriteUint8(uint8(v))
	case 16:
		w.WriteUint16(uint16(v))
	case 32:
		w.WriteUint32(v)
	default:
		panic(fmt.Sprintf("invariant broken: unsupported flag width %d", width))
	}
	return nil
}

// WriteString writes s as a QString.  The empty string is written as a null
// QString, matching what MMapper itself writes.
func (w *Writer) WriteString(s string) error {
	if s == "" {
		w.WriteUint32(NullString)
		return nil
	}
	if !utf8.ValidString(s) {
		return &EncodingError{Offset: w.Offset(), Reason: fmt.Sprintf("string %q is not valid UTF-8", s)}
	}
	b, err := utf16BE.NewEncoder().String(s)
	if err != nil {
		return &EncodingError{Offset: w.Offset(), Reason: fmt.Sprintf("utf-16 encode: %s", err)}
	}
	if uint64(len(b)) >= NullString {
		return &EncodingError{Offset: w.Offset(), Reason: fmt.Sprintf("string of %d bytes is too long", len(b))}
	}
	w.WriteUint32(uint32(len(b)))
	w.buf.WriteString(b)
	return nil
}

// WriteIDList writes ids followed by the NullString terminator.
func (w *Writer) WriteIDList(ids []uint32) error {
	for _, id := range ids {
		if id == NullString {
			return &EncodingError{Offset: w.Offset(), Reason: "id list contains the terminator value"}
		}
		w.WriteUint32(id)
	}
	w.WriteUint32(NullString)
	return nil
}
