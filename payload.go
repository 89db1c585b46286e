// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mm2

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/bpowers/mm2/internal/layout"
)

// qCompressPrefix is the big-endian uncompressed length qCompress puts in
// front of its zlib stream.
const qCompressPrefix = 4

// readPayload returns the record payload of a map file along with the
// offset its first byte has in the stream readers should report.  For
// uncompressed files that is the file offset; compressed payloads count
// from 0.
func readPayload(data []byte, l *layout.Layout, limit int64) ([]byte, int64, error) {
	body := data[layout.HeaderSize:]
	switch l.Compression {
	case layout.None:
		if int64(len(body)) > limit {
			return nil, 0, fmt.Errorf("payload of %d bytes exceeds limit of %d", len(body), limit)
		}
		return body, layout.HeaderSize, nil
	case layout.Zlib:
		payload, err := inflate(body, layout.HeaderSize, 0, limit)
		return payload, 0, err
	case layout.QCompress:
		if len(body) < qCompressPrefix {
			return nil, 0, &TruncatedInputError{Offset: layout.HeaderSize, Need: qCompressPrefix, Have: len(body)}
		}
		size := binary.BigEndian.Uint32(body)
		payload, err := inflate(body[qCompressPrefix:], layout.HeaderSize+qCompressPrefix, int64(size), limit)
		return payload, 0, err
	default:
		return nil, 0, fmt.Errorf("unknown compression %s", l.Compression)
	}
}

// maxPresizeRatio bounds how far a file-supplied size hint may exceed the
// compressed stream when presizing the output.
const maxPresizeRatio = 32

// inflate decompresses a zlib stream that starts at file offset off.
// sizeHint comes from the file and only presizes the output.
func inflate(stream []byte, off int64, sizeHint, limit int64) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(stream))
	if err != nil {
		return nil, zlibError(err, off, len(stream))
	}
	defer func() { _ = zr.Close() }()

	var buf bytes.Buffer
	if n := min(sizeHint, int64(len(stream))*maxPresizeRatio, limit); n > 0 {
		buf.Grow(int(n))
	}
	n, err := buf.ReadFrom(io.LimitReader(zr, limit+1))
	if err != nil {
		return nil, zlibError(err, off, len(stream))
	}
	if n > limit {
		return nil, fmt.Errorf("decompressed payload exceeds limit of %d bytes", limit)
	}
	return buf.Bytes(), nil
}

func zlibError(err error, off int64, have int) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return &TruncatedInputError{Offset: off, Need: have + 1, Have: have}
	}
	return fmt.Errorf("zlib at offset %d: %w", off, err)
}

// writePayload frames payload for l and writes header and body to w.
func writePayload(w io.Writer, l *layout.Layout, payload []byte) error {
	if _, err := layout.NewHeader(l.Version).WriteTo(w); err != nil {
		return err
	}
	switch l.Compression {
	case layout.None:
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("write: %w", err)
		}
		return nil
	case layout.QCompress:
		var size [qCompressPrefix]byte
		binary.BigEndian.PutUint32(size[:], uint32(len(payload)))
		if _, err := w.Write(size[:]); err != nil {
			return fmt.Errorf("write: %w", err)
		}
		fallthrough
	case layout.Zlib:
		zw, err := zlib.NewWriterLevel(w, zlib.DefaultCompression)
		if err != nil {
			return fmt.Errorf("zlib.NewWriterLevel: %w", err)
		}
		if _, err := zw.Write(payload); err != nil {
			return fmt.Errorf("zlib write: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("zlib close: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown compression %s", l.Compression)
	}
}

// readPreamble decodes the counts and selected position ahead of the
// records.
func (d *recordReader) readPreamble() (rooms, marks uint32, selected Coordinates, err error) {
	rooms = d.u32()
	marks = d.u32()
	selected = d.coords()
	return rooms, marks, selected, d.err
}
