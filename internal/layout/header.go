// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package layout

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bpowers/mm2/internal/qstream"
)

// HeaderSize is the size of the uncompressed file header.
const HeaderSize = 4 + 4 // magic + schema version

// Header is the fixed prefix of every map file.
type Header struct {
	Magic   uint32
	Version Version
}

func NewHeader(v Version) Header {
	return Header{Magic: Magic, Version: v}
}

// UnmarshalBytes decodes a header from the start of b and resolves its
// layout.
func (h *Header) UnmarshalBytes(b []byte) (*Layout, error) {
	if len(b) < HeaderSize {
		return nil, &qstream.TruncatedError{Offset: 0, Need: HeaderSize, Have: len(b)}
	}
	h.Magic = binary.BigEndian.Uint32(b[:4])
	h.Version = Version(int32(binary.BigEndian.Uint32(b[4:8])))
	return Resolve(h.Magic, h.Version)
}

func (h Header) WriteTo(w io.Writer) (n int64, err error) {
	var buf [HeaderSize]byte
	binary.BigEndian.PutUint32(buf[:4], h.Magic)
	binary.BigEndian.PutUint32(buf[4:8], uint32(h.Version))

	if _, err = w.Write(buf[:]); err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	return HeaderSize, nil
}
