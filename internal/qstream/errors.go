// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package qstream

import (
	"fmt"
)

// TruncatedError is returned when a read would run past the end of the buffer.
type TruncatedError struct {
	Offset int64 // where the short read started
	Need   int   // bytes the read wanted
	Have   int   // bytes that were left
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated input at offset %d: need %d bytes, have %d", e.Offset, e.Need, e.Have)
}

// EncodingError is returned when a value can't be represented in the
// stream's fixed encoding, in either direction.
type EncodingError struct {
	Offset int64
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding error at offset %d: %s", e.Offset, e.Reason)
}
