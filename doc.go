// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mm2 reads and writes MMapper2 map databases: a graph of rooms
// joined by directional exits, plus free-floating info marks.
//
// A map file looks like:
//
//	┌──────────────────────┐
//	│ magic (u32)          │ 0xFFB2AF01
//	│ schema version (i32) │ 17 .. 36
//	├──────────────────────┤
//	│ [uncompressed len]   │ qCompress framing only (schema >= 34)
//	├──────────────────────┤
//	│ payload              │ raw (< 25) or a zlib stream (>= 25)
//	│   room count   (u32) │
//	│   mark count   (u32) │
//	│   selected x,y,z     │
//	│   room records       │
//	│   info mark records  │
//	└──────────────────────┘
//
// All integers are big-endian and strings are Qt QStrings: a u32 byte length
// followed by UTF-16BE code units, with 0xFFFFFFFF marking a null string.
//
// Each room record ends with seven exit slots (north, south, east, west, up,
// down, unknown).  A slot holds exit flags, door flags, a door name, and two
// lists of room ids (inbound, then outbound), each terminated by 0xFFFFFFFF.
// Which fields are present and how wide the flag words are depends on the
// schema version; see Version.
//
// Loading resolves every room id in the exit lists to a live *Room.  Ids
// that don't name a room in the same file are dropped and reported through
// Database.Warnings rather than failing the load.
package mm2
