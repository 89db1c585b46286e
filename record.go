// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mm2

import (
	"fmt"
	"math"

	"github.com/bpowers/mm2/internal/bitflags"
	"github.com/bpowers/mm2/internal/layout"
	"github.com/bpowers/mm2/internal/qstream"
)

const (
	roomKind = "room"
	markKind = "info mark"
)

// record is a decoded room whose exits still hold raw ids.
type record struct {
	room   *Room
	index  int
	offset int64
	links  [numDirections]struct{ in, out []uint32 }
}

// recordReader wraps a qstream.Reader and remembers the first error, so a
// record decodes as a flat list of fields.
type recordReader struct {
	r   *qstream.Reader
	l   *layout.Layout
	err error

	kind     string
	index    int
	warnings []Warning
}

func (d *recordReader) u8() uint8 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadUint8()
	d.err = err
	return v
}

func (d *recordReader) u32() uint32 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadUint32()
	d.err = err
	return v
}

func (d *recordReader) i32() int32 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadInt32()
	d.err = err
	return v
}

func (d *recordReader) boolean() bool {
	if d.err != nil {
		return false
	}
	v, err := d.r.ReadBool()
	d.err = err
	return v
}

func (d *recordReader) bits(width int) uint32 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadBits(width)
	d.err = err
	return v
}

func (d *recordReader) str() string {
	if d.err != nil {
		return ""
	}
	v, err := d.r.ReadString()
	d.err = err
	return v
}

func (d *recordReader) ids() []uint32 {
	if d.err != nil {
		return nil
	}
	v, err := d.r.ReadIDList()
	d.err = err
	return v
}

// coords reads x, y, z and puts y in map orientation.
func (d *recordReader) coords() Coordinates {
	c := Coordinates{X: d.i32(), Y: d.i32(), Z: d.i32()}
	if d.l.FlipY {
		c.Y = -c.Y
	}
	return c
}

// enum reads a code, substituting the fallback for codes without a name.
func (d *recordReader) enum(e *bitflags.Enum, field string) uint8 {
	code := d.u8()
	if d.err != nil || e.Valid(code) {
		return code
	}
	d.warnings = append(d.warnings, &UnknownValueWarning{
		Kind:  d.kind,
		Index: d.index,
		Field: field,
		Code:  code,
	})
	return 0
}

func (d *recordReader) begin(kind string, index int) int64 {
	d.kind, d.index = kind, index
	return d.r.Offset()
}

func (d *recordReader) fail(start int64) error {
	return &RecordError{Kind: d.kind, Index: d.index, Offset: start, Err: d.err}
}

// readRoom decodes the room record at index.
func (d *recordReader) readRoom(index int) (*record, error) {
	start := d.begin(roomKind, index)
	t := d.l.Tables

	room := &Room{}
	room.Name = d.str()
	room.Description = d.str()
	room.Contents = d.str()
	room.id = RoomID(d.u32())
	room.Note = d.str()
	room.Terrain = Terrain(d.enum(t.Terrain, "terrain"))
	room.Light = Light(d.enum(t.Light, "light"))
	room.Alignment = Alignment(d.enum(t.Alignment, "alignment"))
	room.Portable = Portable(d.enum(t.Portable, "portable"))
	if d.l.HasRidable {
		room.Ridable = Ridable(d.enum(t.Ridable, "ridable"))
	}
	if d.l.HasSunDeath {
		room.SunDeath = SunDeath(d.enum(t.SunDeath, "sundeath"))
	}
	room.MobFlags = MobFlags(d.bits(d.l.RoomFlagBits))
	room.LoadFlags = LoadFlags(d.bits(d.l.RoomFlagBits))
	room.Updated = d.boolean()
	room.Coordinates = d.coords()
	if d.err != nil {
		return nil, d.fail(start)
	}
	if room.id == UndefinedRoomID {
		d.err = &qstream.EncodingError{Offset: start, Reason: "room id is the undefined-room sentinel"}
		return nil, d.fail(start)
	}

	rec := &record{room: room, index: index, offset: start}
	for i := 0; i < d.l.Directions; i++ {
		flags := ExitFlags(d.bits(d.l.ExitFlagBits))
		doorFlags := DoorFlags(d.bits(d.l.DoorFlagBits))
		doorName := d.str()
		in := d.ids()
		out := d.ids()
		if d.err != nil {
			return nil, d.fail(start)
		}
		if d.l.DoorImpliesExit && flags.Has(ExitDoor) {
			flags |= ExitExit
		}
		if d.l.DiscardNoMatch {
			flags &^= ExitNoMatch
		}
		if flags == 0 && doorFlags == 0 && doorName == "" && len(in) == 0 && len(out) == 0 {
			continue
		}
		dir := Direction(i)
		room.exits[dir] = &Exit{
			owner:     room,
			dir:       dir,
			Flags:     flags,
			DoorFlags: doorFlags,
			DoorName:  doorName,
		}
		rec.links[dir].in = in
		rec.links[dir].out = out
	}
	return rec, nil
}

// readInfoMark decodes the info mark record at index.
func (d *recordReader) readInfoMark(index int) (InfoMark, error) {
	start := d.begin(markKind, index)
	t := d.l.Tables

	var m InfoMark
	if d.l.LegacyInfoMarks {
		m.Legacy.Name = d.str()
	}
	m.Text = d.str()
	if d.l.LegacyInfoMarks {
		m.Legacy.JulianDay = d.u32()
		m.Legacy.Millis = d.u32()
		m.Legacy.TimeSpec = d.u8()
	}
	m.Type = MarkType(d.enum(t.MarkType, "type"))
	if d.l.HasMarkClass {
		m.Class = MarkClass(d.enum(t.MarkClass, "class"))
		m.Rotation = floorDiv(d.i32(), d.l.RotationScale)
	}
	// positions are offset in disk orientation, so read them unflipped
	m.Pos1 = Coordinates{X: d.i32(), Y: d.i32(), Z: d.i32()}
	m.Pos2 = Coordinates{X: d.i32(), Y: d.i32(), Z: d.i32()}
	if d.err != nil {
		return InfoMark{}, d.fail(start)
	}

	if d.l.LegacyInfoMarks {
		m.Pos1 = m.Pos1.Add(legacyHalfRoom)
		m.Pos2 = m.Pos2.Add(legacyHalfRoom)
		switch m.Type {
		case MarkText:
			m.Pos1 = m.Pos1.Add(legacyTextOffset)
			m.Pos2 = m.Pos2.Add(legacyTextOffset)
		case MarkArrow:
			m.Pos1 = m.Pos1.Add(legacyArrowStart)
			m.Pos2 = m.Pos2.Add(legacyArrowFinish)
		}
	}
	if d.l.FlipY {
		m.Rotation = -m.Rotation
		m.Pos1.Y = -m.Pos1.Y
		m.Pos2.Y = -m.Pos2.Y
	}
	m.normalize()
	return m, nil
}

// recordWriter is the encoding counterpart of recordReader.
type recordWriter struct {
	w   *qstream.Writer
	l   *layout.Layout
	err error
}

func (e *recordWriter) str(s string) {
	if e.err == nil {
		e.err = e.w.WriteString(s)
	}
}

func (e *recordWriter) bits(width int, v uint32) {
	if e.err == nil {
		e.err = e.w.WriteBits(width, v)
	}
}

func (e *recordWriter) ids(rooms []*Room) {
	if e.err != nil {
		return
	}
	ids := make([]uint32, len(rooms))
	for i, r := range rooms {
		ids[i] = uint32(r.id)
	}
	e.err = e.w.WriteIDList(ids)
}

func (e *recordWriter) enum(t *bitflags.Enum, field string, code uint8) {
	if e.err != nil {
		return
	}
	if !t.Valid(code) {
		e.err = &qstream.EncodingError{
			Offset: e.w.Offset(),
			Reason: fmt.Sprintf("%s code %d has no name", field, code),
		}
		return
	}
	e.w.WriteUint8(code)
}

func (e *recordWriter) coords(c Coordinates) {
	if e.l.FlipY {
		c.Y = -c.Y
	}
	e.w.WriteInt32(c.X)
	e.w.WriteInt32(c.Y)
	e.w.WriteInt32(c.Z)
}

func (e *recordWriter) fail(kind string, index int, start int64) error {
	return &RecordError{Kind: kind, Index: index, Offset: start, Err: e.err}
}

// writeRoom encodes r.  Fields the layout has no room for are dropped.
func (e *recordWriter) writeRoom(index int, r *Room) error {
	start := e.w.Offset()
	t := e.l.Tables

	e.str(r.Name)
	e.str(r.Description)
	e.str(r.Contents)
	e.w.WriteUint32(uint32(r.id))
	e.str(r.Note)
	e.enum(t.Terrain, "terrain", uint8(r.Terrain))
	e.enum(t.Light, "light", uint8(r.Light))
	e.enum(t.Alignment, "alignment", uint8(r.Alignment))
	e.enum(t.Portable, "portable", uint8(r.Portable))
	if e.l.HasRidable {
		e.enum(t.Ridable, "ridable", uint8(r.Ridable))
	}
	if e.l.HasSunDeath {
		e.enum(t.SunDeath, "sundeath", uint8(r.SunDeath))
	}
	e.bits(e.l.RoomFlagBits, uint32(r.MobFlags))
	e.bits(e.l.RoomFlagBits, uint32(r.LoadFlags))
	e.w.WriteBool(r.Updated)
	e.coords(r.Coordinates)

	for i := 0; i < e.l.Directions; i++ {
		x := r.exits[i]
		if x == nil {
			x = &Exit{}
		}
		e.bits(e.l.ExitFlagBits, uint32(x.Flags))
		e.bits(e.l.DoorFlagBits, uint32(x.DoorFlags))
		e.str(x.DoorName)
		e.ids(x.from)
		e.ids(x.to)
	}
	if e.err != nil {
		return e.fail(roomKind, index, start)
	}
	return nil
}

// writeInfoMark encodes m, undoing the adjustments readInfoMark applies.
func (e *recordWriter) writeInfoMark(index int, m *InfoMark) error {
	start := e.w.Offset()
	t := e.l.Tables

	pos1, pos2, rotation := m.Pos1, m.Pos2, int64(m.Rotation)
	if e.l.FlipY {
		rotation = -rotation
		pos1.Y = -pos1.Y
		pos2.Y = -pos2.Y
	}
	if e.l.LegacyInfoMarks {
		switch m.Type {
		case MarkText:
			pos1 = pos1.Sub(legacyTextOffset)
			pos2 = pos2.Sub(legacyTextOffset)
		case MarkArrow:
			pos1 = pos1.Sub(legacyArrowStart)
			pos2 = pos2.Sub(legacyArrowFinish)
		}
		pos1 = pos1.Sub(legacyHalfRoom)
		pos2 = pos2.Sub(legacyHalfRoom)
	}

	if e.l.LegacyInfoMarks {
		e.str(m.Legacy.Name)
	}
	e.str(m.Text)
	if e.l.LegacyInfoMarks {
		e.w.WriteUint32(m.Legacy.JulianDay)
		e.w.WriteUint32(m.Legacy.Millis)
		e.w.WriteUint8(m.Legacy.TimeSpec)
	}
	e.enum(t.MarkType, "type", uint8(m.Type))
	if e.l.HasMarkClass {
		e.enum(t.MarkClass, "class", uint8(m.Class))
		stored := rotation * int64(e.l.RotationScale)
		if e.err == nil && (stored < math.MinInt32 || stored > math.MaxInt32) {
			e.err = &qstream.EncodingError{
				Offset: e.w.Offset(),
				Reason: fmt.Sprintf("rotation %d out of range", m.Rotation),
			}
		}
		e.w.WriteInt32(int32(stored))
	}
	e.w.WriteInt32(pos1.X)
	e.w.WriteInt32(pos1.Y)
	e.w.WriteInt32(pos1.Z)
	e.w.WriteInt32(pos2.X)
	e.w.WriteInt32(pos2.Y)
	e.w.WriteInt32(pos2.Z)
	if e.err != nil {
		return e.fail(markKind, index, start)
	}
	return nil
}
