// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mm2

// InfoMark is an annotation drawn on the map: a text label, a line or an
// arrow.  Positions are in map units, 100 per room.
type InfoMark struct {
	Text     string // only text marks carry text
	Type     MarkType
	Class    MarkClass
	Rotation int32 // degrees, counter-clockwise
	Pos1     Coordinates
	Pos2     Coordinates

	// Legacy holds fields only stored by schema 35 and older.
	Legacy InfoMarkLegacy
}

// InfoMarkLegacy is the per-mark metadata older releases stored.  It is
// read and written back unchanged when saving to those versions.
type InfoMarkLegacy struct {
	Name      string
	JulianDay uint32
	Millis    uint32 // milliseconds since midnight
	TimeSpec  uint8
}

// defaultMarkText is what MMapper shows for a text mark without text.
const defaultMarkText = "New Marker"

const roomScale = 100

var (
	// Older releases anchored positions at a room corner instead of its
	// center.  Y is in disk orientation.
	legacyHalfRoom    = Coordinates{X: roomScale / 2, Y: -roomScale / 2}
	legacyTextOffset  = Coordinates{X: 10, Y: 30}
	legacyArrowStart  = Coordinates{Y: 5}
	legacyArrowFinish = Coordinates{X: 10, Y: 10}
)

// normalize drops text from non-text marks and gives text marks without
// text the default label.
func (m *InfoMark) normalize() {
	if m.Type != MarkText {
		m.Text = ""
	} else if m.Text == "" {
		m.Text = defaultMarkText
	}
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
