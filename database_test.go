// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mm2_test

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/bpowers/mm2"
	"github.com/bpowers/mm2/internal/fixture"
)

func loadFixture(t testing.TB) *mm2.Database {
	m, err := fixture.ReadFile("testdata/vigs_shop.yaml")
	require.NoError(t, err)
	db, err := m.Database()
	require.NoError(t, err)
	return db
}

func describe(db *mm2.Database) *fixture.Map {
	m := fixture.FromDatabase(db)
	m.Version = 0
	return m
}

func TestVigsShop(t *testing.T) {
	db := mm2.New()
	shop := mm2.NewRoom(0)
	shop.Name = "Vig's Shop"
	shop.Terrain = mm2.TerrainCity
	shop.MobFlags = mm2.MobShop
	chamber := mm2.NewRoom(1)
	chamber.Name = "The Chamber"
	require.NoError(t, db.Add(shop))
	require.NoError(t, db.Add(chamber))
	require.NoError(t, db.Link(0, mm2.East, 1))
	east, ok := shop.Exit(mm2.East)
	require.True(t, ok)
	east.DoorFlags = mm2.DoorNoBlock

	data, err := db.Encode(mm2.Latest)
	require.NoError(t, err)
	loaded, err := mm2.Decode(data)
	require.NoError(t, err)
	assert.Empty(t, loaded.Warnings())

	room, ok := loaded.Get(0)
	require.True(t, ok)
	assert.Equal(t, "Vig's Shop", room.Name)
	assert.Equal(t, mm2.TerrainCity, room.Terrain)
	assert.Equal(t, []string{"shop"}, room.MobFlags.Names())

	exits := room.Exits()
	require.Len(t, exits, 1)
	e := exits[mm2.East]
	require.NotNil(t, e)
	assert.Equal(t, []string{"exit"}, e.Flags.Names())
	assert.Equal(t, []string{"no_block"}, e.DoorFlags.Names())
	require.NotNil(t, e.Target())
	assert.Equal(t, "The Chamber", e.Target().Name)
	assert.Same(t, room, e.Owner())
	assert.Equal(t, mm2.East, e.Direction())

	// the chamber has no exits of its own, only the shop leading in
	loadedChamber := e.Target()
	assert.Empty(t, loadedChamber.Exits())
	_, ok = loadedChamber.Exit(mm2.West)
	assert.False(t, ok)
	require.Len(t, loadedChamber.Sources(mm2.West), 1)
	assert.Same(t, room, loadedChamber.Sources(mm2.West)[0])
	assert.Empty(t, loadedChamber.Sources(mm2.East))

	again, err := loaded.Encode(mm2.Latest)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestRoundTrip_AllVersions(t *testing.T) {
	orig := loadFixture(t)

	for _, v := range mm2.Versions() {
		t.Run(fmt.Sprintf("schema%d", v), func(t *testing.T) {
			want := describe(orig)
			if v < mm2.Version237 {
				// no mark class or rotation before 2.37
				for i := range want.Marks {
					want.Marks[i].Class = mm2.MarkGeneric.String()
					want.Marks[i].Rotation = 0
				}
			}

			data, err := orig.Encode(v)
			require.NoError(t, err)

			db, err := mm2.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, v, db.Version())
			assert.Empty(t, db.Warnings())
			assert.Equal(t, want, describe(db))

			again, err := db.Encode(v)
			require.NoError(t, err)
			assert.Equal(t, data, again, "repeated saves must be byte identical")

			modified, err := db.Modified()
			require.NoError(t, err)
			assert.False(t, modified)
		})
	}
}

func TestLoad_Reader(t *testing.T) {
	data, err := loadFixture(t).Encode(mm2.Version243)
	require.NoError(t, err)

	db, err := mm2.Load(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, db.Len())
	assert.Equal(t, mm2.Version243, db.Version())
}

func TestAbsentDirection(t *testing.T) {
	db := loadFixture(t)
	shop, ok := db.Get(0)
	require.True(t, ok)

	for _, d := range []mm2.Direction{mm2.North, mm2.South, mm2.Up, mm2.Down, mm2.Unknown} {
		_, ok := shop.Exit(d)
		assert.False(t, ok, "%s", d)
		_, ok = shop.Exits()[d]
		assert.False(t, ok, "%s", d)
	}
	_, ok = shop.Exit(mm2.Direction(42))
	assert.False(t, ok)
}

func TestDecode_Truncated(t *testing.T) {
	db := loadFixture(t)
	for _, v := range mm2.Versions() {
		data, err := db.Encode(v)
		require.NoError(t, err)

		for n := 0; n < len(data); n++ {
			_, err := mm2.Decode(data[:n])
			var truncated *mm2.TruncatedInputError
			require.True(t, errors.As(err, &truncated), "schema %d cut at %d: %v", v, n, err)
		}
	}
}

func TestDecode_TruncatedRecord(t *testing.T) {
	data, err := loadFixture(t).Encode(mm2.Version202)
	require.NoError(t, err)

	// cut inside the second room record
	_, err = mm2.Decode(data[:len(data)-200])
	var rec *mm2.RecordError
	require.True(t, errors.As(err, &rec), "%v", err)
	assert.Equal(t, "room", rec.Kind)
	assert.Equal(t, 1, rec.Index)
	var truncated *mm2.TruncatedInputError
	assert.True(t, errors.As(err, &truncated))
}

func TestDecode_Empty(t *testing.T) {
	db, err := mm2.Decode(mustEncode(t, mm2.New(), mm2.Latest))
	require.NoError(t, err)
	assert.Equal(t, 0, db.Len())
	assert.Empty(t, db.Rooms())
	assert.Empty(t, db.InfoMarks)
}

func TestUnsupportedVersion(t *testing.T) {
	db := loadFixture(t)
	_, err := db.Encode(mm2.Version(99))
	var unsupported *mm2.UnsupportedVersionError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, mm2.Version(99), unsupported.Version)

	data := mustEncode(t, db, mm2.Latest)
	data[0] ^= 0xff
	_, err = mm2.Decode(data)
	require.True(t, errors.As(err, &unsupported))
	assert.True(t, unsupported.BadMagic)
}

func TestFlagFidelity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		db := mm2.New()
		r := mm2.NewRoom(mm2.RoomID(rapid.Uint32Range(0, 1<<31).Draw(t, "id")))
		r.MobFlags = mm2.MobFlags(rapid.Uint32().Draw(t, "mob"))
		r.LoadFlags = mm2.LoadFlags(rapid.Uint32().Draw(t, "load"))
		e := r.AddExit(mm2.Directions[rapid.IntRange(0, len(mm2.Directions)-1).Draw(t, "dir")])
		e.Flags = mm2.ExitFlags(rapid.Uint16Range(1, 0xffff).Draw(t, "exit"))
		e.DoorFlags = mm2.DoorFlags(rapid.Uint16().Draw(t, "door"))
		require.NoError(t, db.Add(r))

		loaded, err := mm2.Decode(mustEncode(t, db, mm2.Latest))
		require.NoError(t, err)
		got, ok := loaded.Get(r.ID())
		require.True(t, ok)
		assert.Equal(t, r.MobFlags, got.MobFlags)
		assert.Equal(t, r.LoadFlags, got.LoadFlags)
		ge, ok := got.Exit(e.Direction())
		require.True(t, ok)
		assert.Equal(t, e.Flags, ge.Flags)
		assert.Equal(t, e.DoorFlags, ge.DoorFlags)
	})
}

func TestFlagsTooWide(t *testing.T) {
	db := mm2.New()
	r := mm2.NewRoom(7)
	r.LoadFlags = mm2.LoadClock
	require.NoError(t, db.Add(r))

	_, err := db.Encode(mm2.Version237)
	var enc *mm2.EncodingError
	require.True(t, errors.As(err, &enc), "%v", err)
	var rec *mm2.RecordError
	require.True(t, errors.As(err, &rec))
	assert.Equal(t, 0, rec.Index)

	_, err = db.Encode(mm2.Version240)
	require.NoError(t, err)
}

func TestPerVersionExitFlags(t *testing.T) {
	db := mm2.New()
	r := mm2.NewRoom(1)
	r.AddExit(mm2.North).Flags = mm2.ExitDoor
	r.AddExit(mm2.South).Flags = mm2.ExitExit | mm2.ExitNoMatch
	require.NoError(t, db.Add(r))

	for _, tc := range []struct {
		v     mm2.Version
		north mm2.ExitFlags
		south mm2.ExitFlags
	}{
		{mm2.Version200, mm2.ExitDoor | mm2.ExitExit, mm2.ExitExit | mm2.ExitNoMatch},
		{mm2.Version204, mm2.ExitDoor | mm2.ExitExit, mm2.ExitExit},
		{mm2.Version240, mm2.ExitDoor, mm2.ExitExit},
		{mm2.Version251, mm2.ExitDoor, mm2.ExitExit | mm2.ExitNoMatch},
		{mm2.Version260, mm2.ExitDoor, mm2.ExitExit | mm2.ExitNoMatch},
	} {
		loaded, err := mm2.Decode(mustEncode(t, db, tc.v))
		require.NoError(t, err)
		got, _ := loaded.Get(1)
		north, ok := got.Exit(mm2.North)
		require.True(t, ok)
		assert.Equal(t, tc.north, north.Flags, "schema %d north", tc.v)
		south, ok := got.Exit(mm2.South)
		require.True(t, ok)
		assert.Equal(t, tc.south, south.Flags, "schema %d south", tc.v)
	}
}

func TestVersionOnlyFields(t *testing.T) {
	db := mm2.New()
	r := mm2.NewRoom(3)
	r.Ridable = mm2.RidableNotRidable
	r.SunDeath = mm2.SunDeathSunDeath
	require.NoError(t, db.Add(r))

	for _, tc := range []struct {
		v        mm2.Version
		ridable  mm2.Ridable
		sunDeath mm2.SunDeath
	}{
		{mm2.Version200, mm2.RidableUndefined, mm2.SunDeathUndefined},
		{mm2.Version202, mm2.RidableNotRidable, mm2.SunDeathUndefined},
		{mm2.Version240, mm2.RidableNotRidable, mm2.SunDeathSunDeath},
	} {
		loaded, err := mm2.Decode(mustEncode(t, db, tc.v))
		require.NoError(t, err)
		got, _ := loaded.Get(3)
		assert.Equal(t, tc.ridable, got.Ridable, "schema %d", tc.v)
		assert.Equal(t, tc.sunDeath, got.SunDeath, "schema %d", tc.v)
	}
}

func TestInfoMarks(t *testing.T) {
	db := mm2.New()
	db.InfoMarks = []mm2.InfoMark{
		{Type: mm2.MarkText, Pos1: mm2.Coordinates{X: 150, Y: -250, Z: 1}},
		{Type: mm2.MarkLine, Text: "ignored", Class: mm2.MarkRiver, Rotation: -90, Pos2: mm2.Coordinates{X: 300, Y: 5}},
		{Type: mm2.MarkArrow, Rotation: 30, Pos1: mm2.Coordinates{X: -1}, Pos2: mm2.Coordinates{Y: 7}},
	}

	for _, v := range mm2.Versions() {
		loaded, err := mm2.Decode(mustEncode(t, db, v))
		require.NoError(t, err)
		marks := loaded.InfoMarks
		require.Len(t, marks, 3)

		assert.Equal(t, "New Marker", marks[0].Text, "schema %d", v)
		assert.Equal(t, db.InfoMarks[0].Pos1, marks[0].Pos1, "schema %d", v)
		assert.Equal(t, "", marks[1].Text, "schema %d", v)
		assert.Equal(t, db.InfoMarks[1].Pos2, marks[1].Pos2, "schema %d", v)
		assert.Equal(t, db.InfoMarks[2].Pos1, marks[2].Pos1, "schema %d", v)
		assert.Equal(t, db.InfoMarks[2].Pos2, marks[2].Pos2, "schema %d", v)

		if v >= mm2.Version237 {
			assert.Equal(t, mm2.MarkRiver, marks[1].Class, "schema %d", v)
			assert.Equal(t, int32(-90), marks[1].Rotation, "schema %d", v)
			assert.Equal(t, int32(30), marks[2].Rotation, "schema %d", v)
		} else {
			assert.Equal(t, mm2.MarkGeneric, marks[1].Class, "schema %d", v)
			assert.Zero(t, marks[1].Rotation, "schema %d", v)
		}
	}
}

func TestInfoMarkLegacyFields(t *testing.T) {
	db := mm2.New()
	db.InfoMarks = []mm2.InfoMark{{
		Text: "Bree",
		Legacy: mm2.InfoMarkLegacy{
			Name:      "mark-1",
			JulianDay: 2459000,
			Millis:    1234,
			TimeSpec:  1,
		},
	}}

	loaded, err := mm2.Decode(mustEncode(t, db, mm2.Version251))
	require.NoError(t, err)
	assert.Equal(t, db.InfoMarks, loaded.InfoMarks)

	loaded, err = mm2.Decode(mustEncode(t, db, mm2.Version260))
	require.NoError(t, err)
	assert.Equal(t, mm2.InfoMarkLegacy{}, loaded.InfoMarks[0].Legacy)
}

func TestMutators(t *testing.T) {
	db := mm2.New()
	for id := mm2.RoomID(1); id <= 3; id++ {
		require.NoError(t, db.Add(mm2.NewRoom(id)))
	}

	var dup *mm2.DuplicateIdentifierError
	require.True(t, errors.As(db.Add(mm2.NewRoom(2)), &dup))
	assert.Equal(t, mm2.RoomID(2), dup.ID)
	require.Error(t, db.Add(mm2.NewRoom(mm2.UndefinedRoomID)))
	r1, _ := db.Get(1)
	require.Error(t, mm2.New().Add(r1), "a room can't be in two databases")

	require.NoError(t, db.Link(1, mm2.North, 2))
	require.NoError(t, db.Link(1, mm2.North, 2), "linking twice is a no-op")
	require.NoError(t, db.Link(3, mm2.South, 2))
	require.NoError(t, db.Link(2, mm2.Up, 2), "self links are fine")
	assert.True(t, errors.Is(db.Link(1, mm2.East, 9), mm2.ErrNotFound))
	assert.True(t, errors.Is(db.Link(9, mm2.East, 1), mm2.ErrNotFound))

	north, ok := r1.Exit(mm2.North)
	require.True(t, ok)
	require.Len(t, north.Targets(), 1)
	r2 := north.Target()
	assert.Equal(t, mm2.RoomID(2), r2.ID())
	// being led into is not an exit
	_, ok = r2.Exit(mm2.South)
	assert.False(t, ok)
	assert.Equal(t, []*mm2.Room{r1}, r2.Sources(mm2.South))
	_, ok = r2.Exit(mm2.North)
	assert.False(t, ok)
	assert.Len(t, r2.Sources(mm2.North), 1)
	assert.Len(t, r2.Exits(), 1, "only the self link up")

	require.NoError(t, db.Unlink(1, mm2.North, 2))
	assert.Nil(t, north.Target())
	assert.Empty(t, r2.Sources(mm2.South))
	// the exit flag keeps the exit alive
	_, ok = r1.Exit(mm2.North)
	assert.True(t, ok)

	require.NoError(t, db.Link(1, mm2.North, 2))
	assert.True(t, db.Remove(2))
	assert.False(t, db.Remove(2))
	assert.Equal(t, 2, db.Len())
	assert.Nil(t, north.Target())
	r3, _ := db.Get(3)
	s3, _ := r3.Exit(mm2.South)
	assert.Nil(t, s3.Target())
	require.NoError(t, db.Add(r2), "removed rooms can be added again")

	require.NoError(t, db.Link(3, mm2.South, 2))
	require.NoError(t, db.Link(2, mm2.North, 3))
	require.NoError(t, db.RemoveExit(3, mm2.South))
	_, ok = r3.Exit(mm2.South)
	assert.False(t, ok)
	assert.Empty(t, r2.Sources(mm2.North))
	// 2 still leads north into 3
	assert.Equal(t, []*mm2.Room{r2}, r3.Sources(mm2.South))
	n2, ok := r2.Exit(mm2.North)
	require.True(t, ok)
	assert.Same(t, r3, n2.Target())
	assert.True(t, errors.Is(db.RemoveExit(9, mm2.South), mm2.ErrNotFound))

	ids := make([]mm2.RoomID, 0, db.Len())
	for _, r := range db.Rooms() {
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []mm2.RoomID{1, 2, 3}, ids)
}

func TestModified(t *testing.T) {
	orig := loadFixture(t)
	modified, err := orig.Modified()
	require.NoError(t, err)
	assert.True(t, modified, "databases built in memory have no baseline")

	db, err := mm2.Decode(mustEncode(t, orig, mm2.Latest))
	require.NoError(t, err)
	fp1, err := db.Fingerprint()
	require.NoError(t, err)
	modified, err = db.Modified()
	require.NoError(t, err)
	assert.False(t, modified)

	room, _ := db.Get(1)
	room.Note = "changed"
	fp2, err := db.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp2)
	modified, err = db.Modified()
	require.NoError(t, err)
	assert.True(t, modified)

	room.Note = "back room"
	modified, err = db.Modified()
	require.NoError(t, err)
	assert.False(t, modified)
}

func TestSaveFileLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bree.mm2")
	orig := loadFixture(t)

	require.NoError(t, orig.SaveFile(path, mm2.Version243))
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), fi.Mode().Perm())

	db, err := mm2.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, describe(orig), describe(db))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	// a failed save leaves the old file in place
	bad := mm2.New()
	r := mm2.NewRoom(1)
	r.LoadFlags = mm2.LoadFerry
	require.NoError(t, bad.Add(r))
	require.Error(t, bad.SaveFile(path, mm2.Version200))
	db, err = mm2.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, db.Len())
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := mm2.LoadFile(filepath.Join(dir, "missing.mm2"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	empty := filepath.Join(dir, "empty.mm2")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = mm2.LoadFile(empty)
	var truncated *mm2.TruncatedInputError
	assert.True(t, errors.As(err, &truncated))
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	data := mustEncode(t, loadFixture(t), mm2.Latest)

	_, err := mm2.Decode(data, mm2.WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.Equal(t, 1, logs.FilterMessage("loaded map").Len())
	entry := logs.FilterMessage("loaded map").All()[0]
	assert.Equal(t, int64(2), entry.ContextMap()["rooms"])
}

func TestMaxPayload(t *testing.T) {
	data := mustEncode(t, loadFixture(t), mm2.Latest)
	_, err := mm2.Decode(data, mm2.WithMaxPayload(16))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")

	data = mustEncode(t, loadFixture(t), mm2.Version200)
	_, err = mm2.Decode(data, mm2.WithMaxPayload(16))
	require.Error(t, err)
}

func mustEncode(t require.TestingT, db *mm2.Database, v mm2.Version) []byte {
	data, err := db.Encode(v)
	require.NoError(t, err)
	return data
}
