// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mm2

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"time"

	farm "github.com/dgryski/go-farm"
	"go.uber.org/zap"

	"github.com/bpowers/mm2/internal/layout"
	"github.com/bpowers/mm2/internal/qstream"
)

// Version is a map file schema version.  Each one corresponds to the
// MMapper release that introduced it.
type Version = layout.Version

const (
	Version200 = layout.Version200
	Version202 = layout.Version202
	Version204 = layout.Version204
	Version237 = layout.Version237
	Version240 = layout.Version240
	Version243 = layout.Version243
	Version251 = layout.Version251
	Version260 = layout.Version260

	// Latest is the version New databases are saved as by default.
	Latest = layout.Latest
)

// Versions returns every version Load accepts and Save can write.
func Versions() []Version {
	return layout.Versions()
}

// DefaultMaxPayload caps the decompressed payload size.
const DefaultMaxPayload = 1 << 30

// Option configures loading and saving.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	strict     bool
	maxPayload int64
}

// WithLogger sets a logger for load and save progress.  If not provided,
// no logging output will be produced.
func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithStrict makes Load fail with the first warning instead of collecting
// warnings.
func WithStrict(strict bool) Option {
	return func(opts *options) {
		opts.strict = strict
	}
}

// WithMaxPayload limits how large a decompressed payload may get.
func WithMaxPayload(n int64) Option {
	return func(opts *options) {
		opts.maxPayload = n
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:     zap.NewNop(),
		maxPayload: DefaultMaxPayload,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// Database is an MMapper map: rooms keyed by id, info marks and the
// selected position.  A Database is not safe for concurrent mutation.
type Database struct {
	version  Version
	rooms    map[RoomID]*Room
	selected Coordinates
	warnings []Warning
	logger   *zap.Logger

	// baseline is the fingerprint at load time, if there was one.
	baseline    uint64
	hasBaseline bool

	// InfoMarks are saved in slice order.
	InfoMarks []InfoMark
}

// New returns an empty database at the latest version.
func New(opts ...Option) *Database {
	o := newOptions(opts)
	return &Database{
		version: Latest,
		rooms:   make(map[RoomID]*Room),
		logger:  o.logger,
	}
}

// Load reads a whole map file from r.
func Load(r io.Reader, opts ...Option) (*Database, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}
	return Decode(data, opts...)
}

// Decode parses a map file held in memory.  The database does not retain
// data.
func Decode(data []byte, opts ...Option) (*Database, error) {
	o := newOptions(opts)
	start := time.Now()

	var h layout.Header
	l, err := h.UnmarshalBytes(data)
	if err != nil {
		return nil, err
	}
	payload, base, err := readPayload(data, l, o.maxPayload)
	if err != nil {
		return nil, err
	}

	d := &recordReader{r: qstream.NewReaderAt(payload, base), l: l}
	roomCount, markCount, selected, err := d.readPreamble()
	if err != nil {
		return nil, fmt.Errorf("preamble: %w", err)
	}

	// the counts come from the file, so don't trust them for allocation
	records := make([]*record, 0, min(int(roomCount), d.r.Len()/minRoomSize))
	for i := 0; i < int(roomCount); i++ {
		rec, err := d.readRoom(i)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	rooms, warnings, err := assemble(records)
	if err != nil {
		return nil, err
	}

	marks := make([]InfoMark, 0, min(int(markCount), d.r.Len()/minMarkSize))
	for i := 0; i < int(markCount); i++ {
		m, err := d.readInfoMark(i)
		if err != nil {
			return nil, err
		}
		marks = append(marks, m)
	}
	warnings = append(d.warnings, warnings...)

	if o.strict && len(warnings) > 0 {
		return nil, warnings[0]
	}
	for _, w := range warnings {
		o.logger.Warn("map warning", zap.Stringer("layout", l), zap.Error(w))
	}
	if rest := d.r.Len(); rest > 0 {
		o.logger.Debug("ignoring trailing payload bytes", zap.Int("bytes", rest))
	}

	db := &Database{
		version:   l.Version,
		rooms:     rooms,
		selected:  selected,
		warnings:  warnings,
		logger:    o.logger,
		InfoMarks: marks,
	}
	for _, room := range rooms {
		room.db = db
	}
	if fp, err := db.Fingerprint(); err == nil {
		db.baseline, db.hasBaseline = fp, true
	} else {
		o.logger.Debug("no baseline fingerprint", zap.Error(err))
	}

	o.logger.Debug("loaded map",
		zap.Stringer("layout", l),
		zap.Int("rooms", len(rooms)),
		zap.Int("marks", len(marks)),
		zap.Int("warnings", len(warnings)),
		zap.Int("payloadBytes", len(payload)),
		zap.Duration("elapsed", time.Since(start)))
	return db, nil
}

// smallest possible records: every string null, every exit slot empty
const (
	minRoomSize = 3*4 + 4 + 4 + 4 + 2*2 + 1 + 3*4 + 7*(1+1+4+4+4)
	minMarkSize = 4 + 1 + 6*4
)

// Version returns the version the database was loaded from, or Latest.
func (db *Database) Version() Version {
	return db.version
}

// Warnings returns the recoverable problems found while loading.
func (db *Database) Warnings() []Warning {
	return db.warnings
}

func (db *Database) Len() int {
	return len(db.rooms)
}

func (db *Database) Get(id RoomID) (*Room, bool) {
	r, ok := db.rooms[id]
	return r, ok
}

// Rooms returns every room in ascending id order.
func (db *Database) Rooms() []*Room {
	rooms := make([]*Room, 0, len(db.rooms))
	for _, r := range db.rooms {
		rooms = append(rooms, r)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].id < rooms[j].id })
	return rooms
}

func (db *Database) Selected() Coordinates {
	return db.selected
}

func (db *Database) SetSelected(c Coordinates) {
	db.selected = c
}

// Add inserts a room that isn't part of any database yet.
func (db *Database) Add(r *Room) error {
	if r.id == UndefinedRoomID {
		return fmt.Errorf("room id %d is reserved", r.id)
	}
	if r.db != nil {
		return fmt.Errorf("room %d already belongs to a database", r.id)
	}
	if _, ok := db.rooms[r.id]; ok {
		return &DuplicateIdentifierError{ID: r.id, First: -1, Second: -1}
	}
	db.rooms[r.id] = r
	r.db = db
	return nil
}

// Remove deletes a room and every exit reference to it.  It reports
// whether the room existed.
func (db *Database) Remove(id RoomID) bool {
	r, ok := db.rooms[id]
	if !ok {
		return false
	}
	delete(db.rooms, id)
	for _, other := range db.rooms {
		for _, e := range other.exits {
			if e == nil {
				continue
			}
			e.to, _ = removeRoom(e.to, r)
			e.from, _ = removeRoom(e.from, r)
		}
	}
	for _, e := range r.exits {
		if e != nil {
			e.to, e.from = nil, nil
		}
	}
	r.db = nil
	return true
}

func (db *Database) pair(from, to RoomID) (*Room, *Room, error) {
	src, ok := db.rooms[from]
	if !ok {
		return nil, nil, fmt.Errorf("room %d: %w", from, ErrNotFound)
	}
	dst, ok := db.rooms[to]
	if !ok {
		return nil, nil, fmt.Errorf("room %d: %w", to, ErrNotFound)
	}
	return src, dst, nil
}

// Link makes the exit dir of room from lead to room to, and records the
// inbound connection on the opposite side of to.  The exit flag is set on
// the source exit.
func (db *Database) Link(from RoomID, dir Direction, to RoomID) error {
	if !dir.valid() {
		return fmt.Errorf("link %d -> %d: invalid direction %d", from, to, uint8(dir))
	}
	src, dst, err := db.pair(from, to)
	if err != nil {
		return fmt.Errorf("link: %w", err)
	}
	e := src.AddExit(dir)
	e.Flags |= ExitExit
	e.to = appendUnique(e.to, dst)
	back := dst.AddExit(dir.Opposite())
	back.from = appendUnique(back.from, src)
	return nil
}

// Unlink undoes Link.  Exit flags are left alone.
func (db *Database) Unlink(from RoomID, dir Direction, to RoomID) error {
	if !dir.valid() {
		return fmt.Errorf("unlink %d -> %d: invalid direction %d", from, to, uint8(dir))
	}
	src, dst, err := db.pair(from, to)
	if err != nil {
		return fmt.Errorf("unlink: %w", err)
	}
	if e := src.exits[dir]; e != nil {
		e.to, _ = removeRoom(e.to, dst)
	}
	if back := dst.exits[dir.Opposite()]; back != nil {
		back.from, _ = removeRoom(back.from, src)
	}
	return nil
}

// RemoveExit deletes the exit dir of room id along with the matching
// inbound entries on its targets.  Rooms leading into that side of id keep
// their exits.
func (db *Database) RemoveExit(id RoomID, dir Direction) error {
	if !dir.valid() {
		return fmt.Errorf("remove exit of %d: invalid direction %d", id, uint8(dir))
	}
	r, ok := db.rooms[id]
	if !ok {
		return fmt.Errorf("remove exit: room %d: %w", id, ErrNotFound)
	}
	e := r.exits[dir]
	if e == nil {
		return nil
	}
	for _, target := range e.to {
		if back := target.exits[dir.Opposite()]; back != nil {
			back.from, _ = removeRoom(back.from, r)
			if back.empty() {
				target.exits[dir.Opposite()] = nil
			}
		}
	}
	e.Flags, e.DoorFlags, e.DoorName, e.to = 0, 0, "", nil
	if e.empty() {
		r.exits[dir] = nil
	}
	return nil
}

// encodePayload serializes the database for l without framing.
func (db *Database) encodePayload(l *layout.Layout) ([]byte, error) {
	w := qstream.NewWriter()
	e := &recordWriter{w: w, l: l}
	w.WriteUint32(uint32(len(db.rooms)))
	w.WriteUint32(uint32(len(db.InfoMarks)))
	e.coords(db.selected)
	for i, r := range db.Rooms() {
		if err := e.writeRoom(i, r); err != nil {
			return nil, err
		}
	}
	for i := range db.InfoMarks {
		if err := e.writeInfoMark(i, &db.InfoMarks[i]); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

// Save writes the database to w as version v.  Fields v has no place for
// are dropped; flag bits too wide for v are an EncodingError.
func (db *Database) Save(w io.Writer, v Version) error {
	start := time.Now()
	l, err := layout.Lookup(v)
	if err != nil {
		return err
	}
	payload, err := db.encodePayload(l)
	if err != nil {
		return err
	}
	if err := writePayload(w, l, payload); err != nil {
		return err
	}
	db.logger.Debug("saved map",
		zap.Stringer("layout", l),
		zap.Int("rooms", len(db.rooms)),
		zap.Int("marks", len(db.InfoMarks)),
		zap.Int("payloadBytes", len(payload)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Encode returns the database serialized as version v.
func (db *Database) Encode(v Version) ([]byte, error) {
	var buf bytes.Buffer
	if err := db.Save(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Fingerprint hashes the uncompressed payload the database would be saved
// as at its version.  Equal databases have equal fingerprints.
func (db *Database) Fingerprint() (uint64, error) {
	l, err := layout.Lookup(db.version)
	if err != nil {
		return 0, err
	}
	payload, err := db.encodePayload(l)
	if err != nil {
		return 0, err
	}
	return farm.Fingerprint64(payload), nil
}

// Modified reports whether the database has changed since it was loaded.
// Databases built with New are always modified.
func (db *Database) Modified() (bool, error) {
	if !db.hasBaseline {
		return true, nil
	}
	fp, err := db.Fingerprint()
	if err != nil {
		return false, err
	}
	return fp != db.baseline, nil
}
