// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package fixture describes small maps in YAML, for tests and for
// generating map files by hand.
package fixture

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bpowers/mm2"
)

// Map is the YAML form of a database.
type Map struct {
	Version  int32  `yaml:"version,omitempty"`
	Selected Coords `yaml:"selected,omitempty"`
	Rooms    []Room `yaml:"rooms"`
	Marks    []Mark `yaml:"marks,omitempty"`
}

type Coords struct {
	X int32 `yaml:"x"`
	Y int32 `yaml:"y"`
	Z int32 `yaml:"z"`
}

type Room struct {
	ID          uint32          `yaml:"id"`
	Name        string          `yaml:"name,omitempty"`
	Description string          `yaml:"description,omitempty"`
	Contents    string          `yaml:"contents,omitempty"`
	Note        string          `yaml:"note,omitempty"`
	Terrain     string          `yaml:"terrain,omitempty"`
	Light       string          `yaml:"light,omitempty"`
	Alignment   string          `yaml:"alignment,omitempty"`
	Portable    string          `yaml:"portable,omitempty"`
	Ridable     string          `yaml:"ridable,omitempty"`
	SunDeath    string          `yaml:"sundeath,omitempty"`
	MobFlags    []string        `yaml:"mob_flags,omitempty"`
	LoadFlags   []string        `yaml:"load_flags,omitempty"`
	Updated     bool            `yaml:"updated,omitempty"`
	Coords      Coords          `yaml:"coordinates"`
	Exits       map[string]Exit `yaml:"exits,omitempty"`
}

type Exit struct {
	To        []uint32 `yaml:"to,omitempty"`
	Flags     []string `yaml:"flags,omitempty"`
	DoorFlags []string `yaml:"door_flags,omitempty"`
	DoorName  string   `yaml:"door_name,omitempty"`
}

type Mark struct {
	Text     string `yaml:"text,omitempty"`
	Type     string `yaml:"type,omitempty"`
	Class    string `yaml:"class,omitempty"`
	Rotation int32  `yaml:"rotation,omitempty"`
	Pos1     Coords `yaml:"pos1"`
	Pos2     Coords `yaml:"pos2"`
}

// Parse decodes a YAML map description.  Unknown keys are an error.
func Parse(r io.Reader) (*Map, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var m Map
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("yaml.Decode: %w", err)
	}
	return &m, nil
}

// ReadFile parses the YAML map description at path.
func ReadFile(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Database builds the described map.  Rooms are added first, so exits
// may point forward.
func (m *Map) Database() (*mm2.Database, error) {
	db := mm2.New()
	db.SetSelected(m.Selected.coordinates())
	for i := range m.Rooms {
		r, err := m.Rooms[i].room()
		if err != nil {
			return nil, fmt.Errorf("room %d: %w", m.Rooms[i].ID, err)
		}
		if err := db.Add(r); err != nil {
			return nil, err
		}
	}
	for _, fr := range m.Rooms {
		if err := fr.link(db); err != nil {
			return nil, fmt.Errorf("room %d: %w", fr.ID, err)
		}
	}
	for i, fm := range m.Marks {
		mark, err := fm.mark()
		if err != nil {
			return nil, fmt.Errorf("mark %d: %w", i, err)
		}
		db.InfoMarks = append(db.InfoMarks, mark)
	}
	return db, nil
}

// FileVersion returns the version the description asks to be saved as.
func (m *Map) FileVersion() mm2.Version {
	if m.Version == 0 {
		return mm2.Latest
	}
	return mm2.Version(m.Version)
}

func (c Coords) coordinates() mm2.Coordinates {
	return mm2.Coordinates{X: c.X, Y: c.Y, Z: c.Z}
}

func coords(c mm2.Coordinates) Coords {
	return Coords{X: c.X, Y: c.Y, Z: c.Z}
}

func (fr *Room) room() (*mm2.Room, error) {
	r := mm2.NewRoom(mm2.RoomID(fr.ID))
	r.Name = fr.Name
	r.Description = fr.Description
	r.Contents = fr.Contents
	r.Note = fr.Note
	r.Updated = fr.Updated
	r.Coordinates = fr.Coords.coordinates()

	var err error
	if fr.Terrain != "" {
		if r.Terrain, err = mm2.ParseTerrain(fr.Terrain); err != nil {
			return nil, err
		}
	}
	if fr.Light != "" {
		if r.Light, err = mm2.ParseLight(fr.Light); err != nil {
			return nil, err
		}
	}
	if fr.Alignment != "" {
		if r.Alignment, err = mm2.ParseAlignment(fr.Alignment); err != nil {
			return nil, err
		}
	}
	if fr.Portable != "" {
		if r.Portable, err = mm2.ParsePortable(fr.Portable); err != nil {
			return nil, err
		}
	}
	if fr.Ridable != "" {
		if r.Ridable, err = mm2.ParseRidable(fr.Ridable); err != nil {
			return nil, err
		}
	}
	if fr.SunDeath != "" {
		if r.SunDeath, err = mm2.ParseSunDeath(fr.SunDeath); err != nil {
			return nil, err
		}
	}
	if r.MobFlags, err = mm2.ParseMobFlags(fr.MobFlags...); err != nil {
		return nil, err
	}
	if r.LoadFlags, err = mm2.ParseLoadFlags(fr.LoadFlags...); err != nil {
		return nil, err
	}

	for name, fe := range fr.Exits {
		dir, err := mm2.ParseDirection(name)
		if err != nil {
			return nil, err
		}
		e := r.AddExit(dir)
		if e.Flags, err = mm2.ParseExitFlags(fe.Flags...); err != nil {
			return nil, fmt.Errorf("exit %s: %w", dir, err)
		}
		if e.DoorFlags, err = mm2.ParseDoorFlags(fe.DoorFlags...); err != nil {
			return nil, fmt.Errorf("exit %s: %w", dir, err)
		}
		e.DoorName = fe.DoorName
	}
	return r, nil
}

func (fr *Room) link(db *mm2.Database) error {
	for name, fe := range fr.Exits {
		dir, err := mm2.ParseDirection(name)
		if err != nil {
			return err
		}
		for _, to := range fe.To {
			if err := db.Link(mm2.RoomID(fr.ID), dir, mm2.RoomID(to)); err != nil {
				return fmt.Errorf("exit %s: %w", dir, err)
			}
		}
	}
	return nil
}

func (fm *Mark) mark() (mm2.InfoMark, error) {
	m := mm2.InfoMark{
		Text:     fm.Text,
		Rotation: fm.Rotation,
		Pos1:     fm.Pos1.coordinates(),
		Pos2:     fm.Pos2.coordinates(),
	}
	var err error
	if fm.Type != "" {
		if m.Type, err = mm2.ParseMarkType(fm.Type); err != nil {
			return mm2.InfoMark{}, err
		}
	}
	if fm.Class != "" {
		if m.Class, err = mm2.ParseMarkClass(fm.Class); err != nil {
			return mm2.InfoMark{}, err
		}
	}
	return m, nil
}

// FromDatabase describes db.  Inbound connections are implied by the
// outbound ones and aren't listed, and unnamed flag bits are lost.
func FromDatabase(db *mm2.Database) *Map {
	m := &Map{
		Version:  int32(db.Version()),
		Selected: coords(db.Selected()),
	}
	for _, r := range db.Rooms() {
		fr := Room{
			ID:          uint32(r.ID()),
			Name:        r.Name,
			Description: r.Description,
			Contents:    r.Contents,
			Note:        r.Note,
			Terrain:     r.Terrain.String(),
			Light:       r.Light.String(),
			Alignment:   r.Alignment.String(),
			Portable:    r.Portable.String(),
			Ridable:     r.Ridable.String(),
			SunDeath:    r.SunDeath.String(),
			MobFlags:    r.MobFlags.Names(),
			LoadFlags:   r.LoadFlags.Names(),
			Updated:     r.Updated,
			Coords:      coords(r.Coordinates),
		}
		for dir, e := range r.Exits() {
			fe := Exit{
				Flags:     e.Flags.Names(),
				DoorFlags: e.DoorFlags.Names(),
				DoorName:  e.DoorName,
			}
			for _, t := range e.Targets() {
				fe.To = append(fe.To, uint32(t.ID()))
			}
			if fr.Exits == nil {
				fr.Exits = make(map[string]Exit)
			}
			fr.Exits[dir.String()] = fe
		}
		m.Rooms = append(m.Rooms, fr)
	}
	for _, im := range db.InfoMarks {
		m.Marks = append(m.Marks, Mark{
			Text:     im.Text,
			Type:     im.Type.String(),
			Class:    im.Class.String(),
			Rotation: im.Rotation,
			Pos1:     coords(im.Pos1),
			Pos2:     coords(im.Pos2),
		})
	}
	return m
}

// Write encodes m as YAML.
func (m *Map) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("yaml.Encode: %w", err)
	}
	return enc.Close()
}
