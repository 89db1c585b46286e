// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mm2

import (
	"fmt"
	"math"
)

// RoomID identifies a room within one database.
type RoomID uint32

// UndefinedRoomID terminates exit target lists on disk and is never the id
// of a room.
const UndefinedRoomID RoomID = math.MaxUint32

// Coordinates locate a room on the map grid.  Y grows to the north.
type Coordinates struct {
	X, Y, Z int32
}

func (c Coordinates) Add(o Coordinates) Coordinates {
	return Coordinates{X: c.X + o.X, Y: c.Y + o.Y, Z: c.Z + o.Z}
}

func (c Coordinates) Sub(o Coordinates) Coordinates {
	return Coordinates{X: c.X - o.X, Y: c.Y - o.Y, Z: c.Z - o.Z}
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.X, c.Y, c.Z)
}

// Room is a location on the map.  Fields can be edited freely; exit
// connections are changed through Database.Link and Database.Unlink so that
// both ends stay in sync.
type Room struct {
	id RoomID
	db *Database

	Name        string
	Description string
	Contents    string // dynamic description
	Note        string

	Terrain   Terrain
	Light     Light
	Alignment Alignment
	Portable  Portable
	Ridable   Ridable
	SunDeath  SunDeath
	MobFlags  MobFlags
	LoadFlags LoadFlags
	Updated   bool

	Coordinates Coordinates

	exits [numDirections]*Exit
}

// NewRoom returns a room with no exits, ready to be added to a Database.
func NewRoom(id RoomID) *Room {
	return &Room{id: id}
}

func (r *Room) ID() RoomID {
	return r.id
}

// Exit returns the exit in direction d, if there is one.  A direction
// counts as an exit only when its exit flags are set; a side that other
// rooms merely lead into is reported by Sources.
func (r *Room) Exit(d Direction) (*Exit, bool) {
	if !d.valid() {
		return nil, false
	}
	e := r.exits[d]
	if e == nil || e.Flags == 0 {
		return nil, false
	}
	return e, true
}

// Sources returns the rooms whose exits lead into direction d of r, whether
// or not r has an exit of its own that way.
func (r *Room) Sources(d Direction) []*Room {
	if !d.valid() || r.exits[d] == nil {
		return nil
	}
	return r.exits[d].Sources()
}

// Exits returns the room's exits keyed by direction.  Directions without
// an exit are absent from the map.
func (r *Room) Exits() map[Direction]*Exit {
	exits := make(map[Direction]*Exit)
	for _, d := range Directions {
		if e, ok := r.Exit(d); ok {
			exits[d] = e
		}
	}
	return exits
}

// AddExit returns the exit in direction d, creating an empty one if
// needed.  Exit reports it only once Flags is nonzero.
func (r *Room) AddExit(d Direction) *Exit {
	if !d.valid() {
		panic(fmt.Sprintf("invalid direction %d", uint8(d)))
	}
	if r.exits[d] == nil {
		r.exits[d] = &Exit{owner: r, dir: d}
	}
	return r.exits[d]
}

func (r *Room) String() string {
	return fmt.Sprintf("room %d %q", r.id, r.Name)
}

// Exit is one direction out of a room.  Besides its own flags, an exit
// records the rooms it leads to and the rooms whose exits lead back into
// this side of the owner.
type Exit struct {
	owner *Room
	dir   Direction

	Flags     ExitFlags
	DoorFlags DoorFlags
	DoorName  string

	to   []*Room // outbound, in file order
	from []*Room // inbound, in file order
}

func (e *Exit) Owner() *Room {
	return e.owner
}

func (e *Exit) Direction() Direction {
	return e.dir
}

// Target returns the first room the exit leads to, or nil when the exit
// leads nowhere known.
func (e *Exit) Target() *Room {
	if len(e.to) == 0 {
		return nil
	}
	return e.to[0]
}

// Targets returns every room the exit leads to.
func (e *Exit) Targets() []*Room {
	return append([]*Room(nil), e.to...)
}

// Sources returns the rooms with an exit leading into this side of the
// owner.
func (e *Exit) Sources() []*Room {
	return append([]*Room(nil), e.from...)
}

// HasDoor reports whether the exit is a door.
func (e *Exit) HasDoor() bool {
	return e.Flags.Has(ExitDoor)
}

// empty reports whether the slot carries nothing worth writing.
func (e *Exit) empty() bool {
	return e.Flags == 0 && e.DoorFlags == 0 && e.DoorName == "" && len(e.to) == 0 && len(e.from) == 0
}

func (e *Exit) String() string {
	target := "undefined"
	if t := e.Target(); t != nil {
		target = fmt.Sprintf("%d", t.id)
	}
	return fmt.Sprintf("%d %s -> %s [%s]", e.owner.id, e.dir, target, e.Flags)
}

func appendUnique(rooms []*Room, r *Room) []*Room {
	for _, existing := range rooms {
		if existing == r {
			return rooms
		}
	}
	return append(rooms, r)
}

// removeRoom drops every occurrence of r.
func removeRoom(rooms []*Room, r *Room) ([]*Room, bool) {
	var kept []*Room
	found := false
	for _, existing := range rooms {
		if existing == r {
			found = true
			continue
		}
		kept = append(kept, existing)
	}
	if !found {
		return rooms, false
	}
	return kept, true
}
