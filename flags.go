// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mm2

import (
	"fmt"
	"strings"

	"github.com/bpowers/mm2/internal/bitflags"
	"github.com/bpowers/mm2/internal/layout"
)

// tables backs the typed flag constants and their String and Parse
// functions.  Every schema version shares this bit numbering; a version
// that renumbers bits needs its own typed mapping, not just a new
// layout.Tables.
var tables = layout.Current()

// Terrain is a room's sector type.
type Terrain uint8

const (
	TerrainUndefined Terrain = iota
	TerrainBuilding
	TerrainCity
	TerrainField
	TerrainForest
	TerrainHills
	TerrainMountains
	TerrainShallows
	TerrainWater
	TerrainRapids
	TerrainUnderwater
	TerrainRoad
	TerrainBrush
	TerrainTunnel
	TerrainCavern
	TerrainDeathtrap
)

func (t Terrain) String() string { return enumString(tables.Terrain, uint8(t), "Terrain") }

func ParseTerrain(name string) (Terrain, error) {
	c, err := parseEnum(tables.Terrain, name, "terrain")
	return Terrain(c), err
}

type Light uint8

const (
	LightUndefined Light = iota
	LightDark
	LightLit
)

func (l Light) String() string { return enumString(tables.Light, uint8(l), "Light") }

func ParseLight(name string) (Light, error) {
	c, err := parseEnum(tables.Light, name, "light")
	return Light(c), err
}

type Alignment uint8

const (
	AlignmentUndefined Alignment = iota
	AlignmentGood
	AlignmentNeutral
	AlignmentEvil
)

func (a Alignment) String() string { return enumString(tables.Alignment, uint8(a), "Alignment") }

func ParseAlignment(name string) (Alignment, error) {
	c, err := parseEnum(tables.Alignment, name, "alignment")
	return Alignment(c), err
}

type Portable uint8

const (
	PortableUndefined Portable = iota
	PortablePortable
	PortableNotPortable
)

func (p Portable) String() string { return enumString(tables.Portable, uint8(p), "Portable") }

func ParsePortable(name string) (Portable, error) {
	c, err := parseEnum(tables.Portable, name, "portable")
	return Portable(c), err
}

type Ridable uint8

const (
	RidableUndefined Ridable = iota
	RidableRidable
	RidableNotRidable
)

func (r Ridable) String() string { return enumString(tables.Ridable, uint8(r), "Ridable") }

func ParseRidable(name string) (Ridable, error) {
	c, err := parseEnum(tables.Ridable, name, "ridable")
	return Ridable(c), err
}

type SunDeath uint8

const (
	SunDeathUndefined SunDeath = iota
	SunDeathSunDeath
	SunDeathNoSunDeath
)

func (s SunDeath) String() string { return enumString(tables.SunDeath, uint8(s), "SunDeath") }

func ParseSunDeath(name string) (SunDeath, error) {
	c, err := parseEnum(tables.SunDeath, name, "sundeath")
	return SunDeath(c), err
}

// MarkType is the shape of an info mark.
type MarkType uint8

const (
	MarkText MarkType = iota
	MarkLine
	MarkArrow
)

func (m MarkType) String() string { return enumString(tables.MarkType, uint8(m), "MarkType") }

func ParseMarkType(name string) (MarkType, error) {
	c, err := parseEnum(tables.MarkType, name, "mark type")
	return MarkType(c), err
}

// MarkClass picks the color an info mark is drawn with.
type MarkClass uint8

const (
	MarkGeneric MarkClass = iota
	MarkHerb
	MarkRiver
	MarkPlace
	MarkMob
	MarkComment
	MarkRoad
	MarkObject
	MarkAction
	MarkLocality
)

func (m MarkClass) String() string { return enumString(tables.MarkClass, uint8(m), "MarkClass") }

func ParseMarkClass(name string) (MarkClass, error) {
	c, err := parseEnum(tables.MarkClass, name, "mark class")
	return MarkClass(c), err
}

func enumString(e *bitflags.Enum, code uint8, typ string) string {
	name, ok := e.Name(code)
	if !ok {
		return fmt.Sprintf("%s(%d)", typ, code)
	}
	return name
}

func parseEnum(e *bitflags.Enum, name, what string) (uint8, error) {
	c, ok := e.Code(name)
	if !ok {
		return 0, fmt.Errorf("unknown %s %q", what, name)
	}
	return c, nil
}

// MobFlags describes the mobs usually found in a room.  Bits without a name
// are kept as-is.
type MobFlags uint32

const (
	MobRent MobFlags = 1 << iota
	MobShop
	MobWeaponShop
	MobArmourShop
	MobFoodShop
	MobPetShop
	MobGuild
	MobScoutGuild
	MobMageGuild
	MobClericGuild
	MobWarriorGuild
	MobRangerGuild
	MobAggressive
	MobQuest
	MobPassive
	MobElite
	MobSuper
	MobMilkable
	MobRattlesnake
)

func (f MobFlags) Has(o MobFlags) bool { return f&o == o }
func (f MobFlags) Names() []string { return tables.Mob.Names(uint32(f)) }
func (f MobFlags) Unknown() MobFlags { return MobFlags(uint32(f) &^ tables.Mob.Known()) }
func (f MobFlags) String() string { return flagString(tables.Mob, uint32(f)) }

func ParseMobFlags(names ...string) (MobFlags, error) {
	raw, err := tables.Mob.Encode(names, 0)
	return MobFlags(raw), err
}

// LoadFlags describes the objects and services found in a room.
type LoadFlags uint32

const (
	LoadTreasure LoadFlags = 1 << iota
	LoadArmour
	LoadWeapon
	LoadWater
	LoadFood
	LoadHerb
	LoadKey
	LoadMule
	LoadHorse
	LoadPackHorse
	LoadTrainedHorse
	LoadRohirrim
	LoadWarg
	LoadBoat
	LoadAttention
	LoadTower
	LoadClock
	LoadMail
	LoadStable
	LoadWhiteWord
	LoadDarkWord
	LoadEquipment
	LoadCoach
	LoadFerry
)

func (f LoadFlags) Has(o LoadFlags) bool { return f&o == o }
func (f LoadFlags) Names() []string { return tables.Load.Names(uint32(f)) }
func (f LoadFlags) Unknown() LoadFlags { return LoadFlags(uint32(f) &^ tables.Load.Known()) }
func (f LoadFlags) String() string { return flagString(tables.Load, uint32(f)) }

func ParseLoadFlags(names ...string) (LoadFlags, error) {
	raw, err := tables.Load.Encode(names, 0)
	return LoadFlags(raw), err
}

type ExitFlags uint16

const (
	ExitExit ExitFlags = 1 << iota
	ExitDoor
	ExitRoad
	ExitClimb
	ExitRandom
	ExitSpecial
	ExitNoMatch
	ExitFlow
	ExitNoFlee
	ExitDamage
	ExitFall
	ExitGuarded
)

func (f ExitFlags) Has(o ExitFlags) bool { return f&o == o }
func (f ExitFlags) Names() []string { return tables.Exit.Names(uint32(f)) }
func (f ExitFlags) Unknown() ExitFlags { return ExitFlags(uint32(f) &^ tables.Exit.Known()) }
func (f ExitFlags) String() string { return flagString(tables.Exit, uint32(f)) }

func ParseExitFlags(names ...string) (ExitFlags, error) {
	raw, err := tables.Exit.Encode(names, 0)
	return ExitFlags(raw), err
}

type DoorFlags uint16

const (
	DoorHidden DoorFlags = 1 << iota
	DoorNeedKey
	DoorNoBlock
	DoorNoBreak
	DoorNoPick
	DoorDelayed
	DoorCallable
	DoorKnockable
	DoorMagic
	DoorAction
	DoorNoBash
)

func (f DoorFlags) Has(o DoorFlags) bool { return f&o == o }
func (f DoorFlags) Names() []string { return tables.Door.Names(uint32(f)) }
func (f DoorFlags) Unknown() DoorFlags { return DoorFlags(uint32(f) &^ tables.Door.Known()) }
func (f DoorFlags) String() string { return flagString(tables.Door, uint32(f)) }

func ParseDoorFlags(names ...string) (DoorFlags, error) {
	raw, err := tables.Door.Encode(names, 0)
	return DoorFlags(raw), err
}

// flagString renders raw as "shop|rent", with any unnamed bits appended in
// hex.
func flagString(t *bitflags.Table, raw uint32) string {
	if raw == 0 {
		return "none"
	}
	s := t.Decode(raw)
	parts := s.Names
	if s.Unknown != 0 {
		parts = append(parts, fmt.Sprintf("%#x", s.Unknown))
	}
	return strings.Join(parts, "|")
}
