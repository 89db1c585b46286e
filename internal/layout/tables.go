// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package layout

import (
	"github.com/bpowers/mm2/internal/bitflags"
)

// Tables holds the bit and code names for a layout.  Every version released
// so far shares one set; a version that renumbers flags gets its own.
type Tables struct {
	Mob  *bitflags.Table
	Load *bitflags.Table
	Exit *bitflags.Table
	Door *bitflags.Table

	Terrain   *bitflags.Enum
	Light     *bitflags.Enum
	Alignment *bitflags.Enum
	Portable  *bitflags.Enum
	Ridable   *bitflags.Enum
	SunDeath  *bitflags.Enum
	MarkType  *bitflags.Enum
	MarkClass *bitflags.Enum
}

var mmapperTables = &Tables{
	Mob: bitflags.NewTable(
		"rent",
		"shop",
		"weapon_shop",
		"armour_shop",
		"food_shop",
		"pet_shop",
		"guild",
		"scout_guild",
		"mage_guild",
		"cleric_guild",
		"warrior_guild",
		"ranger_guild",
		"aggressive_mob",
		"quest_mob",
		"passive_mob",
		"elite_mob",
		"super_mob",
		"milkable",
		"rattlesnake",
	),
	Load: bitflags.NewTable(
		"treasure",
		"armour",
		"weapon",
		"water",
		"food",
		"herb",
		"key",
		"mule",
		"horse",
		"pack_horse",
		"trained_horse",
		"rohirrim",
		"warg",
		"boat",
		"attention",
		"tower", // can 'watch' surrounding rooms from here
		"clock",
		"mail",
		"stable",
		"white_word",
		"dark_word",
		"equipment",
		"coach",
		"ferry",
	),
	Exit: bitflags.NewTable(
		"exit",
		"door",
		"road",
		"climb",
		"random",
		"special",
		"no_match", // not always visible; ignored when syncing exits
		"flow",
		"no_flee",
		"damage",
		"fall",
		"guarded",
	),
	Door: bitflags.NewTable(
		"hidden",
		"need_key",
		"no_block",
		"no_break",
		"no_pick",
		"delayed",
		"callable",
		"knockable",
		"magic",
		"action",
		"no_bash",
	),

	Terrain: bitflags.NewEnum(
		"undefined",
		"building", // MMapper still calls this "indoors"
		"city",
		"field",
		"forest",
		"hills",
		"mountains",
		"shallows",
		"water",
		"rapids",
		"underwater",
		"road",
		"brush",
		"tunnel",
		"cavern",
		"deathtrap",
	),
	Light:     bitflags.NewEnum("undefined", "dark", "lit"),
	Alignment: bitflags.NewEnum("undefined", "good", "neutral", "evil"),
	Portable:  bitflags.NewEnum("undefined", "portable", "not_portable"),
	Ridable:   bitflags.NewEnum("undefined", "ridable", "not_ridable"),
	SunDeath:  bitflags.NewEnum("undefined", "sundeath", "no_sundeath"),
	MarkType:  bitflags.NewEnum("text", "line", "arrow"),
	MarkClass: bitflags.NewEnum(
		"generic",
		"herb",
		"river",
		"place",
		"mob",
		"comment",
		"road",
		"object",
		"action",
		"locality",
	),
}

// Current returns the tables of the latest layout.
func Current() *Tables {
	return layouts[Latest].Tables
}
