// Copyright 2026 The mm2 Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mm2

import (
	"fmt"
)

// Direction is one of the seven exit slots of a room, in on-disk order.
type Direction uint8

const (
	North Direction = iota
	South
	East
	West
	Up
	Down
	Unknown

	numDirections = int(Unknown) + 1
)

// Directions lists every direction in on-disk order.
var Directions = [numDirections]Direction{North, South, East, West, Up, Down, Unknown}

var directionNames = [numDirections]string{"north", "south", "east", "west", "up", "down", "unknown"}

func (d Direction) String() string {
	if int(d) >= numDirections {
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
	return directionNames[d]
}

// Opposite returns the direction leading back.  Unknown is its own opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case Up:
		return Down
	case Down:
		return Up
	default:
		return d
	}
}

func (d Direction) valid() bool {
	return int(d) < numDirections
}

// ParseDirection returns the direction named s.
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}
