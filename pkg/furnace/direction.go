package furnace

import (
	"fmt"
	"strings"
)

type Direction int8

const (
	Internal Direction = -1
	Down     Direction = 0
	Up       Direction = 1
	North    Direction = 2
	South    Direction = 3
	West     Direction = 4
	East     Direction = 5
)

var directionNames = map[Direction]string{
	Internal: "internal",
	Down:     "down",
	Up:       "up",
	North:    "north",
	South:    "south",
	West:     "west",
	East:     "east",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("direction(%d)", int8(d))
}

func (d Direction) Valid() bool {
	_, ok := directionNames[d]
	return ok
}

// Opposite returns the facing on the other side of the block. Internal has no opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case Down:
		return Up
	case Up:
		return Down
	case North:
		return South
	case South:
		return North
	case West:
		return East
	case East:
		return West
	}
	return d
}

func (d Direction) Horizontal() bool {
	return d >= North && d <= East
}

func ParseDirection(s string) (Direction, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	for d, name := range directionNames {
		if name == lower {
			return d, nil
		}
	}
	return Internal, fmt.Errorf("invalid direction %q", s)
}
