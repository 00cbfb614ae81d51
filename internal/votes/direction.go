package votes

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Direction is the ledger code of a vote. None means "no active vote".
type Direction string

const (
	None Direction = ""
	Up   Direction = "u"
	Down Direction = "d"
)

// ParseDirection accepts "up"/"u" and "down"/"d", case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "u":
		return Up, nil
	case "down", "d":
		return Down, nil
	}
	return None, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

func (d Direction) Valid() bool {
	return d == Up || d == Down
}

func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	}
	return None
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return "none"
}

// MarshalJSON renders "up", "down" or null.
func (d Direction) MarshalJSON() ([]byte, error) {
	if d == None {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}
