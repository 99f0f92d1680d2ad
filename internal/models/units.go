package models

import (
	"fmt"
	"strings"
)

// Unit is the measurement unit an exercise's weights are recorded in.
type Unit string

const (
	UnitKg Unit = "mass-kg"
	UnitLb Unit = "mass-lb"
)

// Valid reports whether u is one of the supported mass units.
func (u Unit) Valid() bool {
	return u == UnitKg || u == UnitLb
}

// Short returns the display abbreviation ("kg" or "lb").
func (u Unit) Short() string {
	switch u {
	case UnitKg:
		return "kg"
	case UnitLb:
		return "lb"
	default:
		return string(u)
	}
}

// ParseUnit accepts the canonical names as well as the "kg"/"lb" shorthands.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mass-kg", "kg", "kgs":
		return UnitKg, nil
	case "mass-lb", "lb", "lbs":
		return UnitLb, nil
	}
	return "", fmt.Errorf("unknown unit %q", s)
}

// UnmarshalText lets request bodies use shorthands such as "kg". An empty
// value stays empty so callers can apply their own default.
func (u *Unit) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*u = ""
		return nil
	}
	parsed, err := ParseUnit(string(b))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
