// Package roster defines the athlete domain model and its Postgres storage.
// This package has no HTTP dependencies and is shared by the import pipeline
// and the web layer.
package roster

import (
	"strings"
	"time"
)

// Side is an athlete's rowing side preference.
type Side string

const (
	SidePort      Side = "Port"
	SideStarboard Side = "Starboard"
	SideBoth      Side = "Both"
	SideCox       Side = "Cox"
)

// Sides lists all valid side preferences in display order.
var Sides = []Side{SidePort, SideStarboard, SideBoth, SideCox}

// ParseSide matches a raw string against the known side preferences,
// case-insensitively. Returns the canonical value and true on a match.
func ParseSide(s string) (Side, bool) {
	s = strings.TrimSpace(s)
	for _, side := range Sides {
		if strings.EqualFold(s, string(side)) {
			return side, true
		}
	}
	return "", false
}

// AthleteParams holds the normalized, typed fields for creating an athlete.
// Optional fields are pointers; nil means the value was absent on import.
type AthleteParams struct {
	FirstName      string   `json:"firstName"`
	LastName       string   `json:"lastName"`
	Email          *string  `json:"email"`
	Side           *Side    `json:"side"`
	CanScull       bool     `json:"canScull"`
	CanCox         bool     `json:"canCox"`
	HeightCm       *float64 `json:"heightCm"`
	WeightKg       *float64 `json:"weightKg"`
	IsManaged      bool     `json:"isManaged"`
	UserID         *string  `json:"userId"`
	Concept2UserID *string  `json:"concept2UserId"`
}

// Athlete is a stored roster entry.
type Athlete struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	AthleteParams
}
