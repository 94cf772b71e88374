// Package block provides block type definitions, hazard resistance, and live
// block entity management.
package block

import (
	"fmt"
	"sort"
	"strings"
)

// ResistanceLevel classifies how well a block type withstands a hazard.
type ResistanceLevel int

const (
	// Normal takes the base damage. It is the zero value so unmapped
	// hazards default to it.
	Normal ResistanceLevel = iota
	// Strong takes 30% of the base damage.
	Strong
	// Weak takes double the base damage.
	Weak
)

// Multiplier returns the damage multiplier for l.
//
// Postcondition: Strong=0.3, Normal=1.0, Weak=2.0; any other value is 1.0.
func (l ResistanceLevel) Multiplier() float64 {
	switch l {
	case Strong:
		return 0.3
	case Weak:
		return 2.0
	default:
		return 1.0
	}
}

// String returns the lower-case level name.
func (l ResistanceLevel) String() string {
	switch l {
	case Strong:
		return "strong"
	case Weak:
		return "weak"
	default:
		return "normal"
	}
}

// ParseResistanceLevel parses "strong", "normal" or "weak".
func ParseResistanceLevel(s string) (ResistanceLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strong":
		return Strong, nil
	case "normal":
		return Normal, nil
	case "weak":
		return Weak, nil
	}
	return Normal, fmt.Errorf("unknown resistance level %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *ResistanceLevel) UnmarshalText(b []byte) error {
	v, err := ParseResistanceLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (l ResistanceLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// HazardKind names a category of disaster. The set is open: kinds outside
// AllHazards are legal and resolve to Normal resistance everywhere.
type HazardKind string

// Known hazard kinds.
const (
	AcidRain   HazardKind = "acid_rain"
	StrongWind HazardKind = "strong_wind"
	Earthquake HazardKind = "earthquake"
	Wildfire   HazardKind = "wildfire"
	Tsunami    HazardKind = "tsunami"
	Sandstorm  HazardKind = "sandstorm"
	Lightning  HazardKind = "lightning"
)

var knownHazards = []HazardKind{AcidRain, StrongWind, Earthquake, Wildfire, Tsunami, Sandstorm, Lightning}

var hazardNames = map[HazardKind]string{
	AcidRain:   "Acid Rain",
	StrongWind: "Strong Wind",
	Earthquake: "Earthquake",
	Wildfire:   "Wildfire",
	Tsunami:    "Tsunami",
	Sandstorm:  "Sandstorm",
	Lightning:  "Lightning",
}

// AllHazards returns the known hazard kinds in canonical order.
func AllHazards() []HazardKind {
	out := make([]HazardKind, len(knownHazards))
	copy(out, knownHazards)
	return out
}

// Known reports whether k is one of AllHazards.
func (k HazardKind) Known() bool {
	_, ok := hazardNames[k]
	return ok
}

// DisplayName returns a human readable name. Unknown kinds are rendered from
// their identifier.
func (k HazardKind) DisplayName() string {
	if n, ok := hazardNames[k]; ok {
		return n
	}
	words := strings.Fields(strings.ReplaceAll(string(k), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ParseHazardKind normalizes s ("Acid Rain", "acid-rain", "acid_rain") to a
// HazardKind. Any non-empty identifier is accepted.
func ParseHazardKind(s string) (HazardKind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	if norm == "" {
		return "", fmt.Errorf("hazard kind must not be empty")
	}
	return HazardKind(norm), nil
}

// ResistanceTable maps hazard kinds to resistance levels.
type ResistanceTable map[HazardKind]ResistanceLevel

// Lookup returns the level for k, defaulting to Normal.
//
// Postcondition: total and pure; never fails.
func (t ResistanceTable) Lookup(k HazardKind) ResistanceLevel {
	if l, ok := t[k]; ok {
		return l
	}
	return Normal
}

// Validate reports entries naming unknown hazard kinds, which are almost
// always typos in content files.
func (t ResistanceTable) Validate() error {
	var unknown []string
	for k := range t {
		if !k.Known() {
			unknown = append(unknown, string(k))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown hazard kinds: %s", strings.Join(unknown, ", "))
	}
	return nil
}
