// Package dice provides the randomness abstraction and dice expressions used
// to pick and size hazards.
package dice

import (
	"fmt"
	"strings"
)

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Result holds the audit trail for a single roll.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type Result struct {
	Expression string
	// Dice holds the kept die values; empty for flat expressions.
	Dice     []int
	Modifier int
}

// Total returns the sum of the kept dice plus the modifier.
func (r Result) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns an audit string such as "2d6+3: [4 5] +3 = 12" or "25 = 25".
func (r Result) String() string {
	if len(r.Dice) == 0 {
		return fmt.Sprintf("%s = %d", r.Expression, r.Total())
	}
	parts := make([]string, len(r.Dice))
	for i, d := range r.Dice {
		parts[i] = fmt.Sprint(d)
	}
	return fmt.Sprintf("%s: [%s] %+d = %d", r.Expression, strings.Join(parts, " "), r.Modifier, r.Total())
}
