package dice

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	diceRe = regexp.MustCompile(`^(\d*)d(\d+)(?:kh(\d+))?([+-]\d+)?$`)
	flatRe = regexp.MustCompile(`^[+-]?\d+$`)
)

// maxDice bounds Count so a config typo cannot allocate unbounded memory.
const maxDice = 1000

// Expression is a parsed dice expression.
//
// Count == 0 denotes a flat amount equal to Modifier.
type Expression struct {
	Raw         string
	Count       int
	Sides       int
	Modifier    int
	KeepHighest int
}

// Flat reports whether the expression rolls no dice.
func (e Expression) Flat() bool { return e.Count == 0 }

// Min returns the smallest total the expression can produce.
func (e Expression) Min() int {
	if e.Flat() {
		return e.Modifier
	}
	return e.kept() + e.Modifier
}

// Max returns the largest total the expression can produce.
func (e Expression) Max() int {
	if e.Flat() {
		return e.Modifier
	}
	return e.kept()*e.Sides + e.Modifier
}

func (e Expression) kept() int {
	if e.KeepHighest > 0 {
		return e.KeepHighest
	}
	return e.Count
}

// Parse parses expressions such as "25", "d20", "2d6", "3d8+5", "4d6kh3".
//
// Precondition: raw must be non-empty.
// Postcondition: Returns a valid Expression or a non-nil error.
func Parse(raw string) (Expression, error) {
	s := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if s == "" {
		return Expression{}, fmt.Errorf("dice.Parse: empty expression")
	}
	if flatRe.MatchString(s) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Expression{}, fmt.Errorf("dice.Parse %q: %w", raw, err)
		}
		return Expression{Raw: raw, Modifier: n}, nil
	}
	m := diceRe.FindStringSubmatch(s)
	if m == nil {
		return Expression{}, fmt.Errorf("dice.Parse %q: unrecognised expression", raw)
	}

	count := 1
	if m[1] != "" {
		count, _ = strconv.Atoi(m[1])
	}
	sides, _ := strconv.Atoi(m[2])
	var errs []string
	if count < 1 || count > maxDice {
		errs = append(errs, fmt.Sprintf("count must be in [1, %d], got %d", maxDice, count))
	}
	if sides < 2 {
		errs = append(errs, fmt.Sprintf("sides must be >= 2, got %d", sides))
	}
	keep := 0
	if m[3] != "" {
		keep, _ = strconv.Atoi(m[3])
		if keep < 1 || keep > count {
			errs = append(errs, fmt.Sprintf("keep-highest must be in [1, %d], got %d", count, keep))
		}
	}
	mod := 0
	if m[4] != "" {
		mod, _ = strconv.Atoi(m[4])
	}
	if len(errs) > 0 {
		return Expression{}, fmt.Errorf("dice.Parse %q: %s", raw, strings.Join(errs, "; "))
	}
	return Expression{Raw: raw, Count: count, Sides: sides, Modifier: mod, KeepHighest: keep}, nil
}

// MustParse is Parse that panics on error. Intended for constants and tests.
func MustParse(raw string) Expression {
	e, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return e
}

// Roll evaluates e against src.
//
// Precondition: src must be non-nil unless e is flat.
// Postcondition: Result.Total() is within [e.Min(), e.Max()].
func Roll(e Expression, src Source) Result {
	res := Result{Expression: e.Raw, Modifier: e.Modifier}
	if e.Flat() {
		return res
	}
	rolls := make([]int, e.Count)
	for i := range rolls {
		rolls[i] = src.Intn(e.Sides) + 1
	}
	if e.KeepHighest > 0 {
		sort.Sort(sort.Reverse(sort.IntSlice(rolls)))
		rolls = rolls[:e.KeepHighest]
	}
	res.Dice = rolls
	return res
}

// RollExpr parses raw and rolls it against src.
func RollExpr(raw string, src Source) (Result, error) {
	e, err := Parse(raw)
	if err != nil {
		return Result{}, err
	}
	return Roll(e, src), nil
}
