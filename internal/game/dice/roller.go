package dice

import (
	"fmt"

	"go.uber.org/zap"
)

// Roller rolls expressions and picks from weighted choices, logging every
// outcome at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewRoller creates a Roller.
//
// Precondition: src and logger must be non-nil.
func NewRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Roll evaluates e and logs the result.
func (r *Roller) Roll(e Expression) Result {
	res := Roll(e, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", e.Raw),
		zap.Ints("dice", res.Dice),
		zap.Int("modifier", res.Modifier),
		zap.Int("total", res.Total()),
	)
	return res
}

// RollExpr parses raw and rolls it.
func (r *Roller) RollExpr(raw string) (Result, error) {
	e, err := Parse(raw)
	if err != nil {
		return Result{}, err
	}
	return r.Roll(e), nil
}

// Pick returns a uniformly random index into a slice of length n.
//
// Precondition: n > 0.
func (r *Roller) Pick(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("dice.Roller.Pick: n must be > 0, got %d", n)
	}
	i := r.src.Intn(n)
	r.logger.Debug("dice pick", zap.Int("n", n), zap.Int("index", i))
	return i, nil
}
