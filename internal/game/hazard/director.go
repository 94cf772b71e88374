package hazard

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/gdhsf3701/island/internal/game/block"
	"github.com/gdhsf3701/island/internal/game/daycycle"
	"github.com/gdhsf3701/island/internal/game/dice"
)

// ChooseHook is the Lua global consulted before the dice fallback.
const ChooseHook = "choose_hazard"

// Hooks is the scripting surface the Director needs. *scripting.Manager
// satisfies it.
type Hooks interface {
	HasHook(name string) bool
	CallHook(name string, args ...lua.LValue) ([]lua.LValue, error)
}

// Config controls nightly hazards.
type Config struct {
	// Nightly enables a hazard on every NightStarted event.
	Nightly bool
	// Kinds is the pool the dice fallback picks from.
	Kinds []block.HazardKind
	// Damage is a dice expression for the fallback base damage.
	Damage string
}

// DefaultConfig enables nightly hazards over every known kind at 25 damage.
func DefaultConfig() Config {
	return Config{Nightly: true, Kinds: block.AllHazards(), Damage: strconv.Itoa(DefaultDamage)}
}

// Validate checks that c is usable.
//
// Postcondition: Returns nil if valid, or an error listing every violation.
func (c Config) Validate() error {
	var errs []string
	if len(c.Kinds) == 0 {
		errs = append(errs, "kinds must not be empty")
	}
	for _, k := range c.Kinds {
		if k == "" {
			errs = append(errs, "kinds must not contain an empty kind")
			break
		}
	}
	if e, err := dice.Parse(c.Damage); err != nil {
		errs = append(errs, err.Error())
	} else if e.Min() < 0 {
		errs = append(errs, fmt.Sprintf("damage %q can roll below zero", c.Damage))
	}
	if len(errs) > 0 {
		return fmt.Errorf("hazard config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Source records where a Choice came from.
type Source string

const (
	SourceScript Source = "script"
	SourceDice   Source = "dice"
)

// Choice is the hazard selected for a night.
type Choice struct {
	Kind   block.HazardKind
	Damage float64
	Source Source
}

// Director picks and dispatches the nightly hazard.
type Director struct {
	cfg        Config
	damage     dice.Expression
	dispatcher *Dispatcher
	roller     *dice.Roller
	hooks      Hooks
	logger     *zap.Logger
}

// NewDirector creates a Director.
//
// Precondition: cfg must validate; dispatcher, roller and logger must be
// non-nil. hooks may be nil, in which case every choice uses the dice.
func NewDirector(cfg Config, dispatcher *Dispatcher, roller *dice.Roller, hooks Hooks, logger *zap.Logger) (*Director, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("hazard.NewDirector: %w", err)
	}
	if dispatcher == nil || roller == nil || logger == nil {
		return nil, fmt.Errorf("hazard.NewDirector: dispatcher, roller and logger must not be nil")
	}
	return &Director{
		cfg:        cfg,
		damage:     dice.MustParse(cfg.Damage),
		dispatcher: dispatcher,
		roller:     roller,
		hooks:      hooks,
		logger:     logger,
	}, nil
}

// Choose selects the hazard for night day with live blocks standing.
//
// The ChooseHook script runs first when present. A hook that returns nothing
// skips the night. A hook that fails, or returns a kind outside the known and
// configured kinds, falls back to a uniform dice pick over Config.Kinds.
//
// Postcondition: ok is false only when the script skipped the night.
func (d *Director) Choose(day, live int) (Choice, bool) {
	if c, handled, ok := d.fromScript(day, live); handled {
		return c, ok
	}
	i, err := d.roller.Pick(len(d.cfg.Kinds))
	if err != nil {
		return Choice{}, false
	}
	return Choice{
		Kind:   d.cfg.Kinds[i],
		Damage: float64(d.roller.Roll(d.damage).Total()),
		Source: SourceDice,
	}, true
}

// fromScript reports handled=false when the dice fallback should decide.
func (d *Director) fromScript(day, live int) (c Choice, handled, ok bool) {
	if d.hooks == nil || !d.hooks.HasHook(ChooseHook) {
		return Choice{}, false, false
	}
	ret, err := d.hooks.CallHook(ChooseHook, lua.LNumber(day), lua.LNumber(live))
	if err != nil {
		return Choice{}, false, false
	}
	if len(ret) == 0 || ret[0] == lua.LNil {
		d.logger.Debug("script skipped hazard", zap.Int("day", day))
		return Choice{}, true, false
	}
	kind, err := block.ParseHazardKind(lua.LVAsString(ret[0]))
	if err != nil || !d.allowed(kind) {
		d.logger.Warn("script returned unusable hazard kind", zap.String("kind", ret[0].String()))
		return Choice{}, false, false
	}
	dmg, err := d.scriptDamage(ret[1:])
	if err != nil {
		d.logger.Warn("script returned unusable damage", zap.Error(err))
		return Choice{}, false, false
	}
	return Choice{Kind: kind, Damage: dmg, Source: SourceScript}, true, true
}

func (d *Director) allowed(k block.HazardKind) bool {
	if k.Known() {
		return true
	}
	for _, c := range d.cfg.Kinds {
		if c == k {
			return true
		}
	}
	return false
}

// scriptDamage accepts a number, a dice expression string, or nothing (the
// configured expression).
func (d *Director) scriptDamage(rest []lua.LValue) (float64, error) {
	if len(rest) == 0 || rest[0] == lua.LNil {
		return float64(d.roller.Roll(d.damage).Total()), nil
	}
	switch v := rest[0].(type) {
	case lua.LNumber:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return 0, fmt.Errorf("damage must be finite and >= 0, got %v", v)
		}
		return f, nil
	case lua.LString:
		e, err := dice.Parse(string(v))
		if err != nil {
			return 0, err
		}
		if e.Min() < 0 {
			return 0, fmt.Errorf("damage %q can roll below zero", string(v))
		}
		return float64(d.roller.Roll(e).Total()), nil
	default:
		return 0, fmt.Errorf("damage has type %s", v.Type())
	}
}

// Dispatch triggers c through the Dispatcher.
func (d *Director) Dispatch(c Choice) Report {
	return d.dispatcher.Trigger(c.Kind, c.Damage)
}

// HandleEvent runs the nightly hazard for a NightStarted event when nightly
// hazards are enabled. live is the current live block count.
//
// Postcondition: ok is false when no hazard was dispatched.
func (d *Director) HandleEvent(ev daycycle.Event, live int) (Report, bool) {
	if !d.cfg.Nightly || ev.Kind != daycycle.NightStarted {
		return Report{}, false
	}
	c, ok := d.Choose(ev.Day, live)
	if !ok {
		return Report{}, false
	}
	d.logger.Info("nightly hazard",
		zap.Int("day", ev.Day),
		zap.String("kind", string(c.Kind)),
		zap.Float64("damage", c.Damage),
		zap.String("source", string(c.Source)),
	)
	return d.Dispatch(c), true
}
