// Package economy provides the per-block-type resource ledger.
package economy

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/gdhsf3701/island/internal/game/block"
	"github.com/gdhsf3701/island/internal/game/daycycle"
)

// ceilEpsilon absorbs float error so that whole-number products such as
// 10 x 1.3 round up to 13 rather than 14.
const ceilEpsilon = 1e-9

// Config holds the economy rules.
type Config struct {
	// BaseAmount is every pool's starting amount.
	BaseAmount int
	// CapacityMultiplier sets each pool's max to BaseAmount times this value.
	CapacityMultiplier int
	// BaseRefill is added to every pool on each regeneration.
	BaseRefill int
	// UsageBonusMultiplier scales the day's usage into a regeneration bonus.
	UsageBonusMultiplier float64
	// LowThreshold is the amount at or below which a pool is low.
	LowThreshold int
}

// DefaultConfig returns the stock economy rules.
func DefaultConfig() Config {
	return Config{
		BaseAmount:           5,
		CapacityMultiplier:   3,
		BaseRefill:           5,
		UsageBonusMultiplier: 1.3,
		LowThreshold:         2,
	}
}

// Validate checks that c is usable.
//
// Postcondition: Returns nil if valid, or an error listing every violation.
func (c Config) Validate() error {
	var errs []string
	if c.BaseAmount < 0 {
		errs = append(errs, fmt.Sprintf("base_amount must be >= 0, got %d", c.BaseAmount))
	}
	if c.CapacityMultiplier < 1 {
		errs = append(errs, fmt.Sprintf("capacity_multiplier must be >= 1, got %d", c.CapacityMultiplier))
	}
	if c.BaseRefill < 0 {
		errs = append(errs, fmt.Sprintf("base_refill must be >= 0, got %d", c.BaseRefill))
	}
	if c.UsageBonusMultiplier < 0 || math.IsNaN(c.UsageBonusMultiplier) {
		errs = append(errs, fmt.Sprintf("usage_bonus_multiplier must be >= 0, got %v", c.UsageBonusMultiplier))
	}
	if c.LowThreshold < 0 {
		errs = append(errs, fmt.Sprintf("low_threshold must be >= 0, got %d", c.LowThreshold))
	}
	if len(errs) > 0 {
		return fmt.Errorf("economy config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Listener observes ledger changes. Calls are made synchronously after the
// ledger has released its lock, so a Listener may query the ledger.
type Listener interface {
	// ResourcesChanged reports the summed current and max over all pools.
	ResourcesChanged(current, max int)
	// ResourceLow reports that a consume left typeID at or below the low threshold.
	ResourceLow(typeID string)
	// AvailabilityChanged reports that typeID became affordable or unaffordable.
	AvailabilityChanged(typeID string, available bool)
}

// NopListener ignores every notification.
type NopListener struct{}

func (NopListener) ResourcesChanged(int, int)        {}
func (NopListener) ResourceLow(string)               {}
func (NopListener) AvailabilityChanged(string, bool) {}

// Pool is a read-only view of one type's resources.
type Pool struct {
	TypeID     string
	Name       string
	Current    int
	Max        int
	Cost       int
	DailyUsage int
}

// Affordable reports whether one more unit can be placed.
func (p Pool) Affordable() bool { return p.Current >= p.Cost }

// Refill describes one pool's regeneration.
type Refill struct {
	TypeID string
	Before int
	After  int
	// Usage is the daily usage that earned the bonus.
	Usage int
}

// Ledger owns one resource pool per block type.
// All methods are safe for concurrent use.
//
// Invariant: 0 <= Current <= Max for every pool; Cost is fixed.
type Ledger struct {
	cfg      Config
	listener Listener
	logger   *zap.Logger

	mu    sync.Mutex
	pools []*Pool
	index map[string]*Pool
}

// NewLedger creates a Ledger with one pool per type, in the given order.
//
// Precondition: cfg must validate; every type must have Cost >= 1 and a
// unique ID; listener and logger must be non-nil.
// Postcondition: every pool starts at BaseAmount with zero usage.
func NewLedger(cfg Config, types []*block.Type, listener Listener, logger *zap.Logger) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("economy.NewLedger: %w", err)
	}
	if listener == nil || logger == nil {
		return nil, fmt.Errorf("economy.NewLedger: listener and logger must not be nil")
	}
	l := &Ledger{
		cfg:      cfg,
		listener: listener,
		logger:   logger,
		index:    make(map[string]*Pool, len(types)),
	}
	capacity := cfg.BaseAmount * cfg.CapacityMultiplier
	for _, t := range types {
		if t == nil {
			return nil, fmt.Errorf("economy.NewLedger: nil block type")
		}
		if t.Cost < 1 {
			return nil, fmt.Errorf("economy.NewLedger: block type %q has non-positive cost %d", t.ID, t.Cost)
		}
		if _, dup := l.index[t.ID]; dup {
			return nil, fmt.Errorf("economy.NewLedger: duplicate block type %q", t.ID)
		}
		p := &Pool{TypeID: t.ID, Name: t.Name, Current: cfg.BaseAmount, Max: capacity, Cost: t.Cost}
		l.pools = append(l.pools, p)
		l.index[t.ID] = p
	}
	return l, nil
}

// HasEnough reports whether typeID's pool can pay for one placement.
// Unknown types are never affordable.
func (l *Ledger) HasEnough(typeID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.index[typeID]
	return ok && p.Affordable()
}

// Consume pays for one placement of typeID.
//
// Postcondition: returns false and changes nothing when the pool cannot pay.
// Otherwise Current drops by Cost, DailyUsage rises by Cost, and listeners
// hear ResourcesChanged, then ResourceLow if the pool is now low, then
// AvailabilityChanged(false) if it can no longer pay.
func (l *Ledger) Consume(typeID string) bool {
	l.mu.Lock()
	p, ok := l.index[typeID]
	if !ok || !p.Affordable() {
		l.mu.Unlock()
		return false
	}
	p.Current -= p.Cost
	p.DailyUsage += p.Cost
	low := p.Current <= l.cfg.LowThreshold
	unavailable := !p.Affordable()
	current, capacity := l.totalsLocked()
	remaining := p.Current
	l.mu.Unlock()

	l.logger.Debug("resources consumed", zap.String("type", typeID), zap.Int("remaining", remaining))
	l.listener.ResourcesChanged(current, capacity)
	if low {
		l.listener.ResourceLow(typeID)
	}
	if unavailable {
		l.listener.AvailabilityChanged(typeID, false)
	}
	return true
}

// Regenerate performs the daily refill for every pool.
//
// Each pool gains BaseRefill plus ceil(DailyUsage x UsageBonusMultiplier),
// capped at Max, and its usage resets to zero. Every amount is computed from
// the pool's own pre-regeneration state, so pool order cannot affect results.
// Pools that become affordable emit AvailabilityChanged(true).
func (l *Ledger) Regenerate() []Refill {
	l.mu.Lock()
	refills := make([]Refill, 0, len(l.pools))
	var restored []string
	for _, p := range l.pools {
		wasAffordable := p.Affordable()
		bonus := int(math.Ceil(float64(p.DailyUsage)*l.cfg.UsageBonusMultiplier - ceilEpsilon))
		if bonus < 0 {
			bonus = 0
		}
		before := p.Current
		p.Current = min(p.Max, p.Current+l.cfg.BaseRefill+bonus)
		refills = append(refills, Refill{TypeID: p.TypeID, Before: before, After: p.Current, Usage: p.DailyUsage})
		p.DailyUsage = 0
		if !wasAffordable && p.Affordable() {
			restored = append(restored, p.TypeID)
		}
	}
	current, capacity := l.totalsLocked()
	l.mu.Unlock()

	l.logger.Info("resources regenerated", zap.Int("total", current), zap.Int("capacity", capacity))
	for _, id := range restored {
		l.listener.AvailabilityChanged(id, true)
	}
	l.listener.ResourcesChanged(current, capacity)
	return refills
}

// ConsumeDayEvents drains every event already queued on events without
// blocking and regenerates once per NewDay.
//
// Postcondition: Returns the number of regenerations performed.
func (l *Ledger) ConsumeDayEvents(events <-chan daycycle.Event) int {
	n := 0
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return n
			}
			if ev.Kind == daycycle.NewDay {
				l.Regenerate()
				n++
			}
		default:
			return n
		}
	}
}

func (l *Ledger) totalsLocked() (current, capacity int) {
	for _, p := range l.pools {
		current += p.Current
		capacity += p.Max
	}
	return current, capacity
}

// Totals returns the summed current and max amounts.
func (l *Ledger) Totals() (current, capacity int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalsLocked()
}

// Pool returns a copy of typeID's pool.
func (l *Ledger) Pool(typeID string) (Pool, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.index[typeID]
	if !ok {
		return Pool{}, false
	}
	return *p, true
}

// Pools returns copies of every pool in ledger order.
func (l *Ledger) Pools() []Pool {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Pool, len(l.pools))
	for i, p := range l.pools {
		out[i] = *p
	}
	return out
}

// IsLow reports whether typeID is at or below the low threshold.
func (l *Ledger) IsLow(typeID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.index[typeID]
	return ok && p.Current <= l.cfg.LowThreshold
}

// LowTypes returns the IDs of every low pool in ledger order.
func (l *Ledger) LowTypes() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, p := range l.pools {
		if p.Current <= l.cfg.LowThreshold {
			out = append(out, p.TypeID)
		}
	}
	return out
}

// Summary renders the pools for display, one line per type.
func (l *Ledger) Summary() string {
	var b strings.Builder
	b.WriteString("=== Resources ===\n")
	for _, p := range l.Pools() {
		fmt.Fprintf(&b, "%s: %d/%d", p.Name, p.Current, p.Max)
		if p.DailyUsage > 0 {
			fmt.Fprintf(&b, " (used today: %d)", p.DailyUsage)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
