package console

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gdhsf3701/island/internal/game/block"
	"github.com/gdhsf3701/island/internal/game/hazard"
	"github.com/gdhsf3701/island/internal/simulation"
)

// Translate converts an input command and its arguments into simulation
// inputs. Block selection accepts a 1-based number or a type ID from
// catalog.
//
// Precondition: cmd and catalog must be non-nil.
// Postcondition: Returns at least one input, or a non-nil error describing
// the bad argument.
func Translate(cmd *Command, args []string, catalog *block.Catalog) ([]simulation.Input, error) {
	switch cmd.Handler {
	case HandlerBuild:
		return one(simulation.ToggleBuild()), nil
	case HandlerDay:
		return one(simulation.AdvanceDay()), nil
	case HandlerNight:
		return one(simulation.SkipToNight()), nil
	case HandlerSelect:
		if len(args) != 1 {
			return nil, usage(cmd)
		}
		i, err := selection(args[0], catalog)
		if err != nil {
			return nil, err
		}
		return one(simulation.Select(i)), nil
	case HandlerAim:
		if len(args) != 2 {
			return nil, usage(cmd)
		}
		p, err := pointer(args)
		if err != nil {
			return nil, err
		}
		return one(p), nil
	case HandlerClick:
		switch len(args) {
		case 0:
			return one(simulation.Commit()), nil
		case 2:
			p, err := pointer(args)
			if err != nil {
				return nil, err
			}
			return []simulation.Input{p, simulation.Commit()}, nil
		default:
			return nil, usage(cmd)
		}
	case HandlerHazard:
		if len(args) < 1 || len(args) > 2 {
			return nil, usage(cmd)
		}
		kind, err := block.ParseHazardKind(args[0])
		if err != nil {
			return nil, err
		}
		damage := float64(hazard.DefaultDamage)
		if len(args) == 2 {
			damage, err = strconv.ParseFloat(args[1], 64)
			if err != nil || damage < 0 || math.IsNaN(damage) || math.IsInf(damage, 0) {
				return nil, fmt.Errorf("damage must be a finite non-negative number, got %q", args[1])
			}
		}
		return one(simulation.Hazard(kind, damage)), nil
	default:
		return nil, fmt.Errorf("%s is not an input command", cmd.Name)
	}
}

func one(in simulation.Input) []simulation.Input { return []simulation.Input{in} }

func usage(cmd *Command) error {
	return fmt.Errorf("usage: %s", cmd.Usage)
}

func selection(arg string, catalog *block.Catalog) (int, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > catalog.Len() {
			return 0, fmt.Errorf("block number must be 1-%d, got %d", catalog.Len(), n)
		}
		return n - 1, nil
	}
	if i := catalog.Index(strings.ToLower(arg)); i >= 0 {
		return i, nil
	}
	return 0, fmt.Errorf("unknown block type %q", arg)
}

func pointer(args []string) (simulation.Input, error) {
	x, err := coordinate("x", args[0])
	if err != nil {
		return simulation.Input{}, err
	}
	y, err := coordinate("y", args[1])
	if err != nil {
		return simulation.Input{}, err
	}
	return simulation.Pointer(x, y), nil
}

func coordinate(axis, arg string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a finite number, got %q", axis, arg)
	}
	return v, nil
}
