package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gdhsf3701/island/internal/game/block"
	"github.com/gdhsf3701/island/internal/game/build"
	"github.com/gdhsf3701/island/internal/game/daycycle"
	"github.com/gdhsf3701/island/internal/simulation"
)

// TextSink renders build session and ledger notifications as text lines.
// It implements build.Sink and is safe for concurrent use; the console and
// the simulation goroutine share one TextSink as their output.
type TextSink struct {
	catalog *block.Catalog
	color   bool
	// Previews enables a line per preview change, which is chatty while
	// aiming.
	Previews bool

	mu  sync.Mutex
	out io.Writer
}

var _ build.Sink = (*TextSink)(nil)

// NewTextSink creates a TextSink writing to w. Block names are looked up in
// catalog. color enables ANSI styling.
//
// Precondition: w and catalog must be non-nil.
func NewTextSink(w io.Writer, catalog *block.Catalog, color bool) *TextSink {
	return &TextSink{catalog: catalog, color: color, out: w}
}

// Println writes one line.
func (s *TextSink) Println(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.color {
		line = StripANSI(line)
	}
	fmt.Fprintln(s.out, line)
}

// Printf writes one formatted line.
func (s *TextSink) Printf(format string, args ...any) {
	s.Println(fmt.Sprintf(format, args...))
}

func (s *TextSink) name(typeID string) string {
	if t, ok := s.catalog.Get(typeID); ok {
		return t.Name
	}
	return typeID
}

// PreviewChanged writes the new preview state when Previews is set.
func (s *TextSink) PreviewChanged(p build.Preview) {
	if !s.Previews {
		return
	}
	switch p.State {
	case build.PreviewHidden:
		s.Println(Colorize(Dim, "preview hidden"))
	case build.PreviewValid:
		s.Println(Colorf(Green, "preview %s at %s: valid", s.name(p.TypeID), p.Cell))
	case build.PreviewNoResources:
		s.Println(Colorf(Yellow, "preview %s at %s: no resources", s.name(p.TypeID), p.Cell))
	default:
		s.Println(Colorf(Red, "preview %s at %s: %s", s.name(p.TypeID), p.Cell, p.Verdict))
	}
}

// BuildModeChanged writes the mode banner.
func (s *TextSink) BuildModeChanged(on bool) {
	if on {
		s.Println(Colorize(Bold+Cyan, "Building mode: ON"))
		return
	}
	s.Println(Colorize(Cyan, "Building mode: OFF"))
}

// SelectionChanged writes the selected type and its cost.
func (s *TextSink) SelectionChanged(t *block.Type) {
	s.Printf("Selected %s (cost: %d)", Colorize(Bold, t.Name), t.Cost)
}

// BuildSucceeded writes the placed block.
func (s *TextSink) BuildSucceeded(e *block.Entity) {
	s.Println(Colorf(BrightGreen, "Built %s at %s", e.Type.Name, e.Cell))
}

// BuildFailed writes the rejection reason.
func (s *TextSink) BuildFailed(r build.Reason) {
	s.Println(Colorf(BrightRed, "Build failed: %s", r))
}

// BlockRemoved writes a destruction notice.
func (s *TextSink) BlockRemoved(e *block.Entity) {
	s.Println(Colorf(Red, "%s at %s was destroyed", e.Type.Name, e.Cell))
}

// ResourcesChanged writes the total pool line.
func (s *TextSink) ResourcesChanged(current, capacity int) {
	s.Printf("Resources: %d / %d", current, capacity)
}

// ResourceLow writes a low-resource warning.
func (s *TextSink) ResourceLow(typeID string) {
	s.Println(Colorf(BrightYellow, "%s is running low", s.name(typeID)))
}

// AvailabilityChanged writes whether a type can be afforded again.
func (s *TextSink) AvailabilityChanged(typeID string, available bool) {
	if available {
		s.Println(Colorf(Green, "%s is available", s.name(typeID)))
		return
	}
	s.Println(Colorf(Yellow, "%s is unavailable", s.name(typeID)))
}

// StepFinished writes the clock transitions, hazard reports and input
// errors of a simulation step. Register it with Engine.OnStep.
func (s *TextSink) StepFinished(res simulation.StepResult) {
	for _, ev := range res.DayEvents {
		switch ev.Kind {
		case daycycle.NewDay:
			s.Println(Colorf(Bold+BrightYellow, "Day %d begins. Resources regenerated.", ev.Day))
		case daycycle.NightStarted:
			s.Println(Colorf(Bold+Blue, "Night falls on day %d.", ev.Day))
		}
	}
	for _, rep := range res.Hazards {
		s.Println(Colorize(Magenta, rep.String()))
	}
	for _, err := range res.Errors {
		s.Println(Colorf(Red, "error: %v", err))
	}
}

// Status writes a status summary followed by one line per damaged block.
func (s *TextSink) Status(st simulation.Status) {
	mode := "OFF"
	if st.BuildMode {
		mode = "ON"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Day %d (%s %d%%, %d ticks left) | building mode %s | selected %s | %d blocks",
		st.Day, st.Phase, int(st.Progress*100), st.Remaining, mode, st.Selected, st.Blocks)
	for _, d := range st.Damaged {
		color := Yellow
		if d.Health <= d.MaxHealth/4 {
			color = Red
		}
		b.WriteString("\n  ")
		b.WriteString(Colorf(color, "%s at %s: %s (%g/%g)", d.Name, d.Cell, d.Condition, d.Health, d.MaxHealth))
	}
	s.Println(b.String())
	s.Println(strings.TrimRight(st.Resources, "\n"))
}

// Blocks writes the numbered catalog with each type's pool and the number
// of blocks of that type standing.
func (s *TextSink) Blocks(view View) {
	pools := view.Pools()
	placed := view.Status().Placed
	var b strings.Builder
	for i, t := range s.catalog.All() {
		fmt.Fprintf(&b, "%2d. %-12s cost %d  hp %g", i+1, t.Name, t.Cost, t.MaxHealth)
		if i < len(pools) && pools[i].TypeID == t.ID {
			p := pools[i]
			color := Green
			if !p.Affordable() {
				color = Red
			}
			b.WriteString("  ")
			b.WriteString(Colorf(color, "%d/%d", p.Current, p.Max))
		}
		if n := placed[t.ID]; n > 0 {
			fmt.Fprintf(&b, "  placed %d", n)
		}
		if i < s.catalog.Len()-1 {
			b.WriteByte('\n')
		}
	}
	s.Println(b.String())
}

// Help writes the command list.
func (s *TextSink) Help(reg *Registry) {
	var b strings.Builder
	b.WriteString(Colorize(Bold, "Commands:"))
	for _, cmd := range reg.Commands() {
		fmt.Fprintf(&b, "\n  %-24s %s", cmd.Usage, cmd.Help)
		if len(cmd.Aliases) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(cmd.Aliases, ", "))
		}
	}
	s.Println(b.String())
}
