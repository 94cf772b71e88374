package console

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/gdhsf3701/island/internal/game/block"
	"github.com/gdhsf3701/island/internal/game/economy"
	"github.com/gdhsf3701/island/internal/simulation"
)

// View is the read-only simulation state the console reports on.
// *simulation.Engine satisfies it.
type View interface {
	Status() simulation.Status
	Pools() []economy.Pool
}

// Console reads command lines and forwards the resulting inputs to the
// simulation. It implements the server.Service contract: Start blocks until
// the input ends or quit is typed, then closes the inputs channel and waits
// for Stop.
type Console struct {
	in       io.Reader
	sink     *TextSink
	registry *Registry
	catalog  *block.Catalog
	view     View
	inputs   chan<- simulation.Input
	logger   *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Console reading from in and writing through sink.
//
// Precondition: every argument must be non-nil. The Console owns inputs and
// closes it when Start finishes reading.
func New(in io.Reader, sink *TextSink, registry *Registry, catalog *block.Catalog, view View, inputs chan<- simulation.Input, logger *zap.Logger) *Console {
	return &Console{
		in:       in,
		sink:     sink,
		registry: registry,
		catalog:  catalog,
		view:     view,
		inputs:   inputs,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start reads lines until EOF, quit, or Stop.
//
// Postcondition: the inputs channel is closed; returns after Stop with the
// reader's error, if any.
func (c *Console) Start() error {
	c.sink.Println(Colorize(Bold, "Island ready. Type help for commands."))
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		if !c.Exec(scanner.Text()) {
			break
		}
	}
	close(c.inputs)
	err := scanner.Err()
	if err != nil {
		c.logger.Warn("console input failed", zap.Error(err))
	}
	<-c.stop
	if err != nil {
		return fmt.Errorf("console: reading input: %w", err)
	}
	return nil
}

// Stop releases Start. Safe to call more than once.
func (c *Console) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Exec runs one command line and reports whether the console should keep
// reading.
func (c *Console) Exec(line string) bool {
	res := Parse(line)
	if res.Command == "" {
		return true
	}
	cmd, ok := c.registry.Resolve(res.Command)
	if !ok {
		c.sink.Println(Colorf(Yellow, "Unknown command %q. Type help for a list.", res.Command))
		return true
	}
	c.logger.Debug("console command", zap.String("command", cmd.Name), zap.Strings("args", res.Args))

	switch cmd.Handler {
	case HandlerQuit:
		c.sink.Println("Goodbye.")
		return false
	case HandlerHelp:
		c.sink.Help(c.registry)
		return true
	case HandlerStatus:
		c.sink.Status(c.view.Status())
		return true
	case HandlerBlocks:
		c.sink.Blocks(c.view)
		return true
	}

	inputs, err := Translate(cmd, res.Args, c.catalog)
	if err != nil {
		c.sink.Println(Colorize(Red, err.Error()))
		return true
	}
	for _, in := range inputs {
		select {
		case c.inputs <- in:
		case <-c.stop:
			return false
		}
	}
	return true
}
