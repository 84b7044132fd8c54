package sidecar

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/x/ansi"

	"github.com/craftgen/craftgen/internal/logging"
)

// Pump forwards a child's output events to the logger.
// Stdout lines are logged at info, stderr lines and termination at error,
// anything else at trace.
type Pump struct {
	logger    *slog.Logger
	stripANSI bool
}

// NewPump creates a pump writing to logger.
func NewPump(logger *slog.Logger, stripANSI bool) *Pump {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pump{logger: logger, stripANSI: stripANSI}
}

// Run drains events until the channel closes or a Terminated event arrives.
// It is never cancelled from outside; killing the process ends it.
func (p *Pump) Run(events <-chan Event) {
	defer logging.LogPanic("sidecar-pump", nil)

	for ev := range events {
		if p.handle(ev) {
			return
		}
	}
}

// handle logs one event and reports whether the pump should stop.
func (p *Pump) handle(ev Event) bool {
	ctx := context.Background()

	switch ev.Kind {
	case KindStdout:
		p.logger.Info(p.text(ev.Line), "stream", "stdout")
	case KindStderr:
		p.logger.Error(p.text(ev.Line), "stream", "stderr")
	case KindTerminated:
		p.logger.Error("edge runtime terminated",
			"code", ev.Status.Code,
			"status", ev.Status.String(),
		)
		return true
	default:
		p.logger.Log(ctx, logging.LevelTrace, "edge runtime event",
			"kind", ev.Kind.String(),
			"error", ev.Err,
		)
	}
	return false
}

func (p *Pump) text(line []byte) string {
	s := string(line)
	if p.stripANSI {
		s = ansi.Strip(s)
	}
	return s
}
