package story

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// Stage is a named presentation step. Run may be nil for pure placeholders.
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
}

// PlaceholderStages turns a chapter's stage labels into no-op stages.
func PlaceholderStages(c Chapter) []Stage {
	out := make([]Stage, len(c.Stages))
	for i, name := range c.Stages {
		out[i] = Stage{Name: name}
	}
	return out
}

// Pacer plays stages one after another, holding each for a fixed delay.
type Pacer struct {
	clock  clockwork.Clock
	delay  time.Duration
	logger *slog.Logger
}

// NewPacer creates a pacer. A zero delay plays stages back to back.
func NewPacer(clock clockwork.Clock, delay time.Duration, logger *slog.Logger) *Pacer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pacer{clock: clock, delay: delay, logger: logger}
}

// Play runs the stages in order and returns the names of those that
// completed. It stops at the first stage error or when ctx is done.
func (p *Pacer) Play(ctx context.Context, stages []Stage) ([]string, error) {
	done := make([]string, 0, len(stages))
	for _, st := range stages {
		if st.Run != nil {
			if err := st.Run(ctx); err != nil {
				return done, err
			}
		}
		if p.delay > 0 {
			select {
			case <-ctx.Done():
				return done, ctx.Err()
			case <-p.clock.After(p.delay):
			}
		}
		p.logger.Debug("stage complete", "stage", st.Name)
		done = append(done, st.Name)
	}
	return done, nil
}
