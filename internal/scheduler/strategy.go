package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	sperrors "stageport.dev/stageport/internal/errors"
)

// Strategy decides when a requested commit actually runs. A strategy never
// changes what is committed, only when.
type Strategy interface {
	// Request asks for commit to run. Repeated requests may be coalesced.
	Request(commit func())
	// Cancel drops any commit that has been requested but not run
	Cancel()
}

// Kind names a commit strategy
type Kind string

const (
	// KindImmediate commits synchronously on every request
	KindImmediate Kind = "immediate"
	// KindNextTick coalesces requests into one commit on the next loop tick
	KindNextTick Kind = "next-tick"
	// KindDebounced commits once after requests have been quiet for a while
	KindDebounced Kind = "debounced"
)

// Kinds lists every supported strategy
var Kinds = []Kind{KindImmediate, KindNextTick, KindDebounced}

// ParseKind parses a strategy name
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindImmediate, KindNextTick, KindDebounced:
		return k, nil
	case "":
		return KindImmediate, nil
	}
	return "", fmt.Errorf("%w: %q (want one of %v)", sperrors.ErrUnknownStrategy, s, Kinds)
}

// Factory builds a fresh strategy for each container manager
type Factory func() Strategy

// NewFactory returns a factory for the given kind. The loop and clock are only
// used by the strategies that need them.
func NewFactory(kind Kind, loop *Loop, clk clock.Clock, debounce time.Duration) (Factory, error) {
	switch kind {
	case KindImmediate, "":
		return func() Strategy { return Immediate() }, nil
	case KindNextTick:
		return func() Strategy { return NextTick(loop) }, nil
	case KindDebounced:
		return func() Strategy { return Debounced(loop, clk, debounce) }, nil
	}
	return nil, fmt.Errorf("%w: %q", sperrors.ErrUnknownStrategy, kind)
}

type immediate struct{}

// Immediate returns a strategy that commits on every request
func Immediate() Strategy {
	return immediate{}
}

func (immediate) Request(commit func()) { commit() }
func (immediate) Cancel()               {}

type nextTick struct {
	loop      Deferrer
	scheduled bool
	canceled  bool
	commit    func()
}

// NextTick returns a strategy that runs at most one commit per loop tick
func NextTick(loop Deferrer) Strategy {
	return &nextTick{loop: loop}
}

func (s *nextTick) Request(commit func()) {
	s.commit = commit
	s.canceled = false
	if s.scheduled {
		return
	}
	s.scheduled = true
	s.loop.Defer(func() {
		s.scheduled = false
		if s.canceled || s.commit == nil {
			return
		}
		fn := s.commit
		s.commit = nil
		fn()
	})
}

func (s *nextTick) Cancel() {
	s.canceled = true
	s.commit = nil
}

type debounced struct {
	loop  *Loop
	clock clock.Clock
	wait  time.Duration

	timer *clock.Timer
	alarm *Alarm
	gen   uint64
}

// Debounced returns a strategy that commits once, on the loop, after wait has
// passed without a new request.
func Debounced(loop *Loop, clk clock.Clock, wait time.Duration) Strategy {
	if clk == nil {
		clk = clock.New()
	}
	return &debounced{loop: loop, clock: clk, wait: wait}
}

func (s *debounced) Request(commit func()) {
	s.stop()
	s.gen++
	gen := s.gen
	alarm := s.loop.Arm(s.clock.Now().Add(s.wait))
	s.alarm = alarm
	s.timer = s.clock.AfterFunc(s.wait, func() {
		alarm.Post(func() {
			// a newer request or a cancel superseded this one
			if gen != s.gen {
				return
			}
			s.timer, s.alarm = nil, nil
			commit()
		})
	})
}

func (s *debounced) Cancel() {
	s.stop()
	s.gen++
}

// stop halts a pending timer. A timer that already fired still posts, and
// the generation check drops its commit.
func (s *debounced) stop() {
	if s.timer != nil && s.timer.Stop() {
		s.alarm.Disarm()
	}
	s.timer, s.alarm = nil, nil
}
