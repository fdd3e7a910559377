// Package scheduler provides the cooperative single-threaded task loop the
// relocation engine runs on, and the commit strategies that decide when a
// container's visible output is refreshed.
package scheduler

import (
	"sync"
	"time"
)

// maxDrainTicks bounds Drain so self-rescheduling work cannot spin forever
const maxDrainTicks = 1000

// Deferrer schedules work for the next tick of the render thread
type Deferrer interface {
	Defer(fn func())
}

// Loop is an explicit next-tick queue. Defer must only be called from the
// render thread; Post may be called from any goroutine (timers, I/O) and hands
// work back to the render thread.
type Loop struct {
	queue []func()
	ticks uint64

	mu     sync.Mutex
	posted []func()
	alarms map[*Alarm]struct{}
	wake   chan struct{}
}

// Alarm tracks work a timer will post to the loop once it fires
type Alarm struct {
	loop *Loop
	at   time.Time
}

// NewLoop creates an empty loop
func NewLoop() *Loop {
	return &Loop{
		alarms: make(map[*Alarm]struct{}),
		wake:   make(chan struct{}, 1),
	}
}

// Defer queues fn for the next tick
func (l *Loop) Defer(fn func()) {
	l.queue = append(l.queue, fn)
}

// Post queues fn for the next tick from any goroutine
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
	l.signal()
}

// Arm registers a timer due at the given time. The timer must either hand its
// work over with Alarm.Post or be stopped and Disarmed.
func (l *Loop) Arm(at time.Time) *Alarm {
	a := &Alarm{loop: l, at: at}
	l.mu.Lock()
	l.alarms[a] = struct{}{}
	l.mu.Unlock()
	return a
}

// Post queues fn for the next tick and retires the alarm in one step
func (a *Alarm) Post(fn func()) {
	l := a.loop
	l.mu.Lock()
	delete(l.alarms, a)
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
	l.signal()
}

// Disarm drops an alarm whose timer was stopped before it fired
func (a *Alarm) Disarm() {
	a.loop.mu.Lock()
	delete(a.loop.alarms, a)
	a.loop.mu.Unlock()
}

// Due returns how many armed timers are past their deadline at now but have
// not posted their work yet
func (l *Loop) Due(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for a := range l.alarms {
		if !a.at.After(now) {
			n++
		}
	}
	return n
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Wake is signalled whenever work is posted from another goroutine
func (l *Loop) Wake() <-chan struct{} {
	return l.wake
}

// Tick runs everything queued before the tick began and returns how many
// tasks ran. Work deferred while the tick is running waits for the next one.
func (l *Loop) Tick() int {
	l.mu.Lock()
	posted := l.posted
	l.posted = nil
	l.mu.Unlock()

	batch := append(l.queue, posted...)
	l.queue = nil
	l.ticks++

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Drain ticks until no work is left and returns the number of ticks that ran
func (l *Loop) Drain() int {
	n := 0
	for l.Pending() > 0 && n < maxDrainTicks {
		l.Tick()
		n++
	}
	return n
}

// Pending returns the number of tasks waiting for the next tick
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue) + len(l.posted)
}

// Ticks returns how many ticks have run
func (l *Loop) Ticks() uint64 {
	return l.ticks
}
