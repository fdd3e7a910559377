package scheduler_test

import (
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	sperrors "stageport.dev/stageport/internal/errors"
	"stageport.dev/stageport/internal/scheduler"
)

func TestLoop(t *testing.T) {
	t.Parallel()

	t.Run("runs deferred work on the next tick only", func(t *testing.T) {
		t.Parallel()
		loop := scheduler.NewLoop()
		var order []string

		loop.Defer(func() {
			order = append(order, "first")
			loop.Defer(func() { order = append(order, "nested") })
		})
		loop.Defer(func() { order = append(order, "second") })
		require.Empty(t, order)
		require.Equal(t, 2, loop.Pending())

		require.Equal(t, 2, loop.Tick())
		require.Equal(t, []string{"first", "second"}, order)
		require.Equal(t, 1, loop.Pending())

		require.Equal(t, 1, loop.Tick())
		require.Equal(t, []string{"first", "second", "nested"}, order)
		require.Equal(t, uint64(2), loop.Ticks())
	})

	t.Run("post hands work back from other goroutines", func(t *testing.T) {
		t.Parallel()
		loop := scheduler.NewLoop()
		done := make(chan struct{})
		ran := false

		go func() {
			loop.Post(func() { ran = true })
			close(done)
		}()
		<-done

		select {
		case <-loop.Wake():
		case <-time.After(time.Second):
			t.Fatal("post did not signal wake")
		}
		loop.Tick()
		require.True(t, ran)
	})

	t.Run("drain stops when idle", func(t *testing.T) {
		t.Parallel()
		loop := scheduler.NewLoop()
		count := 0
		var step func()
		step = func() {
			count++
			if count < 3 {
				loop.Defer(step)
			}
		}
		loop.Defer(step)

		require.Equal(t, 3, loop.Drain())
		require.Equal(t, 3, count)
		require.Zero(t, loop.Drain())
	})
}

func TestAlarms(t *testing.T) {
	t.Parallel()

	loop := scheduler.NewLoop()
	start := time.Unix(0, 0)
	early := loop.Arm(start.Add(10 * time.Millisecond))
	late := loop.Arm(start.Add(30 * time.Millisecond))
	stopped := loop.Arm(start.Add(5 * time.Millisecond))

	require.Zero(t, loop.Due(start))
	require.Equal(t, 2, loop.Due(start.Add(10*time.Millisecond)))

	stopped.Disarm()
	require.Equal(t, 1, loop.Due(start.Add(10*time.Millisecond)))

	ran := false
	early.Post(func() { ran = true })
	require.Zero(t, loop.Due(start.Add(10*time.Millisecond)))
	require.Equal(t, 1, loop.Due(start.Add(time.Second)))
	require.Equal(t, 1, loop.Pending())

	select {
	case <-loop.Wake():
	default:
		t.Fatal("alarm post did not signal wake")
	}
	loop.Tick()
	require.True(t, ran)

	late.Disarm()
	require.Zero(t, loop.Due(start.Add(time.Second)))
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"immediate", "next-tick", "DEBOUNCED", " immediate "} {
		_, err := scheduler.ParseKind(s)
		require.NoError(t, err, s)
	}

	k, err := scheduler.ParseKind("")
	require.NoError(t, err)
	require.Equal(t, scheduler.KindImmediate, k)

	_, err = scheduler.ParseKind("animation-frame")
	require.Error(t, err)
	require.True(t, errors.Is(err, sperrors.ErrUnknownStrategy))
}

func TestImmediate(t *testing.T) {
	t.Parallel()

	commits := 0
	s := scheduler.Immediate()
	s.Request(func() { commits++ })
	s.Request(func() { commits++ })
	require.Equal(t, 2, commits)
}

func TestNextTick(t *testing.T) {
	t.Parallel()

	t.Run("coalesces requests within one tick", func(t *testing.T) {
		t.Parallel()
		loop := scheduler.NewLoop()
		s := scheduler.NextTick(loop)
		var got []int

		for i := 1; i <= 3; i++ {
			s.Request(func() { got = append(got, i) })
		}
		require.Empty(t, got)

		loop.Tick()
		require.Equal(t, []int{3}, got)

		s.Request(func() { got = append(got, 4) })
		loop.Tick()
		require.Equal(t, []int{3, 4}, got)
	})

	t.Run("cancel drops the pending commit", func(t *testing.T) {
		t.Parallel()
		loop := scheduler.NewLoop()
		s := scheduler.NextTick(loop)
		commits := 0

		s.Request(func() { commits++ })
		s.Cancel()
		loop.Drain()
		require.Zero(t, commits)
	})
}

func TestDebounced(t *testing.T) {
	t.Parallel()

	t.Run("commits once after a quiet period", func(t *testing.T) {
		t.Parallel()
		loop := scheduler.NewLoop()
		mock := clock.NewMock()
		s := scheduler.Debounced(loop, mock, 100*time.Millisecond)
		var got []int

		for i := 1; i <= 5; i++ {
			s.Request(func() { got = append(got, i) })
			mock.Add(50 * time.Millisecond)
		}
		loop.Tick()
		require.Empty(t, got, "no commit while requests keep arriving")

		require.Zero(t, loop.Due(mock.Now()), "superseded timers are disarmed")
		require.Equal(t, 1, loop.Due(mock.Now().Add(100*time.Millisecond)))

		mock.Add(100 * time.Millisecond)
		require.Eventually(t, func() bool { return loop.Pending() > 0 }, time.Second, time.Millisecond)
		require.Zero(t, loop.Due(mock.Now()))
		loop.Tick()
		require.Equal(t, []int{5}, got)
	})

	t.Run("cancel suppresses a timer that already fired", func(t *testing.T) {
		t.Parallel()
		loop := scheduler.NewLoop()
		mock := clock.NewMock()
		s := scheduler.Debounced(loop, mock, 10*time.Millisecond)
		commits := 0

		s.Request(func() { commits++ })
		mock.Add(10 * time.Millisecond)
		require.Eventually(t, func() bool { return loop.Pending() > 0 }, time.Second, time.Millisecond)

		s.Cancel()
		loop.Tick()
		require.Zero(t, commits)
	})
}

func TestNewFactory(t *testing.T) {
	t.Parallel()

	loop := scheduler.NewLoop()
	for _, kind := range scheduler.Kinds {
		f, err := scheduler.NewFactory(kind, loop, clock.NewMock(), time.Millisecond)
		require.NoError(t, err)
		require.NotNil(t, f())
	}

	_, err := scheduler.NewFactory("bogus", loop, nil, 0)
	require.ErrorIs(t, err, sperrors.ErrUnknownStrategy)
}
