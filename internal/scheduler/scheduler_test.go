package scheduler

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/silence-with-sound/internal/eventloop"
	"github.com/llehouerou/silence-with-sound/internal/interval"
	"github.com/llehouerou/silence-with-sound/internal/player"
)

const testRate beep.SampleRate = 1000

func silentClip(d time.Duration) *player.Clip {
	return player.NewClip(
		beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2},
		beep.Silence(testRate.N(d)),
	)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "Idle", Idle.String())
	assert.Equal(t, "Waiting", Waiting.String())
	assert.Equal(t, "Playing", Playing.String())
	assert.Equal(t, "Terminated", Terminated.String())
	assert.Equal(t, "Unknown", State(42).String())
	assert.True(t, Waiting.IsActive())
	assert.False(t, Terminated.IsActive())
}

func TestBlocking_OncePlaysImmediately(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		clip := silentClip(time.Second)
		out := player.NewMock(clip.Duration())
		b := &Blocking{
			Clip:    clip,
			Output:  out,
			Sampler: interval.NewSeededSampler(1),
			Range:   interval.Idle,
			Once:    true,
		}

		began := time.Now()
		require.NoError(t, b.Run(context.Background()))

		assert.Equal(t, time.Second, time.Since(began))
		require.Len(t, out.Appends(), 1)
		assert.Zero(t, out.Appends()[0].Sub(began))
		assert.Equal(t, []int{clip.Len()}, out.Frames())
		assert.Equal(t, 1, out.Waits())
		assert.Equal(t, 1, b.Plays())
		assert.Equal(t, Terminated, b.State())
	})
}

func TestBlocking_LoopWaitsThenPlaysToCompletion(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		const seed = 99
		r := interval.Range{Max: 10 * time.Second}
		clip := silentClip(2 * time.Second)
		out := player.NewMock(clip.Duration())
		b := &Blocking{
			Clip:    clip,
			Output:  out,
			Sampler: interval.NewSeededSampler(seed),
			Range:   r,
		}

		ctx, cancel := context.WithCancel(context.Background())
		began := time.Now()
		errc := make(chan error, 1)
		go func() { errc <- b.Run(ctx) }()

		time.Sleep(2 * time.Minute)
		cancel()
		require.ErrorIs(t, <-errc, context.Canceled)
		assert.Equal(t, Terminated, b.State())

		appends := out.Appends()
		require.GreaterOrEqual(t, len(appends), 9, "at most 12s per cycle over 2 minutes")

		// Replay the same draws to predict every append.
		expect := interval.NewSeededSampler(seed)
		at := began.Add(expect.Next(r))
		for i, got := range appends {
			assert.Zero(t, got.Sub(at), "append %d", i)
			at = at.Add(clip.Duration() + expect.Next(r))
		}
		assert.GreaterOrEqual(t, b.Plays(), len(appends)-1)
	})
}

func TestBlocking_CancelDuringPlayback(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		clip := silentClip(time.Minute)
		out := player.NewMock(clip.Duration())
		b := &Blocking{
			Clip:    clip,
			Output:  out,
			Sampler: interval.NewSeededSampler(3),
			Range:   interval.Short,
		}

		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() { errc <- b.Run(ctx) }()

		time.Sleep(10 * time.Second)
		synctest.Wait()
		assert.Equal(t, Playing, b.State())

		cancel()
		require.ErrorIs(t, <-errc, context.Canceled)
		assert.Zero(t, b.Plays())
	})
}

// runLoop starts an event loop for the duration of the test bubble.
func runLoop(t *testing.T) *eventloop.Loop {
	t.Helper()
	l := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l
}

func TestCooperative_RearmsAfterEachPlay(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		const seed = 5
		l := runLoop(t)
		clip := silentClip(3 * time.Second)
		out := player.NewMock(0)
		c := NewCooperative(l, clip, out, interval.NewSeededSampler(seed), interval.Short, nil)

		began := time.Now()
		require.NoError(t, l.Do(context.Background(), c.Start))

		time.Sleep(time.Minute)
		synctest.Wait()

		var plays int
		require.NoError(t, l.Do(context.Background(), func() {
			plays = c.Plays()
			assert.Equal(t, Waiting, c.State())
			assert.True(t, c.Next().After(time.Now()))
		}))

		appends := out.Appends()
		require.Len(t, appends, plays)
		require.GreaterOrEqual(t, plays, 7, "at most 8s per cycle over a minute")

		expect := interval.NewSeededSampler(seed)
		at := began
		for i, got := range appends {
			at = at.Add(expect.Next(interval.Short) + clip.Duration())
			assert.Zero(t, got.Sub(at), "append %d", i)
		}
	})
}

func TestCooperative_FirstPlayIsDelayed(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l := runLoop(t)
		clip := silentClip(2 * time.Second)
		out := player.NewMock(0)
		c := NewCooperative(l, clip, out, interval.NewSeededSampler(1), interval.Short, nil)

		require.NoError(t, l.Do(context.Background(), c.Start))
		time.Sleep(clip.Duration() - time.Nanosecond)
		synctest.Wait()
		assert.Empty(t, out.Appends(), "nothing plays before the clip length has elapsed")
	})
}

func TestCooperative_StopAtVaryingOffsets(t *testing.T) {
	clipLen := 2 * time.Second
	const seed = 11
	firstFire := interval.NewSeededSampler(seed).Next(interval.Short) + clipLen

	offsets := []time.Duration{
		0,
		time.Millisecond,
		firstFire / 2,
		firstFire - time.Millisecond,
		firstFire - time.Nanosecond,
		firstFire,
		firstFire + time.Nanosecond,
		firstFire + time.Millisecond,
		3 * firstFire,
	}

	for _, offset := range offsets {
		t.Run(offset.String(), func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				l := runLoop(t)
				out := player.NewMock(0)
				c := NewCooperative(l, silentClip(clipLen), out, interval.NewSeededSampler(seed), interval.Short, nil)
				require.NoError(t, l.Do(context.Background(), c.Start))

				time.Sleep(offset)
				var atStop int
				require.NoError(t, l.Do(context.Background(), func() {
					c.Stop()
					atStop = len(out.Appends())
				}))

				time.Sleep(time.Minute)
				synctest.Wait()

				assert.Len(t, out.Appends(), atStop, "no play after stop")
				require.NoError(t, l.Do(context.Background(), func() {
					assert.Equal(t, Terminated, c.State())
					assert.True(t, c.Next().IsZero())
				}))
			})
		})
	}
}

func TestCooperative_StartIsIdempotent(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		const seed = 2
		clip := silentClip(time.Second)
		expect := interval.NewSeededSampler(seed)
		first := expect.Next(interval.Short) + clip.Duration()
		second := first + expect.Next(interval.Short) + clip.Duration()

		l := runLoop(t)
		out := player.NewMock(0)
		c := NewCooperative(l, clip, out, interval.NewSeededSampler(seed), interval.Short, nil)

		require.NoError(t, l.Do(context.Background(), func() {
			c.Start()
			c.Start()
		}))
		time.Sleep(second - time.Nanosecond)
		synctest.Wait()
		assert.Len(t, out.Appends(), 1, "a second Start must not arm a second timer")

		require.NoError(t, l.Do(context.Background(), func() {
			c.Stop()
			c.Start()
			assert.Equal(t, Terminated, c.State())
		}))
	})
}
