package instance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/silence-with-sound/internal/eventloop"
	"github.com/llehouerou/silence-with-sound/internal/interval"
	"github.com/llehouerou/silence-with-sound/internal/player"
	"github.com/llehouerou/silence-with-sound/internal/scheduler"
	"github.com/llehouerou/silence-with-sound/internal/window"
)

var errNoSuchFile = errors.New("no such file")

// fakeBuilder returns silent clips as long as the window, or the full
// length for unbounded windows. Sources listed in fail return errNoSuchFile.
type fakeBuilder struct {
	mu     sync.Mutex
	full   time.Duration
	fail   map[string]bool
	builds []window.Window
}

func (b *fakeBuilder) Build(w window.Window) (*player.Clip, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.builds = append(b.builds, w)
	if b.fail[w.Source] {
		return nil, errNoSuchFile
	}
	d := b.full - w.Start
	if w.Bounded() {
		d = min(d, w.Duration)
	}
	const rate beep.SampleRate = 1000
	return player.NewClip(beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}, beep.Silence(rate.N(d))), nil
}

// outputs hands out mock outputs and remembers them.
type outputs struct {
	mu    sync.Mutex
	mocks []*player.Mock
	err   error
}

func (o *outputs) open() (player.Output, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	m := player.NewMock(0)
	o.mocks = append(o.mocks, m)
	return m, nil
}

func (o *outputs) get(i int) *player.Mock {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mocks[i]
}

type fixture struct {
	reg     *Registry
	builder *fakeBuilder
	outs    *outputs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	l := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})

	f := &fixture{
		builder: &fakeBuilder{full: 3 * time.Second, fail: map[string]bool{"missing.mp3": true}},
		outs:    &outputs{},
	}
	f.reg = NewRegistry(l, f.builder, f.outs.open,
		WithSampler(interval.NewSeededSampler(1)),
		WithTitles(func(path string) string { return "title of " + path }),
	)
	return f
}

func TestRegistry_ActivatePlaysIndependently(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		a, err := f.reg.Activate(ctx, "rain.flac", window.Options{})
		require.NoError(t, err)
		b, err := f.reg.Activate(ctx, "birds.mp3", window.Options{Volume: window.Ptr(0.3)})
		require.NoError(t, err)
		assert.NotEqual(t, a, b)

		time.Sleep(time.Minute)
		synctest.Wait()

		infos, err := f.reg.List(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, a, infos[0].ID)
		assert.Equal(t, "title of rain.flac", infos[0].Title)
		assert.Equal(t, b, infos[1].ID)
		assert.InDelta(t, 0.3, infos[1].Window.Gain, 1e-9)
		for i, info := range infos {
			assert.Equal(t, scheduler.Waiting, info.State)
			assert.Equal(t, 3*time.Second, info.Clip)
			assert.Positive(t, info.Plays)
			assert.Len(t, f.outs.get(i).Appends(), info.Plays, "each instance plays on its own output")
		}
	})
}

func TestRegistry_ActivateFailures(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		keep, err := f.reg.Activate(ctx, "rain.flac", window.Options{})
		require.NoError(t, err)

		_, err = f.reg.Activate(ctx, "missing.mp3", window.Options{})
		require.ErrorIs(t, err, errNoSuchFile)

		_, err = f.reg.Activate(ctx, "rain.flac", window.Options{End: window.Ptr(time.Second), Duration: window.Ptr(time.Second)})
		require.ErrorIs(t, err, window.ErrConflictingLength)

		f.outs.mu.Lock()
		f.outs.err = errors.New("no audio device")
		f.outs.mu.Unlock()
		_, err = f.reg.Activate(ctx, "rain.flac", window.Options{})
		require.Error(t, err)

		infos, err := f.reg.List(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, keep, infos[0].ID)
		assert.Equal(t, scheduler.Waiting, infos[0].State)
	})
}

func TestRegistry_Reconfigure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		id, err := f.reg.Activate(ctx, "rain.flac", window.Options{})
		require.NoError(t, err)
		first := f.outs.get(0)

		opts := window.Options{Volume: window.Ptr(2.0), Start: window.Ptr(time.Second), End: window.Ptr(1500 * time.Millisecond)}
		require.NoError(t, f.reg.Reconfigure(ctx, id, opts))
		assert.True(t, first.Closed(), "old output is released")
		before := len(first.Appends())

		time.Sleep(time.Minute)
		synctest.Wait()

		infos, err := f.reg.List(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, id, infos[0].ID)
		assert.Equal(t, time.Second, infos[0].Window.Start)
		assert.Equal(t, 500*time.Millisecond, infos[0].Window.Duration)
		assert.Equal(t, 500*time.Millisecond, infos[0].Clip)
		assert.Equal(t, opts, infos[0].Options)

		assert.Len(t, first.Appends(), before, "old schedule no longer fires")
		assert.Len(t, f.outs.get(1).Appends(), infos[0].Plays)
	})
}

func TestRegistry_ReconfigureErrorKeepsInstance(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		id, err := f.reg.Activate(ctx, "rain.flac", window.Options{})
		require.NoError(t, err)

		err = f.reg.Reconfigure(ctx, id, window.Options{Start: window.Ptr(2 * time.Second), End: window.Ptr(time.Second)})
		require.ErrorIs(t, err, window.ErrEndBeforeStart)

		assert.False(t, f.outs.get(0).Closed())
		time.Sleep(time.Minute)
		synctest.Wait()
		assert.NotEmpty(t, f.outs.get(0).Appends(), "instance keeps playing its old configuration")

		err = f.reg.Reconfigure(ctx, "nope", window.Options{})
		assert.ErrorIs(t, err, ErrUnknownInstance)
	})
}

func TestRegistry_Deactivate(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		a, err := f.reg.Activate(ctx, "rain.flac", window.Options{})
		require.NoError(t, err)
		_, err = f.reg.Activate(ctx, "birds.mp3", window.Options{})
		require.NoError(t, err)

		require.NoError(t, f.reg.Deactivate(ctx, a))
		assert.True(t, f.outs.get(0).Closed())
		assert.False(t, f.outs.get(1).Closed())

		time.Sleep(time.Minute)
		synctest.Wait()
		assert.Empty(t, f.outs.get(0).Appends(), "deactivated before its first wait expired")
		assert.NotEmpty(t, f.outs.get(1).Appends())

		assert.ErrorIs(t, f.reg.Deactivate(ctx, a), ErrUnknownInstance)
		infos, err := f.reg.List(ctx)
		require.NoError(t, err)
		assert.Len(t, infos, 1)
	})
}

func TestRegistry_DeactivateAll(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		for _, src := range []string{"a.wav", "b.wav", "c.wav"} {
			_, err := f.reg.Activate(ctx, src, window.Options{})
			require.NoError(t, err)
		}
		time.Sleep(20 * time.Second)

		require.NoError(t, f.reg.DeactivateAll(ctx))
		counts := make([]int, 3)
		for i := range counts {
			m := f.outs.get(i)
			assert.True(t, m.Closed())
			counts[i] = len(m.Appends())
		}

		time.Sleep(time.Minute)
		synctest.Wait()
		for i := range counts {
			assert.Len(t, f.outs.get(i).Appends(), counts[i], "no timer survives teardown")
		}

		infos, err := f.reg.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, infos)
		require.NoError(t, f.reg.DeactivateAll(ctx))
	})
}

// holdLoop keeps the event loop busy until the returned func is called.
func holdLoop(t *testing.T, f *fixture) func() {
	t.Helper()
	release := make(chan struct{})
	require.True(t, f.reg.loop.Post(func() { <-release }))
	return func() { close(release) }
}

func TestRegistry_CancelledCallsLeaveNoTrace(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		kept, err := f.reg.Activate(ctx, "rain.flac", window.Options{})
		require.NoError(t, err)

		release := holdLoop(t, f)
		cctx, cancel := context.WithCancel(ctx)

		type result struct {
			name string
			err  error
		}
		results := make(chan result, 3)
		go func() {
			_, err := f.reg.Activate(cctx, "birds.mp3", window.Options{})
			results <- result{"activate", err}
		}()
		go func() {
			results <- result{"reconfigure", f.reg.Reconfigure(cctx, kept, window.Options{Volume: window.Ptr(0.5)})}
		}()
		synctest.Wait()
		cancel()
		for range 2 {
			r := <-results
			assert.ErrorIs(t, r.err, context.Canceled, r.name)
		}
		release()

		time.Sleep(time.Minute)
		synctest.Wait()

		infos, err := f.reg.List(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 1, "cancelled activation creates no instance")
		assert.Equal(t, kept, infos[0].ID)
		assert.InDelta(t, 1.0, infos[0].Window.Gain, 1e-9, "cancelled reconfigure changes nothing")
		assert.False(t, f.outs.get(0).Closed())
		assert.NotEmpty(t, f.outs.get(0).Appends())

		// Outputs opened for the cancelled calls are released.
		f.outs.mu.Lock()
		extra := f.outs.mocks[1:]
		f.outs.mu.Unlock()
		for _, m := range extra {
			assert.True(t, m.Closed())
			assert.Empty(t, m.Appends())
		}

		// A cancelled deactivation leaves the instance running.
		release = holdLoop(t, f)
		cctx, cancel = context.WithCancel(ctx)
		go func() { results <- result{"deactivate", f.reg.Deactivate(cctx, kept)} }()
		synctest.Wait()
		cancel()
		r := <-results
		assert.ErrorIs(t, r.err, context.Canceled, r.name)
		release()

		infos, err = f.reg.List(ctx)
		require.NoError(t, err)
		assert.Len(t, infos, 1)
		require.NoError(t, f.reg.Deactivate(ctx, kept))
		assert.True(t, f.outs.get(0).Closed())
	})
}
