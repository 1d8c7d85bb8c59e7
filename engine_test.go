package duotoneanim

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineRejectsBadInput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		w, h int
		rgba []uint8
		opts Options
	}{
		{"zero width", 0, 4, nil, DefaultOptions()},
		{"short buffer", 2, 2, make([]uint8, 15), DefaultOptions()},
		{"bad options", 1, 1, make([]uint8, 4), Options{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.w, tt.h, tt.rgba, tt.opts)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestBatchesKeepInvariants(t *testing.T) {
	t.Parallel()
	e := prepareBits(t, 40, 40, twoBlobs(), seeded(21))
	player := NewPlayer(40, 40, e.firstRGBA, e.Ready())

	changed := 0
	for i := 1; i < e.batchCount; i++ {
		before := slices.Clone(e.state)
		frame := player.RGBA()
		b := e.NextBatch()
		require.Equal(t, i, b.Index)

		for p := range e.grid.Len() {
			d, ok := b.Deltas[p]
			if before[p] != e.state[p] {
				require.True(t, ok, "pixel %d changed polarity without a delta", p)
			}
			if ok {
				require.Positive(t, d.FlipCount)
				require.Equal(t, before[p] != e.state[p], d.FlipCount%2 == 1, "parity of pixel %d", p)
			}
		}
		requireBordersConsistent(t, e)
		requireQueuesConsistent(t, e)

		player.Forward(b)
		player.Backward(b)
		require.Equal(t, frame, player.RGBA(), "batch %d replays back to its start", i)
		player.Forward(b)
		require.Equal(t, e.state, player.State())
		changed += len(b.Deltas)
	}
	assert.Positive(t, changed)
	assert.Equal(t, e.rgba, player.RGBA())
	assert.Equal(t, e.batchCount-1, player.Frame())
}

func TestEngineDeterministic(t *testing.T) {
	t.Parallel()
	a := prepareBits(t, 40, 40, twoBlobs(), seeded(99))
	b := prepareBits(t, 40, 40, twoBlobs(), seeded(99))
	for range 10 {
		if diff := cmp.Diff(a.NextBatch(), b.NextBatch()); diff != "" {
			t.Fatalf("batches differ (-a +b):\n%s", diff)
		}
	}
	if diff := cmp.Diff(a.Snapshot(), b.Snapshot()); diff != "" {
		t.Errorf("snapshots differ (-a +b):\n%s", diff)
	}
}

func TestCheckerboardNeverMutates(t *testing.T) {
	t.Parallel()
	e := prepareBits(t, 10, 10, checkerboard(10, 10), seeded(1))
	require.Equal(t, 60, e.batchCount)
	for range e.batchCount - 1 {
		assert.Empty(t, e.NextBatch().Deltas)
	}
	assert.Equal(t, checkerboard(10, 10), e.state)
}

func collect(t *testing.T, msg Inbound, opts Options) ([]Outbound, error) {
	t.Helper()
	var out []Outbound
	err := Run(context.Background(), msg, opts, func(o Outbound) error {
		out = append(out, o)
		return nil
	})
	return out, err
}

func TestRunUniformImage(t *testing.T) {
	t.Parallel()
	rgba := slices.Repeat([]uint8{255, 255, 255, 255}, 16)
	out, err := collect(t, StartFresh{Width: 4, Height: 4, RGBA: rgba}, seeded(1))
	require.NoError(t, err)
	require.Len(t, out, 2)

	ready, ok := out[0].(DuotoneReady)
	require.True(t, ok)
	assert.Equal(t, 1, ready.FrameBatchCount)
	assert.Equal(t, 1, ready.FrameBatchSize)
	assert.False(t, ScheduleState{FrameBatchCount: ready.FrameBatchCount}.Animatable())
	for _, b := range ready.FirstFrameBinaryState {
		assert.Equal(t, ready.FirstFrameBinaryState[0], b, "one group covers the grid")
	}

	done, ok := out[1].(Done)
	require.True(t, ok)
	assert.Empty(t, done.State.GroupRecords)
	assert.NotEmpty(t, done.RunID)
}

func TestRunAndContinue(t *testing.T) {
	t.Parallel()
	rgba := renderBits(twoBlobs())
	opts := seeded(31)
	out, err := collect(t, StartFresh{Width: 40, Height: 40, RGBA: rgba}, opts)
	require.NoError(t, err)

	ready, ok := out[0].(DuotoneReady)
	require.True(t, ok)
	require.Len(t, out, ready.FrameBatchCount+1)
	for i, o := range out[1 : len(out)-1] {
		b, ok := o.(FrameBatch)
		require.True(t, ok, "message %d is %s", i+1, o.Kind())
		assert.Equal(t, i+1, b.Index)
	}
	done, ok := out[len(out)-1].(Done)
	require.True(t, ok)

	data, err := json.Marshal(NewContinue(40, 40, rgba, ready, done))
	require.NoError(t, err)
	var cont Continue
	require.NoError(t, json.Unmarshal(data, &cont))

	restored, err := Restore(cont, opts)
	require.NoError(t, err)
	if diff := cmp.Diff(done.State, restored.Snapshot()); diff != "" {
		t.Fatalf("restored state differs (-done +restored):\n%s", diff)
	}
	requireBordersConsistent(t, restored)
	requireQueuesConsistent(t, restored)

	next, err := collect(t, cont, opts)
	require.NoError(t, err)
	require.Len(t, next, ready.FrameBatchCount)
	assert.Equal(t, "frame-batch", next[0].Kind())
	assert.Equal(t, "done", next[len(next)-1].Kind())
}

func TestRestoreRejectsMismatchedState(t *testing.T) {
	t.Parallel()
	e := prepareBits(t, 40, 40, twoBlobs(), seeded(1))
	cont := Continue{Width: 40, Height: 40, Schedule: e.Schedule(), State: e.Snapshot()}

	_, err := Restore(cont, seeded(1))
	require.NoError(t, err)

	bad := cont
	bad.Width = 41
	_, err = Restore(bad, seeded(1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	bad = cont
	bad.State.GroupRecords = append(slices.Clone(cont.State.GroupRecords), cont.State.GroupRecords[0])
	_, err = Restore(bad, seeded(1))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = collect(t, nil, seeded(1))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStartHonorsCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, errc := Start(ctx, StartFresh{Width: 40, Height: 40, RGBA: renderBits(twoBlobs())}, seeded(1))
	n := 0
	for range out {
		n++
	}
	err := <-errc
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, n, 1, "at most the ready message slips through")
}

func TestStartStreamsRun(t *testing.T) {
	t.Parallel()
	out, errc := Start(context.Background(), StartFresh{Width: 10, Height: 10, RGBA: renderBits(checkerboard(10, 10))}, seeded(1))
	var kinds []string
	for o := range out {
		kinds = append(kinds, o.Kind())
	}
	require.NoError(t, <-errc)
	require.NotEmpty(t, kinds)
	assert.Equal(t, "duotone-ready", kinds[0])
	assert.Equal(t, "done", kinds[len(kinds)-1])
}

func TestRunStopsOnEmitError(t *testing.T) {
	t.Parallel()
	boom := errors.New("host gone")
	calls := 0
	err := Run(context.Background(), StartFresh{Width: 40, Height: 40, RGBA: renderBits(twoBlobs())}, seeded(1),
		func(Outbound) error {
			calls++
			if calls == 3 {
				return boom
			}
			return nil
		})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}
