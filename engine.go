package duotoneanim

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"
)

// Engine owns the full state of one animation run. It is not safe for
// concurrent use.
type Engine struct {
	opts  Options
	grid  Grid
	rng   *rand.Rand
	runID string

	minArea       float64
	smallestPerim float64

	firstRGBA  []uint8
	rgba       []uint8
	firstState []uint8
	state      []uint8
	sourceOf   []int
	composite  []GroupKey
	groups     *groupTable

	flipOnOff  bool
	threshold  float64
	colors     Duotone
	batchCount int
	batchSize  int
	emitted    int
	rec        recorder
}

func newEngine(width, height int, opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if width <= 0 || height <= 0 {
		return nil, invalidf("image dimensions must be positive, got %dx%d", width, height)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	n := width * height
	minArea := opts.RelMinGroupSize * float64(n)
	return &Engine{
		opts:          opts,
		grid:          Grid{W: width, H: height},
		rng:           rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		runID:         uuid.NewString(),
		minArea:       minArea,
		smallestPerim: max(4*math.Sqrt(minArea)-4, 1),
	}, nil
}

// NewEngine copies a Width×Height RGBA8888 buffer into a new run. Call
// Prepare before requesting batches.
func NewEngine(width, height int, rgba []uint8, opts Options) (*Engine, error) {
	e, err := newEngine(width, height, opts)
	if err != nil {
		return nil, err
	}
	n := e.grid.Len()
	if len(rgba) != n*4 {
		return nil, invalidf("rgba buffer has %d bytes, want %d for %dx%d", len(rgba), n*4, width, height)
	}
	e.firstRGBA = slices.Clone(rgba)
	e.rgba = slices.Clone(rgba)
	for p := range n {
		e.rgba[p*4+3] = 255
	}
	e.state = make([]uint8, n)
	e.sourceOf = make([]int, n)
	for p := range e.sourceOf {
		e.sourceOf[p] = p
	}
	e.composite = make([]GroupKey, n)
	e.groups = newGroupTable()
	return e, nil
}

// Prepare classifies and segments the first frame, picks the display
// colors and derives the schedule.
func (e *Engine) Prepare() (DuotoneReady, error) {
	e.classify()
	if err := e.segment(); err != nil {
		opsf("run %s: segmentation aborted: %v", e.runID, err)
		return DuotoneReady{}, err
	}
	e.firstState = slices.Clone(e.state)
	e.indexGroups()
	e.colors = e.duotoneColors()
	e.schedule()
	diagf("run %s: threshold %.1f flip %t off %v on %v", e.runID, e.threshold, e.flipOnOff, e.colors.Off, e.colors.On)
	return e.Ready(), nil
}

// Restore rebuilds a run from a continue request.
func Restore(msg Continue, opts Options) (*Engine, error) {
	e, err := newEngine(msg.Width, msg.Height, opts)
	if err != nil {
		return nil, err
	}
	n := e.grid.Len()
	s, st := msg.Schedule, msg.State
	switch {
	case len(s.FirstFrameRGBA) != n*4 || len(st.RGBA) != n*4:
		return nil, invalidf("rgba buffers must have %d bytes", n*4)
	case len(s.FirstFrameBinaryState) != n || len(st.BinaryState) != n:
		return nil, invalidf("binary states must have %d entries", n)
	case len(st.SourceOfPixel) != n || len(st.CompositeGroupOfPixel) != n:
		return nil, invalidf("per-pixel state must have %d entries", n)
	case s.FrameBatchCount < 1 || s.FrameBatchSize < 1:
		return nil, invalidf("schedule %d batches of %d steps", s.FrameBatchCount, s.FrameBatchSize)
	}
	for _, src := range st.SourceOfPixel {
		if src < 0 || src >= n {
			return nil, invalidf("source pixel %d out of range", src)
		}
	}

	e.firstRGBA = slices.Clone(s.FirstFrameRGBA)
	e.firstState = slices.Clone(s.FirstFrameBinaryState)
	e.flipOnOff = s.FlipOnOffPixels
	e.threshold = s.LightnessThreshold
	e.batchCount = s.FrameBatchCount
	e.batchSize = s.FrameBatchSize
	e.rgba = slices.Clone(st.RGBA)
	e.state = slices.Clone(st.BinaryState)
	e.sourceOf = slices.Clone(st.SourceOfPixel)
	e.composite = slices.Clone(st.CompositeGroupOfPixel)
	e.groups = newGroupTable()
	for i := range st.GroupRecords {
		r := st.GroupRecords[i].clone()
		if !e.groups.insert(&r) {
			return nil, invalidf("duplicate group record %v", r.Key)
		}
		for _, p := range slices.Concat(r.AddQueue.Values(), r.RemoveQueue.Values()) {
			if p < 0 || p >= n {
				return nil, invalidf("queued pixel %d out of range in group %v", p, r.Key)
			}
		}
	}
	diagf("run %s: restored %d groups, %d batches of %d steps", e.runID, e.groups.len(), e.batchCount, e.batchSize)
	return e, nil
}

// NextBatch runs FrameBatchSize calculation steps over every group and
// returns the deltas they produced.
func (e *Engine) NextBatch() FrameBatch {
	for range e.batchSize {
		n := e.groups.len()
		for _, r := range e.groups.order[:n] {
			e.stepGroup(r)
		}
	}
	e.emitted++
	b := FrameBatch{Index: e.emitted, Deltas: e.rec.take()}
	tracef("run %s: batch %d/%d changed %d pixels", e.runID, b.Index, e.batchCount-1, len(b.Deltas))
	return b
}

// Ready returns the duotone-ready payload of a prepared run.
func (e *Engine) Ready() DuotoneReady {
	return DuotoneReady{
		Duotone:               e.colors,
		FrameBatchCount:       e.batchCount,
		FrameBatchSize:        e.batchSize,
		FlipOnOffPixels:       e.flipOnOff,
		LightnessThreshold:    e.threshold,
		FirstFrameBinaryState: slices.Clone(e.firstState),
	}
}

func (e *Engine) Schedule() ScheduleState {
	return ScheduleState{
		FrameBatchCount:       e.batchCount,
		FrameBatchSize:        e.batchSize,
		FlipOnOffPixels:       e.flipOnOff,
		LightnessThreshold:    e.threshold,
		FirstFrameBinaryState: slices.Clone(e.firstState),
		FirstFrameRGBA:        slices.Clone(e.firstRGBA),
	}
}

// Snapshot deep-copies the mutable state.
func (e *Engine) Snapshot() EngineState {
	records := make([]GroupRecord, 0, e.groups.len())
	for _, r := range e.groups.order {
		records = append(records, r.clone())
	}
	return EngineState{
		GroupRecords:          records,
		CompositeGroupOfPixel: slices.Clone(e.composite),
		SourceOfPixel:         slices.Clone(e.sourceOf),
		BinaryState:           slices.Clone(e.state),
		RGBA:                  slices.Clone(e.rgba),
	}
}

func (e *Engine) RunID() string { return e.runID }

func (e *Engine) Grid() Grid { return e.grid }
