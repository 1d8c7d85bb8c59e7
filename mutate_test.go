package duotoneanim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankWeights(t *testing.T) {
	t.Parallel()
	counts := []int{3, 1, 3, 0}
	assert.Equal(t, []float64{4, 2, 4, 1}, rankWeights(counts, 2, true))
	assert.Equal(t, []float64{1, 2, 1, 4}, rankWeights(counts, 2, false))
	assert.Equal(t, []float64{1, 1}, rankWeights([]int{5, 5}, 8192, true))
}

func TestPerimChangeIsAntisymmetric(t *testing.T) {
	t.Parallel()
	for k := range perimChange {
		assert.Equal(t, perimChange[k], -perimChange[8-k], "on-count %d", k)
	}
}

func TestAdaptWeightBase(t *testing.T) {
	t.Parallel()
	e := &Engine{opts: DefaultOptions()}
	r := newGroupRecord(GroupKey{On: 1, Off: -1})

	e.adaptWeightBase(r)
	assert.Equal(t, 8192.0, r.WeightBase, "first step initializes")
	assert.True(t, r.HasPrev)

	r.LatestPerimChange = 1
	e.adaptWeightBase(r)
	assert.Equal(t, 8192.0*4, r.WeightBase, "growing faster")

	r.LatestPerimChange = -1
	e.adaptWeightBase(r)
	assert.Equal(t, 8192.0*2, r.WeightBase, "shrinking at the same magnitude")
	assert.Equal(t, -1.0, r.PrevPerimChange)

	r.WeightBase, r.PrevPerimChange, r.LatestPerimChange = 4, 0, -5
	e.adaptWeightBase(r)
	assert.Equal(t, 2.0, r.WeightBase, "clamped to the minimum")

	r.WeightBase, r.PrevPerimChange, r.LatestPerimChange = 1<<27, 0, 5
	e.adaptWeightBase(r)
	assert.Equal(t, float64(1<<28), r.WeightBase, "clamped to the maximum")
}

func TestInjectExploration(t *testing.T) {
	t.Parallel()
	e := &Engine{opts: DefaultOptions()}

	tests := []struct {
		name   string
		latest float64
		want   int
	}{
		{"shrinking", -4, 7},
		{"below threshold", 1, 7},
		{"halfway", 3, 6},
		{"saturated", 10, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newGroupRecord(GroupKey{On: 1, Off: -1})
			r.BorderCount = 10
			r.LatestPerimChange = tt.latest
			r.LastAdded = []int{1, 2, 3, 4, 5, 6, 7}
			r.LastRemoved = []int{8, 9, 10, 11, 12, 13, 14}
			e.injectExploration(r)
			assert.Len(t, r.LastAdded, tt.want)
			assert.Len(t, r.LastRemoved, tt.want)
			assert.Equal(t, 1, r.LastAdded[0], "the head is kept")
		})
	}
}

func TestWeightedChoice(t *testing.T) {
	t.Parallel()
	e := prepareBits(t, 4, 4, make([]uint8, 16), seeded(5))
	for range 50 {
		assert.Equal(t, 2, e.weightedChoice([]float64{0, 0, 1}))
	}
	hits := make([]int, 2)
	for range 200 {
		hits[e.weightedChoice([]float64{1, 1 << 20})]++
	}
	assert.Greater(t, hits[1], hits[0])
}

func TestSamplePixelPicksFromQueue(t *testing.T) {
	t.Parallel()
	e := prepareBits(t, 40, 40, twoBlobs(), seeded(2))
	r := e.groups.order[0]
	for range 20 {
		p := e.samplePixel(r.AddQueue, 1)
		assert.True(t, r.AddQueue.Has(p))
		p = e.samplePixel(r.RemoveQueue, 0)
		assert.True(t, r.RemoveQueue.Has(p))
	}
}

func TestChooseNearStaysNextToSeed(t *testing.T) {
	t.Parallel()
	e := prepareBits(t, 40, 40, twoBlobs(), seeded(8))
	g := e.grid
	r := e.groups.order[0]
	r.SampleRadius = 3

	seed := g.Index(4, 8)
	sx, sy := g.Coords(seed)
	for range 30 {
		p, dx, dy := e.chooseNear(r, r.AddQueue, g.Window(seed, r.SampleRadius+2), 1)
		require.GreaterOrEqual(t, p, 0)
		assert.True(t, r.AddQueue.Has(p))
		assert.LessOrEqual(t, max(dx, -dx, dy, -dy), 1)
		x, y := g.Coords(p)
		assert.Equal(t, [2]int{sx + dx, sy + dy}, [2]int{x, y})
	}

	far := g.Index(20, 20)
	p, _, _ := e.chooseNear(r, r.AddQueue, g.Window(far, r.SampleRadius+2), 1)
	assert.Equal(t, -1, p, "no queued pixel next to the seed")
}

func TestChooseCloneKeepsPolarity(t *testing.T) {
	t.Parallel()
	e := prepareBits(t, 40, 40, twoBlobs(), seeded(4))
	g := e.grid
	r := e.groups.order[0]

	p := g.Index(4, 8)
	require.True(t, r.AddQueue.Has(p))
	for range 20 {
		src := e.chooseClone(p, 1, r.Key, g.Window(p, 2))
		assert.Equal(t, uint8(1), e.firstState[src], "clone source %d must start on", src)
		assert.LessOrEqual(t, g.Distance(p, src), 4.5)
	}

	lonely := g.Index(20, 20)
	assert.Equal(t, e.sourceOf[lonely], e.chooseClone(lonely, 1, r.Key, g.Window(lonely, 2)),
		"no pointers keeps the current source")
}

func TestFlipUpdatesBookkeeping(t *testing.T) {
	t.Parallel()
	e := prepareBits(t, 40, 40, twoBlobs(), seeded(6))
	g := e.grid
	r := e.groups.order[0]

	p := g.Index(4, 8)
	e.flip(r, p, 1, g.Window(p, 2))

	assert.Equal(t, uint8(1), e.state[p])
	assert.False(t, r.AddQueue.Has(p))
	assert.True(t, r.RemoveQueue.Has(p))
	assert.InDelta(t, perimChange[3], r.LatestPerimChange, 1e-12)
	assert.Equal(t, 34.0, r.BorderCount, "a bump on a straight edge adds two edges")

	deltas := e.rec.take()
	require.Contains(t, deltas, p)
	assert.Equal(t, 1, deltas[p].FlipCount)
	requireBordersConsistent(t, e)
	requireQueuesConsistent(t, e)
}
