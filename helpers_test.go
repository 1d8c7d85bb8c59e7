package duotoneanim

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// renderBits paints on pixels black and off pixels white, with a small
// green tint so clones are distinguishable.
func renderBits(bits []uint8) []uint8 {
	rgba := make([]uint8, len(bits)*4)
	for p, b := range bits {
		v := uint8(255)
		if b == 1 {
			v = 0
		}
		rgba[p*4] = v
		rgba[p*4+1] = v ^ uint8(p%16)
		rgba[p*4+2] = v
		rgba[p*4+3] = 255
	}
	return rgba
}

// prepareBits runs segmentation and scheduling on a given binary state,
// bypassing lightness classification.
func prepareBits(t *testing.T, w, h int, bits []uint8, opts Options) *Engine {
	t.Helper()
	e, err := NewEngine(w, h, renderBits(bits), opts)
	require.NoError(t, err)
	copy(e.state, bits)
	require.NoError(t, e.segment())
	e.firstState = slices.Clone(e.state)
	e.indexGroups()
	e.colors = e.duotoneColors()
	e.schedule()
	return e
}

func seeded(seed uint64) Options {
	opts := DefaultOptions()
	opts.Seed = seed
	return opts
}

// twoBlobs is a 40×40 grid with two 8×8 on squares at (5,5) and (25,25).
func twoBlobs() []uint8 {
	g := Grid{W: 40, H: 40}
	bits := make([]uint8, g.Len())
	for _, o := range []int{5, 25} {
		for y := o; y < o+8; y++ {
			for x := o; x < o+8; x++ {
				bits[g.Index(x, y)] = 1
			}
		}
	}
	return bits
}

func checkerboard(w, h int) []uint8 {
	bits := make([]uint8, w*h)
	for y := range h {
		for x := range w {
			bits[y*w+x] = uint8((x + y) % 2)
		}
	}
	return bits
}

// recountBorders counts every differing 4-adjacent pair once, keyed by the
// pairing that owns it.
func recountBorders(e *Engine) map[GroupKey]float64 {
	counts := make(map[GroupKey]float64)
	for p := range e.grid.Len() {
		x, y := e.grid.Coords(p)
		for _, o := range []offset{{1, 0}, {0, 1}} {
			if !e.grid.InBounds(x+o.dx, y+o.dy) {
				continue
			}
			q := e.grid.Index(x+o.dx, y+o.dy)
			if e.state[p] != e.state[q] {
				counts[e.edgeKey(p, q)]++
			}
		}
	}
	return counts
}

func requireBordersConsistent(t *testing.T, e *Engine) {
	t.Helper()
	want := recountBorders(e)
	for _, r := range e.groups.order {
		require.Equal(t, want[r.Key], r.BorderCount, "border count of %v", r.Key)
		delete(want, r.Key)
	}
	require.Empty(t, want, "edges owned by pairings without records")
}

func requireQueuesConsistent(t *testing.T, e *Engine) {
	t.Helper()
	seen := make(map[int]GroupKey)
	for _, r := range e.groups.order {
		for kind, q := range []*PixelSet{r.AddQueue, r.RemoveQueue} {
			for _, p := range q.Values() {
				require.Equal(t, r.Key, e.composite[p], "composite of queued pixel %d", p)
				require.Equal(t, queueKind(kind), queueFor(e.state[p]), "queue kind of pixel %d", p)
				prev, dup := seen[p]
				require.False(t, dup, "pixel %d queued under %v and %v", p, prev, r.Key)
				seen[p] = r.Key
			}
		}
	}
}
