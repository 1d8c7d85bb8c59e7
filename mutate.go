package duotoneanim

import (
	"math"
	"slices"
)

// perimChange maps the on-count of a pixel's 8 neighbors before it is
// switched on to the change in its group's perimeter. Removals use the
// negated value.
var perimChange = [9]float64{0, 2, 1.414, 0.707, 0, -0.707, -1.414, -2, 0}

// adjacentOffsets and distantOffsets split the 5×5 square around a flipped
// pixel into its inner and outer ring for clone pointer scanning.
var (
	adjacentOffsets = []offset{
		{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1},
	}
	distantOffsets = []offset{
		{-2, -2}, {-1, -2}, {0, -2}, {1, -2}, {2, -2},
		{-2, -1}, {2, -1}, {-2, 0}, {2, 0}, {-2, 1}, {2, 1},
		{-2, 2}, {-1, 2}, {0, 2}, {1, 2}, {2, 2},
	}
)

// stepGroup runs one calculation step for a group: adapt the weight base,
// maybe drop locality seeds, then interleave PixelsToChange add and remove
// flips.
func (e *Engine) stepGroup(r *GroupRecord) {
	e.adaptWeightBase(r)
	e.injectExploration(r)

	added, removed := newSeqSet(), newSeqSet()
	trash := make(map[int]bool)
	for iter := range r.PixelsToChange {
		seedAdd, seedRemove := -1, -1
		if iter < len(r.LastAdded) {
			seedAdd = r.LastAdded[iter]
		}
		if iter < len(r.LastRemoved) {
			seedRemove = r.LastRemoved[iter]
		}

		if a := e.flipNext(r, seedAdd, 1); a >= 0 {
			if removed.Has(a) {
				removed.Remove(a)
				trash[a] = true
			} else if !trash[a] {
				added.Add(a)
			}
		}
		if d := e.flipNext(r, seedRemove, 0); d >= 0 {
			if added.Has(d) {
				added.Remove(d)
				trash[d] = true
			} else if !trash[d] {
				removed.Add(d)
			}
		}
	}
	r.LastAdded = added.Values()
	r.LastRemoved = removed.Values()
}

// adaptWeightBase moves the weight base by a factor of 2, or 4 when the
// perimeter change grew in magnitude. A shrinking perimeter lowers it.
func (e *Engine) adaptWeightBase(r *GroupRecord) {
	latest := r.LatestPerimChange
	change := 2.0
	if math.Abs(latest) > math.Abs(r.PrevPerimChange) {
		change = 4
	}
	switch {
	case !r.HasPrev:
		r.WeightBase = e.opts.InitialWeightBase
	case latest < r.PrevPerimChange:
		r.WeightBase = max(r.WeightBase/change, e.opts.MinWeightBase)
	default:
		r.WeightBase = min(r.WeightBase*change, e.opts.MaxWeightBase)
	}
	r.PrevPerimChange = latest
	r.HasPrev = true
}

// injectExploration truncates the tails of the last-changed lists when the
// perimeter has grown by more than MinThresRatio of the border, so the
// dropped iterations fall back to random sampling.
func (e *Engine) injectExploration(r *GroupRecord) {
	if r.BorderCount <= 0 {
		return
	}
	rel := r.LatestPerimChange / r.BorderCount
	if rel <= e.opts.MinThresRatio {
		return
	}
	ratio := min((rel-e.opts.MinThresRatio)/(e.opts.MaxThresRatio-e.opts.MinThresRatio), 1) * e.opts.MaxRandPixelRatio
	r.LastAdded = r.LastAdded[:int(math.Floor(float64(len(r.LastAdded))*(1-ratio)))]
	r.LastRemoved = r.LastRemoved[:int(math.Floor(float64(len(r.LastRemoved))*(1-ratio)))]
}

// flipNext selects and flips one pixel of the group towards polarity bit.
// It returns the flipped pixel, or -1 when the queue is empty.
func (e *Engine) flipNext(r *GroupRecord, seed int, bit uint8) int {
	kind := addQueue
	if bit == 0 {
		kind = removeQueue
	}
	queue := r.queue(kind)
	if queue.Len() == 0 {
		return -1
	}

	var vicinity Window
	p := -1
	if seed >= 0 {
		near := e.grid.Window(seed, r.SampleRadius+2)
		var dx, dy int
		p, dx, dy = e.chooseNear(r, queue, near, bit)
		if p >= 0 {
			vicinity = near.Sub(dx, dy, 2)
		}
	}
	if p < 0 {
		p = e.samplePixel(queue, bit)
		vicinity = e.grid.Window(p, 2)
	}
	e.flip(r, p, bit, vicinity)
	return p
}

// chooseNear draws a queued pixel from the 3×3 square at the window center,
// favoring candidates by how many ring neighbors belong to the on-group.
// SampleRadius only sizes the extracted window.
func (e *Engine) chooseNear(r *GroupRecord, queue *PixelSet, near Window, bit uint8) (p, dx, dy int) {
	var pool []offset
	var counts []int
	for oy := -1; oy <= 1; oy++ {
		for ox := -1; ox <= 1; ox++ {
			q := near.At(ox, oy)
			if q < 0 || !queue.Has(q) {
				continue
			}
			n := 0
			for _, nb := range near.Ring(ox, oy) {
				if nb >= 0 && e.composite[nb].On == r.Key.On {
					n++
				}
			}
			pool = append(pool, offset{ox, oy})
			counts = append(counts, n)
		}
	}
	if len(pool) == 0 {
		return -1, 0, 0
	}
	i := e.weightedChoice(rankWeights(counts, r.WeightBase, bit == 1))
	o := pool[i]
	return near.At(o.dx, o.dy), o.dx, o.dy
}

// rankWeights weights each count by base raised to the rank of its value
// among the distinct counts. Adds rank ascending, removes descending, so
// higher on-neighbor counts are preferred when adding and lower ones when
// removing.
func rankWeights(counts []int, base float64, add bool) []float64 {
	distinct := slices.Clone(counts)
	slices.Sort(distinct)
	distinct = slices.Compact(distinct)
	if !add {
		slices.Reverse(distinct)
	}
	weightOf := make(map[int]float64, len(distinct))
	w := 1.0
	for _, v := range distinct {
		weightOf[v] = w
		w *= base
	}
	out := make([]float64, len(counts))
	for i, c := range counts {
		out[i] = weightOf[c]
	}
	return out
}

func (e *Engine) weightedChoice(weights []float64) int {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	x := e.rng.Float64() * sum
	for i, w := range weights {
		x -= w
		if x < 0 {
			return i
		}
	}
	return len(weights) - 1
}

// samplePixel inspects RandPixelSampleCount random queue members and keeps
// the one whose flip shortens the border most, stopping early at rank 7.
func (e *Engine) samplePixel(queue *PixelSet, bit uint8) int {
	best, bestRank := -1, -1
	for range e.opts.RandPixelSampleCount {
		p := queue.At(e.rng.IntN(queue.Len()))
		on := 0
		for _, nb := range e.grid.Neighbors(p) {
			if e.state[nb] == 1 {
				on++
			}
		}
		rank := on
		if bit == 0 {
			rank = 8 - on
		}
		if rank == 7 {
			return p
		}
		if rank > bestRank {
			best, bestRank = p, rank
		}
	}
	return best
}

// flip switches p to polarity bit, recolors it from a cloned source and
// refreshes the topology of its ring. win must be centered on p with
// radius at least 2.
func (e *Engine) flip(r *GroupRecord, p int, bit uint8, win Window) {
	ring := win.Ring(0, 0)
	on := 0
	for _, q := range ring {
		if q >= 0 && e.state[q] == 1 {
			on++
		}
	}
	sign := 1.0
	if bit == 0 {
		sign = -1
	}
	r.LatestPerimChange += perimChange[on] * sign

	e.adjustBorders(p, ring, -1)

	key := e.composite[p]
	e.groups.move(p, key, key, queueFor(1-bit), queueFor(bit), false)
	src := e.chooseClone(p, bit, key, win)
	e.commit(p, src, bit)

	e.adjustBorders(p, ring, 1)
	e.retopologize(win)
}

// adjustBorders adds delta to the border count of every pairing owning an
// edge between p and a side neighbor of opposite polarity.
func (e *Engine) adjustBorders(p int, ring [8]int, delta float64) {
	for _, q := range sides(ring) {
		if q >= 0 && e.state[q] != e.state[p] {
			e.groups.ensure(e.edgeKey(p, q)).BorderCount += delta
		}
	}
}

// chooseClone picks the original pixel whose color p should take. Nearby
// pixels of the same group act as pointers: each knows its own original
// source and its distance to p. Candidates around those sources are scored
// by how well their distance to each pointer source matches the pointer's
// distance to p.
func (e *Engine) chooseClone(p int, bit uint8, key GroupKey, win Window) int {
	own := key.Own(bit)
	var pointerSrcs []int
	pointers := make(map[int][]float64)
	candidates := newSeqSet()

scan:
	for _, ring := range [][]offset{adjacentOffsets, distantOffsets} {
		order := slices.Clone(ring)
		e.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, o := range order {
			q := win.At(o.dx, o.dy)
			if q < 0 || e.state[q] != bit || e.composite[q].Own(bit) != own {
				continue
			}
			src := e.sourceOf[q]
			if _, ok := pointers[src]; !ok {
				pointerSrcs = append(pointerSrcs, src)
			}
			pointers[src] = append(pointers[src], math.Hypot(float64(o.dx), float64(o.dy)))
			for _, c := range append(e.grid.Neighbors(src), src) {
				if e.firstState[c] == bit {
					candidates.Add(c)
				}
			}
			if len(pointerSrcs) >= e.opts.MaxClonePointers {
				break scan
			}
		}
	}

	bestScore := -1.0
	var best []int
	for _, c := range candidates.Values() {
		score := 0.0
		for _, src := range pointerSrcs {
			target := e.grid.Distance(src, c)
			for _, actual := range pointers[src] {
				score += 1 / (max(math.Abs(actual-target), e.opts.MinCloneDistanceDiff) * actual)
			}
		}
		switch {
		case score > bestScore:
			bestScore = score
			best = append(best[:0], c)
		case score == bestScore:
			best = append(best, c)
		}
	}

	switch {
	case len(best) > 0:
		return best[e.rng.IntN(len(best))]
	case len(pointerSrcs) > 0:
		return pointerSrcs[e.rng.IntN(len(pointerSrcs))]
	default:
		return e.sourceOf[p]
	}
}

// commit records the delta and applies the new polarity, source and color.
func (e *Engine) commit(p, src int, bit uint8) {
	o, so := p*4, src*4
	var before, after [3]uint8
	copy(before[:], e.rgba[o:o+3])
	copy(after[:], e.firstRGBA[so:so+3])
	e.rec.record(p, before, after)

	e.sourceOf[p] = src
	e.state[p] = bit
	copy(e.rgba[o:o+3], after[:])
}

// retopologize re-evaluates the fixed status and composite key of every
// in-bounds pixel around the window center and moves it between queues.
func (e *Engine) retopologize(win Window) {
	for k, q := range win.Ring(0, 0) {
		if q < 0 {
			continue
		}
		o := ringOffsets[k]
		ring := win.Ring(o.dx, o.dy)
		fixed := e.isFixed(ring)
		next := e.recalcGroup(q, fixed, ring)
		kind := queueFor(e.state[q])
		e.groups.move(q, e.composite[q], next, kind, kind, fixed || !next.Full())
		e.composite[q] = next
	}
}
