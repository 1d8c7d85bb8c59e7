package duotoneanim

// PixelDelta is the net change of one pixel over a batch. An odd FlipCount
// means the pixel's polarity differs between the start and end of the batch.
type PixelDelta struct {
	Before    [3]uint8 `json:"before"`
	After     [3]uint8 `json:"after"`
	FlipCount int      `json:"flipCount"`
}

// FrameBatch carries every pixel touched during one emitted batch. Index
// starts at 1; frame 0 is the first frame itself.
type FrameBatch struct {
	Index  int                `json:"index"`
	Deltas map[int]PixelDelta `json:"deltas"`
}

// recorder accumulates deltas for the batch in progress. Before is captured
// on a pixel's first flip in the batch and After follows the latest one.
type recorder struct {
	deltas map[int]PixelDelta
}

func (r *recorder) record(p int, before, after [3]uint8) {
	if r.deltas == nil {
		r.deltas = make(map[int]PixelDelta)
	}
	d, ok := r.deltas[p]
	if !ok {
		r.deltas[p] = PixelDelta{Before: before, After: after, FlipCount: 1}
		return
	}
	d.After = after
	d.FlipCount++
	r.deltas[p] = d
}

// take returns the accumulated deltas and starts a new batch.
func (r *recorder) take() map[int]PixelDelta {
	out := r.deltas
	if out == nil {
		out = make(map[int]PixelDelta)
	}
	r.deltas = nil
	return out
}
