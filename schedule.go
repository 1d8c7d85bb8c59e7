package duotoneanim

import "math"

// ScheduleState is the part of a run fixed at preparation time. It travels
// with a continue request.
type ScheduleState struct {
	FrameBatchCount       int     `json:"frameBatchCount"`
	FrameBatchSize        int     `json:"frameBatchSize"`
	FlipOnOffPixels       bool    `json:"flipOnOffPixels"`
	LightnessThreshold    float64 `json:"lightnessThreshold"`
	FirstFrameBinaryState []uint8 `json:"firstFrameBinaryState"`
	FirstFrameRGBA        []uint8 `json:"firstFrameRgba"`
}

// Animatable reports whether the schedule yields at least two frames.
// Images without large contrasting regions fall back to a single frame.
func (s ScheduleState) Animatable() bool { return s.FrameBatchCount >= 2 }

// sampleRadius scales the locality window with the group's border.
func sampleRadius(borderCount float64) int {
	return min(max(int(math.Floor((borderCount-4)/16)), 1), 3)
}

// pixelsToChange is the per-step flip budget of a group.
func pixelsToChange(borderCount, smallestPerim float64) int {
	return int(math.Floor(math.Sqrt(borderCount / smallestPerim)))
}

// batchPlan converts aggregate border statistics into the number of emitted
// batches and calculation steps per batch. Non-finite intermediate values
// fall back to a single batch of size one.
func batchPlan(pixelCount int, totalBorder float64, totalQuota int, opt Options) (count, size int) {
	total := math.Sqrt(float64(pixelCount)) * totalBorder / opt.ImgChangeConstant
	steps := total / float64(totalQuota)
	sizeF := math.Ceil(steps / float64(opt.MaxFrameBatchCount))
	if math.IsNaN(sizeF) || math.IsInf(sizeF, 0) || sizeF < 1 {
		return 1, 1
	}
	countF := math.Ceil(steps/sizeF) + 1
	if math.IsNaN(countF) || math.IsInf(countF, 0) {
		return 1, 1
	}
	return max(int(countF), opt.MinFrameBatchCount), int(sizeF)
}

// schedule assigns each group its sample radius and quota, then derives
// the batch plan.
func (e *Engine) schedule() {
	var totalBorder float64
	totalQuota := 0
	for _, r := range e.groups.order {
		r.SampleRadius = sampleRadius(r.BorderCount)
		r.PixelsToChange = pixelsToChange(r.BorderCount, e.smallestPerim)
		totalBorder += r.BorderCount
		totalQuota += r.PixelsToChange
	}
	e.batchCount, e.batchSize = batchPlan(e.grid.Len(), totalBorder, totalQuota, e.opts)
	if e.batchCount < 2 {
		opsf("run %s: image has no animatable contrast (border %.1f, quota %d)", e.runID, totalBorder, totalQuota)
	}
	diagf("run %s: %d groups, border %.1f, quota %d/step, %d batches of %d steps",
		e.runID, e.groups.len(), totalBorder, totalQuota, e.batchCount, e.batchSize)
}
