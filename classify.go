package duotoneanim

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// degenerateThreshold is used when the samples offer no cut point. Every
// pixel then falls on the dark side.
const degenerateThreshold = 255

// Duotone holds the two display colors, RGBA with A=255.
type Duotone struct {
	Off [4]uint8 `json:"offColor"`
	On  [4]uint8 `json:"onColor"`
}

var (
	black = [4]uint8{0, 0, 0, 255}
	white = [4]uint8{255, 255, 255, 255}
)

// lightness is the HSL lightness of an 8-bit color on a 0..255 scale.
func lightness(r, g, b uint8) float64 {
	return (float64(max(r, g, b)) + float64(min(r, g, b))) / 2
}

func (e *Engine) pixelLightness(p int) float64 {
	o := p * 4
	return lightness(e.firstRGBA[o], e.firstRGBA[o+1], e.firstRGBA[o+2])
}

// lightnessSamples draws min(ceil(n/10), cap) random lightness values, sorted.
func (e *Engine) lightnessSamples() []float64 {
	n := e.grid.Len()
	count := min((n+9)/10, e.opts.LightnessSampleCap)
	samples := make([]float64, count)
	for i := range samples {
		samples[i] = e.pixelLightness(e.rng.IntN(n))
	}
	slices.Sort(samples)
	return samples
}

// classify picks the lightness threshold and the flip decision, then writes
// the initial binary state.
func (e *Engine) classify() {
	samples := e.lightnessSamples()
	e.flipOnOff = samples[len(samples)/2] < 128

	switch e.opts.PartitionMethod {
	case PartitionKMeans:
		t, err := kmeansThreshold(samples)
		if err != nil {
			diagf("run %s: kmeans partition failed, falling back to scan: %v", e.runID, err)
			t = scanThreshold(samples, e.opts.PartitionGranularity)
		}
		e.threshold = t
	default:
		e.threshold = scanThreshold(samples, e.opts.PartitionGranularity)
	}

	for p := range e.state {
		on := e.pixelLightness(p) <= e.threshold
		if on != e.flipOnOff {
			e.state[p] = 1
		} else {
			e.state[p] = 0
		}
	}
}

// scanThreshold splits sorted samples into two clusters by trying
// granularity evenly spaced cut values and keeping the cut with the least
// within-cluster squared error. The running sums make each candidate O(1)
// beyond the samples it moves across the cut. The result is the midpoint of
// the two centroids.
func scanThreshold(sorted []float64, granularity int) float64 {
	n := len(sorted)
	if n == 0 {
		return degenerateThreshold
	}
	lowest, highest := sorted[0], sorted[n-1]
	step := (highest - lowest) / float64(granularity+1)
	total := floats.Sum(sorted)
	totalSq := floats.Dot(sorted, sorted)

	var sumA, sqA float64
	cut, last := lowest, 0
	best, threshold := math.Inf(1), math.NaN()
	for range granularity {
		cut += step
		k := last
		for k < n && sorted[k] < cut {
			sumA += sorted[k]
			sqA += sorted[k] * sorted[k]
			k++
		}
		moved := k != last
		last = k
		if !moved || k == 0 || k == n {
			continue
		}
		nA, nB := float64(k), float64(n-k)
		sumB, sqB := total-sumA, totalSq-sqA
		sse := sqA - sumA*sumA/nA + sqB - sumB*sumB/nB
		if sse < best {
			best = sse
			threshold = (sumA/nA + sumB/nB) / 2
		}
	}
	if math.IsNaN(threshold) {
		return degenerateThreshold
	}
	return threshold
}

// kmeansThreshold runs a two-cluster k-means over the 1-D samples and
// returns the midpoint of the two centers.
func kmeansThreshold(samples []float64) (float64, error) {
	dataset := make(clusters.Observations, 0, len(samples))
	for _, v := range samples {
		dataset = append(dataset, clusters.Coordinates{v})
	}
	km := kmeans.New()
	cc, err := km.Partition(dataset, 2)
	if err != nil {
		return 0, err
	}
	if len(cc) != 2 || len(cc[0].Center) == 0 || len(cc[1].Center) == 0 {
		return 0, errors.New("kmeans returned no usable centers")
	}
	t := (cc[0].Center[0] + cc[1].Center[0]) / 2
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("kmeans threshold not finite: %v", t)
	}
	return t, nil
}

type colorSamples struct {
	hues, sats []float64
	colors     []color.RGBA
}

// duotoneColors samples pixels of the segmented first frame and derives the
// off and on display colors. At most one side gets a saturated color, so
// the pair is always distinguishable.
func (e *Engine) duotoneColors() Duotone {
	n := e.grid.Len()
	var sides [2]colorSamples
	for range e.opts.DuotoneSampleCount {
		p := e.rng.IntN(n)
		o := p * 4
		rgb := color.RGBA{R: e.firstRGBA[o], G: e.firstRGBA[o+1], B: e.firstRGBA[o+2], A: 255}
		c, _ := colorful.MakeColor(rgb)
		h, s, _ := c.Hsl()
		side := &sides[e.state[p]]
		side.hues = append(side.hues, h)
		side.sats = append(side.sats, s)
		side.colors = append(side.colors, rgb)
	}

	var pure [2][4]uint8
	var sat [2]float64
	for b := range sides {
		switch e.opts.ColorMethod {
		case ColorDominant:
			pure[b], sat[b] = dominantSideColor(sides[b].colors)
		default:
			if len(sides[b].hues) == 0 {
				sides[b].hues = append(sides[b].hues, 0)
				sides[b].sats = append(sides[b].sats, 0)
			}
			hue, radius := weightedCircularMean(sides[b].hues, sides[b].sats)
			r, g, bl := colorful.Hsl(hue, 1, 0.5).RGB255()
			pure[b], sat[b] = [4]uint8{r, g, bl, 255}, radius
		}
	}

	d := Duotone{Off: white, On: black}
	if e.flipOnOff {
		d = Duotone{Off: black, On: white}
	}
	thr := e.opts.SatThreshold
	if sat[1] < sat[0] && thr < sat[0] {
		d.Off = pure[0]
	}
	if sat[0] < sat[1] && thr < sat[1] {
		d.On = pure[1]
	}
	return d
}

// weightedCircularMean returns the weighted circular mean of hues given in
// degrees, in [0,360), and the length of the mean resultant vector divided
// by the sample count.
func weightedCircularMean(degrees, weights []float64) (mean, radius float64) {
	rad := make([]float64, len(degrees))
	cos := make([]float64, len(degrees))
	sin := make([]float64, len(degrees))
	for i, d := range degrees {
		rad[i] = d * math.Pi / 180
		cos[i] = math.Cos(rad[i])
		sin[i] = math.Sin(rad[i])
	}
	mean = stat.CircularMean(rad, weights) * 180 / math.Pi
	if mean < 0 {
		mean += 360
	}
	radius = math.Hypot(floats.Dot(weights, cos), floats.Dot(weights, sin)) / float64(len(degrees))
	return mean, radius
}

// dominantSideColor picks the dominant color of a side's samples and
// reports its saturation. Empty sides report zero saturation.
func dominantSideColor(samples []color.RGBA) ([4]uint8, float64) {
	if len(samples) == 0 {
		return black, 0
	}
	// Near-square so downscaling inside FindWeight keeps both sides nonzero.
	// Unused cells stay transparent and are ignored.
	side := int(math.Ceil(math.Sqrt(float64(len(samples)))))
	tile := image.NewRGBA(image.Rect(0, 0, side, side))
	for i, c := range samples {
		tile.SetRGBA(i%side, i/side, c)
	}
	found := dominantcolor.FindWeight(tile, 1)
	if len(found) == 0 {
		return black, 0
	}
	c, _ := colorful.MakeColor(found[0].RGBA)
	_, s, _ := c.Hsl()
	r, g, b := c.Clamped().RGB255()
	return [4]uint8{r, g, b, 255}, s
}
