package duotoneanim

import (
	"fmt"
	"math"
)

// PartitionMethod selects how the lightness threshold is derived from the
// sampled lightness values.
type PartitionMethod int

const (
	PartitionScan PartitionMethod = iota
	PartitionKMeans
)

func (m PartitionMethod) String() string {
	switch m {
	case PartitionKMeans:
		return "kmeans"
	default:
		return "scan"
	}
}

// ColorMethod selects how the two display colors are picked from the
// sampled pixels of each polarity.
type ColorMethod int

const (
	ColorHueMean ColorMethod = iota
	ColorDominant
)

func (m ColorMethod) String() string {
	switch m {
	case ColorDominant:
		return "dominantcolor"
	default:
		return "huemean"
	}
}

type Options struct {
	// Any positive number. Doubling it halves the total number of pixel
	// changes made across the whole animation.
	ImgChangeConstant float64
	// Calculation steps are merged into batches so no more than this many
	// batches are emitted.
	MaxFrameBatchCount int
	// Lower bound on the emitted frame count for non-degenerate inputs.
	MinFrameBatchCount int
	// Queue members inspected when a flip falls back to random sampling.
	RandPixelSampleCount int
	// Scanning for clone pointers stops once this many distinct sources are found.
	MaxClonePointers int
	// Floor on the distance difference used when scoring clone candidates.
	// Prevents infinite weights when a candidate sits at the exact target distance.
	MinCloneDistanceDiff float64
	// Minimum group area as a fraction of the pixel count.
	RelMinGroupSize float64
	// Pixels sampled to derive the duotone display colors.
	DuotoneSampleCount int
	// Mean saturation in [0,1] a side must exceed to get a pure hue color.
	SatThreshold float64
	// Upper bound on lightness samples. Never more than a tenth of the pixels.
	LightnessSampleCap int
	// Candidate cut points tried by the scan partition.
	PartitionGranularity int
	// Largest share of the last-changed lists dropped to force random picks.
	MaxRandPixelRatio float64
	// Relative perimeter growth below which nothing is dropped.
	MinThresRatio float64
	// Relative perimeter growth at which MaxRandPixelRatio is dropped.
	MaxThresRatio float64
	// Weight base assigned on a group's first step.
	InitialWeightBase float64
	MinWeightBase     float64
	MaxWeightBase     float64
	// Seed for the engine's random source. Zero picks a random seed.
	Seed            uint64
	PartitionMethod PartitionMethod
	ColorMethod     ColorMethod
}

func DefaultOptions() Options {
	return Options{
		ImgChangeConstant:    40,
		MaxFrameBatchCount:   500,
		MinFrameBatchCount:   60,
		RandPixelSampleCount: 10,
		MaxClonePointers:     6,
		MinCloneDistanceDiff: 0.3,
		RelMinGroupSize:      0.001,
		DuotoneSampleCount:   400,
		SatThreshold:         0.30,
		LightnessSampleCap:   1000,
		PartitionGranularity: 50,
		MaxRandPixelRatio:    0.2,
		MinThresRatio:        0.2,
		MaxThresRatio:        0.4,
		InitialWeightBase:    8192,
		MinWeightBase:        2,
		MaxWeightBase:        1 << 28,
	}
}

// Validate reports the first option that would break scheduling or selection.
func (o Options) Validate() error {
	switch {
	case !(o.ImgChangeConstant > 0) || math.IsInf(o.ImgChangeConstant, 1):
		return fmt.Errorf("img change constant must be positive and finite, got %v", o.ImgChangeConstant)
	case o.MaxFrameBatchCount < 1:
		return fmt.Errorf("max frame batch count must be at least 1, got %d", o.MaxFrameBatchCount)
	case o.MinFrameBatchCount < 1:
		return fmt.Errorf("min frame batch count must be at least 1, got %d", o.MinFrameBatchCount)
	case o.RandPixelSampleCount < 1:
		return fmt.Errorf("rand pixel sample count must be at least 1, got %d", o.RandPixelSampleCount)
	case o.MaxClonePointers < 1:
		return fmt.Errorf("max clone pointers must be at least 1, got %d", o.MaxClonePointers)
	case !(o.MinCloneDistanceDiff > 0):
		return fmt.Errorf("min clone distance diff must be positive, got %v", o.MinCloneDistanceDiff)
	case o.RelMinGroupSize < 0 || o.RelMinGroupSize > 1:
		return fmt.Errorf("rel min group size must be between 0 and 1, got %v", o.RelMinGroupSize)
	case o.DuotoneSampleCount < 1:
		return fmt.Errorf("duotone sample count must be at least 1, got %d", o.DuotoneSampleCount)
	case o.SatThreshold < 0 || o.SatThreshold > 1:
		return fmt.Errorf("sat threshold must be between 0 and 1, got %v", o.SatThreshold)
	case o.LightnessSampleCap < 1:
		return fmt.Errorf("lightness sample cap must be at least 1, got %d", o.LightnessSampleCap)
	case o.PartitionGranularity < 1:
		return fmt.Errorf("partition granularity must be at least 1, got %d", o.PartitionGranularity)
	case o.MaxRandPixelRatio < 0 || o.MaxRandPixelRatio > 1:
		return fmt.Errorf("max rand pixel ratio must be between 0 and 1, got %v", o.MaxRandPixelRatio)
	case !(o.MinThresRatio > 0) || !(o.MinThresRatio < o.MaxThresRatio):
		return fmt.Errorf("thres ratios must satisfy 0 < min < max, got %v and %v", o.MinThresRatio, o.MaxThresRatio)
	case !(o.MinWeightBase >= 1) || o.MaxWeightBase < o.MinWeightBase:
		return fmt.Errorf("weight base bounds must satisfy 1 <= min <= max, got %v and %v", o.MinWeightBase, o.MaxWeightBase)
	case o.InitialWeightBase < o.MinWeightBase || o.InitialWeightBase > o.MaxWeightBase:
		return fmt.Errorf("initial weight base %v outside [%v, %v]", o.InitialWeightBase, o.MinWeightBase, o.MaxWeightBase)
	}
	return nil
}
