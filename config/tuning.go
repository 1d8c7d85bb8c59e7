package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/setanarut/duotoneanim"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig mirrors duotoneanim.Options plus host-side settings. Nil
// fields fall back to duotoneanim.DefaultOptions.
type TuningConfig struct {
	// Scheduling
	ImgChangeConstant  *float64 `json:"img_change_constant,omitempty"`
	MaxFrameBatchCount *int     `json:"max_frame_batch_count,omitempty"`
	MinFrameBatchCount *int     `json:"min_frame_batch_count,omitempty"`

	// Selection and cloning
	RandPixelSampleCount *int     `json:"rand_pixel_sample_count,omitempty"`
	MaxClonePointers     *int     `json:"max_clone_pointers,omitempty"`
	MinCloneDistanceDiff *float64 `json:"min_clone_distance_diff,omitempty"`
	MaxRandPixelRatio    *float64 `json:"max_rand_pixel_ratio,omitempty"`
	MinThresRatio        *float64 `json:"min_thres_ratio,omitempty"`
	MaxThresRatio        *float64 `json:"max_thres_ratio,omitempty"`
	InitialWeightBase    *float64 `json:"initial_weight_base,omitempty"`
	MinWeightBase        *float64 `json:"min_weight_base,omitempty"`
	MaxWeightBase        *float64 `json:"max_weight_base,omitempty"`

	// Classification and segmentation
	RelMinGroupSize      *float64 `json:"rel_min_group_size,omitempty"`
	DuotoneSampleCount   *int     `json:"duotone_sample_count,omitempty"`
	SatThreshold         *float64 `json:"sat_threshold,omitempty"`
	LightnessSampleCap   *int     `json:"lightness_sample_cap,omitempty"`
	PartitionGranularity *int     `json:"partition_granularity,omitempty"`
	PartitionMethod      *string  `json:"partition_method,omitempty"` // "scan" or "kmeans"
	ColorMethod          *string  `json:"color_method,omitempty"`     // "huemean" or "dominantcolor"

	// Host
	Seed           *uint64 `json:"seed,omitempty"`
	MaxPixelHeight *int    `json:"max_pixel_height,omitempty"`
}

// DefaultMaxPixelHeight caps the height of loaded images.
const DefaultMaxPixelHeight = 720

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Omitted fields
// keep their defaults.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the repository root
// or the config directory. Panics if the file cannot be loaded, intended
// for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	for _, path := range []string{DefaultConfigPath, "../" + DefaultConfigPath, "tuning.defaults.json"} {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the set fields. Cross-field rules are left to
// duotoneanim.Options.Validate.
func (c *TuningConfig) Validate() error {
	if c.PartitionMethod != nil {
		if _, err := parsePartitionMethod(*c.PartitionMethod); err != nil {
			return err
		}
	}
	if c.ColorMethod != nil {
		if _, err := parseColorMethod(*c.ColorMethod); err != nil {
			return err
		}
	}
	if c.MaxPixelHeight != nil && *c.MaxPixelHeight < 1 {
		return fmt.Errorf("max_pixel_height must be positive, got %d", *c.MaxPixelHeight)
	}
	opts, err := c.Options()
	if err != nil {
		return err
	}
	return opts.Validate()
}

// Options applies the set fields over duotoneanim.DefaultOptions.
func (c *TuningConfig) Options() (duotoneanim.Options, error) {
	o := duotoneanim.DefaultOptions()
	setFloat(&o.ImgChangeConstant, c.ImgChangeConstant)
	setInt(&o.MaxFrameBatchCount, c.MaxFrameBatchCount)
	setInt(&o.MinFrameBatchCount, c.MinFrameBatchCount)
	setInt(&o.RandPixelSampleCount, c.RandPixelSampleCount)
	setInt(&o.MaxClonePointers, c.MaxClonePointers)
	setFloat(&o.MinCloneDistanceDiff, c.MinCloneDistanceDiff)
	setFloat(&o.MaxRandPixelRatio, c.MaxRandPixelRatio)
	setFloat(&o.MinThresRatio, c.MinThresRatio)
	setFloat(&o.MaxThresRatio, c.MaxThresRatio)
	setFloat(&o.InitialWeightBase, c.InitialWeightBase)
	setFloat(&o.MinWeightBase, c.MinWeightBase)
	setFloat(&o.MaxWeightBase, c.MaxWeightBase)
	setFloat(&o.RelMinGroupSize, c.RelMinGroupSize)
	setInt(&o.DuotoneSampleCount, c.DuotoneSampleCount)
	setFloat(&o.SatThreshold, c.SatThreshold)
	setInt(&o.LightnessSampleCap, c.LightnessSampleCap)
	setInt(&o.PartitionGranularity, c.PartitionGranularity)
	if c.Seed != nil {
		o.Seed = *c.Seed
	}
	if c.PartitionMethod != nil {
		m, err := parsePartitionMethod(*c.PartitionMethod)
		if err != nil {
			return o, err
		}
		o.PartitionMethod = m
	}
	if c.ColorMethod != nil {
		m, err := parseColorMethod(*c.ColorMethod)
		if err != nil {
			return o, err
		}
		o.ColorMethod = m
	}
	return o, nil
}

// GetMaxPixelHeight returns the image height cap or DefaultMaxPixelHeight.
func (c *TuningConfig) GetMaxPixelHeight() int {
	if c.MaxPixelHeight == nil {
		return DefaultMaxPixelHeight
	}
	return *c.MaxPixelHeight
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func parsePartitionMethod(s string) (duotoneanim.PartitionMethod, error) {
	for _, m := range []duotoneanim.PartitionMethod{duotoneanim.PartitionScan, duotoneanim.PartitionKMeans} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown partition_method %q", s)
}

func parseColorMethod(s string) (duotoneanim.ColorMethod, error) {
	for _, m := range []duotoneanim.ColorMethod{duotoneanim.ColorHueMean, duotoneanim.ColorDominant} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown color_method %q", s)
}
