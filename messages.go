package duotoneanim

// Inbound is a request handed to a run: StartFresh or Continue.
type Inbound interface {
	inbound()
}

// StartFresh starts a run from a raw RGBA8888 buffer of Width×Height pixels.
type StartFresh struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	RGBA   []uint8 `json:"rgba"`
}

// Continue resumes a finished run from its schedule and Done state.
type Continue struct {
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Schedule ScheduleState `json:"scheduleState"`
	State    EngineState   `json:"engineState"`
}

func (StartFresh) inbound() {}
func (Continue) inbound()   {}

// Outbound is an event emitted by a run, in the order DuotoneReady, one
// FrameBatch per batch, Done.
type Outbound interface {
	Kind() string
}

type DuotoneReady struct {
	Duotone
	FrameBatchCount       int     `json:"frameBatchCount"`
	FrameBatchSize        int     `json:"frameBatchSize"`
	FlipOnOffPixels       bool    `json:"flipOnOffPixels"`
	LightnessThreshold    float64 `json:"lightnessThreshold"`
	FirstFrameBinaryState []uint8 `json:"firstFrameBinaryState"`
}

// Done closes a run with everything needed for a later Continue.
type Done struct {
	RunID string      `json:"runId"`
	State EngineState `json:"state"`
}

func (DuotoneReady) Kind() string { return "duotone-ready" }
func (FrameBatch) Kind() string   { return "frame-batch" }
func (Done) Kind() string         { return "done" }

// EngineState is the mutable part of a run.
type EngineState struct {
	GroupRecords          []GroupRecord `json:"groupRecords"`
	CompositeGroupOfPixel []GroupKey    `json:"compositeGroupOfPixel"`
	SourceOfPixel         []int         `json:"sourceOfPixel"`
	BinaryState           []uint8       `json:"binaryState"`
	RGBA                  []uint8       `json:"rgba"`
}

// NewContinue assembles the continue request for a run that emitted ready
// and done over the given first frame.
func NewContinue(width, height int, firstRGBA []uint8, ready DuotoneReady, done Done) Continue {
	return Continue{
		Width:  width,
		Height: height,
		Schedule: ScheduleState{
			FrameBatchCount:       ready.FrameBatchCount,
			FrameBatchSize:        ready.FrameBatchSize,
			FlipOnOffPixels:       ready.FlipOnOffPixels,
			LightnessThreshold:    ready.LightnessThreshold,
			FirstFrameBinaryState: ready.FirstFrameBinaryState,
			FirstFrameRGBA:        firstRGBA,
		},
		State: done.State,
	}
}
