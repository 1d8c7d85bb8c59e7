// Package duotoneanim turns a still image into a replayable animation of a
// two-color reinterpretation of it.
//
// The first frame is classified into on and off pixels by lightness, then
// segmented into 4-connected groups no smaller than a fraction of the image.
// Each calculation step flips border pixels of every group, preferring
// locations near the previous flips, and recolors them by cloning original
// pixels from analogous positions around nearby pixels of the same group.
// Steps are merged into frame batches of per-pixel deltas.
//
// An Engine holds one run. Run and Start drive it through the message flow
// DuotoneReady, FrameBatch..., Done, and a Done state can be resumed later
// with a Continue request. Player replays batches on the host side.
package duotoneanim
