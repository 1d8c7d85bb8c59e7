package duotoneanim

import (
	"image"
	"slices"
)

// Player applies frame batches to a host-side copy of the image, in color
// and in duotone. Batches must be applied in emission order.
type Player struct {
	grid   Grid
	colors Duotone
	rgba   []uint8
	state  []uint8
	frame  int
}

// NewPlayer starts at frame 0: the first frame's colors and the segmented
// binary state from ready.
func NewPlayer(width, height int, firstRGBA []uint8, ready DuotoneReady) *Player {
	p := &Player{
		grid:   Grid{W: width, H: height},
		colors: ready.Duotone,
		rgba:   slices.Clone(firstRGBA),
		state:  slices.Clone(ready.FirstFrameBinaryState),
	}
	for i := range p.grid.Len() {
		p.rgba[i*4+3] = 255
	}
	return p
}

// Forward applies b, moving one frame ahead.
func (p *Player) Forward(b FrameBatch) {
	for px, d := range b.Deltas {
		p.apply(px, d.After, d.FlipCount)
	}
	p.frame++
}

// Backward undoes b, which must be the last batch applied.
func (p *Player) Backward(b FrameBatch) {
	for px, d := range b.Deltas {
		p.apply(px, d.Before, d.FlipCount)
	}
	p.frame--
}

func (p *Player) apply(px int, rgb [3]uint8, flips int) {
	copy(p.rgba[px*4:px*4+3], rgb[:])
	if flips%2 == 1 {
		p.state[px] ^= 1
	}
}

// Frame is the number of batches currently applied.
func (p *Player) Frame() int { return p.frame }

func (p *Player) RGBA() []uint8 { return slices.Clone(p.rgba) }

func (p *Player) State() []uint8 { return slices.Clone(p.state) }

// Image renders the cloned color view.
func (p *Player) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.grid.W, p.grid.H))
	copy(img.Pix, p.rgba)
	return img
}

// DuotoneImage renders the binary state in the two display colors.
func (p *Player) DuotoneImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.grid.W, p.grid.H))
	for i, s := range p.state {
		c := p.colors.Off
		if s == 1 {
			c = p.colors.On
		}
		copy(img.Pix[i*4:i*4+4], c[:])
	}
	return img
}
