package duotoneanim

import "math"

// Grid is a row-major width×height pixel grid.
type Grid struct {
	W, H int
}

type offset struct{ dx, dy int }

// ringOffsets lists the 8 neighbors clockwise from top-left. Odd entries are
// the side neighbors.
var ringOffsets = [8]offset{
	{-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0},
}

// sideOffsets lists the 4 side neighbors clockwise from top.
var sideOffsets = [4]offset{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

func (g Grid) Len() int { return g.W * g.H }

func (g Grid) Index(x, y int) int { return y*g.W + x }

func (g Grid) Coords(i int) (x, y int) { return i % g.W, i / g.W }

func (g Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.W && y >= 0 && y < g.H
}

// Distance is the Euclidean distance between two pixels.
func (g Grid) Distance(a, b int) float64 {
	ax, ay := g.Coords(a)
	bx, by := g.Coords(b)
	return math.Hypot(float64(ax-bx), float64(ay-by))
}

// SideNeighbors returns the in-bounds 4-neighbors of i, top first, clockwise.
func (g Grid) SideNeighbors(i int) []int {
	x, y := g.Coords(i)
	out := make([]int, 0, 4)
	for _, o := range sideOffsets {
		if g.InBounds(x+o.dx, y+o.dy) {
			out = append(out, g.Index(x+o.dx, y+o.dy))
		}
	}
	return out
}

// Neighbors returns the in-bounds 8-neighbors of i in ring order.
func (g Grid) Neighbors(i int) []int {
	ring := g.Ring(i)
	out := make([]int, 0, 8)
	for _, n := range ring {
		if n >= 0 {
			out = append(out, n)
		}
	}
	return out
}

// Ring returns the 8 neighbors of i clockwise from top-left, with -1 for
// positions outside the grid.
func (g Grid) Ring(i int) [8]int {
	x, y := g.Coords(i)
	var ring [8]int
	for k, o := range ringOffsets {
		if g.InBounds(x+o.dx, y+o.dy) {
			ring[k] = g.Index(x+o.dx, y+o.dy)
		} else {
			ring[k] = -1
		}
	}
	return ring
}

// Window returns the (2r+1)² square of pixel indices centered on i.
func (g Grid) Window(i, r int) Window {
	cx, cy := g.Coords(i)
	side := 2*r + 1
	cells := make([]int, side*side)
	for wy := range side {
		for wx := range side {
			x, y := cx-r+wx, cy-r+wy
			if g.InBounds(x, y) {
				cells[wy*side+wx] = g.Index(x, y)
			} else {
				cells[wy*side+wx] = -1
			}
		}
	}
	return Window{grid: g, cx: cx, cy: cy, R: r, Cells: cells}
}

// Window is a square neighborhood of a grid addressed relative to its center.
// Cells holds pixel indices in reading order, -1 where the square leaves the grid.
type Window struct {
	grid   Grid
	cx, cy int
	R      int
	Cells  []int
}

// Center returns the pixel index at the window's center.
func (w Window) Center() int { return w.At(0, 0) }

// At returns the pixel at offset (dx,dy) from the center, or -1.
// Offsets beyond the window are resolved against the grid.
func (w Window) At(dx, dy int) int {
	if dx < -w.R || dx > w.R || dy < -w.R || dy > w.R {
		x, y := w.cx+dx, w.cy+dy
		if !w.grid.InBounds(x, y) {
			return -1
		}
		return w.grid.Index(x, y)
	}
	side := 2*w.R + 1
	return w.Cells[(dy+w.R)*side+dx+w.R]
}

// Ring returns the ring of the cell at (dx,dy), in the same order as Grid.Ring.
func (w Window) Ring(dx, dy int) [8]int {
	var ring [8]int
	for k, o := range ringOffsets {
		ring[k] = w.At(dx+o.dx, dy+o.dy)
	}
	return ring
}

// Sub returns the window of radius r centered at offset (dx,dy).
func (w Window) Sub(dx, dy, r int) Window {
	side := 2*r + 1
	cells := make([]int, side*side)
	for sy := range side {
		for sx := range side {
			cells[sy*side+sx] = w.At(dx-r+sx, dy-r+sy)
		}
	}
	return Window{grid: w.grid, cx: w.cx + dx, cy: w.cy + dy, R: r, Cells: cells}
}
