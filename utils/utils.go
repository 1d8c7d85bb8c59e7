package utils

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/setanarut/duotoneanim"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ReadImage decodes the image at path, scales it down to maxHeight when it
// is taller and flattens any transparency over white. The result is a
// row-major RGBA buffer with alpha 255.
func ReadImage(path string, maxHeight int) (rgba []uint8, width, height int, err error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("open %s: %w", path, err)
	}
	return Prepare(src, maxHeight)
}

// Prepare applies the ReadImage scaling and matte to an already decoded image.
func Prepare(src image.Image, maxHeight int) (rgba []uint8, width, height int, err error) {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, 0, 0, fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy())
	}
	var scaled image.Image = src
	if maxHeight > 0 && b.Dy() > maxHeight {
		scaled = imaging.Resize(src, 0, maxHeight, imaging.Lanczos)
	}
	sb := scaled.Bounds()
	matte := imaging.New(sb.Dx(), sb.Dy(), color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	flat := imaging.Overlay(matte, scaled, image.Pt(0, 0), 1.0)
	return flat.Pix, sb.Dx(), sb.Dy(), nil
}

func SaveImage(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// SaveFrames writes each frame as frame_NNNN.png under dir.
func SaveFrames(frames []*image.NRGBA, dir string) error {
	for i := range frames {
		name := filepath.Join(dir, fmt.Sprintf("frame_%04d.png", i))
		if err := SaveImage(frames[i], name); err != nil {
			return err
		}
	}
	return nil
}

// SaveDuotoneSwatch writes the Off and On colors side by side, Off first.
func SaveDuotoneSwatch(d duotoneanim.Duotone, tileSize int, filename string) error {
	if tileSize <= 0 {
		tileSize = 64
	}
	swatch := []colorful.Color{toColorful(d.Off), toColorful(d.On)}

	w := tileSize * len(swatch)
	h := tileSize
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for i, c := range swatch {
		r, g, b := c.Clamped().RGB255()
		x0 := i * tileSize
		x1 := x0 + tileSize
		for y := range h {
			for x := x0; x < x1; x++ {
				img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
			}
		}
	}
	return SaveImage(img, filename)
}

func toColorful(c [4]uint8) colorful.Color {
	return colorful.Color{R: float64(c[0]) / 255, G: float64(c[1]) / 255, B: float64(c[2]) / 255}
}

// SaveGIF encodes the frames as a looping GIF with delay in 100ths of a second.
func SaveGIF(frames []*image.NRGBA, delay int, filename string) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames")
	}
	anim := &gif.GIF{}
	for _, fr := range frames {
		pm := image.NewPaletted(fr.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(pm, fr.Bounds(), fr, image.Point{})
		anim.Image = append(anim.Image, pm)
		anim.Delay = append(anim.Delay, delay)
	}
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, anim)
}

// PlotBatchActivity plots the number of changed pixels per frame batch.
func PlotBatchActivity(changed []int, title, filename string) error {
	if len(changed) == 0 {
		return fmt.Errorf("no batches")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Batch"
	p.Y.Label.Text = "Changed pixels"

	pts := make(plotter.XYs, 0, len(changed))
	for i, n := range changed {
		pts = append(pts, plotter.XY{X: float64(i), Y: float64(n)})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 200, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, filename); err != nil {
		return fmt.Errorf("save plot %s: %w", filename, err)
	}
	return nil
}

// BatchLabel names batch i for log output.
func BatchLabel(i, total int) string {
	return strconv.Itoa(i+1) + "/" + strconv.Itoa(total)
}
