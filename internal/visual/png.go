package visual

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const titleHeight = 20

var _ Renderer = (*PNG)(nil)

// PNG renders panels as a single row montage scaled to a common height.
type PNG struct {
	Height int
	Gap    int
}

func NewPNG() *PNG {
	return &PNG{Height: 256, Gap: 8}
}

func (r *PNG) Render(w io.Writer, panels []Panel) error {
	if len(panels) == 0 {
		return ErrNoPanels
	}
	height, gap := max(r.Height, 1), max(r.Gap, 0)

	widths := make([]int, len(panels))
	total := gap
	for i, p := range panels {
		b := p.Image.Bounds()
		widths[i] = 1
		if b.Dy() > 0 {
			widths[i] = max(1, (b.Dx()*height+b.Dy()/2)/b.Dy())
		}
		total += widths[i] + gap
	}

	canvas := image.NewRGBA(image.Rect(0, 0, total, height+titleHeight+2*gap))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	x := gap
	for i, p := range panels {
		src, mapped := colorize(p)
		dst := image.Rect(x, gap+titleHeight, x+widths[i], gap+titleHeight+height)
		// label maps keep hard edges
		scaler := draw.Interpolator(draw.CatmullRom)
		if mapped {
			scaler = draw.NearestNeighbor
		}
		scaler.Scale(canvas, dst, src, src.Bounds(), draw.Src, nil)

		d := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(color.Black),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(x, gap+titleHeight-6),
		}
		d.DrawString(p.Title)
		x += widths[i] + gap
	}
	return png.Encode(w, canvas)
}
