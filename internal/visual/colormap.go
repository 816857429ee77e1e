package visual

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Colormap maps [0, 1] onto a color ramp interpolated in CIE Lab space.
type Colormap struct {
	name  string
	stops []colorful.Color
}

var colormapStops = map[string][]string{
	"viridis": {"#440154", "#3b528b", "#21918c", "#5ec962", "#fde725"},
	"plasma":  {"#0d0887", "#7e03a8", "#cc4778", "#f89540", "#f0f921"},
	"cividis": {"#00224e", "#414d6b", "#7c7b78", "#bcaf6f", "#fee838"},
	"gray":    {"#000000", "#ffffff"},
}

// LookupColormap returns the named colormap.
func LookupColormap(name string) (Colormap, bool) {
	hexes, ok := colormapStops[name]
	if !ok {
		return Colormap{}, false
	}
	cm := Colormap{name: name, stops: make([]colorful.Color, len(hexes))}
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return Colormap{}, false
		}
		cm.stops[i] = c
	}
	return cm, true
}

// colormapOrGray falls back to gray for unknown names.
func colormapOrGray(name string) Colormap {
	if cm, ok := LookupColormap(name); ok {
		return cm
	}
	cm, _ := LookupColormap("gray")
	return cm
}

func (cm Colormap) Name() string { return cm.name }

// At returns the color at t, clamped to [0, 1].
func (cm Colormap) At(t float64) color.RGBA {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	t = math.Min(t, 1)
	pos := t * float64(len(cm.stops)-1)
	i := int(pos)
	var c colorful.Color
	if f := pos - float64(i); f == 0 || i >= len(cm.stops)-1 {
		c = cm.stops[min(i, len(cm.stops)-1)]
	} else {
		c = cm.stops[i].BlendLab(cm.stops[i+1], f).Clamped()
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Hex returns the stops as #rrggbb strings.
func (cm Colormap) Hex() []string {
	out := make([]string, len(cm.stops))
	for i, c := range cm.stops {
		out[i] = c.Hex()
	}
	return out
}
