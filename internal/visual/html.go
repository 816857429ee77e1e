package visual

import (
	"fmt"
	"io"
	"slices"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var _ Renderer = (*HTML)(nil)

// HTML renders one heatmap per panel on a single go-echarts page. Images
// larger than MaxCells per side are subsampled.
type HTML struct {
	PageTitle string
	MaxCells  int
}

func NewHTML() *HTML {
	return &HTML{PageTitle: "Segmentation", MaxCells: 96}
}

func (r *HTML) Render(w io.Writer, panels []Panel) error {
	if len(panels) == 0 {
		return ErrNoPanels
	}
	page := components.NewPage()
	page.SetPageTitle(r.PageTitle)
	page.SetLayout(components.PageFlexLayout)
	for _, p := range panels {
		page.AddCharts(r.heatmap(p))
	}
	return page.Render(w)
}

func (r *HTML) heatmap(p Panel) *charts.HeatMap {
	b := p.Image.Bounds()
	values := luma(p.Image)
	stride := 1
	if limit := max(r.MaxCells, 1); max(b.Dx(), b.Dy()) > limit {
		stride = (max(b.Dx(), b.Dy()) + limit - 1) / limit
	}

	var xLabels, yLabels []string
	for x := 0; x < b.Dx(); x += stride {
		xLabels = append(xLabels, fmt.Sprint(x))
	}
	for y := 0; y < b.Dy(); y += stride {
		yLabels = append(yLabels, fmt.Sprint(y))
	}
	// category axes grow upwards; row 0 goes on top
	slices.Reverse(yLabels)
	top := len(yLabels) - 1

	var data []opts.HeatMapData
	for i, y := 0, 0; y < b.Dy(); i, y = i+1, y+stride {
		for j, x := 0, 0; x < b.Dx(); j, x = j+1, x+stride {
			data = append(data, opts.HeatMapData{
				Value: [3]any{j, top - i, values[y*b.Dx()+x]},
			})
		}
	}
	lo, hi := valueRange(values)

	heatmap := charts.NewHeatMap()
	heatmap.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: p.Title,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "category",
			Data: xLabels,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "category",
			Data: yLabels,
		}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			Range:      []float32{float32(lo), float32(hi)},
			InRange:    &opts.VisualMapInRange{Color: colormapOrGray(p.Colormap).Hex()},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	heatmap.AddSeries(p.Title, data)
	return heatmap
}
