package raster

// Downscale halves the grid levels times. Each output pixel is the mean of a
// 2x2 block, which is the Haar approximation band cA scaled by 1/2. Odd edges
// reuse the last row or column.
func Downscale(g Grid, levels int) Grid {
	for range levels {
		if g.Rows < 2 && g.Cols < 2 {
			break
		}
		g = haarApprox(g)
	}
	return g
}

func haarApprox(g Grid) Grid {
	w, h := g.Cols, g.Rows
	hw, hh := (w+1)/2, (h+1)/2
	out := Grid{Rows: hh, Cols: hw, Data: make([]float64, hw*hh)}
	data := g.Data

	for y0 := 0; y0 < h; y0 += 2 {
		y1 := y0
		if y0+1 < h {
			y1 = y0 + 1
		}
		for x0 := 0; x0 < w; x0 += 2 {
			x1 := x0
			if x0+1 < w {
				x1 = x0 + 1
			}
			sum := data[y0*w+x0] + data[y1*w+x0] + data[y0*w+x1] + data[y1*w+x1]
			out.Data[(y0/2)*hw+(x0/2)] = sum / 4
		}
	}
	return out
}

// Expand maps a label map computed on a grid downscaled levels times back to
// rows x cols by nearest-neighbor replication.
func Expand(l Labels, rows, cols, levels int) (Labels, error) {
	if levels == 0 {
		return NewLabels(rows, cols, l.Data)
	}
	data := make([]int, rows*cols)
	for i := range rows {
		si := min(i>>levels, l.Rows-1)
		for j := range cols {
			sj := min(j>>levels, l.Cols-1)
			data[i*cols+j] = l.Data[si*l.Cols+sj]
		}
	}
	return NewLabels(rows, cols, data)
}
