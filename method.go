package segmentation

import (
	"fmt"
	"strings"
)

// Method selects the algorithm that labels an image.
type Method int

const (
	MethodKMeans Method = iota
	MethodRatioCut
)

// Methods lists every method in the order the driver runs them.
var Methods = []Method{MethodKMeans, MethodRatioCut}

func (m Method) String() string {
	switch m {
	case MethodKMeans:
		return "K-Means"
	case MethodRatioCut:
		return "Ratio Cut"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// Key is the identifier used by configuration files and the score store.
func (m Method) Key() string {
	switch m {
	case MethodKMeans:
		return "kmeans"
	case MethodRatioCut:
		return "ratio_cut"
	default:
		return ""
	}
}

// Colormap names the colormap label maps of this method are drawn with.
func (m Method) Colormap() string {
	switch m {
	case MethodKMeans:
		return "plasma"
	case MethodRatioCut:
		return "cividis"
	default:
		return "viridis"
	}
}

// ParseMethod accepts the keys "kmeans" and "ratio_cut" as well as the
// display names, case insensitive.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kmeans", "k-means", "k means":
		return MethodKMeans, nil
	case "ratio_cut", "ratio-cut", "ratiocut", "ratio cut":
		return MethodRatioCut, nil
	}
	return 0, fmt.Errorf("%w: unknown method %q", ErrInvalidConfig, s)
}
