package kmeans

// AverageStore accumulates a running mean of D-dimensional rows.
type AverageStore struct {
	sum   []float64
	count int
}

func NewAverageStore(dim int) *AverageStore {
	return &AverageStore{sum: make([]float64, dim)}
}

func (s *AverageStore) Add(row []float64) {
	for i, v := range row {
		s.sum[i] += v
	}
	s.count += 1
}

// AverageTo writes the mean into dst. It must not be called on an empty store.
func (s *AverageStore) AverageTo(dst []float64) {
	for i, v := range s.sum {
		dst[i] = v / float64(s.count)
	}
}

func (s *AverageStore) Count() int { return s.count }

func (s *AverageStore) Reset() {
	clear(s.sum)
	s.count = 0
}
