package tui

import "strings"

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Series keeps the most recent samples of one dashboard gauge, up to a
// limit. Older samples fall off the front as new ones arrive.
type Series struct {
	limit   int
	samples []float64
}

// NewSeries creates a series holding at most limit samples.
func NewSeries(limit int) *Series {
	return &Series{limit: max(limit, 1)}
}

// Add appends v, dropping the oldest sample once the series is full.
func (s *Series) Add(v float64) {
	s.samples = append(s.samples, v)
	if over := len(s.samples) - s.limit; over > 0 {
		s.samples = append(s.samples[:0], s.samples[over:]...)
	}
}

// Values returns the samples, oldest first. The slice is owned by s.
func (s *Series) Values() []float64 { return s.samples }

// Len is the number of samples held.
func (s *Series) Len() int { return len(s.samples) }

// Limit is the maximum number of samples held.
func (s *Series) Limit() int { return s.limit }

// Latest returns the newest sample, or 0 for an empty series.
func (s *Series) Latest() float64 {
	if len(s.samples) == 0 {
		return 0
	}
	return s.samples[len(s.samples)-1]
}

// Peak returns the largest sample, or 0 for an empty series.
func (s *Series) Peak() float64 {
	peak := 0.0
	for _, v := range s.samples {
		peak = max(peak, v)
	}
	return peak
}

// SetLimit changes how many samples the series holds, keeping the newest.
func (s *Series) SetLimit(limit int) {
	s.limit = max(limit, 1)
	if over := len(s.samples) - s.limit; over > 0 {
		s.samples = append(s.samples[:0], s.samples[over:]...)
	}
}

// Clear drops every sample.
func (s *Series) Clear() { s.samples = s.samples[:0] }

// Sparkline draws values as block glyphs scaled against ceiling. A
// non-positive ceiling scales against the largest value, which suits
// unbounded gauges such as throughput.
func Sparkline(values []float64, ceiling float64) string {
	if len(values) == 0 {
		return ""
	}
	if ceiling <= 0 {
		for _, v := range values {
			ceiling = max(ceiling, v)
		}
		if ceiling <= 0 {
			return strings.Repeat(string(sparkBlocks[0]), len(values))
		}
	}
	top := len(sparkBlocks) - 1
	var b strings.Builder
	for _, v := range values {
		level := int(min(max(v/ceiling, 0), 1) * float64(top))
		b.WriteRune(sparkBlocks[level])
	}
	return b.String()
}
