package genetic

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RunningAverage keeps the mean, minimum and maximum of a stream of samples
// without storing them.
type RunningAverage struct {
	count   int
	average float64
	min     float64
	max     float64
}

// NewRunningAverage returns an empty RunningAverage.
func NewRunningAverage() *RunningAverage {
	r := &RunningAverage{}
	r.Reset()
	return r
}

// Add folds a sample into the average.
func (r *RunningAverage) Add(sample float64) {
	r.count++
	r.average += (sample - r.average) / float64(r.count)
	r.min = math.Min(r.min, sample)
	r.max = math.Max(r.max, sample)
}

// Avg returns the current mean, 0 when no sample was added.
func (r *RunningAverage) Avg() float64 {
	return r.average
}

// Count returns the number of samples added.
func (r *RunningAverage) Count() int {
	return r.count
}

// Min returns the smallest sample, +Inf when empty.
func (r *RunningAverage) Min() float64 {
	return r.min
}

// Max returns the largest sample, -Inf when empty.
func (r *RunningAverage) Max() float64 {
	return r.max
}

// Range returns Max-Min, 0 when empty.
func (r *RunningAverage) Range() float64 {
	if r.count == 0 {
		return 0
	}
	return r.max - r.min
}

// Reset clears all samples.
func (r *RunningAverage) Reset() {
	r.count = 0
	r.average = 0
	r.min = math.Inf(1)
	r.max = math.Inf(-1)
}

// GenerationStats summarizes one generation.
type GenerationStats struct {
	Generation int
	Size       int     // individuals scored this generation
	Best       float64 // highest score of the scored generation
	Mean       float64
	Stdev      float64 // sample standard deviation, 0 for fewer than 2 scores
	PoolMean   float64 // mean score of the retained elite pool after selection
	Elites     [2]int  // identifiers of the parents of the next generation
}

// summarize fills Size, Best, Mean and Stdev from scores.
func summarize(generation int, scores []float64) GenerationStats {
	s := GenerationStats{Generation: generation, Size: len(scores)}
	if len(scores) == 0 {
		return s
	}
	s.Best = floats.Max(scores)
	s.Mean = stat.Mean(scores, nil)
	if len(scores) > 1 {
		s.Stdev = stat.StdDev(scores, nil)
	}
	return s
}
