package genetic

import (
	"io"
	"log"
	"time"
)

// Reporter receives progress notifications from an Engine.
type Reporter interface {
	// StartGeneration is called once the scores of a generation are accepted.
	StartGeneration(generation int)
	// PostEvaluate is called once scores are applied, before selection.
	PostEvaluate(stats GenerationStats)
	// EndGeneration is called after the next generation has been built.
	EndGeneration(stats GenerationStats, elapsed time.Duration)
}

// ReporterSet fans notifications out to every registered reporter.
type ReporterSet struct {
	reporters []Reporter
}

// Add registers a reporter.
func (rs *ReporterSet) Add(r Reporter) {
	rs.reporters = append(rs.reporters, r)
}

// Remove unregisters a reporter.
func (rs *ReporterSet) Remove(r Reporter) {
	for i, existing := range rs.reporters {
		if existing == r {
			rs.reporters = append(rs.reporters[:i], rs.reporters[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered reporters.
func (rs *ReporterSet) Len() int {
	return len(rs.reporters)
}

// StartGeneration forwards to every registered reporter.
func (rs *ReporterSet) StartGeneration(generation int) {
	for _, r := range rs.reporters {
		r.StartGeneration(generation)
	}
}

// PostEvaluate forwards to every registered reporter.
func (rs *ReporterSet) PostEvaluate(stats GenerationStats) {
	for _, r := range rs.reporters {
		r.PostEvaluate(stats)
	}
}

// EndGeneration forwards to every registered reporter.
func (rs *ReporterSet) EndGeneration(stats GenerationStats, elapsed time.Duration) {
	for _, r := range rs.reporters {
		r.EndGeneration(stats, elapsed)
	}
}

// StdOutReporter writes human readable progress lines.
type StdOutReporter struct {
	logger *log.Logger
}

// NewStdOutReporter logs to w, prefixing every line with label (typically
// the engine's run id).
func NewStdOutReporter(w io.Writer, label string) *StdOutReporter {
	prefix := ""
	if label != "" {
		prefix = "[" + label + "] "
	}
	return &StdOutReporter{logger: log.New(w, prefix, 0)}
}

// StartGeneration prints the generation header.
func (r *StdOutReporter) StartGeneration(generation int) {
	r.logger.Printf("****** Generation %d ******", generation)
}

// PostEvaluate prints the score summary of the evaluated generation.
func (r *StdOutReporter) PostEvaluate(stats GenerationStats) {
	r.logger.Printf(" Evaluated %d individuals: best %.4f, mean %.4f, stdev %.4f", stats.Size, stats.Best, stats.Mean, stats.Stdev)
}

// EndGeneration prints the elites and the time the generation took.
func (r *StdOutReporter) EndGeneration(stats GenerationStats, elapsed time.Duration) {
	r.logger.Printf(" Elites %d and %d, elite pool mean %.4f", stats.Elites[0], stats.Elites[1], stats.PoolMean)
	r.logger.Printf("Generation %d finished in %s", stats.Generation, elapsed)
}

// StatisticsReporter keeps the per-generation statistics of a run.
type StatisticsReporter struct {
	history []GenerationStats
	best    *RunningAverage
}

// NewStatisticsReporter returns an empty StatisticsReporter.
func NewStatisticsReporter() *StatisticsReporter {
	return &StatisticsReporter{best: NewRunningAverage()}
}

// StartGeneration is a no-op.
func (r *StatisticsReporter) StartGeneration(int) {}

// PostEvaluate is a no-op; statistics are recorded once elites are known.
func (r *StatisticsReporter) PostEvaluate(GenerationStats) {}

// EndGeneration records the statistics of a completed generation.
func (r *StatisticsReporter) EndGeneration(stats GenerationStats, _ time.Duration) {
	r.history = append(r.history, stats)
	r.best.Add(stats.Best)
}

// History returns the recorded statistics, oldest first.
func (r *StatisticsReporter) History() []GenerationStats {
	return append([]GenerationStats(nil), r.history...)
}

// BestHistory returns the best score of every generation.
func (r *StatisticsReporter) BestHistory() []float64 {
	return r.collect(func(s GenerationStats) float64 { return s.Best })
}

// MeanHistory returns the mean score of every generation.
func (r *StatisticsReporter) MeanHistory() []float64 {
	return r.collect(func(s GenerationStats) float64 { return s.Mean })
}

// PoolMeanHistory returns the elite pool mean of every generation.
func (r *StatisticsReporter) PoolMeanHistory() []float64 {
	return r.collect(func(s GenerationStats) float64 { return s.PoolMean })
}

// BestAverage returns the running average of per-generation best scores.
func (r *StatisticsReporter) BestAverage() *RunningAverage {
	return r.best
}

func (r *StatisticsReporter) collect(fn func(GenerationStats) float64) []float64 {
	out := make([]float64, len(r.history))
	for i, s := range r.history {
		out[i] = fn(s)
	}
	return out
}
