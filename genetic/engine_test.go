package genetic

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/genetic-go/genetic/nn"
	"github.com/baldhumanity/genetic-go/genetic/random"
)

// smallWeights rewards networks whose weights are close to zero.
func smallWeights(s Snapshot) (map[int]float64, error) {
	scores := make(map[int]float64, s.Len())
	for _, id := range s.IDs() {
		net, _ := s.Network(id)
		scores[id] = -sumSquaredWeights(net)
	}
	return scores, nil
}

func sumSquaredWeights(net *nn.Network) float64 {
	sum := 0.0
	for _, w := range net.Weights() {
		r, c := w.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				sum += w.At(i, j) * w.At(i, j)
			}
		}
	}
	return sum
}

func newTestEngine(t *testing.T, seed int64, mutate func(c *Config)) *Engine {
	t.Helper()
	cfg := DefaultConfig([]int{2, 3, 1})
	if mutate != nil {
		mutate(cfg)
	}
	e, err := NewEngine(cfg, random.New(seed))
	require.NoError(t, err)
	return e
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cases := map[string]func(c *Config){
		"bad topology":         func(c *Config) { c.LayerSizes = []int{2} },
		"too few individuals":  func(c *Config) { c.NumPopulations = 2 },
		"negative threshold":   func(c *Config) { c.CrossoverThreshold = -1 },
		"mutation1 above one":  func(c *Config) { c.Mutation1Rate = 1.5 },
		"mutation2 below zero": func(c *Config) { c.Mutation2Rate = -0.1 },
		"range not monotonic":  func(c *Config) { c.Mutation2Range = []float64{2.5, 0.1} },
		"range wrong length":   func(c *Config) { c.Mutation2Range = []float64{0.1} },
		"range negative":       func(c *Config) { c.Mutation2Range = []float64{-1, 1} },
		"too many new":         func(c *Config) { c.NumNew = 7 },
		"negative new":         func(c *Config) { c.NumNew = -1 },
		"id space too small":   func(c *Config) { c.IDSpace = 15 },
		"three leaves no room": func(c *Config) { c.NumPopulations = 3 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig([]int{2, 3, 1})
			mutate(cfg)
			_, err := NewEngine(cfg, random.New(1))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration), "got %v", err)
		})
	}

	_, err := NewEngine(nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestNewEngineInitialState(t *testing.T) {
	e := newTestEngine(t, 1, nil)
	assert.Equal(t, 1, e.Generation())
	assert.Equal(t, DefaultNumPopulations, e.Population().Len())
	assert.Equal(t, 0, e.Previous().Len())
	_, ok := e.EliteIDs()
	assert.False(t, ok)
	assert.NotEqual(t, [16]byte{}, [16]byte(e.RunID()))

	avg, err := e.AverageScore()
	require.NoError(t, err)
	assert.Equal(t, 0.0, avg)
}

func TestConfigIsCopied(t *testing.T) {
	cfg := DefaultConfig([]int{2, 3, 1})
	e, err := NewEngine(cfg, random.New(1))
	require.NoError(t, err)
	cfg.NumPopulations = 50
	cfg.LayerSizes[0] = 9
	assert.Equal(t, DefaultNumPopulations, e.Config().NumPopulations)
	assert.Equal(t, []int{2, 3, 1}, e.Config().LayerSizes)
}

func TestPopulationSizeInvariant(t *testing.T) {
	e := newTestEngine(t, 2, func(c *Config) {
		c.NumPopulations = 9
		c.NumNew = 3
	})
	for g := 0; g < 15; g++ {
		require.NoError(t, e.NextGen(smallWeights))
		assert.Equal(t, 9, e.Population().Len())
		assert.Equal(t, g+2, e.Generation())
	}
}

func TestNextGenKeepsElitesUnderSameIDs(t *testing.T) {
	e := newTestEngine(t, 3, nil)
	require.NoError(t, e.NextGen(smallWeights))

	elites, ok := e.EliteIDs()
	require.True(t, ok)
	assert.NotEqual(t, elites[0], elites[1])

	prev := e.Previous()
	best, _ := prev.RankID(0)
	second, _ := prev.RankID(1)
	assert.Equal(t, [2]int{best, second}, elites)

	for _, id := range elites {
		score, ok := e.Score(id)
		require.True(t, ok, "elite %d must survive into the next generation", id)
		assert.Equal(t, 0.0, score)

		net, ok := e.Network(id)
		require.True(t, ok)
		old, _ := prev.Get(id)
		assert.Same(t, old.Network, net)
	}
}

func TestEliteNonDegradation(t *testing.T) {
	// Noisy scores: the same individual is scored differently each generation.
	noise := random.New(99)
	noisy := func(s Snapshot) (map[int]float64, error) {
		scores := map[int]float64{}
		for _, id := range s.IDs() {
			scores[id] = noise.Float(0, 10)
		}
		return scores, nil
	}

	e := newTestEngine(t, 4, func(c *Config) { c.NumNew = 2 })
	require.NoError(t, e.NextGen(noisy))
	for g := 0; g < 25; g++ {
		before := e.Previous()
		require.NoError(t, e.NextGen(noisy))
		after := e.Previous()

		elites, ok := e.EliteIDs()
		require.True(t, ok)
		for _, id := range elites {
			now, ok := after.Get(id)
			require.True(t, ok)
			if old, ok := before.Get(id); ok {
				assert.GreaterOrEqual(t, now.Score, old.Score)
			}
		}

		// The retained pool dominates the previous one rank by rank.
		beforeRanked, afterRanked := before.Ranked(), after.Ranked()
		require.Len(t, afterRanked, len(beforeRanked))
		for i := range beforeRanked {
			b, _ := before.Get(beforeRanked[i])
			a, _ := after.Get(afterRanked[i])
			assert.GreaterOrEqual(t, a.Score, b.Score)
		}
	}
}

func TestScoringErrorLeavesEngineUnchanged(t *testing.T) {
	e := newTestEngine(t, 5, nil)
	require.NoError(t, e.NextGen(smallWeights))
	require.NoError(t, e.NextGen(smallWeights))

	gen := e.Generation()
	elites, _ := e.EliteIDs()
	ids := e.Population().IDs()
	prevScores := e.Previous().Scores()

	boom := errors.New("simulation crashed")
	err := e.NextGen(func(s Snapshot) (map[int]float64, error) {
		partial := map[int]float64{}
		for _, id := range s.IDs() {
			partial[id] = 1000
		}
		return partial, boom
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	assert.Equal(t, gen, e.Generation())
	after, _ := e.EliteIDs()
	assert.Equal(t, elites, after)
	assert.Equal(t, ids, e.Population().IDs())
	assert.Equal(t, prevScores, e.Previous().Scores())
	for _, s := range e.Population().Scores() {
		assert.Equal(t, 0.0, s)
	}
}

func TestScoringSeesCurrentGeneration(t *testing.T) {
	e := newTestEngine(t, 6, nil)
	var seen []int
	var gen int
	err := e.NextGen(func(s Snapshot) (map[int]float64, error) {
		seen = s.IDs()
		gen = s.Generation()
		_, ok := s.Network(-1)
		assert.False(t, ok)
		// Unknown ids are ignored, missing ids keep 0.
		return map[int]float64{seen[0]: 3, -5: 100}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, gen)
	assert.Len(t, seen, DefaultNumPopulations)

	elites, _ := e.EliteIDs()
	assert.Equal(t, seen[0], elites[0])
	assert.Equal(t, DefaultNumPopulations, e.Previous().Len())
	_, ok := e.Previous().Get(-5)
	assert.False(t, ok)
}

func TestNilScoringRuns(t *testing.T) {
	e := newTestEngine(t, 7, nil)
	for i := 0; i < 3; i++ {
		require.NoError(t, e.NextGen(nil))
	}
	assert.Equal(t, 4, e.Generation())
	assert.Equal(t, DefaultNumPopulations, e.Population().Len())
}

func TestIDByRank(t *testing.T) {
	e := newTestEngine(t, 8, nil)
	_, ok := e.IDByRank(DefaultNumPopulations)
	assert.False(t, ok)
	id, ok := e.IDByRank(0)
	require.True(t, ok)
	_, ok = e.Network(id)
	assert.True(t, ok)
}

func TestEvolutionSelectsSmallWeights(t *testing.T) {
	e := newTestEngine(t, 9, func(c *Config) {
		c.NumPopulations = 6
		c.NumNew = 1
	})
	stats := NewStatisticsReporter()
	e.AddReporter(stats)

	for g := 0; g < 20; g++ {
		require.NoError(t, e.NextGen(smallWeights))
		require.Equal(t, 6, e.Population().Len())
	}

	pool := stats.PoolMeanHistory()
	best := stats.BestHistory()
	require.Len(t, pool, 20)
	for i := len(pool) - 10; i < len(pool); i++ {
		assert.GreaterOrEqual(t, pool[i], pool[i-1]-1e-9, "elite pool mean dropped at generation %d", i+2)
		assert.GreaterOrEqual(t, best[i], best[i-1]-1e-9, "best score dropped at generation %d", i+2)
	}
	assert.GreaterOrEqual(t, pool[len(pool)-1], pool[0])
	assert.Equal(t, 20, stats.BestAverage().Count())
}

func TestIndependentEnginesWithSameSeedAgree(t *testing.T) {
	a := newTestEngine(t, 10, nil)
	b := newTestEngine(t, 10, nil)
	for i := 0; i < 5; i++ {
		require.NoError(t, a.NextGen(smallWeights))
		require.NoError(t, b.NextGen(smallWeights))
	}
	assert.Equal(t, a.Population().IDs(), b.Population().IDs())
	assert.Equal(t, a.Previous().Scores(), b.Previous().Scores())
	assert.NotEqual(t, a.RunID(), b.RunID())
}

func TestNaNScoreIsRejected(t *testing.T) {
	e := newTestEngine(t, 12, nil)
	require.NoError(t, e.NextGen(smallWeights))

	var buf bytes.Buffer
	e.AddReporter(NewStdOutReporter(&buf, "nan"))
	gen := e.Generation()
	elites, _ := e.EliteIDs()
	prevScores := e.Previous().Scores()

	err := e.NextGen(func(s Snapshot) (map[int]float64, error) {
		scores, _ := smallWeights(s)
		scores[s.IDs()[0]] = math.NaN()
		return scores, nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidScore), "got %v", err)

	assert.Equal(t, gen, e.Generation())
	after, _ := e.EliteIDs()
	assert.Equal(t, elites, after)
	assert.Equal(t, prevScores, e.Previous().Scores())
	for _, s := range e.Population().Scores() {
		assert.Equal(t, 0.0, s)
	}
	assert.Empty(t, buf.String(), "a rejected generation must not be reported")

	require.NoError(t, e.NextGen(smallWeights))
	assert.Equal(t, gen+1, e.Generation())
}

func TestReproductionErrorLeavesEngineUnchanged(t *testing.T) {
	e := newTestEngine(t, 13, nil)
	require.NoError(t, e.NextGen(smallWeights))

	gen := e.Generation()
	elites, _ := e.EliteIDs()
	ids := e.Population().IDs()
	prevScores := e.Previous().Scores()

	cramped := e.Config()
	cramped.IDSpace = 3
	e.reproduction = NewReproduction(cramped, random.New(1))

	err := e.NextGen(smallWeights)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIDSpaceExhausted), "got %v", err)

	assert.Equal(t, gen, e.Generation())
	after, _ := e.EliteIDs()
	assert.Equal(t, elites, after)
	assert.Equal(t, ids, e.Population().IDs())
	assert.Equal(t, prevScores, e.Previous().Scores())
	for _, s := range e.Population().Scores() {
		assert.Equal(t, 0.0, s)
	}
}
