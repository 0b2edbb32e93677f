package genetic

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/campoy/unique"
	"github.com/gofrs/uuid"

	"github.com/baldhumanity/genetic-go/genetic/nn"
	"github.com/baldhumanity/genetic-go/genetic/random"
)

// ScoringFunc evaluates a generation. It returns the score of each
// identifier it evaluated; identifiers left out keep score 0 and unknown
// identifiers are ignored. An error aborts the generation.
type ScoringFunc func(s Snapshot) (map[int]float64, error)

// Snapshot is the read-only view of a generation handed to a ScoringFunc.
type Snapshot struct {
	generation int
	pop        *Population
}

// Generation returns the number of the generation being scored.
func (s Snapshot) Generation() int {
	return s.generation
}

// IDs returns the identifiers to score in ascending order.
func (s Snapshot) IDs() []int {
	return s.pop.IDs()
}

// Len returns the number of individuals to score.
func (s Snapshot) Len() int {
	return s.pop.Len()
}

// Network returns the network of an individual.
func (s Snapshot) Network(id int) (*nn.Network, bool) {
	ind, ok := s.pop.Get(id)
	if !ok {
		return nil, false
	}
	return ind.Network, true
}

// Engine evolves a population of dense networks one generation at a time.
// It is not safe for concurrent use; independent engines may run in
// parallel as long as they do not share a random.Source.
type Engine struct {
	config       *Config
	rng          *random.Source
	runID        uuid.UUID
	reproduction *Reproduction
	reporters    ReporterSet

	generation int
	current    *Population
	previous   *Population // snapshot taken at the last elite selection
	elites     []int       // nil until the first NextGen
}

// NewEngine validates config and seeds the first generation with random
// networks. A nil rng is replaced by a time-seeded source.
func NewEngine(config *Config, rng *random.Source) (*Engine, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is required", ErrInvalidConfiguration)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = random.NewTimeSeeded()
	}

	cfg := config.Clone()
	reproduction := NewReproduction(cfg, rng)
	initial, err := reproduction.CreateNewPopulation(cfg.NumPopulations)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial population: %w", err)
	}

	return &Engine{
		config:       cfg,
		rng:          rng,
		runID:        uuid.Must(uuid.NewV4()),
		reproduction: reproduction,
		generation:   1,
		current:      initial,
		previous:     NewPopulation(cfg.IDSpace, rng),
	}, nil
}

// NextGen runs one generation: score, keep elites, reproduce and replenish.
//
// A nil score skips evaluation and every individual keeps score 0. When
// score fails or reports a NaN score, or reproduction fails, the error is
// returned and the engine is left unchanged. Reporters hear about a
// generation only once its scores have been accepted.
func (e *Engine) NextGen(score ScoringFunc) error {
	start := time.Now()
	generation := e.generation + 1

	// 1. Evaluate fitness
	scored := e.current.Snapshot()
	if score != nil {
		scores, err := score(Snapshot{generation: generation, pop: e.current})
		if err != nil {
			return fmt.Errorf("fitness evaluation failed in generation %d: %w", generation, err)
		}
		for id, s := range scores {
			if math.IsNaN(s) {
				return fmt.Errorf("fitness evaluation failed in generation %d: %w: individual %d scored NaN",
					generation, ErrInvalidScore, id)
			}
			scored.SetScore(id, s)
		}
	}
	e.reporters.StartGeneration(generation)

	stats := summarize(generation, scored.Scores())
	e.reporters.PostEvaluate(stats)

	// 2. Keep elites
	fittest, elites := e.selectElites(scored)
	stats.Elites = [2]int{elites[0], elites[1]}
	stats.PoolMean, _ = fittest.AverageScore()

	// 3. Reproduce from the two fittest
	parent1, _ := fittest.Get(elites[0])
	parent2, _ := fittest.Get(elites[1])
	next, err := e.reproduction.Reproduce(elites[0], elites[1], parent1.Network, parent2.Network)
	if err != nil {
		return fmt.Errorf("reproduction failed in generation %d: %w", generation, err)
	}

	e.generation = generation
	e.elites = elites
	e.previous = fittest.Snapshot()
	e.current = next

	e.reporters.EndGeneration(stats, time.Since(start))
	return nil
}

// selectElites returns the fittest NumPopulations individuals of the scored
// generation and the previous snapshot, along with the top two of them.
// Neither input nor the engine is modified.
//
// For each previous elite the newer entry is kept when its score is greater
// than or equal to the older one, otherwise the older entry survives, so a
// tracked elite never loses fitness by being re-scored lower.
func (e *Engine) selectElites(scored *Population) (*Population, []int) {
	if e.elites == nil {
		return scored, e.topTwo(scored)
	}

	cur, prev := scored.Snapshot(), e.previous.Snapshot()
	for _, id := range e.elites {
		older, inPrev := prev.Get(id)
		newer, inCur := cur.Get(id)
		if !inPrev || !inCur {
			continue
		}
		if newer.Score >= older.Score {
			prev.Delete(id)
		} else {
			cur.Delete(id)
		}
	}

	ids := append(cur.IDs(), prev.IDs()...)
	sort.Ints(ids)
	unique.Slice(&ids, func(i, j int) bool { return ids[i] < ids[j] })

	type candidate struct {
		id    int
		ind   *Individual
		fresh bool // from the current generation
	}
	pool := make([]candidate, 0, len(ids))
	for _, id := range ids {
		newer, inCur := cur.Get(id)
		older, inPrev := prev.Get(id)
		switch {
		case inCur && inPrev:
			// An identifier reused across generations by unrelated individuals.
			if !scoreAhead(older.Score, newer.Score) {
				pool = append(pool, candidate{id, newer, true})
			} else {
				pool = append(pool, candidate{id, older, false})
			}
		case inCur:
			pool = append(pool, candidate{id, newer, true})
		default:
			pool = append(pool, candidate{id, older, false})
		}
	}

	// ids are ascending, so a stable sort settles remaining ties by identifier.
	sort.SliceStable(pool, func(i, j int) bool {
		a, b := pool[i].ind.Score, pool[j].ind.Score
		if scoreAhead(a, b) || scoreAhead(b, a) {
			return scoreAhead(a, b)
		}
		return pool[i].fresh && !pool[j].fresh
	})
	if len(pool) > e.config.NumPopulations {
		pool = pool[:e.config.NumPopulations]
	}

	fittest := NewPopulation(e.config.IDSpace, e.rng)
	for _, c := range pool {
		fittest.Put(c.id, c.ind.Network, c.ind.Score)
	}
	return fittest, e.topTwo(fittest)
}

func (e *Engine) topTwo(p *Population) []int {
	ranked := p.Ranked()
	return []int{ranked[0], ranked[1]}
}

// AddReporter registers a progress reporter.
func (e *Engine) AddReporter(r Reporter) {
	e.reporters.Add(r)
}

// RemoveReporter unregisters a progress reporter.
func (e *Engine) RemoveReporter(r Reporter) {
	e.reporters.Remove(r)
}

// Generation returns the generation counter. It starts at 1 and grows by one
// per successful NextGen.
func (e *Engine) Generation() int {
	return e.generation
}

// IDByRank returns the identifier with the rank-th highest score in the
// current population.
func (e *Engine) IDByRank(rank int) (int, bool) {
	return e.current.RankID(rank)
}

// Network returns the network of an individual of the current population.
func (e *Engine) Network(id int) (*nn.Network, bool) {
	ind, ok := e.current.Get(id)
	if !ok {
		return nil, false
	}
	return ind.Network, true
}

// Score returns the score of an individual of the current population.
func (e *Engine) Score(id int) (float64, bool) {
	ind, ok := e.current.Get(id)
	if !ok {
		return 0, false
	}
	return ind.Score, true
}

// Population returns a snapshot of the current population.
func (e *Engine) Population() *Population {
	return e.current.Snapshot()
}

// Previous returns a snapshot of the population retained at the last elite
// selection. It is empty before the first NextGen.
func (e *Engine) Previous() *Population {
	return e.previous.Snapshot()
}

// EliteIDs returns the parents of the current generation. ok is false
// before the first NextGen.
func (e *Engine) EliteIDs() (elites [2]int, ok bool) {
	if e.elites == nil {
		return elites, false
	}
	return [2]int{e.elites[0], e.elites[1]}, true
}

// AverageScore returns the mean score of the current population.
func (e *Engine) AverageScore() (float64, error) {
	return e.current.AverageScore()
}

// RunID identifies this engine in reporter output.
func (e *Engine) RunID() uuid.UUID {
	return e.runID
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}
