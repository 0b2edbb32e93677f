package genetic

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/baldhumanity/genetic-go/genetic/nn"
	"github.com/baldhumanity/genetic-go/genetic/random"
)

// Individual pairs a network with its fitness score. Higher is better.
type Individual struct {
	Network *nn.Network
	Score   float64
}

// Population maps identifiers drawn from [0, idSpace) to individuals.
type Population struct {
	individuals map[int]*Individual
	idSpace     int
	rng         *random.Source
}

// NewPopulation creates an empty population whose identifiers are drawn from
// [0, idSpace) using rng.
func NewPopulation(idSpace int, rng *random.Source) *Population {
	return &Population{
		individuals: make(map[int]*Individual),
		idSpace:     idSpace,
		rng:         rng,
	}
}

// Insert stores the network under a fresh random identifier and returns it.
// A taken identifier is redrawn until a free one comes up, so no live
// individual is ever overwritten.
func (p *Population) Insert(net *nn.Network, score float64) (int, error) {
	if len(p.individuals) >= p.idSpace {
		return 0, fmt.Errorf("%w: %d identifiers in use", ErrIDSpaceExhausted, len(p.individuals))
	}
	id := p.rng.Int(0, p.idSpace-1)
	for p.has(id) {
		id = p.rng.Int(0, p.idSpace-1)
	}
	p.individuals[id] = &Individual{Network: net, Score: score}
	return id, nil
}

// Put stores the network under a caller-chosen identifier, replacing any
// individual already there.
func (p *Population) Put(id int, net *nn.Network, score float64) {
	p.individuals[id] = &Individual{Network: net, Score: score}
}

func (p *Population) has(id int) bool {
	_, ok := p.individuals[id]
	return ok
}

// Get returns the individual with the given identifier.
func (p *Population) Get(id int) (*Individual, bool) {
	ind, ok := p.individuals[id]
	return ind, ok
}

// Delete removes an individual. Unknown identifiers are ignored.
func (p *Population) Delete(id int) {
	delete(p.individuals, id)
}

// Len returns the number of live individuals.
func (p *Population) Len() int {
	return len(p.individuals)
}

// IDs returns all identifiers in ascending order.
func (p *Population) IDs() []int {
	ids := make([]int, 0, len(p.individuals))
	for id := range p.individuals {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Scores returns the scores ordered by ascending identifier.
func (p *Population) Scores() []float64 {
	ids := p.IDs()
	scores := make([]float64, len(ids))
	for i, id := range ids {
		scores[i] = p.individuals[id].Score
	}
	return scores
}

// Ranked returns all identifiers ordered by score, best first. Equal scores
// are ordered by ascending identifier and NaN scores rank last.
func (p *Population) Ranked() []int {
	ids := p.IDs()
	sort.SliceStable(ids, func(i, j int) bool {
		return scoreAhead(p.individuals[ids[i]].Score, p.individuals[ids[j]].Score)
	})
	return ids
}

// scoreAhead reports whether a ranks strictly before b. NaN ranks after
// every number so the ordering stays a strict weak order.
func scoreAhead(a, b float64) bool {
	if math.IsNaN(b) {
		return !math.IsNaN(a)
	}
	return a > b
}

// RankID returns the identifier holding the rank-th highest score (rank 0 is
// the fittest). ok is false when rank is outside [0, Len()).
func (p *Population) RankID(rank int) (id int, ok bool) {
	if rank < 0 || rank >= len(p.individuals) {
		return 0, false
	}
	return p.Ranked()[rank], true
}

// SetScore overwrites the score of an existing individual. Unknown
// identifiers are ignored.
func (p *Population) SetScore(id int, score float64) {
	if ind, ok := p.individuals[id]; ok {
		ind.Score = score
	}
}

// AverageScore returns the arithmetic mean of all scores.
func (p *Population) AverageScore() (float64, error) {
	if len(p.individuals) == 0 {
		return 0, ErrEmptyPopulation
	}
	return floats.Sum(p.Scores()) / float64(len(p.individuals)), nil
}

// Snapshot returns a copy whose individuals are independent values: scores
// set on one side are not seen by the other. Networks are shared.
func (p *Population) Snapshot() *Population {
	cp := NewPopulation(p.idSpace, p.rng)
	for id, ind := range p.individuals {
		copied := *ind
		cp.individuals[id] = &copied
	}
	return cp
}
