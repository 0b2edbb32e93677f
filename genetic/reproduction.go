package genetic

import (
	"fmt"
	"math"

	"github.com/baldhumanity/genetic-go/genetic/nn"
	"github.com/baldhumanity/genetic-go/genetic/random"
)

// maxMutatedMagnitude caps a mutation-2 result; anything larger is resampled
// from a standard normal.
const maxMutatedMagnitude = 5.0

// Reproduction creates children from two parents and fresh random networks.
type Reproduction struct {
	Config *Config
	rng    *random.Source
}

// NewReproduction creates a reproduction manager for a validated config.
func NewReproduction(config *Config, rng *random.Source) *Reproduction {
	return &Reproduction{Config: config, rng: rng}
}

// Recombine derives one child parameter from the matching parent parameters
// v1 and v2.
//
// When the parents agree (|v2-v1| < CrossoverThreshold) the child takes
// their average, which is replaced by a standard normal sample with
// probability Mutation1Rate. Otherwise the child copies one parent at random
// and, with probability Mutation2Rate, is nudged by a signed offset whose
// magnitude is uniform over Mutation2Range. A nudged value whose magnitude
// exceeds 5 is resampled from a standard normal.
func (r *Reproduction) Recombine(v1, v2 float64) float64 {
	if math.Abs(v2-v1) < r.Config.CrossoverThreshold {
		v := (v1 + v2) / 2
		// Mutation-1
		if r.rng.Bool(r.Config.Mutation1Rate) {
			v = r.rng.Normal()
		}
		return v
	}

	v := random.Choice(r.rng, []float64{v1, v2})
	// Mutation-2
	if r.rng.Bool(r.Config.Mutation2Rate) {
		low, high := r.Config.Mutation2Range[0], r.Config.Mutation2Range[1]
		v += r.rng.Float(low, high) * r.rng.Sign()
		if math.Abs(v) > maxMutatedMagnitude {
			v = r.rng.Normal()
		}
	}
	return v
}

// Crossover builds a child whose every weight and bias is Recombine applied
// to the parents' parameters at the same position.
func (r *Reproduction) Crossover(parent1, parent2 *nn.Network) (*nn.Network, error) {
	child, err := parent1.Derive(parent2, r.Recombine)
	if err != nil {
		return nil, fmt.Errorf("crossover failed: %w", err)
	}
	return child, nil
}

// NewNetwork creates a randomly initialized network with the configured
// topology.
func (r *Reproduction) NewNetwork() (*nn.Network, error) {
	return nn.New(r.Config.LayerSizes, r.rng)
}

// CreateNewPopulation fills a new population with popSize random networks,
// all scored 0.
func (r *Reproduction) CreateNewPopulation(popSize int) (*Population, error) {
	pop := NewPopulation(r.Config.IDSpace, r.rng)
	for i := 0; i < popSize; i++ {
		net, err := r.NewNetwork()
		if err != nil {
			return nil, fmt.Errorf("failed to create individual %d: %w", i, err)
		}
		if _, err := pop.Insert(net, 0); err != nil {
			return nil, err
		}
	}
	return pop, nil
}

// Reproduce returns the next generation: both parents under their own
// identifiers with score 0, NumPopulations-2-NumNew crossover children and
// NumNew fresh random networks.
func (r *Reproduction) Reproduce(parent1ID, parent2ID int, parent1, parent2 *nn.Network) (*Population, error) {
	next := NewPopulation(r.Config.IDSpace, r.rng)
	next.Put(parent1ID, parent1, 0)
	next.Put(parent2ID, parent2, 0)

	numChildren := r.Config.NumPopulations - 2 - r.Config.NumNew
	for i := 0; i < numChildren; i++ {
		child, err := r.Crossover(parent1, parent2)
		if err != nil {
			return nil, err
		}
		if _, err := next.Insert(child, 0); err != nil {
			return nil, fmt.Errorf("failed to insert child %d: %w", i, err)
		}
	}

	for i := 0; i < r.Config.NumNew; i++ {
		net, err := r.NewNetwork()
		if err != nil {
			return nil, fmt.Errorf("failed to create new individual %d: %w", i, err)
		}
		if _, err := next.Insert(net, 0); err != nil {
			return nil, fmt.Errorf("failed to insert new individual %d: %w", i, err)
		}
	}

	if next.Len() != r.Config.NumPopulations {
		return nil, fmt.Errorf("new population size (%d) differs from target (%d)", next.Len(), r.Config.NumPopulations)
	}
	return next, nil
}
