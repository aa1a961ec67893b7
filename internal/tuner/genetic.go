package tuner

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/wanshanhsieh/riptide/internal/measure"
	"github.com/wanshanhsieh/riptide/internal/space"
)

// GeneticConfig tunes the genetic strategy.
type GeneticConfig struct {
	// PopulationSize is how many measured members survive selection.
	PopulationSize int

	// MutationProb is the per-gene mutation probability.
	MutationProb float64

	// TournamentSize is how many members compete per parent selection.
	TournamentSize int
}

// DefaultGeneticConfig returns the genetic defaults.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize: 32,
		MutationProb:   0.1,
		TournamentSize: 3,
	}
}

// member is one measured individual: an ordinal vector with fitness.
type member struct {
	ords    []int
	fitness float64 // negative mean latency; -Inf for failures
}

// Genetic evolves a population of knob-ordinal vectors. Parents are
// picked by tournament on measured fitness (negative latency), children
// by single-point crossover plus per-gene mutation within domain
// bounds. Children that duplicate an already-proposed entity are
// resampled; when evolution cannot produce fresh candidates the
// strategy falls back to random unexplored indices, so it keeps making
// progress on small or near-exhausted spaces.
type Genetic struct {
	cfg     GeneticConfig
	rng     *rand.Rand
	visited *visitSet
	pop     []member
	random  *Random
}

// NewGenetic creates a genetic tuner with a deterministic seed.
func NewGenetic(seed int64, cfg GeneticConfig) *Genetic {
	def := DefaultGeneticConfig()
	if cfg.PopulationSize <= 0 {
		cfg.PopulationSize = def.PopulationSize
	}
	if cfg.MutationProb <= 0 {
		cfg.MutationProb = def.MutationProb
	}
	if cfg.TournamentSize <= 0 {
		cfg.TournamentSize = def.TournamentSize
	}
	return &Genetic{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		visited: newVisitSet(),
		random:  NewRandom(seed + 1),
	}
}

// Name returns "genetic".
func (g *Genetic) Name() string { return "genetic" }

// ProposeBatch breeds up to n unexplored entities. Before any fitness
// feedback exists the proposals are random.
func (g *Genetic) ProposeBatch(sp *space.Space, n int) ([]*space.Entity, error) {
	if rem := g.visited.remaining(sp.Size()); int64(n) > rem {
		n = int(rem)
	}
	if n <= 0 {
		return nil, nil
	}

	batch := make([]*space.Entity, 0, n)
	// Breeding needs at least two measured parents.
	canBreed := len(g.measured()) >= 2

	const breedAttempts = 16
	for len(batch) < n {
		var e *space.Entity
		var err error
		if canBreed {
			e, err = g.breed(sp, breedAttempts)
			if err != nil {
				return nil, err
			}
		}
		if e == nil {
			// Cold start, or evolution kept producing duplicates:
			// take a random unexplored index instead.
			e, err = g.randomUnexplored(sp)
			if err != nil {
				return nil, err
			}
			if e == nil {
				break
			}
		}
		g.visited.add(e.Index())
		batch = append(batch, e)
	}
	return batch, nil
}

// Update folds measured fitness into the population, keeping the best
// PopulationSize members. Failed results get -Inf fitness: worst case,
// never fatal.
func (g *Genetic) Update(batch []*space.Entity, results []measure.Result) {
	for i, e := range batch {
		if i >= len(results) {
			break
		}
		fitness := math.Inf(-1)
		if results[i].OK() {
			fitness = -results[i].Mean()
		}
		g.pop = append(g.pop, member{ords: e.Ordinals(), fitness: fitness})
	}
	sort.SliceStable(g.pop, func(i, j int) bool { return g.pop[i].fitness > g.pop[j].fitness })
	if len(g.pop) > g.cfg.PopulationSize {
		g.pop = g.pop[:g.cfg.PopulationSize]
	}
}

// measured returns members with finite fitness.
func (g *Genetic) measured() []member {
	out := make([]member, 0, len(g.pop))
	for _, m := range g.pop {
		if !math.IsInf(m.fitness, -1) {
			out = append(out, m)
		}
	}
	return out
}

// breed attempts to produce one fresh child, returning nil when every
// attempt lands on an already-proposed entity.
func (g *Genetic) breed(sp *space.Space, attempts int) (*space.Entity, error) {
	parents := g.measured()
	for try := 0; try < attempts; try++ {
		a := g.tournament(parents)
		b := g.tournament(parents)
		child := g.crossover(a.ords, b.ords)
		g.mutate(sp, child)

		e, err := sp.EntityFromOrdinals(child)
		if err != nil {
			// Infeasible child (stale ordinal bounds): resample by
			// mutation from scratch.
			continue
		}
		if g.visited.has(e.Index()) {
			continue
		}
		return e, nil
	}
	return nil, nil
}

// tournament picks the fittest of TournamentSize random members.
func (g *Genetic) tournament(parents []member) member {
	best := parents[g.rng.Intn(len(parents))]
	for i := 1; i < g.cfg.TournamentSize; i++ {
		challenger := parents[g.rng.Intn(len(parents))]
		if challenger.fitness > best.fitness {
			best = challenger
		}
	}
	return best
}

// crossover performs single-point crossover over ordinal vectors.
func (g *Genetic) crossover(a, b []int) []int {
	child := make([]int, len(a))
	point := 0
	if len(a) > 1 {
		point = g.rng.Intn(len(a))
	}
	copy(child, a[:point])
	copy(child[point:], b[point:])
	return child
}

// mutate resamples each gene within its domain bounds with
// MutationProb.
func (g *Genetic) mutate(sp *space.Space, ords []int) {
	for i := range ords {
		if g.rng.Float64() < g.cfg.MutationProb {
			ords[i] = g.rng.Intn(sp.KnobAt(i).Len())
		}
	}
}

// randomUnexplored draws one unexplored entity, nil when exhausted.
func (g *Genetic) randomUnexplored(sp *space.Space) (*space.Entity, error) {
	// Delegate to the embedded random tuner, then translate into our
	// visited set.
	for {
		batch, err := g.random.ProposeBatch(sp, 1)
		if err != nil {
			return nil, fmt.Errorf("genetic fallback: %w", err)
		}
		if len(batch) == 0 {
			return nil, nil
		}
		if !g.visited.has(batch[0].Index()) {
			return batch[0], nil
		}
	}
}
