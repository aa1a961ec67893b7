package tuner

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/wanshanhsieh/riptide/internal/measure"
	"github.com/wanshanhsieh/riptide/internal/space"
)

// ModelConfig tunes the model-based strategy.
type ModelConfig struct {
	// Epsilon is the probability of replacing a model-ranked proposal
	// with a random one (exploration).
	Epsilon float64

	// MinHistory is the smallest observation count worth fitting.
	// Defaults to twice the feature dimension when zero.
	MinHistory int

	// Ridge is the L2 regularization strength of the fit.
	Ridge float64

	// PoolFactor scales the candidate pool: PoolFactor*batch random
	// unexplored entities are ranked per proposal.
	PoolFactor int
}

// DefaultModelConfig returns the model-based defaults.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Epsilon:    0.1,
		Ridge:      1.0,
		PoolFactor: 16,
	}
}

// observation is one (feature vector, measured latency) pair.
type observation struct {
	features []float64
	latency  float64
}

// Model ranks unexplored candidates with a ridge-regularized linear
// regression over one-hot knob features, proposing the batch predicted
// to rank best subject to epsilon-greedy exploration.
//
// Degrades gracefully: while the history is too small to fit (or the
// normal equations are singular) proposals fall back to random, logged
// at debug level and never surfaced as a session error.
type Model struct {
	cfg     ModelConfig
	rng     *rand.Rand
	visited *visitSet
	random  *Random
	history []observation
	log     *slog.Logger

	// worst tracks the largest successful latency seen, used as the
	// penalty for failed candidates.
	worst float64
}

// NewModel creates a model-based tuner with a deterministic seed.
func NewModel(seed int64, cfg ModelConfig) *Model {
	def := DefaultModelConfig()
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = def.Epsilon
	}
	if cfg.Ridge <= 0 {
		cfg.Ridge = def.Ridge
	}
	if cfg.PoolFactor <= 0 {
		cfg.PoolFactor = def.PoolFactor
	}
	return &Model{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		visited: newVisitSet(),
		random:  NewRandom(seed + 1),
		log:     slog.Default().With("component", "tuner", "strategy", "model"),
	}
}

// Name returns "model".
func (m *Model) Name() string { return "model" }

// ProposeBatch ranks a random pool of unexplored candidates by
// predicted latency and returns the best n, with epsilon-greedy
// exploration slots. Falls back to pure random proposals until a model
// can be fit.
func (m *Model) ProposeBatch(sp *space.Space, n int) ([]*space.Entity, error) {
	if rem := m.visited.remaining(sp.Size()); int64(n) > rem {
		n = int(rem)
	}
	if n <= 0 {
		return nil, nil
	}

	theta, err := m.fit(sp)
	if err != nil {
		if !IsModelFitError(err) {
			return nil, err
		}
		m.log.Debug("falling back to random proposals", "reason", err.Error())
		return m.randomBatch(sp, n)
	}

	pool, err := m.candidatePool(sp, n*m.cfg.PoolFactor)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		// Dense visited set defeated pool sampling; random fallback
		// still knows how to find the stragglers.
		return m.randomBatch(sp, n)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return predict(theta, featurize(sp, pool[i])) < predict(theta, featurize(sp, pool[j]))
	})

	batch := make([]*space.Entity, 0, n)
	next := 0
	for len(batch) < n && next < len(pool) {
		pick := next
		if m.rng.Float64() < m.cfg.Epsilon && len(pool)-next > 1 {
			// Exploration: swap in a random later candidate.
			pick = next + 1 + m.rng.Intn(len(pool)-next-1)
			pool[next], pool[pick] = pool[pick], pool[next]
			pick = next
		}
		e := pool[pick]
		next++
		m.visited.add(e.Index())
		batch = append(batch, e)
	}
	return batch, nil
}

// Update appends observations. Failed results are kept with a
// worst-case penalty latency so the model learns to avoid their
// neighborhoods.
func (m *Model) Update(batch []*space.Entity, results []measure.Result) {
	sp := spaceOf(batch)
	if sp == nil {
		return
	}
	for i, e := range batch {
		if i >= len(results) {
			break
		}
		latency := 0.0
		if results[i].OK() {
			latency = results[i].Mean()
			if latency > m.worst {
				m.worst = latency
			}
		} else {
			latency = m.penalty()
		}
		m.history = append(m.history, observation{features: featurize(sp, e), latency: latency})
	}
}

// penalty is the latency assigned to failed candidates.
func (m *Model) penalty() float64 {
	if m.worst > 0 {
		return m.worst * 10
	}
	return 1e9
}

// randomBatch proposes unexplored entities uniformly, marking them in
// the model's visited set.
func (m *Model) randomBatch(sp *space.Space, n int) ([]*space.Entity, error) {
	batch := make([]*space.Entity, 0, n)
	for len(batch) < n {
		candidates, err := m.random.ProposeBatch(sp, 1)
		if err != nil {
			return nil, fmt.Errorf("model random fallback: %w", err)
		}
		if len(candidates) == 0 {
			break
		}
		if m.visited.has(candidates[0].Index()) {
			continue
		}
		m.visited.add(candidates[0].Index())
		batch = append(batch, candidates[0])
	}
	return batch, nil
}

// candidatePool draws up to limit unexplored entities for ranking.
// Pool entries are not marked visited; only proposed ones are.
func (m *Model) candidatePool(sp *space.Space, limit int) ([]*space.Entity, error) {
	size := sp.Size()
	if int64(limit) > m.visited.remaining(size) {
		limit = int(m.visited.remaining(size))
	}
	pool := make([]*space.Entity, 0, limit)
	seen := make(map[int64]struct{}, limit)
	attempts := 0
	for len(pool) < limit && attempts < limit*8 {
		attempts++
		index := m.rng.Int63n(size)
		if m.visited.has(index) {
			continue
		}
		if _, dup := seen[index]; dup {
			continue
		}
		e, err := sp.Entity(index)
		if err != nil {
			return nil, fmt.Errorf("model pool: %w", err)
		}
		seen[index] = struct{}{}
		pool = append(pool, e)
	}
	return pool, nil
}

// fit solves the ridge-regularized normal equations over the one-hot
// history. Returns ModelFitError while the history is too small or the
// system is singular.
func (m *Model) fit(sp *space.Space) ([]float64, error) {
	dim := featureDim(sp)
	minHistory := m.cfg.MinHistory
	if minHistory <= 0 {
		minHistory = 2 * dim
	}
	if len(m.history) < minHistory {
		return nil, &ModelFitError{Reason: "insufficient history", Have: len(m.history), Need: minHistory}
	}

	// A = X'X + ridge*I, b = X'y
	a := make([][]float64, dim)
	for i := range a {
		a[i] = make([]float64, dim)
		a[i][i] = m.cfg.Ridge
	}
	b := make([]float64, dim)
	for _, obs := range m.history {
		for i := 0; i < dim; i++ {
			if obs.features[i] == 0 {
				continue
			}
			for j := 0; j < dim; j++ {
				a[i][j] += obs.features[i] * obs.features[j]
			}
			b[i] += obs.features[i] * obs.latency
		}
	}

	theta, ok := solve(a, b)
	if !ok {
		return nil, &ModelFitError{Reason: "singular normal equations", Have: len(m.history)}
	}
	return theta, nil
}

// featureDim is one slot per domain element across all knobs, plus
// bias.
func featureDim(sp *space.Space) int {
	dim := 1
	for i := 0; i < sp.Len(); i++ {
		dim += sp.KnobAt(i).Len()
	}
	return dim
}

// featurize one-hot encodes the entity's ordinals, bias slot last.
func featurize(sp *space.Space, e *space.Entity) []float64 {
	features := make([]float64, featureDim(sp))
	offset := 0
	for i, ord := range e.Ordinals() {
		features[offset+ord] = 1
		offset += sp.KnobAt(i).Len()
	}
	features[len(features)-1] = 1
	return features
}

// predict evaluates the linear model.
func predict(theta, features []float64) float64 {
	sum := 0.0
	for i, f := range features {
		if f != 0 {
			sum += theta[i] * f
		}
	}
	return sum
}

// solve performs Gaussian elimination with partial pivoting on a*x = b,
// mutating its inputs. Returns false for singular systems.
func solve(a [][]float64, b []float64) ([]float64, bool) {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			if factor == 0 {
				continue
			}
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		x[row] = sum / a[row][row]
	}
	return x, true
}

// spaceOf returns the space of a non-empty batch, nil otherwise.
func spaceOf(batch []*space.Entity) *space.Space {
	if len(batch) == 0 {
		return nil
	}
	return batch[0].Space()
}
