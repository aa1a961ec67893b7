package tuner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanshanhsieh/riptide/internal/measure"
)

func TestGenetic_FirstBatchIsRandomAndDistinct(t *testing.T) {
	task := vecaddTask(t)
	g := NewGenetic(11, GeneticConfig{})

	batch, err := g.ProposeBatch(task.Space, 8)
	require.NoError(t, err)
	require.Len(t, batch, 8)

	indices := make([]int64, len(batch))
	for i, e := range batch {
		indices[i] = e.Index()
	}
	assertDistinct(t, indices)
}

func TestGenetic_DrainsSmallSpaceWithoutRepeats(t *testing.T) {
	sp := pairSpace(t, 3, 4)
	indices := drainTuner(t, NewGenetic(5, GeneticConfig{PopulationSize: 8}), sp, 4)

	require.Len(t, indices, 12, "evolution plus random fallback must reach every index")
	assertDistinct(t, indices)
}

func TestGenetic_NoRepeatsAcrossGenerations(t *testing.T) {
	task := vecaddTask(t)
	g := NewGenetic(9, GeneticConfig{PopulationSize: 8, TournamentSize: 2})

	var indices []int64
	for round := 0; round < 5; round++ {
		batch, err := g.ProposeBatch(task.Space, 6)
		require.NoError(t, err)
		require.NotEmpty(t, batch)
		for _, e := range batch {
			indices = append(indices, e.Index())
		}
		g.Update(batch, successResults(batch))
	}
	assertDistinct(t, indices)
}

func TestGenetic_FailedResultsGetWorstFitness(t *testing.T) {
	sp := enumSpace(t, 8)
	g := NewGenetic(2, GeneticConfig{PopulationSize: 4})

	batch, err := g.ProposeBatch(sp, 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)

	results := []measure.Result{
		{Status: measure.StatusSuccess, Latencies: []float64{2.5}},
		{Status: measure.StatusBuildError, Err: "infeasible"},
	}
	g.Update(batch, results)

	require.Len(t, g.pop, 2)
	assert.Equal(t, -2.5, g.pop[0].fitness)
	assert.True(t, math.IsInf(g.pop[1].fitness, -1), "failures must never win a tournament")
}

func TestGenetic_PopulationTruncatesToConfiguredSize(t *testing.T) {
	sp := enumSpace(t, 32)
	g := NewGenetic(4, GeneticConfig{PopulationSize: 4})

	for round := 0; round < 4; round++ {
		batch, err := g.ProposeBatch(sp, 4)
		require.NoError(t, err)
		g.Update(batch, successResults(batch))
	}
	assert.LessOrEqual(t, len(g.pop), 4, "selection must cap the surviving population")
}
