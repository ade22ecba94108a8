package dataset

import (
	"context"
	"testing"

	"github.com/lewtec/datasetkit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	ctx := context.Background()
	d := newTestDataset(t)
	seedDataset(t, d, 10, 2)

	opts := SplitOptions{TrainRatio: 0.6, ValRatio: 0.2, TestRatio: 0.2, Seed: 42}
	first, err := d.Split(ctx, opts)
	require.NoError(t, err)

	t.Run("sizes", func(t *testing.T) {
		assert.Len(t, first.Train, 6)
		assert.Len(t, first.Val, 2)
		assert.Len(t, first.Test, 2)
		assert.Equal(t, []int{11, 12}, first.Unlabeled)
	})

	t.Run("covers every labeled image once", func(t *testing.T) {
		seen := map[int]int{}
		for _, ids := range [][]int{first.Train, first.Val, first.Test} {
			for _, id := range ids {
				seen[id]++
			}
		}
		assert.Len(t, seen, 10)
		for id, n := range seen {
			assert.Equal(t, 1, n, "image %d", id)
			assert.LessOrEqual(t, id, 10)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		second, err := d.Split(ctx, opts)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("persisted", func(t *testing.T) {
		train, err := d.sets.Load(ctx, domain.SetTrain)
		require.NoError(t, err)
		assert.Equal(t, first.Train, train)
		unlabeled, err := d.sets.Load(ctx, domain.SetUnlabeled)
		require.NoError(t, err)
		assert.Equal(t, first.Unlabeled, unlabeled)
	})
}

func TestSplitSeeds(t *testing.T) {
	ctx := context.Background()
	d := newTestDataset(t)
	seedDataset(t, d, 10, 0)

	zero, err := d.Split(ctx, SplitOptions{TrainRatio: 0.7, Seed: 0})
	require.NoError(t, err)
	one, err := d.Split(ctx, SplitOptions{TrainRatio: 0.7, Seed: 1})
	require.NoError(t, err)

	assert.Len(t, zero.Train, 7)
	assert.Len(t, one.Train, 7)
	assert.Len(t, zero.Val, 3)
	assert.Len(t, one.Val, 3)
	assert.NotEqual(t, zero.Train, one.Train)
}

func TestSplitValTakesRemainder(t *testing.T) {
	d := newTestDataset(t)
	seedDataset(t, d, 10, 0)

	result, err := d.Split(context.Background(), SplitOptions{TrainRatio: 0.25})
	require.NoError(t, err)
	// 2.5 rounds half to even
	assert.Len(t, result.Train, 2)
	assert.Len(t, result.Val, 8)
	assert.Empty(t, result.Test)
}

func TestSplitInvalidRatios(t *testing.T) {
	d := newTestDataset(t)
	seedDataset(t, d, 2, 0)

	for _, opts := range []SplitOptions{
		{TrainRatio: -0.5, ValRatio: 0.5},
		{TrainRatio: 1, ValRatio: -1},
	} {
		_, err := d.Split(context.Background(), opts)
		require.ErrorIs(t, err, domain.ErrInvalidValue)
	}
}

func TestPartition(t *testing.T) {
	ids := []int{1, 2, 3, 4}
	train, val, test := partition(ids, 0.5, 0.25, 0.25, 7)
	assert.Len(t, train, 2)
	assert.Len(t, val, 1)
	assert.Len(t, test, 1)
	assert.Equal(t, []int{1, 2, 3, 4}, ids, "input is left untouched")
}
