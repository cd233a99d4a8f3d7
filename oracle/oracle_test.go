package oracle

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aggregator = common.HexToAddress("0x00000000000000000000000000000000000000F1")

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	t.Run("UnknownAggregator", func(t *testing.T) {
		_, err := r.Lookup(aggregator)
		assert.ErrorIs(t, err, ErrFeedNotFound)
	})

	t.Run("RegisterAndLookup", func(t *testing.T) {
		feed := NewStatic(big.NewInt(100), 7)
		r.Register(aggregator, feed)

		got, err := r.Lookup(aggregator)
		require.NoError(t, err)
		assert.Same(t, feed, got)
	})
}

func TestStatic(t *testing.T) {
	feed := NewStatic(big.NewInt(2500_0000_0000), 1_700_000_000)

	round, err := feed.LatestRoundData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2500_0000_0000), round.Price.Int64())
	assert.Equal(t, uint64(1_700_000_000), round.UpdatedAt)

	// returned rounds are copies
	round.Price.SetInt64(0)
	again, err := feed.LatestRoundData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2500_0000_0000), again.Price.Int64())

	feed.Set(big.NewInt(1), 2)
	moved, err := feed.LatestRoundData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), moved.Price.Int64())
	assert.Equal(t, uint64(2), moved.UpdatedAt)
}
