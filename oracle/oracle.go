// Package oracle defines the read-only price feed boundary. The engine only
// ever consumes the latest round of a feed; aggregation, heartbeat and
// deviation logic live upstream.
package oracle

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrFeedNotFound is returned when no feed is registered for an aggregator
// address.
var ErrFeedNotFound = errors.New("no price feed registered for aggregator")

// RoundData is the latest answer of a feed.
type RoundData struct {
	Price     *big.Int `json:"price"`
	UpdatedAt uint64   `json:"updatedAt"`
}

// PriceFeed reads the most recent round of a single price feed.
type PriceFeed interface {
	LatestRoundData(ctx context.Context) (*RoundData, error)
}

// Registry maps aggregator addresses to their feed clients. Pools store
// only the aggregator address; the engine resolves it here on each read.
type Registry struct {
	mu    sync.RWMutex
	feeds map[common.Address]PriceFeed
}

// NewRegistry creates an empty feed registry.
func NewRegistry() *Registry {
	return &Registry{feeds: make(map[common.Address]PriceFeed)}
}

// Register binds feed to the given aggregator address, replacing any
// previous binding.
func (r *Registry) Register(aggregator common.Address, feed PriceFeed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feeds[aggregator] = feed
}

// Lookup resolves the feed for aggregator.
func (r *Registry) Lookup(aggregator common.Address) (PriceFeed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	feed, ok := r.feeds[aggregator]
	if !ok {
		return nil, ErrFeedNotFound
	}
	return feed, nil
}
