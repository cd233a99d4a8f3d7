package oracle

import (
	"context"
	"math/big"
	"sync"
)

// Static is a fixed-price feed for tests and demos. The price can be moved
// with Set; UpdatedAt reflects the last Set call's timestamp.
type Static struct {
	mu    sync.RWMutex
	round RoundData
}

// NewStatic creates a static feed answering price with updatedAt.
func NewStatic(price *big.Int, updatedAt uint64) *Static {
	return &Static{round: RoundData{Price: new(big.Int).Set(price), UpdatedAt: updatedAt}}
}

// Set replaces the feed's answer.
func (s *Static) Set(price *big.Int, updatedAt uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round = RoundData{Price: new(big.Int).Set(price), UpdatedAt: updatedAt}
}

// LatestRoundData implements PriceFeed.
func (s *Static) LatestRoundData(_ context.Context) (*RoundData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &RoundData{Price: new(big.Int).Set(s.round.Price), UpdatedAt: s.round.UpdatedAt}, nil
}
