// Package chainlink implements oracle.PriceFeed against a Chainlink-style
// aggregator contract, read over JSON-RPC with eth_call.
package chainlink

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"

	"github.com/Jiwoks/AlyraStacking/oracle"
)

// latestRoundDataSelector is the 4-byte selector of latestRoundData().
const latestRoundDataSelector = "0xfeaf968c"

// wordSize is the width of one ABI return word.
const wordSize = 32

var errShortReturn = errors.New("aggregator returned short data")

// Caller is the subset of rpc.Client the feed needs. Satisfied by
// *rpc.Client; tests substitute a fake.
type Caller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// Feed reads latestRoundData from one aggregator contract.
type Feed struct {
	caller     Caller
	aggregator common.Address
}

// Dial connects to the given JSON-RPC endpoint and returns a feed bound to
// aggregator.
func Dial(ctx context.Context, url string, aggregator common.Address) (*Feed, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc endpoint: %w", err)
	}
	return New(client, aggregator), nil
}

// New returns a feed reading aggregator through caller.
func New(caller Caller, aggregator common.Address) *Feed {
	return &Feed{caller: caller, aggregator: aggregator}
}

// LatestRoundData implements oracle.PriceFeed. The aggregator returns
// (roundId, answer, startedAt, updatedAt, answeredInRound); only answer and
// updatedAt are surfaced.
func (f *Feed) LatestRoundData(ctx context.Context) (*oracle.RoundData, error) {
	call := map[string]any{
		"to":   f.aggregator.Hex(),
		"data": latestRoundDataSelector,
	}

	var raw string
	if err := f.caller.CallContext(ctx, &raw, "eth_call", call, "latest"); err != nil {
		return nil, fmt.Errorf("eth_call to aggregator %s failed: %w", f.aggregator, err)
	}
	return decodeRoundData(raw)
}

// decodeRoundData parses the hex return payload of latestRoundData().
func decodeRoundData(raw string) (*oracle.RoundData, error) {
	data, err := hex.DecodeString(strings.TrimPrefix(raw, "0x"))
	if err != nil {
		return nil, fmt.Errorf("malformed aggregator return data: %w", err)
	}
	if len(data) < 5*wordSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", errShortReturn, len(data), 5*wordSize)
	}

	answer := new(uint256.Int).SetBytes(data[1*wordSize : 2*wordSize])
	updatedAt := new(uint256.Int).SetBytes(data[3*wordSize : 4*wordSize])
	if !updatedAt.IsUint64() {
		return nil, fmt.Errorf("aggregator updatedAt overflows uint64")
	}

	return &oracle.RoundData{
		Price:     answer.ToBig(),
		UpdatedAt: updatedAt.Uint64(),
	}, nil
}
