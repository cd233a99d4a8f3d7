// Package events provides the engine's append-only event log. Every
// mutating staking operation emits exactly one event; once appended an
// event is immutable. Clients rebuild their pool list by replaying
// PoolCreated events, so the log supports filtered reads as well as
// best-effort live subscriptions.
package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Type identifies the kind of an event.
type Type string

const (
	TypePoolCreated Type = "PoolCreated"
	TypeDeposit     Type = "Deposit"
	TypeWithdraw    Type = "Withdraw"
	TypeClaim       Type = "Claim"
)

// Event is a single immutable entry of the log. Sequence is assigned by the
// log on append and is strictly increasing. Amount is nil for PoolCreated;
// Oracle and Symbol are only set for PoolCreated.
type Event struct {
	Sequence  uint64         `json:"sequence"`
	Type      Type           `json:"type"`
	Timestamp uint64         `json:"timestamp"`
	Asset     common.Address `json:"asset"`
	Account   common.Address `json:"account,omitempty"`
	Amount    *big.Int       `json:"amount,omitempty"`
	Oracle    common.Address `json:"oracle,omitempty"`
	Symbol    string         `json:"symbol,omitempty"`
}

// copyEvent deep-copies e so callers can never mutate a logged entry.
func copyEvent(e *Event) *Event {
	dup := *e
	if e.Amount != nil {
		dup.Amount = new(big.Int).Set(e.Amount)
	}
	return &dup
}
