package staking

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RewardScale is the fixed-point scale applied to accRewardPerShare and
// rewardDebt. All divisions against it use floor semantics (big.Int.Quo on
// non-negative operands), so a few dust units per settlement interval are
// never distributed.
var RewardScale = big.NewInt(1e12)

// pool is the internal, mutable state of a single staking pool. The asset
// and oracle identities are fixed at creation; only the accumulator,
// total balance and timestamp evolve.
type pool struct {
	asset           common.Address
	oracle          common.Address
	oracleDecimals  uint8
	symbol          string
	rewardPerSecond *big.Int

	totalDeposited    *big.Int
	accRewardPerShare *big.Int // scaled by RewardScale, non-decreasing
	lastUpdateTime    uint64
}

// account is the internal per-(pool, depositor) ledger entry. Accounts are
// created on first deposit and never deleted, so unclaimed reward survives
// a full withdrawal.
type account struct {
	balance    *big.Int
	rewardDebt *big.Int // balance * accRewardPerShare / RewardScale at last settlement
}

// accountKey identifies an account within the ledger.
type accountKey struct {
	asset common.Address
	owner common.Address
}

// PoolView is a safe, deep-copied snapshot of a pool for external use.
type PoolView struct {
	Asset             common.Address `json:"asset"`
	Oracle            common.Address `json:"oracle"`
	OracleDecimals    uint8          `json:"oracleDecimals"`
	Symbol            string         `json:"symbol"`
	RewardPerSecond   *big.Int       `json:"rewardPerSecond"`
	TotalDeposited    *big.Int       `json:"totalDeposited"`
	AccRewardPerShare *big.Int       `json:"accRewardPerShare"`
	LastUpdateTime    uint64         `json:"lastUpdateTime"`
}

// AccountView is a safe, deep-copied snapshot of an account for external use.
type AccountView struct {
	Asset      common.Address `json:"asset"`
	Owner      common.Address `json:"owner"`
	Balance    *big.Int       `json:"balance"`
	RewardDebt *big.Int       `json:"rewardDebt"`
}

// DataFeed is the price read returned by the pool's oracle, paired with the
// decimal precision recorded at pool creation.
type DataFeed struct {
	Price     *big.Int `json:"price"`
	Decimals  uint8    `json:"decimals"`
	UpdatedAt uint64   `json:"updatedAt"`
}

func (p *pool) view() *PoolView {
	return &PoolView{
		Asset:             p.asset,
		Oracle:            p.oracle,
		OracleDecimals:    p.oracleDecimals,
		Symbol:            p.symbol,
		RewardPerSecond:   new(big.Int).Set(p.rewardPerSecond),
		TotalDeposited:    new(big.Int).Set(p.totalDeposited),
		AccRewardPerShare: new(big.Int).Set(p.accRewardPerShare),
		LastUpdateTime:    p.lastUpdateTime,
	}
}

func (a *account) view(key accountKey) *AccountView {
	return &AccountView{
		Asset:      key.asset,
		Owner:      key.owner,
		Balance:    new(big.Int).Set(a.balance),
		RewardDebt: new(big.Int).Set(a.rewardDebt),
	}
}
