// Package custody defines the asset-transfer boundary of the staking
// engine. The engine never holds token balances itself; it drives transfers
// through these interfaces and treats any failure as a whole-operation
// abort. Solvency of the backing balances is the implementation's problem.
package custody

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Vault moves staked assets between a depositor and the engine's custody.
type Vault interface {
	// Pull moves amount of asset from the depositor into engine custody.
	Pull(ctx context.Context, asset, from common.Address, amount *big.Int) error
	// Push moves amount of asset from engine custody back to the depositor.
	Push(ctx context.Context, asset, to common.Address, amount *big.Int) error
}

// Treasury pays out reward tokens. It is expected to fail when the reward
// supply it holds cannot cover amount.
type Treasury interface {
	Pay(ctx context.Context, to common.Address, amount *big.Int) error
}
