package custody

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrInsufficientFunds is returned when a transfer exceeds the source
// balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// engineAccount is the synthetic address holding engine custody inside a
// MemVault.
var engineAccount = common.HexToAddress("0x000000000000000000000000000000000000C0DE")

type balanceKey struct {
	asset common.Address
	owner common.Address
}

// MemVault is an in-memory token bank implementing both Vault and Treasury.
// It stands in for real ERC20 token balances (the staked assets and the
// reward token) in tests and the console binary.
type MemVault struct {
	mu          sync.RWMutex
	balances    map[balanceKey]*big.Int
	rewardAsset common.Address
}

// NewMemVault creates an empty vault. rewardAsset is the token Pay draws
// from; the treasury supply must be minted to the engine account before any
// claim can succeed.
func NewMemVault(rewardAsset common.Address) *MemVault {
	return &MemVault{
		balances:    make(map[balanceKey]*big.Int),
		rewardAsset: rewardAsset,
	}
}

// Mint credits amount of asset to owner out of thin air. Test/demo utility.
func (v *MemVault) Mint(asset, owner common.Address, amount *big.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.credit(asset, owner, amount)
}

// FundTreasury mints amount of the reward asset into engine custody.
func (v *MemVault) FundTreasury(amount *big.Int) {
	v.Mint(v.rewardAsset, engineAccount, amount)
}

// BalanceOf returns owner's balance of asset.
func (v *MemVault) BalanceOf(asset, owner common.Address) *big.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if b, ok := v.balances[balanceKey{asset, owner}]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

// TreasuryBalance returns the remaining reward supply in engine custody.
func (v *MemVault) TreasuryBalance() *big.Int {
	return v.BalanceOf(v.rewardAsset, engineAccount)
}

// Pull implements Vault.
func (v *MemVault) Pull(_ context.Context, asset, from common.Address, amount *big.Int) error {
	return v.transfer(asset, from, engineAccount, amount)
}

// Push implements Vault.
func (v *MemVault) Push(_ context.Context, asset, to common.Address, amount *big.Int) error {
	return v.transfer(asset, engineAccount, to, amount)
}

// Pay implements Treasury.
func (v *MemVault) Pay(_ context.Context, to common.Address, amount *big.Int) error {
	return v.transfer(v.rewardAsset, engineAccount, to, amount)
}

func (v *MemVault) transfer(asset, from, to common.Address, amount *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	src, ok := v.balances[balanceKey{asset, from}]
	if !ok || src.Cmp(amount) < 0 {
		return fmt.Errorf("%w: asset %s holder %s", ErrInsufficientFunds, asset, from)
	}
	src.Sub(src, amount)
	v.credit(asset, to, amount)
	return nil
}

// credit must be called with the lock held.
func (v *MemVault) credit(asset, owner common.Address, amount *big.Int) {
	key := balanceKey{asset, owner}
	if b, ok := v.balances[key]; ok {
		b.Add(b, amount)
		return
	}
	v.balances[key] = new(big.Int).Set(amount)
}
