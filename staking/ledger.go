package staking

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger is a simple, non-thread-safe data structure holding every pool and
// every (pool, depositor) account. It owns all of the reward-accounting
// arithmetic: the lazily-settled time-weighted accumulator and the
// reward-debt settlement that isolates newly accrued reward.
//
// Thread safety and operation ordering are the System's concern; the Ledger
// never performs external calls.
type Ledger struct {
	pools    map[common.Address]*pool
	accounts map[accountKey]*account
}

// NewLedger creates a new, empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{
		pools:    make(map[common.Address]*pool),
		accounts: make(map[accountKey]*account),
	}
}

// createPool registers a pool for asset. The accumulator starts at zero and
// lastUpdateTime at now, so no reward predates the pool.
func (l *Ledger) createPool(asset, oracle common.Address, oracleDecimals uint8, rewardPerSecond *big.Int, symbol string, now uint64) error {
	if _, exists := l.pools[asset]; exists {
		return ErrAlreadyAttached
	}
	l.pools[asset] = &pool{
		asset:             asset,
		oracle:            oracle,
		oracleDecimals:    oracleDecimals,
		symbol:            symbol,
		rewardPerSecond:   new(big.Int).Set(rewardPerSecond),
		totalDeposited:    new(big.Int),
		accRewardPerShare: new(big.Int),
		lastUpdateTime:    now,
	}
	return nil
}

func (l *Ledger) pool(asset common.Address) (*pool, bool) {
	p, ok := l.pools[asset]
	return p, ok
}

// getOrCreateAccount returns the account for key, creating a zeroed one on
// first use. Accounts persist forever, including at zero balance, so that
// unclaimed reward is never lost.
func (l *Ledger) getOrCreateAccount(key accountKey) *account {
	a, ok := l.accounts[key]
	if !ok {
		a = &account{balance: new(big.Int), rewardDebt: new(big.Int)}
		l.accounts[key] = a
	}
	return a
}

// projectedAccPerShare computes the accumulator value a settle at now would
// realize, without persisting anything. Views must use this so they agree
// with the next mutating call.
func (l *Ledger) projectedAccPerShare(p *pool, now uint64) *big.Int {
	acc := new(big.Int).Set(p.accRewardPerShare)
	if now <= p.lastUpdateTime || p.totalDeposited.Sign() == 0 {
		return acc
	}
	elapsed := new(big.Int).SetUint64(now - p.lastUpdateTime)
	grown := elapsed.Mul(elapsed, p.rewardPerSecond)
	grown.Mul(grown, RewardScale)
	grown.Quo(grown, p.totalDeposited)
	return acc.Add(acc, grown)
}

// settle advances the pool's accumulator to now. An empty pool only
// fast-forwards its timestamp: nobody was staked, so the elapsed interval
// yields no reward and a later depositor cannot capture it retroactively.
// Settling twice at the same timestamp is a no-op.
func (l *Ledger) settle(p *pool, now uint64) {
	if now <= p.lastUpdateTime {
		return
	}
	if p.totalDeposited.Sign() != 0 {
		p.accRewardPerShare = l.projectedAccPerShare(p, now)
	}
	p.lastUpdateTime = now
}

// pendingAt returns the reward owed to a under the given accumulator value:
// balance * accPerShare / RewardScale - rewardDebt.
func pendingAt(a *account, accPerShare *big.Int) *big.Int {
	owed := new(big.Int).Mul(a.balance, accPerShare)
	owed.Quo(owed, RewardScale)
	return owed.Sub(owed, a.rewardDebt)
}

// pendingOf computes the projected claimable reward for (asset, owner) at
// now without mutating any state.
func (l *Ledger) pendingOf(asset, owner common.Address, now uint64) (*big.Int, error) {
	p, ok := l.pools[asset]
	if !ok {
		return nil, ErrTokenNotAllowed
	}
	a, ok := l.accounts[accountKey{asset, owner}]
	if !ok {
		return new(big.Int), nil
	}
	return pendingAt(a, l.projectedAccPerShare(p, now)), nil
}

// resetDebt re-snapshots the account's reward debt against the pool's
// current accumulator. Whatever was pending before the snapshot stays owed:
// the debt only covers the new balance from this instant on.
func resetDebt(p *pool, a *account) {
	debt := new(big.Int).Mul(a.balance, p.accRewardPerShare)
	a.rewardDebt = debt.Quo(debt, RewardScale)
}

// deposit settles the pool to now and credits amount to (asset, owner).
// Reward accrued before the deposit is preserved as claimable; it is not
// auto-paid.
func (l *Ledger) deposit(asset, owner common.Address, amount *big.Int, now uint64) error {
	p, ok := l.pools[asset]
	if !ok {
		return ErrTokenNotAllowed
	}
	l.settle(p, now)

	a := l.getOrCreateAccount(accountKey{asset, owner})
	pending := pendingAt(a, p.accRewardPerShare)

	a.balance.Add(a.balance, amount)
	resetDebt(p, a)
	// carry the pre-deposit pending forward inside the debt snapshot
	a.rewardDebt.Sub(a.rewardDebt, pending)
	p.totalDeposited.Add(p.totalDeposited, amount)
	return nil
}

// withdraw settles the pool to now and debits amount from (asset, owner).
// Reward accrued up to the withdrawal instant remains claimable.
func (l *Ledger) withdraw(asset, owner common.Address, amount *big.Int, now uint64) error {
	p, ok := l.pools[asset]
	if !ok {
		return ErrTokenNotAllowed
	}
	a, ok := l.accounts[accountKey{asset, owner}]
	if !ok || a.balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.settle(p, now)

	pending := pendingAt(a, p.accRewardPerShare)

	a.balance.Sub(a.balance, amount)
	resetDebt(p, a)
	a.rewardDebt.Sub(a.rewardDebt, pending)
	p.totalDeposited.Sub(p.totalDeposited, amount)
	return nil
}

// claim settles the pool to now, zeroes the owner's pending reward and
// returns the amount that must be paid out by the treasury. The caller is
// responsible for rolling the Ledger back if that payment fails.
func (l *Ledger) claim(asset, owner common.Address, now uint64) (*big.Int, error) {
	p, ok := l.pools[asset]
	if !ok {
		return nil, ErrTokenNotAllowed
	}
	l.settle(p, now)

	a := l.getOrCreateAccount(accountKey{asset, owner})
	pending := pendingAt(a, p.accRewardPerShare)
	resetDebt(p, a)
	return pending, nil
}

// sumBalances returns the sum of all account balances for asset. It exists
// to check the ledger's core invariant: the sum must always equal the
// pool's totalDeposited.
func (l *Ledger) sumBalances(asset common.Address) *big.Int {
	sum := new(big.Int)
	for key, a := range l.accounts {
		if key.asset == asset {
			sum.Add(sum, a.balance)
		}
	}
	return sum
}

// ledgerSnapshot captures the mutable state touched by one operation so a
// failed external transfer can undo the whole mutation.
type ledgerSnapshot struct {
	asset common.Address
	owner common.Address

	hadPool           bool
	totalDeposited    *big.Int
	accRewardPerShare *big.Int
	lastUpdateTime    uint64

	hadAccount bool
	balance    *big.Int
	rewardDebt *big.Int
}

// snapshot copies the pool and account state for (asset, owner).
func (l *Ledger) snapshot(asset, owner common.Address) *ledgerSnapshot {
	s := &ledgerSnapshot{asset: asset, owner: owner}
	if p, ok := l.pools[asset]; ok {
		s.hadPool = true
		s.totalDeposited = new(big.Int).Set(p.totalDeposited)
		s.accRewardPerShare = new(big.Int).Set(p.accRewardPerShare)
		s.lastUpdateTime = p.lastUpdateTime
	}
	if a, ok := l.accounts[accountKey{asset, owner}]; ok {
		s.hadAccount = true
		s.balance = new(big.Int).Set(a.balance)
		s.rewardDebt = new(big.Int).Set(a.rewardDebt)
	}
	return s
}

// restore rewinds the pool and account captured by snapshot.
func (l *Ledger) restore(s *ledgerSnapshot) {
	if s.hadPool {
		if p, ok := l.pools[s.asset]; ok {
			p.totalDeposited = new(big.Int).Set(s.totalDeposited)
			p.accRewardPerShare = new(big.Int).Set(s.accRewardPerShare)
			p.lastUpdateTime = s.lastUpdateTime
		}
	}
	key := accountKey{s.asset, s.owner}
	if s.hadAccount {
		if a, ok := l.accounts[key]; ok {
			a.balance = new(big.Int).Set(s.balance)
			a.rewardDebt = new(big.Int).Set(s.rewardDebt)
		}
	} else {
		// the operation implicitly created the account; drop it again
		delete(l.accounts, key)
	}
}
