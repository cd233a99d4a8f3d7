package staking

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testAsset  = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	testAsset2 = common.HexToAddress("0x00000000000000000000000000000000000000A2")
	testOracle = common.HexToAddress("0x00000000000000000000000000000000000000F1")
	userA      = common.HexToAddress("0x0000000000000000000000000000000000000AaA")
	userB      = common.HexToAddress("0x0000000000000000000000000000000000000BbB")
)

const t0 = uint64(1_700_000_000)

// newTestLedger creates a ledger with one pool paying 10 reward units per
// second, created at t0.
func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l := NewLedger()
	require.NoError(t, l.createPool(testAsset, testOracle, 8, big.NewInt(10), "DAI", t0))
	return l
}

func TestLedger_CreatePool(t *testing.T) {
	l := newTestLedger(t)

	t.Run("InitialState", func(t *testing.T) {
		p, ok := l.pool(testAsset)
		require.True(t, ok)
		assert.Equal(t, int64(0), p.totalDeposited.Int64())
		assert.Equal(t, int64(0), p.accRewardPerShare.Int64())
		assert.Equal(t, t0, p.lastUpdateTime)
		assert.Equal(t, "DAI", p.symbol)
	})

	t.Run("Duplicate", func(t *testing.T) {
		err := l.createPool(testAsset, testOracle, 8, big.NewInt(10), "DAI", t0)
		assert.ErrorIs(t, err, ErrAlreadyAttached)
	})

	t.Run("UnknownPoolLookup", func(t *testing.T) {
		_, ok := l.pool(testAsset2)
		assert.False(t, ok)
	})
}

func TestLedger_Settle(t *testing.T) {
	t.Run("EmptyPoolOnlyFastForwards", func(t *testing.T) {
		l := newTestLedger(t)
		p, _ := l.pool(testAsset)

		l.settle(p, t0+3600)
		assert.Equal(t, int64(0), p.accRewardPerShare.Int64())
		assert.Equal(t, t0+3600, p.lastUpdateTime)
	})

	t.Run("SameTimestampIsNoOp", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.deposit(testAsset, userA, big.NewInt(1000), t0))
		p, _ := l.pool(testAsset)

		l.settle(p, t0+100)
		acc := new(big.Int).Set(p.accRewardPerShare)
		l.settle(p, t0+100)
		assert.Equal(t, acc, p.accRewardPerShare)
	})

	t.Run("AccumulatorIsMonotonic", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.deposit(testAsset, userA, big.NewInt(1000), t0))
		p, _ := l.pool(testAsset)

		prev := new(big.Int)
		for _, now := range []uint64{t0 + 1, t0 + 7, t0 + 7, t0 + 1000} {
			l.settle(p, now)
			assert.True(t, p.accRewardPerShare.Cmp(prev) >= 0)
			prev.Set(p.accRewardPerShare)
		}
	})

	t.Run("FloorDivisionDust", func(t *testing.T) {
		// 7 seconds * 10/s = 70 reward over 3 units deposited:
		// 70 * 1e12 / 3 floors, leaving dust undistributed.
		l := newTestLedger(t)
		require.NoError(t, l.deposit(testAsset, userA, big.NewInt(3), t0))
		p, _ := l.pool(testAsset)

		l.settle(p, t0+7)
		want := new(big.Int).Mul(big.NewInt(70), RewardScale)
		want.Quo(want, big.NewInt(3))
		assert.Equal(t, want, p.accRewardPerShare)
	})
}

func TestLedger_PendingOf(t *testing.T) {
	t.Run("UnknownAsset", func(t *testing.T) {
		l := newTestLedger(t)
		_, err := l.pendingOf(testAsset2, userA, t0)
		assert.ErrorIs(t, err, ErrTokenNotAllowed)
	})

	t.Run("UnknownAccountIsZero", func(t *testing.T) {
		l := newTestLedger(t)
		pending, err := l.pendingOf(testAsset, userB, t0+5000)
		require.NoError(t, err)
		assert.Equal(t, int64(0), pending.Int64())
	})

	t.Run("ProjectionDoesNotPersist", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.deposit(testAsset, userA, big.NewInt(1000), t0))
		p, _ := l.pool(testAsset)

		first, err := l.pendingOf(testAsset, userA, t0+3600)
		require.NoError(t, err)
		assert.Equal(t, int64(36000), first.Int64())
		assert.Equal(t, t0, p.lastUpdateTime)
		assert.Equal(t, int64(0), p.accRewardPerShare.Int64())

		// repeated reads at the same instant are idempotent
		again, err := l.pendingOf(testAsset, userA, t0+3600)
		require.NoError(t, err)
		assert.Equal(t, first, again)

		// and non-decreasing as time advances
		later, err := l.pendingOf(testAsset, userA, t0+7200)
		require.NoError(t, err)
		assert.True(t, later.Cmp(first) > 0)
	})
}

// TestLedger_RewardScenario walks the full two-depositor sequence with
// rewardPerSecond = 10: deposit, late second depositor, partial withdrawal,
// claim. Expected values are exact under floor division.
func TestLedger_RewardScenario(t *testing.T) {
	l := newTestLedger(t)

	// A deposits 1000 at t0.
	require.NoError(t, l.deposit(testAsset, userA, big.NewInt(1000), t0))

	// After one hour A owns the whole pool: 3600 * 10 = 36000.
	pending, err := l.pendingOf(testAsset, userA, t0+3600)
	require.NoError(t, err)
	assert.Equal(t, int64(36000), pending.Int64())

	// B deposits 500 at t0+3600; B starts with nothing accrued.
	require.NoError(t, l.deposit(testAsset, userB, big.NewInt(500), t0+3600))
	pending, err = l.pendingOf(testAsset, userB, t0+3600)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Int64())

	// Next hour splits 36000 by share: A 2/3, B 1/3.
	pending, err = l.pendingOf(testAsset, userA, t0+7200)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), pending.Int64())
	pending, err = l.pendingOf(testAsset, userB, t0+7200)
	require.NoError(t, err)
	assert.Equal(t, int64(12000), pending.Int64())

	// A withdraws 500 at t0+7200; claimable is untouched.
	require.NoError(t, l.withdraw(testAsset, userA, big.NewInt(500), t0+7200))
	pending, err = l.pendingOf(testAsset, userA, t0+7200)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), pending.Int64())

	// One more hour over a 1000-unit pool: A holds half.
	pending, err = l.pendingOf(testAsset, userA, t0+10800)
	require.NoError(t, err)
	assert.Equal(t, int64(78000), pending.Int64())

	// Claim pays exactly the pending amount and zeroes it.
	paid, err := l.claim(testAsset, userA, t0+10800)
	require.NoError(t, err)
	assert.Equal(t, int64(78000), paid.Int64())

	pending, err = l.pendingOf(testAsset, userA, t0+10800)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Int64())

	// B keeps accruing independently: 12000 + 3600*10*500/1500 at t0+7200
	// boundary already counted; by t0+10800 B adds half of 36000.
	pending, err = l.pendingOf(testAsset, userB, t0+10800)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), pending.Int64())
}

func TestLedger_NoRetroactiveReward(t *testing.T) {
	l := newTestLedger(t)

	// Pool stays empty for a day; the first depositor earns nothing for it.
	require.NoError(t, l.deposit(testAsset, userA, big.NewInt(1000), t0+86400))
	pending, err := l.pendingOf(testAsset, userA, t0+86400)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Int64())

	// Only time after entry pays.
	pending, err = l.pendingOf(testAsset, userA, t0+86400+100)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), pending.Int64())
}

func TestLedger_WithdrawErrors(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.deposit(testAsset, userA, big.NewInt(100), t0))

	t.Run("UnknownAsset", func(t *testing.T) {
		err := l.withdraw(testAsset2, userA, big.NewInt(1), t0)
		assert.ErrorIs(t, err, ErrTokenNotAllowed)
	})

	t.Run("NoAccount", func(t *testing.T) {
		err := l.withdraw(testAsset, userB, big.NewInt(1), t0)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("OverBalance", func(t *testing.T) {
		err := l.withdraw(testAsset, userA, big.NewInt(101), t0)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("FullBalanceKeepsAccount", func(t *testing.T) {
		require.NoError(t, l.withdraw(testAsset, userA, big.NewInt(100), t0+10))
		_, ok := l.accounts[accountKey{testAsset, userA}]
		assert.True(t, ok, "account must persist at zero balance")

		// reward accrued before the full withdrawal is still owed
		pending, err := l.pendingOf(testAsset, userA, t0+10)
		require.NoError(t, err)
		assert.Equal(t, int64(100), pending.Int64())
	})
}

// TestLedger_BalanceInvariant checks sum(account balances) ==
// pool.totalDeposited across an arbitrary interleaving.
func TestLedger_BalanceInvariant(t *testing.T) {
	l := newTestLedger(t)

	check := func(now uint64) {
		t.Helper()
		p, _ := l.pool(testAsset)
		assert.Equal(t, p.totalDeposited, l.sumBalances(testAsset))
		// total claimable never goes negative
		for _, u := range []common.Address{userA, userB} {
			pending, err := l.pendingOf(testAsset, u, now)
			require.NoError(t, err)
			assert.True(t, pending.Sign() >= 0)
		}
	}

	now := t0
	require.NoError(t, l.deposit(testAsset, userA, big.NewInt(700), now))
	check(now)
	now += 13
	require.NoError(t, l.deposit(testAsset, userB, big.NewInt(301), now))
	check(now)
	now += 7
	require.NoError(t, l.withdraw(testAsset, userA, big.NewInt(699), now))
	check(now)
	now += 1000
	_, err := l.claim(testAsset, userB, now)
	require.NoError(t, err)
	check(now)
	now += 1
	require.NoError(t, l.withdraw(testAsset, userB, big.NewInt(301), now))
	check(now)
}

// TestLedger_Conservation verifies that with a constant total deposit the
// sum of everyone's claimable equals elapsed * rewardPerSecond, within the
// floor-division rounding bound.
func TestLedger_Conservation(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.deposit(testAsset, userA, big.NewInt(777), t0))
	require.NoError(t, l.deposit(testAsset, userB, big.NewInt(223), t0))

	const elapsed = 9999
	total := new(big.Int)
	for _, u := range []common.Address{userA, userB} {
		pending, err := l.pendingOf(testAsset, u, t0+elapsed)
		require.NoError(t, err)
		total.Add(total, pending)
	}

	emitted := big.NewInt(elapsed * 10)
	diff := new(big.Int).Sub(emitted, total)
	assert.True(t, diff.Sign() >= 0, "must never over-distribute")
	// at most one dust unit per depositor for a single settlement interval
	assert.True(t, diff.Cmp(big.NewInt(2)) <= 0, "dust bound exceeded: %s", diff)
}

func TestLedger_SnapshotRestore(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.deposit(testAsset, userA, big.NewInt(1000), t0))

	t.Run("RewindsMutation", func(t *testing.T) {
		snap := l.snapshot(testAsset, userA)
		require.NoError(t, l.withdraw(testAsset, userA, big.NewInt(400), t0+60))
		l.restore(snap)

		p, _ := l.pool(testAsset)
		assert.Equal(t, int64(1000), p.totalDeposited.Int64())
		assert.Equal(t, t0, p.lastUpdateTime)
		assert.Equal(t, int64(0), p.accRewardPerShare.Int64())
		assert.Equal(t, int64(1000), l.accounts[accountKey{testAsset, userA}].balance.Int64())
	})

	t.Run("DropsImplicitlyCreatedAccount", func(t *testing.T) {
		snap := l.snapshot(testAsset, userB)
		_, err := l.claim(testAsset, userB, t0+60)
		require.NoError(t, err)
		require.Contains(t, l.accounts, accountKey{testAsset, userB})

		l.restore(snap)
		assert.NotContains(t, l.accounts, accountKey{testAsset, userB})
	})
}
