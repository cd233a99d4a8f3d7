package staking

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Jiwoks/AlyraStacking/custody"
	"github.com/Jiwoks/AlyraStacking/events"
	"github.com/Jiwoks/AlyraStacking/oracle"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the dependencies of the staking System.
type Config struct {
	// Owner is the only address allowed to create pools.
	Owner common.Address
	// Vault moves staked assets in and out of engine custody.
	Vault custody.Vault
	// Treasury pays out claimed rewards.
	Treasury custody.Treasury
	// Feeds resolves a pool's aggregator address to a price feed.
	Feeds *oracle.Registry
	// Events receives one event per mutating operation.
	Events *events.Log
	// Logger is required for structured logging.
	Logger Logger
	// Registry is required for metrics.
	Registry prometheus.Registerer
	// Now returns the current unix time in seconds. Defaults to the wall
	// clock; tests inject a fake.
	Now func() uint64
}

// validate checks if the configuration is valid, ensuring required
// dependencies are present.
func (c *Config) validate() error {
	if c.Vault == nil {
		return errors.New("config: Vault cannot be nil")
	}
	if c.Treasury == nil {
		return errors.New("config: Treasury cannot be nil")
	}
	if c.Feeds == nil {
		return errors.New("config: Feeds cannot be nil")
	}
	if c.Events == nil {
		return errors.New("config: Events cannot be nil")
	}
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	return nil
}

// System is the concurrency-safe staking engine. It wraps the plain Ledger
// with validation, owner gating, external transfers, events, metrics and
// logging.
//
// Every mutating operation runs as one all-or-nothing unit under the write
// lock, in a fixed order: validate, settle the accumulator, mutate
// balances and debts, then perform the external transfer. A failed
// transfer rolls the ledger back to its pre-operation state.
type System struct {
	mu     sync.RWMutex
	ledger *Ledger

	owner    common.Address
	vault    custody.Vault
	treasury custody.Treasury
	feeds    *oracle.Registry
	events   *events.Log
	logger   Logger
	metrics  *Metrics
	now      func() uint64
}

// NewSystem constructs a System from a configuration, returning an error if
// the config is invalid.
func NewSystem(cfg *Config) (*System, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	now := cfg.Now
	if now == nil {
		now = func() uint64 { return uint64(time.Now().Unix()) }
	}
	return &System{
		ledger:   NewLedger(),
		owner:    cfg.Owner,
		vault:    cfg.Vault,
		treasury: cfg.Treasury,
		feeds:    cfg.Feeds,
		events:   cfg.Events,
		logger:   cfg.Logger,
		metrics:  NewMetrics(cfg.Registry),
		now:      now,
	}, nil
}

// --- Write Operations ---

// CreatePool attaches a new asset with its aggregator, decimal precision,
// reward rate and display symbol. Owner only; one pool per asset; the
// reward rate is immutable afterwards.
func (s *System) CreatePool(caller, asset, aggregator common.Address, oracleDecimals uint8, rewardPerSecond *big.Int, symbol string) (err error) {
	defer s.observe("create_pool", asset, &err)()

	if caller != s.owner {
		return ErrNotOwner
	}
	if rewardPerSecond == nil || rewardPerSecond.Sign() < 0 {
		return ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if err = s.ledger.createPool(asset, aggregator, oracleDecimals, rewardPerSecond, symbol, now); err != nil {
		return err
	}

	s.events.Append(&events.Event{
		Type:      events.TypePoolCreated,
		Timestamp: now,
		Asset:     asset,
		Oracle:    aggregator,
		Symbol:    symbol,
	})
	s.metrics.tvl.WithLabelValues(asset.Hex()).Set(0)
	s.logger.Info("pool created",
		"asset", asset, "oracle", aggregator, "symbol", symbol,
		"rewardPerSecond", rewardPerSecond.String())
	return nil
}

// Deposit stakes amount of asset for user. The asset is pulled from the
// user's custody first; any ledger mutation happens only after the pull
// succeeded, so a failed pull leaves no trace.
func (s *System) Deposit(ctx context.Context, user, asset common.Address, amount *big.Int) (err error) {
	defer s.observe("deposit", asset, &err)()

	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.ledger.pool(asset)
	if !ok {
		return ErrTokenNotAllowed
	}

	if err = s.vault.Pull(ctx, asset, user, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	now := s.now()
	if err = s.ledger.deposit(asset, user, amount, now); err != nil {
		return err
	}

	s.events.Append(&events.Event{
		Type:      events.TypeDeposit,
		Timestamp: now,
		Asset:     asset,
		Account:   user,
		Amount:    amount,
	})
	s.metrics.tvl.WithLabelValues(asset.Hex()).Set(bigToFloat(p.totalDeposited))
	s.logger.Info("deposit", "asset", asset, "account", user, "amount", amount.String())
	return nil
}

// Withdraw unstakes amount of asset for user and pushes it back to the
// user's custody. Reward accrued up to this instant stays claimable. If the
// push fails the entire operation is rolled back.
func (s *System) Withdraw(ctx context.Context, user, asset common.Address, amount *big.Int) (err error) {
	defer s.observe("withdraw", asset, &err)()

	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.ledger.pool(asset)
	if !ok {
		return ErrTokenNotAllowed
	}

	snap := s.ledger.snapshot(asset, user)
	now := s.now()
	if err = s.ledger.withdraw(asset, user, amount, now); err != nil {
		return err
	}

	if err = s.vault.Push(ctx, asset, user, amount); err != nil {
		s.ledger.restore(snap)
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	s.events.Append(&events.Event{
		Type:      events.TypeWithdraw,
		Timestamp: now,
		Asset:     asset,
		Account:   user,
		Amount:    amount,
	})
	s.metrics.tvl.WithLabelValues(asset.Hex()).Set(bigToFloat(p.totalDeposited))
	s.logger.Info("withdraw", "asset", asset, "account", user, "amount", amount.String())
	return nil
}

// Claim pays out the user's pending reward for asset and resets their
// settlement snapshot. A failed treasury payment rolls the whole operation
// back, leaving the reward claimable.
func (s *System) Claim(ctx context.Context, user, asset common.Address) (paid *big.Int, err error) {
	defer s.observe("claim", asset, &err)()

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.ledger.snapshot(asset, user)
	now := s.now()
	pending, err := s.ledger.claim(asset, user, now)
	if err != nil {
		return nil, err
	}

	if pending.Sign() > 0 {
		if err = s.treasury.Pay(ctx, user, pending); err != nil {
			s.ledger.restore(snap)
			return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
		}
	}

	s.events.Append(&events.Event{
		Type:      events.TypeClaim,
		Timestamp: now,
		Asset:     asset,
		Account:   user,
		Amount:    pending,
	})
	s.metrics.rewardPaid.WithLabelValues(asset.Hex()).Add(bigToFloat(pending))
	s.logger.Info("claim", "asset", asset, "account", user, "amount", pending.String())
	return pending, nil
}

// --- Read Operations ---
// Views never persist accumulator growth; Claimable uses the projected
// accumulator so it always agrees with what the next mutating call would
// realize.

// Pool returns a snapshot of the pool for asset.
func (s *System) Pool(asset common.Address) (*PoolView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.ledger.pool(asset)
	if !ok {
		return nil, ErrTokenNotAllowed
	}
	return p.view(), nil
}

// Account returns a snapshot of the (asset, user) account. Accounts that
// never deposited read as zeroed.
func (s *System) Account(user, asset common.Address) (*AccountView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.ledger.pool(asset); !ok {
		return nil, ErrTokenNotAllowed
	}
	key := accountKey{asset, user}
	if a, ok := s.ledger.accounts[key]; ok {
		return a.view(key), nil
	}
	return (&account{balance: new(big.Int), rewardDebt: new(big.Int)}).view(key), nil
}

// BalanceOf returns the user's deposited balance for asset.
func (s *System) BalanceOf(asset, user common.Address) (*big.Int, error) {
	view, err := s.Account(user, asset)
	if err != nil {
		return nil, err
	}
	return view.Balance, nil
}

// TVLOf returns the pool's total deposited balance.
func (s *System) TVLOf(asset common.Address) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.ledger.pool(asset)
	if !ok {
		return nil, ErrTokenNotAllowed
	}
	return new(big.Int).Set(p.totalDeposited), nil
}

// Claimable returns the reward the user could claim right now.
func (s *System) Claimable(asset, user common.Address) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.pendingOf(asset, user, s.now())
}

// DataFeed reads the latest price from the pool's aggregator, paired with
// the decimal precision recorded at pool creation.
func (s *System) DataFeed(ctx context.Context, asset common.Address) (*DataFeed, error) {
	s.mu.RLock()
	p, ok := s.ledger.pool(asset)
	if !ok {
		s.mu.RUnlock()
		return nil, ErrTokenNotAllowed
	}
	aggregator := p.oracle
	decimals := p.oracleDecimals
	s.mu.RUnlock()

	feed, err := s.feeds.Lookup(aggregator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	round, err := feed.LatestRoundData(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	return &DataFeed{
		Price:     round.Price,
		Decimals:  decimals,
		UpdatedAt: round.UpdatedAt,
	}, nil
}

// observe wraps one operation with a duration timer and outcome counters.
func (s *System) observe(op string, asset common.Address, err *error) func() {
	timer := prometheus.NewTimer(s.metrics.opDuration.WithLabelValues(op))
	return func() {
		timer.ObserveDuration()
		if *err != nil {
			s.metrics.opFailures.WithLabelValues(op, Kind(*err).String()).Inc()
			return
		}
		s.metrics.opTotal.WithLabelValues(op, asset.Hex()).Inc()
	}
}

// bigToFloat converts an amount for gauge/counter export. Precision loss is
// acceptable for metrics.
func bigToFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
