// Package config loads the console's yaml configuration.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// PoolConfig describes one pool to create at startup.
type PoolConfig struct {
	Asset           string `yaml:"asset"`
	Symbol          string `yaml:"symbol"`
	Oracle          string `yaml:"oracle"`
	OracleDecimals  uint8  `yaml:"oracleDecimals"`
	RewardPerSecond int64  `yaml:"rewardPerSecond"`
	// Price is the static feed answer used when no RPC URL is configured.
	Price int64 `yaml:"price"`
}

// ConsoleConfig is the root configuration of the console binary.
type ConsoleConfig struct {
	// Owner is the pool administrator address.
	Owner string `yaml:"owner"`
	// RewardAsset is the reward token address the treasury pays in.
	RewardAsset string `yaml:"rewardAsset"`
	// TreasurySupply is the reward supply minted into engine custody.
	TreasurySupply int64 `yaml:"treasurySupply"`
	// WalletFunds is the per-asset balance minted to each demo wallet.
	WalletFunds int64 `yaml:"walletFunds"`
	// RPCURL, when set, switches the price feeds from static answers to
	// live Chainlink aggregator reads over JSON-RPC.
	RPCURL string       `yaml:"rpcUrl"`
	Pools  []PoolConfig `yaml:"pools"`
}

func (c *ConsoleConfig) validate() error {
	if c.Owner == "" {
		return errors.New("config: owner is required")
	}
	if !common.IsHexAddress(c.Owner) {
		return fmt.Errorf("config: owner %q is not a hex address", c.Owner)
	}
	if c.RewardAsset == "" || !common.IsHexAddress(c.RewardAsset) {
		return fmt.Errorf("config: rewardAsset %q is not a hex address", c.RewardAsset)
	}
	if c.TreasurySupply <= 0 {
		return errors.New("config: treasurySupply must be positive")
	}
	if len(c.Pools) == 0 {
		return errors.New("config: at least one pool is required")
	}
	for i, p := range c.Pools {
		if !common.IsHexAddress(p.Asset) {
			return fmt.Errorf("config: pool %d asset %q is not a hex address", i, p.Asset)
		}
		if !common.IsHexAddress(p.Oracle) {
			return fmt.Errorf("config: pool %d oracle %q is not a hex address", i, p.Oracle)
		}
		if p.Symbol == "" {
			return fmt.Errorf("config: pool %d is missing a symbol", i)
		}
		if p.RewardPerSecond < 0 {
			return fmt.Errorf("config: pool %d rewardPerSecond must be non-negative", i)
		}
	}
	return nil
}

// OwnerAddress returns the parsed owner address.
func (c *ConsoleConfig) OwnerAddress() common.Address {
	return common.HexToAddress(c.Owner)
}

// RewardAssetAddress returns the parsed reward token address.
func (c *ConsoleConfig) RewardAssetAddress() common.Address {
	return common.HexToAddress(c.RewardAsset)
}

// AssetAddress returns the pool's parsed asset address.
func (p *PoolConfig) AssetAddress() common.Address {
	return common.HexToAddress(p.Asset)
}

// OracleAddress returns the pool's parsed aggregator address.
func (p *PoolConfig) OracleAddress() common.Address {
	return common.HexToAddress(p.Oracle)
}

// Rate returns the pool's reward rate as a big integer.
func (p *PoolConfig) Rate() *big.Int {
	return big.NewInt(p.RewardPerSecond)
}

// LoadConfig reads and validates the yaml configuration at path.
func LoadConfig(path string) (*ConsoleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg ConsoleConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
