package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Jiwoks/AlyraStacking/cmd/console/config"
	"github.com/Jiwoks/AlyraStacking/custody"
	"github.com/Jiwoks/AlyraStacking/events"
	"github.com/Jiwoks/AlyraStacking/oracle"
	"github.com/Jiwoks/AlyraStacking/oracle/chainlink"
	"github.com/Jiwoks/AlyraStacking/staking"
)

// --- VISUAL CONSTANTS ---
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Red   = "\033[31m"
	Green = "\033[32m"
	Cyan  = "\033[36m"
)

// header prints a styled section header
func header(title string) {
	fmt.Println("\n" + Bold + Cyan + ":: " + title + " ::" + Reset)
}

// console bundles the engine with the lookups the command loop needs.
type console struct {
	sys     *staking.System
	vault   *custody.MemVault
	log     *events.Log
	assets  map[string]common.Address // symbol -> asset
	wallets map[string]common.Address // alias -> address
}

var walletAliases = map[string]common.Address{
	"user1": common.HexToAddress("0x0000000000000000000000000000000000001001"),
	"user2": common.HexToAddress("0x0000000000000000000000000000000000001002"),
	"user3": common.HexToAddress("0x0000000000000000000000000000000000001003"),
}

func main() {
	rootLogger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	configPath := flag.String("config", "config.yaml", "Path to the configuration file.")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		rootLogger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := build(ctx, cfg, rootLogger)
	if err != nil {
		rootLogger.Error("Failed to build staking engine", "error", err)
		os.Exit(1)
	}

	header("AlyraStacking console")
	fmt.Println("commands: pools | wallet <user> | deposit <user> <symbol> <amount> | withdraw <user> <symbol> <amount>")
	fmt.Println("          claimable <user> <symbol> | claim <user> <symbol> | account <user> <symbol> | feed <symbol> | events | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(Bold + "> " + Reset)
		if !scanner.Scan() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		if quit := c.dispatch(ctx, strings.Fields(scanner.Text())); quit {
			return
		}
	}
}

// build wires the vault, feeds, event log and engine from the config and
// creates every configured pool.
func build(ctx context.Context, cfg *config.ConsoleConfig, logger *slog.Logger) (*console, error) {
	vault := custody.NewMemVault(cfg.RewardAssetAddress())
	vault.FundTreasury(big.NewInt(cfg.TreasurySupply))

	feeds := oracle.NewRegistry()
	log := events.NewLog()

	sys, err := staking.NewSystem(&staking.Config{
		Owner:    cfg.OwnerAddress(),
		Vault:    vault,
		Treasury: vault,
		Feeds:    feeds,
		Events:   log,
		Logger:   logger.With("component", "staking-engine"),
		Registry: prometheus.DefaultRegisterer,
	})
	if err != nil {
		return nil, err
	}

	c := &console{
		sys:     sys,
		vault:   vault,
		log:     log,
		assets:  make(map[string]common.Address, len(cfg.Pools)),
		wallets: walletAliases,
	}

	for _, p := range cfg.Pools {
		if err := sys.CreatePool(cfg.OwnerAddress(), p.AssetAddress(), p.OracleAddress(), p.OracleDecimals, p.Rate(), p.Symbol); err != nil {
			return nil, fmt.Errorf("failed to create pool %s: %w", p.Symbol, err)
		}
		c.assets[strings.ToUpper(p.Symbol)] = p.AssetAddress()

		if cfg.RPCURL != "" {
			feed, err := chainlink.Dial(ctx, cfg.RPCURL, p.OracleAddress())
			if err != nil {
				return nil, fmt.Errorf("failed to dial feed for %s: %w", p.Symbol, err)
			}
			feeds.Register(p.OracleAddress(), feed)
		} else {
			feeds.Register(p.OracleAddress(), oracle.NewStatic(big.NewInt(p.Price), 0))
		}

		// fund the demo wallets with the staked asset
		for _, wallet := range c.wallets {
			vault.Mint(p.AssetAddress(), wallet, big.NewInt(cfg.WalletFunds))
		}
	}
	return c, nil
}

// dispatch runs one command line. It returns true when the console should
// exit.
func (c *console) dispatch(ctx context.Context, args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case "quit", "exit":
		return true
	case "pools":
		c.printPools()
	case "wallet":
		c.withWallet(args, func(user common.Address) {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for symbol, asset := range c.assets {
				fmt.Fprintf(w, "%s\t%s\n", symbol, c.vault.BalanceOf(asset, user))
			}
			w.Flush()
		})
	case "deposit":
		c.mutate(args, func(user, asset common.Address, amount *big.Int) error {
			return c.sys.Deposit(ctx, user, asset, amount)
		})
	case "withdraw":
		c.mutate(args, func(user, asset common.Address, amount *big.Int) error {
			return c.sys.Withdraw(ctx, user, asset, amount)
		})
	case "claim":
		c.withUserAsset(args, func(user, asset common.Address) {
			paid, err := c.sys.Claim(ctx, user, asset)
			if err != nil {
				fail(err)
				return
			}
			fmt.Printf("%spaid %s reward units%s\n", Green, paid, Reset)
		})
	case "claimable":
		c.withUserAsset(args, func(user, asset common.Address) {
			pending, err := c.sys.Claimable(asset, user)
			if err != nil {
				fail(err)
				return
			}
			fmt.Println(pending)
		})
	case "account":
		c.withUserAsset(args, func(user, asset common.Address) {
			view, err := c.sys.Account(user, asset)
			if err != nil {
				fail(err)
				return
			}
			fmt.Printf("balance=%s rewardDebt=%s\n", view.Balance, view.RewardDebt)
		})
	case "feed":
		if len(args) != 2 {
			fail(fmt.Errorf("usage: feed <symbol>"))
			return false
		}
		asset, ok := c.assets[strings.ToUpper(args[1])]
		if !ok {
			fail(fmt.Errorf("unknown symbol %q", args[1]))
			return false
		}
		feed, err := c.sys.DataFeed(ctx, asset)
		if err != nil {
			fail(err)
			return false
		}
		fmt.Printf("price=%s decimals=%d updatedAt=%d\n", feed.Price, feed.Decimals, feed.UpdatedAt)
	case "events":
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SEQ\tTYPE\tASSET\tACCOUNT\tAMOUNT")
		for _, e := range c.log.All() {
			amount := ""
			if e.Amount != nil {
				amount = e.Amount.String()
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.Sequence, e.Type, e.Asset, e.Account, amount)
		}
		w.Flush()
	default:
		fail(fmt.Errorf("unknown command %q", args[0]))
	}
	return false
}

func (c *console) printPools() {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tASSET\tTVL\tREWARD/S\tACC/SHARE")
	// pools are discovered off the event log, the way the frontend does it
	for _, e := range c.log.ByType(events.TypePoolCreated) {
		view, err := c.sys.Pool(e.Asset)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			view.Symbol, view.Asset, view.TotalDeposited, view.RewardPerSecond, view.AccRewardPerShare)
	}
	w.Flush()
}

// mutate parses "<op> <user> <symbol> <amount>" and runs fn.
func (c *console) mutate(args []string, fn func(user, asset common.Address, amount *big.Int) error) {
	if len(args) != 4 {
		fail(fmt.Errorf("usage: %s <user> <symbol> <amount>", args[0]))
		return
	}
	user, asset, ok := c.resolve(args[1], args[2])
	if !ok {
		return
	}
	amount, ok := new(big.Int).SetString(args[3], 10)
	if !ok {
		fail(fmt.Errorf("bad amount %q", args[3]))
		return
	}
	if err := fn(user, asset, amount); err != nil {
		fail(err)
		return
	}
	fmt.Println(Green + "ok" + Reset)
}

// withUserAsset parses "<op> <user> <symbol>" and runs fn.
func (c *console) withUserAsset(args []string, fn func(user, asset common.Address)) {
	if len(args) != 3 {
		fail(fmt.Errorf("usage: %s <user> <symbol>", args[0]))
		return
	}
	user, asset, ok := c.resolve(args[1], args[2])
	if !ok {
		return
	}
	fn(user, asset)
}

// withWallet parses "<op> <user>" and runs fn.
func (c *console) withWallet(args []string, fn func(user common.Address)) {
	if len(args) != 2 {
		fail(fmt.Errorf("usage: %s <user>", args[0]))
		return
	}
	user, ok := c.wallets[args[1]]
	if !ok {
		fail(fmt.Errorf("unknown user %q (user1..user3)", args[1]))
		return
	}
	fn(user)
}

func (c *console) resolve(userAlias, symbol string) (common.Address, common.Address, bool) {
	user, ok := c.wallets[userAlias]
	if !ok {
		fail(fmt.Errorf("unknown user %q (user1..user3)", userAlias))
		return common.Address{}, common.Address{}, false
	}
	asset, ok := c.assets[strings.ToUpper(symbol)]
	if !ok {
		fail(fmt.Errorf("unknown symbol %q", symbol))
		return common.Address{}, common.Address{}, false
	}
	return user, asset, true
}

func fail(err error) {
	fmt.Println(Red + "error: " + err.Error() + Reset)
}
