// IcSwipe: swipe-to-trade token discovery.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lokeshwaran100/ic-swipe/api"
	"github.com/lokeshwaran100/ic-swipe/internal/app"
	"github.com/lokeshwaran100/ic-swipe/internal/catalog"
	"github.com/lokeshwaran100/ic-swipe/internal/config"
	"github.com/lokeshwaran100/ic-swipe/internal/engine"
	"github.com/lokeshwaran100/ic-swipe/internal/infra"
	"github.com/lokeshwaran100/ic-swipe/internal/llm"
	"github.com/lokeshwaran100/ic-swipe/pkg/models"
	"github.com/lokeshwaran100/ic-swipe/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger
var (
	cfg *config.Config
	log *logrus.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "icswipe",
	Short: "IcSwipe — swipe-to-trade token discovery",
	Long: `IcSwipe
Browse token candidates one card at a time. Swipe right to buy with your
default trade size, swipe left to skip. Queues come from curated
categories or from an AI generator driven by a free-text prompt.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}
		log = infra.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(swipeCmd)
	rootCmd.AddCommand(walletCmd)
	rootCmd.AddCommand(portfolioCmd)
	rootCmd.AddCommand(depositCmd)
	rootCmd.AddCommand(sellCmd)
	rootCmd.AddCommand(setDefaultCmd)
	rootCmd.AddCommand(journalCmd)
}

// withApp builds the application, runs fn and tears everything down.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func parseAmount(s string) (models.Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	amount, err := models.AmountFromDecimal(d)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if amount == 0 {
		return 0, fmt.Errorf("amount must be at least 0.01")
	}
	return amount, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("IcSwipe %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  IcSwipe — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    LLM Provider:  %s (model: %s)\n", cfg.LLM.Primary, cfg.LLM.Model)
		fmt.Printf("    Wallet:        %s\n", cfg.Wallet.Provider)
		fmt.Printf("    Journal:       %s\n", journalDriver(cfg))
		fmt.Printf("    Swipe:         threshold %.0fpx, timeout %s\n", cfg.Engine.SwipeThresholdPx, cfg.TradeTimeout())
		fmt.Printf("    API Server:    %s\n", cfg.Addr())
		fmt.Println()

		fmt.Println("  Secrets:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		if ping, _ := cmd.Flags().GetBool("ping"); ping {
			fmt.Println()
			fmt.Println("  LLM Providers:")
			router, err := llm.NewRouterFromConfig(cfg, log)
			if err != nil {
				fmt.Printf("    %v\n", err)
			} else {
				printLLMHealth(os.Stdout, router.HealthCheck(cmd.Context()))
			}
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("ping", true, "contact each configured LLM provider")
}

func printLLMHealth(out io.Writer, results map[string]error) {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		status := "✅ reachable"
		if err := results[name]; err != nil {
			status = "❌ " + err.Error()
		}
		fmt.Fprintf(out, "    %-25s %s\n", name+":", status)
	}
}

func journalDriver(c *config.Config) string {
	if c.Journal.PostgresDSN != "" {
		return "postgres"
	}
	if c.Journal.Driver == "" {
		return "memory"
	}
	return c.Journal.Driver
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			fmt.Printf("🌐 Starting IcSwipe API server on %s\n", cfg.Addr())
			return api.NewServer(a).ListenAndServe(cfg.Addr())
		})
	},
}

// --- Categories Command ---

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the curated token categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, c := range catalog.New().Categories() {
			fmt.Printf("  %-16s %-16s %s\n", c.Key, c.Title, c.Description)
		}
		return nil
	},
}

// --- Generate Command ---

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate token candidates from a free-text prompt",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := strings.Join(args, " ")
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			queue := a.Catalog.LoadGenerated(ctx, prompt)
			fmt.Printf("🤖 %d candidates for %q\n\n", len(queue), prompt)
			for i, c := range queue {
				fmt.Printf("%d. ", i+1)
				printCandidate(os.Stdout, c)
			}
			return nil
		})
	},
}

// --- Swipe Command ---

var swipeCmd = &cobra.Command{
	Use:   "swipe [category]",
	Short: "Swipe through a queue in the terminal",
	Long: `Swipe through a category (or an AI-generated queue with --prompt).

Keys: r/→/y buys with the default trade size, l/←/n skips, q quits.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt, _ := cmd.Flags().GetString("prompt")
		category := cfg.Catalog.DefaultCategory
		if len(args) == 1 {
			category = args[0]
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			var queue []models.Candidate
			title := catalog.Title(category)
			if prompt != "" {
				queue = a.Catalog.LoadGenerated(ctx, prompt)
				title = prompt
			} else {
				queue = a.Catalog.LoadStatic(category)
			}

			e := a.NewEngine()
			defer e.Close()
			if err := e.Load(queue); err != nil {
				return err
			}
			fmt.Printf("🃏 %s — %d cards, balance %s ICP\n", title, len(queue), a.Session.State().Balance)
			return swipeLoop(ctx, e, os.Stdin, os.Stdout)
		})
	},
}

func init() {
	swipeCmd.Flags().String("prompt", "", "generate the queue from a free-text prompt")
}

// swipeLoop reads decisions from in until the queue is exhausted, the
// input ends or the user quits.
func swipeLoop(ctx context.Context, e *engine.Engine, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		cand, ok := e.CurrentCandidate()
		if !ok {
			fmt.Fprintln(out, "\n🏁 No more tokens in this queue.")
			return nil
		}
		fmt.Fprintln(out)
		printCandidate(out, cand)
		fmt.Fprint(out, "[r]ight buy / [l]eft skip / [q]uit > ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		var d models.Decision
		switch key := strings.ToLower(strings.TrimSpace(scanner.Text())); key {
		case "q", "quit", "exit":
			return nil
		case "r", "y", "→":
			d = models.DecisionAccept
		case "l", "n", "←":
			d = models.DecisionReject
		default:
			parsed, ok := models.ParseDecision(key)
			if !ok {
				fmt.Fprintln(out, "  unknown key")
				continue
			}
			d = parsed
		}

		outcome, err := e.Decide(ctx, d)
		switch {
		case engine.IsPrecondition(err):
			fmt.Fprintf(out, "  ❌ %v\n", err)
			continue
		case err != nil:
			return err
		}
		n := outcome.Notification
		fmt.Fprintf(out, "  %s %s: %s\n", kindMark(n.Kind), n.Title, n.Message)
	}
}

func kindMark(k models.NotificationKind) string {
	switch k {
	case models.NotifySuccess:
		return "✅"
	case models.NotifyError:
		return "❌"
	}
	return "ℹ️"
}

func printCandidate(out io.Writer, c models.Candidate) {
	if c.IsGenerated() {
		fmt.Fprint(out, "🤖 ")
	}
	fmt.Fprintf(out, "%s (%s)  %s  %s\n", c.Name, c.Symbol, utils.FormatPrice(c.Price), utils.FormatPct(c.PriceChangePercent))
	fmt.Fprintf(out, "   mcap %s  liq %s  fdv %s  age %s",
		utils.FormatUSDCompact(c.MarketCapUSD), utils.FormatUSDCompact(c.LiquidityUSD),
		utils.FormatUSDCompact(c.FullyDilutedValueUSD), utils.PairAge(c.PairCreatedAt, time.Now()))
	if c.RiskLevel != "" {
		fmt.Fprintf(out, "  risk %s", c.RiskLevel)
	}
	if c.AIScore > 0 {
		fmt.Fprintf(out, "  %s (%d)", utils.TrustLabel(c.AIScore), c.AIScore)
	}
	fmt.Fprintln(out)
	if c.Reasoning != "" {
		fmt.Fprintf(out, "   %s\n", c.Reasoning)
	}
}

// --- Wallet Commands ---

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Show the wallet balance and default trade size",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			st := a.Session.State()
			fmt.Printf("  Provider:     %s\n", a.Session.Client().Name())
			fmt.Printf("  Principal:    %s\n", orDash(a.Session.Principal()))
			fmt.Printf("  Balance:      %s ICP\n", st.Balance)
			fmt.Printf("  Trade size:   %s ICP\n", st.DefaultTradeSize)
			return nil
		})
	},
}

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Show the wallet's holdings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			pf, err := a.Session.Portfolio(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("  Base balance:   %s ICP\n", pf.BaseBalance)
			fmt.Printf("  Trade size:     %s ICP\n", pf.DefaultTradeSize)
			fmt.Printf("  Total deposits: %s ICP\n", pf.TotalDeposits)
			fmt.Printf("  Total swaps:    %s ICP\n", pf.TotalSwaps)
			for _, tb := range pf.TokenBalances {
				fmt.Printf("    %-10s %s\n", tb.Symbol, tb.Amount)
			}
			return nil
		})
	},
}

var depositCmd = &cobra.Command{
	Use:   "deposit [amount]",
	Short: "Deposit base currency into the wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			res, err := a.Session.Deposit(ctx, amount)
			if err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("deposit failed: %s", res.Message)
			}
			fmt.Printf("✅ Deposited %s ICP. Balance: %s ICP\n", amount, res.NewBalance)
			return nil
		})
	},
}

var sellCmd = &cobra.Command{
	Use:   "sell [symbol] [amount]",
	Short: "Sell a token back into base currency",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		symbol := utils.NormalizeSymbol(args[0])
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			res, err := a.Session.SellToken(ctx, symbol, amount)
			if err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("sell failed: %s", res.Message)
			}
			fmt.Printf("✅ Sold %s %s. Balance: %s ICP\n", amount, symbol, res.NewBalance)
			return nil
		})
	},
}

var setDefaultCmd = &cobra.Command{
	Use:   "set-default [amount]",
	Short: "Set the default trade size used when swiping right",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Session.SetDefaultTradeSize(ctx, amount); err != nil {
				return err
			}
			fmt.Printf("✅ Default trade size: %s ICP\n", amount)
			return nil
		})
	},
}

// --- Journal Command ---

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recent swipe decisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			entries, err := a.Journal.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("  (no decisions recorded)")
				return nil
			}
			for _, en := range entries {
				fmt.Printf("  %s  %-6s %-10s %-12s %10s  %s\n",
					utils.FormatDateTime(en.CreatedAt),
					en.Decision, en.Symbol, en.Outcome, en.Amount, en.Message)
			}
			return nil
		})
	},
}

func init() {
	journalCmd.Flags().Int("limit", 20, "number of entries to show")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
