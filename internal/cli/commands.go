package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/irfndi/stockai-go/internal/bootstrap"
	"github.com/irfndi/stockai-go/internal/config"
	"github.com/irfndi/stockai-go/internal/logging"
	"github.com/irfndi/stockai-go/internal/marketdata"
	"github.com/irfndi/stockai-go/internal/services"
)

// ServiceBuilder creates the analysis service a command runs against.
type ServiceBuilder func(cfg *config.Config, logger *logrus.Logger) (*services.AnalysisService, error)

// DefaultServiceBuilder wires Yahoo sources and the configured scorer.
func DefaultServiceBuilder(cfg *config.Config, logger *logrus.Logger) (*services.AnalysisService, error) {
	prices, news := bootstrap.MarketSources(cfg, logger)
	scorer, _ := bootstrap.Scorer(cfg.LLM, logger)
	return bootstrap.AnalysisService(cfg, bootstrap.Pipeline{
		Prices: prices,
		News:   news,
		Scorer: scorer,
	}, logger, nil), nil
}

type rootOptions struct {
	build   ServiceBuilder
	version string
	debug   bool
	asJSON  bool
	useLLM  bool
}

// NewRootCmd creates the stockai command tree.
func NewRootCmd(build ServiceBuilder, version string) *cobra.Command {
	opts := &rootOptions{build: build, version: version}

	rootCmd := &cobra.Command{
		Use:   "stockai",
		Short: "StockAI - technical and sentiment signals for stocks",
		Long: `StockAI computes RSI, moving average and MACD for a ticker, optionally blends
in news sentiment, and prints a BUY, SELL or HOLD decision with its confidence.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newAnalyzeCmd(opts))
	rootCmd.AddCommand(newReportCmd(opts))
	rootCmd.AddCommand(newSentimentCmd(opts))
	rootCmd.AddCommand(newVersionCmd(opts))

	// Global flags
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print raw JSON instead of styled output")
	rootCmd.PersistentFlags().BoolVar(&opts.useLLM, "llm", false, "Score sentiment with the Anthropic model (needs ANTHROPIC_API_KEY)")

	return rootCmd
}

// service loads config and builds the analysis service for one invocation.
func (o *rootOptions) service() (*services.AnalysisService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if o.useLLM {
		cfg.LLM.Provider = "anthropic"
	}

	level := "warn"
	if o.debug {
		level = "debug"
	}
	logger := logging.NewLogrus(level)

	return o.build(cfg, logger)
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		period    string
		sentiment bool
		newsLimit int
	)

	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Analyze a stock symbol",
		Long: `Fetch daily prices for SYMBOL, compute indicators and print a trading decision.
Example: stockai analyze AAPL --period 6mo --sentiment`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if period != "" && !marketdata.ValidPeriod(period) {
				return fmt.Errorf("unsupported period %q", period)
			}
			svc, err := opts.service()
			if err != nil {
				return err
			}

			result, err := svc.Analyze(cmd.Context(), services.AnalysisRequest{
				Symbol:           args[0],
				Period:           period,
				IncludeSentiment: sentiment,
				NewsLimit:        newsLimit,
			})
			if err != nil {
				return err
			}

			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			renderAnalysis(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "History period (1mo, 3mo, 6mo, 1y, 2y, 5y, ytd, max)")
	cmd.Flags().BoolVar(&sentiment, "sentiment", false, "Blend in news sentiment")
	cmd.Flags().IntVar(&newsLimit, "news-limit", 0, "Number of headlines to score (1-20)")

	return cmd
}

func newReportCmd(opts *rootOptions) *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "report SYMBOL",
		Short: "Print a full technical report for a stock symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if period != "" && !marketdata.ValidPeriod(period) {
				return fmt.Errorf("unsupported period %q", period)
			}
			svc, err := opts.service()
			if err != nil {
				return err
			}

			report, err := svc.Report(cmd.Context(), services.AnalysisRequest{Symbol: args[0], Period: period})
			if err != nil {
				return err
			}

			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			renderReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "History period")
	return cmd
}

func newSentimentCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sentiment TEXT...",
		Short: "Score the sentiment of one or more texts",
		Long: `Score each argument as a separate text and print the aggregate sentiment.
Example: stockai sentiment "Shares surge on record profit" "Guidance disappoints"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service()
			if err != nil {
				return err
			}

			summary, err := svc.AnalyzeTexts(cmd.Context(), args)
			if err != nil {
				return err
			}

			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			renderSentiment(cmd.OutOrStdout(), args, summary)
			return nil
		},
	}
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stockai %s\n", opts.version)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
