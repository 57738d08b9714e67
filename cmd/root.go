// -- cmd/root.go --
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/lhkpn-cli/internal/browser"
	"github.com/xkilldash9x/lhkpn-cli/internal/config"
	"github.com/xkilldash9x/lhkpn-cli/internal/export"
	"github.com/xkilldash9x/lhkpn-cli/internal/observability"
	"github.com/xkilldash9x/lhkpn-cli/internal/portal"
	"github.com/xkilldash9x/lhkpn-cli/internal/scrape"
)

var (
	cfgFile       string
	maxResultsArg string
	noHeadless    bool
)

// rootCmd is the single entry point: a positional name query plus flags.
var rootCmd = &cobra.Command{
	Use:   "lhkpn-cli <query>",
	Short: "Scrapes asset-disclosure records from the KPK e-LHKPN portal.",
	Long: `lhkpn-cli searches the Indonesian KPK e-LHKPN public asset-disclosure
portal for a name, walks the paginated results, opens each record's
comparison modal, and exports the itemized assets and debts to JSON or CSV.`,
	Args: cobra.ExactArgs(1),
	// Version is dynamically set at build time. See cmd/version.go.
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Runs before the command body, setting up config and logging.
		if err := initializeConfig(); err != nil {
			return err
		}

		var cfg config.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			// Initialize a fallback logger if config unmarshal fails.
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "lhkpn-cli"})
			return fmt.Errorf("failed to unmarshal config: %w", err)
		}
		observability.InitializeLogger(cfg.Logger)

		observability.GetLogger().Info("Starting lhkpn-cli", zap.String("version", Version))
		return nil
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Bind flags to their Viper keys so command-line flags override
		// values from the config file and environment.
		if err := viper.BindPFlag("export.format", cmd.Flags().Lookup("format")); err != nil {
			return err
		}
		if err := viper.BindPFlag("export.output", cmd.Flags().Lookup("output")); err != nil {
			return err
		}
		return viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless"))
	},
	RunE: runScrape,
}

// Execute runs the root command with a signal-aware context and sets the
// process exit code: 0 on success (including zero-result searches),
// non-zero on fatal failures.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	observability.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")

	rootCmd.Flags().StringVar(&maxResultsArg, "max-results", "10", "Maximum records to collect, or 'inf' for unbounded")
	rootCmd.Flags().StringP("format", "f", "json", "Output format: 'json' or 'csv'")
	rootCmd.Flags().StringP("output", "o", "lhkpn_results.json", "Destination file path")
	rootCmd.Flags().Bool("headless", true, "Run the browser headless")
	rootCmd.Flags().BoolVar(&noHeadless, "no-headless", false, "Run the browser visibly (overrides --headless)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// initializeConfig reads in the config file and LHKPN_* environment
// variables if set.
func initializeConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	config.SetDefaults(viper.GetViper())

	viper.SetEnvPrefix("LHKPN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars.
	}
	return nil
}

// ParseMaxResults interprets the --max-results value: a positive integer or
// "inf" for unbounded (returned as zero).
func ParseMaxResults(value string) (int64, error) {
	if strings.EqualFold(strings.TrimSpace(value), "inf") {
		return 0, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid --max-results value %q: want a positive integer or 'inf'", value)
	}
	return n, nil
}

// runScrape wires the components together and executes the three phases:
// search, paginate/extract, export.
func runScrape(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := args[0]

	maxResults, err := ParseMaxResults(maxResultsArg)
	if err != nil {
		return err
	}
	viper.Set("scrape.max_results", maxResults)

	cfg, err := config.NewFromViper(viper.GetViper())
	if err != nil {
		return err
	}
	if noHeadless {
		cfg.Browser.Headless = false
	}

	runID := uuid.New().String()
	logger := observability.GetLogger().With(zap.String("run_id", runID))
	logger.Info("Starting scrape",
		zap.String("query", query),
		zap.Int64("max_results", cfg.Scrape.MaxResults),
		zap.String("format", cfg.Export.Format),
		zap.String("output", cfg.Export.Output),
		zap.Bool("headless", cfg.Browser.Headless),
	)

	// The portal client validates the selector table before the browser
	// launches, so selector drift fails fast.
	client, err := portal.NewClient(logger, cfg.Portal, portal.DefaultSelectors())
	if err != nil {
		return err
	}

	// Browser acquisition failure is fatal; release is guaranteed on every
	// exit path from here on.
	mgr, err := browser.NewManager(ctx, logger, cfg.Browser)
	if err != nil {
		return fmt.Errorf("failed to initialize browser: %w", err)
	}
	defer mgr.Shutdown()

	pipeline := scrape.New(logger, cfg.Scrape, client)
	records, err := pipeline.Run(mgr.Context(), query)
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	// The output file is created only after the scrape succeeded, so fatal
	// failures leave no partial output.
	exporter, err := export.New(cfg.Export.Format, cfg.Export.Output, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := exporter.Close(); closeErr != nil {
			logger.Error("Failed to close exporter", zap.Error(closeErr))
		}
	}()
	if err := exporter.Write(records); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	logger.Info("Run finished", zap.Int("records", len(records)))
	fmt.Printf("Scraped %d record(s) for %q. Saved to %s\n", len(records), query, cfg.Export.Output)
	return nil
}
