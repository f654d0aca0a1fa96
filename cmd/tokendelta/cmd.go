package main

import (
	"context"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"solana-token-delta/internal/config"
	"solana-token-delta/internal/logger"
	"solana-token-delta/internal/lookup"
	"solana-token-delta/internal/observability"
	"solana-token-delta/internal/reporting"
	"solana-token-delta/internal/solana"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// ErrMissingSignature is returned when neither an argument nor TOKENDELTA_SIGNATURE names a transaction.
var ErrMissingSignature = errors.New("no transaction signature given (argument or TOKENDELTA_SIGNATURE)")

type rootCmdOptions struct {
	EnvFile         string
	Mint            string
	Symbol          string
	Commitment      string
	Format          string
	Wait            bool
	WaitTimeout     time.Duration
	MetricsTextfile string
}

// NewRootCommand builds the tokendelta command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootCmdOptions{}

	cmd := &cobra.Command{
		Use:   "tokendelta [signature]",
		Short: "Show the net change of one token in a Solana transaction",
		Long: `Fetch a transaction by signature and report how much of one token
(wrapped SOL by default) moved, based on its pre and post token balances.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootHandler(opts, cmd, args)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before the environment, skipped when missing")

	flags := cmd.Flags()
	flags.StringVar(&opts.Mint, "mint", "", "token mint to track (default TOKENDELTA_MINT, wrapped SOL)")
	flags.StringVar(&opts.Symbol, "symbol", "", `unit label in the output (default "WSOL" for wrapped SOL, else the mint)`)
	flags.StringVar(&opts.Commitment, "commitment", "", "commitment level, `confirmed` or `finalized` (default TOKENDELTA_COMMITMENT)")
	flags.StringVar(&opts.Format, "format", reporting.FormatText, "output format: text, markdown or csv")
	flags.BoolVar(&opts.Wait, "wait", false, "wait over WebSocket for the transaction to reach the commitment before fetching")
	flags.DurationVar(&opts.WaitTimeout, "wait-timeout", lookup.DefaultWaitTimeout, "give up waiting after this long and fetch anyway")
	flags.StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file after the lookup")

	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// NewVersionCommand prints the build version.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show tokendelta version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), Version+"\n")
			return err
		},
	}
}

func rootHandler(opts *rootCmdOptions, cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if err := applyFlags(cfg, opts); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	signature, err := resolveSignature(args, cfg.Lookup.Signature)
	if err != nil {
		return err
	}

	// Reject malformed input before any network access.
	if err := lookup.ValidateSignature(signature); err != nil {
		return err
	}
	if err := lookup.ValidateMint(cfg.Lookup.Mint); err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return errors.Wrap(err, "init logger")
	}
	defer log.Sync() //nolint:errcheck

	metrics := observability.NewMetrics("")
	if opts.MetricsTextfile != "" {
		defer func() {
			if err := metrics.WriteTextfile(opts.MetricsTextfile); err != nil {
				log.Error("failed to write metrics", zap.Error(err))
			}
		}()
	}

	result, err := runLookup(cmd.Context(), cfg, opts, signature, metrics, log)
	if err != nil {
		return err
	}

	rep := reporting.NewReport(result, opts.Symbol)
	return reporting.Write(cmd.OutOrStdout(), rep, opts.Format)
}

func runLookup(
	ctx context.Context,
	cfg *config.Config,
	opts *rootCmdOptions,
	signature string,
	metrics *observability.Metrics,
	log *zap.Logger,
) (*lookup.Result, error) {
	endpoint := cfg.RPC.RPCEndpoint()
	log.Debug("using rpc endpoint", zap.String("endpoint", solana.RedactEndpoint(endpoint)))

	rpc := solana.NewHTTPClient(endpoint,
		solana.WithTimeout(cfg.RPC.Timeout),
		solana.WithMaxRetries(cfg.RPC.MaxRetries),
		solana.WithRetryDelay(cfg.RPC.RetryDelay),
	)

	serviceOpts := []lookup.Option{
		lookup.WithMetrics(metrics),
		lookup.WithLogger(log),
	}

	if opts.Wait {
		ws, err := solana.NewWSClient(ctx, cfg.RPC.WSEndpoint(), nil)
		if err != nil {
			return nil, errors.Wrap(err, "connect websocket")
		}
		defer ws.Close()
		serviceOpts = append(serviceOpts, lookup.WithWaiter(ws))
	}

	svc := lookup.NewService(rpc, lookup.Options{
		Mint:                           cfg.Lookup.Mint,
		Commitment:                     cfg.Lookup.Commitment,
		MaxSupportedTransactionVersion: cfg.Lookup.MaxTxVersion,
		WaitTimeout:                    opts.WaitTimeout,
	}, serviceOpts...)

	return svc.Run(ctx, signature)
}

// applyFlags overrides configuration with explicitly set flags.
func applyFlags(cfg *config.Config, opts *rootCmdOptions) error {
	if opts.Mint != "" {
		cfg.Lookup.Mint = opts.Mint
	}
	if opts.Commitment != "" {
		cfg.Lookup.Commitment = opts.Commitment
	}
	if opts.WaitTimeout <= 0 {
		return errors.Newf("--wait-timeout must be positive, got %s", opts.WaitTimeout)
	}
	switch opts.Format {
	case reporting.FormatText, reporting.FormatMarkdown, reporting.FormatCSV:
	default:
		return errors.Wrapf(reporting.ErrUnknownFormat, "%q", opts.Format)
	}
	return nil
}

// resolveSignature prefers the positional argument over the configured default.
func resolveSignature(args []string, fallback string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", ErrMissingSignature
}
