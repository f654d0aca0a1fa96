// Package lookup resolves a transaction signature to the net change of one token.
package lookup

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"solana-token-delta/internal/balance"
	"solana-token-delta/internal/observability"
	"solana-token-delta/internal/solana"
)

// DefaultWaitTimeout bounds the finality wait when Options.WaitTimeout is zero.
const DefaultWaitTimeout = 2 * time.Minute

// Options configures a lookup.
type Options struct {
	Mint                           string
	Commitment                     string
	MaxSupportedTransactionVersion int
	WaitTimeout                    time.Duration
}

// Result is the outcome of one lookup.
type Result struct {
	Signature string
	Mint      string
	Found     bool
	Slot      int64
	BlockTime int64
	// Failed is set when the transaction executed with an error;
	// its balances still reflect fees and partial effects.
	Failed bool
	Pre    decimal.Decimal
	Post   decimal.Decimal
	Delta  decimal.Decimal
}

// Outcome classifies the result for reporting and metrics.
func (r *Result) Outcome() string {
	switch {
	case !r.Found:
		return observability.OutcomeNotFound
	case r.Delta.IsZero():
		return observability.OutcomeNoMovement
	case r.Delta.IsPositive():
		return observability.OutcomeReceived
	default:
		return observability.OutcomeSent
	}
}

// Service performs lookups against a ledger data provider.
type Service struct {
	rpc     solana.RPCClient
	waiter  solana.WSClient
	metrics *observability.Metrics
	logger  *zap.Logger
	opts    Options
	now     func() time.Time
}

// Option configures Service.
type Option func(*Service)

// WithWaiter makes Run wait for the signature to reach the commitment level before fetching.
func WithWaiter(w solana.WSClient) Option {
	return func(s *Service) {
		s.waiter = w
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a lookup service. An empty mint selects wrapped SOL.
func NewService(rpc solana.RPCClient, opts Options, options ...Option) *Service {
	if opts.Mint == "" {
		opts.Mint = solana.WrappedSOLMint
	}
	if opts.Commitment == "" {
		opts.Commitment = solana.CommitmentFinalized
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = DefaultWaitTimeout
	}
	s := &Service{
		rpc:    rpc,
		opts:   opts,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Run looks up signature once and computes the token delta.
// A transaction the node does not know is a Result with Found false, not an error.
func (s *Service) Run(ctx context.Context, signature string) (*Result, error) {
	if err := ValidateSignature(signature); err != nil {
		return nil, err
	}
	if err := ValidateMint(s.opts.Mint); err != nil {
		return nil, err
	}

	log := s.logger.With(zap.String("signature", signature), zap.String("mint", s.opts.Mint))

	if s.waiter != nil {
		if err := s.wait(ctx, log, signature); err != nil {
			s.recordOutcome(observability.OutcomeError)
			return nil, err
		}
	}

	start := s.now()
	tx, err := s.rpc.GetTransaction(ctx, signature, &solana.TransactionOpts{
		MaxSupportedTransactionVersion: s.opts.MaxSupportedTransactionVersion,
		Commitment:                     s.opts.Commitment,
	})
	if s.metrics != nil {
		s.metrics.RecordRPCCall("getTransaction", s.now().Sub(start).Seconds(), err)
	}
	if err != nil {
		s.recordOutcome(observability.OutcomeError)
		return nil, errors.Wrap(err, "fetch transaction")
	}

	result := &Result{
		Signature: signature,
		Mint:      s.opts.Mint,
	}

	if tx == nil {
		log.Info("transaction not found", zap.String("commitment", s.opts.Commitment))
		s.recordOutcome(result.Outcome())
		return result, nil
	}

	pre, post := tx.TokenBalances()
	result.Found = true
	result.Slot = tx.Slot
	result.BlockTime = tx.BlockTime
	result.Failed = tx.Failed()
	result.Pre, result.Post = balance.Amounts(pre, post, s.opts.Mint)
	result.Delta = balance.ComputeDelta(pre, post, s.opts.Mint)

	if result.Failed {
		log.Warn("transaction executed with an error", zap.Any("err", tx.Meta.Err))
	}
	log.Debug("computed delta",
		zap.Int64("slot", tx.Slot),
		zap.Int("pre_balances", len(pre)),
		zap.Int("post_balances", len(post)),
		zap.Stringer("pre", result.Pre),
		zap.Stringer("post", result.Post),
		zap.Stringer("delta", result.Delta),
	)

	s.recordOutcome(result.Outcome())
	if s.metrics != nil {
		s.metrics.RecordDelta(result.Delta.InexactFloat64())
	}
	return result, nil
}

// wait blocks until the signature reaches the commitment. Running out of
// wait time is not fatal: the fetch then reports whatever the node has.
func (s *Service) wait(ctx context.Context, log *zap.Logger, signature string) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.opts.WaitTimeout)
	defer cancel()

	start := s.now()
	res, err := s.waiter.WaitForSignature(waitCtx, signature, s.opts.Commitment)
	if s.metrics != nil {
		s.metrics.RecordWait(s.now().Sub(start).Seconds())
	}

	switch {
	case err == nil:
		log.Info("transaction reached commitment",
			zap.String("commitment", s.opts.Commitment),
			zap.Int64("slot", res.Slot),
		)
		if res.Err != nil {
			log.Warn("transaction executed with an error", zap.Any("err", res.Err))
		}
		return nil
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		log.Warn("gave up waiting for commitment", zap.Duration("timeout", s.opts.WaitTimeout))
		return nil
	default:
		return errors.Wrap(err, "wait for commitment")
	}
}

func (s *Service) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordLookup(outcome, float64(s.now().Unix()))
	}
}
