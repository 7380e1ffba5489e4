// Package pipeline runs one screening pass: it ranks the index losers,
// confirms their downtrend, and picks one option contract per stock.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eddiefleurent/downtrend_puts/internal/models"
	"github.com/eddiefleurent/downtrend_puts/internal/nse"
	"github.com/eddiefleurent/downtrend_puts/internal/strategy"
	"github.com/eddiefleurent/downtrend_puts/internal/util"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Options tunes a Pipeline. Zero values fall back to defaults.
type Options struct {
	// Concurrency bounds how many stocks are evaluated at once.
	Concurrency   int
	HistoryWindow string
}

// Outcome is the result of evaluating one qualified stock. Option is nil
// when Err is set.
type Outcome struct {
	Symbol string                 `json:"symbol"`
	Stock  models.RankedStock     `json:"stock"`
	Option *models.SelectedOption `json:"option,omitempty"`
	Err    error                  `json:"-"`
}

// Kind classifies the outcome's error.
func (o Outcome) Kind() models.ErrorKind {
	return models.KindOf(o.Err)
}

// Result is everything one run produced.
type Result struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	// Selections holds a one-element slice per stock with a selected option.
	Selections map[string][]models.SelectedOption `json:"selections"`
	// Outcomes lists every stock that passed the downtrend filter, worst
	// laggard first.
	Outcomes []Outcome `json:"outcomes"`
}

// Pipeline wires a market data source to the selection rules.
type Pipeline struct {
	source   nse.Source
	selector *strategy.OptionSelector
	opts     Options
	logger   logrus.FieldLogger
	now      func() time.Time
}

// New creates a Pipeline reading from source.
func New(source nse.Source, selection strategy.SelectionConfig, opts Options, logger logrus.FieldLogger) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.HistoryWindow == "" {
		opts.HistoryWindow = strategy.DefaultHistoryWindow
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pipeline{
		source:   source,
		selector: strategy.NewOptionSelector(selection, logger),
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the clock read at the start of each run.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Run performs one screening pass. Only a failure to read the index snapshot
// aborts the run; every per-stock failure is logged and recorded in its
// Outcome.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	now := p.now()
	result := &Result{
		RunID:      uuid.NewString(),
		StartedAt:  now,
		Selections: make(map[string][]models.SelectedOption),
	}
	log := p.logger.WithField("run_id", result.RunID)
	log.WithField("month", util.MonthKey(now)).Info("Starting screening run")

	snapshot, err := p.source.FetchIndexSnapshot(ctx)
	if err != nil {
		log.WithError(err).Error("Index snapshot unavailable, aborting run")
		return nil, fmt.Errorf("fetching index snapshot: %w", err)
	}
	log.WithFields(logrus.Fields{
		"index_last_close": snapshot.IndexLastClose,
		"constituents":     len(snapshot.Constituents),
	}).Info("Index snapshot loaded")
	log.WithField("symbols", snapshot.Symbols()).Debug("Index constituents")

	lotSizes, err := p.source.FetchLotSizeTable(ctx)
	if err != nil {
		log.WithError(err).Warn("Lot size table unavailable, every selection will fail lot size lookup")
		lotSizes = nil
	}

	filter := strategy.NewDowntrendFilter(p.source, p.opts.HistoryWindow, log)
	qualified := filter.FilterQualified(ctx, snapshot)
	log.WithField("count", len(qualified)).Info("Stocks in confirmed downtrend")

	result.Outcomes = make([]Outcome, len(qualified))
	g := new(errgroup.Group)
	g.SetLimit(p.opts.Concurrency)
	for i, stock := range qualified {
		i, stock := i, stock
		g.Go(func() error {
			result.Outcomes[i] = p.evaluate(ctx, log, stock, lotSizes, now)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range result.Outcomes {
		if o.Option != nil {
			result.Selections[o.Symbol] = []models.SelectedOption{*o.Option}
		}
	}
	log.WithFields(logrus.Fields{
		"qualified": len(qualified),
		"selected":  len(result.Selections),
	}).Info("Screening run complete")
	return result, nil
}

// evaluate picks the option for one stock.
func (p *Pipeline) evaluate(
	ctx context.Context,
	runLog logrus.FieldLogger,
	stock models.RankedStock,
	lotSizes *models.LotSizeTable,
	now time.Time,
) Outcome {
	log := runLog.WithField("symbol", stock.Symbol)
	outcome := Outcome{Symbol: stock.Symbol, Stock: stock}

	option, err := p.selectOption(ctx, log, stock.Symbol, lotSizes, now)
	if err != nil {
		outcome.Err = err
		entry := log.WithError(err).WithField("kind", models.KindOf(err))
		if errors.Is(err, models.ErrNoLiquidOption) {
			entry.Warn("No liquid option found")
		} else {
			entry.Error("Option selection failed, skipping stock")
		}
		return outcome
	}

	outcome.Option = option
	log.WithFields(logrus.Fields{
		"strike":   option.StrikePrice,
		"ltp":      option.LastTradedPrice,
		"lot_size": option.LotSize,
		"notional": option.Notional,
	}).Info("Selected option")
	return outcome
}

func (p *Pipeline) selectOption(
	ctx context.Context,
	log logrus.FieldLogger,
	symbol string,
	lotSizes *models.LotSizeTable,
	now time.Time,
) (*models.SelectedOption, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	chain, err := p.source.FetchOptionChain(ctx, symbol)
	if err != nil {
		return nil, err
	}

	selector := p.selector.WithLogger(log)
	target, err := selector.TargetStrike(chain.Rows, chain.UnderlyingPrice, now)
	if err != nil {
		return nil, err
	}

	lotSize, err := lotSizes.Lookup(symbol, util.MonthKey(now))
	if err != nil {
		return nil, err
	}

	option, ok := selector.PickBestRow(chain.Rows, target, lotSize)
	if !ok {
		return nil, fmt.Errorf("%w: %s near strike %.2f", models.ErrNoLiquidOption, symbol, target)
	}
	return option, nil
}
