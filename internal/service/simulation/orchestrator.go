package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"credit-sim-worker/internal/pkg/config"
	"credit-sim-worker/internal/pkg/consts"
	"credit-sim-worker/internal/pkg/log_messages"
	"credit-sim-worker/internal/pkg/logger"
	"credit-sim-worker/internal/pkg/policy"
	"credit-sim-worker/internal/pkg/store/models"
	"credit-sim-worker/internal/service/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SkippedLoan reports one loan dropped from a batch and why.
type SkippedLoan struct {
	LoanID     int64  `json:"loan_id"`
	ErrorClass string `json:"error_class"`
	Reason     string `json:"reason"`
}

// BatchSummary is the outcome report of one batch run. It is returned
// to the caller and published on the notification topic.
type BatchSummary struct {
	BatchID        string        `json:"batch_id"`
	StartedAt      time.Time     `json:"started_at"`
	CompletedAt    time.Time     `json:"completed_at"`
	LoansSimulated int           `json:"loans_simulated"`
	LoansSkipped   int           `json:"loans_skipped"`
	FactsWritten   int           `json:"facts_written"`
	Skipped        []SkippedLoan `json:"skipped,omitempty"`
}

type loanResult struct {
	loanID int64
	facts  []models.MonthlyFactRecord
	err    error
}

// Orchestrator runs simulation batches: fan out loans to workers,
// collect per-loan fact slices, and bulk-write them in chunks.
type Orchestrator struct {
	cfg       config.SimulationConfig
	model     *TransitionModel
	portfolio interfaces.LoanPortfolioRepoInterface
	macro     interfaces.MacroTimelineRepoInterface
	facts     interfaces.FactStoreInterface
	lock      interfaces.BatchLockInterface
	publisher interfaces.PubSubPublisherInterface
	topic     string
}

func NewOrchestrator(
	cfg config.SimulationConfig,
	pol *policy.CollectionsPolicy,
	portfolio interfaces.LoanPortfolioRepoInterface,
	macro interfaces.MacroTimelineRepoInterface,
	facts interfaces.FactStoreInterface,
	lock interfaces.BatchLockInterface,
	publisher interfaces.PubSubPublisherInterface,
	topic string,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		model:     NewTransitionModel(pol),
		portfolio: portfolio,
		macro:     macro,
		facts:     facts,
		lock:      lock,
		publisher: publisher,
		topic:     topic,
	}
}

// RunBatch simulates the whole portfolio under one batch id. An empty
// batchID gets a fresh UUID. The batch id doubles as the trace id on
// every log line of the run.
func (o *Orchestrator) RunBatch(ctx context.Context, batchID string) (*BatchSummary, error) {
	if batchID == "" {
		batchID = uuid.NewString()
	}
	ctx = logger.WithTraceID(ctx, batchID)

	if o.cfg.WorkerCount < 1 {
		return nil, &ConfigError{Reason: log_messages.NoWorkersConfigured}
	}

	acquired, err := o.lock.Acquire(ctx, batchID)
	if err != nil {
		logger.CtxError(ctx, log_messages.ErrorAcquiringBatchLock, err)
		return nil, err
	}
	if !acquired {
		logger.CtxWarn(ctx, log_messages.BatchAlreadyRunning, slog.String("batch_id", batchID))
		return nil, ErrBatchAlreadyRunning
	}
	defer func() {
		if releaseErr := o.lock.Release(context.WithoutCancel(ctx), batchID); releaseErr != nil {
			logger.CtxError(ctx, log_messages.ErrorReleasingBatchLock, releaseErr)
		}
	}()

	loans, err := o.portfolio.GetPortfolio(ctx)
	if err != nil {
		logger.CtxError(ctx, log_messages.ErrorLoadingLoanPortfolio, err)
		return nil, err
	}
	if len(loans) == 0 {
		return nil, ErrEmptyPortfolio
	}

	timeline, err := o.macro.GetTimeline(ctx)
	if err != nil {
		logger.CtxError(ctx, log_messages.ErrorLoadingMacroTimeline, err)
		return nil, err
	}
	if len(timeline) == 0 {
		return nil, ErrEmptyMacroTimeline
	}

	if err := o.facts.EnsureIndexes(ctx); err != nil {
		logger.CtxError(ctx, log_messages.ErrorEnsuringFactIndexes, err)
		return nil, err
	}

	var horizon time.Time
	hasHorizon := o.cfg.HorizonMonth != ""
	if hasHorizon {
		horizon, err = time.Parse(consts.PeriodMonthLayout, o.cfg.HorizonMonth)
		if err != nil {
			return nil, &ConfigError{Reason: fmt.Sprintf("invalid horizon_month %q", o.cfg.HorizonMonth)}
		}
	}

	logger.CtxInfo(ctx, log_messages.BatchStarted,
		slog.String("batch_id", batchID),
		slog.Int("loans", len(loans)),
		slog.Int("workers", o.cfg.WorkerCount),
	)

	summary := &BatchSummary{BatchID: batchID, StartedAt: time.Now().UTC()}

	loanChan := make(chan models.Loan, o.cfg.BufferSize)
	resultChan := make(chan loanResult, o.cfg.BufferSize)

	var workerWG sync.WaitGroup
	for i := 0; i < o.cfg.WorkerCount; i++ {
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			for loan := range loanChan {
				if ctx.Err() != nil {
					continue
				}
				facts, simErr := o.simulateLoan(loan, timeline, horizon, hasHorizon, batchID)
				resultChan <- loanResult{loanID: loan.LoanID, facts: facts, err: simErr}
			}
		}()
	}

	go func() {
		defer close(loanChan)
		for _, loan := range loans {
			select {
			case loanChan <- loan:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		workerWG.Wait()
		close(resultChan)
	}()

	buffer := make([]models.MonthlyFactRecord, 0, o.cfg.MongoBatchSize)
	var writeErr error
	flush := func() {
		if len(buffer) == 0 {
			return
		}
		applied, flushErr := o.facts.BulkUpsert(context.WithoutCancel(ctx), buffer)
		if flushErr != nil {
			logger.CtxError(ctx, log_messages.ErrorWritingFactBatch, flushErr, slog.Int("facts", len(buffer)))
			if writeErr == nil {
				writeErr = flushErr
			}
		} else {
			summary.FactsWritten += applied
		}
		buffer = buffer[:0]
	}

	for res := range resultChan {
		buffer = append(buffer, res.facts...)
		if len(buffer) >= o.cfg.MongoBatchSize {
			flush()
		}
		if res.err != nil {
			summary.LoansSkipped++
			summary.Skipped = append(summary.Skipped, SkippedLoan{
				LoanID:     res.loanID,
				ErrorClass: ClassifyError(res.err),
				Reason:     res.err.Error(),
			})
			logger.CtxWarn(ctx, log_messages.LoanSimulationSkipped,
				slog.Int64("loan_id", res.loanID),
				slog.String("error_class", ClassifyError(res.err)),
				slog.String("reason", res.err.Error()),
			)
		} else {
			summary.LoansSimulated++
		}
	}
	flush()

	sort.Slice(summary.Skipped, func(i, j int) bool {
		return summary.Skipped[i].LoanID < summary.Skipped[j].LoanID
	})
	summary.CompletedAt = time.Now().UTC()

	if writeErr != nil {
		return summary, writeErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return summary, ctxErr
	}

	logger.CtxInfo(ctx, log_messages.BatchCompleted,
		slog.String("batch_id", batchID),
		slog.Int("loans_simulated", summary.LoansSimulated),
		slog.Int("loans_skipped", summary.LoansSkipped),
		slog.Int("facts_written", summary.FactsWritten),
	)
	o.publishSummary(ctx, summary)

	return summary, nil
}

// simulateLoan walks one loan month by month from issue to payoff,
// default, horizon or end of term. On error the facts produced so far
// are returned alongside it; they are a consistent prefix and stay
// written.
func (o *Orchestrator) simulateLoan(
	loan models.Loan,
	timeline map[string]models.MacroSnapshot,
	horizon time.Time,
	hasHorizon bool,
	batchID string,
) ([]models.MonthlyFactRecord, error) {
	if loan.LoanAmount <= 0 || loan.TermMonths <= 0 || loan.InterestRate < 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf(log_messages.InvalidLoanRecord,
			fmt.Sprintf("loan %d: amount=%v rate=%v term=%d", loan.LoanID, loan.LoanAmount, loan.InterestRate, loan.TermMonths))}
	}

	schedule, err := BuildSchedule(
		decimal.NewFromFloat(loan.LoanAmount),
		decimal.NewFromFloat(loan.InterestRate),
		loan.TermMonths,
	)
	if err != nil {
		return nil, &ConfigError{Reason: err.Error()}
	}

	start := time.Date(loan.IssueDate.Year(), loan.IssueDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	state := NewLoanState(loan)
	facts := make([]models.MonthlyFactRecord, 0, loan.TermMonths)

	for mob := 1; mob <= loan.TermMonths; mob++ {
		month := start.AddDate(0, mob-1, 0)
		if hasHorizon && month.After(horizon) {
			break
		}
		periodMonth := month.Format(consts.PeriodMonthLayout)

		snapshot, ok := timeline[periodMonth]
		if !ok {
			return facts, &ConfigError{Reason: fmt.Sprintf(log_messages.MissingMacroSnapshotForMonth, periodMonth)}
		}

		rng := monthRand(o.cfg.RandomSeed, loan.LoanID, periodMonth)
		next, record, stepErr := Step(state, StepInput{
			Macro:       snapshot,
			Schedule:    schedule,
			PeriodMonth: periodMonth,
			BatchID:     batchID,
		}, o.model, rng)
		if stepErr != nil {
			return facts, stepErr
		}

		facts = append(facts, record)
		state = next
		if state.Status.Terminal() {
			break
		}
	}

	return facts, nil
}

func (o *Orchestrator) publishSummary(ctx context.Context, summary *BatchSummary) {
	if o.publisher == nil || o.topic == "" {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		logger.CtxError(ctx, log_messages.ErrorSerializingBatchSummary, err)
		return
	}
	if err := o.publisher.Publish(ctx, o.topic, payload); err != nil {
		logger.CtxError(ctx, log_messages.ErrorPublishingBatchSummary, err)
	}
}
