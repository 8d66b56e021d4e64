package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	sharedApplication "github.com/cadencebilling/cadence/internal/shared/application"
	"github.com/cadencebilling/cadence/internal/shared/domain"
	"github.com/cadencebilling/cadence/internal/shared/infrastructure/outbox"
	"github.com/cadencebilling/cadence/internal/subscriptions/domain/subscription"
	"github.com/google/uuid"
)

// DefaultBatchSize bounds how many subscriptions a single run loads.
const DefaultBatchSize = 500

// DefaultWorkers is the number of concurrent billing workers per run.
const DefaultWorkers = 4

// BillingProcessorConfig configures the batch billing runs.
type BillingProcessorConfig struct {
	BatchSize int
	Workers   int
}

// DefaultBillingProcessorConfig returns the default configuration.
func DefaultBillingProcessorConfig() BillingProcessorConfig {
	return BillingProcessorConfig{
		BatchSize: DefaultBatchSize,
		Workers:   DefaultWorkers,
	}
}

// BillingRunResult aggregates the outcome of one batch run. Skipped counts
// subscriptions another worker or an overlapping run already handled.
type BillingRunResult struct {
	Succeeded int
	Failed    int
	Skipped   int
	Message   string
}

// BillingOutcome is the result of billing a single subscription.
type BillingOutcome struct {
	Charged        bool
	TransactionID  string
	DeclineCode    string
	DeclineMessage string
}

// BillingProcessor runs the scheduled billing, past-due retry, and
// grace-expiry sweeps. Each run is a bounded batch; one subscription's
// failure never aborts the batch.
type BillingProcessor struct {
	subRepo    subscription.Repository
	gateway    subscription.BillingGateway
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	config     BillingProcessorConfig
	logger     *slog.Logger
}

// NewBillingProcessor creates a new BillingProcessor.
func NewBillingProcessor(
	subRepo subscription.Repository,
	gateway subscription.BillingGateway,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	config BillingProcessorConfig,
	logger *slog.Logger,
) *BillingProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BillingProcessor{
		subRepo:    subRepo,
		gateway:    gateway,
		outboxRepo: outboxRepo,
		uow:        uow,
		config:     config,
		logger:     logger,
	}
}

// ProcessScheduledBilling charges every ACTIVE subscription whose next
// billing date has been reached.
func (p *BillingProcessor) ProcessScheduledBilling(ctx context.Context) (*BillingRunResult, error) {
	due, err := p.subRepo.FindDueForBilling(ctx, time.Now().UTC(), p.config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("loading due subscriptions: %w", err)
	}

	result := p.runBatch(ctx, due, func(ctx context.Context, id uuid.UUID) (bool, error) {
		out, err := p.ProcessSingleSubscriptionBilling(ctx, id, false)
		if err != nil {
			return false, err
		}
		return out.Charged, nil
	})
	result.Message = fmt.Sprintf("scheduled billing: %d due, %d succeeded, %d failed, %d skipped",
		len(due), result.Succeeded, result.Failed, result.Skipped)

	p.logger.Info("scheduled billing run finished",
		slog.Int("due", len(due)),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

// ProcessFailedBillingRetries re-attempts billing for SUSPENDED
// subscriptions still inside their grace period.
func (p *BillingProcessor) ProcessFailedBillingRetries(ctx context.Context) (*BillingRunResult, error) {
	suspended, err := p.subRepo.FindSuspendedInGrace(ctx, time.Now().UTC(), p.config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("loading suspended subscriptions: %w", err)
	}

	result := p.runBatch(ctx, suspended, func(ctx context.Context, id uuid.UUID) (bool, error) {
		out, err := p.ProcessSingleSubscriptionBilling(ctx, id, true)
		if err != nil {
			return false, err
		}
		return out.Charged, nil
	})
	result.Message = fmt.Sprintf("billing retries: %d in grace, %d succeeded, %d failed, %d skipped",
		len(suspended), result.Succeeded, result.Failed, result.Skipped)

	p.logger.Info("billing retry run finished",
		slog.Int("in_grace", len(suspended)),
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

// ProcessExpiredGracePeriods cancels SUSPENDED subscriptions whose grace
// period elapsed without a successful charge.
func (p *BillingProcessor) ProcessExpiredGracePeriods(ctx context.Context) (*BillingRunResult, error) {
	expired, err := p.subRepo.FindGraceExpired(ctx, time.Now().UTC(), p.config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("loading grace-expired subscriptions: %w", err)
	}

	result := p.runBatch(ctx, expired, p.cancelExpired)
	result.Message = fmt.Sprintf("grace expiry sweep: %d expired, %d cancelled, %d failed, %d skipped",
		len(expired), result.Succeeded, result.Failed, result.Skipped)

	p.logger.Info("grace expiry sweep finished",
		slog.Int("expired", len(expired)),
		slog.Int("cancelled", result.Succeeded),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

// ProcessSingleSubscriptionBilling charges one subscription. The gateway
// call happens outside any transaction; the resulting state change and its
// events are committed together afterwards. A subscription whose billing
// date has not been reached is rejected with ErrBillingNotDue, which makes
// re-processing after a prior run advanced the date a harmless no-op.
func (p *BillingProcessor) ProcessSingleSubscriptionBilling(ctx context.Context, id uuid.UUID, isRetry bool) (*BillingOutcome, error) {
	sub, err := p.subRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if isRetry {
		if sub.Status() != subscription.StatusSuspended {
			return nil, subscription.ErrBillingNotAllowed
		}
	} else if !sub.NeedsBilling() {
		return nil, subscription.ErrBillingNotDue
	}

	amount := sub.CalculateBillingAmount()

	charge, err := p.gateway.ProcessBilling(ctx, sub.ID(), amount, sub.PaymentMethodID(), isRetry)
	if err != nil {
		// Transport-level gateway errors count as a failed attempt: the
		// charge did not happen and the retry path owns the recovery.
		charge = &subscription.ChargeResult{
			Success:        false,
			DeclineCode:    "gateway_error",
			DeclineMessage: err.Error(),
		}
	}

	if charge.Success {
		if err := sub.ProcessSuccessfulBilling(charge.TransactionID); err != nil {
			return nil, err
		}
	} else {
		reason := charge.DeclineMessage
		if reason == "" {
			reason = charge.DeclineCode
		}
		if err := sub.ProcessFailedBilling(reason); err != nil {
			return nil, err
		}
	}

	if err := p.persistWithEvents(ctx, sub); err != nil {
		return nil, err
	}

	outcome := &BillingOutcome{
		Charged:        charge.Success,
		TransactionID:  charge.TransactionID,
		DeclineCode:    charge.DeclineCode,
		DeclineMessage: charge.DeclineMessage,
	}
	if !charge.Success {
		p.logger.Warn("billing attempt failed",
			slog.String("subscription_id", sub.ID().String()),
			slog.String("decline_code", charge.DeclineCode),
			slog.Int("failed_attempts", sub.FailedPaymentAttempts()),
			slog.String("status", string(sub.Status())))
	}
	return outcome, nil
}

// cancelExpired cancels one grace-expired subscription.
func (p *BillingProcessor) cancelExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	sub, err := p.subRepo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}

	if !sub.IsGraceExpired(time.Now().UTC()) {
		// Another worker cured or cancelled it since the query ran.
		return false, domain.ErrConcurrentModification
	}

	if err := sub.Cancel("grace period expired"); err != nil {
		return false, err
	}

	if err := p.persistWithEvents(ctx, sub); err != nil {
		return false, err
	}
	return true, nil
}

// persistWithEvents saves the aggregate and its pending events in one
// transaction.
func (p *BillingProcessor) persistWithEvents(ctx context.Context, sub *subscription.Subscription) error {
	return sharedApplication.WithUnitOfWork(ctx, p.uow, func(txCtx context.Context) error {
		if err := p.subRepo.Save(txCtx, sub); err != nil {
			return err
		}

		events := sub.DomainEvents()
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata())

		msgs, err := outbox.FromDomainEvents(events)
		if err != nil {
			return err
		}
		return p.outboxRepo.SaveBatch(txCtx, msgs)
	})
}

type batchFunc func(ctx context.Context, id uuid.UUID) (bool, error)

// runBatch fans subscription ids out to a bounded worker pool. Optimistic
// lock conflicts and not-due rejections are counted as skips; declined
// charges and processing errors as failures.
func (p *BillingProcessor) runBatch(ctx context.Context, subs []*subscription.Subscription, fn batchFunc) *BillingRunResult {
	var succeeded, failed, skipped atomic.Int64

	ids := make(chan uuid.UUID)
	var wg sync.WaitGroup

	workers := p.config.Workers
	if len(subs) < workers {
		workers = len(subs)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				ok, err := fn(ctx, id)
				switch {
				case err == nil && ok:
					succeeded.Add(1)
				case err == nil:
					failed.Add(1)
				case errors.Is(err, domain.ErrConcurrentModification) || errors.Is(err, subscription.ErrBillingNotDue):
					skipped.Add(1)
					p.logger.Debug("subscription already handled, skipping",
						slog.String("subscription_id", id.String()))
				default:
					failed.Add(1)
					p.logger.Error("subscription processing failed",
						slog.String("subscription_id", id.String()),
						slog.String("error", err.Error()))
				}
			}
		}()
	}

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			close(ids)
			wg.Wait()
			return &BillingRunResult{
				Succeeded: int(succeeded.Load()),
				Failed:    int(failed.Load()),
				Skipped:   int(skipped.Load()),
			}
		case ids <- sub.ID():
		}
	}
	close(ids)
	wg.Wait()

	return &BillingRunResult{
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
		Skipped:   int(skipped.Load()),
	}
}
