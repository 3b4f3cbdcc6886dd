package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/sorabase/catalog"
	"github.com/sorabase/catalog/internal/domain"
	"github.com/sorabase/catalog/internal/transform"
)

var tracer = otel.Tracer("orchestrator")

// RuleKey addresses the static (domain, platform) -> rule id table.
// An unknown pair is a configuration error, never retried.
type RuleKey struct {
	Domain   domain.Domain
	Platform string
}

// Payload paths probed when a raw record does not carry its platform id
// or source url directly. The record's own stored fields always win.
var (
	platformIDPaths = []string{"id", "appid", "titleId", "seriesId", "productId", "contentId"}
	sourceURLPaths  = []string{"url", "link", "webUrl", "sourceUrl"}
)

// OrchestratorUsecase drives claimed raw records through transform,
// identity resolution, and the audit trail. Multiple instances may run
// against the same store; the atomic claim is the only coordination
// point between them.
type OrchestratorUsecase struct {
	raw       RawRecordStore
	attempts  AttemptStore
	registry  RuleSource
	resolver  *ResolverUsecase
	signal    SignalPublisher
	conf      domain.Config
	ruleTable map[RuleKey]string
	owner     string
}

func NewOrchestratorUsecase(
	raw RawRecordStore,
	attempts AttemptStore,
	registry RuleSource,
	resolver *ResolverUsecase,
	signal SignalPublisher,
	conf domain.Config,
	ruleTable map[RuleKey]string,
) *OrchestratorUsecase {
	conf.Defaults()
	return &OrchestratorUsecase{
		raw:       raw,
		attempts:  attempts,
		registry:  registry,
		resolver:  resolver,
		signal:    signal,
		conf:      conf,
		ruleTable: ruleTable,
		owner:     conf.NodeName,
	}
}

// ProcessBatch claims up to n unprocessed records and runs each through
// the pipeline, isolating failures per record. Returns the number of
// records that resolved into the catalog (duplicates included).
//
// When AbortOnError is set the batch stops at the first unexpected
// failure instead. That mode is deprecated; it exists only for parity
// with older deployments and should not be enabled in new ones.
func (o *OrchestratorUsecase) ProcessBatch(ctx context.Context, n int) (int, error) {
	ctx, span := tracer.Start(ctx, "Orchestrator.ProcessBatch")
	defer span.End()

	records, err := o.raw.ClaimBatch(ctx, n, o.owner, o.conf.LeaseTTL)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	seen := map[string]string{}
	success := 0
	for _, rec := range records {
		attempt := o.processOne(ctx, rec, seen)

		if err := o.attempts.Create(ctx, attempt); err != nil {
			span.RecordError(errors.Wrap(err, "audit write failed"))
			slog.Error("audit write failed",
				slog.String("rawRecord", rec.ID),
				slog.String("error", err.Error()),
				slog.String("module", "orchestrator"),
			)
		}
		if err := o.raw.MarkProcessed(ctx, []string{rec.ID}, time.Now()); err != nil {
			span.RecordError(errors.Wrap(err, "processed flip failed"))
			return success, err
		}

		if attempt.Status == domain.AttemptFailed {
			if o.conf.AbortOnError {
				return success, fmt.Errorf("batch aborted on record %s: %s", rec.ID, deref(attempt.Error))
			}
			continue
		}
		success++
	}

	o.signalBatch(ctx, success)
	return success, nil
}

// ProcessBatchOptimized runs the same algorithm but bounds memory and
// round-trips over large batches: audit rows and processed flips are
// flushed in bulk every FlushEvery records instead of per record.
func (o *OrchestratorUsecase) ProcessBatchOptimized(ctx context.Context, n int) (int, error) {
	ctx, span := tracer.Start(ctx, "Orchestrator.ProcessBatchOptimized")
	defer span.End()

	records, err := o.raw.ClaimBatch(ctx, n, o.owner, o.conf.LeaseTTL)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	seen := map[string]string{}
	success := 0
	pendingAttempts := make([]domain.TransformAttempt, 0, o.conf.FlushEvery)
	pendingIDs := make([]string, 0, o.conf.FlushEvery)

	flush := func() error {
		if err := o.attempts.CreateBulk(ctx, pendingAttempts); err != nil {
			return err
		}
		if err := o.raw.MarkProcessed(ctx, pendingIDs, time.Now()); err != nil {
			return err
		}
		pendingAttempts = pendingAttempts[:0]
		pendingIDs = pendingIDs[:0]
		return nil
	}

	for _, rec := range records {
		attempt := o.processOne(ctx, rec, seen)

		pendingAttempts = append(pendingAttempts, attempt)
		pendingIDs = append(pendingIDs, rec.ID)
		if attempt.Status != domain.AttemptFailed {
			success++
		}

		if len(pendingIDs) >= o.conf.FlushEvery {
			if err := flush(); err != nil {
				span.RecordError(err)
				return success, err
			}
		}
	}
	if err := flush(); err != nil {
		span.RecordError(err)
		return success, err
	}

	o.signalBatch(ctx, success)
	return success, nil
}

// ProcessInParallel spins up a fixed pool of workers, each looping
// ProcessBatch until the item budget is spent or the buffer runs dry.
// Workers rely entirely on the atomic claim to stay disjoint; they do
// not otherwise coordinate. Returns the aggregate success count.
func (o *OrchestratorUsecase) ProcessInParallel(ctx context.Context, totalItems, batchSize, workerCount int) (int, error) {
	ctx, span := tracer.Start(ctx, "Orchestrator.ProcessInParallel")
	defer span.End()

	if batchSize <= 0 || workerCount <= 0 {
		return 0, domain.ConfigurationError{Subject: "parallel processing", Reason: "batchSize and workerCount must be positive"}
	}

	var remaining atomic.Int64
	remaining.Store(int64(totalItems))

	type result struct {
		count int
		err   error
	}
	results := make(chan result, workerCount)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			total := 0
			for {
				quota := remaining.Add(int64(-batchSize))
				n := batchSize
				if quota < 0 {
					n = batchSize + int(quota)
					if n <= 0 {
						break
					}
				}

				count, err := o.ProcessBatch(ctx, n)
				total += count
				if err != nil {
					results <- result{count: total, err: err}
					return
				}
				if count == 0 {
					break
				}
			}
			results <- result{count: total}
		}(i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	aggregate := 0
	var firstErr error
	for res := range results {
		aggregate += res.count
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
	}
	return aggregate, firstErr
}

// processOne runs the full pipeline for a single claimed record and
// returns its audit row. All failure modes collapse into a FAILED
// attempt with truncated error text; nothing escapes except through
// the returned attempt.
func (o *OrchestratorUsecase) processOne(ctx context.Context, rec domain.RawRecord, seen map[string]string) (attempt domain.TransformAttempt) {
	started := time.Now()
	attempt = domain.TransformAttempt{
		RawRecordID: rec.ID,
		Platform:    rec.Platform,
		Domain:      rec.Domain,
		StartedAt:   started,
	}
	fail := func(err error) {
		msg := truncate(err.Error(), o.conf.ErrorTruncate)
		attempt.Status = domain.AttemptFailed
		attempt.Error = &msg
		attempt.FinishedAt = time.Now()
		slog.Warn("record processing failed",
			slog.String("rawRecord", rec.ID),
			slog.String("platform", rec.Platform),
			slog.String("error", msg),
			slog.String("module", "orchestrator"),
		)
	}

	defer func() {
		if r := recover(); r != nil {
			fail(domain.TransformError{RuleID: attempt.RuleID, Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	ruleID, ok := o.ruleTable[RuleKey{Domain: rec.Domain, Platform: rec.Platform}]
	if !ok {
		fail(domain.ConfigurationError{
			Subject: "rule table",
			Reason:  fmt.Sprintf("no rule for (%s, %s)", rec.Domain, rec.Platform),
		})
		return attempt
	}
	attempt.RuleID = ruleID

	rule, err := o.registry.Load(ruleID)
	if err != nil {
		fail(err)
		return attempt
	}

	master, platformDoc, domainDoc := transform.Transform(catalog.Payload(rec.Payload), rule)

	platformID := rec.PlatformID
	if platformID == "" {
		platformID = probePayload(rec.Payload, platformIDPaths)
	}
	url := rec.URL
	if url == "" {
		url = probePayload(rec.Payload, sourceURLPaths)
	}

	input, err := o.resolver.BuildCandidate(rec.Domain, master, platformDoc, domainDoc, platformID, url, rule)
	if err != nil {
		fail(err)
		return attempt
	}

	// In-batch duplicate suppression: when two claimed records resolve to
	// the same identity, the first one wins and later ones are recorded
	// as duplicates without re-running the merge.
	key := batchIdentity(rec, input)
	if priorID, dup := seen[key]; dup {
		attempt.Status = domain.AttemptSuccessDuplicate
		attempt.WorkID = &priorID
		attempt.FinishedAt = time.Now()
		return attempt
	}

	workID, merged, err := o.resolver.Resolve(ctx, input)
	if err != nil {
		fail(err)
		return attempt
	}
	seen[key] = workID

	attempt.Status = domain.AttemptSuccess
	attempt.WorkID = &workID
	attempt.FinishedAt = time.Now()

	slog.Info("record resolved",
		slog.String("rawRecord", rec.ID),
		slog.String("work", workID),
		slog.Bool("merged", merged),
		slog.String("module", "orchestrator"),
	)
	return attempt
}

func (o *OrchestratorUsecase) signalBatch(ctx context.Context, success int) {
	if o.signal == nil {
		return
	}
	err := o.signal.Publish(ctx, catalog.Event{
		Type:      catalog.EventBatchCompleted,
		Processed: success,
		Timestamp: time.Now(),
	})
	if err != nil {
		slog.Warn("signal publish failed",
			slog.String("error", err.Error()),
			slog.String("module", "orchestrator"),
		)
	}
}

// batchIdentity keys the in-batch dedup map. Domains with a merge key
// dedup on (domain, key, normalized title); domains that never merge
// cannot produce in-batch duplicates, so each record keys on itself.
func batchIdentity(rec domain.RawRecord, input domain.ResolveInput) string {
	mergeKey := input.Extension.MergeKey()
	if input.Extension.MergeKeyColumn() == "" || mergeKey == "" {
		return "rec:" + rec.ID
	}
	return strings.Join([]string{string(input.Domain), mergeKey, input.NormalizedTitle}, "|")
}

// probePayload returns the first non-empty string among the given
// top-level payload keys.
func probePayload(payload map[string]any, paths []string) string {
	for _, path := range paths {
		if v, ok := payload[path]; ok {
			switch s := v.(type) {
			case string:
				if s != "" {
					return s
				}
			case float64:
				return fmt.Sprintf("%.0f", s)
			case int:
				return fmt.Sprintf("%d", s)
			case int64:
				return fmt.Sprintf("%d", s)
			}
		}
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
