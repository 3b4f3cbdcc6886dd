package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/sorabase/catalog"
	"github.com/sorabase/catalog/internal/domain"
	"github.com/sorabase/catalog/internal/ratelimit"
	"github.com/sorabase/catalog/internal/usecase"
)

var tracer = otel.Tracer("crawler")

// SourceAdapter is implemented by each site-specific scraper, outside
// this core. An adapter fetches one page of its platform and maps it to
// flat raw items; everything HTML- or API-specific stays behind it.
type SourceAdapter interface {
	Platform() string
	Domain() domain.Domain
	FetchBatch(ctx context.Context) ([]catalog.RawItem, error)
}

// CrawlService runs adapters against the collector through the shared
// rate limiter. Scheduler ticks submit jobs and return immediately; the
// actual crawl executes on a small fixed pool with a bounded queue, and
// a submit against a full queue runs the job on the caller (backpressure
// instead of unbounded buffering). In-flight crawls run to completion;
// there is no cross-job cancellation.
type CrawlService struct {
	collector *usecase.CollectorUsecase
	limiter   *ratelimit.Limiter
	conf      domain.Config

	queue chan crawlJob
	wg    sync.WaitGroup
	once  sync.Once
}

type crawlJob struct {
	adapter SourceAdapter
	ctx     context.Context
}

func NewCrawlService(collector *usecase.CollectorUsecase, limiter *ratelimit.Limiter, conf domain.Config, workers, queueSize int) *CrawlService {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 8
	}
	conf.Defaults()
	s := &CrawlService{
		collector: collector,
		limiter:   limiter,
		conf:      conf,
		queue:     make(chan crawlJob, queueSize),
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for job := range s.queue {
				s.run(job.ctx, job.adapter)
			}
		}()
	}
	return s
}

// Submit queues one crawl. When the queue is full the job runs inline on
// the calling goroutine.
func (s *CrawlService) Submit(ctx context.Context, adapter SourceAdapter) {
	select {
	case s.queue <- crawlJob{adapter: adapter, ctx: ctx}:
	default:
		s.run(ctx, adapter)
	}
}

// Close drains the pool. Queued jobs still execute.
func (s *CrawlService) Close() {
	s.once.Do(func() {
		close(s.queue)
	})
	s.wg.Wait()
}

// run fetches one batch from the adapter and stages every item. The
// fetch is retried a bounded number of times with a fixed backoff; a
// persistently failing target is skipped, never fatal.
func (s *CrawlService) run(ctx context.Context, adapter SourceAdapter) {
	ctx, span := tracer.Start(ctx, "Crawl.Service.Run")
	defer span.End()

	items, err := s.fetchWithRetry(ctx, adapter)
	if err != nil {
		span.RecordError(errors.Wrap(err, "fetch failed"))
		slog.Error("crawl failed",
			slog.String("platform", adapter.Platform()),
			slog.String("error", err.Error()),
			slog.String("module", "crawler"),
		)
		return
	}

	saved := 0
	for _, item := range items {
		if _, _, err := s.collector.Save(ctx, item); err != nil {
			slog.Warn("item rejected",
				slog.String("platform", item.Platform),
				slog.String("platformId", item.PlatformID),
				slog.String("error", err.Error()),
				slog.String("module", "crawler"),
			)
			continue
		}
		saved++
	}

	slog.Info("crawl finished",
		slog.String("platform", adapter.Platform()),
		slog.Int("fetched", len(items)),
		slog.Int("saved", saved),
		slog.String("module", "crawler"),
	)
}

func (s *CrawlService) fetchWithRetry(ctx context.Context, adapter SourceAdapter) ([]catalog.RawItem, error) {
	var lastErr error
	for attempt := 0; attempt < s.conf.RetryAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(s.conf.RetryBackoff)
		}

		s.limiter.AcquirePermit()
		items, err := adapter.FetchBatch(ctx)
		if err == nil {
			return items, nil
		}
		lastErr = err
		slog.Warn("fetch attempt failed",
			slog.String("platform", adapter.Platform()),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
			slog.String("module", "crawler"),
		)
	}
	return nil, domain.ExternalServiceError{Target: adapter.Platform(), Err: lastErr}
}
