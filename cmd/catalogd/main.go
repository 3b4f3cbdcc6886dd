package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/sorabase/catalog/internal/config"
	"github.com/sorabase/catalog/internal/domain"
	"github.com/sorabase/catalog/internal/infra/database"
	"github.com/sorabase/catalog/internal/infra/database/models"
	"github.com/sorabase/catalog/internal/infra/repository"
	"github.com/sorabase/catalog/internal/present/rest"
	"github.com/sorabase/catalog/internal/ratelimit"
	"github.com/sorabase/catalog/internal/rules"
	"github.com/sorabase/catalog/internal/service"
	"github.com/sorabase/catalog/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if conf.Server.EnableTrace {
		cleanup, err := setupTracer(conf)
		if err != nil {
			slog.Error("failed to set up tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer cleanup()
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := database.MigratePostgres(db); err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, "", conf.Server.RedisDB)
	mc := database.NewMemcached(conf.Server.MemcachedAddr)

	limiter := ratelimit.New(conf.Limiter.PerSecond, conf.Limiter.PerMinute)
	registry := rules.NewRegistry(conf.Rules.Dir)
	pipelineConf := conf.Domain()

	rawRepo := repository.NewRawRecordRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)

	signal := service.NewSignalService(rdb)
	collector := usecase.NewCollectorUsecase(rawRepo)
	resolver := usecase.NewResolverUsecase(catalogRepo, models.NewExtension, signal)
	orchestrator := usecase.NewOrchestratorUsecase(
		rawRepo,
		attemptRepo,
		registry,
		resolver,
		signal,
		pipelineConf,
		parseRuleTable(conf.Rules.Table),
	)

	crawler := service.NewCrawlService(collector, limiter, pipelineConf, conf.Pipeline.CrawlWorkers, conf.Pipeline.CrawlQueue)
	defer crawler.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("catalogd"))
	}

	handler := rest.NewHandler(collector, resolver, orchestrator, limiter, signal, mc)
	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.Listen))
}

// parseRuleTable turns "domain/platform: ruleID" config entries into the
// orchestrator's static lookup table. Malformed keys are skipped loudly;
// an operator typo should not take the process down, only that pair.
func parseRuleTable(table map[string]string) map[usecase.RuleKey]string {
	out := make(map[usecase.RuleKey]string, len(table))
	for key, ruleID := range table {
		parts := strings.SplitN(key, "/", 2)
		if len(parts) != 2 {
			slog.Warn("skipping malformed rule table key", slog.String("key", key))
			continue
		}
		d, ok := domain.ParseDomain(parts[0])
		if !ok {
			slog.Warn("skipping rule table key with unknown domain", slog.String("key", key))
			continue
		}
		out[usecase.RuleKey{Domain: d, Platform: parts[1]}] = ruleID
	}
	return out
}

func setupTracer(conf config.Config) (func(), error) {
	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpoint(conf.Server.TraceEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	return func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			slog.Warn("tracer shutdown failed", slog.String("error", err.Error()))
		}
	}, nil
}
