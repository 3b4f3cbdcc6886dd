package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/sorabase/catalog"
	"github.com/sorabase/catalog/internal/domain"
	"github.com/sorabase/catalog/internal/present/rest/presenter"
	"github.com/sorabase/catalog/internal/ratelimit"
	"github.com/sorabase/catalog/internal/service"
	"github.com/sorabase/catalog/internal/usecase"
)

const workCacheTTL = 60 // seconds

type Handler struct {
	collector    *usecase.CollectorUsecase
	resolver     *usecase.ResolverUsecase
	orchestrator *usecase.OrchestratorUsecase
	limiter      *ratelimit.Limiter
	signal       *service.SignalService
	mc           *memcache.Client
}

func NewHandler(
	collector *usecase.CollectorUsecase,
	resolver *usecase.ResolverUsecase,
	orchestrator *usecase.OrchestratorUsecase,
	limiter *ratelimit.Limiter,
	signal *service.SignalService,
	mc *memcache.Client,
) *Handler {
	return &Handler{
		collector:    collector,
		resolver:     resolver,
		orchestrator: orchestrator,
		limiter:      limiter,
		signal:       signal,
		mc:           mc,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/ingest", h.handleIngest)
	e.POST("/api/v1/process", h.handleProcess)
	e.POST("/api/v1/process/parallel", h.handleProcessParallel)
	e.GET("/api/v1/backlog", h.handleBacklog)
	e.GET("/api/v1/works", h.handleListWorks)
	e.GET("/api/v1/works/:id", h.handleGetWork)
	e.GET("/api/v1/limiter", h.handleLimiterStats)
	e.POST("/api/v1/limiter/reset", h.handleLimiterReset)
	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleIngest(c echo.Context) error {
	ctx := c.Request().Context()

	var item catalog.RawItem
	if err := c.Bind(&item); err != nil {
		return presenter.BadRequest(c, err)
	}

	id, outcome, err := h.collector.Save(ctx, item)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return presenter.BadRequest(c, err)
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, echo.Map{
		"id":      id,
		"outcome": outcome.String(),
	})
}

type processRequest struct {
	Size      int  `json:"size"`
	Optimized bool `json:"optimized"`
}

func (h *Handler) handleProcess(c echo.Context) error {
	ctx := c.Request().Context()

	var req processRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.Size <= 0 {
		return presenter.BadRequestMessage(c, "size must be positive")
	}

	var count int
	var err error
	if req.Optimized {
		count, err = h.orchestrator.ProcessBatchOptimized(ctx, req.Size)
	} else {
		count, err = h.orchestrator.ProcessBatch(ctx, req.Size)
	}
	if err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			return presenter.BadRequest(c, err)
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, echo.Map{"successCount": count})
}

type parallelRequest struct {
	TotalItems  int `json:"totalItems"`
	BatchSize   int `json:"batchSize"`
	WorkerCount int `json:"workerCount"`
}

func (h *Handler) handleProcessParallel(c echo.Context) error {
	ctx := c.Request().Context()

	var req parallelRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	count, err := h.orchestrator.ProcessInParallel(ctx, req.TotalItems, req.BatchSize, req.WorkerCount)
	if err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			return presenter.BadRequest(c, err)
		}
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, echo.Map{"successCount": count})
}

func (h *Handler) handleBacklog(c echo.Context) error {
	count, err := h.collector.Backlog(c.Request().Context())
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"unprocessed": count})
}

func (h *Handler) handleListWorks(c echo.Context) error {
	ctx := c.Request().Context()

	var d domain.Domain
	if s := c.QueryParam("domain"); s != "" {
		parsed, ok := domain.ParseDomain(s)
		if !ok {
			return presenter.BadRequestMessage(c, "unknown domain "+s)
		}
		d = parsed
	}

	limit := 50
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 500 {
			return presenter.BadRequestMessage(c, "invalid limit")
		}
		limit = n
	}
	offset := 0
	if s := c.QueryParam("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return presenter.BadRequestMessage(c, "invalid offset")
		}
		offset = n
	}

	works, err := h.resolver.ListWorks(ctx, d, limit, offset)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"works": works})
}

type workResponse struct {
	Work     domain.Work              `json:"work"`
	Listings []domain.PlatformListing `json:"listings"`
}

func (h *Handler) handleGetWork(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	cacheKey := "work:" + id
	if h.mc != nil {
		if cached, err := h.mc.Get(cacheKey); err == nil {
			var resp workResponse
			if err := json.Unmarshal(cached.Value, &resp); err == nil {
				return presenter.OK(c, resp)
			}
		}
	}

	work, listings, err := h.resolver.GetWork(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return presenter.NotFound(c, "work not found")
	}
	if err != nil {
		return presenter.InternalError(c, err)
	}

	resp := workResponse{Work: work, Listings: listings}
	if h.mc != nil {
		if b, err := json.Marshal(resp); err == nil {
			h.mc.Set(&memcache.Item{Key: cacheKey, Value: b, Expiration: workCacheTTL})
		}
	}
	return presenter.OK(c, resp)
}

func (h *Handler) handleLimiterStats(c echo.Context) error {
	return presenter.OK(c, h.limiter.Stats())
}

func (h *Handler) handleLimiterReset(c echo.Context) error {
	h.limiter.Reset()
	return presenter.OK(c, echo.Map{"status": "ok"})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	output := make(chan catalog.Event)
	go h.signal.Subscribe(ctx, output)

	quit := make(chan struct{})

	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				quit <- struct{}{}
				return
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		case <-time.After(30 * time.Second):
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return nil
			}
		}
	}
}
