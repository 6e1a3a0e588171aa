package api

import (
	"encoding/json"
	"net/http"
	"time"

	models "StableBench/internal/domain/models"
	icache "StableBench/internal/service/cache"
	"StableBench/internal/service/ratelimit"
	"StableBench/internal/usecase"
	pkgcache "StableBench/pkg/cache"
	xhttp "StableBench/pkg/http"
	xlogger "StableBench/pkg/logger"

	"github.com/labstack/echo/v4"
)

// BenchmarkHandler exposes the benchmark read API over Echo.
type BenchmarkHandler struct {
	logger  *xlogger.Logger
	history *usecase.HistoryUseCase
	engine  *usecase.BenchmarkEngine
	cache   icache.BytesCache
	rl      *ratelimit.Limiter
}

func NewBenchmarkHandler(logger *xlogger.Logger, history *usecase.HistoryUseCase, engine *usecase.BenchmarkEngine) *BenchmarkHandler {
	return &BenchmarkHandler{logger: logger, history: history, engine: engine, rl: ratelimit.New()}
}

// SetCache enables response caching for history queries.
func (h *BenchmarkHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *BenchmarkHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/index/latest", h.Latest)
	g.GET("/index/history", h.History)
	g.GET("/index/stats", h.Stats)
	g.GET("/assets", h.Assets)
	g.GET("/assets/:symbol", h.Asset)
	g.GET("/stress", h.Stress)
	g.GET("/regime", h.Regime)
}

func (h *BenchmarkHandler) Latest(c echo.Context) error {
	tick, err := h.history.Latest(c.Request().Context())
	if err != nil {
		h.logger.Error("latest tick error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if tick == nil {
		return xhttp.NotFoundResponse(c, "no tick published yet")
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=5")
	return xhttp.SuccessResponse(c, tick)
}

func (h *BenchmarkHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":history", 5, 2) {
		return xhttp.BadRequestResponse(c, "rate limited")
	}

	params := historyParams(req)
	cacheKey := pkgcache.GenerateKeyWithParams("history",
		params.From.Format(time.RFC3339), params.To.Format(time.RFC3339), params.Limit)
	if b, ok := h.cached(cacheKey); ok {
		return c.JSONBlob(http.StatusOK, b)
	}

	rows, err := h.history.Snapshots(c.Request().Context(), params)
	if err != nil {
		h.logger.Error("history usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.store(cacheKey, xhttp.APIResponse{
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    &xhttp.ListDataResponse{Rows: rows, Total: int64(len(rows))},
	}, 30*time.Second)
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *BenchmarkHandler) Stats(c echo.Context) error {
	req := &models.StatsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.history.Stats(req.Window))
}

func (h *BenchmarkHandler) Assets(c echo.Context) error {
	tick, err := h.history.Latest(c.Request().Context())
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if tick == nil {
		return xhttp.NotFoundResponse(c, "no tick published yet")
	}
	return xhttp.SuccessResponse(c, tick.Assets)
}

func (h *BenchmarkHandler) Asset(c echo.Context) error {
	symbol := c.Param("symbol")
	tick, err := h.history.Latest(c.Request().Context())
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if tick == nil {
		return xhttp.NotFoundResponse(c, "no tick published yet")
	}
	a, ok := tick.Assets[symbol]
	if !ok {
		return xhttp.NotFoundResponse(c, "symbol not in latest tick")
	}
	return xhttp.SuccessResponse(c, a)
}

func (h *BenchmarkHandler) Stress(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.history.Stress(c.Request().Context(), historyParams(req))
	if err != nil {
		h.logger.Error("stress usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *BenchmarkHandler) Regime(c echo.Context) error {
	req := &models.RegimeHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.history.Regimes(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("regime usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// historyParams resolves the from/to range: explicit bounds win over the
// relative days parameter.
func historyParams(req *models.HistoryRequest) usecase.HistoryParams {
	p := usecase.HistoryParams{Limit: req.Limit}
	p.To = xhttp.ParseTimeDefault(req.To, time.Now())
	p.From = xhttp.ParseTimeDefault(req.From, p.To.AddDate(0, 0, -req.Days))
	// minute alignment so equivalent ranges share a cache entry
	p.From, p.To = xhttp.AlignRange(p.From, p.To, time.Minute)
	return p
}

func (h *BenchmarkHandler) cached(key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		h.logger.Warn("cache get error", xlogger.Error(err))
		return nil, false
	}
	return b, ok
}

func (h *BenchmarkHandler) store(key string, v interface{}, ttl time.Duration) {
	if h.cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := h.cache.SetBytes(key, b, ttl); err != nil {
		h.logger.Warn("cache set error", xlogger.Error(err))
	}
}
