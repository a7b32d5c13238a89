package api

import (
	"errors"
	"time"

	models "QuantForge/internal/domain/models"
	domrepo "QuantForge/internal/domain/repository"
	"QuantForge/internal/service/marketdata"
	imetrics "QuantForge/internal/service/metrics"
	"QuantForge/internal/usecase"
	xhttp "QuantForge/pkg/http"
	xlogger "QuantForge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketHandler exposes quote, profile, history and overview endpoints.
type MarketHandler struct {
	logger *xlogger.Logger
	uc     *usecase.MarketUseCase
}

func NewMarketHandler(logger *xlogger.Logger, uc *usecase.MarketUseCase) *MarketHandler {
	return &MarketHandler{logger: logger, uc: uc}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/market")
	g.GET("/quote", h.Quote)
	g.GET("/profile", h.Profile)
	g.GET("/history", h.History)
	g.GET("/archive", h.Archive)
	g.GET("/popular", h.Popular)
	g.GET("/summary", h.Summary)
}

func (h *MarketHandler) Quote(c echo.Context) error {
	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	q, err := h.uc.Quote(c.Request().Context(), req.Symbol)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			return xhttp.NotFoundResponse(c, "no data for symbol")
		}
		h.logger.Error("quote error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, q)
}

func (h *MarketHandler) Profile(c echo.Context) error {
	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	info, err := h.uc.Profile(c.Request().Context(), req.Symbol)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			return xhttp.NotFoundResponse(c, "no data for symbol")
		}
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, info)
}

func (h *MarketHandler) History(c echo.Context) error {
	start := time.Now()
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	bars, err := h.uc.History(c.Request().Context(), req.Symbol, req.Period, req.Interval)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			return xhttp.NotFoundResponse(c, "no data for symbol")
		}
		imetrics.APIErrors.WithLabelValues("market_history").Inc()
		h.logger.Error("history error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	imetrics.APILatency.WithLabelValues("market_history").Observe(time.Since(start).Seconds())
	return xhttp.ListResponse(c, bars, int64(len(bars)))
}

func (h *MarketHandler) Archive(c echo.Context) error {
	req := &models.ArchiveRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	var from, to time.Time
	if req.From != "" {
		from, _ = time.Parse("2006-01-02", req.From)
	}
	if req.To != "" {
		to, _ = time.Parse("2006-01-02", req.To)
	}
	bars, err := h.uc.Archive(c.Request().Context(), req.Symbol, from, to, req.Limit)
	if err != nil {
		if errors.Is(err, domrepo.ErrArchiveDisabled) {
			return xhttp.NotFoundResponse(c, "archive not configured")
		}
		h.logger.Error("archive query error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, bars, int64(len(bars)))
}

func (h *MarketHandler) Popular(c echo.Context) error {
	symbols := h.uc.Popular()
	return xhttp.ListResponse(c, symbols, int64(len(symbols)))
}

func (h *MarketHandler) Summary(c echo.Context) error {
	start := time.Now()
	res, err := h.uc.Summary(c.Request().Context())
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			return xhttp.NotFoundResponse(c, "market summary unavailable")
		}
		h.logger.Error("summary error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	imetrics.APILatency.WithLabelValues("market_summary").Observe(time.Since(start).Seconds())
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.ListResponse(c, res, int64(len(res)))
}
