package api

import (
	"context"
	"time"

	domrepo "QuantForge/internal/domain/repository"
	imetrics "QuantForge/internal/service/metrics"
	xhttp "QuantForge/pkg/http"

	"github.com/labstack/echo/v4"
)

// Router aggregates all API handlers behind one route registrar.
type Router struct {
	datasets *DatasetsHandler
	market   *MarketHandler
	models   *ModelsHandler
	reports  *ReportsHandler
	archive  domrepo.CandleArchive
}

func NewRouter(d *DatasetsHandler, m *MarketHandler, mo *ModelsHandler, r *ReportsHandler, archive domrepo.CandleArchive) *Router {
	imetrics.Register()
	return &Router{datasets: d, market: m, models: mo, reports: r, archive: archive}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	r.datasets.RegisterRoutes(e)
	r.market.RegisterRoutes(e)
	r.models.RegisterRoutes(e)
	r.reports.RegisterRoutes(e)
	e.GET("/healthz", r.Health)
}

func (r *Router) Health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if r.archive != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := r.archive.Health(ctx); err != nil {
			status["archive"] = "unreachable"
		} else {
			status["archive"] = "ok"
		}
	}
	return xhttp.SuccessResponse(c, status)
}
