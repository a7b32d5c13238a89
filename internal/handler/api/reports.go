package api

import (
	"errors"
	"time"

	models "QuantForge/internal/domain/models"
	imetrics "QuantForge/internal/service/metrics"
	"QuantForge/internal/services/registry"
	"QuantForge/internal/usecase"
	xhttp "QuantForge/pkg/http"
	xlogger "QuantForge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ReportsHandler exposes PDF report generation.
type ReportsHandler struct {
	logger *xlogger.Logger
	uc     *usecase.ReportUseCase
}

func NewReportsHandler(logger *xlogger.Logger, uc *usecase.ReportUseCase) *ReportsHandler {
	return &ReportsHandler{logger: logger, uc: uc}
}

func (h *ReportsHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/reports", h.Generate)
}

func (h *ReportsHandler) Generate(c echo.Context) error {
	start := time.Now()
	req := &models.ReportRequestBody{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	pdf, err := h.uc.Generate(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "model not found")
		}
		imetrics.APIErrors.WithLabelValues("reports_generate").Inc()
		h.logger.Error("report error", xlogger.String("project", req.ProjectName), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	imetrics.APILatency.WithLabelValues("reports_generate").Observe(time.Since(start).Seconds())
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="report.pdf"`)
	return c.Blob(200, "application/pdf", pdf)
}
