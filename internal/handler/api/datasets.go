package api

import (
	"io"
	"time"

	models "QuantForge/internal/domain/models"
	imetrics "QuantForge/internal/service/metrics"
	"QuantForge/internal/usecase"
	xhttp "QuantForge/pkg/http"
	xlogger "QuantForge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DatasetsHandler exposes dataset acquisition and preprocessing endpoints.
type DatasetsHandler struct {
	logger *xlogger.Logger
	uc     *usecase.DatasetUseCase
}

func NewDatasetsHandler(logger *xlogger.Logger, uc *usecase.DatasetUseCase) *DatasetsHandler {
	return &DatasetsHandler{logger: logger, uc: uc}
}

func (h *DatasetsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/datasets")
	g.POST("/session", h.NewSession)
	g.POST("/fetch", h.Fetch)
	g.POST("/upload", h.Upload)
	g.GET("/analyze", h.Analyze)
	g.POST("/preprocess", h.Preprocess)
	g.GET("/export", h.Export)
}

func (h *DatasetsHandler) NewSession(c echo.Context) error {
	id := h.uc.NewSession()
	return xhttp.CreatedResponse(c, map[string]string{"session": id})
}

func (h *DatasetsHandler) Fetch(c echo.Context) error {
	start := time.Now()
	req := &models.FetchDatasetRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.uc.Fetch(c.Request().Context(), req)
	if err != nil {
		imetrics.APIErrors.WithLabelValues("datasets_fetch").Inc()
		h.logger.Error("fetch dataset error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	imetrics.APILatency.WithLabelValues("datasets_fetch").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, res)
}

func (h *DatasetsHandler) Upload(c echo.Context) error {
	session := c.QueryParam("session")

	file, err := c.FormFile("file")
	if err != nil {
		return xhttp.BadRequestResponse(c, "csv file required")
	}
	src, err := file.Open()
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	defer src.Close()

	buf, err := io.ReadAll(src)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	res, err := h.uc.Upload(c.Request().Context(), session, buf)
	if err != nil {
		h.logger.Error("upload dataset error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DatasetsHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Analyze(c.Request().Context(), req.Session)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DatasetsHandler) Preprocess(c echo.Context) error {
	start := time.Now()
	req := &models.PreprocessRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Preprocess(c.Request().Context(), req)
	if err != nil {
		imetrics.APIErrors.WithLabelValues("datasets_preprocess").Inc()
		h.logger.Error("preprocess error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	imetrics.APILatency.WithLabelValues("datasets_preprocess").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, res)
}

func (h *DatasetsHandler) Export(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	csv, err := h.uc.ExportCSV(c.Request().Context(), req.Session)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="dataset.csv"`)
	return c.Blob(200, "text/csv", csv)
}
