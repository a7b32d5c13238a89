package api

import (
	"errors"
	"time"

	models "QuantForge/internal/domain/models"
	imetrics "QuantForge/internal/service/metrics"
	"QuantForge/internal/service/session"
	"QuantForge/internal/services/registry"
	"QuantForge/internal/usecase"
	xhttp "QuantForge/pkg/http"
	xlogger "QuantForge/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ModelsHandler exposes training, prediction and registry management.
type ModelsHandler struct {
	logger *xlogger.Logger
	uc     *usecase.ModelUseCase
}

func NewModelsHandler(logger *xlogger.Logger, uc *usecase.ModelUseCase) *ModelsHandler {
	return &ModelsHandler{logger: logger, uc: uc}
}

func (h *ModelsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/models")
	g.POST("/train", h.Train)
	g.POST("/predict", h.Predict)
	g.GET("", h.List)
	g.GET("/best", h.Best)
	g.GET("/usage", h.Usage)
	g.POST("/retain", h.Retain)
	g.POST("/export", h.Export)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Delete)
}

func (h *ModelsHandler) Train(c echo.Context) error {
	start := time.Now()
	req := &models.TrainRequestBody{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Train(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "session not found")
		}
		imetrics.APIErrors.WithLabelValues("models_train").Inc()
		h.logger.Error("train error", xlogger.String("name", req.Name), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	imetrics.APILatency.WithLabelValues("models_train").Observe(time.Since(start).Seconds())
	return xhttp.CreatedResponse(c, res)
}

func (h *ModelsHandler) Predict(c echo.Context) error {
	start := time.Now()
	req := &models.PredictRequestBody{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.uc.Predict(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "model not found")
		}
		if errors.Is(err, session.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "session not found")
		}
		imetrics.APIErrors.WithLabelValues("models_predict").Inc()
		h.logger.Error("predict error", xlogger.String("model_id", req.ModelID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	imetrics.APILatency.WithLabelValues("models_predict").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, res)
}

func (h *ModelsHandler) List(c echo.Context) error {
	recs := h.uc.List(c.Request().Context())
	return xhttp.ListResponse(c, recs, int64(len(recs)))
}

func (h *ModelsHandler) Get(c echo.Context) error {
	req := &models.ModelIDRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rec, err := h.uc.Get(c.Request().Context(), req.ID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return xhttp.NotFoundResponse(c, "model not found")
		}
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *ModelsHandler) Delete(c echo.Context) error {
	req := &models.ModelIDRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ok, err := h.uc.Delete(c.Request().Context(), req.ID)
	if err != nil {
		h.logger.Error("delete model error", xlogger.String("model_id", req.ID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if !ok {
		return xhttp.NotFoundResponse(c, "model not found")
	}
	return xhttp.NoContentResponse(c)
}

func (h *ModelsHandler) Best(c echo.Context) error {
	req := &models.BestModelRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res := h.uc.Best(c.Request().Context(), req.Metric, req.TaskType)
	if res == nil {
		return xhttp.NotFoundResponse(c, "no model matches")
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ModelsHandler) Retain(c echo.Context) error {
	req := &models.RetainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	removed, err := h.uc.Retain(c.Request().Context(), req.Keep)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]int{"removed": removed, "kept": req.Keep})
}

func (h *ModelsHandler) Usage(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.uc.Usage(c.Request().Context()))
}

func (h *ModelsHandler) Export(c echo.Context) error {
	path, err := h.uc.ExportSummary(c.Request().Context())
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"path": path})
}
