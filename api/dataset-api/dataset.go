// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package dataset_api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rapidaai/voicecollect/config"
	internal_services "github.com/rapidaai/voicecollect/internal/services"
	"github.com/rapidaai/voicecollect/pkg/commons"
	"github.com/rapidaai/voicecollect/pkg/connectors"
)

type datasetApi struct {
	cfg     *config.AppConfig
	logger  commons.Logger
	exports internal_services.ExportService
}

// DatasetApi serves dataset export management routes.
type DatasetApi interface {
	CreateExport(c *gin.Context)
	ListExports(c *gin.Context)
	GetExport(c *gin.Context)
	DeleteExport(c *gin.Context)
}

// NewDatasetApi wires the export endpoints over the export engine.
func NewDatasetApi(cfg *config.AppConfig, logger commons.Logger, database connectors.DatabaseConnector) DatasetApi {
	recordings := internal_services.NewRecordingService(logger, database, cfg.StorageConfig.DataDir)
	return &datasetApi{
		cfg:    cfg,
		logger: logger,
		exports: internal_services.NewExportService(logger, database, recordings,
			cfg.StorageConfig.DataDir, cfg.StorageConfig.ExportsDir),
	}
}

type createExportRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	TrainRatio    float64  `json:"trainRatio" binding:"required"`
	DevRatio      float64  `json:"devRatio"`
	TestRatio     float64  `json:"testRatio"`
	SplitStrategy string   `json:"splitStrategy"`
	MinDuration   *float64 `json:"minDuration"`
	MaxDuration   *float64 `json:"maxDuration"`
	ValidatedOnly bool     `json:"validatedOnly"`
}

// CreateExport persists and runs an export to completion within the
// request. A request arriving while another run is in flight is rejected
// before anything is written.
func (api *datasetApi) CreateExport(c *gin.Context) {
	var req createExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, commons.NewErrorResponse("bad_request", err.Error()))
		return
	}

	export, err := api.exports.CreateAndExecute(c.Request.Context(), internal_services.ExportRequest{
		Name:          req.Name,
		Description:   req.Description,
		TrainRatio:    req.TrainRatio,
		DevRatio:      req.DevRatio,
		TestRatio:     req.TestRatio,
		SplitStrategy: req.SplitStrategy,
		MinDuration:   req.MinDuration,
		MaxDuration:   req.MaxDuration,
		ValidatedOnly: req.ValidatedOnly,
	})
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commons.NewSuccessResponse(export))
}

func (api *datasetApi) ListExports(c *gin.Context) {
	exports, err := api.exports.List(c.Request.Context())
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, commons.NewSuccessResponse(exports))
}

func (api *datasetApi) GetExport(c *gin.Context) {
	id, ok := api.pathId(c)
	if !ok {
		return
	}
	export, err := api.exports.Get(c.Request.Context(), id)
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, commons.NewSuccessResponse(export))
}

func (api *datasetApi) DeleteExport(c *gin.Context) {
	id, ok := api.pathId(c)
	if !ok {
		return
	}
	if err := api.exports.Delete(c.Request.Context(), id); err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, commons.NewSuccessResponse(nil))
}

func (api *datasetApi) pathId(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, commons.NewErrorResponse("bad_request", "id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (api *datasetApi) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, internal_services.ErrNotFound):
		c.JSON(http.StatusNotFound, commons.NewErrorResponse("not_found", err.Error()))
	case errors.Is(err, internal_services.ErrExportInProgress):
		c.JSON(http.StatusConflict, commons.NewErrorResponse("export_in_progress", err.Error()))
	case errors.Is(err, internal_services.ErrInsufficientData):
		c.JSON(http.StatusUnprocessableEntity, commons.NewErrorResponse("insufficient_data", err.Error()))
	case errors.Is(err, internal_services.ErrInvalidRatios):
		c.JSON(http.StatusBadRequest, commons.NewErrorResponse("invalid_ratios", err.Error()))
	case errors.Is(err, internal_services.ErrPartialWrite):
		c.JSON(http.StatusInternalServerError, commons.NewErrorResponse("partial_write", err.Error()))
	default:
		api.logger.Errorw("dataset api failure", "error", err.Error())
		c.JSON(http.StatusInternalServerError, commons.NewErrorResponse("internal", err.Error()))
	}
}
