// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package collection_routers

import (
	"github.com/gin-gonic/gin"

	datasetApi "github.com/rapidaai/voicecollect/api/dataset-api"
	healthCheckApi "github.com/rapidaai/voicecollect/api/health-check-api"
	recordingApi "github.com/rapidaai/voicecollect/api/recording-api"
	"github.com/rapidaai/voicecollect/config"
	"github.com/rapidaai/voicecollect/pkg/commons"
	"github.com/rapidaai/voicecollect/pkg/connectors"
)

func RecordingApiRoute(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, database connectors.DatabaseConnector) error {
	recApi, err := recordingApi.NewRecordingApi(cfg, logger, database)
	if err != nil {
		return err
	}
	apiv1 := engine.Group("v1")
	{
		apiv1.POST("/recordings", recApi.CreateRecording)
		apiv1.GET("/recordings", recApi.ListRecordings)
		apiv1.GET("/recordings/:id", recApi.GetRecording)
		apiv1.PUT("/recordings/:id/validate", recApi.ValidateRecording)
		apiv1.DELETE("/recordings/:id", recApi.DeleteRecording)
		apiv1.GET("/audio/:id", recApi.StreamAudio)
		apiv1.POST("/texts", recApi.CreatePrompt)
		apiv1.GET("/texts/:id", recApi.GetPrompt)
	}
	return nil
}

func DatasetApiRoute(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, database connectors.DatabaseConnector) {
	dsApi := datasetApi.NewDatasetApi(cfg, logger, database)
	apiv1 := engine.Group("v1/datasets")
	{
		apiv1.POST("/export", dsApi.CreateExport)
		apiv1.GET("/", dsApi.ListExports)
		apiv1.GET("/:id", dsApi.GetExport)
		apiv1.DELETE("/:id", dsApi.DeleteExport)
	}
}

func HealthCheckRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, database connectors.DatabaseConnector) {
	logger.Info("Internal HealthCheckRoutes and Connectors added to engine.")
	apiv1 := engine.Group("")
	hcApi := healthCheckApi.New(cfg, logger, database)
	{
		apiv1.GET("/readiness/", hcApi.Readiness)
		apiv1.GET("/healthz/", hcApi.Healthz)
	}
}
