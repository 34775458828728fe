// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package healthcheck_api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rapidaai/voicecollect/config"
	"github.com/rapidaai/voicecollect/pkg/commons"
	"github.com/rapidaai/voicecollect/pkg/connectors"
)

type healthCheckApi struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	database connectors.DatabaseConnector
}

// HealthCheckApi serves liveness and readiness probes.
type HealthCheckApi interface {
	Healthz(c *gin.Context)
	Readiness(c *gin.Context)
}

func New(cfg *config.AppConfig, logger commons.Logger, database connectors.DatabaseConnector) HealthCheckApi {
	return &healthCheckApi{cfg: cfg, logger: logger, database: database}
}

func (api *healthCheckApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": api.cfg.Name,
		"version": api.cfg.Version,
	})
}

func (api *healthCheckApi) Readiness(c *gin.Context) {
	if err := api.database.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
