// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rapidaai/voicecollect/config"
	internal_entity "github.com/rapidaai/voicecollect/internal/entity"
	"github.com/rapidaai/voicecollect/pkg/commons"
	"github.com/rapidaai/voicecollect/pkg/connectors"
	collection_routers "github.com/rapidaai/voicecollect/router"
)

func main() {
	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("failed to initialize config: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("invalid application config: %v", err)
	}

	loggerOpts := []commons.LoggerOption{commons.WithLogLevel(cfg.LogLevel)}
	if cfg.LogFile != "" {
		loggerOpts = append(loggerOpts, commons.WithLogFile(cfg.LogFile))
	}
	logger, err := commons.NewApplicationLogger(loggerOpts...)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := ensureDirectories(cfg); err != nil {
		logger.Errorf("failed to prepare storage layout: %v", err)
		os.Exit(1)
	}

	database, err := connectors.NewDatabaseConnector(cfg.DatabaseConfig, logger)
	if err != nil {
		logger.Errorf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.DB(context.Background()).AutoMigrate(
		&internal_entity.PromptText{},
		&internal_entity.Recording{},
		&internal_entity.DatasetExport{},
	); err != nil {
		logger.Errorf("failed to migrate schema: %v", err)
		os.Exit(1)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	collection_routers.HealthCheckRoutes(cfg, engine, logger, database)
	if err := collection_routers.RecordingApiRoute(cfg, engine, logger, database); err != nil {
		logger.Errorf("failed to wire recording routes: %v", err)
		os.Exit(1)
	}
	collection_routers.DatasetApiRoute(cfg, engine, logger, database)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: engine,
	}

	go func() {
		logger.Infof("%s %s listening on %s", cfg.Name, cfg.Version, server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("server error: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("forced shutdown: %v", err)
	}
}

func ensureDirectories(cfg *config.AppConfig) error {
	for _, dir := range []string{
		cfg.StorageConfig.DataDir,
		cfg.StorageConfig.RecordingsDir,
		cfg.StorageConfig.ExportsDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
