// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package recording_api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rapidaai/voicecollect/config"
	internal_audio "github.com/rapidaai/voicecollect/internal/audio"
	internal_entity "github.com/rapidaai/voicecollect/internal/entity"
	internal_normalize "github.com/rapidaai/voicecollect/internal/normalize"
	internal_services "github.com/rapidaai/voicecollect/internal/services"
	internal_transport "github.com/rapidaai/voicecollect/internal/transport"
	"github.com/rapidaai/voicecollect/pkg/commons"
	"github.com/rapidaai/voicecollect/pkg/connectors"
)

type recordingApi struct {
	cfg        *config.AppConfig
	logger     commons.Logger
	database   connectors.DatabaseConnector
	recordings internal_services.RecordingService
	normalizer *internal_normalize.Normalizer
	codec      *internal_transport.Codec
}

// RecordingApi serves the upload boundary and recording management routes.
type RecordingApi interface {
	CreateRecording(c *gin.Context)
	ListRecordings(c *gin.Context)
	GetRecording(c *gin.Context)
	ValidateRecording(c *gin.Context)
	DeleteRecording(c *gin.Context)
	StreamAudio(c *gin.Context)
	CreatePrompt(c *gin.Context)
	GetPrompt(c *gin.Context)
}

// NewRecordingApi wires the recording endpoints over the normalization
// service and the gorm-backed store.
func NewRecordingApi(cfg *config.AppConfig, logger commons.Logger, database connectors.DatabaseConnector) (RecordingApi, error) {
	normalizer, err := internal_normalize.NewNormalizer(logger, internal_normalize.Config{
		TargetSampleRate: cfg.AudioConfig.TargetSampleRate,
		TargetChannels:   cfg.AudioConfig.TargetChannels,
		MinDuration:      cfg.AudioConfig.MinDuration,
		MaxDuration:      cfg.AudioConfig.MaxDuration,
		RecordingsDir:    cfg.StorageConfig.RecordingsDir,
	})
	if err != nil {
		return nil, err
	}
	return &recordingApi{
		cfg:        cfg,
		logger:     logger,
		database:   database,
		recordings: internal_services.NewRecordingService(logger, database, cfg.StorageConfig.DataDir),
		normalizer: normalizer,
		codec:      internal_transport.NewCodec(),
	}, nil
}

// CreateRecording accepts a multipart submission carrying the prompt
// reference and the text-encoded audio container, normalizes it, and
// persists the recording.
func (api *recordingApi) CreateRecording(c *gin.Context) {
	textId, err := strconv.ParseUint(c.PostForm("text_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, commons.NewErrorResponse("bad_request", "text_id must be a positive integer"))
		return
	}
	encoded := c.PostForm("base64_audio")
	if encoded == "" {
		c.JSON(http.StatusBadRequest, commons.NewErrorResponse("bad_request", "base64_audio is required"))
		return
	}
	if len(encoded) > api.cfg.AudioConfig.MaxUploadSizeMB<<20 {
		c.JSON(http.StatusRequestEntityTooLarge, commons.NewErrorResponse("bad_request", "upload exceeds size limit"))
		return
	}
	notes := c.PostForm("notes")

	if _, err := api.recordings.GetPrompt(c.Request.Context(), textId); err != nil {
		api.respondError(c, err)
		return
	}

	raw, err := api.codec.Decode(encoded)
	if err != nil {
		api.respondError(c, err)
		return
	}

	result, err := api.normalizer.Normalize(c.Request.Context(), raw)
	if err != nil {
		api.respondError(c, err)
		return
	}

	rec := &internal_entity.Recording{
		TextId:     textId,
		Duration:   result.Duration,
		SampleRate: result.SampleRate,
		Channels:   result.Channels,
		FileSize:   int64(len(result.Container)),
		Notes:      notes,
	}
	if err := api.recordings.Create(c.Request.Context(), rec); err != nil {
		api.respondError(c, err)
		return
	}

	stored, err := api.normalizer.Store(c.Request.Context(), result, rec.Id)
	if err != nil {
		// Keep the catalog consistent: no row without its audio payload.
		if delErr := api.recordings.Delete(c.Request.Context(), rec.Id); delErr != nil {
			api.logger.Errorw("failed to roll back recording row", "recording", rec.Id, "error", delErr.Error())
		}
		api.respondError(c, err)
		return
	}

	relPath, err := filepath.Rel(api.cfg.StorageConfig.DataDir, stored.Path)
	if err != nil {
		relPath = stored.Path
	}
	updates := map[string]interface{}{
		"filename":  stored.Filename,
		"file_path": relPath,
		"file_size": stored.Size,
	}
	if err := api.database.DB(c.Request.Context()).Model(rec).Updates(updates).Error; err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, commons.NewSuccessResponse(gin.H{
		"id":         rec.Id,
		"textId":     rec.TextId,
		"duration":   result.Duration,
		"sampleRate": result.SampleRate,
		"filename":   stored.Filename,
	}))
}

func (api *recordingApi) ListRecordings(c *gin.Context) {
	filter := internal_services.RecordingFilter{
		ValidatedOnly: c.Query("validated_only") == "true",
	}
	if v := c.Query("text_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, commons.NewErrorResponse("bad_request", "text_id must be a positive integer"))
			return
		}
		filter.TextId = &id
	}

	recordings, err := api.recordings.List(c.Request.Context(), filter)
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, commons.NewSuccessResponse(recordings))
}

func (api *recordingApi) GetRecording(c *gin.Context) {
	id, ok := api.pathId(c)
	if !ok {
		return
	}
	rec, err := api.recordings.Get(c.Request.Context(), id)
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, commons.NewSuccessResponse(rec))
}

type validateRequest struct {
	IsValidated  bool     `json:"isValidated"`
	QualityScore *float64 `json:"qualityScore"`
	Notes        *string  `json:"notes"`
}

func (api *recordingApi) ValidateRecording(c *gin.Context) {
	id, ok := api.pathId(c)
	if !ok {
		return
	}
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, commons.NewErrorResponse("bad_request", err.Error()))
		return
	}
	rec, err := api.recordings.SetValidation(c.Request.Context(), id, req.IsValidated, req.QualityScore, req.Notes)
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, commons.NewSuccessResponse(rec))
}

func (api *recordingApi) DeleteRecording(c *gin.Context) {
	id, ok := api.pathId(c)
	if !ok {
		return
	}
	if err := api.recordings.Delete(c.Request.Context(), id); err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, commons.NewSuccessResponse(nil))
}

// StreamAudio serves the stored WAV payload of one recording.
func (api *recordingApi) StreamAudio(c *gin.Context) {
	id, ok := api.pathId(c)
	if !ok {
		return
	}
	rec, err := api.recordings.Get(c.Request.Context(), id)
	if err != nil {
		api.respondError(c, err)
		return
	}

	root, err := filepath.Abs(api.cfg.StorageConfig.DataDir)
	if err != nil {
		api.respondError(c, err)
		return
	}
	path, err := filepath.Abs(filepath.Join(root, rec.FilePath))
	if err != nil || !strings.HasPrefix(path, root+string(filepath.Separator)) {
		c.JSON(http.StatusForbidden, commons.NewErrorResponse("forbidden", "audio path outside storage root"))
		return
	}

	c.Header("Content-Type", "audio/wav")
	c.Header("Content-Disposition", `inline; filename="`+rec.Filename+`"`)
	c.File(path)
}

type createPromptRequest struct {
	Content  string `json:"content" binding:"required"`
	Language string `json:"language"`
	Category string `json:"category"`
}

// CreatePrompt registers a prompt text for recording. Uploads reference
// prompts by id, so a prompt must exist before its first recording.
func (api *recordingApi) CreatePrompt(c *gin.Context) {
	var req createPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, commons.NewErrorResponse("bad_request", err.Error()))
		return
	}
	prompt := &internal_entity.PromptText{
		Content:  req.Content,
		Language: req.Language,
		Category: req.Category,
	}
	if err := api.recordings.CreatePrompt(c.Request.Context(), prompt); err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, commons.NewSuccessResponse(prompt))
}

func (api *recordingApi) GetPrompt(c *gin.Context) {
	id, ok := api.pathId(c)
	if !ok {
		return
	}
	prompt, err := api.recordings.GetPrompt(c.Request.Context(), id)
	if err != nil {
		api.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, commons.NewSuccessResponse(prompt))
}

func (api *recordingApi) pathId(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, commons.NewErrorResponse("bad_request", "id must be a positive integer"))
		return 0, false
	}
	return id, true
}

// respondError maps the service error taxonomy onto structured payloads.
func (api *recordingApi) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, internal_services.ErrNotFound):
		c.JSON(http.StatusNotFound, commons.NewErrorResponse("not_found", err.Error()))
	case errors.Is(err, internal_transport.ErrTransportCodec):
		c.JSON(http.StatusBadRequest, commons.NewErrorResponse("transport_codec", err.Error()))
	case errors.Is(err, internal_audio.ErrMalformedContainer):
		c.JSON(http.StatusBadRequest, commons.NewErrorResponse("malformed_container", err.Error()))
	case errors.Is(err, internal_normalize.ErrInvalidDuration):
		c.JSON(http.StatusBadRequest, commons.NewErrorResponse("invalid_duration", err.Error()))
	default:
		api.logger.Errorw("recording api failure", "error", err.Error())
		c.JSON(http.StatusInternalServerError, commons.NewErrorResponse("internal", err.Error()))
	}
}
