// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	internal_entity "github.com/rapidaai/voicecollect/internal/entity"
	"github.com/rapidaai/voicecollect/pkg/commons"
	"github.com/rapidaai/voicecollect/pkg/connectors"
)

// RecordingFilter narrows List and count queries.
type RecordingFilter struct {
	TextId        *uint64
	ValidatedOnly bool
	MinDuration   *float64
	MaxDuration   *float64
}

// RecordingService provides operations over persisted recordings. Rows are
// created by the upload path after normalization succeeds; afterwards only
// the validation flag, quality score, and notes are mutable.
type RecordingService interface {
	Create(ctx context.Context, rec *internal_entity.Recording) error
	Get(ctx context.Context, id uint64) (*internal_entity.Recording, error)
	List(ctx context.Context, filter RecordingFilter) ([]*internal_entity.Recording, error)
	Count(ctx context.Context, filter RecordingFilter) (int64, error)
	// SetValidation flips the validated flag and optionally updates the
	// quality score and notes.
	SetValidation(ctx context.Context, id uint64, validated bool, score *float64, notes *string) (*internal_entity.Recording, error)
	// Delete removes the row and its audio file.
	Delete(ctx context.Context, id uint64) error

	GetPrompt(ctx context.Context, id uint64) (*internal_entity.PromptText, error)
	CreatePrompt(ctx context.Context, prompt *internal_entity.PromptText) error
}

type recordingService struct {
	logger   commons.Logger
	database connectors.DatabaseConnector
	dataDir  string
}

// NewRecordingService creates the gorm-backed recording store. dataDir is
// the root against which Recording.FilePath is resolved.
func NewRecordingService(logger commons.Logger, database connectors.DatabaseConnector, dataDir string) RecordingService {
	return &recordingService{
		logger:   logger,
		database: database,
		dataDir:  dataDir,
	}
}

func (s *recordingService) Create(ctx context.Context, rec *internal_entity.Recording) error {
	db := s.database.DB(ctx)
	if err := db.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to save recording for text %d: %w", rec.TextId, err)
	}
	s.logger.Infof("saved recording: id=%d, text=%d, duration=%.2fs", rec.Id, rec.TextId, rec.Duration)
	return nil
}

func (s *recordingService) Get(ctx context.Context, id uint64) (*internal_entity.Recording, error) {
	var rec internal_entity.Recording
	err := s.database.DB(ctx).Preload("Text").First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: recording %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recording %d: %w", id, err)
	}
	return &rec, nil
}

func (s *recordingService) List(ctx context.Context, filter RecordingFilter) ([]*internal_entity.Recording, error) {
	var recordings []*internal_entity.Recording
	if err := s.applyFilter(s.database.DB(ctx), filter).
		Preload("Text").
		Order("id asc").
		Find(&recordings).Error; err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	return recordings, nil
}

func (s *recordingService) Count(ctx context.Context, filter RecordingFilter) (int64, error) {
	var count int64
	if err := s.applyFilter(s.database.DB(ctx).Model(&internal_entity.Recording{}), filter).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count recordings: %w", err)
	}
	return count, nil
}

func (s *recordingService) applyFilter(db *gorm.DB, filter RecordingFilter) *gorm.DB {
	if filter.TextId != nil {
		db = db.Where("text_id = ?", *filter.TextId)
	}
	if filter.ValidatedOnly {
		db = db.Where("is_validated = ?", true)
	}
	if filter.MinDuration != nil {
		db = db.Where("duration >= ?", *filter.MinDuration)
	}
	if filter.MaxDuration != nil {
		db = db.Where("duration <= ?", *filter.MaxDuration)
	}
	return db
}

func (s *recordingService) SetValidation(ctx context.Context, id uint64, validated bool, score *float64, notes *string) (*internal_entity.Recording, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"is_validated": validated}
	if score != nil {
		updates["quality_score"] = *score
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	if err := s.database.DB(ctx).Model(rec).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update recording %d: %w", id, err)
	}
	return s.Get(ctx, id)
}

func (s *recordingService) Delete(ctx context.Context, id uint64) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.database.DB(ctx).Delete(&internal_entity.Recording{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete recording %d: %w", id, err)
	}

	path := filepath.Join(s.dataDir, rec.FilePath)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		// Row is gone; report the orphaned file rather than failing the call.
		s.logger.Warnw("failed to remove audio file of deleted recording",
			"recording", id, "path", path, "error", err.Error())
	}
	s.logger.Infof("deleted recording: id=%d", id)
	return nil
}

func (s *recordingService) GetPrompt(ctx context.Context, id uint64) (*internal_entity.PromptText, error) {
	var prompt internal_entity.PromptText
	err := s.database.DB(ctx).First(&prompt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: prompt text %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt text %d: %w", id, err)
	}
	return &prompt, nil
}

func (s *recordingService) CreatePrompt(ctx context.Context, prompt *internal_entity.PromptText) error {
	if err := s.database.DB(ctx).Create(prompt).Error; err != nil {
		return fmt.Errorf("failed to save prompt text: %w", err)
	}
	return nil
}
