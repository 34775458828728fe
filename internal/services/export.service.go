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
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	internal_entity "github.com/rapidaai/voicecollect/internal/entity"
	"github.com/rapidaai/voicecollect/pkg/commons"
	"github.com/rapidaai/voicecollect/pkg/connectors"
)

// LatestLinkName is the stable pointer inside the exports dir. It always
// resolves to the most recently completed export root; readers observe
// either the previous complete tree or the new one, never a mix.
const LatestLinkName = "latest"

// clipCopyConcurrency bounds the parallel clip copies of one export run.
const clipCopyConcurrency = 8

// ExportRequest is the operator-supplied export configuration.
type ExportRequest struct {
	Name          string
	Description   string
	TrainRatio    float64
	DevRatio      float64
	TestRatio     float64
	SplitStrategy string
	MinDuration   *float64
	MaxDuration   *float64
	ValidatedOnly bool
}

// ExportService creates and runs dataset exports. Only one run may be in
// flight at a time; a concurrent Execute fails fast with
// ErrExportInProgress instead of queueing.
type ExportService interface {
	Create(ctx context.Context, req ExportRequest) (*internal_entity.DatasetExport, error)
	// CreateAndExecute persists and runs an export as one guarded request.
	// While another run is in flight it fails fast and persists nothing.
	CreateAndExecute(ctx context.Context, req ExportRequest) (*internal_entity.DatasetExport, error)
	Execute(ctx context.Context, id uint64) (*internal_entity.DatasetExport, error)
	Get(ctx context.Context, id uint64) (*internal_entity.DatasetExport, error)
	List(ctx context.Context) ([]*internal_entity.DatasetExport, error)
	// Delete removes the export row and its tree. The tree currently
	// published as "latest" is left on disk.
	Delete(ctx context.Context, id uint64) error
}

type exportService struct {
	logger     commons.Logger
	database   connectors.DatabaseConnector
	recordings RecordingService
	dataDir    string
	exportsDir string

	// running guards the single-flight export invariant.
	running atomic.Bool
}

// NewExportService creates the export engine. dataDir resolves recording
// file paths; exportsDir receives export trees and the latest pointer.
func NewExportService(
	logger commons.Logger,
	database connectors.DatabaseConnector,
	recordings RecordingService,
	dataDir, exportsDir string,
) ExportService {
	return &exportService{
		logger:     logger,
		database:   database,
		recordings: recordings,
		dataDir:    dataDir,
		exportsDir: exportsDir,
	}
}

// Create validates the request and persists a pending export row. Nothing
// is written to disk yet.
func (s *exportService) Create(ctx context.Context, req ExportRequest) (*internal_entity.DatasetExport, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("export name is required")
	}
	if err := ValidateRatios(req.TrainRatio, req.DevRatio, req.TestRatio); err != nil {
		return nil, err
	}
	strategy := req.SplitStrategy
	if strategy == "" {
		strategy = internal_entity.SplitStrategyRandom
	}
	if strategy != internal_entity.SplitStrategyRandom && strategy != internal_entity.SplitStrategyChronological {
		return nil, fmt.Errorf("unknown split strategy %q", strategy)
	}

	export := &internal_entity.DatasetExport{
		Name:          req.Name,
		Description:   req.Description,
		Status:        internal_entity.ExportStatusPending,
		TrainRatio:    req.TrainRatio,
		DevRatio:      req.DevRatio,
		TestRatio:     req.TestRatio,
		SplitStrategy: strategy,
		MinDuration:   req.MinDuration,
		MaxDuration:   req.MaxDuration,
		ValidatedOnly: req.ValidatedOnly,
	}
	if err := s.database.DB(ctx).Create(export).Error; err != nil {
		return nil, fmt.Errorf("failed to save export: %w", err)
	}
	s.logger.Infof("created export: id=%d, name=%s", export.Id, export.Name)
	return export, nil
}

// CreateAndExecute acquires the single-flight guard for the whole request:
// a run requested while another is in flight is rejected before any row is
// written.
func (s *exportService) CreateAndExecute(ctx context.Context, req ExportRequest) (*internal_entity.DatasetExport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrExportInProgress
	}
	defer s.running.Store(false)

	export, err := s.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, export.Id)
}

// Execute runs one pending export to completion. On any failure the row
// transitions to failed with the failing stage recorded, the staging tree is
// removed, and the latest pointer is left untouched.
func (s *exportService) Execute(ctx context.Context, id uint64) (*internal_entity.DatasetExport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrExportInProgress
	}
	defer s.running.Store(false)
	return s.execute(ctx, id)
}

// execute requires the running flag to be held by the caller.
func (s *exportService) execute(ctx context.Context, id uint64) (*internal_entity.DatasetExport, error) {
	export, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if export.Status != internal_entity.ExportStatusPending {
		return nil, fmt.Errorf("export %d is %s; runs are never reopened", id, export.Status)
	}

	if err := s.setStatus(ctx, export, internal_entity.ExportStatusRunning); err != nil {
		return nil, err
	}

	result, runErr := s.run(ctx, export)
	if runErr != nil {
		s.markFailed(ctx, export, result, runErr)
		return export, runErr
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":           internal_entity.ExportStatusCompleted,
		"export_path":      result.relPath,
		"total_recordings": result.total,
		"train_count":      result.counts[0],
		"dev_count":        result.counts[1],
		"test_count":       result.counts[2],
		"completed_at":     now,
		"error_message":    "",
	}
	if err := s.database.DB(ctx).Model(export).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("export published but row update failed: %w", err)
	}
	s.logger.Infof("export completed: id=%d, path=%s, counts=%d/%d/%d",
		export.Id, result.relPath, result.counts[0], result.counts[1], result.counts[2])
	return s.Get(ctx, id)
}

type exportResult struct {
	relPath string
	total   int
	counts  [3]int
}

func (s *exportService) run(ctx context.Context, export *internal_entity.DatasetExport) (*exportResult, error) {
	eligible, err := s.recordings.List(ctx, RecordingFilter{
		ValidatedOnly: export.ValidatedOnly,
		MinDuration:   export.MinDuration,
		MaxDuration:   export.MaxDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("stage=select: %w", err)
	}
	if len(eligible) == 0 {
		return nil, ErrInsufficientData
	}

	counts := SplitCounts(len(eligible), export.TrainRatio, export.DevRatio, export.TestRatio)
	splits := AssignSplits(eligible, export.SplitStrategy, export.Name, counts)

	// Stage the complete tree under a fresh name, publish only when done.
	staging := filepath.Join(s.exportsDir, ".staging-"+uuid.NewString())
	if err := s.writeTree(ctx, staging, splits); err != nil {
		os.RemoveAll(staging)
		return nil, fmt.Errorf("%w: stage=write_tree, counts=%d/%d/%d: %v",
			ErrPartialWrite, counts[0], counts[1], counts[2], err)
	}

	dirName := fmt.Sprintf("%s_%s", sanitizeExportName(export.Name), time.Now().Format("20060102_150405"))
	finalPath := filepath.Join(s.exportsDir, dirName)
	if err := os.Rename(staging, finalPath); err != nil {
		os.RemoveAll(staging)
		return nil, fmt.Errorf("%w: stage=publish_tree: %v", ErrPartialWrite, err)
	}

	result := &exportResult{relPath: dirName, total: len(eligible), counts: counts}
	if err := s.republishLatest(dirName); err != nil {
		// The tree already carries its final name; hand it back so the row
		// records it and Delete can reclaim it.
		return result, fmt.Errorf("stage=publish_latest: %w", err)
	}
	return result, nil
}

// writeTree writes the three manifests and copies every referenced clip into
// the split-independent clips/ subdirectory of root.
func (s *exportService) writeTree(ctx context.Context, root string, splits [3][]*internal_entity.Recording) error {
	clipsDir := filepath.Join(root, "clips")
	if err := os.MkdirAll(clipsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create export tree: %w", err)
	}

	for i, name := range SplitNames {
		if err := writeManifest(filepath.Join(root, name+".tsv"), splits[i]); err != nil {
			return err
		}
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(clipCopyConcurrency)
	for _, split := range splits {
		for _, rec := range split {
			group.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				src := filepath.Join(s.dataDir, rec.FilePath)
				dst := filepath.Join(clipsDir, rec.Filename)
				if err := copyFile(src, dst); err != nil {
					return fmt.Errorf("failed to copy clip of recording %d: %w", rec.Id, err)
				}
				return nil
			})
		}
	}
	return group.Wait()
}

// republishLatest swaps the latest pointer onto dirName with a symlink
// rename, a single atomic filesystem operation. A reader resolving the
// pointer mid-swap sees either the previous export or the new one.
func (s *exportService) republishLatest(dirName string) error {
	tmpLink := filepath.Join(s.exportsDir, ".latest-"+uuid.NewString())
	if err := os.Symlink(dirName, tmpLink); err != nil {
		return fmt.Errorf("failed to create latest symlink: %w", err)
	}
	if err := os.Rename(tmpLink, filepath.Join(s.exportsDir, LatestLinkName)); err != nil {
		os.Remove(tmpLink)
		return fmt.Errorf("failed to swap latest symlink: %w", err)
	}
	return nil
}

func (s *exportService) Get(ctx context.Context, id uint64) (*internal_entity.DatasetExport, error) {
	var export internal_entity.DatasetExport
	err := s.database.DB(ctx).First(&export, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: export %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load export %d: %w", id, err)
	}
	return &export, nil
}

func (s *exportService) List(ctx context.Context) ([]*internal_entity.DatasetExport, error) {
	var exports []*internal_entity.DatasetExport
	if err := s.database.DB(ctx).Order("id desc").Find(&exports).Error; err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	return exports, nil
}

func (s *exportService) Delete(ctx context.Context, id uint64) error {
	export, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.database.DB(ctx).Delete(&internal_entity.DatasetExport{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete export %d: %w", id, err)
	}

	if export.ExportPath == "" {
		return nil
	}
	// Never delete the tree the latest pointer resolves to.
	if target, err := os.Readlink(filepath.Join(s.exportsDir, LatestLinkName)); err == nil && target == export.ExportPath {
		s.logger.Warnw("export row deleted but tree kept: it is the current latest target",
			"export", id, "path", export.ExportPath)
		return nil
	}
	if err := os.RemoveAll(filepath.Join(s.exportsDir, export.ExportPath)); err != nil {
		s.logger.Warnw("failed to remove export tree", "export", id, "error", err.Error())
	}
	return nil
}

func (s *exportService) setStatus(ctx context.Context, export *internal_entity.DatasetExport, status string) error {
	if err := s.database.DB(ctx).Model(export).Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to transition export %d to %s: %w", export.Id, status, err)
	}
	export.Status = status
	return nil
}

func (s *exportService) markFailed(ctx context.Context, export *internal_entity.DatasetExport, result *exportResult, cause error) {
	updates := map[string]interface{}{
		"status":        internal_entity.ExportStatusFailed,
		"error_message": cause.Error(),
	}
	// A tree that already reached its final name is recorded on the row so
	// Delete can reclaim it.
	if result != nil && result.relPath != "" {
		updates["export_path"] = result.relPath
		export.ExportPath = result.relPath
	}
	if err := s.database.DB(ctx).Model(export).Updates(updates).Error; err != nil {
		s.logger.Errorw("failed to record export failure", "export", export.Id, "error", err.Error())
	}
	export.Status = internal_entity.ExportStatusFailed
	export.ErrorMessage = cause.Error()
	s.logger.Warnw("export failed", "export", export.Id, "error", cause.Error())
}

var exportNamePattern = regexp.MustCompile(`[^a-z0-9_-]+`)

func sanitizeExportName(name string) string {
	cleaned := exportNamePattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		cleaned = "export"
	}
	return cleaned
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
