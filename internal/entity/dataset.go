// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_entity

import (
	"time"

	gorm_model "github.com/rapidaai/voicecollect/pkg/models/gorm"
)

// Dataset export status constants. A row transitions pending → running →
// completed|failed exactly once and is never reopened.
const (
	ExportStatusPending   = "pending"
	ExportStatusRunning   = "running"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
)

// Split assignment strategies.
const (
	SplitStrategyRandom        = "random"        // shuffle seeded from the export name
	SplitStrategyChronological = "chronological" // stable recording-id order
)

// DatasetExport describes one export run: the split configuration and filter
// criteria going in, the per-split counts and output location coming out.
type DatasetExport struct {
	gorm_model.Audited
	Name        string `json:"name" gorm:"column:name;type:varchar(255);not null"`
	Description string `json:"description" gorm:"column:description;type:text;not null;default:''"`
	// ExportPath is the export root relative to the exports dir, empty until
	// the run publishes.
	ExportPath string `json:"exportPath" gorm:"column:export_path;type:varchar(512);not null;default:''"`
	Status     string `json:"status" gorm:"column:status;type:varchar(20);not null;default:pending"`
	// ErrorMessage carries the failing stage detail when Status is "failed".
	ErrorMessage string `json:"errorMessage" gorm:"column:error_message;type:text;not null;default:''"`

	// Split ratios are fractions summing to 1.0 within a small epsilon.
	TrainRatio    float64 `json:"trainRatio" gorm:"column:train_ratio;type:decimal(5,4);not null"`
	DevRatio      float64 `json:"devRatio" gorm:"column:dev_ratio;type:decimal(5,4);not null"`
	TestRatio     float64 `json:"testRatio" gorm:"column:test_ratio;type:decimal(5,4);not null"`
	SplitStrategy string  `json:"splitStrategy" gorm:"column:split_strategy;type:varchar(20);not null;default:random"`

	// Filter criteria.
	MinDuration   *float64 `json:"minDuration" gorm:"column:min_duration;type:decimal(10,4)"`
	MaxDuration   *float64 `json:"maxDuration" gorm:"column:max_duration;type:decimal(10,4)"`
	ValidatedOnly bool     `json:"validatedOnly" gorm:"column:validated_only;not null;default:false"`

	// Result counts.
	TotalRecordings int `json:"totalRecordings" gorm:"column:total_recordings;type:int;not null;default:0"`
	TrainCount      int `json:"trainCount" gorm:"column:train_count;type:int;not null;default:0"`
	DevCount        int `json:"devCount" gorm:"column:dev_count;type:int;not null;default:0"`
	TestCount       int `json:"testCount" gorm:"column:test_count;type:int;not null;default:0"`

	CompletedAt *time.Time `json:"completedAt" gorm:"column:completed_at;type:timestamp"`
}

func (DatasetExport) TableName() string {
	return "dataset_exports"
}
