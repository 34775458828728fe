// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_entity

import (
	gorm_model "github.com/rapidaai/voicecollect/pkg/models/gorm"
)

// Recording is one normalized clip on disk. The audio payload is immutable
// after creation — only the validation flag, quality score, and notes may
// change. Duration and format fields are derived server-side by the
// normalization service, never trusted from the client.
type Recording struct {
	gorm_model.Audited
	TextId   uint64 `json:"textId" gorm:"column:text_id;type:bigint;not null;index"`
	Filename string `json:"filename" gorm:"column:filename;type:varchar(255);not null;index"`
	// FilePath is relative to the configured data dir so the tree stays
	// relocatable.
	FilePath    string  `json:"filePath" gorm:"column:file_path;type:varchar(512);not null"`
	FileSize    int64   `json:"fileSize" gorm:"column:file_size;type:bigint;not null"`
	Duration    float64 `json:"duration" gorm:"column:duration;type:decimal(10,4);not null"`
	SampleRate  int     `json:"sampleRate" gorm:"column:sample_rate;type:int;not null"`
	Channels    int     `json:"channels" gorm:"column:channels;type:int;not null;default:1"`
	IsValidated bool    `json:"isValidated" gorm:"column:is_validated;not null;default:false"`
	// QualityScore is an operator-supplied pass-through field; the service
	// computes nothing from it.
	QualityScore *float64 `json:"qualityScore" gorm:"column:quality_score;type:decimal(5,2)"`
	Notes        string   `json:"notes" gorm:"column:notes;type:text;not null;default:''"`

	Text *PromptText `json:"text,omitempty" gorm:"foreignKey:TextId"`
}

func (Recording) TableName() string {
	return "recordings"
}
