// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_entity

import (
	gorm_model "github.com/rapidaai/voicecollect/pkg/models/gorm"
)

// PromptText is one sentence of the reading catalog. Recordings reference a
// prompt; its content becomes the transcript column in exported manifests.
type PromptText struct {
	gorm_model.Audited
	Content  string `json:"content" gorm:"column:content;type:text;not null"`
	Language string `json:"language" gorm:"column:language;type:varchar(10);not null;default:ja"`
	Category string `json:"category" gorm:"column:category;type:varchar(100);not null;default:''"`

	Recordings []*Recording `json:"recordings,omitempty" gorm:"foreignKey:TextId"`
}

func (PromptText) TableName() string {
	return "prompt_texts"
}
