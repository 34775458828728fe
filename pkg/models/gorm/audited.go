// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package gorm_model

import "time"

// Audited is the shared base for persisted entities: numeric primary key and
// create/update timestamps. CreatedDate is write-once.
type Audited struct {
	Id          uint64    `json:"id" gorm:"type:bigint;primaryKey;autoIncrement;<-:create"`
	CreatedDate time.Time `json:"createdDate" gorm:"type:timestamp;not null;autoCreateTime;<-:create"`
	UpdatedDate time.Time `json:"updatedDate" gorm:"type:timestamp;autoUpdateTime"`
}
