// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_services

import "errors"

// Service error taxonomy. The HTTP layer maps these onto structured error
// payloads; nothing here is retried automatically.
var (
	// ErrNotFound reports a missing recording, prompt, or export row.
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientData reports an export whose eligible recording set is
	// empty.
	ErrInsufficientData = errors.New("no recordings match the export criteria")
	// ErrExportInProgress reports an export requested while another run is
	// in flight. The request fails fast; nothing is queued.
	ErrExportInProgress = errors.New("another export is already running")
	// ErrPartialWrite reports an export tree that could not be fully
	// written. The latest pointer is left untouched when this happens.
	ErrPartialWrite = errors.New("export tree partially written")
	// ErrInvalidRatios reports split ratios that do not sum to 1.0.
	ErrInvalidRatios = errors.New("split ratios must sum to 1.0")
)
