// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_services

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	internal_entity "github.com/rapidaai/voicecollect/internal/entity"
)

// manifestClientId labels rows collected through this service; the corpus
// has a single contributor channel.
const manifestClientId = "voicecollect"

// manifestColumns is the Common Voice-style TSV header. Audio paths are
// relative to the export root so third-party training pipelines can consume
// the tree without transformation.
var manifestColumns = []string{"client_id", "path", "sentence", "duration", "locale"}

// writeManifest renders one split manifest: a header line plus one
// tab-separated row per recording.
func writeManifest(path string, recordings []*internal_entity.Recording) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest %s: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintln(w, strings.Join(manifestColumns, "\t"))
	for _, rec := range recordings {
		sentence, locale := "", ""
		if rec.Text != nil {
			sentence = sanitizeField(rec.Text.Content)
			locale = rec.Text.Language
		}
		fmt.Fprintf(w, "%s\tclips/%s\t%s\t%.4f\t%s\n",
			manifestClientId, rec.Filename, sentence, rec.Duration, locale)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return file.Sync()
}

// sanitizeField keeps transcript text on a single TSV row.
func sanitizeField(s string) string {
	replacer := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
	return strings.TrimSpace(replacer.Replace(s))
}
