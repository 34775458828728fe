package internal_services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_entity "github.com/rapidaai/voicecollect/internal/entity"
)

func TestSanitizeExportName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"nightly", "nightly"},
		{"Nightly Run #3", "nightly_run_3"},
		{"  spaced out  ", "spaced_out"},
		{"keep-dashes_and_underscores", "keep-dashes_and_underscores"},
		{"日本語", "export"},
		{"", "export"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeExportName(tt.in), "input %q", tt.in)
	}
}

func TestExecute_SingleFlight(t *testing.T) {
	s := &exportService{}
	s.running.Store(true)

	_, err := s.Execute(context.Background(), 1)
	assert.ErrorIs(t, err, ErrExportInProgress)
}

func TestRepublishLatest(t *testing.T) {
	exportsDir := t.TempDir()
	s := &exportService{exportsDir: exportsDir}

	for _, name := range []string{"nightly_20260101_000000", "nightly_20260102_000000"} {
		require.NoError(t, os.Mkdir(filepath.Join(exportsDir, name), 0o755))
		require.NoError(t, s.republishLatest(name))

		target, err := os.Readlink(filepath.Join(exportsDir, LatestLinkName))
		require.NoError(t, err)
		assert.Equal(t, name, target, "latest must point at the new export")
	}

	// The swap leaves no temp links behind.
	entries, err := os.ReadDir(exportsDir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".latest-")
	}
}

func exportFixture(t *testing.T) (*exportService, [3][]*internal_entity.Recording) {
	t.Helper()
	dataDir := t.TempDir()
	recordingsDir := filepath.Join(dataDir, "recordings")
	require.NoError(t, os.MkdirAll(recordingsDir, 0o755))

	var splits [3][]*internal_entity.Recording
	for i := 0; i < 4; i++ {
		filename := fmt.Sprintf("clip_%d.wav", i+1)
		require.NoError(t, os.WriteFile(filepath.Join(recordingsDir, filename), []byte("RIFF-payload"), 0o644))

		rec := &internal_entity.Recording{
			Filename: filename,
			FilePath: filepath.Join("recordings", filename),
			Duration: 1.5,
			Text:     &internal_entity.PromptText{Content: "text", Language: "ja"},
		}
		rec.Id = uint64(i + 1)
		switch {
		case i < 2:
			splits[0] = append(splits[0], rec)
		case i == 2:
			splits[1] = append(splits[1], rec)
		default:
			splits[2] = append(splits[2], rec)
		}
	}

	return &exportService{dataDir: dataDir, exportsDir: t.TempDir()}, splits
}

func TestWriteTree(t *testing.T) {
	s, splits := exportFixture(t)
	root := filepath.Join(s.exportsDir, ".staging-test")

	require.NoError(t, s.writeTree(context.Background(), root, splits))

	for _, name := range SplitNames {
		info, err := os.Stat(filepath.Join(root, name+".tsv"))
		require.NoError(t, err, "%s manifest must exist", name)
		assert.Greater(t, info.Size(), int64(0))
	}
	for _, split := range splits {
		for _, rec := range split {
			data, err := os.ReadFile(filepath.Join(root, "clips", rec.Filename))
			require.NoError(t, err)
			assert.Equal(t, "RIFF-payload", string(data))
		}
	}
}

func TestWriteTree_MissingClip(t *testing.T) {
	s, splits := exportFixture(t)
	require.NoError(t, os.Remove(filepath.Join(s.dataDir, splits[0][0].FilePath)))

	root := filepath.Join(s.exportsDir, ".staging-test")
	err := s.writeTree(context.Background(), root, splits)
	require.Error(t, err, "a missing source clip must fail the whole tree")
}
