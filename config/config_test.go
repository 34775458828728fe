package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetApplicationConfig_Defaults(t *testing.T) {
	vConfig, err := InitConfig()
	require.NoError(t, err)

	cfg, err := GetApplicationConfig(vConfig)
	require.NoError(t, err)

	assert.Equal(t, "voicecollect", cfg.Name)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "sqlite", cfg.DatabaseConfig.Driver)

	assert.Equal(t, 16000, cfg.AudioConfig.TargetSampleRate)
	assert.Equal(t, 1, cfg.AudioConfig.TargetChannels)
	assert.InDelta(t, 0.5, cfg.AudioConfig.MinDuration, 1e-9)
	assert.InDelta(t, 30.0, cfg.AudioConfig.MaxDuration, 1e-9)
}

func TestGetApplicationConfig_DerivedStorageDirs(t *testing.T) {
	vConfig, err := InitConfig()
	require.NoError(t, err)
	vConfig.Set("STORAGE__DATA_DIR", "/srv/voicecollect")

	cfg, err := GetApplicationConfig(vConfig)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/srv/voicecollect", "audio", "recordings"), cfg.StorageConfig.RecordingsDir)
	assert.Equal(t, filepath.Join("/srv/voicecollect", "exports"), cfg.StorageConfig.ExportsDir)
}

func TestGetApplicationConfig_ExplicitStorageDirs(t *testing.T) {
	vConfig, err := InitConfig()
	require.NoError(t, err)
	vConfig.Set("STORAGE__RECORDINGS_DIR", "/mnt/audio")
	vConfig.Set("STORAGE__EXPORTS_DIR", "/mnt/exports")

	cfg, err := GetApplicationConfig(vConfig)
	require.NoError(t, err)

	assert.Equal(t, "/mnt/audio", cfg.StorageConfig.RecordingsDir)
	assert.Equal(t, "/mnt/exports", cfg.StorageConfig.ExportsDir)
}
