// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/rapidaai/voicecollect/pkg/connectors"
)

// AudioConfig holds the normalization targets and admissible clip bounds.
type AudioConfig struct {
	TargetSampleRate int     `mapstructure:"target_sample_rate" validate:"required,gt=0"`
	TargetChannels   int     `mapstructure:"target_channels" validate:"required,gt=0"`
	MinDuration      float64 `mapstructure:"min_duration" validate:"gte=0"`
	MaxDuration      float64 `mapstructure:"max_duration" validate:"required,gt=0"`
	MaxUploadSizeMB  int     `mapstructure:"max_upload_size_mb" validate:"required,gt=0"`
}

// StorageConfig holds the on-disk layout. RecordingsDir and ExportsDir are
// derived from DataDir when left empty.
type StorageConfig struct {
	DataDir       string `mapstructure:"data_dir" validate:"required"`
	RecordingsDir string `mapstructure:"recordings_dir"`
	ExportsDir    string `mapstructure:"exports_dir"`
}

// Application config structure
type AppConfig struct {
	Name     string `mapstructure:"service_name" validate:"required"`
	Version  string `mapstructure:"version" validate:"required"`
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required"`
	LogFile  string `mapstructure:"log_file"`

	DatabaseConfig connectors.DatabaseConfig `mapstructure:"database" validate:"required"`
	AudioConfig    AudioConfig               `mapstructure:"audio" validate:"required"`
	StorageConfig  StorageConfig             `mapstructure:"storage" validate:"required"`
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		log.Printf("Reading from env variables.")
	}

	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// setting all default values
	// keeping watch on https://github.com/spf13/viper/issues/188

	v.SetDefault("SERVICE_NAME", "voicecollect")
	v.SetDefault("VERSION", "0.1.0")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 9090)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_FILE", "")

	v.SetDefault("DATABASE__DRIVER", "sqlite")
	v.SetDefault("DATABASE__DSN", "data/voicecollect/database/voicecollect.db")
	v.SetDefault("DATABASE__MAX_OPEN_CONNECTION", 10)
	v.SetDefault("DATABASE__MAX_IDEAL_CONNECTION", 10)

	// Whisper-standard 16kHz mono; bounds match what the collection UI allows.
	v.SetDefault("AUDIO__TARGET_SAMPLE_RATE", 16000)
	v.SetDefault("AUDIO__TARGET_CHANNELS", 1)
	v.SetDefault("AUDIO__MIN_DURATION", 0.5)
	v.SetDefault("AUDIO__MAX_DURATION", 30.0)
	v.SetDefault("AUDIO__MAX_UPLOAD_SIZE_MB", 50)

	v.SetDefault("STORAGE__DATA_DIR", "data/voicecollect")
	v.SetDefault("STORAGE__RECORDINGS_DIR", "")
	v.SetDefault("STORAGE__EXPORTS_DIR", "")
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	if config.StorageConfig.RecordingsDir == "" {
		config.StorageConfig.RecordingsDir = filepath.Join(config.StorageConfig.DataDir, "audio", "recordings")
	}
	if config.StorageConfig.ExportsDir == "" {
		config.StorageConfig.ExportsDir = filepath.Join(config.StorageConfig.DataDir, "exports")
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
