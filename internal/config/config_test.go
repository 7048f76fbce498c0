package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/a3tai/pdf-orgstruct/internal/orgstruct"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a stdio configuration rooted at dir
func validConfig(dir string) *Config {
	return &Config{
		Mode:            ModeStdio,
		Host:            DefaultHost,
		Port:            DefaultPort,
		PDFDirectory:    dir,
		OutputDirectory: filepath.Join(dir, "out"),
		LogDirectory:    filepath.Join(dir, "logs"),
		GapThreshold:    orgstruct.DefaultGapThreshold,
		HalfWidth:       orgstruct.DefaultHalfWidth,
		LogLevel:        DefaultLogLevel,
		MaxFileSize:     1024,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "stdio", cfg.Mode)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "1.0.0", cfg.Version)
	assert.Equal(t, "pdf-orgstruct", cfg.ServerName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(100*1024*1024), cfg.MaxFileSize)
	assert.Equal(t, 15.0, cfg.GapThreshold)
	assert.Equal(t, 10.0, cfg.HalfWidth)
	assert.Zero(t, cfg.StartYear)
	assert.Zero(t, cfg.EndYear)
	assert.False(t, cfg.DumpLayout)
	assert.Equal(t, DefaultCacheSize, cfg.CacheSize)

	currentDir, _ := os.Getwd()
	assert.Equal(t, currentDir, cfg.PDFDirectory)
	assert.Equal(t, filepath.Join(currentDir, "output"), cfg.OutputDirectory)
	assert.Equal(t, filepath.Join(currentDir, "logs"), cfg.LogDirectory)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid config - stdio mode", mutate: func(*Config) {}},
		{name: "valid config - server mode", mutate: func(c *Config) { c.Mode = ModeServer }},
		{name: "valid config - batch mode", mutate: func(c *Config) { c.Mode = ModeBatch }},
		{name: "invalid mode", mutate: func(c *Config) { c.Mode = "invalid" }, wantErr: "mode must be one of"},
		{
			name:    "invalid port - too low (server mode)",
			mutate:  func(c *Config) { c.Mode = ModeServer; c.Port = 0 },
			wantErr: "port must be between 1 and 65535",
		},
		{
			name:    "invalid port - too high (server mode)",
			mutate:  func(c *Config) { c.Mode = ModeServer; c.Port = 70000 },
			wantErr: "port must be between 1 and 65535",
		},
		{name: "invalid port ignored in batch mode", mutate: func(c *Config) { c.Mode = ModeBatch; c.Port = 0 }},
		{name: "empty PDF directory", mutate: func(c *Config) { c.PDFDirectory = "" }, wantErr: "PDF directory cannot be empty"},
		{
			name:    "batch mode needs output directory",
			mutate:  func(c *Config) { c.Mode = ModeBatch; c.OutputDirectory = "" },
			wantErr: "output directory cannot be empty",
		},
		{name: "stdio mode without output directory", mutate: func(c *Config) { c.OutputDirectory = "" }},
		{name: "file in batch mode", mutate: func(c *Config) { c.Mode = ModeBatch; c.File = "a.pdf" }},
		{name: "file outside batch mode", mutate: func(c *Config) { c.File = "a.pdf" }, wantErr: "file can only be used in batch mode"},
		{name: "negative cache size", mutate: func(c *Config) { c.CacheSize = -1 }, wantErr: "cache size cannot be negative"},
		{name: "cache disabled", mutate: func(c *Config) { c.CacheSize = 0 }},
		{name: "invalid log level", mutate: func(c *Config) { c.LogLevel = "invalid" }, wantErr: "invalid log level"},
		{name: "invalid max file size", mutate: func(c *Config) { c.MaxFileSize = 0 }, wantErr: "maximum file size must be positive"},
		{name: "zero gap threshold", mutate: func(c *Config) { c.GapThreshold = 0 }, wantErr: "gap threshold"},
		{name: "negative half width", mutate: func(c *Config) { c.HalfWidth = -1 }, wantErr: "half width"},
		{name: "zero half width", mutate: func(c *Config) { c.HalfWidth = 0 }},
		{name: "start year too early", mutate: func(c *Config) { c.StartYear = 1999 }, wantErr: "start year"},
		{name: "end year in the future", mutate: func(c *Config) { c.EndYear = 9999 }, wantErr: "end year"},
		{name: "reversed years", mutate: func(c *Config) { c.StartYear = 2022; c.EndYear = 2020 }, wantErr: "is after end year"},
		{name: "open ended years", mutate: func(c *Config) { c.StartYear = 2020 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t.TempDir())
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidateYears(t *testing.T) {
	cfg := validConfig(t.TempDir())

	cfg.StartYear, cfg.EndYear = 2000, 2024
	assert.NoError(t, cfg.validateYears(2024))

	cfg.EndYear = 2025
	assert.Error(t, cfg.validateYears(2024))

	cfg.StartYear, cfg.EndYear = 2021, 2021
	assert.NoError(t, cfg.validateYears(2024))
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	nonExistentDir := filepath.Join(t.TempDir(), "non-existent", "pdfs")

	cfg := validConfig(nonExistentDir)
	require.NoError(t, cfg.Validate())

	info, err := os.Stat(nonExistentDir)
	require.NoError(t, err, "PDF directory should have been created")
	assert.True(t, info.IsDir())

	_, err = os.Stat(cfg.OutputDirectory)
	assert.True(t, os.IsNotExist(err), "output directory is created on first write")
}

func TestConfigValidateLogLevels(t *testing.T) {
	tempDir := t.TempDir()

	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run("valid_"+level, func(t *testing.T) {
			cfg := validConfig(tempDir)
			cfg.LogLevel = level
			assert.NoError(t, cfg.Validate())
		})
	}

	for _, level := range []string{"DEBUG", "INFO", "trace", "fatal", ""} {
		t.Run("invalid_"+level, func(t *testing.T) {
			cfg := validConfig(tempDir)
			cfg.LogLevel = level
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigInference(t *testing.T) {
	cfg := validConfig(t.TempDir())
	cfg.GapThreshold = 20
	cfg.HalfWidth = 5

	inference := cfg.Inference()
	assert.Equal(t, 20.0, inference.GapThreshold)
	assert.Equal(t, 5.0, inference.HalfWidth)
	assert.Equal(t, orgstruct.DefaultLevels, inference.Levels)
}

func TestConfigAddress(t *testing.T) {
	cfg := &Config{Host: "192.168.1.1", Port: 9090}
	assert.Equal(t, "192.168.1.1:9090", cfg.Address())
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		Mode:            "batch",
		Host:            "localhost",
		Port:            8080,
		PDFDirectory:    "/home/user/pdfs",
		OutputDirectory: "/home/user/out",
		LogLevel:        "debug",
		MaxFileSize:     1024,
		GapThreshold:    15,
		HalfWidth:       10,
		StartYear:       2020,
		EndYear:         2023,
	}

	result := cfg.String()
	for _, substr := range []string{
		"Mode: batch",
		"Host: localhost",
		"Port: 8080",
		"PDFDirectory: /home/user/pdfs",
		"OutputDirectory: /home/user/out",
		"LogLevel: debug",
		"MaxFileSize: 1024",
		"GapThreshold: 15",
		"HalfWidth: 10",
		"Years: 2020-2023",
	} {
		assert.Contains(t, result, substr)
	}
}

func TestConfigModes(t *testing.T) {
	tests := []struct {
		mode                 string
		server, stdio, batch bool
	}{
		{mode: ModeServer, server: true},
		{mode: ModeStdio, stdio: true},
		{mode: ModeBatch, batch: true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := &Config{Mode: tt.mode}
			assert.Equal(t, tt.server, cfg.IsServerMode())
			assert.Equal(t, tt.stdio, cfg.IsStdioMode())
			assert.Equal(t, tt.batch, cfg.IsBatchMode())
		})
	}

	assert.True(t, (&Config{LogLevel: "debug"}).IsDebug())
	assert.False(t, (&Config{LogLevel: "info"}).IsDebug())
}
