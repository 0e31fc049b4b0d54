package main

import (
	"testing"

	"github.com/simplespend/backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-f", "export.json", "--mode", "incremental", "--mongo-uri", "mongodb://db:27017"})
	require.NoError(t, err)
	assert.Equal(t, &options{file: "export.json", mode: "incremental", mongoURI: "mongodb://db:27017"}, opts)

	opts, err = parseFlags([]string{"--file=export.json"})
	require.NoError(t, err)
	assert.Equal(t, "rebuild", opts.mode)
}

func TestParseFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing file", args: []string{"--mode", "rebuild"}},
		{name: "unknown mode", args: []string{"-f", "x.json", "-m", "upsert"}},
		{name: "unknown flag", args: []string{"-f", "x.json", "--force"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Type: "memory", Database: "simplespend"}}
	applyOverrides(cfg, &options{mongoURI: "mongodb://db:27017", database: "staging"})
	assert.Equal(t, config.StorageConfig{Type: "mongo", MongoURI: "mongodb://db:27017", Database: "staging"}, cfg.Storage)

	applyOverrides(cfg, &options{dryRun: true})
	assert.Equal(t, "memory", cfg.Storage.Type, "dry runs never touch the database")
}
