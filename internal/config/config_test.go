package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet(args ...string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	fs.Parse(args)
	return fs
}

func TestLoadRequiresInput(t *testing.T) {
	_, err := Load(newFlagSet())
	assert.Error(t, err)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(newFlagSet("--input=in.json"))
	require.NoError(t, err)
	assert.Equal(t, "in.json", cfg.Run.Input)
	assert.Equal(t, "./output", cfg.Run.OutputDir)
	assert.Equal(t, "StrictConfig", cfg.Run.DecoderConfig)
	assert.Equal(t, "EPSG:4326", cfg.Run.TargetCRS)
	assert.Equal(t, 20.0, cfg.Run.BufferMeters)
	assert.Equal(t, 1, cfg.Worker.NumThreads)
	assert.Equal(t, 64, cfg.Worker.QueueDepth)
	assert.Equal(t, "lines", cfg.Database.LinesTable)
}

func TestLoadHonorsExplicitFlags(t *testing.T) {
	cfg, err := Load(newFlagSet(
		"--input=in.json",
		"--decoder_config=RelaxedConfig",
		"--buffer=42",
		"--num_threads=4",
	))
	require.NoError(t, err)
	assert.Equal(t, "RelaxedConfig", cfg.Run.DecoderConfig)
	assert.Equal(t, 42.0, cfg.Run.BufferMeters)
	assert.Equal(t, 4, cfg.Worker.NumThreads)
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg, err := Load(newFlagSet("--input=in.json", "--db=postgres://x"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://x", cfg.GetDatabaseDSN())
}
