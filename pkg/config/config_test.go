package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/config"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/types"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "lzfse", cfg.Compression)
	assert.Equal(t, "normal", cfg.Verbosity)
	assert.Zero(t, cfg.LockTimeout)
	assert.Zero(t, cfg.Jobs)
	assert.Equal(t, "afsctool", cfg.Compressor.Command)
	assert.Equal(t, []string{"-c", "-T", "{KIND}"}, cfg.Compressor.Args)
	assert.False(t, cfg.Notifications.Enabled)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.New())
	require.NoError(t, err)

	assert.Equal(t, types.CompressionLZFSE, cfg.Kind())
	assert.Equal(t, types.VerbosityNormal, cfg.Level())
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cargo-apfs-compress.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
compression: zlib
verbosity: verbose
lock_timeout: 30s
jobs: 4
report: out/report.yaml
compressor:
  command: /usr/local/bin/afsctool
  args: ["-c", "-9", "-T", "{KIND}"]
notifications:
  enabled: true
`), 0o644))

	v := config.New()
	used, err := config.ReadFile(v, "", dir)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, types.CompressionZlib, cfg.Kind())
	assert.Equal(t, types.VerbosityVerbose, cfg.Level())
	assert.Equal(t, 30*time.Second, cfg.LockTimeout)
	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, "out/report.yaml", cfg.Report)
	assert.Equal(t, "/usr/local/bin/afsctool", cfg.CompressorOptions().Command)
	assert.Equal(t, []string{"-c", "-9", "-T", "{KIND}"}, cfg.CompressorOptions().Args)
	assert.True(t, cfg.Notifications.Enabled)
}

func TestLoad_TOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("compression = \"lzvn\"\njobs = 2\n"), 0o644))

	v := config.New()
	_, err := config.ReadFile(v, path, "")
	require.NoError(t, err)

	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, types.CompressionLZVN, cfg.Kind())
	assert.Equal(t, 2, cfg.Jobs)
}

func TestReadFile_MissingSearchedFileIsNotAnError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	used, err := config.ReadFile(config.New(), "", t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, used)
}

func TestReadFile_MissingExplicitFile(t *testing.T) {
	_, err := config.ReadFile(config.New(), filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("CARGO_APFS_COMPRESS_COMPRESSION", "zlib")
	t.Setenv("CARGO_APFS_COMPRESS_LOCK_TIMEOUT", "2m")
	t.Setenv("CARGO_APFS_COMPRESS_COMPRESSOR_COMMAND", "/opt/afsctool")

	cfg, err := config.Load(config.New())
	require.NoError(t, err)

	assert.Equal(t, types.CompressionZlib, cfg.Kind())
	assert.Equal(t, 2*time.Minute, cfg.LockTimeout)
	assert.Equal(t, "/opt/afsctool", cfg.Compressor.Command)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		fields []string
	}{
		{"valid", func(*config.Config) {}, nil},
		{"bad compression", func(c *config.Config) { c.Compression = "brotli" }, []string{"compression"}},
		{"bad verbosity", func(c *config.Config) { c.Verbosity = "loud" }, []string{"verbosity"}},
		{"negative timeout", func(c *config.Config) { c.LockTimeout = -time.Second }, []string{"lock_timeout"}},
		{"negative jobs", func(c *config.Config) { c.Jobs = -1 }, []string{"jobs"}},
		{"empty command", func(c *config.Config) { c.Compressor.Command = " " }, []string{"compressor.command"}},
		{
			name: "several",
			mutate: func(c *config.Config) {
				c.Compression = ""
				c.Jobs = -3
			},
			fields: []string{"compression", "jobs"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)

			errs := cfg.Validate()
			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestLoad_ReturnsValidationErrors(t *testing.T) {
	v := config.New()
	v.Set("compression", "brotli")

	_, err := config.Load(v)

	var verrs config.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 1)
	assert.Contains(t, err.Error(), "compression")
}
