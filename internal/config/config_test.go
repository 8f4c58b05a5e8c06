package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, catasto.ConfigFileName), []byte(content), 0644))
	return dir
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_AllFields(t *testing.T) {
	dir := writeConfig(t, `output: /srv/out/veneto.gpkg
scratch_dir: /var/tmp/catasto
keep_intermediate: true
report: report.json
metrics_file: /var/lib/node_exporter/catasto.prom
picker: false
postgis:
  connection: postgres://gis@db/catasto
  schema: catasto
  overwrite: true
  timeout: 10m
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/srv/out/veneto.gpkg", cfg.Output)
	assert.Equal(t, "/var/tmp/catasto", cfg.ScratchDir)
	assert.True(t, cfg.KeepIntermediateOrDefault())
	assert.Equal(t, "report.json", cfg.Report)
	assert.Equal(t, "/var/lib/node_exporter/catasto.prom", cfg.MetricsFile)
	assert.False(t, cfg.PickerEnabled())
	assert.Equal(t, "postgres://gis@db/catasto", cfg.PostGIS.Connection)
	assert.Equal(t, "catasto", cfg.PostGIS.Schema)
	assert.True(t, cfg.PostGIS.Overwrite)

	timeout, err := cfg.PostGIS.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, timeout)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "report: r.json\n"))
	require.NoError(t, err)

	assert.False(t, cfg.KeepIntermediateOrDefault())
	assert.True(t, cfg.PickerEnabled())
	timeout, err := cfg.PostGIS.TimeoutDuration()
	require.NoError(t, err)
	assert.Zero(t, timeout)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load(t.TempDir())
	assert.True(t, errors.Is(err, ErrConfigNotFound), "expected ErrConfigNotFound, got: %v", err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{{invalid"))
	assert.ErrorIs(t, err, catasto.ErrInvalidConfig)
	assert.Nil(t, cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	keep := true
	want := &ProjectConfig{Output: "out.gpkg", KeepIntermediate: &keep, PostGIS: PostGISConfig{Schema: "gis"}}

	require.NoError(t, Save(dir, want))
	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestApplyEnv(t *testing.T) {
	cfg := &ProjectConfig{Output: "from-yaml.gpkg", Report: "yaml.json"}

	err := ApplyEnv(cfg, envMap(map[string]string{
		"CATASTO_OUTPUT":             "from-env.gpkg",
		"CATASTO_REPORT":             "",
		"CATASTO_KEEP_INTERMEDIATE":  "1",
		"CATASTO_NO_PICKER":          "true",
		"CATASTO_POSTGIS_CONNECTION": "postgres://env/db",
		"CATASTO_POSTGIS_OVERWRITE":  "yes-please",
	}))

	assert.ErrorIs(t, err, catasto.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "CATASTO_POSTGIS_OVERWRITE")
	assert.Equal(t, "from-env.gpkg", cfg.Output)
	assert.Equal(t, "yaml.json", cfg.Report, "empty variables do not override")
	assert.True(t, cfg.KeepIntermediateOrDefault())
	assert.False(t, cfg.PickerEnabled())
	assert.Equal(t, "postgres://env/db", cfg.PostGIS.Connection)
	assert.False(t, cfg.PostGIS.Overwrite)
}

func TestTimeoutDuration_Invalid(t *testing.T) {
	_, err := PostGISConfig{Timeout: "soon"}.TimeoutDuration()
	assert.ErrorIs(t, err, catasto.ErrInvalidConfig)
}
