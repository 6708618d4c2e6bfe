package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	content := `rulesPath: rules/compliance.yml
historyDB: .rfpaudit/history.db
parallel: true
stageTimeout: 45s
strictConflicts: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rfpaudit.yml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "rules/compliance.yml", cfg.RulesPath)
	assert.Equal(t, ".rfpaudit/history.db", cfg.HistoryDB)
	assert.True(t, cfg.Parallel)
	assert.True(t, cfg.StrictConflicts)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, 45*time.Second, cfg.StageTimeoutDuration())
}

func TestLoad_YamlExtensionFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rfpaudit.yaml"), []byte("parallel: true\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Parallel)
}

func TestLoad_MissingFileIsZeroConfig(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &ProjectConfig{}, cfg)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rfpaudit.yml"), []byte("parallel: [oops\n"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestStageTimeoutDuration(t *testing.T) {
	assert.Zero(t, (&ProjectConfig{}).StageTimeoutDuration())
	assert.Zero(t, (&ProjectConfig{StageTimeout: "soon"}).StageTimeoutDuration())
	assert.Equal(t, 2*time.Minute, (&ProjectConfig{StageTimeout: "2m"}).StageTimeoutDuration())
}
