package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
analyzer:
  date_order: mdy
  timezone: Asia/Jakarta
  retention: 48h
s3:
  enabled: true
  bucket: chats
`), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Address())
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "mdy", cfg.Analyzer.DateOrder)
	assert.Equal(t, 48*time.Hour, cfg.Analyzer.Retention)
	assert.Equal(t, 6*time.Hour, cfg.Analyzer.InitiationGap)
	assert.Equal(t, 96*time.Hour, cfg.Analyzer.SilenceGap)
	assert.Equal(t, int64(20<<20), cfg.Analyzer.MaxTranscriptBytes)
	assert.True(t, cfg.S3.Enabled)
	assert.Equal(t, "chats", cfg.S3.Bucket)
	assert.Equal(t, "info", cfg.Log.Level)

	loc, err := cfg.Analyzer.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", loc.String())
}

func TestAnalyzerLocation_Invalid(t *testing.T) {
	_, err := Analyzer{Timezone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}
