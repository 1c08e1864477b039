package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Classifier.Provider)
	assert.Equal(t, 200.0, cfg.Scan.RegionWidth)
	assert.Equal(t, 100.0, cfg.Scan.RegionHeight)
	assert.Equal(t, "bottom-right", cfg.Scan.RegionAnchor)
	assert.Equal(t, `(?i)\bP[A-Za-z0-9]*\d+`, cfg.Scan.SheetPattern)
	assert.Equal(t, 100.0, cfg.Scan.RenderDPI)
	assert.Equal(t, 800, cfg.Classifier.MaxImageSide)
	assert.Equal(t, 10*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, 100, cfg.Classifier.MaxTokens)
	assert.Equal(t, 1, cfg.Classifier.Concurrency)
	assert.Equal(t, "local", cfg.StorageBackend)
	assert.Equal(t, int64(50<<20), cfg.MaxFileSize)
}

func TestLoadRequiresProviderKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("CLASSIFIER_PROVIDER", "openai")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	t.Setenv("CLASSIFIER_PROVIDER", "gemini")
	t.Setenv("GOOGLE_API_KEY", "")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CLASSIFIER_PROVIDER", "gemini")
	t.Setenv("GOOGLE_API_KEY", "g-test")
	t.Setenv("REGION_ANCHOR", "top-left")
	t.Setenv("REGION_WIDTH", "300")
	t.Setenv("CLASSIFY_CONCURRENCY", "4")
	t.Setenv("CLASSIFIER_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Classifier.Provider)
	assert.Equal(t, "top-left", cfg.Scan.RegionAnchor)
	assert.Equal(t, 300.0, cfg.Scan.RegionWidth)
	assert.Equal(t, 4, cfg.Classifier.Concurrency)
	assert.Equal(t, 2*time.Second, cfg.Classifier.Timeout)
}

func TestValidateRejectsBadPattern(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SHEET_PATTERN", "P[")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHEET_PATTERN")
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 7, parseInt("7", 1))
	assert.Equal(t, 1, parseInt("x", 1))
	assert.True(t, parseBool("YES"))
	assert.False(t, parseBool("0"))
	assert.Equal(t, 1.5, parseFloat("1.5", 0))
	assert.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
}
