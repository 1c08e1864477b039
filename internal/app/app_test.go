package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/cache"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/config"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		LogLevel: "error",
		Scan: config.ScanConfig{
			RegionWidth:  200,
			RegionHeight: 100,
			RegionAnchor: "bottom-right",
			SheetPattern: `(?i)\bP[A-Za-z0-9]*\d+`,
			RenderDPI:    100,
			ThumbnailDPI: 40,
		},
		Classifier: config.ClassifierConfig{
			Provider:     config.ProviderOpenAI,
			OpenAIAPIKey: "test",
			OpenAIModel:  "gpt-4o",
			Timeout:      time.Second,
			MaxTokens:    100,
			MaxImageSide: 800,
			Concurrency:  1,
			CacheTTL:     time.Hour,
		},
	}
}

func TestNewScannerRejectsBadAnchor(t *testing.T) {
	scan := testConfig().Scan
	scan.RegionAnchor = "middle"

	_, err := NewScanner(scan, utils.NewNopLogger())
	assert.Error(t, err)
}

func TestNewModel(t *testing.T) {
	cfg := testConfig().Classifier

	m, err := NewModel(context.Background(), cfg, utils.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, "openai", m.Name())

	cfg.Provider = config.ProviderGemini
	_, err = NewModel(context.Background(), cfg, utils.NewNopLogger())
	assert.Error(t, err, "gemini needs an API key")

	cfg.Provider = "claude"
	_, err = NewModel(context.Background(), cfg, utils.NewNopLogger())
	assert.Error(t, err)
}

func TestNewCacheDefaultsToMemory(t *testing.T) {
	c, err := NewCache("", utils.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryClient{}, c)

	_, err = NewCache("not-a-url", utils.NewNopLogger())
	assert.Error(t, err)
}

func TestNewProcessor(t *testing.T) {
	p, cleanup, err := NewProcessor(context.Background(), testConfig(), utils.NewNopLogger())
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, p)
}
