package classifier

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"regexp"
	"strings"
	"time"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/cache"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/metrics"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/models"
	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/utils"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxTokens    = 100
	DefaultMaxImageSide = 800
)

// ErrUnparseable is returned when a model reply is not the expected JSON object.
var ErrUnparseable = errors.New("unparseable model response")

// Classifier labels one rendered page. Implementations never fail: any problem
// yields models.UnknownResult().
type Classifier interface {
	Classify(ctx context.Context, img image.Image) models.ClassificationResult
}

// Model is a vision-capable language model that answers one prompt about one
// PNG image with raw text.
type Model interface {
	Name() string
	Complete(ctx context.Context, prompt string, png []byte) (string, error)
}

const Prompt = `You are looking at one page of a mechanical drawing set, rendered as an image.

Task 1. Decide which kind of plumbing sheet this is:
- "Plumbing Drawing": the page is mostly diagrams, piping layouts, fixture symbols, schematics or annotations.
- "Plumbing Schedule": the page is mostly a table of rows and columns, such as an equipment or fixture schedule.

Task 2. Read the sheet title from the title block in the bottom right corner. It sits next to the sheet number (for example "PD101") and describes the page, e.g. "Plumbing Layout". If there is no title, use "Unknown".

Answer with a single JSON object and nothing else, no code fences:
{"classification": "Plumbing Drawing" or "Plumbing Schedule", "sheet_title": "<title or Unknown>"}`

type Options struct {
	Timeout      time.Duration
	MaxImageSide int
	Cache        cache.Client
	CacheTTL     time.Duration
}

// VisionClassifier sends each page to a Model once and degrades to Unknown on
// any failure. Results are optionally cached by image digest.
type VisionClassifier struct {
	model    Model
	timeout  time.Duration
	maxSide  int
	cache    cache.Client
	cacheTTL time.Duration
	logger   *utils.Logger
}

func New(model Model, opts Options, logger *utils.Logger) *VisionClassifier {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxImageSide <= 0 {
		opts.MaxImageSide = DefaultMaxImageSide
	}

	return &VisionClassifier{
		model:    model,
		timeout:  opts.Timeout,
		maxSide:  opts.MaxImageSide,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		logger:   logger,
	}
}

func (c *VisionClassifier) Classify(ctx context.Context, img image.Image) models.ClassificationResult {
	provider := c.model.Name()

	data, err := EncodePNG(img, c.maxSide)
	if err != nil {
		c.logger.Error("Failed to encode page image", "error", err)
		metrics.IncClassification(provider, string(models.ClassificationUnknown), "encode_error")
		return models.UnknownResult()
	}

	// One budget covers the cache read and the model call.
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	key := cacheKey(data)
	if result, ok := c.lookup(callCtx, key); ok {
		metrics.IncClassification(provider, string(result.Classification), "cache")
		return result
	}

	start := time.Now()
	raw, err := c.model.Complete(callCtx, Prompt, data)
	if err != nil {
		metrics.ObserveClassifier(provider, "error", time.Since(start))
		metrics.IncClassification(provider, string(models.ClassificationUnknown), "model")
		c.logger.Error("Vision model request failed", "provider", provider, "error", err)
		return models.UnknownResult()
	}

	result, err := ParseResponse(raw)
	if err != nil {
		metrics.ObserveClassifier(provider, "unparseable", time.Since(start))
		metrics.IncClassification(provider, string(models.ClassificationUnknown), "model")
		c.logger.Error("Failed to parse vision model response", "provider", provider, "error", err, "content", raw)
		return models.UnknownResult()
	}

	metrics.ObserveClassifier(provider, "ok", time.Since(start))
	metrics.IncClassification(provider, string(result.Classification), "model")
	c.store(ctx, key, result)

	return result
}

func (c *VisionClassifier) lookup(ctx context.Context, key string) (models.ClassificationResult, bool) {
	if c.cache == nil {
		return models.ClassificationResult{}, false
	}

	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn("Classification cache read failed", "error", err)
		}
		return models.ClassificationResult{}, false
	}

	var result models.ClassificationResult
	if err := json.Unmarshal(data, &result); err != nil || !result.Classification.Valid() {
		return models.ClassificationResult{}, false
	}
	return result, true
}

func (c *VisionClassifier) store(ctx context.Context, key string, result models.ClassificationResult) {
	if c.cache == nil || c.cacheTTL <= 0 || !result.Classification.Valid() {
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
		c.logger.Warn("Classification cache write failed", "error", err)
	}
}

func cacheKey(png []byte) string {
	sum := sha256.Sum256(png)
	return "classification:" + hex.EncodeToString(sum[:])
}

var fenceRe = regexp.MustCompile("(?i)```(?:json)?")

// stripCodeFences removes markdown code fences a model may wrap its JSON in.
func stripCodeFences(content string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(content, ""))
}

type modelReply struct {
	Classification *string `json:"classification"`
	SheetTitle     *string `json:"sheet_title"`
}

// ParseResponse decodes a model reply into a ClassificationResult. The reply
// must be a JSON object with exactly the fields classification and
// sheet_title, and the classification must be one of the two plumbing labels.
func ParseResponse(content string) (models.ClassificationResult, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(stripCodeFences(content))))
	dec.DisallowUnknownFields()

	var reply modelReply
	if err := dec.Decode(&reply); err != nil {
		return models.ClassificationResult{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if dec.More() {
		return models.ClassificationResult{}, fmt.Errorf("%w: trailing data after JSON object", ErrUnparseable)
	}
	if reply.Classification == nil || reply.SheetTitle == nil {
		return models.ClassificationResult{}, fmt.Errorf("%w: missing classification or sheet_title", ErrUnparseable)
	}

	label := models.Classification(strings.TrimSpace(*reply.Classification))
	if !label.Valid() {
		return models.ClassificationResult{}, fmt.Errorf("%w: unexpected classification %q", ErrUnparseable, label)
	}

	title := strings.TrimSpace(*reply.SheetTitle)
	if title == "" {
		title = models.UnknownTitle
	}

	return models.ClassificationResult{Classification: label, SheetTitle: title}, nil
}
