package classifier

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

type geminiModel struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

func NewGeminiModel(ctx context.Context, apiKey, model string, maxTokens int) (Model, error) {
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiModel{client: c, model: model, maxTokens: int32(maxTokens)}, nil
}

func (g *geminiModel) Name() string { return "gemini" }

func (g *geminiModel) Complete(ctx context.Context, prompt string, png []byte) (string, error) {
	content := &genai.Content{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: prompt},
			{InlineData: &genai.Blob{MIMEType: "image/png", Data: png}},
		},
	}

	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{content}, &genai.GenerateContentConfig{
		MaxOutputTokens:  g.maxTokens,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", errors.New("empty gemini response")
	}
	return text, nil
}
