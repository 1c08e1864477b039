package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/utils"
)

const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

type openAIModel struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	logger    *utils.Logger
	client    *http.Client
}

type ChatRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type ChatMessage struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ChatResponse struct {
	Choices []Choice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type Choice struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
}

// NewOpenAIModel talks to any OpenAI-compatible chat completions endpoint
// (OpenAI itself, OpenRouter, or a local gateway).
func NewOpenAIModel(apiKey, model, baseURL string, maxTokens int, logger *utils.Logger) Model {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &openAIModel{
		apiKey:    apiKey,
		model:     model,
		baseURL:   strings.TrimRight(baseURL, "/"),
		maxTokens: maxTokens,
		logger:    logger,
		client:    &http.Client{},
	}
}

func (m *openAIModel) Name() string { return "openai" }

func (m *openAIModel) Complete(ctx context.Context, prompt string, png []byte) (string, error) {
	reqBody := ChatRequest{
		Model:     m.model,
		MaxTokens: m.maxTokens,
		Messages: []ChatMessage{
			{
				Role: "user",
				Content: []ContentPart{
					{Type: "text", Text: prompt},
					{Type: "image_url", ImageURL: &ImageURL{
						URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
					}},
				},
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		m.logger.Error("Chat completions API error", "status", resp.StatusCode, "body", string(body))
		return "", fmt.Errorf("chat completions API returned status %d", resp.StatusCode)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("chat completions API error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return chatResp.Choices[0].Message.Content, nil
}
