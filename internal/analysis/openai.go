package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/salesai/api-server-go/internal/errors"
)

const systemPrompt = `You are an expert sales trainer analyzing a sales conversation.
Provide detailed feedback on performance, strengths, areas for improvement,
and specific recommendations. Focus on: opening, rapport building,
needs discovery, value proposition, objection handling, and closing.
Return the analysis as a JSON object with the fields overall_score, feedback,
metrics, analysis, detailed_insights, improvement_trend and next_focus_areas.`

// OpenAIAnalyzer submits the transcript to the chat-completions API with a
// fixed prompt template and parses the structured JSON result.
type OpenAIAnalyzer struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewOpenAIAnalyzer(apiKey, model, baseURL string) *OpenAIAnalyzer {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &OpenAIAnalyzer{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (a *OpenAIAnalyzer) Name() string { return "openai" }

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, transcript []string) (*Report, error) {
	requestBody := map[string]any{
		"model": a.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": "Analyze this sales conversation transcript: " + strings.Join(transcript, "\n")},
		},
		"temperature":     0.7,
		"max_tokens":      1500,
		"response_format": map[string]string{"type": "json_object"},
	}

	payload, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.External("openai", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperrors.External("openai", fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty completion")
	}

	var report Report
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &report); err != nil {
		return nil, fmt.Errorf("parse analysis json: %w", err)
	}

	return &report, nil
}
