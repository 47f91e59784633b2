package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cyber-news-digest/internal/ai"
	"cyber-news-digest/models"
)

// Generator is the external collaborator that turns article text into
// derived artifacts. It may fail or time out; the caller treats that as a
// per-article condition, never a batch abort. Returned text is stored as-is,
// refusals included - the auditor's shape checks are the safety net.
type Generator interface {
	GenerateSummary(ctx context.Context, article models.Article) (string, error)
	GenerateTips(ctx context.Context, article models.Article) (models.TipsPayload, error)
}

// GeminiGenerator produces summaries and CISO do/don't tips with Gemini.
// Every call carries its own timeout.
type GeminiGenerator struct {
	client  *ai.GeminiClient
	timeout time.Duration
}

func NewGeminiGenerator(client *ai.GeminiClient, timeout time.Duration) *GeminiGenerator {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &GeminiGenerator{client: client, timeout: timeout}
}

func (g *GeminiGenerator) GenerateSummary(ctx context.Context, article models.Article) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.client.GenerateText(ctx, buildSummaryPrompt(article))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (g *GeminiGenerator) GenerateTips(ctx context.Context, article models.Article) (models.TipsPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.client.GenerateText(ctx, buildTipsPrompt(article))
	if err != nil {
		return models.TipsPayload{}, err
	}
	return ParseTipsReply(text)
}

func buildSummaryPrompt(article models.Article) string {
	return fmt.Sprintf(`You are a professional article summarizer. Summarize the following article in 3-4 concise paragraphs.
Focus on the key points, main insights, and important details.
Keep your summary informative but concise.

Title: %s
Date: %s
Source: %s

Content:
%s

Your summary:`, article.Title, article.Date, article.Source, truncateText(article.Content, 8000))
}

func buildTipsPrompt(article models.Article) string {
	return fmt.Sprintf(`You are acting as a Chief Information Security Officer (CISO) providing cybersecurity advice based on recent threats.
Based on the following article, create a list of practical "DO's" and "DON'Ts" for users to follow.
Focus on specific, actionable advice directly related to the article's topic and threat vector.

Article Title: %s
Article Content:
%s

Your response must be in the following JSON format:
{
  "summary": "Brief summary of the key security issue (2-3 sentences)",
  "dos": ["Do this", "Do that"],
  "donts": ["Don't do this", "Don't do that"]
}

Each "DO" and "DON'T" must be specific to the exact security threat discussed in the article, not generic advice.
Make sure to follow proper JSON syntax with quotes around all strings.`, article.Title, truncateText(article.Content, 8000))
}

// ParseTipsReply extracts the JSON object from a model reply, tolerating
// prose or markdown fences around it. Missing lists come back empty, never
// nil, so the payload always passes shape validation.
func ParseTipsReply(reply string) (models.TipsPayload, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end == -1 || end <= start {
		return models.TipsPayload{}, fmt.Errorf("no JSON object in generation reply")
	}

	var payload models.TipsPayload
	if err := json.Unmarshal([]byte(reply[start:end+1]), &payload); err != nil {
		return models.TipsPayload{}, fmt.Errorf("malformed JSON in generation reply: %w", err)
	}
	if payload.Summary == "" {
		return models.TipsPayload{}, fmt.Errorf("generation reply missing summary")
	}
	if payload.Dos == nil {
		payload.Dos = []string{}
	}
	if payload.Donts == nil {
		payload.Donts = []string{}
	}
	return payload, nil
}

func truncateText(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	return text[:maxLength] + "..."
}
