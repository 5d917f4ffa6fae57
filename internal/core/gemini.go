package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const DefaultGeminiModel = "gemini-2.5-flash"

type GeminiGenerator struct {
	client    *genai.Client
	modelName string
	logger    *zap.SugaredLogger
}

func NewGeminiGenerator(ctx context.Context, apiKey, modelName string, logger *zap.SugaredLogger) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	return &GeminiGenerator{
		client:    client,
		modelName: modelName,
		logger:    logger,
	}, nil
}

func (g *GeminiGenerator) Close() {
	if g.client == nil {
		return
	}
	if err := g.client.Close(); err != nil {
		g.logger.Warnw("Error closing GenAI client", "error", err)
	} else {
		g.logger.Info("GenAI client closed.")
	}
}

func (g *GeminiGenerator) Generate(ctx context.Context, req Request, temperature float32) (string, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(req.Instruction)},
	}
	model.SetTemperature(temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(req.Content))
	if err != nil {
		// A blocked prompt or answer is a response without text, not an outage.
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			g.logger.Warnw("Gemini blocked the exchange", "reason", blocked.Error())
			return "", nil
		}
		return "", fmt.Errorf("gemini GenerateContent failed: %w", err)
	}
	return responseText(resp), nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}
