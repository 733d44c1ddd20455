package scanning

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const jsonOnlyInstruction = "Respond with a single JSON object only, without markdown or commentary."

// GenAI implements the Extractor interface using the Google Gemini SDK
type GenAI struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGenAI creates a new SDK backed Extractor instance
func NewGenAI(ctx context.Context, apiKey string, modelName string) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	// This SDK release has no JSON response mode; the instruction asks for bare JSON
	// and parseExpenseJSON strips any fences the model adds anyway.
	model := client.GenerativeModel(modelName)
	model.SetCandidateCount(1)
	model.SetTemperature(0)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(jsonOnlyInstruction)},
	}

	return &GenAI{
		client: client,
		model:  model,
	}, nil
}

// Extract analyzes a bill and extracts the expense fields
func (g *GenAI) Extract(ctx context.Context, data []byte, mimeType string, categories []string) (*ExpenseData, error) {
	// Blob passes the full MIME type through, so PDFs need no conversion
	parts := []genai.Part{
		genai.Text(BuildPrompt(categories)),
		genai.Blob{MIMEType: mimeType, Data: data},
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	text, ok := firstText(resp)
	if !ok {
		envelope, _ := json.MarshalIndent(resp, "", "  ")
		return nil, fmt.Errorf("%w, could not parse AI response: %s", ErrNoText, envelope)
	}

	expense, err := parseExpenseJSON(text)
	if err != nil {
		return nil, fmt.Errorf("parsing expense data: %w", err)
	}
	return expense, nil
}

// firstText returns the text of the first part of the first candidate
func firstText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return "", false
	}
	text, ok := parts[0].(genai.Text)
	return string(text), ok
}

// Close closes the Gemini client
func (g *GenAI) Close() error {
	return g.client.Close()
}
