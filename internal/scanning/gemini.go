package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultGeminiURL is the public Gemini REST endpoint
	DefaultGeminiURL = "https://generativelanguage.googleapis.com"
	// DefaultGeminiModel is used when no model name is configured
	DefaultGeminiModel = "gemini-2.5-flash"
)

// Gemini implements the Extractor interface against the Gemini REST API
type Gemini struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewGemini creates a new Gemini Extractor instance
func NewGemini(baseURL, apiKey, modelName string, client *http.Client) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if baseURL == "" {
		baseURL = DefaultGeminiURL
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	if client == nil {
		client = &http.Client{
			Timeout: 120 * time.Second, // PDFs with several pages can take a while
		}
	}

	return &Gemini{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   modelName,
		client:  client,
	}, nil
}

// geminiRequest represents the request body for generateContent
type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       *string     `json:"text,omitempty"`
	InlineData *geminiBlob `json:"inlineData,omitempty"`
}

type geminiBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

// geminiResponse represents the envelope returned by generateContent
type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Extract analyzes a bill and extracts the expense fields
func (g *Gemini) Extract(ctx context.Context, data []byte, mimeType string, categories []string) (*ExpenseData, error) {
	prompt := BuildPrompt(categories)
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{
					{Text: &prompt},
					{InlineData: &geminiBlob{
						MimeType: mimeType,
						Data:     base64.StdEncoding.EncodeToString(data),
					}},
				},
			},
		},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	query := url.Values{}
	query.Set("key", g.apiKey)
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?%s", g.baseURL, g.model, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("Calling Gemini", "model", g.model, "mime_type", mimeType, "file_size", len(data))
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling gemini API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(body))
	}

	var envelope geminiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	// Only the first part of the first candidate is considered
	var text *string
	if len(envelope.Candidates) > 0 && len(envelope.Candidates[0].Content.Parts) > 0 {
		text = envelope.Candidates[0].Content.Parts[0].Text
	}
	if text == nil {
		return nil, fmt.Errorf("%w, could not parse AI response: %s", ErrNoText, indentEnvelope(body))
	}

	expense, err := parseExpenseJSON(*text)
	if err != nil {
		return nil, fmt.Errorf("parsing expense data: %w", err)
	}
	return expense, nil
}

// Close is a no-op for the HTTP client
func (g *Gemini) Close() error {
	return nil
}

// indentEnvelope pretty-prints a raw response for error messages
func indentEnvelope(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
