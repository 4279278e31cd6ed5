// Package extract converts uploaded documents (PDF, office formats, images)
// into plain text using a Gemini multimodal model. The extracted text feeds
// the ingestion pipeline; plain-text uploads bypass this package entirely.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/docfold/docfold/internal/logging"
)

// DefaultModel is the extraction model used when EXTRACT_MODEL is unset.
// Flash-class models are sufficient for transcription and far cheaper than
// the pro tier.
const DefaultModel = "gemini-1.5-flash"

// extractionPrompt instructs the model to transcribe rather than summarize.
// The JSON envelope makes the output machine-parseable; parseExtraction
// falls back to the raw output when the model ignores the envelope.
const extractionPrompt = `Extract the complete text content of the attached document.
Transcribe it faithfully: keep headings, lists, and table contents, and do not summarize, translate, or add commentary.
Respond with a single JSON object of the form {"text": "<the extracted text>"} and nothing else.`

// generator is the slice of the Gemini client the Extractor needs. Tests
// inject a fake.
type generator interface {
	generate(ctx context.Context, data []byte, mediaType string) (string, error)
}

// geminiGenerator calls the Gemini API through the google.golang.org/genai
// client.
type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) generate(ctx context.Context, data []byte, mediaType string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(extractionPrompt),
			genai.NewPartFromBytes(data, mediaType),
		}, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("extract: generation failed: %w", err)
	}
	return resp.Text(), nil
}

// Extractor converts document bytes into plain text.
type Extractor struct {
	gen   generator
	model string
}

// New constructs an Extractor around an existing Gemini client.
func New(client *genai.Client, model string) (*Extractor, error) {
	if client == nil {
		return nil, fmt.Errorf("extract: client must not be nil")
	}
	if model == "" {
		model = DefaultModel
	}
	return &Extractor{gen: &geminiGenerator{client: client, model: model}, model: model}, nil
}

// NewFromEnv constructs an Extractor from environment variables.
// Requires GOOGLE_API_KEY; EXTRACT_MODEL overrides DefaultModel.
func NewFromEnv(ctx context.Context) (*Extractor, error) {
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("extract: GOOGLE_API_KEY is required for document extraction")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("extract: failed to create Gemini client: %w", err)
	}
	return New(client, os.Getenv("EXTRACT_MODEL"))
}

// Extract returns the plain text content of a document. mediaType must be a
// MIME type the model accepts; use InferMediaType when the caller only has a
// filename.
func (e *Extractor) Extract(ctx context.Context, data []byte, mediaType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("extract: document is empty")
	}
	if !IsSupportedMediaType(mediaType) {
		return "", fmt.Errorf("extract: unsupported media type %q", mediaType)
	}

	raw, err := e.gen.generate(ctx, data, mediaType)
	if err != nil {
		return "", err
	}

	text, parsed := parseExtraction(raw)
	logging.FromContext(ctx).Debug("extract: document extracted",
		slog.String("model", e.model),
		slog.String("media_type", mediaType),
		slog.Int("bytes_in", len(data)),
		slog.Int("chars_out", len(text)),
		slog.Bool("json_envelope", parsed),
	)
	return text, nil
}

// parseExtraction unwraps the {"text": ...} envelope from the model output.
// Models frequently wrap JSON in markdown fences or skip the envelope
// entirely, so anything that does not parse is returned as-is. The second
// return reports whether the envelope was honored.
func parseExtraction(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	var envelope struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(s), &envelope); err == nil && envelope.Text != "" {
		return envelope.Text, true
	}
	return strings.TrimSpace(raw), false
}
