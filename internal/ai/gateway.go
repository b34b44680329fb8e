// Package ai wraps the Gemini API behind two typed operations: extracting
// a structured transaction from free text and categorizing a description.
// Responses are constrained by an explicit output schema and validated
// before they reach the caller.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModelName is used when no model is configured.
const DefaultModelName = "gemini-2.0-flash"

// Gateway calls the Gemini API with fixed instruction templates and
// required output schemas. It holds no state beyond the client and is a
// pure function of its input plus the prompt templates.
type Gateway struct {
	client  *genai.Client
	model   string
	retries int
}

// NewGateway creates a gateway. retries is the number of additional
// attempts after a failed call; the default configuration is 0 (fail
// fast) because extraction sits on a user-synchronous path.
func NewGateway(ctx context.Context, apiKey, model string, retries int) (*Gateway, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("ai: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	if retries < 0 {
		retries = 0
	}
	return &Gateway{client: client, model: model, retries: retries}, nil
}

const extractPrompt = `Anda adalah chatbot keuangan yang mengekstrak detail transaksi dari masukan pengguna dalam Bahasa Indonesia.

Berdasarkan masukan pengguna, ekstrak jenis transaksi (income atau expense), jumlah, kategori, dan deskripsi.

Masukan Pengguna: %s`

var extractSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"transaction_type": {
			Type:        genai.TypeString,
			Enum:        []string{"income", "expense"},
			Description: "Jenis transaksi.",
		},
		"amount": {
			Type:        genai.TypeNumber,
			Description: "Jumlah transaksi dalam Rupiah.",
		},
		"category": {
			Type:        genai.TypeString,
			Description: "Kategori transaksi.",
		},
		"description": {
			Type:        genai.TypeString,
			Description: "Deskripsi transaksi.",
		},
	},
	Required: []string{"transaction_type", "amount", "category", "description"},
}

// Extract parses a free-text financial statement into the four required
// transaction fields. A schema-conformant response that is still missing
// required content is reported as ErrIncompleteExtraction.
func (g *Gateway) Extract(ctx context.Context, userText string) (Extraction, error) {
	raw, err := g.generate(ctx, fmt.Sprintf(extractPrompt, userText), extractSchema)
	if err != nil {
		return Extraction{}, err
	}

	var out Extraction
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &out); err != nil {
		return Extraction{}, fmt.Errorf("ai: unmarshal extraction: %w\nraw response: %s", err, raw)
	}
	if err := out.Validate(); err != nil {
		return Extraction{}, err
	}
	return out, nil
}

const categorizePrompt = `You are a personal finance expert. Given a transaction description, you will categorize the transaction into one of the following categories:

%s.

You will also provide a confidence level (0-1) that the transaction was categorized correctly.

Transaction Description: %s`

var categorizeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"category": {
			Type:        genai.TypeString,
			Description: "The category that the transaction falls into.",
		},
		"confidence": {
			Type:        genai.TypeNumber,
			Description: "The confidence level (0-1) that the transaction was categorized correctly.",
		},
	},
	Required: []string{"category", "confidence"},
}

// Categorize returns a best-guess category label for a description plus a
// confidence score clamped to [0,1].
func (g *Gateway) Categorize(ctx context.Context, description string, categories []string) (Categorization, error) {
	prompt := fmt.Sprintf(categorizePrompt, strings.Join(categories, ", "), description)
	raw, err := g.generate(ctx, prompt, categorizeSchema)
	if err != nil {
		return Categorization{}, err
	}

	var out Categorization
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &out); err != nil {
		return Categorization{}, fmt.Errorf("ai: unmarshal categorization: %w\nraw response: %s", err, raw)
	}
	if out.Category == "" {
		return Categorization{}, fmt.Errorf("ai: categorization missing category")
	}
	out.Confidence = clamp01(out.Confidence)
	return out, nil
}

func (g *Gateway) generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}

	var lastErr error
	for attempt := 0; attempt <= g.retries; attempt++ {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
		if err != nil {
			lastErr = fmt.Errorf("ai: generate content: %w", err)
			continue
		}
		rawText := resp.Text()
		if rawText == "" {
			lastErr = fmt.Errorf("ai: empty response from model")
			continue
		}
		return rawText, nil
	}
	return "", lastErr
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the JSON-only instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// If there's still junk around the JSON object, keep only from the
	// first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
