package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wellknownalpha/bloom-pos/internal/domain"
	"github.com/wellknownalpha/bloom-pos/pkg/httpclient"
	"github.com/wellknownalpha/bloom-pos/pkg/tracing"
)

const serviceGemini = "gemini"

// GeminiConfig configures the Generative Language API client.
type GeminiConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

// Gemini calls the generateContent endpoint with a JSON response schema
// matching domain.Suggestion.
type Gemini struct {
	doer     httpclient.Doer
	endpoint string
	apiKey   string
	logger   *slog.Logger
}

var _ Suggester = (*Gemini)(nil)

// NewGemini builds a client that sends requests through doer.
func NewGemini(doer httpclient.Doer, cfg GeminiConfig, logger *slog.Logger) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini: model is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("gemini: parse base url: %w", err)
	}

	return &Gemini{
		doer:     doer,
		endpoint: base.JoinPath("models", cfg.Model+":generateContent").String(),
		apiKey:   cfg.APIKey,
		logger:   logger,
	}, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type schema struct {
	Type        string            `json:"type"`
	Description string            `json:"description,omitempty"`
	Properties  map[string]schema `json:"properties,omitempty"`
	Required    []string          `json:"required,omitempty"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType"`
	ResponseSchema   schema `json:"responseSchema"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

type suggestionOutput struct {
	ArrangementDescription string `json:"arrangementDescription"`
	Reasoning              string `json:"reasoning"`
}

var suggestionSchema = schema{
	Type: "OBJECT",
	Properties: map[string]schema{
		"arrangementDescription": {
			Type:        "STRING",
			Description: "A detailed description of the suggested floral arrangement, including flower types, colors, vase type, and style.",
		},
		"reasoning": {
			Type:        "STRING",
			Description: "The reasoning behind the suggested arrangement based on the occasion, customer preferences and available inventory.",
		},
	},
	Required: []string{"arrangementDescription", "reasoning"},
}

// Suggest sends one generateContent request. Any transport, upstream or
// decoding failure is returned wrapped in domain.ErrSuggestionUnavailable.
func (g *Gemini) Suggest(ctx context.Context, req domain.SuggestionRequest) (domain.Suggestion, error) {
	ctx, span := tracing.Tracer("bloom-pos/assistant").Start(ctx, "gemini.generateContent")
	defer span.End()

	out, err := g.generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Suggestion{}, fmt.Errorf("%w: %w", domain.ErrSuggestionUnavailable, err)
	}
	span.SetAttributes(attribute.Int("suggestion.description_length", len(out.ArrangementDescription)))
	return out, nil
}

func (g *Gemini) generate(ctx context.Context, req domain.SuggestionRequest) (domain.Suggestion, error) {
	prompt, err := RenderPrompt(req)
	if err != nil {
		return domain.Suggestion{}, err
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   suggestionSchema,
		},
	})
	if err != nil {
		return domain.Suggestion{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Suggestion{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.doer.Do(httpReq)
	if err != nil {
		return domain.Suggestion{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Suggestion{}, httpclient.ParseResponseError(resp, serviceGemini)
	}
	defer resp.Body.Close()

	var parsed generateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&parsed); err != nil {
		return domain.Suggestion{}, fmt.Errorf("decode response: %w", err)
	}
	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return domain.Suggestion{}, fmt.Errorf("prompt blocked: %s", parsed.PromptFeedback.BlockReason)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return domain.Suggestion{}, fmt.Errorf("response has no candidates")
	}

	var text strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	var out suggestionOutput
	if err := json.Unmarshal([]byte(text.String()), &out); err != nil {
		return domain.Suggestion{}, fmt.Errorf("decode suggestion: %w", err)
	}

	s := domain.Suggestion{ArrangementDescription: out.ArrangementDescription, Reasoning: out.Reasoning}
	if !s.Complete() {
		g.logger.WarnContext(ctx, "incomplete suggestion from model",
			slog.String("finish_reason", parsed.Candidates[0].FinishReason),
		)
		return domain.Suggestion{}, fmt.Errorf("suggestion is missing fields")
	}
	return s, nil
}
