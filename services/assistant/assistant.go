// Package assistant wraps Gemini for passage summaries and natural-language
// verse search. Both calls ask for JSON constrained by a response schema.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"scripture-api-go/logcolors"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const (
	defaultModel     = "gemini-3-flash-preview"
	responseMIMEJSON = "application/json"

	summarySystemInstruction = "Você é um teólogo e estudioso bíblico experiente. " +
		"Forneça resumos claros, precisos e enriquecedores. " +
		"Use linguagem acessível mas respeitosa. O retorno deve ser JSON."
	searchSystemInstruction = "Retorne apenas um array JSON com objetos contendo " +
		"'reference' (ex: João 3:16) e 'reason' (breve explicação)."
)

var (
	// ErrDisabled is returned when no API key is configured.
	ErrDisabled = errors.New("assistant disabled: no api key configured")
	// ErrEmptyInput is returned for a blank reference, passage text or query.
	ErrEmptyInput = errors.New("assistant: empty input")
	// ErrMalformedResponse is returned when the model reply is empty or is not
	// the JSON shape that was requested.
	ErrMalformedResponse = errors.New("assistant: malformed model response")
)

// Summary is the structured summary of a passage.
type Summary struct {
	Title             string   `json:"title"`
	Content           string   `json:"content"`
	KeyPoints         []string `json:"keyPoints"`
	HistoricalContext string   `json:"historicalContext"`
}

// SearchResult is one reference suggested for a search query.
type SearchResult struct {
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

// Config configures the Gemini client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

type modelsClient interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Assistant issues summary and search requests. A nil *Assistant is valid and
// reports ErrDisabled from every call.
type Assistant struct {
	models modelsClient
	model  string
}

// New builds an Assistant backed by the Gemini API. It returns ErrDisabled
// when cfg has no API key.
func New(ctx context.Context, cfg Config) (*Assistant, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrDisabled
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("new gemini client: %w", err)
	}
	if client == nil || client.Models == nil {
		return nil, fmt.Errorf("new gemini client: models client is nil")
	}

	return newWithModels(client.Models, cfg.Model), nil
}

func newWithModels(models modelsClient, model string) *Assistant {
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultModel
	}
	return &Assistant{models: models, model: model}
}

// Enabled reports whether requests will reach the model.
func (a *Assistant) Enabled() bool {
	return a != nil && a.models != nil
}

// Model returns the model name used for requests.
func (a *Assistant) Model() string {
	if a == nil {
		return ""
	}
	return a.model
}

// Summarize asks for a structured summary of the passage text identified by
// reference, e.g. "João 3:1-21".
func (a *Assistant) Summarize(ctx context.Context, reference, text string) (*Summary, error) {
	if !a.Enabled() {
		return nil, ErrDisabled
	}
	reference = strings.TrimSpace(reference)
	if reference == "" || strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	prompt := fmt.Sprintf("Resuma o seguinte trecho da Bíblia (%s):\n\n%s", reference, text)
	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction(summarySystemInstruction),
		ResponseMIMEType:  responseMIMEJSON,
		ResponseSchema:    summarySchema(),
	}

	raw, err := a.generate(ctx, prompt, config)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", reference, err)
	}
	if raw == "" {
		return nil, fmt.Errorf("summarize %s: %w: empty reply", reference, ErrMalformedResponse)
	}

	var summary Summary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		log.Errorf("%s Could not parse summary for %s: %v", logcolors.LogSummary, reference, err)
		return nil, fmt.Errorf("summarize %s: %w: %v", reference, ErrMalformedResponse, err)
	}
	if summary.KeyPoints == nil {
		summary.KeyPoints = []string{}
	}

	log.Infof("%s Summarized %s", logcolors.LogSummary, reference)
	return &summary, nil
}

// Search asks where scripture speaks about query. An unparsable reply yields an
// empty result and no error.
func (a *Assistant) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if !a.Enabled() {
		return nil, ErrDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyInput
	}

	prompt := fmt.Sprintf("Onde na Bíblia fala sobre: %q? Retorne uma lista de referências precisas e o motivo de cada uma ser relevante.", query)
	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction(searchSystemInstruction),
		ResponseMIMEType:  responseMIMEJSON,
		ResponseSchema:    searchSchema(),
	}

	raw, err := a.generate(ctx, prompt, config)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	results := []SearchResult{}
	if raw == "" {
		return results, nil
	}
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		log.Warnf("%s Discarding unparsable search reply for %q: %v", logcolors.LogSearch, query, err)
		return []SearchResult{}, nil
	}

	log.Infof("%s %d references for %q", logcolors.LogSearch, len(results), query)
	return results, nil
}

func (a *Assistant) generate(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	resp, err := a.models.GenerateContent(ctx, a.model, genai.Text(prompt), config)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(responseText(resp)), nil
}

// responseText joins the non-thought text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}

func systemInstruction(text string) *genai.Content {
	return &genai.Content{
		Parts: []*genai.Part{
			{Text: text},
		},
	}
}

func summarySchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":             {Type: genai.TypeString},
			"content":           {Type: genai.TypeString},
			"keyPoints":         {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"historicalContext": {Type: genai.TypeString},
		},
		Required: []string{"title", "content", "keyPoints", "historicalContext"},
	}
}

func searchSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"reference": {Type: genai.TypeString},
				"reason":    {Type: genai.TypeString},
			},
			Required: []string{"reference", "reason"},
		},
	}
}
