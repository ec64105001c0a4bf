package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
	"github.com/shahabnazari/blackqm-theme-engine/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

// New builds an Ollama client. All outbound calls go through the resilience
// executor; nothing bypasses its rate limiter or circuit breaker.
func New(baseURL, genModel, embedModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// Embedder is the remote embedding provider.
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) ModelID() string { return e.client.embedModel }

func (e *Embedder) Remote() bool { return true }

func (e *Embedder) Embed(ctx context.Context, text string) (domain.Vector, error) {
	request := map[string]any{
		"model": e.client.embedModel,
		"input": []string{text},
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := e.client.guarded(ctx, "ollama.embed", func(callCtx context.Context) error {
		return e.client.postJSON(callCtx, "/api/embed", request, &response, "embed")
	})
	if err != nil {
		return nil, err
	}
	if len(response.Embeddings) == 0 || len(response.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return domain.Vector(response.Embeddings[0]), nil
}

// CodeExtractor is the remote LLM code extraction strategy.
type CodeExtractor struct {
	client *Client
}

func NewCodeExtractor(client *Client) *CodeExtractor {
	return &CodeExtractor{client: client}
}

func (c *CodeExtractor) Name() string { return "llm" }

func (c *CodeExtractor) ExtractCodes(ctx context.Context, source domain.SourceContent, target domain.CodeRange) ([]domain.InitialCode, error) {
	raw, err := c.client.generateJSON(ctx, buildCodeExtractionPrompt(source, target))
	if err != nil {
		return nil, err
	}

	var parsed []struct {
		Label   string `json:"label"`
		Excerpt string `json:"excerpt"`
	}
	if err := json.Unmarshal([]byte(extractJSONArray(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse code extraction json: %w", err)
	}

	codes := make([]domain.InitialCode, 0, len(parsed))
	for _, item := range parsed {
		label := strings.TrimSpace(item.Label)
		if label == "" {
			continue
		}
		codes = append(codes, domain.InitialCode{
			Label:    label,
			SourceID: source.ID,
			RawText:  strings.TrimSpace(item.Excerpt),
		})
		if target.Max > 0 && len(codes) == target.Max {
			break
		}
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("llm returned no usable codes")
	}
	return codes, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}

	var response struct {
		Response string `json:"response"`
	}
	err := c.guarded(ctx, "ollama.generate", func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", reqBody, &response, "generate")
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func (c *Client) guarded(ctx context.Context, operation string, call func(context.Context) error) error {
	if c.executor == nil {
		return wrapProviderError(operation, call(ctx))
	}
	return wrapProviderError(operation, c.executor.Execute(ctx, operation, call, classifyOllamaError))
}

// extractJSONArray salvages the array payload from sloppy model output.
func extractJSONArray(raw string) string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
