package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions API
// (OpenAI itself, or a local server exposing the same surface).
type OpenAIProvider struct {
	client *resty.Client
}

// NewOpenAI builds a provider against the given base URL. apiKey may be empty
// for local backends that do not authenticate.
func NewOpenAI(baseURL, apiKey string, timeout time.Duration) *OpenAIProvider {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if apiKey != "" {
		c.SetAuthToken(apiKey)
	}
	return &OpenAIProvider{client: c}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// Complete executes one chat completion call.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(&req).
		Post("/chat/completions")
	if err != nil {
		return nil, &BackendError{Op: "complete", Underlying: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &BackendError{
			Op:         "complete",
			StatusCode: resp.StatusCode(),
			Underlying: fmt.Errorf("%s", strings.TrimSpace(resp.String())),
		}
	}

	var cr chatResponse
	if err := json.Unmarshal(resp.Body(), &cr); err != nil {
		return nil, &BackendError{Op: "complete", Underlying: fmt.Errorf("decode response: %w", err)}
	}
	if len(cr.Choices) == 0 {
		return nil, &BackendError{Op: "complete", Underlying: fmt.Errorf("empty choices in response")}
	}
	return &Completion{Content: cr.Choices[0].Message.Content, Usage: cr.Usage}, nil
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
}

// Stream executes a streaming chat completion, invoking onChunk for every
// piece of text as it arrives. An error from onChunk aborts the stream.
func (p *OpenAIProvider) Stream(ctx context.Context, req CompletionRequest, onChunk ChunkFunc) (*Completion, error) {
	body := struct {
		CompletionRequest
		Stream        bool           `json:"stream"`
		StreamOptions map[string]any `json:"stream_options,omitempty"`
	}{
		CompletionRequest: req,
		Stream:            true,
		StreamOptions:     map[string]any{"include_usage": true},
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(&body).
		SetDoNotParseResponse(true).
		Post("/chat/completions")
	if err != nil {
		return nil, &BackendError{Op: "stream", Underlying: err}
	}
	raw := resp.RawBody()
	defer func() { _ = raw.Close() }()

	if resp.StatusCode() != http.StatusOK {
		return nil, &BackendError{Op: "stream", StatusCode: resp.StatusCode(), Underlying: fmt.Errorf("stream rejected")}
	}

	var (
		full  strings.Builder
		usage Usage
	)
	scanner := bufio.NewScanner(raw)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}
		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return nil, &BackendError{Op: "stream", Underlying: fmt.Errorf("decode chunk: %w", err)}
		}
		if chunk.Usage != nil {
			usage = *chunk.Usage
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		text := chunk.Choices[0].Delta.Content
		if text == "" {
			continue
		}
		full.WriteString(text)
		if err := onChunk(text); err != nil {
			return nil, &BackendError{Op: "stream", Underlying: fmt.Errorf("chunk callback: %w", err)}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &BackendError{Op: "stream", Underlying: err}
	}
	return &Completion{Content: full.String(), Usage: usage}, nil
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// Embed generates a dense vector for the given text.
func (p *OpenAIProvider) Embed(ctx context.Context, model, text string) ([]float32, error) {
	if text == "" {
		return nil, &BackendError{Op: "embed", Underlying: fmt.Errorf("empty text")}
	}
	reqBody := map[string]string{"model": model, "input": text}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(reqBody).
		Post("/embeddings")
	if err != nil {
		return nil, &BackendError{Op: "embed", Underlying: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &BackendError{Op: "embed", StatusCode: resp.StatusCode(), Underlying: fmt.Errorf("%s", strings.TrimSpace(resp.String()))}
	}

	var er embedResponse
	if err := json.Unmarshal(resp.Body(), &er); err != nil {
		return nil, &BackendError{Op: "embed", Underlying: fmt.Errorf("decode response: %w", err)}
	}
	if len(er.Data) == 0 {
		return nil, &BackendError{Op: "embed", Underlying: fmt.Errorf("empty embedding data")}
	}

	vec := make([]float32, len(er.Data[0].Embedding))
	for i, v := range er.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// HealthPing probes the backend with a model listing, which costs no tokens.
func (p *OpenAIProvider) HealthPing(ctx context.Context) error {
	resp, err := p.client.R().SetContext(ctx).Get("/models")
	if err != nil {
		return &BackendError{Op: "health", Underlying: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return &BackendError{Op: "health", StatusCode: resp.StatusCode(), Underlying: fmt.Errorf("%s", strings.TrimSpace(resp.String()))}
	}
	return nil
}

var _ Provider = (*OpenAIProvider)(nil)
