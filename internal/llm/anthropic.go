package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

const (
	DefaultAnthropicURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion    = "2023-06-01"
	defaultMaxTokens    = 4096
)

// AnthropicConfig holds cloud client configuration
type AnthropicConfig struct {
	APIKey      string
	BaseURL     string
	MaxTokens   int
	ChatTimeout time.Duration
	HTTPClient  *http.Client
}

// AnthropicClient streams replies from the Anthropic Messages API.
type AnthropicClient struct {
	apiKey     string
	url        string
	maxTokens  int
	httpClient *http.Client
}

func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.ChatTimeout
		if timeout <= 0 {
			timeout = DefaultChatTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &AnthropicClient{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		url:        firstNonEmpty(cfg.BaseURL, DefaultAnthropicURL),
		maxTokens:  maxTokens,
		httpClient: client,
	}
}

func (c *AnthropicClient) Name() string {
	return BackendCloud
}

// Available reports whether a credential was configured. No request is made.
func (c *AnthropicClient) Available() bool {
	return c.apiKey != ""
}

// Status implements Backend.
func (c *AnthropicClient) Status(ctx context.Context) BackendStatus {
	if !c.Available() {
		return BackendStatus{Detail: "not configured (set ANTHROPIC_API_KEY)"}
	}
	return BackendStatus{Available: true, Detail: "configured"}
}

type anthropicMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     anthropic.Model    `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
	System    string             `json:"system,omitempty"`
	Stream    bool               `json:"stream"`
}

// buildAnthropicRequest folds system-role messages into the system field,
// since the Messages API only accepts user and assistant turns.
func buildAnthropicRequest(req Request, maxTokens int) anthropicRequest {
	var system []string
	if req.System != "" {
		system = append(system, req.System)
	}
	messages := make([]anthropicMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		messages = append(messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}
	return anthropicRequest{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  messages,
		System:    strings.Join(system, "\n\n"),
		Stream:    true,
	}
}

// Stream posts the transcript and yields text deltas from the event stream.
func (c *AnthropicClient) Stream(ctx context.Context, req Request) Stream {
	if !c.Available() {
		return singleFragmentStream(ctx, ErrorFragment("API key not configured"))
	}

	body, err := json.Marshal(buildAnthropicRequest(req, c.maxTokens))
	if err != nil {
		return singleFragmentStream(ctx, ErrorFragment("failed to encode request: %v", err))
	}

	return newFragmentStream(ctx, func(ctx context.Context, emit func(Fragment) bool) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			emit(ErrorFragment("failed to create request: %v", err))
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "text/event-stream")
		httpReq.Header.Set("x-api-key", c.apiKey)
		httpReq.Header.Set("anthropic-version", anthropicVersion)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			emit(ErrorFragment("anthropic request failed: %v", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			emit(ErrorFragment("API error: %d", resp.StatusCode))
			return
		}

		decoder := ssestream.NewDecoder(resp)
		defer decoder.Close()
		for decoder.Next() {
			data := bytes.TrimSpace(decoder.Event().Data)
			if len(data) == 0 {
				continue
			}
			var event anthropic.MessageStreamEventUnion
			if err := json.Unmarshal(data, &event); err != nil {
				continue
			}
			switch event.Type {
			case "content_block_delta":
				if event.Delta.Text == "" {
					continue
				}
				if !emit(TextFragment(event.Delta.Text)) {
					return
				}
			case "message_stop":
				return
			case "error":
				emit(ErrorFragment("anthropic stream error: %s", truncate(string(data), 200)))
				return
			}
		}
		if err := decoder.Err(); err != nil && ctx.Err() == nil {
			emit(ErrorFragment("anthropic stream interrupted: %v", err))
		}
	})
}
