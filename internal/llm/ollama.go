package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	BackendLocal = "local"
	BackendCloud = "cloud"

	DefaultProbeTimeout = 2 * time.Second
	DefaultChatTimeout  = 120 * time.Second
)

// OllamaConfig holds Ollama client configuration
type OllamaConfig struct {
	Host         string
	ProbeTimeout time.Duration
	ChatTimeout  time.Duration
	HTTPClient   *http.Client
}

// OllamaClient speaks the Ollama HTTP API: NDJSON chat streaming plus model listing.
type OllamaClient struct {
	host         string
	probeTimeout time.Duration
	httpClient   *http.Client

	mu     sync.Mutex
	models []string
}

func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		chatTimeout := cfg.ChatTimeout
		if chatTimeout <= 0 {
			chatTimeout = DefaultChatTimeout
		}
		client = &http.Client{Timeout: chatTimeout}
	}
	return &OllamaClient{
		host:         strings.TrimRight(cfg.Host, "/"),
		probeTimeout: probeTimeout,
		httpClient:   client,
	}
}

func (c *OllamaClient) Name() string {
	return BackendLocal
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Probe checks whether the server is reachable and refreshes the cached model list.
// Failures are reported through the returned status, never as errors.
func (c *OllamaClient) Probe(ctx context.Context) BackendStatus {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return BackendStatus{Detail: fmt.Sprintf("invalid host %s: %v", c.host, err)}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return BackendStatus{Detail: fmt.Sprintf("ollama not reachable at %s: %v", c.host, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return BackendStatus{Detail: fmt.Sprintf("ollama returned status %d", resp.StatusCode)}
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return BackendStatus{Detail: fmt.Sprintf("failed to decode model list: %v", err)}
	}

	models := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		models = append(models, m.Name)
	}
	c.mu.Lock()
	c.models = models
	c.mu.Unlock()

	return BackendStatus{Available: true, Detail: fmt.Sprintf("online at %s (%d models)", c.host, len(models))}
}

// Status implements Backend.
func (c *OllamaClient) Status(ctx context.Context) BackendStatus {
	return c.Probe(ctx)
}

// Models returns the model list cached by the last successful probe.
func (c *OllamaClient) Models() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.models))
	copy(out, c.models)
	return out
}

type ollamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaChatChunk struct {
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

// Stream posts the transcript to /api/chat and yields content as it arrives.
func (c *OllamaClient) Stream(ctx context.Context, req Request) Stream {
	messages := req.Messages
	if req.System != "" {
		messages = append([]Message{SystemText(req.System)}, req.Messages...)
	}
	body, err := json.Marshal(ollamaChatRequest{
		Model:    req.Model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return singleFragmentStream(ctx, ErrorFragment("failed to encode request: %v", err))
	}

	return newFragmentStream(ctx, func(ctx context.Context, emit func(Fragment) bool) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(body))
		if err != nil {
			emit(ErrorFragment("failed to create request: %v", err))
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			emit(ErrorFragment("ollama request failed: %v", err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			emit(ErrorFragment("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk ollamaChatChunk
			if err := json.Unmarshal(line, &chunk); err != nil {
				continue
			}
			if chunk.Error != "" {
				emit(ErrorFragment("ollama: %s", chunk.Error))
				return
			}
			if chunk.Message != nil && chunk.Message.Content != "" {
				if !emit(TextFragment(chunk.Message.Content)) {
					return
				}
			}
			if chunk.Done {
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			emit(ErrorFragment("ollama stream interrupted: %v", err))
		}
	})
}

type ollamaPullStatus struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Pull downloads model, reporting each status line to progress.
func (c *OllamaClient) Pull(ctx context.Context, model string, progress func(status string)) error {
	body, err := json.Marshal(map[string]any{"name": model, "stream": true})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Pulls can take far longer than a chat reply, so only ctx bounds them.
	client := *c.httpClient
	client.Timeout = 0
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("pull request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var last string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		var st ollamaPullStatus
		if err := json.Unmarshal(scanner.Bytes(), &st); err != nil {
			continue
		}
		if st.Error != "" {
			return fmt.Errorf("pull %s: %s", model, st.Error)
		}
		if st.Status != "" && st.Status != last {
			last = st.Status
			if progress != nil {
				progress(st.Status)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("pull %s: %w", model, err)
	}
	if last != "success" {
		return fmt.Errorf("pull %s: stream ended without success", model)
	}
	return nil
}
