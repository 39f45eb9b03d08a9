package llm

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"
)

// MockTurn represents a single response turn from the mock backend.
type MockTurn struct {
	Text      string        // Text to emit (will be chunked for realistic streaming)
	Fragments []Fragment    // Emitted verbatim after Text, for scripting markers
	Delay     time.Duration // Optional delay before responding (for cancellation tests)
}

// MockBackend is a configurable backend for testing.
// It returns scripted responses and records all requests for verification.
type MockBackend struct {
	name      string
	available bool
	models    []string
	turns     []MockTurn
	turnIndex int
	Requests  []Request // Recorded requests for verification
	Pulled    []string
	Probes    int
	mu        sync.Mutex
}

// NewMockBackend creates an available mock backend with the given name.
func NewMockBackend(name string) *MockBackend {
	return &MockBackend{name: name, available: true}
}

func (m *MockBackend) Name() string {
	return m.name
}

// WithAvailable sets the reported availability and returns the backend for chaining.
func (m *MockBackend) WithAvailable(available bool) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
	return m
}

// WithModels sets the installed model list.
func (m *MockBackend) WithModels(models ...string) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = models
	return m
}

// AddTurn adds a response turn and returns the backend for chaining.
func (m *MockBackend) AddTurn(t MockTurn) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, t)
	return m
}

// AddTextResponse is a convenience method to add a simple text response.
func (m *MockBackend) AddTextResponse(text string) *MockBackend {
	return m.AddTurn(MockTurn{Text: text})
}

// Status implements Backend.
func (m *MockBackend) Status(ctx context.Context) BackendStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Probes++
	if !m.available {
		return BackendStatus{Detail: m.name + " offline"}
	}
	return BackendStatus{Available: true, Detail: m.name + " online"}
}

// Models implements LocalBackend.
func (m *MockBackend) Models() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.models...)
}

// Pull implements LocalBackend.
func (m *MockBackend) Pull(ctx context.Context, model string, progress func(string)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pulled = append(m.Pulled, model)
	m.models = append(m.models, model)
	if progress != nil {
		progress("success")
	}
	return nil
}

// RequestCount returns the number of recorded requests.
func (m *MockBackend) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// Stream implements Backend. Running out of turns yields an error marker.
func (m *MockBackend) Stream(ctx context.Context, req Request) Stream {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)

	if m.turnIndex >= len(m.turns) {
		m.mu.Unlock()
		return singleFragmentStream(ctx, ErrorFragment("mock backend: no more turns configured (expected turn %d, have %d)", m.turnIndex, len(m.turns)))
	}

	turn := m.turns[m.turnIndex]
	m.turnIndex++
	m.mu.Unlock()

	return newFragmentStream(ctx, func(ctx context.Context, emit func(Fragment) bool) {
		if turn.Delay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(turn.Delay):
			}
		}
		for _, chunk := range chunkText(turn.Text, 10) {
			if !emit(TextFragment(chunk)) {
				return
			}
		}
		for _, f := range turn.Fragments {
			if !emit(f) {
				return
			}
		}
	})
}

// chunkText splits text into chunks of approximately the given size.
// It tries to break at word boundaries when possible and never splits a rune.
func chunkText(text string, chunkSize int) []string {
	if len(text) == 0 {
		return nil
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= chunkSize {
			chunks = append(chunks, text)
			break
		}

		// Find a good break point (space) near the chunk size
		breakPoint := 0
		for i := chunkSize; i > chunkSize/2; i-- {
			if text[i] == ' ' {
				breakPoint = i + 1 // include the space in current chunk
				break
			}
		}
		if breakPoint == 0 {
			breakPoint = chunkSize
			for breakPoint > 0 && !utf8.RuneStart(text[breakPoint]) {
				breakPoint--
			}
			if breakPoint == 0 {
				_, breakPoint = utf8.DecodeRuneInString(text)
			}
		}

		chunks = append(chunks, text[:breakPoint])
		text = text[breakPoint:]
	}
	return chunks
}

var _ LocalBackend = (*MockBackend)(nil)
