package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Role identifies who authored a message in the conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is a single turn in the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func UserText(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

func AssistantText(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

func SystemText(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// Mode selects how queries are routed between backends.
type Mode string

const (
	ModeLocal Mode = "local"
	ModeCloud Mode = "cloud"
	ModeAuto  Mode = "auto"
)

var ErrInvalidMode = errors.New("invalid mode")

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeLocal, ModeCloud, ModeAuto:
		return true
	}
	return false
}

// ParseMode converts user input into a Mode.
func ParseMode(s string) (Mode, error) {
	if m := Mode(strings.ToLower(strings.TrimSpace(s))); m.Valid() {
		return m, nil
	}
	return "", fmt.Errorf("%w: %q (valid: local, cloud, auto)", ErrInvalidMode, s)
}

// Description returns a short human label for the mode.
func (m Mode) Description() string {
	switch m {
	case ModeLocal:
		return "LOCAL (Ollama - private, unrestricted)"
	case ModeCloud:
		return "CLOUD (Claude - maximum capability)"
	case ModeAuto:
		return "AUTO (intelligent routing)"
	}
	return string(m)
}

// FragmentKind distinguishes content from in-band signals.
type FragmentKind int

const (
	FragmentText FragmentKind = iota
	FragmentNotice
	FragmentError
)

// Fragment is one incremental piece of a streamed response.
type Fragment struct {
	Kind FragmentKind
	Text string
}

func TextFragment(text string) Fragment {
	return Fragment{Kind: FragmentText, Text: text}
}

func NoticeFragment(format string, args ...any) Fragment {
	return Fragment{Kind: FragmentNotice, Text: fmt.Sprintf(format, args...)}
}

func ErrorFragment(format string, args ...any) Fragment {
	return Fragment{Kind: FragmentError, Text: fmt.Sprintf(format, args...)}
}

// IsMarker reports whether the fragment is a notice or error rather than content.
func (f Fragment) IsMarker() bool {
	return f.Kind != FragmentText
}

// String renders the fragment as it is recorded in the transcript.
func (f Fragment) String() string {
	switch f.Kind {
	case FragmentNotice:
		return "[notice: " + f.Text + "]\n"
	case FragmentError:
		return "[error: " + f.Text + "]"
	}
	return f.Text
}

// BackendStatus is the result of a single availability check.
type BackendStatus struct {
	Available bool
	Detail    string
}

// Request is what the engine hands to a backend for one streamed reply.
type Request struct {
	Messages []Message
	Model    string
	// System is the backend-specific system prompt. Empty means none.
	System string
}

// Stream is a lazy, finite, non-restartable sequence of fragments.
// Recv returns io.EOF once the sequence is exhausted.
type Stream interface {
	Recv() (Fragment, error)
	Close() error
}

// Backend is implemented by both inference clients.
type Backend interface {
	Name() string
	Status(ctx context.Context) BackendStatus
	Stream(ctx context.Context, req Request) Stream
}
