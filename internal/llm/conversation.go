package llm

import (
	"fmt"
	"sync"
)

// Conversation is the ordered, append-only transcript shared by all backends.
type Conversation struct {
	mu       sync.Mutex
	messages []Message
}

func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds msg to the end of the transcript.
func (c *Conversation) Append(msg Message) error {
	if !msg.Role.Valid() {
		return fmt.Errorf("conversation: invalid role %q", msg.Role)
	}
	if msg.Content == "" && msg.Role != RoleAssistant {
		return fmt.Errorf("conversation: empty %s message", msg.Role)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	return nil
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Clear truncates the transcript. Safe to call on an empty conversation.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}
