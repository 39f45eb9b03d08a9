package llm

import "testing"

func TestConversationAppendOrder(t *testing.T) {
	c := NewConversation()
	if err := c.Append(UserText("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Append(AssistantText("hi")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len=%d, want 2", len(msgs))
	}
	if msgs[0] != UserText("hello") || msgs[1] != AssistantText("hi") {
		t.Fatalf("unexpected order: %+v", msgs)
	}

	// Mutating the copy must not affect the store.
	msgs[0].Content = "changed"
	if c.Messages()[0].Content != "hello" {
		t.Fatalf("Messages() returned shared storage")
	}
}

func TestConversationRejectsInvalidMessages(t *testing.T) {
	c := NewConversation()
	if err := c.Append(Message{Role: "robot", Content: "beep"}); err == nil {
		t.Fatalf("expected error for invalid role")
	}
	if err := c.Append(UserText("")); err == nil {
		t.Fatalf("expected error for empty user message")
	}
	if err := c.Append(AssistantText("")); err != nil {
		t.Fatalf("empty assistant reply should be allowed: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("len=%d, want 1", c.Len())
	}
}

func TestConversationClearIsIdempotent(t *testing.T) {
	c := NewConversation()
	_ = c.Append(UserText("hello"))

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("len=%d after first clear, want 0", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("len=%d after second clear, want 0", c.Len())
	}
}
