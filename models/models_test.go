package models

import "testing"

func TestNewConversationSeedsSystemTurn(t *testing.T) {
	c := NewConversation("be helpful")
	if c.Len() != 1 {
		t.Fatalf("expected 1 turn, got %d", c.Len())
	}
	last, ok := c.Last()
	if !ok || last.Role != RoleSystem || last.Content != "be helpful" {
		t.Fatalf("unexpected seed turn: %+v", last)
	}

	if NewConversation("").Len() != 0 {
		t.Fatal("empty system prompt must not seed a turn")
	}
}

func TestReplacePending(t *testing.T) {
	c := NewConversation("sys")
	c.Append(RoleUser, "original")

	if !c.ReplacePending("augmented") {
		t.Fatal("expected pending user turn to be replaced")
	}
	if c.Len() != 2 {
		t.Fatalf("replace must not grow the log, got %d turns", c.Len())
	}
	last, _ := c.Last()
	if last.Role != RoleUser || last.Content != "augmented" {
		t.Fatalf("unexpected trailing turn: %+v", last)
	}
}

func TestReplacePendingRefusesNonUserTail(t *testing.T) {
	c := NewConversation("sys")
	if c.ReplacePending("nope") {
		t.Fatal("must refuse when last turn is not a user turn")
	}
	c.Append(RoleUser, "q")
	c.Append(RoleAssistant, "a")
	if c.ReplacePending("nope") {
		t.Fatal("must refuse when last turn is an assistant turn")
	}
	last, _ := c.Last()
	if last.Content != "a" {
		t.Fatalf("log was mutated: %+v", last)
	}
}

func TestTurnsReturnsCopy(t *testing.T) {
	c := NewConversation("sys")
	c.Append(RoleUser, "q")
	turns := c.Turns()
	turns[0].Content = "mutated"
	fresh := c.Turns()
	if fresh[0].Content != "sys" {
		t.Fatal("Turns must return a copy")
	}
}

func TestOutcome(t *testing.T) {
	if _, ok := NoContext().Context(); ok {
		t.Fatal("NoContext must carry no text")
	}
	text, ok := ExtractedContext("page text").Context()
	if !ok || text != "page text" {
		t.Fatalf("unexpected outcome: %q, %v", text, ok)
	}
}
