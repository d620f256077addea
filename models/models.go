package models

// Role tags a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is an ordered, append-mostly log of turns. The single
// sanctioned non-append mutation is rewriting the trailing pending user
// turn, so the log never holds two consecutive user turns.
type Conversation struct {
	turns []Turn
}

// NewConversation starts a conversation, seeding a system turn when the
// system prompt is non-empty.
func NewConversation(systemPrompt string) *Conversation {
	c := &Conversation{}
	if systemPrompt != "" {
		c.turns = append(c.turns, Turn{Role: RoleSystem, Content: systemPrompt})
	}
	return c
}

func (c *Conversation) Append(role Role, content string) {
	c.turns = append(c.turns, Turn{Role: role, Content: content})
}

// ReplacePending rewrites the content of the trailing user turn. It reports
// false, leaving the log untouched, when the last turn is not a user turn.
func (c *Conversation) ReplacePending(content string) bool {
	if len(c.turns) == 0 || c.turns[len(c.turns)-1].Role != RoleUser {
		return false
	}
	c.turns[len(c.turns)-1].Content = content
	return true
}

// Last returns the most recent turn, if any.
func (c *Conversation) Last() (Turn, bool) {
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}

func (c *Conversation) Len() int { return len(c.turns) }

// Turns returns a copy of the log; callers cannot mutate the conversation
// through it.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// SearchCandidate is a single search-result entry. Ordinal is the position
// within the current in-memory candidate list, not a stable identifier.
type SearchCandidate struct {
	Ordinal int    `json:"ordinal"`
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Outcome is the value a pipeline run hands to the response stage: either
// extracted page context or nothing.
type Outcome struct {
	text string
	ok   bool
}

func ExtractedContext(text string) Outcome { return Outcome{text: text, ok: true} }

func NoContext() Outcome { return Outcome{} }

// Context returns the extracted text and whether the run produced any.
func (o Outcome) Context() (string, bool) { return o.text, o.ok }
