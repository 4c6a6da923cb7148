package memory

import "time"

// Roles recorded in a session history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Caps for the bounded sequences a session carries. Oldest entries are
// dropped first once a cap is exceeded.
const (
	MaxTopics        = 10
	MaxTones         = 10
	MaxHistory       = 20
	MaxEntities      = 12
	MaxKeyMoments    = 8
	KeyMomentExcerpt = 120
)

// Turn is a single utterance within a session history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Entities groups the canonical labels extracted from user turns. Each
// list is deduplicated globally and ordered by first appearance.
type Entities struct {
	People     []string `json:"people"`
	Emotions   []string `json:"emotions"`
	Situations []string `json:"situations"`
}

// Session is the unit of conversational continuity. It lives in process
// memory only and is never persisted.
type Session struct {
	ID            string    `json:"id"`
	UserName      string    `json:"userName,omitempty"`
	Topics        []string  `json:"topics"`
	EmotionalTone []string  `json:"emotionalTone"`
	History       []Turn    `json:"history"`
	Entities      Entities  `json:"entities"`
	KeyMoments    []string  `json:"keyMoments"`
	CreatedAt     time.Time `json:"createdAt"`
}
