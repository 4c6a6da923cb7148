package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soultalk/backend/internal/analysis/entity"
	memorymodel "github.com/soultalk/backend/internal/model/memory"
)

// ErrSessionNotFound signals an unknown session id on read operations.
// Mutating operations deliberately ignore unknown ids instead (see
// AppendMessage and UpdateSession).
var ErrSessionNotFound = errors.New("session not found")

// Service owns the per-session memory records. It is the only mutable
// shared state in the backend; everything else is a stateless call out.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

// sessionEntry serializes access per session so concurrent turns on
// unrelated sessions never block each other. The outer map lock is only
// held for lookups and inserts.
type sessionEntry struct {
	mu      sync.Mutex
	session memorymodel.Session
}

// NewService bootstraps the in-memory session store, constructed once at
// process start and injected into handlers.
func NewService() *Service {
	return &Service{sessions: make(map[string]*sessionEntry)}
}

// CreateSession provisions a session with the baseline memory seed. New
// sessions are intentionally not empty: they start with one person, one
// emotion, one situation and one key moment already present.
func (s *Service) CreateSession(_ context.Context) (memorymodel.Session, error) {
	session := memorymodel.Session{
		ID:            uuid.NewString(),
		Topics:        []string{},
		EmotionalTone: []string{},
		History:       []memorymodel.Turn{},
		Entities: memorymodel.Entities{
			People:     []string{"father"},
			Emotions:   []string{"stress"},
			Situations: []string{"family tension"},
		},
		KeyMoments: []string{"User has mentioned missing their father."},
		CreatedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = &sessionEntry{session: session}
	s.mu.Unlock()

	return cloneSession(session), nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (memorymodel.Session, error) {
	entry, ok := s.lookup(sessionID)
	if !ok {
		return memorymodel.Session{}, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return cloneSession(entry.session), nil
}

// Update carries the optional per-turn session updates. Empty fields are
// skipped rather than clearing existing state.
type Update struct {
	UserName string
	Topic    string
	Tone     string
}

// UpdateSession applies each present field independently. Unknown ids are
// ignored on purpose: the caller already decided whether to create a
// session for this turn, and a stale id must not spawn a phantom one.
func (s *Service) UpdateSession(_ context.Context, sessionID string, update Update) {
	entry, ok := s.lookup(sessionID)
	if !ok {
		return
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	session := &entry.session
	if update.UserName != "" {
		session.UserName = update.UserName
	}
	if update.Topic != "" && !containsRecent(session.Topics, update.Topic, 5) {
		session.Topics = appendCapped(session.Topics, update.Topic, memorymodel.MaxTopics)
	}
	if update.Tone != "" {
		session.EmotionalTone = appendCapped(session.EmotionalTone, update.Tone, memorymodel.MaxTones)
	}
}

// AppendMessage records a turn in the session history. User turns also
// feed the entity extractor and the entity/key-moment merge. Appending to
// an unknown session is a silent no-op, same policy as UpdateSession.
func (s *Service) AppendMessage(_ context.Context, sessionID, role, content string) {
	entry, ok := s.lookup(sessionID)
	if !ok {
		return
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	session := &entry.session
	session.History = append(session.History, memorymodel.Turn{Role: role, Content: content})
	if len(session.History) > memorymodel.MaxHistory {
		session.History = session.History[len(session.History)-memorymodel.MaxHistory:]
	}

	if role != memorymodel.RoleUser || strings.TrimSpace(content) == "" {
		return
	}

	extracted := entity.Extract(content)
	session.Entities.People = mergeUnique(session.Entities.People, extracted.People, memorymodel.MaxEntities)
	session.Entities.Emotions = mergeUnique(session.Entities.Emotions, extracted.Emotions, memorymodel.MaxEntities)
	session.Entities.Situations = mergeUnique(session.Entities.Situations, extracted.Situations, memorymodel.MaxEntities)

	// Turns that triggered no entity at all are not memory-worthy.
	if !extracted.Empty() {
		moment := "User said: " + truncate(content, memorymodel.KeyMomentExcerpt)
		session.KeyMoments = mergeUnique(session.KeyMoments, []string{moment}, memorymodel.MaxKeyMoments)
	}
}

// GetHistory returns a copy of the session's sliding history window.
func (s *Service) GetHistory(_ context.Context, sessionID string) ([]memorymodel.Turn, error) {
	entry, ok := s.lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	history := make([]memorymodel.Turn, len(entry.session.History))
	copy(history, entry.session.History)
	return history, nil
}

// GetMemoryContext renders the session memory into the prompt-context
// block. The error lets callers tell an absent session apart from a
// session whose memory renders empty.
func (s *Service) GetMemoryContext(_ context.Context, sessionID string) (string, error) {
	entry, ok := s.lookup(sessionID)
	if !ok {
		return "", ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return RenderContext(entry.session), nil
}

func (s *Service) lookup(sessionID string) (*sessionEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[sessionID]
	return entry, ok
}

// mergeUnique appends each non-empty incoming item not already present,
// then keeps the last limit entries so the most recently added survive
// eviction. Already-present items never move or duplicate.
func mergeUnique(existing, incoming []string, limit int) []string {
	merged := append([]string(nil), existing...)
	for _, item := range incoming {
		if item == "" || contains(merged, item) {
			continue
		}
		merged = append(merged, item)
	}
	if len(merged) > limit {
		merged = merged[len(merged)-limit:]
	}
	return merged
}

// appendCapped is the simpler window policy used for topics and tone:
// append unconditionally, truncate to the last limit entries.
func appendCapped(items []string, item string, limit int) []string {
	items = append(items, item)
	if len(items) > limit {
		items = items[len(items)-limit:]
	}
	return items
}

// containsRecent reports whether item appears among the last window
// entries. Older duplicates do not count, so a topic may legitimately
// reappear after falling out of the window.
func containsRecent(items []string, item string, window int) bool {
	start := len(items) - window
	if start < 0 {
		start = 0
	}
	return contains(items[start:], item)
}

func contains(items []string, item string) bool {
	for _, existing := range items {
		if existing == item {
			return true
		}
	}
	return false
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}

func cloneSession(session memorymodel.Session) memorymodel.Session {
	cloned := session
	cloned.Topics = append([]string(nil), session.Topics...)
	cloned.EmotionalTone = append([]string(nil), session.EmotionalTone...)
	cloned.History = append([]memorymodel.Turn(nil), session.History...)
	cloned.Entities.People = append([]string(nil), session.Entities.People...)
	cloned.Entities.Emotions = append([]string(nil), session.Entities.Emotions...)
	cloned.Entities.Situations = append([]string(nil), session.Entities.Situations...)
	cloned.KeyMoments = append([]string(nil), session.KeyMoments...)
	return cloned
}
