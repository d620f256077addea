package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/websage/models"
)

// Session owns one conversation. Exactly one exchange may mutate it at a
// time; the mutex serializes concurrent callers in serve mode. There is no
// cross-session sharing.
type Session struct {
	id        string
	createdAt time.Time

	mu   sync.Mutex
	conv *models.Conversation
}

func (s *Session) ID() string { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Turns returns a copy of the conversation log.
func (s *Session) Turns() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Turns()
}

// Store keeps sessions in memory only; nothing survives a restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

func (st *Store) Create(systemPrompt string) *Session {
	sess := &Session{
		id:        uuid.NewString(),
		createdAt: time.Now(),
		conv:      models.NewConversation(systemPrompt),
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[sess.id] = sess
	return sess
}

func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[id]
	return sess, ok
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}
