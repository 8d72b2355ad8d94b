package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	contractx "github.com/novabite/assistant/agent/contract"
)

var (
	ErrInvalidSession = errors.New("session id is empty")
	ErrInvalidContent = errors.New("turn content is empty")
)

// Store is the transcript persistence contract used by the orchestrator.
// History creates an empty session on first reference; Append adds one turn.
type Store interface {
	History(ctx context.Context, sessionID string) ([]contractx.Turn, error)
	Append(ctx context.Context, sessionID string, role contractx.Role, content string) error
}

// MemoryStore keeps transcripts in process memory for the lifetime of the
// process. Nothing is evicted or persisted.
type MemoryStore struct {
	mu          sync.RWMutex
	transcripts map[string][]contractx.Turn
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		transcripts: make(map[string][]contractx.Turn),
		now:         time.Now,
	}
}

func (s *MemoryStore) History(_ context.Context, sessionID string) ([]contractx.Turn, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turns, ok := s.transcripts[id]
	if !ok {
		s.transcripts[id] = make([]contractx.Turn, 0, 16)
		return nil, nil
	}

	copied := make([]contractx.Turn, len(turns))
	copy(copied, turns)
	return copied, nil
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, role contractx.Role, content string) error {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return ErrInvalidSession
	}
	if strings.TrimSpace(content) == "" {
		return ErrInvalidContent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcripts[id] = append(s.transcripts[id], contractx.Turn{
		Role:      role,
		Content:   content,
		CreatedAt: s.now().UTC(),
	})
	return nil
}
