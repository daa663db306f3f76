package repository

import (
	"context"
	"speaker-negotiator/internal/model"
	"sync"
	"time"
)

type memoryEntry struct {
	session   model.Session
	expiresAt time.Time
}

// memorySessionRepository 是单进程的 SessionRepository，用于本地运行和测试。
type memorySessionRepository struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memoryEntry
	now      func() time.Time
}

// NewMemorySessionRepository 创建一个内存版 SessionRepository，ttl 为 0 表示永不过期。
func NewMemorySessionRepository(ttl time.Duration) SessionRepository {
	return &memorySessionRepository{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (r *memorySessionRepository) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep()
	if _, ok := r.lookup(session.ID); ok {
		return ErrSessionExists
	}
	r.store(cloneSession(session))
	return nil
}

func (r *memorySessionRepository) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return cloneSession(&s), nil
}

func (r *memorySessionRepository) Update(ctx context.Context, sessionID string, fn func(*model.Session) error) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	working := cloneSession(&s)
	if err := fn(working); err != nil {
		return nil, err
	}
	working.UpdatedAt = r.now()
	r.store(cloneSession(working))
	return working, nil
}

func (r *memorySessionRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

// lookup 必须在持有锁时调用，过期条目会被顺带删除。
func (r *memorySessionRepository) lookup(sessionID string) (model.Session, bool) {
	entry, ok := r.sessions[sessionID]
	if !ok {
		return model.Session{}, false
	}
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		delete(r.sessions, sessionID)
		return model.Session{}, false
	}
	return entry.session, true
}

// sweep 删除全部过期条目，必须在持有锁时调用。
func (r *memorySessionRepository) sweep() {
	if r.ttl <= 0 {
		return
	}
	now := r.now()
	for id, entry := range r.sessions {
		if now.After(entry.expiresAt) {
			delete(r.sessions, id)
		}
	}
}

func (r *memorySessionRepository) store(s *model.Session) {
	entry := memoryEntry{session: *s}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.sessions[s.ID] = entry
}

func cloneSession(s *model.Session) *model.Session {
	c := *s
	c.Turns = make([]model.Turn, len(s.Turns))
	copy(c.Turns, s.Turns)
	return &c
}
