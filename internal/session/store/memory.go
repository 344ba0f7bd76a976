package store

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"schemeflow/internal/session/models"
	id "schemeflow/pkg/domain"
	"schemeflow/pkg/platform/sentinel"
)

const numShards = 128

// InMemory keeps live sessions and an archive of expired ones in process memory.
// Execute serializes writers per session with sharded locks.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*models.Session
	archive  map[id.SessionID]*models.Session
	shards   [numShards]sync.Mutex
}

func NewInMemory() *InMemory {
	return &InMemory{
		sessions: make(map[id.SessionID]*models.Session),
		archive:  make(map[id.SessionID]*models.Session),
	}
}

func (s *InMemory) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.sessions[session.ID] = session.Clone()
	return nil
}

// FindByID returns a live session, expired or not; expiry is the caller's call.
// Archived sessions are not found.
func (s *InMemory) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return session.Clone(), nil
}

func (s *InMemory) FindArchived(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.archive[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return session.Clone(), nil
}

func (s *InMemory) Execute(ctx context.Context, sessionID id.SessionID, validate func(*models.Session) error, mutate func(*models.Session)) (*models.Session, error) {
	shard := &s.shards[shardFor(sessionID)]
	shard.Lock()
	defer shard.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	session, err := s.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := validate(session); err != nil {
		return nil, err
	}
	mutate(session)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		// archived between read and write
		return nil, sentinel.ErrNotFound
	}
	s.sessions[sessionID] = session.Clone()
	return session, nil
}

// ArchiveExpired moves every session whose window closed before now into the
// archive and returns how many moved. Running it twice is harmless.
func (s *InMemory) ArchiveExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	archived := 0
	for sessionID, session := range s.sessions {
		if !session.IsExpired(now) {
			continue
		}
		s.archive[sessionID] = session
		delete(s.sessions, sessionID)
		archived++
	}
	return archived, nil
}

func shardFor(sessionID id.SessionID) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID.String()))
	return h.Sum32() % numShards
}
