package store

import (
	"context"
	"hash/fnv"
	"sync"

	"schemeflow/internal/application/models"
	id "schemeflow/pkg/domain"
	"schemeflow/pkg/platform/sentinel"
)

// numShards spreads Execute callers over independent locks so unrelated
// applications never wait on each other.
const numShards = 128

// InMemory keeps applications in process memory.
//
// Execute holds the application's shard lock across validate and mutate, so two
// submissions of the same application are serialized. Reads return deep copies.
type InMemory struct {
	mu     sync.RWMutex
	apps   map[id.ApplicationID]*models.Application
	byRef  map[id.TrackingReference]id.ApplicationID
	shards [numShards]sync.Mutex
}

func NewInMemory() *InMemory {
	return &InMemory{
		apps:  make(map[id.ApplicationID]*models.Application),
		byRef: make(map[id.TrackingReference]id.ApplicationID),
	}
}

func (s *InMemory) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[app.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.apps[app.ID] = app.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, appID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return app.Clone(), nil
}

func (s *InMemory) FindByTrackingReference(_ context.Context, ref id.TrackingReference) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appID, ok := s.byRef[ref]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.apps[appID].Clone(), nil
}

// Execute loads the application, runs validate and, if it passes, mutate, then
// stores the result. Nothing is written when validate fails.
func (s *InMemory) Execute(ctx context.Context, appID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error) {
	shard := &s.shards[shardFor(appID)]
	shard.Lock()
	defer shard.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	app, err := s.FindByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if err := validate(app); err != nil {
		return nil, err
	}
	mutate(app)

	s.mu.Lock()
	defer s.mu.Unlock()
	if app.TrackingReference != "" {
		if owner, taken := s.byRef[app.TrackingReference]; taken && owner != appID {
			return nil, sentinel.ErrAlreadyUsed
		}
		s.byRef[app.TrackingReference] = appID
	}
	s.apps[appID] = app.Clone()
	return app, nil
}

func shardFor(appID id.ApplicationID) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(appID.String()))
	return h.Sum32() % numShards
}
