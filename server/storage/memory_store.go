package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Daskott/dispatch/server/models"
	"github.com/pkg/errors"
)

// MemoryStore is the demo store used when no database is configured. It is
// seeded with the same records on every start and its operations never fail
// except with ErrNotFound or ErrInvalidTransition.
type MemoryStore struct {
	mu       sync.RWMutex
	users    []models.User
	requests []models.EmergencyRequest
	clock    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    models.DemoUsers(),
		requests: models.DemoRequests(),
		clock:    now,
	}
}

func (store *MemoryStore) Name() string {
	return MEMORY_DRIVER
}

// Migrate restores any demo account missing from the store.
func (store *MemoryStore) Migrate(ctx context.Context) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	existing := make(map[string]bool, len(store.users))
	for _, user := range store.users {
		existing[user.Username] = true
	}

	for _, user := range models.DemoUsers() {
		if !existing[user.Username] {
			store.users = append(store.users, user)
		}
	}

	return nil
}

func (store *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (store *MemoryStore) Close() error {
	return nil
}

func (store *MemoryStore) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	users := []models.User{}
	for i := range store.users {
		if filter.Matches(&store.users[i]) {
			users = append(users, store.users[i])
		}
	}

	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (store *MemoryStore) FindUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for _, user := range store.users {
		if user.Username == identifier || user.Phone == identifier {
			user := user
			return &user, nil
		}
	}

	return nil, errors.Wrapf(models.ErrNotFound, "FindUserByIdentifier: %v", identifier)
}

func (store *MemoryStore) CreateRequest(ctx context.Context, request *models.EmergencyRequest) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	prepareNewRequest(request, store.clock())
	store.requests = append(store.requests, *request)

	return nil
}

// ListRequests returns matches newest first. Requests created at the same
// instant come back in reverse insertion order.
func (store *MemoryStore) ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.EmergencyRequest, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	requests := []models.EmergencyRequest{}
	for i := len(store.requests) - 1; i >= 0; i-- {
		if filter.Matches(&store.requests[i]) {
			requests = append(requests, store.requests[i])
		}
	}

	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})

	return requests, nil
}

func (store *MemoryStore) GetRequest(ctx context.Context, id string) (*models.EmergencyRequest, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	idx := store.indexOf(id)
	if idx < 0 {
		return nil, errors.Wrapf(models.ErrNotFound, "GetRequest: request %v", id)
	}

	request := store.requests[idx]
	return &request, nil
}

func (store *MemoryStore) UpdateRequest(ctx context.Context, id string, fields models.RequestFields) (*models.EmergencyRequest, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	idx := store.indexOf(id)
	if idx < 0 {
		return nil, errors.Wrapf(models.ErrNotFound, "UpdateRequest: request %v", id)
	}

	return store.apply(idx, fields), nil
}

func (store *MemoryStore) UpdateRequestIf(
	ctx context.Context,
	id string,
	fromStatuses []string,
	fields models.RequestFields) (*models.EmergencyRequest, error) {

	store.mu.Lock()
	defer store.mu.Unlock()

	idx := store.indexOf(id)
	if idx < 0 {
		return nil, errors.Wrapf(models.ErrNotFound, "UpdateRequestIf: request %v", id)
	}

	current := store.requests[idx].Status
	for _, status := range fromStatuses {
		if status == current {
			return store.apply(idx, fields), nil
		}
	}

	return nil, models.InvalidTransitionError(current, targetStatus(fields))
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

// apply merges fields into the request at idx. Callers must hold the write lock.
func (store *MemoryStore) apply(idx int, fields models.RequestFields) *models.EmergencyRequest {
	fields.ApplyTo(&store.requests[idx])
	store.requests[idx].UpdatedAt = store.clock()

	request := store.requests[idx]
	return &request
}

func (store *MemoryStore) indexOf(id string) int {
	for i := range store.requests {
		if store.requests[i].ID == id {
			return i
		}
	}
	return -1
}
