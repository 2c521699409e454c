package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spec-kit/audioclean-service/internal/domain"
	"github.com/spec-kit/audioclean-service/internal/events"
	"github.com/spec-kit/audioclean-service/internal/repository"
)

type memoryUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*domain.User
	err    error
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*domain.User)}
}

func (r *memoryUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repository.ErrConflict
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.users[user.Email] = &stored
	return nil
}

func (r *memoryUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// plainHasher stores passwords reversibly and counts comparisons.
type plainHasher struct {
	compares atomic.Int32
}

func (h *plainHasher) Hash(plain string) (string, error) {
	if len(plain) > 72 {
		return "", errors.New("too long")
	}
	return "hashed:" + plain, nil
}

func (h *plainHasher) Compare(hashed, plain string) error {
	h.compares.Add(1)
	if hashed != "hashed:"+plain {
		return errors.New("mismatch")
	}
	return nil
}

type memoryUploadRepo struct {
	mu      sync.Mutex
	nextID  int64
	uploads []domain.Upload
	err     error
}

func (r *memoryUploadRepo) Create(_ context.Context, upload *domain.Upload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.nextID++
	upload.ID = r.nextID
	upload.CreatedAt = time.Now()
	r.uploads = append(r.uploads, *upload)
	return nil
}

func (r *memoryUploadRepo) ListByUser(_ context.Context, userID int64, _ int) ([]domain.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	result := make([]domain.Upload, 0)
	for i := len(r.uploads) - 1; i >= 0; i-- {
		if r.uploads[i].UserID == userID {
			result = append(result, r.uploads[i])
		}
	}
	return result, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}
