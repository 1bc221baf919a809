package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mferrant/casetrack/internal/domain"
)

// fakeClock is a settable clock for deterministic tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeSessionRepo is an in-memory domain.SessionRepository. Sessions are
// stored by value and listed in insertion order.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	order    []string
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]domain.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; ok {
		return fmt.Errorf("duplicate session id %s", s.ID)
	}
	r.sessions[s.ID] = *s
	r.order = append(r.order, s.ID)
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (r *fakeSessionRepo) Update(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		return domain.ErrNotFound
	}
	r.sessions[s.ID] = *s
	return nil
}

func (r *fakeSessionRepo) ListAll(_ context.Context) ([]domain.Session, error) {
	return r.filter(func(domain.Session) bool { return true }), nil
}

func (r *fakeSessionRepo) ListUnfinished(_ context.Context) ([]domain.Session, error) {
	return r.filter(func(s domain.Session) bool { return s.Unfinished() }), nil
}

func (r *fakeSessionRepo) ListUnfinishedByWorker(_ context.Context, workerID int64) ([]domain.Session, error) {
	return r.filter(func(s domain.Session) bool {
		return s.WorkerID == workerID && s.Unfinished()
	}), nil
}

func (r *fakeSessionRepo) ListActiveStartedBefore(_ context.Context, cutoff time.Time) ([]domain.Session, error) {
	return r.filter(func(s domain.Session) bool {
		return s.Status == domain.SessionStatusActive && s.StartedAt.Before(cutoff)
	}), nil
}

func (r *fakeSessionRepo) StampActivity(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.LastActivityAt = at
	r.sessions[id] = s
	return nil
}

func (r *fakeSessionRepo) filter(keep func(domain.Session) bool) []domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Session
	for _, id := range r.order {
		if s := r.sessions[id]; keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// fakeEntryRepo is an in-memory domain.ServiceEntryRepository.
type fakeEntryRepo struct {
	mu      sync.Mutex
	entries []domain.ServiceEntry
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{}
}

func (r *fakeEntryRepo) Create(_ context.Context, e *domain.ServiceEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeEntryRepo) GetByID(_ context.Context, id string) (*domain.ServiceEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.ID == id {
			e := e
			return &e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeEntryRepo) Update(_ context.Context, e *domain.ServiceEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].ID == e.ID {
			r.entries[i] = *e
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeEntryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeEntryRepo) ListAll(_ context.Context) ([]domain.ServiceEntry, error) {
	return r.filter(func(domain.ServiceEntry) bool { return true }), nil
}

func (r *fakeEntryRepo) ListByContact(_ context.Context, contactID int64) ([]domain.ServiceEntry, error) {
	return r.filter(func(e domain.ServiceEntry) bool { return e.ContactID == contactID }), nil
}

func (r *fakeEntryRepo) ListByWorker(_ context.Context, workerID int64) ([]domain.ServiceEntry, error) {
	return r.filter(func(e domain.ServiceEntry) bool { return e.WorkerID == workerID }), nil
}

func (r *fakeEntryRepo) ListByDate(_ context.Context, date string) ([]domain.ServiceEntry, error) {
	return r.filter(func(e domain.ServiceEntry) bool { return e.Date == date }), nil
}

func (r *fakeEntryRepo) ListByContactAndWorker(_ context.Context, contactID, workerID int64) ([]domain.ServiceEntry, error) {
	return r.filter(func(e domain.ServiceEntry) bool {
		return e.ContactID == contactID && e.WorkerID == workerID
	}), nil
}

func (r *fakeEntryRepo) SumMinutesForDay(_ context.Context, contactID, workerID int64, date string, excludeID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, e := range r.entries {
		if e.ContactID == contactID && e.WorkerID == workerID && e.Date == date && e.ID != excludeID {
			total += e.DurationMinutes
		}
	}
	return total, nil
}

func (r *fakeEntryRepo) filter(keep func(domain.ServiceEntry) bool) []domain.ServiceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ServiceEntry
	for _, e := range r.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// fakeUserRepo is an in-memory domain.UserRepository.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return domain.ErrDuplicateUsername
		}
	}
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeUserRepo) ListAll(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}
