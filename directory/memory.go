package directory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a Store backed by a map. Writers are serialized, so Update is
// atomic with respect to every other call.
type Memory struct {
	mu    sync.RWMutex
	users map[string]*User
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]*User),
		now:   time.Now,
	}
}

func (m *Memory) Create(ctx context.Context, u *User) error {
	if err := u.CheckIdentity(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	// email conflicts win over name conflicts, as in the sql store
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	for _, existing := range m.users {
		if existing.Name == u.Name {
			return ErrDuplicateName
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := m.now()
	u.CreatedAt, u.UpdatedAt = now, now
	u.Friends = Set(u.Friends)
	u.FriendRequests = Set(u.FriendRequests)
	u.Hobbies = NormalizeHobbies(u.Hobbies)
	m.users[u.ID] = u.Clone()
	return nil
}

func (m *Memory) FindByID(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (m *Memory) FindByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) FindManyByID(ctx context.Context, ids []string) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]User, 0, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u.Clone())
		}
	}
	return out, nil
}

func (m *Memory) Search(ctx context.Context, term, excludeID string) ([]User, error) {
	term = strings.ToLower(term)
	return m.collect(func(u *User) bool {
		if u.ID == excludeID {
			return false
		}
		return strings.Contains(strings.ToLower(u.Name), term) ||
			strings.Contains(strings.ToLower(u.Email), term)
	}), nil
}

func (m *Memory) FindWhere(ctx context.Context, q Query) ([]User, error) {
	hobbies := make(map[string]struct{}, len(q.Hobbies))
	for _, h := range q.Hobbies {
		hobbies[h] = struct{}{}
	}
	return m.collect(func(u *User) bool {
		if slices.Contains(q.Exclude, u.ID) {
			return false
		}
		return len(hobbies) == 0 || u.SharedHobbies(hobbies) > 0
	}), nil
}

func (m *Memory) Update(ctx context.Context, ids []string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	loaded := make(map[string]*User, len(ids))
	for _, id := range ids {
		u, ok := m.users[id]
		if !ok {
			return ErrNotFound
		}
		loaded[id] = u.Clone()
	}
	if err := fn(loaded); err != nil {
		return err
	}
	now := m.now()
	for id, u := range loaded {
		if Equal(m.users[id], u) {
			continue
		}
		u.UpdatedAt = now
		m.users[id] = u
	}
	return nil
}

// collect returns the users matching keep, ordered by id.
func (m *Memory) collect(keep func(u *User) bool) []User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]User, 0)
	for _, u := range m.users {
		if keep(u) {
			out = append(out, *u.Clone())
		}
	}
	slices.SortFunc(out, func(a, b User) int { return strings.Compare(a.ID, b.ID) })
	return out
}
