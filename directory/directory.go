// Package directory defines the user record and the store contracts the
// friend graph and the recommendation engine are built on.
package directory

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")
	ErrDuplicateName  = errors.New("name already in use")
)

// ErrMissingIdentity is returned by Create for a blank name or email.
var ErrMissingIdentity = errors.New("name and email are required")

// User is a directory record. Friends, FriendRequests and Hobbies are sets:
// sorted and free of duplicates.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	// FriendRequests holds the ids of users with a pending request to this user.
	FriendRequests []string
	Friends        []string
	Hobbies        []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CheckIdentity reports ErrMissingIdentity when the name or email is blank.
func (u *User) CheckIdentity() error {
	if strings.TrimSpace(u.Name) == "" || strings.TrimSpace(u.Email) == "" {
		return ErrMissingIdentity
	}
	return nil
}

// Query selects users for the recommendation candidate pools.
type Query struct {
	Exclude []string
	// Hobbies, when non-empty, restricts the result to users sharing at
	// least one of them.
	Hobbies []string
}

type Reader interface {
	FindByID(ctx context.Context, id string) (*User, error)
	// FindManyByID returns the users in the order of ids, omitting ids that
	// do not exist.
	FindManyByID(ctx context.Context, ids []string) ([]User, error)
	// Search matches term case-insensitively against name or email.
	Search(ctx context.Context, term, excludeID string) ([]User, error)
	FindWhere(ctx context.Context, q Query) ([]User, error)
}

// UpdateFunc mutates the loaded users in place. Returning an error aborts
// the update without persisting anything.
type UpdateFunc func(users map[string]*User) error

type Store interface {
	Reader
	Create(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	// Update loads every user in ids, applies fn and persists the users fn
	// changed in a single transaction. Any missing id yields ErrNotFound.
	Update(ctx context.Context, ids []string, fn UpdateFunc) error
}

func (u *User) Clone() *User {
	c := *u
	c.Friends = slices.Clone(u.Friends)
	c.FriendRequests = slices.Clone(u.FriendRequests)
	c.Hobbies = slices.Clone(u.Hobbies)
	return &c
}

func (u *User) HasFriend(id string) bool {
	_, ok := slices.BinarySearch(u.Friends, id)
	return ok
}

func (u *User) HasRequest(id string) bool {
	_, ok := slices.BinarySearch(u.FriendRequests, id)
	return ok
}

func (u *User) AddFriend(id string) {
	u.Friends = insert(u.Friends, id)
}

func (u *User) RemoveFriend(id string) bool {
	var ok bool
	u.Friends, ok = remove(u.Friends, id)
	return ok
}

func (u *User) AddRequest(id string) {
	u.FriendRequests = insert(u.FriendRequests, id)
}

func (u *User) RemoveRequest(id string) bool {
	var ok bool
	u.FriendRequests, ok = remove(u.FriendRequests, id)
	return ok
}

func (u *User) SetHobbies(hobbies []string) {
	u.Hobbies = NormalizeHobbies(hobbies)
}

// SharedHobbies counts the hobbies of u that are in set.
func (u *User) SharedHobbies(set map[string]struct{}) int {
	n := 0
	for _, h := range u.Hobbies {
		if _, ok := set[h]; ok {
			n++
		}
	}
	return n
}

// Equal reports whether a and b hold the same persisted state.
func Equal(a, b *User) bool {
	return a.ID == b.ID &&
		a.Name == b.Name &&
		a.Email == b.Email &&
		a.PasswordHash == b.PasswordHash &&
		slices.Equal(a.Friends, b.Friends) &&
		slices.Equal(a.FriendRequests, b.FriendRequests) &&
		slices.Equal(a.Hobbies, b.Hobbies)
}

// NormalizeHobbies trims tags, drops empty ones and returns a sorted set.
func NormalizeHobbies(hobbies []string) []string {
	out := make([]string, 0, len(hobbies))
	for _, h := range hobbies {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return Set(out)
}

// Set returns ids sorted with duplicates removed.
func Set(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func insert(set []string, id string) []string {
	i, ok := slices.BinarySearch(set, id)
	if ok {
		return set
	}
	return slices.Insert(set, i, id)
}

func remove(set []string, id string) ([]string, bool) {
	i, ok := slices.BinarySearch(set, id)
	if !ok {
		return set, false
	}
	return slices.Delete(set, i, i+1), true
}
