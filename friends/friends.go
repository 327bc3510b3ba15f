// Package friends implements the friend graph mutations. Each operation is a
// single directory transaction over the two users involved, so edges stay
// symmetric even under concurrent requests.
package friends

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/puoklam/connectly-backend/directory"
	"github.com/puoklam/connectly-backend/metrics"
	"github.com/puoklam/connectly-backend/mq"
)

var (
	ErrAlreadyFriends   = errors.New("already friends")
	ErrDuplicateRequest = errors.New("friend request already sent")
	ErrNoSuchRequest    = errors.New("no friend request from this user")
	ErrSameUser         = errors.New("cannot befriend yourself")
)

const (
	opSend    = "send"
	opAccept  = "accept"
	opRemove  = "remove"
	opReject  = "reject"
	opHobbies = "hobbies"
)

type Service struct {
	store     directory.Store
	publisher mq.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(store directory.Store, publisher mq.Publisher, logger zerolog.Logger) *Service {
	if publisher == nil {
		publisher = mq.Noop{}
	}
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger.With().Str("component", "friends").Logger(),
		now:       time.Now,
	}
}

// SendRequest records a pending request from fromID on toID.
func (s *Service) SendRequest(ctx context.Context, fromID, toID string) error {
	err := s.pair(ctx, fromID, toID, func(from, to *directory.User) error {
		if to.HasFriend(fromID) {
			return ErrAlreadyFriends
		}
		if to.HasRequest(fromID) {
			return ErrDuplicateRequest
		}
		to.AddRequest(fromID)
		return nil
	})
	return s.done(ctx, opSend, mq.EventRequestSent, fromID, toID, err)
}

// AcceptRequest makes userID and friendID friends. friendID must have a
// pending request on userID. Requests in either direction are cleared.
func (s *Service) AcceptRequest(ctx context.Context, userID, friendID string) error {
	err := s.pair(ctx, userID, friendID, func(user, friend *directory.User) error {
		if !user.HasRequest(friendID) {
			return ErrNoSuchRequest
		}
		user.RemoveRequest(friendID)
		friend.RemoveRequest(userID)
		user.AddFriend(friendID)
		friend.AddFriend(userID)
		return nil
	})
	return s.done(ctx, opAccept, mq.EventRequestAccepted, userID, friendID, err)
}

// RemoveFriend drops the edge between userID and friendID if there is one.
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID string) error {
	err := s.pair(ctx, userID, friendID, func(user, friend *directory.User) error {
		user.RemoveFriend(friendID)
		friend.RemoveFriend(userID)
		return nil
	})
	return s.done(ctx, opRemove, mq.EventFriendRemoved, userID, friendID, err)
}

// RejectRequest discards the pending request from friendID on userID.
func (s *Service) RejectRequest(ctx context.Context, userID, friendID string) error {
	if userID == friendID {
		return s.done(ctx, opReject, mq.EventRequestRejected, userID, friendID, ErrSameUser)
	}
	err := s.store.Update(ctx, []string{userID}, func(users map[string]*directory.User) error {
		if !users[userID].RemoveRequest(friendID) {
			return ErrNoSuchRequest
		}
		return nil
	})
	return s.done(ctx, opReject, mq.EventRequestRejected, userID, friendID, err)
}

// SetHobbies replaces the hobby set of userID and returns the updated user.
func (s *Service) SetHobbies(ctx context.Context, userID string, hobbies []string) (*directory.User, error) {
	var out *directory.User
	err := s.store.Update(ctx, []string{userID}, func(users map[string]*directory.User) error {
		u := users[userID]
		u.SetHobbies(hobbies)
		out = u
		return nil
	})
	if err := s.done(ctx, opHobbies, mq.EventHobbiesUpdated, userID, "", err); err != nil {
		return nil, err
	}
	return out, nil
}

// pair runs fn over a and b inside one directory transaction.
func (s *Service) pair(ctx context.Context, a, b string, fn func(a, b *directory.User) error) error {
	if a == b {
		return ErrSameUser
	}
	return s.store.Update(ctx, []string{a, b}, func(users map[string]*directory.User) error {
		return fn(users[a], users[b])
	})
}

// done records the outcome of op and publishes its event on success.
func (s *Service) done(ctx context.Context, op string, t mq.EventType, userID, friendID string, err error) error {
	metrics.RecordFriendGraphOp(op, err)
	if err != nil {
		return err
	}
	e := mq.Event{Type: t, UserID: userID, FriendID: friendID, At: s.now().UTC()}
	if perr := s.publisher.Publish(ctx, e); perr != nil {
		s.logger.Warn().Err(perr).Str("event", string(t)).Str("user_id", userID).Msg("publish event")
	}
	s.logger.Debug().Str("op", op).Str("user_id", userID).Str("friend_id", friendID).Msg("friend graph updated")
	return nil
}
