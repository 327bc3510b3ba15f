// Package recommend ranks friend suggestions for a user.
//
// Candidates come from three passes over the directory: friends of
// friends, users sharing a hobby with the target, and finally everyone
// else. Only the first pass contributes to the scores; the other two make
// sure the list is filled whenever a candidate exists at all. The ranking
// orders by mutual friends, then common hobbies, and leaves remaining ties
// in discovery order.
//
// A run costs one directory query for the target's friends, one per
// friend, one per fill pass and one to materialize the result.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/puoklam/connectly-backend/directory"
	"github.com/puoklam/connectly-backend/metrics"
)

// ErrEmptyResult means no user is eligible for recommendation.
var ErrEmptyResult = errors.New("no friend recommendations available")

// Score is the ranking key of a candidate.
type Score struct {
	MutualFriends int
	CommonHobbies int
}

type Recommendation struct {
	User directory.User
	Score
}

// Engine is safe for concurrent use.
type Engine struct {
	dir    directory.Reader
	limit  int
	logger zerolog.Logger
}

func NewEngine(dir directory.Reader, cfg Config, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Limit == 0 {
		cfg.Limit = DefaultLimit
	}
	return &Engine{
		dir:    dir,
		limit:  cfg.Limit,
		logger: logger.With().Str("component", "recommend").Logger(),
	}, nil
}

// scoreboard keeps candidates in the order they were first seen.
type scoreboard struct {
	order  []string
	scores map[string]*Score
}

func (b *scoreboard) get(id string) *Score {
	s, ok := b.scores[id]
	if !ok {
		s = &Score{}
		b.scores[id] = s
		b.order = append(b.order, id)
	}
	return s
}

// Recommend returns up to the configured number of users the target is not
// yet connected to, best first.
func (e *Engine) Recommend(ctx context.Context, targetID string) ([]Recommendation, error) {
	start := time.Now()

	target, err := e.dir.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]struct{}, 1+len(target.Friends)+len(target.FriendRequests))
	excluded[target.ID] = struct{}{}
	for _, id := range target.Friends {
		excluded[id] = struct{}{}
	}
	for _, id := range target.FriendRequests {
		excluded[id] = struct{}{}
	}
	exclude := make([]string, 0, len(excluded))
	for id := range excluded {
		exclude = append(exclude, id)
	}
	slices.Sort(exclude)

	hobbies := make(map[string]struct{}, len(target.Hobbies))
	for _, h := range target.Hobbies {
		hobbies[h] = struct{}{}
	}

	board := &scoreboard{scores: make(map[string]*Score)}

	friends, err := e.dir.FindManyByID(ctx, target.Friends)
	if err != nil {
		return nil, fmt.Errorf("load friends: %w", err)
	}
	for _, f := range friends {
		second, err := e.dir.FindManyByID(ctx, f.Friends)
		if err != nil {
			return nil, fmt.Errorf("load friends of %s: %w", f.ID, err)
		}
		for i := range second {
			c := &second[i]
			if _, skip := excluded[c.ID]; skip {
				continue
			}
			s := board.get(c.ID)
			s.MutualFriends++
			s.CommonHobbies += c.SharedHobbies(hobbies)
		}
	}
	mutual := len(board.order)

	if len(target.Hobbies) > 0 {
		users, err := e.dir.FindWhere(ctx, directory.Query{Exclude: exclude, Hobbies: target.Hobbies})
		if err != nil {
			return nil, fmt.Errorf("load hobby candidates: %w", err)
		}
		// entries from the mutual pass keep their counts
		for _, u := range users {
			board.get(u.ID)
		}
	}

	users, err := e.dir.FindWhere(ctx, directory.Query{Exclude: exclude})
	if err != nil {
		return nil, fmt.Errorf("load fallback candidates: %w", err)
	}
	for _, u := range users {
		board.get(u.ID)
	}

	ranked := slices.Clone(board.order)
	slices.SortStableFunc(ranked, func(a, b string) int {
		sa, sb := board.scores[a], board.scores[b]
		if sa.MutualFriends != sb.MutualFriends {
			return sb.MutualFriends - sa.MutualFriends
		}
		return sb.CommonHobbies - sa.CommonHobbies
	})
	if len(ranked) > e.limit {
		ranked = ranked[:e.limit]
	}

	top, err := e.dir.FindManyByID(ctx, ranked)
	if err != nil {
		return nil, fmt.Errorf("load recommendations: %w", err)
	}
	metrics.RecordRecommend(time.Since(start), len(board.order))
	e.logger.Debug().
		Str("user_id", targetID).
		Int("friends", len(friends)).
		Int("mutual_candidates", mutual).
		Int("candidates", len(board.order)).
		Int("returned", len(top)).
		Dur("duration", time.Since(start)).
		Msg("recommendations computed")

	if len(top) == 0 {
		return nil, ErrEmptyResult
	}
	out := make([]Recommendation, len(top))
	for i, u := range top {
		out[i] = Recommendation{User: u, Score: *board.scores[u.ID]}
	}
	return out, nil
}
