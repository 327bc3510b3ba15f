package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puoklam/connectly-backend/directory"
)

type graph struct {
	t   *testing.T
	dir *directory.Memory
}

func newGraph(t *testing.T) *graph {
	return &graph{t: t, dir: directory.NewMemory()}
}

func (g *graph) user(id string, hobbies ...string) {
	g.t.Helper()
	require.NoError(g.t, g.dir.Create(context.Background(), &directory.User{
		ID:      id,
		Name:    id,
		Email:   id + "@example.com",
		Hobbies: hobbies,
	}))
}

func (g *graph) friends(a, b string) {
	g.t.Helper()
	require.NoError(g.t, g.dir.Update(context.Background(), []string{a, b}, func(users map[string]*directory.User) error {
		users[a].AddFriend(b)
		users[b].AddFriend(a)
		return nil
	}))
}

func (g *graph) request(from, to string) {
	g.t.Helper()
	require.NoError(g.t, g.dir.Update(context.Background(), []string{to}, func(users map[string]*directory.User) error {
		users[to].AddRequest(from)
		return nil
	}))
}

func (g *graph) engine(limit int) *Engine {
	g.t.Helper()
	e, err := NewEngine(g.dir, Config{Limit: limit}, zerolog.Nop())
	require.NoError(g.t, err)
	return e
}

func recIDs(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.User.ID
	}
	return out
}

func TestRecommendSecondDegreeWithSharedHobbyRanksFirst(t *testing.T) {
	g := newGraph(t)
	g.user("x", "chess")
	g.user("a")
	g.user("b")
	g.user("c", "chess", "golf")
	g.user("d")
	g.friends("x", "a")
	g.friends("x", "b")
	g.friends("a", "c")

	recs, err := g.engine(0).Recommend(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "c", recs[0].User.ID)
	assert.Equal(t, 1, recs[0].MutualFriends)
	assert.GreaterOrEqual(t, recs[0].CommonHobbies, 1)
	assert.Equal(t, "d", recs[1].User.ID)
	assert.Equal(t, Score{}, recs[1].Score)
}

func TestRecommendFallbackForIsolatedUser(t *testing.T) {
	g := newGraph(t)
	g.user("x")
	g.user("c")
	g.user("a")
	g.user("b")

	recs, err := g.engine(0).Recommend(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, recIDs(recs))
	for _, r := range recs {
		assert.Equal(t, Score{}, r.Score)
	}
}

func TestRecommendFriendsWithEveryone(t *testing.T) {
	g := newGraph(t)
	g.user("x")
	g.user("a")
	g.user("b")
	g.friends("x", "a")
	g.friends("x", "b")
	g.friends("a", "b")

	_, err := g.engine(0).Recommend(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestRecommendOnlyUser(t *testing.T) {
	g := newGraph(t)
	g.user("x", "chess")

	_, err := g.engine(0).Recommend(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestRecommendUnknownUser(t *testing.T) {
	g := newGraph(t)
	_, err := g.engine(0).Recommend(context.Background(), "ghost")
	assert.ErrorIs(t, err, directory.ErrNotFound)
}

func TestRecommendExcludesSelfFriendsAndRequests(t *testing.T) {
	g := newGraph(t)
	g.user("x", "chess")
	g.user("a", "chess")
	g.user("r", "chess")
	g.user("c")
	g.friends("x", "a")
	// r is both a second-degree connection and a pending requester
	g.friends("a", "r")
	g.request("r", "x")
	g.friends("a", "c")

	recs, err := g.engine(0).Recommend(context.Background(), "x")
	require.NoError(t, err)
	got := recIDs(recs)
	assert.Equal(t, []string{"c"}, got)
	assert.NotContains(t, got, "x")
	assert.NotContains(t, got, "a")
	assert.NotContains(t, got, "r")
}

func TestRecommendOrdering(t *testing.T) {
	g := newGraph(t)
	g.user("x", "chess", "go")
	g.user("a")
	g.user("b")
	g.user("c")
	g.user("d", "chess", "go")
	g.user("e", "go")
	g.user("f")
	g.friends("x", "a")
	g.friends("x", "b")
	g.friends("a", "f")
	g.friends("a", "e")
	g.friends("a", "d")
	g.friends("a", "c")
	g.friends("b", "c")

	recs, err := g.engine(0).Recommend(context.Background(), "x")
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "d", "e", "f"}, recIDs(recs))
	assert.Equal(t, Score{MutualFriends: 2}, recs[0].Score)
	assert.Equal(t, Score{MutualFriends: 1, CommonHobbies: 2}, recs[1].Score)
	assert.Equal(t, Score{MutualFriends: 1, CommonHobbies: 1}, recs[2].Score)
	assert.Equal(t, Score{MutualFriends: 1}, recs[3].Score)

	for i := 1; i < len(recs); i++ {
		prev, cur := recs[i-1].Score, recs[i].Score
		assert.True(t, prev.MutualFriends > cur.MutualFriends ||
			(prev.MutualFriends == cur.MutualFriends && prev.CommonHobbies >= cur.CommonHobbies))
	}
}

func TestRecommendHobbyPassDoesNotScore(t *testing.T) {
	g := newGraph(t)
	g.user("x", "chess")
	g.user("a")
	g.user("b", "chess")
	g.user("m", "chess")
	g.user("z", "chess")
	g.friends("x", "m")
	g.friends("m", "b")

	recs, err := g.engine(0).Recommend(context.Background(), "x")
	require.NoError(t, err)

	// b is reached through m and keeps its first-pass score; z only shares
	// a hobby and is seeded at zero, but ahead of the fallback user a.
	assert.Equal(t, []string{"b", "z", "a"}, recIDs(recs))
	assert.Equal(t, Score{MutualFriends: 1, CommonHobbies: 1}, recs[0].Score)
	assert.Equal(t, Score{}, recs[1].Score)
	assert.Equal(t, Score{}, recs[2].Score)
}

func TestRecommendLimit(t *testing.T) {
	g := newGraph(t)
	g.user("x")
	for i := 0; i < 8; i++ {
		g.user(fmt.Sprintf("u%d", i))
	}

	recs, err := g.engine(0).Recommend(context.Background(), "x")
	require.NoError(t, err)
	assert.Len(t, recs, DefaultLimit)

	recs, err = g.engine(2).Recommend(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"u0", "u1"}, recIDs(recs))
}

func TestNewEngineRejectsNegativeLimit(t *testing.T) {
	_, err := NewEngine(directory.NewMemory(), Config{Limit: -1}, zerolog.Nop())
	assert.Error(t, err)
}

// countingReader counts directory round trips.
type countingReader struct {
	directory.Reader
	calls   int
	failOn  string
	failErr error
}

func (r *countingReader) FindByID(ctx context.Context, id string) (*directory.User, error) {
	r.calls++
	return r.Reader.FindByID(ctx, id)
}

func (r *countingReader) FindManyByID(ctx context.Context, ids []string) ([]directory.User, error) {
	r.calls++
	return r.Reader.FindManyByID(ctx, ids)
}

func (r *countingReader) FindWhere(ctx context.Context, q directory.Query) ([]directory.User, error) {
	r.calls++
	if r.failOn == "FindWhere" {
		return nil, r.failErr
	}
	return r.Reader.FindWhere(ctx, q)
}

func TestRecommendQueryCount(t *testing.T) {
	g := newGraph(t)
	g.user("x", "chess")
	g.user("a")
	g.user("b")
	g.user("c")
	g.friends("x", "a")
	g.friends("x", "b")
	g.friends("x", "c")

	r := &countingReader{Reader: g.dir}
	e, err := NewEngine(r, DefaultConfig(), zerolog.Nop())
	require.NoError(t, err)

	_, err = e.Recommend(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEmptyResult)
	// target, friends, one per friend, hobby pass, fallback, materialize
	assert.Equal(t, 1+1+3+1+1+1, r.calls)
}

func TestRecommendPropagatesDirectoryErrors(t *testing.T) {
	g := newGraph(t)
	g.user("x")
	g.user("a")

	boom := errors.New("connection reset")
	r := &countingReader{Reader: g.dir, failOn: "FindWhere", failErr: boom}
	e, err := NewEngine(r, DefaultConfig(), zerolog.Nop())
	require.NoError(t, err)

	_, err = e.Recommend(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}
