package relationship

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puoklam/connectly-backend/directory"
	"github.com/puoklam/connectly-backend/friends"
	"github.com/puoklam/connectly-backend/mq"
)

func TestMutationsAreLogged(t *testing.T) {
	dir := directory.NewMemory()
	for _, id := range []string{"a", "b"} {
		require.NoError(t, dir.Create(context.Background(), &directory.User{ID: id, Name: id, Email: id + "@example.com"}))
	}
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	r := chi.NewRouter()
	NewHandlers(friends.NewService(dir, mq.Noop{}, zerolog.Nop()), logger).SetupRoutes(r)

	post := func(path, body string) int {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
		return rec.Code
	}

	require.Equal(t, http.StatusOK, post("/send", `{"userId":"a","friendId":"b"}`))
	assert.Contains(t, buf.String(), `"op":"send"`)
	assert.Contains(t, buf.String(), `"friend_id":"b"`)

	buf.Reset()
	assert.Equal(t, http.StatusBadRequest, post("/send", `{"userId":"a","friendId":"b"}`))
	assert.Empty(t, buf.String())

	require.Equal(t, http.StatusOK, post("/accept", `{"userId":"b","friendId":"a"}`))
	assert.Contains(t, buf.String(), `"op":"accept"`)
}
