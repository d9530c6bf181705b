package events

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/user-account-service/internal/domain/entity"
	"github.com/oksasatya/user-account-service/pkg/helpers"
)

type esRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

// fakeES answers every request with status and records what it received.
func fakeES(t *testing.T, status int) (*Indexer, *[]esRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []esRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := esRequest{Method: r.Method, Path: r.URL.Path}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &rec.Body)
		}
		mu.Lock()
		seen = append(seen, rec)
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	es, err := NewESClient([]string{srv.URL}, "", "")
	require.NoError(t, err)
	return NewIndexer(es, "users", helpers.NewNopLogger()), &seen
}

func sampleUser() *entity.User {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &entity.User{
		ID: "u1", UserName: "john", FirstName: "John", LastName: "Doe",
		Email: "john@example.com", Password: "digest", Status: true,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestIndexer_ApplyCreated(t *testing.T) {
	ix, seen := fakeES(t, http.StatusCreated)

	err := ix.Apply(context.Background(), NewAccountEvent(UserCreated, "u1", sampleUser()))
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	got := (*seen)[0]
	assert.Equal(t, http.MethodPut, got.Method)
	assert.Equal(t, "/users/_doc/u1", got.Path)
	assert.Equal(t, "john", got.Body["userName"])
	assert.Equal(t, true, got.Body["status"])
	assert.NotContains(t, got.Body, "password")
}

func TestIndexer_ApplyDeleted(t *testing.T) {
	ix, seen := fakeES(t, http.StatusOK)

	require.NoError(t, ix.Apply(context.Background(), NewAccountEvent(UserDeleted, "u1", nil)))
	require.Len(t, *seen, 1)
	assert.Equal(t, http.MethodDelete, (*seen)[0].Method)
	assert.Equal(t, "/users/_doc/u1", (*seen)[0].Path)
}

func TestIndexer_DeleteMissingIsNoop(t *testing.T) {
	ix, _ := fakeES(t, http.StatusNotFound)

	assert.NoError(t, ix.Apply(context.Background(), NewAccountEvent(UserDeleted, "gone", nil)))
}

func TestIndexer_ErrorResponse(t *testing.T) {
	ix, _ := fakeES(t, http.StatusBadRequest)

	err := ix.Apply(context.Background(), NewAccountEvent(UserUpdated, "u1", sampleUser()))
	assert.Error(t, err)
}

func TestIndexer_UpdatedWithoutUser(t *testing.T) {
	ix, seen := fakeES(t, http.StatusOK)

	err := ix.Apply(context.Background(), AccountEvent{Type: UserUpdated, UserID: "u1"})
	assert.Error(t, err)
	assert.Empty(t, *seen)
}

func TestIndexer_HandleMessage(t *testing.T) {
	ix, seen := fakeES(t, http.StatusOK)

	body, err := json.Marshal(NewAccountEvent(UserUpdated, "u1", sampleUser()))
	require.NoError(t, err)
	require.NoError(t, ix.HandleMessage(context.Background(), body))
	assert.Len(t, *seen, 1)

	assert.Error(t, ix.HandleMessage(context.Background(), []byte("{not json")))

	require.NoError(t, ix.HandleMessage(context.Background(), []byte(`{"type":"user.renamed","userId":"u1"}`)))
	assert.Len(t, *seen, 1)
}

func TestNewAccountEvent_StripsPassword(t *testing.T) {
	u := sampleUser()

	ev := NewAccountEvent(UserCreated, u.ID, u)
	assert.Empty(t, ev.User.Password)
	assert.Equal(t, "digest", u.Password)

	b, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "digest")
	assert.Contains(t, string(b), `"type":"user.created"`)
}
