package progress

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"treasurehunt/backend/accounts"
	"treasurehunt/backend/metrics"
	"treasurehunt/backend/models"
	"treasurehunt/backend/remote"
	"treasurehunt/backend/store"
)

var discard = log.New(io.Discard, "", 0)

// stubBackend records calls and fails when err is set.
type stubBackend struct {
	name  string
	err   error
	saved map[string]models.Progress
	calls []string
}

func newStub(name string, err error) *stubBackend {
	return &stubBackend{name: name, err: err, saved: map[string]models.Progress{}}
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Save(_ context.Context, username string, p models.Progress) error {
	s.calls = append(s.calls, "save")
	if s.err != nil {
		return s.err
	}
	s.saved[username] = p
	return nil
}

func (s *stubBackend) Load(_ context.Context, username string) (*models.Progress, error) {
	s.calls = append(s.calls, "load")
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.saved[username]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *stubBackend) Clear(_ context.Context, username string) error {
	s.calls = append(s.calls, "clear")
	if s.err != nil {
		return s.err
	}
	delete(s.saved, username)
	return nil
}

func (s *stubBackend) MarkCompleted(_ context.Context, username string) error {
	s.calls = append(s.calls, "mark")
	return s.err
}

func TestFallbackSaveUsesFirstSuccess(t *testing.T) {
	down := newStub("remote", errors.New("connection refused"))
	local := newStub("local", nil)
	m := metrics.New()
	f := NewFallbackBackend(discard, m, down, local)

	served, err := f.SaveVia(context.Background(), "alice", models.Progress{Level: 2})
	require.NoError(t, err)
	assert.Equal(t, "local", served)
	assert.Equal(t, 2, local.saved["alice"].Level)
	assert.Equal(t, []string{"save"}, down.calls)

	up := newStub("remote", nil)
	other := newStub("local", nil)
	f = NewFallbackBackend(discard, m, up, other)
	served, err = f.SaveVia(context.Background(), "alice", models.Progress{Level: 3})
	require.NoError(t, err)
	assert.Equal(t, "remote", served)
	assert.Empty(t, other.calls)
}

func TestFallbackAllFail(t *testing.T) {
	last := errors.New("disk full")
	f := NewFallbackBackend(discard, nil, newStub("remote", errors.New("timeout")), newStub("local", last))

	served, err := f.SaveVia(context.Background(), "alice", models.Progress{})
	assert.Equal(t, Unavailable, served)
	assert.ErrorIs(t, err, last)

	_, served, err = f.LoadVia(context.Background(), "alice")
	assert.Equal(t, Unavailable, served)
	assert.ErrorIs(t, err, last)

	empty := NewFallbackBackend(discard, nil)
	assert.ErrorIs(t, empty.Save(context.Background(), "alice", models.Progress{}), ErrNoBackend)
	assert.ErrorIs(t, empty.Clear(context.Background(), "alice"), ErrNoBackend)
}

func TestFallbackLoadSkipsEmptyBackends(t *testing.T) {
	remoteStub := newStub("remote", nil)
	local := newStub("local", nil)
	local.saved["alice"] = models.Progress{Level: 4}
	f := NewFallbackBackend(discard, nil, remoteStub, local)

	p, served, err := f.LoadVia(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 4, p.Level)
	assert.Equal(t, "local", served)

	p, served, err = f.LoadVia(context.Background(), "bob")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Equal(t, "remote", served)
}

func TestFallbackClearAndMarkHitEveryBackend(t *testing.T) {
	down := newStub("remote", errors.New("502"))
	local := newStub("local", nil)
	local.saved["alice"] = models.Progress{Level: 1}
	m := metrics.New()
	f := NewFallbackBackend(discard, m, down, local)

	served, err := f.ClearVia(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "local", served)
	assert.Empty(t, local.saved)

	served, err = f.MarkCompletedVia(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "local", served)
	assert.Equal(t, []string{"clear", "mark"}, down.calls)

	up := newStub("remote", nil)
	broken := newStub("local", errors.New("read-only"))
	f = NewFallbackBackend(discard, m, up, broken)
	served, err = f.MarkCompletedVia(context.Background(), "alice")
	assert.Error(t, err)
	assert.Equal(t, "remote", served)
}

func newManager(t *testing.T) *accounts.Manager {
	t.Helper()
	repo, err := store.NewJSONRepository(filepath.Join(t.TempDir(), "users.json"), discard)
	require.NoError(t, err)
	m := accounts.NewManager(repo, accounts.Hasher{Cost: bcrypt.MinCost}, discard)
	_, err = m.Register(context.Background(), "alice", "secret1", "alice@example.com")
	require.NoError(t, err)
	return m
}

func TestLocalBackend(t *testing.T) {
	b := NewLocalBackend(newManager(t))
	ctx := context.Background()

	p, err := b.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, b.Save(ctx, "alice", models.Progress{Level: 3, Score: 50, ComboMultiplier: 1.4}))
	p, err = b.Load(ctx, "ALICE")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 50, p.Score)

	require.NoError(t, b.Clear(ctx, "alice"))
	require.NoError(t, b.MarkCompleted(ctx, "alice"))
	p, err = b.Load(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.GameCompletedPermanently)
}

func TestRemoteBackendNeedsToken(t *testing.T) {
	var saved remote.ProgressRecord
	mux := http.NewServeMux()
	mux.HandleFunc("/game/level/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&saved)
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	b := NewRemoteBackend(remote.NewClient(srv.URL, time.Second))
	ctx := context.Background()

	assert.ErrorIs(t, b.Save(ctx, "alice", models.Progress{Level: 1}), ErrNoToken)

	b.Authorize("Alice", "tok")
	require.NoError(t, b.Save(ctx, "alice", models.Progress{Level: 1, Score: 15}))
	assert.Equal(t, 15, saved.Score)

	b.Forget("alice")
	_, err := b.Load(ctx, "alice")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestRemoteFailureFallsBackToLocal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rb := NewRemoteBackend(remote.NewClient(srv.URL, time.Second))
	rb.Authorize("alice", "tok")
	f := NewFallbackBackend(discard, nil, rb, NewLocalBackend(newManager(t)))

	served, err := f.SaveVia(context.Background(), "alice", models.Progress{Level: 2, Score: 30})
	require.NoError(t, err)
	assert.Equal(t, "local", served)

	p, served, err := f.LoadVia(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "local", served)
	assert.Equal(t, 30, p.Score)
}
