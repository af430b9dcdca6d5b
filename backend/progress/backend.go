// Package progress persists saved games. Backends are composed by
// FallbackBackend, which tries them in order.
package progress

import (
	"context"
	"errors"
	"strings"
	"sync"

	"treasurehunt/backend/accounts"
	"treasurehunt/backend/models"
	"treasurehunt/backend/remote"
)

var (
	ErrNoToken   = errors.New("no remote token for player")
	ErrNoBackend = errors.New("no progress backend configured")
)

type Backend interface {
	Save(ctx context.Context, username string, p models.Progress) error
	// Load returns nil when nothing is saved.
	Load(ctx context.Context, username string) (*models.Progress, error)
	Clear(ctx context.Context, username string) error
	MarkCompleted(ctx context.Context, username string) error
	Name() string
}

// LocalBackend keeps progress inside the user records.
type LocalBackend struct {
	accounts *accounts.Manager
}

func NewLocalBackend(m *accounts.Manager) *LocalBackend {
	return &LocalBackend{accounts: m}
}

func (b *LocalBackend) Name() string { return "local" }

func (b *LocalBackend) Save(ctx context.Context, username string, p models.Progress) error {
	return b.accounts.SaveProgress(ctx, username, p)
}

func (b *LocalBackend) Load(ctx context.Context, username string) (*models.Progress, error) {
	return b.accounts.LoadProgress(ctx, username)
}

func (b *LocalBackend) Clear(ctx context.Context, username string) error {
	return b.accounts.ClearProgress(ctx, username)
}

func (b *LocalBackend) MarkCompleted(ctx context.Context, username string) error {
	return b.accounts.MarkCompleted(ctx, username)
}

// RemoteBackend stores progress through the remote API. Calls that need a
// player token fail with ErrNoToken until Authorize has been called.
type RemoteBackend struct {
	client *remote.Client

	mu     sync.RWMutex
	tokens map[string]string
}

func NewRemoteBackend(c *remote.Client) *RemoteBackend {
	return &RemoteBackend{client: c, tokens: make(map[string]string)}
}

func (b *RemoteBackend) Name() string { return "remote" }

// Authorize remembers the API token obtained when the player logged in.
func (b *RemoteBackend) Authorize(username, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[strings.ToLower(username)] = token
}

func (b *RemoteBackend) Forget(username string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, strings.ToLower(username))
}

func (b *RemoteBackend) token(username string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.tokens[strings.ToLower(username)]
	if !ok {
		return "", ErrNoToken
	}
	return t, nil
}

func (b *RemoteBackend) Save(ctx context.Context, username string, p models.Progress) error {
	t, err := b.token(username)
	if err != nil {
		return err
	}
	return b.client.SaveLevel(ctx, t, username, p)
}

func (b *RemoteBackend) Load(ctx context.Context, username string) (*models.Progress, error) {
	t, err := b.token(username)
	if err != nil {
		return nil, err
	}
	return b.client.LoadProgress(ctx, t)
}

func (b *RemoteBackend) Clear(ctx context.Context, username string) error {
	t, err := b.token(username)
	if err != nil {
		return err
	}
	return b.client.ClearProgress(ctx, t)
}

func (b *RemoteBackend) MarkCompleted(ctx context.Context, username string) error {
	return b.client.MarkCompleted(ctx, username)
}
