package service

import (
	"context"
	"fmt"
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
	"treasurehunt/backend/game"
	"treasurehunt/backend/metrics"
	"treasurehunt/backend/models"
	"treasurehunt/backend/progress"
	"treasurehunt/backend/questions"
	"treasurehunt/backend/remote"
	"treasurehunt/backend/sessions"
	"treasurehunt/backend/store"
)

var discard = log.New(io.Discard, "", 0)

func testQuestions() []models.Question {
	qs := make([]models.Question, 2)
	for i := range qs {
		qs[i] = models.Question{
			Question:    fmt.Sprintf("riddle %d", i+1),
			Answer:      fmt.Sprintf("answer%d", i+1),
			SecurityKey: fmt.Sprintf("key%d", i+1),
			Hint:        "hint",
			Difficulty:  models.DifficultyEasy,
			Points:      10,
		}
	}
	return qs
}

type fixture struct {
	svc      *GameService
	accounts *accounts.Manager
	repo     *store.JSONRepository
}

func newFixture(t *testing.T, backends ...progress.Backend) *fixture {
	t.Helper()
	repo, err := store.NewJSONRepository(filepath.Join(t.TempDir(), "users.json"), discard)
	require.NoError(t, err)
	mgr := accounts.NewManager(repo, accounts.Hasher{Cost: bcrypt.MinCost}, discard)

	m := metrics.New()
	all := append(backends, progress.NewLocalBackend(mgr))
	svc := NewGameService(context.Background(), Deps{
		Accounts: mgr,
		Storage:  progress.NewFallbackBackend(discard, m, all...),
		Sessions: sessions.NewRegistry(time.Hour, m),
		Source:   &questions.Source{Local: testQuestions(), Logger: discard},
		Metrics:  m,
		Logger:   discard,
	})

	_, err = svc.Register(context.Background(), "alice", "secret1", "alice@example.com")
	require.NoError(t, err)
	return &fixture{svc: svc, accounts: mgr, repo: repo}
}

func act(t *testing.T, svc *GameService, sess *sessions.Session, kind game.ActionKind, input string) *ActResult {
	t.Helper()
	res, err := svc.Act(context.Background(), sess, game.Action{Kind: kind, Input: input})
	require.NoError(t, err)
	return res
}

func TestLoginStartsFreshGame(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, game.PhaseRiddle, res.View.Phase)
	assert.Equal(t, 0, res.View.Level)
	assert.Equal(t, "local", res.Storage)
	assert.Equal(t, questions.SourceFallback, f.svc.QuestionSource())

	_, err = f.svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, accounts.ErrInvalidCredentials)
}

func TestProgressSurvivesRelogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	out := act(t, f.svc, res.Session, game.SubmitAnswer, "answer1")
	assert.Equal(t, "local", out.Storage)
	act(t, f.svc, res.Session, game.SubmitKey, "key1")
	act(t, f.svc, res.Session, game.SubmitAnswer, "answer2")

	f.svc.Logout(res.Session.ID, "alice")
	_, err = f.svc.Session(res.Session.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)

	again, err := f.svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.View.Level)
	assert.Equal(t, game.PhaseSecurity, again.View.Phase)
	assert.Equal(t, 31, again.View.Score)
}

func TestFinishingLocksTheAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	for i := 1; i <= 2; i++ {
		act(t, f.svc, res.Session, game.SubmitAnswer, fmt.Sprintf("answer%d", i))
		act(t, f.svc, res.Session, game.SubmitKey, fmt.Sprintf("key%d", i))
	}

	done, err := f.accounts.IsCompleted(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, done)
	user, err := f.accounts.Details(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, user.TotalGames)
	assert.Equal(t, 31, user.HighScore)

	_, err = f.svc.Reset(ctx, res.Session)
	assert.ErrorIs(t, err, ErrResetLocked)

	// Even with saved progress wiped, the flag keeps the player locked out.
	require.NoError(t, f.accounts.ClearProgress(ctx, "alice"))
	again, err := f.svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, game.PhaseLocked, again.View.Phase)
	_, err = f.svc.Act(ctx, again.Session, game.Action{Kind: game.SubmitAnswer, Input: "answer1"})
	assert.ErrorIs(t, err, game.ErrGameFinished)
}

func TestResetClearsProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	act(t, f.svc, res.Session, game.SubmitAnswer, "answer1")

	reset, err := f.svc.Reset(ctx, res.Session)
	require.NoError(t, err)
	assert.Equal(t, game.PhaseRiddle, reset.View.Phase)
	assert.Equal(t, 0, reset.View.Score)

	p, err := f.accounts.LoadProgress(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestRemoteOutageFallsBackToLocal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := remote.NewClient(srv.URL, time.Second)
	rb := progress.NewRemoteBackend(client)
	f := newFixture(t, rb)
	f.svc.remote = rb
	f.svc.client = client
	ctx := context.Background()

	res, err := f.svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	out := act(t, f.svc, res.Session, game.SubmitAnswer, "answer1")
	assert.Equal(t, "local", out.Storage)

	p, err := f.accounts.LoadProgress(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.RiddleSolved)
}

func TestLoginEndsEarlierSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	act(t, f.svc, first.Session, game.SubmitAnswer, "answer1")

	second, err := f.svc.Login(ctx, "ALICE", "secret1")
	require.NoError(t, err)
	assert.NotEqual(t, first.Session.ID, second.Session.ID)
	assert.Equal(t, game.PhaseSecurity, second.View.Phase)

	_, err = f.svc.Session(first.Session.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)
	_, err = f.svc.Session(second.Session.ID)
	assert.NoError(t, err)

	f.svc.Logout(first.Session.ID, "alice")
	_, err = f.svc.Session(second.Session.ID)
	assert.NoError(t, err)
}

func TestDropUserEndsSessions(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	f.svc.DropUser("ALICE")
	_, err = f.svc.Session(res.Session.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)
}
