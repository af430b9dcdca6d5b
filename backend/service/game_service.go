// Package service wires accounts, progress storage, sessions and the game
// engine into the operations the HTTP layer exposes.
package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"treasurehunt/backend/accounts"
	"treasurehunt/backend/game"
	"treasurehunt/backend/metrics"
	"treasurehunt/backend/models"
	"treasurehunt/backend/progress"
	"treasurehunt/backend/questions"
	"treasurehunt/backend/remote"
	"treasurehunt/backend/sessions"
)

var (
	ErrSessionExpired = errors.New("game session expired, please log in again")
	ErrResetLocked    = errors.New("game already completed, progress cannot be reset")
)

// GameService owns the live sessions. Progress failures never block a
// player: they are logged and reported as the storage banner.
type GameService struct {
	accounts *accounts.Manager
	storage  *progress.FallbackBackend
	remote   *progress.RemoteBackend
	client   *remote.Client
	sessions *sessions.Registry
	source   *questions.Source
	metrics  *metrics.Metrics
	logger   *log.Logger
	now      func() time.Time

	mu         sync.RWMutex
	engine     *game.Engine
	bankSource string
}

// Deps groups the collaborators of a GameService. Remote and Client are nil
// when no remote API is configured.
type Deps struct {
	Accounts *accounts.Manager
	Storage  *progress.FallbackBackend
	Remote   *progress.RemoteBackend
	Client   *remote.Client
	Sessions *sessions.Registry
	Source   *questions.Source
	Metrics  *metrics.Metrics
	Logger   *log.Logger
}

func NewGameService(ctx context.Context, d Deps) *GameService {
	s := &GameService{
		accounts: d.Accounts,
		storage:  d.Storage,
		remote:   d.Remote,
		client:   d.Client,
		sessions: d.Sessions,
		source:   d.Source,
		metrics:  d.Metrics,
		logger:   d.Logger,
		now:      time.Now,
	}
	s.ReloadQuestions(ctx)
	return s
}

// ReloadQuestions fetches the bank again and reports where it came from.
// Live sessions keep playing against the new bank.
func (s *GameService) ReloadQuestions(ctx context.Context) string {
	qs, from := s.source.Load(ctx)
	engine := game.NewEngine(qs)

	s.mu.Lock()
	s.engine = engine
	s.bankSource = from
	s.mu.Unlock()

	s.logger.Printf("loaded %d questions from %s", engine.Total(), from)
	return from
}

func (s *GameService) Engine() *game.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// QuestionSource is "database" or "fallback".
func (s *GameService) QuestionSource() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bankSource
}

// Register creates the local account and mirrors it to the remote API when
// one is configured.
func (s *GameService) Register(ctx context.Context, username, password, email string) (*models.PublicUser, error) {
	user, err := s.accounts.Register(ctx, username, password, email)
	if err != nil {
		return nil, err
	}
	if s.client != nil {
		if err := s.client.Register(ctx, user.Username, email, password); err != nil {
			s.logger.Printf("remote registration of %s failed: %v", user.Username, err)
		}
	}
	return user, nil
}

type LoginResult struct {
	User    *models.PublicUser
	Session *sessions.Session
	View    game.View
	Storage string
}

// Login verifies the credentials and opens a session. The permanent
// completion flag is read from the local store before any saved state, so
// a completed player is always locked out of replaying. A player has at
// most one live session: logging in again ends the earlier one.
func (s *GameService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.accounts.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if n := s.sessions.DeleteUser(user.Username); n > 0 {
		s.logger.Printf("ended %d earlier session(s) of %s", n, user.Username)
	}
	if s.client != nil && s.remote != nil {
		token, err := s.client.Login(ctx, user.Username, password)
		if err != nil {
			s.logger.Printf("remote login of %s failed, using local storage: %v", user.Username, err)
		} else {
			s.remote.Authorize(user.Username, token)
		}
	}

	engine := s.Engine()
	var (
		saved   *models.Progress
		storage string
	)
	if user.GameCompletedPermanently {
		saved = &models.Progress{ComboMultiplier: game.MinCombo, GameCompletedPermanently: true}
		if user.SavedProgress != nil {
			saved = user.SavedProgress.Clone()
			saved.GameCompletedPermanently = true
		}
		storage = "local"
	} else {
		saved, storage, err = s.storage.LoadVia(ctx, user.Username)
		if err != nil {
			s.logger.Printf("loading progress of %s failed, starting fresh: %v", user.Username, err)
		}
	}

	state := game.Restore(user.Username, saved, engine.Total(), s.now())
	sess := s.sessions.Create(user.Username, state, storage)

	res := &LoginResult{User: user, Session: sess, Storage: storage}
	_ = sess.Do(func(st *game.State) error {
		res.View = engine.View(st)
		return nil
	})
	return res, nil
}

func (s *GameService) Logout(sessionID, username string) {
	// A session already replaced by a newer login must not take the newer
	// session's remote token with it.
	if _, ok := s.sessions.Get(sessionID); !ok {
		return
	}
	s.sessions.Delete(sessionID)
	if s.remote != nil {
		s.remote.Forget(username)
	}
}

// Session returns the live session, or ErrSessionExpired.
func (s *GameService) Session(sessionID string) (*sessions.Session, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionExpired
	}
	return sess, nil
}

func (s *GameService) View(sess *sessions.Session) game.View {
	engine := s.Engine()
	var v game.View
	_ = sess.Do(func(st *game.State) error {
		v = engine.View(st)
		return nil
	})
	return v
}

type ActResult struct {
	Outcome game.Outcome
	View    game.View
	// Storage names the backend that took the last write, or
	// progress.Unavailable.
	Storage string
}

// Act applies one player action and persists the checkpoints it produces.
func (s *GameService) Act(ctx context.Context, sess *sessions.Session, action game.Action) (*ActResult, error) {
	engine := s.Engine()
	res := &ActResult{}

	err := sess.Do(func(st *game.State) error {
		phase := engine.Phase(st)
		out, err := engine.Apply(st, action)
		if err != nil {
			return err
		}
		s.record(phase, action, out)

		if out.GameCompleted {
			st.CompletedPermanently = true
		}
		if out.Persist {
			name, err := s.storage.SaveVia(ctx, sess.Username, game.Snapshot(st))
			if err != nil {
				s.logger.Printf("progress of %s not saved: %v", sess.Username, err)
			}
			sess.SetStorage(name)
		}
		if out.GameCompleted {
			s.finish(ctx, sess.Username, st.Score)
		}

		res.Outcome = out
		res.View = engine.View(st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Storage = sess.Storage()
	return res, nil
}

func (s *GameService) record(phase game.Phase, action game.Action, out game.Outcome) {
	switch action.Kind {
	case game.SubmitAnswer, game.SubmitKey:
		s.metrics.Answer(string(phase), out.Correct)
	case game.RequestHint, game.RequestSecurityHint:
		if out.HintCharged {
			s.metrics.Hint(string(phase))
		}
	}
	if out.LevelCompleted {
		s.metrics.LevelCompleted()
	}
	if out.GameCompleted {
		s.metrics.GameCompleted()
	}
}

func (s *GameService) finish(ctx context.Context, username string, score int) {
	if _, err := s.storage.MarkCompletedVia(ctx, username); err != nil {
		s.logger.Printf("marking %s as completed failed: %v", username, err)
	}
	if err := s.accounts.UpdateStats(ctx, username, score); err != nil {
		s.logger.Printf("updating stats of %s failed: %v", username, err)
	}
}

// Save writes the current state on demand.
func (s *GameService) Save(ctx context.Context, sess *sessions.Session) (string, error) {
	var (
		name string
		err  error
	)
	_ = sess.Do(func(st *game.State) error {
		name, err = s.storage.SaveVia(ctx, sess.Username, game.Snapshot(st))
		sess.SetStorage(name)
		return nil
	})
	return name, err
}

// Reset clears saved progress and restarts the session at level 1. A
// permanently completed game cannot be reset.
func (s *GameService) Reset(ctx context.Context, sess *sessions.Session) (*ActResult, error) {
	engine := s.Engine()
	res := &ActResult{}
	err := sess.Do(func(st *game.State) error {
		if st.CompletedPermanently {
			return ErrResetLocked
		}
		name, err := s.storage.ClearVia(ctx, sess.Username)
		if err != nil {
			s.logger.Printf("clearing progress of %s failed: %v", sess.Username, err)
		}
		sess.SetStorage(name)

		*st = *game.NewState(sess.Username, s.now())
		res.View = engine.View(st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Storage = sess.Storage()
	return res, nil
}

// DropUser ends every session of username, e.g. after disabling the account.
func (s *GameService) DropUser(username string) {
	s.sessions.DeleteUser(username)
	if s.remote != nil {
		s.remote.Forget(username)
	}
}
