// Package accounts is the credential store: registration, login, per-user
// stats, saved progress and the admin account operations, all keyed by
// case-insensitive username.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"treasurehunt/backend/models"
	"treasurehunt/backend/store"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
	// MaxPasswordLength is in bytes, the most bcrypt accepts.
	MaxPasswordLength = 72
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account has been disabled, please contact the administrator")
	ErrUserNotFound       = errors.New("user not found")
	ErrNoChanges          = errors.New("no changes provided")
)

type Manager struct {
	repo   store.Repository
	hasher Hasher
	logger *log.Logger
}

func NewManager(repo store.Repository, hasher Hasher, logger *log.Logger) *Manager {
	return &Manager{repo: repo, hasher: hasher, logger: logger}
}

func translate(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, store.ErrDuplicate):
		return ErrDuplicateUsername
	}
	return err
}

func validateUsername(username string) error {
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return fmt.Errorf("%w: username must be at least %d characters long", ErrInvalidInput, MinUsernameLength)
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrInvalidInput, MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d bytes long", ErrInvalidInput, MaxPasswordLength)
	}
	return nil
}

func (m *Manager) Register(ctx context.Context, username, password, email string) (*models.PublicUser, error) {
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := m.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:  username,
		Password:  hash,
		Email:     strings.TrimSpace(email),
		CreatedAt: models.Now(),
		IsActive:  true,
	}
	if err := m.repo.Create(ctx, user); err != nil {
		return nil, translate(err)
	}

	public := user.Public()
	return &public, nil
}

// Login verifies the password before looking at the account state, so the
// disabled message is only ever shown to someone holding the password.
func (m *Manager) Login(ctx context.Context, username, password string) (*models.PublicUser, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	user, err := m.repo.Get(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !m.hasher.Verify(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	var upgraded string
	if m.hasher.NeedsUpgrade(user.Password) {
		if upgraded, err = m.hasher.Hash(password); err != nil {
			m.logger.Printf("rehash for %s failed, keeping legacy hash: %v", user.Username, err)
			upgraded = ""
		}
	}

	var public models.PublicUser
	err = m.repo.Update(ctx, username, func(u *models.User) error {
		u.LastLogin = models.NowPtr()
		if upgraded != "" {
			u.Password = upgraded
		}
		public = u.Public()
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return &public, nil
}

// UpdateStats records a finished game.
func (m *Manager) UpdateStats(ctx context.Context, username string, score int) error {
	return translate(m.repo.Update(ctx, username, func(u *models.User) error {
		u.TotalGames++
		if score > u.HighScore {
			u.HighScore = score
		}
		return nil
	}))
}

func (m *Manager) SaveProgress(ctx context.Context, username string, progress models.Progress) error {
	saved := progress.Clone()
	if saved.Achievements == nil {
		saved.Achievements = []string{}
	}
	saved.SavedAt = models.NowPtr()

	return translate(m.repo.Update(ctx, username, func(u *models.User) error {
		u.SavedProgress = saved
		return nil
	}))
}

// LoadProgress returns nil when nothing is saved. A permanently completed
// account always yields a record carrying that flag.
func (m *Manager) LoadProgress(ctx context.Context, username string) (*models.Progress, error) {
	user, err := m.repo.Get(ctx, username)
	if err != nil {
		return nil, translate(err)
	}
	progress := user.SavedProgress.Clone()
	if user.GameCompletedPermanently {
		if progress == nil {
			progress = &models.Progress{ComboMultiplier: 1.0}
		}
		progress.GameCompletedPermanently = true
	}
	return progress, nil
}

func (m *Manager) ClearProgress(ctx context.Context, username string) error {
	return translate(m.repo.Update(ctx, username, func(u *models.User) error {
		u.SavedProgress = nil
		return nil
	}))
}

func (m *Manager) MarkCompleted(ctx context.Context, username string) error {
	return translate(m.repo.Update(ctx, username, func(u *models.User) error {
		u.GameCompletedPermanently = true
		return nil
	}))
}

func (m *Manager) IsCompleted(ctx context.Context, username string) (bool, error) {
	user, err := m.repo.Get(ctx, username)
	if err != nil {
		return false, translate(err)
	}
	return user.GameCompletedPermanently, nil
}

func (m *Manager) List(ctx context.Context) ([]models.PublicUser, error) {
	users, err := m.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

func (m *Manager) Exists(ctx context.Context, username string) (bool, error) {
	_, err := m.repo.Get(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *Manager) Details(ctx context.Context, username string) (*models.PublicUser, error) {
	user, err := m.repo.Get(ctx, username)
	if err != nil {
		return nil, translate(err)
	}
	public := user.Public()
	return &public, nil
}

func (m *Manager) Status(ctx context.Context, username string) (*models.UserStatus, error) {
	user, err := m.repo.Get(ctx, username)
	if err != nil {
		return nil, translate(err)
	}
	return &models.UserStatus{
		Username:   user.Username,
		IsActive:   user.IsActive,
		DisabledAt: user.DisabledAt,
		CreatedAt:  user.CreatedAt,
		LastLogin:  user.LastLogin,
	}, nil
}

// CreateUser is the admin flavour of Register; the account starts active.
func (m *Manager) CreateUser(ctx context.Context, username, password, email string) (*models.PublicUser, error) {
	return m.Register(ctx, username, password, email)
}

func (m *Manager) Disable(ctx context.Context, username string) error {
	return translate(m.repo.Update(ctx, username, func(u *models.User) error {
		u.IsActive = false
		u.DisabledAt = models.NowPtr()
		return nil
	}))
}

func (m *Manager) Activate(ctx context.Context, username string) error {
	return translate(m.repo.Update(ctx, username, func(u *models.User) error {
		u.IsActive = true
		u.DisabledAt = nil
		return nil
	}))
}

func (m *Manager) Delete(ctx context.Context, username string) error {
	return translate(m.repo.Delete(ctx, username))
}

// UpdateDetails changes email and/or password. Nil or blank values are left
// alone; it returns the names of the fields that changed.
func (m *Manager) UpdateDetails(ctx context.Context, username string, email, password *string) ([]string, error) {
	var newHash string
	if password != nil && strings.TrimSpace(*password) != "" {
		if err := validatePassword(*password); err != nil {
			return nil, err
		}
		hash, err := m.hasher.Hash(*password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		newHash = hash
	}

	var updated []string
	err := m.repo.Update(ctx, username, func(u *models.User) error {
		if email != nil && strings.TrimSpace(*email) != "" {
			u.Email = strings.TrimSpace(*email)
			updated = append(updated, "email")
		}
		if newHash != "" {
			u.Password = newHash
			updated = append(updated, "password")
		}
		if len(updated) == 0 {
			return ErrNoChanges
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}
