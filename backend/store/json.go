package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"treasurehunt/backend/models"
)

// JSONRepository keeps all users in one JSON file. Each operation re-reads
// and rewrites the whole file while holding mu, so writers in this process
// never overwrite each other's changes.
type JSONRepository struct {
	path   string
	logger *log.Logger
	mu     sync.Mutex
}

func NewJSONRepository(path string, logger *log.Logger) (*JSONRepository, error) {
	r := &JSONRepository{path: path, logger: logger}
	if err := r.initialize(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *JSONRepository) Path() string {
	return r.path
}

func (r *JSONRepository) initialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat users file: %w", err)
	}
	return r.write(&models.UsersDocument{Users: []models.User{}})
}

// read treats a missing file as an empty store. Any other failure is
// reported so that callers never write back a store they could not load.
func (r *JSONRepository) read() (*models.UsersDocument, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &models.UsersDocument{Users: []models.User{}}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var doc models.UsersDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if doc.Users == nil {
		doc.Users = []models.User{}
	}
	return &doc, nil
}

// readForWrite refuses to hand out a document when the file is bad.
func (r *JSONRepository) readForWrite() (*models.UsersDocument, error) {
	doc, err := r.read()
	if err != nil {
		r.logger.Printf("users file %s: refusing to write: %v", r.path, err)
		return nil, err
	}
	return doc, nil
}

// readOrEmpty lets lookups degrade to an empty store.
func (r *JSONRepository) readOrEmpty() *models.UsersDocument {
	doc, err := r.read()
	if err != nil {
		r.logger.Printf("users file %s: treating as empty: %v", r.path, err)
		return &models.UsersDocument{Users: []models.User{}}
	}
	return doc
}

func (r *JSONRepository) write(doc *models.UsersDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".users-*.json")
	if err != nil {
		return fmt.Errorf("create temp users file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write users file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close users file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace users file: %w", err)
	}
	return nil
}

func indexOf(users []models.User, username string) int {
	for i := range users {
		if SameUsername(users[i].Username, username) {
			return i
		}
	}
	return -1
}

func (r *JSONRepository) List(ctx context.Context) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.readOrEmpty().Users, nil
}

func (r *JSONRepository) Get(ctx context.Context, username string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.readOrEmpty()
	i := indexOf(doc.Users, username)
	if i < 0 {
		return nil, ErrNotFound
	}
	user := doc.Users[i]
	return &user, nil
}

func (r *JSONRepository) Create(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.readForWrite()
	if err != nil {
		return err
	}
	if indexOf(doc.Users, user.Username) >= 0 {
		return ErrDuplicate
	}
	doc.Users = append(doc.Users, *user)
	return r.write(doc)
}

func (r *JSONRepository) Update(ctx context.Context, username string, fn func(*models.User) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.readForWrite()
	if err != nil {
		return err
	}
	i := indexOf(doc.Users, username)
	if i < 0 {
		return ErrNotFound
	}

	user := doc.Users[i]
	if err := fn(&user); err != nil {
		return err
	}
	doc.Users[i] = user
	return r.write(doc)
}

func (r *JSONRepository) Delete(ctx context.Context, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.readForWrite()
	if err != nil {
		return err
	}
	kept := doc.Users[:0]
	for _, u := range doc.Users {
		if !SameUsername(u.Username, username) {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(doc.Users) {
		return ErrNotFound
	}
	doc.Users = kept
	return r.write(doc)
}
