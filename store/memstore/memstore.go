// Package memstore keeps users and tasks in memory.
//
// Documents are encoded with msgpack and kept in a bigcache configured to
// never evict entries. Everything is lost once the process exits, so this is
// meant for tests and demos.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/andrebq/dolist/authprogram"
	"github.com/andrebq/dolist/tasks"
	"github.com/vmihailenco/msgpack/v5"
)

type (
	Store struct {
		// bigcache is safe for concurrent use, but read-modify-write
		// sequences are not
		mu    sync.Mutex
		cache *bigcache.BigCache
	}

	// userDoc is the user document without tokens, each token entry
	// lives under its own key.
	userDoc struct {
		ID           string `msgpack:"id"`
		Email        string `msgpack:"email"`
		PasswordHash string `msgpack:"password_hash"`
	}
)

const (
	userPrefix     = "user:"
	emailPrefix    = "email:"
	taskPrefix     = "task:"
	tokenPrefix    = "token:"
	tokenSeqPrefix = "tokenseq:"

	// bigcache drops the oldest entry on Set once it outlives the window
	neverExpire = 100 * 365 * 24 * time.Hour
)

var (
	_ authprogram.UserStore = (*Store)(nil)
	_ tasks.Store           = (*Store)(nil)
)

// New returns an empty store.
//
// bigcache never reclaims the space of overwritten or deleted entries, so
// writes only ever touch small entries: a login adds one token entry instead
// of rewriting the user. Memory still grows with every write.
func New() (*Store, error) {
	cfg := bigcache.DefaultConfig(neverExpire)
	cfg.CleanWindow = 0
	cfg.Shards = 64
	cfg.MaxEntriesInWindow = 1024
	cfg.MaxEntrySize = 256
	cfg.Verbose = false
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create in-memory store, cause %w", err)
	}
	return &Store{cache: cache}, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*authprogram.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadUser(id)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*authprogram.User, error) {
	id, err := s.cache.Get(emailPrefix + email)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("unable to lookup email, cause %w", err)
	}
	return s.FindByID(ctx, string(id))
}

func (s *Store) FindByCredentialLookup(ctx context.Context, id, token, purpose string) (*authprogram.User, error) {
	u, err := s.FindByID(ctx, id)
	if u == nil || err != nil {
		return nil, err
	}
	if !u.HasToken(token, purpose) {
		return nil, nil
	}
	return u, nil
}

func (s *Store) Insert(ctx context.Context, user *authprogram.User) (*authprogram.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.cache.Get(emailPrefix + user.Email)
	if err == nil {
		return nil, authprogram.ErrDuplicateEmail
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, fmt.Errorf("unable to lookup email, cause %w", err)
	}
	doc := userDoc{ID: user.ID, Email: user.Email, PasswordHash: user.PasswordHash}
	if err := s.save(userPrefix+user.ID, &doc); err != nil {
		return nil, err
	}
	for _, t := range user.Tokens {
		if err := s.appendToken(user.ID, t); err != nil {
			s.deleteUser(user.ID)
			return nil, err
		}
	}
	if err := s.cache.Set(emailPrefix+user.Email, []byte(user.ID)); err != nil {
		s.deleteUser(user.ID)
		return nil, fmt.Errorf("unable to index email, cause %w", err)
	}
	stored := *user
	stored.Tokens = append([]authprogram.TokenEntry(nil), user.Tokens...)
	return &stored, nil
}

func (s *Store) AppendToken(ctx context.Context, userID string, entry authprogram.TokenEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc userDoc
	found, err := s.load(userPrefix+userID, &doc)
	if err != nil {
		return err
	} else if !found {
		return authprogram.ErrUserNotFound
	}
	return s.appendToken(userID, entry)
}

func (s *Store) RemoveToken(ctx context.Context, userID string, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	slots, err := s.tokenSlots(userID)
	if err != nil {
		return err
	}
	for n := uint64(0); n < slots; n++ {
		var entry authprogram.TokenEntry
		found, err := s.load(tokenKey(userID, n), &entry)
		if err != nil {
			return err
		}
		if found && entry.Token == token {
			if err := s.cache.Delete(tokenKey(userID, n)); err != nil {
				return fmt.Errorf("unable to remove token of user %v, cause %w", userID, err)
			}
			return nil
		}
	}
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID string, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var doc userDoc
	found, err := s.load(userPrefix+userID, &doc)
	if err != nil {
		return err
	} else if !found {
		return authprogram.ErrUserNotFound
	}
	doc.PasswordHash = newHash
	return s.save(userPrefix+userID, &doc)
}

func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteUser(userID)
}

// loadUser must be called with mu held
func (s *Store) loadUser(id string) (*authprogram.User, error) {
	var doc userDoc
	found, err := s.load(userPrefix+id, &doc)
	if !found || err != nil {
		return nil, err
	}
	u := &authprogram.User{ID: doc.ID, Email: doc.Email, PasswordHash: doc.PasswordHash}
	slots, err := s.tokenSlots(id)
	if err != nil {
		return nil, err
	}
	for n := uint64(0); n < slots; n++ {
		var entry authprogram.TokenEntry
		found, err := s.load(tokenKey(id, n), &entry)
		if err != nil {
			return nil, err
		} else if found {
			u.Tokens = append(u.Tokens, entry)
		}
	}
	return u, nil
}

// appendToken must be called with mu held
func (s *Store) appendToken(userID string, entry authprogram.TokenEntry) error {
	n, err := s.tokenSlots(userID)
	if err != nil {
		return err
	}
	if err := s.save(tokenKey(userID, n), &entry); err != nil {
		return err
	}
	if err := s.save(tokenSeqPrefix+userID, n+1); err != nil {
		s.cache.Delete(tokenKey(userID, n))
		return err
	}
	return nil
}

// deleteUser must be called with mu held
func (s *Store) deleteUser(userID string) error {
	var doc userDoc
	found, err := s.load(userPrefix+userID, &doc)
	if err != nil {
		return err
	} else if !found {
		return nil
	}
	slots, err := s.tokenSlots(userID)
	if err != nil {
		return err
	}
	for n := uint64(0); n < slots; n++ {
		s.cache.Delete(tokenKey(userID, n))
	}
	s.cache.Delete(tokenSeqPrefix + userID)
	if id, err := s.cache.Get(emailPrefix + doc.Email); err == nil && string(id) == userID {
		s.cache.Delete(emailPrefix + doc.Email)
	}
	err = s.cache.Delete(userPrefix + userID)
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("unable to delete user %v, cause %w", userID, err)
	}
	return nil
}

// tokenSlots returns how many token keys were ever allocated to userID,
// removed entries leave a hole.
func (s *Store) tokenSlots(userID string) (uint64, error) {
	var slots uint64
	_, err := s.load(tokenSeqPrefix+userID, &slots)
	return slots, err
}

func tokenKey(userID string, n uint64) string {
	return fmt.Sprintf("%v%v:%d", tokenPrefix, userID, n)
}

func (s *Store) ListTasks(ctx context.Context) ([]tasks.Task, error) {
	var out []tasks.Task
	it := s.cache.Iterator()
	for it.SetNext() {
		entry, err := it.Value()
		if err != nil {
			return nil, fmt.Errorf("unable to iterate over tasks, cause %w", err)
		}
		if !strings.HasPrefix(entry.Key(), taskPrefix) {
			continue
		}
		var t tasks.Task
		if err := msgpack.Unmarshal(entry.Value(), &t); err != nil {
			return nil, fmt.Errorf("unable to decode task %v, cause %w", entry.Key(), err)
		}
		t.CreatedAt = t.CreatedAt.UTC()
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*tasks.Task, error) {
	var t tasks.Task
	found, err := s.load(taskPrefix+id, &t)
	if err != nil {
		return nil, err
	} else if !found {
		return nil, tasks.ErrNotFound
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

func (s *Store) CreateTask(ctx context.Context, task *tasks.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(taskPrefix+task.ID, task)
}

func (s *Store) UpdateTask(ctx context.Context, task *tasks.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var current tasks.Task
	found, err := s.load(taskPrefix+task.ID, &current)
	if err != nil {
		return err
	} else if !found {
		return tasks.ErrNotFound
	}
	return s.save(taskPrefix+task.ID, task)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.cache.Delete(taskPrefix + id)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return tasks.ErrNotFound
	} else if err != nil {
		return fmt.Errorf("unable to delete task %v, cause %w", id, err)
	}
	return nil
}

func (s *Store) DeleteAllTasks(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	it := s.cache.Iterator()
	for it.SetNext() {
		entry, err := it.Value()
		if err != nil {
			return 0, fmt.Errorf("unable to iterate over tasks, cause %w", err)
		}
		if strings.HasPrefix(entry.Key(), taskPrefix) {
			keys = append(keys, entry.Key())
		}
	}
	var removed int64
	for _, k := range keys {
		if err := s.cache.Delete(k); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (s *Store) Close() error {
	return s.cache.Close()
}

func (s *Store) load(key string, out interface{}) (bool, error) {
	buf, err := s.cache.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("unable to read %v, cause %w", key, err)
	}
	err = msgpack.Unmarshal(buf, out)
	if err != nil {
		return false, fmt.Errorf("unable to decode %v, cause %w", key, err)
	}
	return true, nil
}

func (s *Store) save(key string, doc interface{}) error {
	buf, err := msgpack.Marshal(doc)
	if err != nil {
		return fmt.Errorf("unable to encode %v, cause %w", key, err)
	}
	err = s.cache.Set(key, buf)
	if err != nil {
		return fmt.Errorf("unable to write %v, cause %w", key, err)
	}
	return nil
}
