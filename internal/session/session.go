// Package session persists the signed-in user between runs.
//
// The token and user survive a restart; the viewed-entity set does not.
// Storage is a small key/value table in SQLite.
package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	_ "modernc.org/sqlite"

	"github.com/abelbrown/harbor/internal/model"
)

// ErrNoSession is returned by Load when nothing usable is stored.
var ErrNoSession = errors.New("session: no stored session")

const (
	keyToken = "token"
	keyUser  = "user"
	keyTheme = "theme"
)

// Session is a restored sign-in.
type Session struct {
	Token string
	User  *model.User
}

// Store is the on-disk session. Safe for concurrent use.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// Open opens (creating if needed) the session database at path.
// ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping session db: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Load returns the stored session. A JWT whose exp claim has passed is
// cleared and reported as ErrNoSession. Tokens that are not JWTs are
// returned as-is; the server is the authority on those.
func (s *Store) Load() (Session, error) {
	s.mu.RLock()
	token, err := s.get(keyToken)
	var rawUser string
	if err == nil {
		rawUser, err = s.get(keyUser)
		if errors.Is(err, sql.ErrNoRows) {
			err = nil
		}
	}
	s.mu.RUnlock()

	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}
	if token == "" {
		return Session{}, ErrNoSession
	}

	if s.expired(token) {
		if err := s.Clear(); err != nil {
			return Session{}, err
		}
		return Session{}, ErrNoSession
	}

	sess := Session{Token: token}
	if rawUser != "" {
		var u model.User
		if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
			return Session{}, fmt.Errorf("decode stored user: %w", err)
		}
		sess.User = &u
	}
	return sess, nil
}

func (s *Store) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !s.now().Before(exp.Time)
}

// SaveAuth stores token and user in one transaction.
func (s *Store) SaveAuth(token string, user *model.User) error {
	var rawUser []byte
	if user != nil {
		var err error
		if rawUser, err = json.Marshal(user); err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := s.put(tx, keyToken, token); err != nil {
		return err
	}
	if user != nil {
		err = s.put(tx, keyUser, string(rawUser))
	} else {
		_, err = tx.Exec(`DELETE FROM kv WHERE key = ?`, keyUser)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

// SaveUser replaces the stored user, keeping the token.
func (s *Store) SaveUser(user *model.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(s.db, keyUser, string(raw))
}

// Clear forgets the token and user. Preferences such as the theme survive.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key IN (?, ?)`, keyToken, keyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Theme returns the stored theme, or "" when unset.
func (s *Store) Theme() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.get(keyTheme)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// SetTheme persists the theme preference.
func (s *Store) SetTheme(theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(s.db, keyTheme, theme)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *Store) put(ex execer, key, value string) error {
	_, err := ex.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().UTC())
	if err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// get must be called with mu held.
func (s *Store) get(key string) (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	return v, err
}
