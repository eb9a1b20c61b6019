// Package account keeps registered users, login sessions and the remembered
// current user in a badger database.
package account

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"reportgen/internal/domain"
	"reportgen/internal/logging"
)

var (
	ErrMissingFields      error = &domain.UserError{Reason: "missing account fields", Message: "Please fill in all fields."}
	ErrEmailTaken         error = &domain.UserError{Reason: "email already registered", Message: "Email already registered. Please log in."}
	ErrInvalidCredentials error = &domain.UserError{Reason: "invalid credentials", Message: "Invalid email or password."}
	ErrNotFound                 = errors.New("account not found")
	ErrSessionNotFound          = errors.New("session not found or expired")
	ErrNoCurrentUser            = errors.New("no user is signed in")
)

const (
	userPrefix    = "user/"
	sessionPrefix = "session/"
	currentKey    = "current"

	defaultSessionTTL = 24 * time.Hour
)

// User is a registered account. PasswordHash is a bcrypt hash.
type User struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session binds a login token to an account.
type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the account repository.
type Store struct {
	db         *badger.DB
	logger     *logrus.Entry
	sessionTTL time.Duration
	cost       int
}

// Option configures a Store.
type Option func(*Store)

// WithSessionTTL sets how long a session token stays valid. Zero disables expiry.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Store) { s.sessionTTL = ttl }
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Store) { s.cost = cost }
}

// Open opens the store under dir. An empty dir keeps everything in memory.
func Open(dir string, logger *logrus.Entry, opts ...Option) (*Store, error) {
	logger = logging.Component(logger, "accounts")
	db, err := openDB(dir, logger)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, logger: logger, sessionTTL: defaultSessionTTL, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// SignUp registers a new account. Name and email are trimmed; all fields are required.
func (s *Store) SignUp(name, email, password string) (*User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}
	user := &User{Name: name, Email: email, PasswordHash: hash, CreatedAt: time.Now().UTC()}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := userKey(email)
		if _, err := txn.Get(key); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return putJSON(txn, key, user, 0)
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithField("email", email).Info("account created")
	return user, nil
}

// Authenticate checks the credentials and returns the matching account.
func (s *Store) Authenticate(email, password string) (*User, error) {
	user, err := s.Get(strings.TrimSpace(email))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Get returns the account registered under email.
func (s *Store) Get(email string) (*User, error) {
	var user User
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(email), &user)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete removes the account. Its sessions expire on their own.
func (s *Store) Delete(email string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := userKey(email)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

// StartSession issues a new session token for the account.
func (s *Store) StartSession(email string) (*Session, error) {
	if _, err := s.Get(email); err != nil {
		return nil, err
	}
	sess := &Session{Token: uuid.NewString(), Email: email, CreatedAt: time.Now().UTC()}
	err := s.db.Update(func(txn *badger.Txn) error {
		return putJSON(txn, sessionKey(sess.Token), sess, s.sessionTTL)
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Session resolves a token to the account it was issued for.
func (s *Store) Session(token string) (*User, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	var sess Session
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, sessionKey(token), &sess)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	user, err := s.Get(sess.Email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	return user, err
}

// EndSession revokes a token. Unknown tokens are ignored.
func (s *Store) EndSession(token string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(token))
	})
}

// SetCurrent remembers email as the signed-in user across runs.
func (s *Store) SetCurrent(email string) error {
	if _, err := s.Get(email); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(currentKey), []byte(email))
	})
}

// Current returns the remembered signed-in user.
func (s *Store) Current() (*User, error) {
	var email string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(currentKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			email = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNoCurrentUser
	}
	if err != nil {
		return nil, err
	}
	user, err := s.Get(email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoCurrentUser
	}
	return user, err
}

// ClearCurrent forgets the signed-in user.
func (s *Store) ClearCurrent() error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(currentKey))
	})
}

func userKey(email string) []byte    { return []byte(userPrefix + email) }
func sessionKey(token string) []byte { return []byte(sessionPrefix + token) }

func putJSON(txn *badger.Txn, key []byte, v any, ttl time.Duration) error {
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e := badger.NewEntry(key, val)
	if ttl > 0 {
		e = e.WithTTL(ttl)
	}
	return txn.SetEntry(e)
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}
