// Package user keeps the registered storefront accounts.
package user

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// AdminUsername is the only account allowed to delete other accounts.
const AdminUsername = "admin"

var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicate          = errors.New("the username is already in use, please choose another one")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalid            = errors.New("username and password are required")
)

// User is a registered account.
type User struct {
	Username        string `json:"username"`
	Hash            []byte `json:"-"`
	AcceptedCookies bool   `json:"acceptedCookies"`
}

// IsAdmin reports whether u may administer other accounts.
func (u User) IsAdmin() bool {
	return u.Username == AdminUsername
}

// Store is an in-memory account registry.
type Store struct {
	mu    sync.RWMutex
	users map[string]User
	cost  int
}

// NewStore returns an empty registry hashing with the given bcrypt cost.
// A cost outside bcrypt's range falls back to bcrypt.DefaultCost.
func NewStore(cost int) *Store {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Store{users: make(map[string]User), cost: cost}
}

// Register creates an account.
func (s *Store) Register(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrInvalid
	}
	if s.Exists(username) {
		return ErrDuplicate
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return ErrDuplicate
	}
	s.users[username] = User{Username: username, Hash: hash}
	return nil
}

// Seed registers "name:password" pairs, skipping names already taken.
func (s *Store) Seed(pairs []string) error {
	for _, p := range pairs {
		name, pass, ok := strings.Cut(p, ":")
		if !ok {
			return ErrInvalid
		}
		if err := s.Register(name, pass); err != nil && !errors.Is(err, ErrDuplicate) {
			return err
		}
	}
	return nil
}

// Authenticate checks a password against the stored hash.
func (s *Store) Authenticate(username, password string) (User, error) {
	u, err := s.Get(username)
	if err != nil {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.Hash, []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Get returns the account for username.
func (s *Store) Get(username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// Exists reports whether username is taken.
func (s *Store) Exists(username string) bool {
	_, err := s.Get(username)
	return err == nil
}

// List returns all accounts sorted by username.
func (s *Store) List() []User {
	s.mu.RLock()
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// Delete removes an account.
func (s *Store) Delete(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; !ok {
		return ErrNotFound
	}
	delete(s.users, username)
	return nil
}

// AcceptCookies records the cookie consent of username.
func (s *Store) AcceptCookies(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return ErrNotFound
	}
	u.AcceptedCookies = true
	s.users[username] = u
	return nil
}
