// Package session keeps browser sessions in Redis.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CookieName is the cookie carrying the session id.
const CookieName = "session_id"

const (
	fieldUser    = "user"
	fieldCookies = "cookies"
	fieldCreated = "created"
	fieldError   = "error"
	fieldMessage = "message"
)

// ErrNoSession indicates the id is unknown or expired.
var ErrNoSession = errors.New("session not found")

// Session is the state attached to one browser.
type Session struct {
	ID              string
	Username        string
	AcceptedCookies bool
}

// LoggedIn reports whether a user is attached.
func (s Session) LoggedIn() bool { return s.Username != "" }

// Flash holds one-shot messages shown on the next page.
type Flash struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Manager stores sessions as Redis hashes under session:<id>.
type Manager struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	secure bool
}

// NewManager returns a manager whose sessions expire after ttl of
// inactivity. secure marks the cookie HTTPS-only.
func NewManager(rdb redis.Cmdable, ttl time.Duration, secure bool) *Manager {
	return &Manager{rdb: rdb, ttl: ttl, secure: secure}
}

func key(id string) string { return "session:" + id }

// New creates an anonymous session.
func (m *Manager) New(ctx context.Context) (Session, error) {
	s := Session{ID: uuid.NewString()}
	if err := m.set(ctx, s.ID, fieldCreated, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Load fetches a session and extends its lifetime.
func (m *Manager) Load(ctx context.Context, id string) (Session, error) {
	vals, err := m.rdb.HGetAll(ctx, key(id)).Result()
	if err != nil {
		return Session{}, err
	}
	if len(vals) == 0 {
		return Session{}, ErrNoSession
	}
	if err := m.rdb.Expire(ctx, key(id), m.ttl).Err(); err != nil {
		return Session{}, err
	}
	return Session{ID: id, Username: vals[fieldUser], AcceptedCookies: vals[fieldCookies] == "1"}, nil
}

// Login attaches username to the session.
func (m *Manager) Login(ctx context.Context, id, username string) error {
	return m.set(ctx, id, fieldUser, username)
}

// AcceptCookies records cookie consent on the session.
func (m *Manager) AcceptCookies(ctx context.Context, id string) error {
	return m.set(ctx, id, fieldCookies, "1")
}

// Destroy deletes the session.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	return m.rdb.Del(ctx, key(id)).Err()
}

// SetError stores a flash error.
func (m *Manager) SetError(ctx context.Context, id, msg string) error {
	return m.set(ctx, id, fieldError, msg)
}

// SetMessage stores a flash message.
func (m *Manager) SetMessage(ctx context.Context, id, msg string) error {
	return m.set(ctx, id, fieldMessage, msg)
}

// PopFlash returns and clears the flash messages.
func (m *Manager) PopFlash(ctx context.Context, id string) (Flash, error) {
	var get *redis.SliceCmd
	_, err := m.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HMGet(ctx, key(id), fieldError, fieldMessage)
		pipe.HDel(ctx, key(id), fieldError, fieldMessage)
		return nil
	})
	if err != nil {
		return Flash{}, err
	}
	vals := get.Val()
	var f Flash
	if s, ok := vals[0].(string); ok {
		f.Error = s
	}
	if s, ok := vals[1].(string); ok {
		f.Message = s
	}
	return f, nil
}

func (m *Manager) set(ctx context.Context, id, field, value string) error {
	_, err := m.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key(id), field, value)
		pipe.Expire(ctx, key(id), m.ttl)
		return nil
	})
	return err
}

// Cookie builds the cookie carrying id.
func (m *Manager) Cookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

type ctxKey struct{}

// FromContext returns the session loaded by Middleware.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// Middleware loads the session named by the request cookie, starting a new
// anonymous one when it is missing or expired.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var (
			s   Session
			err error
		)
		if c, cerr := r.Cookie(CookieName); cerr == nil && c.Value != "" {
			s, err = m.Load(ctx, c.Value)
		} else {
			err = ErrNoSession
		}
		if errors.Is(err, ErrNoSession) {
			s, err = m.New(ctx)
			if err == nil {
				http.SetCookie(w, m.Cookie(s.ID))
			}
		}
		if err != nil {
			http.Error(w, "session error", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(ctx, s)))
	})
}
