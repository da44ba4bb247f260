package story

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-hotspots/internal/domain"
	"github.com/couchcryptid/disaster-hotspots/internal/observability"
)

// Session is one visitor's position in the story.
type Session struct {
	ID           string        `json:"id"`
	Chapter      int           `json:"chapter"`
	SelectedCell domain.CellID `json:"selected_cell,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// IsFinal reports whether the session has reached the map chapter.
func (s Session) IsFinal() bool { return s.Chapter >= FinalChapter }

// Current returns the chapter the session is on.
func (s Session) Current() Chapter { return ChapterAt(s.Chapter) }

// Advance moves to the next chapter. It returns false once the final chapter
// is reached, leaving the session unchanged.
func (s *Session) Advance() bool {
	if s.IsFinal() {
		return false
	}
	s.Chapter++
	return true
}

// Session store defaults applied to zero SessionLimits fields.
const (
	DefaultSessionTTL  = 2 * time.Hour
	DefaultMaxSessions = 10000
)

// SessionLimits bounds the in-memory session store. Sessions idle for longer
// than TTL expire; once MaxSessions are live, creating another evicts the
// least recently used one.
type SessionLimits struct {
	TTL         time.Duration
	MaxSessions int
}

type storedSession struct {
	Session
	lastSeen time.Time
}

// SessionStore keeps sessions in memory. It is safe for concurrent use.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*storedSession
	limits   SessionLimits
	clock    clockwork.Clock
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewSessionStore creates an empty store. A nil clock uses real time.
func NewSessionStore(clock clockwork.Clock, limits SessionLimits, logger *slog.Logger, metrics *observability.Metrics) *SessionStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if limits.TTL <= 0 {
		limits.TTL = DefaultSessionTTL
	}
	if limits.MaxSessions <= 0 {
		limits.MaxSessions = DefaultMaxSessions
	}
	return &SessionStore{
		sessions: make(map[string]*storedSession),
		limits:   limits,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

// Create starts a session at the first chapter. Expired sessions are swept
// first, and the least recently used session is evicted when the store is
// full.
func (st *SessionStore) Create() Session {
	now := st.clock.Now().UTC()
	s := &storedSession{
		Session:  Session{ID: uuid.NewString(), CreatedAt: now},
		lastSeen: now,
	}

	st.mu.Lock()
	evicted := st.sweepLocked(now)
	if len(st.sessions) >= st.limits.MaxSessions {
		st.evictOldestLocked()
		evicted++
	}
	st.sessions[s.ID] = s
	st.mu.Unlock()

	st.metrics.SessionsCreated.Inc()
	if evicted > 0 {
		st.metrics.SessionsEvicted.Add(float64(evicted))
	}
	st.logger.Debug("session created", "session", s.ID, "evicted", evicted)
	return s.Session
}

// Get returns a copy of the session.
func (st *SessionStore) Get(id string) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	cur, err := st.touchLocked(id)
	if err != nil {
		return Session{}, err
	}
	return cur.Session, nil
}

// Advance moves the session forward one chapter. advanced is false when the
// session was already on the final chapter.
func (st *SessionStore) Advance(id string) (s Session, advanced bool, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	cur, err := st.touchLocked(id)
	if err != nil {
		return Session{}, false, err
	}
	if advanced = cur.Advance(); advanced {
		st.metrics.ChapterAdvances.Inc()
	}
	return cur.Session, advanced, nil
}

// Select records the hotspot the visitor picked on the map.
func (st *SessionStore) Select(id string, cell domain.CellID) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	cur, err := st.touchLocked(id)
	if err != nil {
		return Session{}, err
	}
	cur.SelectedCell = cell
	return cur.Session, nil
}

// Len returns the number of stored sessions, expired ones not yet swept
// included.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// touchLocked looks up a live session and refreshes its idle timer. An
// expired session is dropped and reported as not found.
func (st *SessionStore) touchLocked(id string) (*storedSession, error) {
	now := st.clock.Now().UTC()
	cur, ok := st.sessions[id]
	if ok && st.expired(cur, now) {
		delete(st.sessions, id)
		st.metrics.SessionsEvicted.Inc()
		ok = false
	}
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}
	cur.lastSeen = now
	return cur, nil
}

func (st *SessionStore) expired(s *storedSession, now time.Time) bool {
	return now.Sub(s.lastSeen) > st.limits.TTL
}

func (st *SessionStore) sweepLocked(now time.Time) int {
	n := 0
	for id, s := range st.sessions {
		if st.expired(s, now) {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}

func (st *SessionStore) evictOldestLocked() {
	var oldest *storedSession
	for _, s := range st.sessions {
		if oldest == nil || s.lastSeen.Before(oldest.lastSeen) {
			oldest = s
		}
	}
	if oldest != nil {
		delete(st.sessions, oldest.ID)
	}
}
