package bot

import "sync"

// session tracks the per-chat state: the current project and a lock that
// serializes operations for the chat. Overlapping extract/generate/chat
// requests would otherwise race on the shared project state, so a second
// request is refused while the first is in flight.
type session struct {
	mu        sync.Mutex
	projectID string
}

// sessionRegistry hands out one session per Telegram chat.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[int64]*session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[int64]*session)}
}

// acquire returns the chat's session with its lock held, or ok=false when an
// operation is already in flight for the chat.
func (r *sessionRegistry) acquire(chatID int64) (*session, bool) {
	r.mu.Lock()
	sess, exists := r.sessions[chatID]
	if !exists {
		sess = &session{}
		r.sessions[chatID] = sess
	}
	r.mu.Unlock()

	if !sess.mu.TryLock() {
		return nil, false
	}
	return sess, true
}

// release unlocks a session acquired with acquire.
func (r *sessionRegistry) release(sess *session) {
	sess.mu.Unlock()
}
