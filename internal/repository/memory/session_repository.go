package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"requirements-intake-be/internal/entity"
)

// SessionRepository keeps intake sessions in memory. Nothing survives a
// restart: staged drafts, clips and files are intentionally ephemeral, and
// idle sessions expire on their own.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	// The janitor interval bounds how long an expired session can linger
	// before its eviction hook fires.
	cleanup := 10 * time.Minute
	if ttl < cleanup {
		cleanup = ttl
	}
	c := cache.New(ttl, cleanup)
	return &SessionRepository{
		cache: c,
	}
}

// OnEvicted registers the hook fired when a session expires or is deleted.
// Holders of live resources (an active recording) use it to release them.
func (r *SessionRepository) OnEvicted(fn func(*entity.IntakeSession)) {
	r.cache.OnEvicted(func(_ string, value interface{}) {
		fn(value.(*entity.IntakeSession))
	})
}

func (r *SessionRepository) Save(session *entity.IntakeSession) {
	r.cache.Set(session.Id.String(), session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionId uuid.UUID) (*entity.IntakeSession, bool) {
	if x, found := r.cache.Get(sessionId.String()); found {
		return x.(*entity.IntakeSession), true
	}
	return nil, false
}

// Touch refreshes the expiration of a live session.
func (r *SessionRepository) Touch(session *entity.IntakeSession) {
	r.Save(session)
}

func (r *SessionRepository) Delete(sessionId uuid.UUID) {
	r.cache.Delete(sessionId.String())
}
