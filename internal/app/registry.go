package app

import (
	"sync"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/rs/zerolog/log"
)

// IdentityRegistry maps a live connection to the display name it registered.
type IdentityRegistry struct {
	mu    sync.RWMutex
	users map[domain.ConnID]domain.Identity
}

func NewIdentityRegistry() *IdentityRegistry {
	return &IdentityRegistry{users: make(map[domain.ConnID]domain.Identity)}
}

// Register always succeeds and overwrites any previous identity of id.
// Display names are not unique across connections.
func (r *IdentityRegistry) Register(id domain.ConnID, username string) domain.Identity {
	u := domain.NewIdentity(id, username)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id] = u
	log.Info().Str("module", "app.identity").Str("conn", string(id)).Str("username", u.Username).Msg("registered")
	return u
}

func (r *IdentityRegistry) Lookup(id domain.ConnID) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	return u, ok
}

func (r *IdentityRegistry) Remove(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return
	}
	delete(r.users, id)
	log.Info().Str("module", "app.identity").Str("conn", string(id)).Msg("removed identity")
}

func (r *IdentityRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
