package service

import (
	"sync"
	"time"

	"github.com/bookbay/storefront/internal/core/coupon"
	"github.com/bookbay/storefront/internal/core/ports"
)

// Manager hands out one CartService per storefront session. The backend,
// validator and guest repository are shared; the snapshot, selection and
// applied coupon are per session.
type Manager struct {
	backend   ports.CartBackend
	validator coupon.Validator
	guests    ports.GuestCartRepository

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	svc      *CartService
	lastSeen time.Time
}

func NewManager(backend ports.CartBackend, validator coupon.Validator, guests ports.GuestCartRepository) *Manager {
	return &Manager{
		backend:   backend,
		validator: validator,
		guests:    guests,
		sessions:  make(map[string]*sessionEntry),
	}
}

// ForSession returns the session's service, creating it on first use.
func (m *Manager) ForSession(id string) *CartService {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	if !ok {
		entry = &sessionEntry{
			svc: New(m.backend, coupon.NewGate(m.validator, nil), m.guests),
		}
		m.sessions[id] = entry
	}
	entry.lastSeen = time.Now()
	return entry.svc
}

// Sweep drops sessions idle longer than maxIdle and returns how many were
// evicted. Guest carts survive a sweep: they live in the repository, not in
// the session entry.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	evicted := 0
	for id, entry := range m.sessions {
		if entry.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}
