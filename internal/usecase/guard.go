package usecase

import (
	"sync"

	"github.com/LavaJover/shvark-swap-service/internal/domain"
)

// EntryGuard is the process-wide mutual-exclusion token shared by every
// guarded entry point: registry mutations and both payment paths. A call
// that arrives while another guarded call is in flight is rejected rather
// than queued, which keeps the serialized-call model and makes re-entry
// from an untrusted capability fail fast instead of deadlocking.
type EntryGuard struct {
	mu sync.Mutex
}

func NewEntryGuard() *EntryGuard {
	return &EntryGuard{}
}

func (g *EntryGuard) Acquire() error {
	if !g.mu.TryLock() {
		return domain.Errorf(domain.KindInvalidState, "reentrant or concurrent call rejected")
	}
	return nil
}

func (g *EntryGuard) Release() {
	g.mu.Unlock()
}
