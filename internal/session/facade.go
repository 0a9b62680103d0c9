// Package session maintains the process-wide view of the authenticated
// user. The facade is the single writer of SessionState; everything else
// reads snapshots or subscribes to updates. It is an injectable value owned
// by the composition root, not a package-level global.
package session

import (
	"context"
	"sync"

	"github.com/aora-app/client/internal/aora"
	"github.com/aora-app/client/internal/logging"
	"github.com/aora-app/client/internal/models"
)

// IdentityResolver is the slice of the adapter the facade depends on.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context) aora.IdentityResult
}

// Facade holds the cached SessionState and refreshes it from the resolver.
type Facade struct {
	resolver IdentityResolver

	mu          sync.Mutex
	state       models.SessionState
	subscribers map[int]chan models.SessionState
	nextSub     int

	initOnce sync.Once
}

// NewFacade constructs a facade in the initial loading state.
func NewFacade(resolver IdentityResolver) *Facade {
	if resolver == nil {
		panic("session: resolver must not be nil")
	}
	return &Facade{
		resolver:    resolver,
		state:       models.SessionState{IsLoading: true},
		subscribers: make(map[int]chan models.SessionState),
	}
}

// Initialize performs the startup identity check exactly once. Whatever the
// outcome, IsLoading drops to false when the check resolves. Subsequent
// calls are no-ops; use Refresh after explicit auth actions.
func (f *Facade) Initialize(ctx context.Context) {
	f.initOnce.Do(func() {
		f.resolve(ctx)
	})
}

// Refresh re-runs the identity check and publishes the result. Callers
// trigger this after sign-in, sign-up and sign-out so the cached state
// tracks the backend's actual session state. When a Refresh races the
// startup check, whichever resolution completes last wins.
func (f *Facade) Refresh(ctx context.Context) {
	f.resolve(ctx)
}

// Read returns the current snapshot. Safe to call at any time, including
// before Initialize completes, when it reports the loading state.
func (f *Facade) Read() models.SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Subscribe registers an observer for state updates. The returned cancel
// function detaches it. Updates are delivered best-effort: a subscriber
// that is not draining its channel misses intermediate states but always
// observes the latest on the next receive.
func (f *Facade) Subscribe() (<-chan models.SessionState, func()) {
	ch := make(chan models.SessionState, 1)

	f.mu.Lock()
	id := f.nextSub
	f.nextSub++
	f.subscribers[id] = ch
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if existing, ok := f.subscribers[id]; ok {
			delete(f.subscribers, id)
			close(existing)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func (f *Facade) resolve(ctx context.Context) {
	result := f.resolver.ResolveIdentity(ctx)
	if result.Status == aora.IdentityLookupFailed {
		logging.FromContext(ctx).Error("session refresh failed, treating as signed out", "error", result.Err)
	}

	next := models.SessionState{
		IsLoading:  false,
		IsLoggedIn: result.Status == aora.IdentityAuthenticated,
	}
	if next.IsLoggedIn {
		next.User = result.Identity
	}

	f.mu.Lock()
	f.state = next
	for _, ch := range f.subscribers {
		select {
		case ch <- next:
		default:
			// Replace a stale undelivered state with the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- next:
			default:
			}
		}
	}
	f.mu.Unlock()
}
