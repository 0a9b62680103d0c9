package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aora-app/client/internal/aora"
	"github.com/aora-app/client/internal/models"
)

// scriptedResolver returns queued results in order and counts invocations.
// When a gate exists for a call's ordinal, that resolution blocks until the
// gate is released, letting tests control completion order.
type scriptedResolver struct {
	mu      sync.Mutex
	results []aora.IdentityResult
	calls   int
	gates   []chan struct{}
}

func (r *scriptedResolver) ResolveIdentity(context.Context) aora.IdentityResult {
	r.mu.Lock()
	idx := r.calls
	r.calls++
	var result aora.IdentityResult
	if len(r.results) > 0 {
		result = r.results[0]
		r.results = r.results[1:]
	}
	var gate chan struct{}
	if idx < len(r.gates) {
		gate = r.gates[idx]
	}
	r.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return result
}

func authenticated(id string) aora.IdentityResult {
	return aora.IdentityResult{
		Status:   aora.IdentityAuthenticated,
		Identity: &models.Identity{ID: id, Username: "user-" + id},
	}
}

func TestReadBeforeInitialize(t *testing.T) {
	facade := NewFacade(&scriptedResolver{})

	state := facade.Read()
	if !state.IsLoading || state.IsLoggedIn || state.User != nil {
		t.Fatalf("expected initial loading state, got %+v", state)
	}
}

func TestInitializeResolvesExactlyOnce(t *testing.T) {
	resolver := &scriptedResolver{results: []aora.IdentityResult{authenticated("u1"), authenticated("u2")}}
	facade := NewFacade(resolver)

	facade.Initialize(context.Background())
	facade.Initialize(context.Background())

	if resolver.calls != 1 {
		t.Fatalf("expected one identity check, got %d", resolver.calls)
	}

	state := facade.Read()
	if state.IsLoading {
		t.Fatal("loading must drop once the check resolves")
	}
	if !state.IsLoggedIn || state.User == nil || state.User.ID != "u1" {
		t.Fatalf("unexpected state: %+v", state)
	}
}

func TestInitializeFailureTreatedAsSignedOut(t *testing.T) {
	resolver := &scriptedResolver{results: []aora.IdentityResult{{
		Status: aora.IdentityLookupFailed,
		Err:    context.DeadlineExceeded,
	}}}
	facade := NewFacade(resolver)

	facade.Initialize(context.Background())

	state := facade.Read()
	if state.IsLoading || state.IsLoggedIn || state.User != nil {
		t.Fatalf("expected signed-out state after failure, got %+v", state)
	}
}

func TestReadSnapshotsAreIdentical(t *testing.T) {
	resolver := &scriptedResolver{results: []aora.IdentityResult{authenticated("u1")}}
	facade := NewFacade(resolver)
	facade.Initialize(context.Background())

	first := facade.Read()
	for i := 0; i < 5; i++ {
		if got := facade.Read(); got != first {
			t.Fatalf("snapshot %d = %+v, want %+v", i, got, first)
		}
	}
}

func TestRefreshAfterSignOut(t *testing.T) {
	resolver := &scriptedResolver{results: []aora.IdentityResult{
		authenticated("u1"),
		{Status: aora.IdentityUnauthenticated},
	}}
	facade := NewFacade(resolver)

	facade.Initialize(context.Background())
	if !facade.Read().IsLoggedIn {
		t.Fatal("expected signed-in state after initialize")
	}

	facade.Refresh(context.Background())
	state := facade.Read()
	if state.IsLoggedIn || state.User != nil {
		t.Fatalf("expected signed-out state after refresh, got %+v", state)
	}
	if resolver.calls != 2 {
		t.Fatalf("expected two identity checks, got %d", resolver.calls)
	}
}

func TestLastResolvedIdentityCheckWins(t *testing.T) {
	// Initialize blocks on its gate while a Refresh resolves first with
	// identity A; the late initialize resolution reports absent and must
	// overwrite A.
	initGate := make(chan struct{})
	refreshGate := make(chan struct{})
	resolver := &scriptedResolver{
		results: []aora.IdentityResult{
			{Status: aora.IdentityUnauthenticated}, // consumed by Initialize, resolves last
			authenticated("A"),                     // consumed by Refresh, resolves first
		},
		gates: []chan struct{}{initGate, refreshGate},
	}
	facade := NewFacade(resolver)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		facade.Initialize(context.Background())
	}()

	// Let Initialize claim the first scripted result before Refresh starts.
	waitFor(t, func() bool {
		resolver.mu.Lock()
		defer resolver.mu.Unlock()
		return resolver.calls == 1
	})

	refreshDone := make(chan struct{})
	go func() {
		defer wg.Done()
		facade.Refresh(context.Background())
		close(refreshDone)
	}()

	waitFor(t, func() bool {
		resolver.mu.Lock()
		defer resolver.mu.Unlock()
		return resolver.calls == 2
	})

	// Release the refresh first, then the initialize.
	close(refreshGate)
	<-refreshDone
	close(initGate)
	wg.Wait()

	state := facade.Read()
	if state.IsLoggedIn || state.User != nil {
		t.Fatalf("expected the later absent resolution to win, got %+v", state)
	}
}

func TestSubscribeObservesUpdates(t *testing.T) {
	resolver := &scriptedResolver{results: []aora.IdentityResult{authenticated("u1")}}
	facade := NewFacade(resolver)

	updates, cancel := facade.Subscribe()
	defer cancel()

	facade.Initialize(context.Background())

	select {
	case state := <-updates:
		if !state.IsLoggedIn || state.User == nil || state.User.ID != "u1" {
			t.Fatalf("unexpected update: %+v", state)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a state update")
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	facade := NewFacade(&scriptedResolver{})

	updates, cancel := facade.Subscribe()
	cancel()

	if _, ok := <-updates; ok {
		t.Fatal("expected closed channel after cancel")
	}
	// A second cancel is a no-op.
	cancel()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
