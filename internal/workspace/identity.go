package workspace

import (
	"sync"

	"github.com/google/uuid"
)

// Principal is the signed-in user a workspace belongs to
type Principal struct {
	UserID      uuid.UUID
	ClerkUserID string
	SessionID   string
}

// Identity is the observable current identity. A nil Principal means nobody
// is signed in.
type Identity struct {
	mu      sync.RWMutex
	current *Principal
	nextID  int
	subs    map[int]func(*Principal)
}

func NewIdentity() *Identity {
	return &Identity{subs: make(map[int]func(*Principal))}
}

func (i *Identity) Current() *Principal {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.current
}

// Set changes the identity and notifies subscribers when it actually changed.
// Subscribers run on the caller's goroutine, after the lock is released.
func (i *Identity) Set(p *Principal) {
	i.mu.Lock()
	if samePrincipal(i.current, p) {
		i.mu.Unlock()
		return
	}
	i.current = p
	subs := make([]func(*Principal), 0, len(i.subs))
	for _, fn := range i.subs {
		subs = append(subs, fn)
	}
	i.mu.Unlock()

	for _, fn := range subs {
		fn(p)
	}
}

// Subscribe registers fn for identity changes and returns its cancel func
func (i *Identity) Subscribe(fn func(*Principal)) func() {
	i.mu.Lock()
	defer i.mu.Unlock()
	id := i.nextID
	i.nextID++
	i.subs[id] = fn
	return func() {
		i.mu.Lock()
		delete(i.subs, id)
		i.mu.Unlock()
	}
}

func samePrincipal(a, b *Principal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
