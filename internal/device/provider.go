package device

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
)

// storageKey is the fixed local-storage key holding the device id. It must
// not change, or every client re-identifies as a new device.
const storageKey = "rx_device_id"

// Provider issues the anonymous per-client identifier that scopes "has this
// device liked this post" membership. The id is self-reported and
// unauthenticated; clearing local storage resets it, which is accepted
// scope.
type Provider struct {
	store *LocalStore

	mu      sync.Mutex
	session string
}

func NewProvider(store *LocalStore) *Provider {
	return &Provider{store: store}
}

// GetOrCreate returns the persisted device id, minting and persisting a new
// one when none exists. If the store cannot hold the id, the provider falls
// back to a process-lifetime id so likes degrade to session scope instead
// of failing.
func (p *Provider) GetOrCreate() string {
	if p.store != nil {
		if id, ok := p.store.Get(storageKey); ok && id != "" {
			return id
		}
		id := newID()
		err := p.store.Set(storageKey, id)
		if err == nil {
			return id
		}
		slog.Debug("device id not persisted, using session id", "error", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == "" {
		p.session = "anon_" + newID()
	}
	return p.session
}

func newID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
