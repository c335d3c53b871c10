package transport

import (
	"context"
	"sync"

	"github.com/kadnet/kadsim/keyint"
	"github.com/kadnet/kadsim/logging"
	"github.com/kadnet/kadsim/peer"
)

// Registry maps peer addresses to the Handler that answers their RPCs.
// A single Registry is shared by every node in a simulated network; a
// sync.RWMutex serializes registration against lookups, matching the
// "registry must serialize readers against writers" requirement.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register makes h reachable at its own address.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Address().Key()] = h
}

// Unregister removes addr from the registry, simulating a peer leaving
// or going offline for the remainder of a run.
func (r *Registry) Unregister(addr peer.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, addr.Key())
}

func (r *Registry) lookup(addr peer.Address) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[addr.Key()]
	return h, ok
}

// InProcess resolves dst through a shared Registry and calls the
// callee's Handler methods directly, with no serialization or network
// round trip. This is the variant used by the simulator and by every
// package test that exercises NodeCore.
type InProcess struct {
	registry *Registry
	log      *logging.Logger
}

// NewInProcess creates a Transport bound to registry.
func NewInProcess(registry *Registry) *InProcess {
	return &InProcess{registry: registry, log: logging.New("transport", "InProcess")}
}

func (t *InProcess) Ping(ctx context.Context, from, dst peer.Address) (bool, error) {
	h, ok := t.registry.lookup(dst)
	if !ok {
		return false, ErrUnreachable
	}
	if err := h.LocalPing(ctx, from); err != nil {
		return false, err
	}
	return true, nil
}

func (t *InProcess) FindNode(ctx context.Context, from, dst peer.Address, target keyint.KeyInt, n int) ([]peer.Address, error) {
	h, ok := t.registry.lookup(dst)
	if !ok {
		return nil, ErrUnreachable
	}
	return h.LocalFindNode(ctx, from, target, n)
}

func (t *InProcess) Store(ctx context.Context, from, dst peer.Address, key keyint.KeyInt, value []byte) error {
	h, ok := t.registry.lookup(dst)
	if !ok {
		return ErrUnreachable
	}
	return h.LocalStore(ctx, from, key, value)
}

func (t *InProcess) FindValue(ctx context.Context, from, dst peer.Address, key keyint.KeyInt, n int) (FindValueResult, error) {
	h, ok := t.registry.lookup(dst)
	if !ok {
		return FindValueResult{}, ErrUnreachable
	}
	return h.LocalFindValue(ctx, from, key, n)
}

// RegistryFactory hands out InProcess transports all bound to the same
// Registry, so every node in a simulated network shares one address
// space. addr is accepted to satisfy Factory but unused: every peer
// gets an equivalent wrapper around the one shared Registry.
type RegistryFactory struct {
	Registry *Registry
}

func (f RegistryFactory) New(addr peer.Address) (Transport, error) {
	return NewInProcess(f.Registry), nil
}

func (f RegistryFactory) Register(h Handler) {
	f.Registry.Register(h)
}
