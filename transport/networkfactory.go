package transport

import "github.com/kadnet/kadsim/peer"

// NetworkFactory hands out one real-socket Network transport per peer,
// each bound to its own address, unlike RegistryFactory's transports,
// which all resolve peers through one shared Registry. cmd/kadsim selects it
// with -transport network.
type NetworkFactory struct {
	networks []*Network
}

// New binds a fresh Network transport listening at addr. The returned
// Transport has no Handler yet: Register must be called once the
// peer's node.Core exists, which happens immediately afterward in
// simulator.Network.SeedPeers, before any traffic is expected.
func (f *NetworkFactory) New(addr peer.Address) (Transport, error) {
	n, err := NewNetwork(addr, nil)
	if err != nil {
		return nil, err
	}
	f.networks = append(f.networks, n)
	return n, nil
}

// Register assigns h as the Handler for the Network bound to h's own
// address.
func (f *NetworkFactory) Register(h Handler) {
	for _, n := range f.networks {
		if n.self.Key() == h.Address().Key() {
			n.SetHandler(h)
			return
		}
	}
}

// Close stops every Network listener the factory created.
func (f *NetworkFactory) Close() {
	for _, n := range f.networks {
		n.Close()
	}
}
