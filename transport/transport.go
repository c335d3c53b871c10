// Package transport carries the four Kademlia remote operations between
// NodeCore instances. It is deliberately a thin capability object: the
// core is generic over which Transport it holds and must not depend on
// whether calls cross a goroutine boundary or a network.
package transport

import (
	"context"

	"github.com/kadnet/kadsim/keyint"
	"github.com/kadnet/kadsim/peer"
)

// FindValueResult is the response to a FIND_VALUE RPC: either the value
// was held locally, or the closest known addresses are returned instead.
type FindValueResult struct {
	Value  []byte
	Found  bool
	Closer []peer.Address
}

// Transport issues the four Kademlia RPCs against a remote peer. from
// identifies the caller so the callee's routing table can observe it,
// per the "every local primitive observes the caller" rule.
type Transport interface {
	Ping(ctx context.Context, from, dst peer.Address) (bool, error)
	FindNode(ctx context.Context, from, dst peer.Address, target keyint.KeyInt, n int) ([]peer.Address, error)
	Store(ctx context.Context, from, dst peer.Address, key keyint.KeyInt, value []byte) error
	FindValue(ctx context.Context, from, dst peer.Address, key keyint.KeyInt, n int) (FindValueResult, error)
}

// Handler answers the local side of the four RPCs. node.Core implements
// this so InProcess can dispatch directly into a callee's own methods
// without a network round trip.
type Handler interface {
	Address() peer.Address
	LocalPing(ctx context.Context, from peer.Address) error
	LocalFindNode(ctx context.Context, from peer.Address, target keyint.KeyInt, n int) ([]peer.Address, error)
	LocalStore(ctx context.Context, from peer.Address, key keyint.KeyInt, value []byte) error
	LocalFindValue(ctx context.Context, from peer.Address, key keyint.KeyInt, n int) (FindValueResult, error)
}

// Factory builds the Transport a simulated peer at addr will use, and
// makes newly created peers reachable through it. InProcess-backed
// factories hand out transports over one shared registry regardless of addr;
// socket-backed factories (Network) bind addr itself and need it.
type Factory interface {
	New(addr peer.Address) (Transport, error)
	Register(h Handler)
}
