// Package node implements NodeCore: the per-peer state machine that
// answers the four local Kademlia RPCs and drives the iterative lookup
// over whatever Transport it is given.
package node

import (
	"context"

	"github.com/kadnet/kadsim/config"
	"github.com/kadnet/kadsim/keyint"
	"github.com/kadnet/kadsim/logging"
	"github.com/kadnet/kadsim/peer"
	"github.com/kadnet/kadsim/routing"
	"github.com/kadnet/kadsim/store"
	"github.com/kadnet/kadsim/transport"
)

// Core is a single simulated (or real) Kademlia node: its address, its
// view of the keyspace's routing table, its locally held entries, and
// the Transport it uses to reach everyone else.
type Core struct {
	address   peer.Address
	config    config.Config
	Routing   *routing.Table
	Entries   *store.Store
	transport transport.Transport
	log       *logging.Logger
}

// New creates a Core for addr using cfg's B/K/Alpha parameters and tr to
// reach other peers.
func New(addr peer.Address, cfg config.Config, tr transport.Transport) *Core {
	return &Core{
		address:   addr,
		config:    cfg,
		Routing:   routing.New(addr.ID, cfg.B, int(cfg.K)),
		Entries:   store.New(),
		transport: tr,
		log:       logging.New("node", "Core"),
	}
}

// Address returns the node's own address, satisfying transport.Handler.
func (c *Core) Address() peer.Address {
	return c.address
}

var zeroAddress peer.Address

// observe feeds a caller's address into the routing table, absorbing
// the self-reference case silently: a node observing its own address
// arrives whenever a local call has no real caller.
func (c *Core) observe(from peer.Address) {
	if from == zeroAddress || from.ID == c.address.ID {
		return
	}
	if _, err := c.Routing.Observe(from); err != nil {
		c.log.WithError(err, "observe").Debug("observe rejected")
	}
}

// LocalPing answers a liveness probe.
func (c *Core) LocalPing(ctx context.Context, from peer.Address) error {
	c.observe(from)
	return nil
}

// LocalFindNode returns the n addresses closest to target this node
// knows of. n defaults to config.K when non-positive.
func (c *Core) LocalFindNode(ctx context.Context, from peer.Address, target keyint.KeyInt, n int) ([]peer.Address, error) {
	c.observe(from)
	if n <= 0 {
		n = int(c.config.K)
	}
	return c.Routing.FindClosest(target, n), nil
}

// LocalStore appends (key, value) to this node's entry store.
func (c *Core) LocalStore(ctx context.Context, from peer.Address, key keyint.KeyInt, value []byte) error {
	c.observe(from)
	return c.Entries.Append(key, value)
}

// LocalFindValue returns the stored value for key if held locally,
// otherwise the n closest known addresses to key.
func (c *Core) LocalFindValue(ctx context.Context, from peer.Address, key keyint.KeyInt, n int) (transport.FindValueResult, error) {
	c.observe(from)
	if value, ok := c.Entries.Find(key); ok {
		return transport.FindValueResult{Value: value, Found: true}, nil
	}
	if n <= 0 {
		n = int(c.config.K)
	}
	return transport.FindValueResult{Closer: c.Routing.FindClosest(key, n)}, nil
}
