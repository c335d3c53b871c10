// Package simulator is the concrete driver that owns a population of
// node.Core peers, seeds their routing tables and stored entries, and
// can dump or render the resulting network. It is grounded on
// kad_network.cpp's Network class: initialize_nodes, initialize_files,
// check_files, rand_node, lookup_cheat, find_nearest_cheat, save, and
// graphviz, translated into Go idiom.
package simulator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/kadnet/kadsim/bitmap"
	"github.com/kadnet/kadsim/config"
	"github.com/kadnet/kadsim/keyint"
	"github.com/kadnet/kadsim/logging"
	"github.com/kadnet/kadsim/node"
	"github.com/kadnet/kadsim/peer"
	"github.com/kadnet/kadsim/transport"
)

// Network owns the peers of a single simulated run in a slice arena.
// Routing tables reference peers only by peer.Address (an id/ip/port
// value, not a pointer), so there is no ownership cycle between Network
// and the node.Core instances it creates.
type Network struct {
	cfg     config.Config
	rng     *rand.Rand
	factory transport.Factory
	peers   []*node.Core
	entries []keyint.KeyInt
	log     *logging.Logger
}

// New creates an empty Network. Call SeedPeers before anything else.
func New(cfg config.Config, rng *rand.Rand, factory transport.Factory) *Network {
	return &Network{
		cfg:     cfg,
		rng:     rng,
		factory: factory,
		log:     logging.New("simulator", "Network"),
	}
}

// SeedPeers creates n peers, with ids drawn without replacement from an
// equal partition of the 2^B keyspace (partition = 2^B / n), gives each
// one a transport from the factory (shared for InProcess, bound to the
// peer's own address for Network), registers it, and appends it to the
// arena.
func (n *Network) SeedPeers(count int) error {
	if count <= 0 {
		return fmt.Errorf("simulator: node count must be positive, got %d", count)
	}

	full := keyint.Shl(keyint.FromUint64(1), uint(n.cfg.B))
	if n.cfg.B >= keyint.Width {
		// 2^160 wraps to zero; 2^160-1 gives the same partition up to one.
		full = keyint.Not(keyint.Zero)
	}
	partition, _, err := keyint.DivMod(full, keyint.FromUint64(uint64(count)))
	if err != nil {
		return fmt.Errorf("simulator: compute keyspace partition: %w", err)
	}

	bm := bitmap.New(count, n.rng)

	for i := 0; i < count; i++ {
		slot, err := bm.Take()
		if err != nil {
			return fmt.Errorf("simulator: draw peer slot: %w", err)
		}
		id := keyint.Mul(keyint.FromUint64(uint64(slot)), partition)
		addr := peer.New(id, "127.0.0.1", uint16(20000+i))

		tr, err := n.factory.New(addr)
		if err != nil {
			return fmt.Errorf("simulator: create transport for peer %d: %w", i, err)
		}

		c := node.New(addr, n.cfg, tr)
		n.factory.Register(c)
		n.peers = append(n.peers, c)
	}
	return nil
}

// SeedConnections has every peer Ping a uniformly random peer until it
// holds perNode routing-table entries or a 2*n_nodes retry guard is
// exhausted, matching the original's forgiveness rule for networks too
// small or too sparse to satisfy perNode for every peer.
func (n *Network) SeedConnections(perNode int) error {
	if len(n.peers) == 0 {
		return fmt.Errorf("simulator: no peers seeded")
	}
	maxGuard := 2 * len(n.peers)
	ctx := context.Background()

	for _, c := range n.peers {
		guard := 0
		for int(c.Routing.ConnectionCount()) < perNode {
			if guard >= maxGuard {
				n.log.WithField("peer", c.Address().Key()).WithField("have", c.Routing.ConnectionCount()).
					Warn("forgiving required initial connections")
				break
			}
			other := n.peers[n.rng.IntN(len(n.peers))]
			guard++
			if other.Address().ID == c.Address().ID {
				continue
			}
			if _, err := c.Ping(ctx, other.Address()); err != nil {
				continue
			}
			if _, err := other.Ping(ctx, c.Address()); err != nil {
				continue
			}
		}
	}
	return nil
}

// SeedEntries picks n random (origin peer, key) pairs, runs a node
// lookup and Put from the origin, and records the key so CheckEntries
// can verify it later.
func (n *Network) SeedEntries(count int) error {
	ctx := context.Background()
	for i := 0; i < count; i++ {
		origin := n.RandomPeer()
		key := n.RandomKey()
		value := []byte(key.ToHex())
		if err := origin.Put(ctx, key, value); err != nil {
			return fmt.Errorf("simulator: seed entry %d: %w", i, err)
		}
		n.entries = append(n.entries, key)
	}
	return nil
}

// CheckEntries re-checks, from a random peer each time, that a node
// lookup still reaches a peer holding every seeded entry. It mirrors
// check_files and returns how many of the total entries were not found.
func (n *Network) CheckEntries() (wrong, total int) {
	ctx := context.Background()
	total = len(n.entries)
	for _, key := range n.entries {
		origin := n.RandomPeer()
		if _, err := origin.Get(ctx, key); err != nil {
			wrong++
		}
	}
	return wrong, total
}

// RandomPeer returns a uniformly random peer from the arena.
func (n *Network) RandomPeer() *node.Core {
	return n.peers[n.rng.IntN(len(n.peers))]
}

// RandomKey returns a uniformly random key within the configured
// n_bits keyspace.
func (n *Network) RandomKey() keyint.KeyInt {
	full := keyint.Random(n.rng)
	mask := keyint.Sub(keyint.Shl(keyint.FromUint64(1), uint(n.cfg.B)), keyint.FromUint64(1))
	return keyint.And(full, mask)
}

// CheatLookup is a linear-scan oracle that finds the peer with the
// given hex id, for tests and the shell's cheat_lookup command.
func (n *Network) CheatLookup(id string) (*node.Core, bool) {
	for _, c := range n.peers {
		if c.Address().Key() == id {
			return c, true
		}
	}
	return nil, false
}

// CheatNearest is a linear-scan oracle that finds the peer whose id is
// closest to target by XOR distance.
func (n *Network) CheatNearest(target keyint.KeyInt) *node.Core {
	if len(n.peers) == 0 {
		return nil
	}
	nearest := n.peers[0]
	nearestDist := keyint.Xor(nearest.Address().ID, target)
	for _, c := range n.peers[1:] {
		d := keyint.Xor(c.Address().ID, target)
		if d.Less(nearestDist) {
			nearest, nearestDist = c, d
		}
	}
	return nearest
}

func sortedBucketIndices(snap map[int][]peer.Address) []int {
	indices := make([]int, 0, len(snap))
	for i := range snap {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}
