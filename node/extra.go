package node

import (
	"context"

	"github.com/kadnet/kadsim/peer"
)

// Ping issues a remote ping to to and, on success, observes it in this
// node's own routing table: the two-way connection update the original
// simulator's add_conn(node, false) / add_conn(other, false) pair
// performs when two simulated peers meet.
func (c *Core) Ping(ctx context.Context, to peer.Address) (bool, error) {
	ok, err := c.transport.Ping(ctx, c.address, to)
	if err != nil {
		return false, err
	}
	if ok {
		c.observe(to)
	}
	return ok, nil
}
