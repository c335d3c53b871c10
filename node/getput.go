package node

import (
	"context"
	"sync"

	"github.com/kadnet/kadsim/keyint"
	"github.com/kadnet/kadsim/peer"
)

// Put replicates (key, value) to the k peers a node lookup for key
// finds closest, best-effort: a failed Store on one peer does not
// abort replication to the others and is not reported to the caller.
func (c *Core) Put(ctx context.Context, key keyint.KeyInt, value []byte) error {
	targets, err := c.NodeLookup(ctx, key)
	if err != nil {
		return err
	}
	for _, a := range targets {
		if err := c.transport.Store(ctx, c.address, a, key, value); err != nil {
			c.log.WithError(err, "Put").Debug("store unreachable")
		}
	}
	return nil
}

// Get iteratively queries peers for key via FIND_VALUE, expanding the
// candidate set the same way NodeLookup does, and returns as soon as
// any queried peer reports a hit. ErrNotFound is returned once the
// candidate set is exhausted with no hit.
func (c *Core) Get(ctx context.Context, key keyint.KeyInt) ([]byte, error) {
	k := int(c.config.K)
	alpha := int(c.config.Alpha)

	queried := map[string]bool{c.address.Key(): true}

	shortlist := excludeSelf(c.Routing.FindClosest(key, alpha), c.address)
	batch := markQueried(shortlist, queried)

	closer, value, found := c.probeFindValue(ctx, batch, key, k)
	if found {
		return value, nil
	}
	bestK := mergeClosest(nil, closer, key, c.address, k)

	for {
		batch = markQueried(selectUnqueried(bestK, queried, alpha), queried)
		if len(batch) == 0 {
			break
		}
		nextBestK, v, ok := c.probeFindValue(ctx, batch, key, k)
		if ok {
			return v, nil
		}
		bestK = mergeClosest(bestK, nextBestK, key, c.address, k)
	}

	return nil, ErrNotFound
}

// probeFindValue issues FindValue against addrs concurrently. It
// returns the union of every Closer address seen (for extending the
// candidate set), and, if any response carried a hit, that value with
// found=true.
func (c *Core) probeFindValue(ctx context.Context, addrs []peer.Address, key keyint.KeyInt, k int) ([]peer.Address, []byte, bool) {
	if len(addrs) == 0 {
		return nil, nil, false
	}

	type hit struct {
		closer []peer.Address
		value  []byte
		found  bool
	}
	results := make(chan hit, len(addrs))

	var wg sync.WaitGroup
	for _, a := range addrs {
		wg.Add(1)
		go func(a peer.Address) {
			defer wg.Done()
			result, err := c.transport.FindValue(ctx, c.address, a, key, k)
			if err != nil {
				c.log.WithError(err, "probeFindValue").Debug("probe unreachable")
				return
			}
			results <- hit{closer: result.Closer, value: result.Value, found: result.Found}
		}(a)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var closerAddrs []peer.Address
	for r := range results {
		if r.found {
			return closerAddrs, r.value, true
		}
		closerAddrs = append(closerAddrs, r.closer...)
	}
	return closerAddrs, nil, false
}
