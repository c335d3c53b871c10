package node

import (
	"context"
	"sort"
	"sync"

	"github.com/kadnet/kadsim/keyint"
	"github.com/kadnet/kadsim/peer"
	"github.com/kadnet/kadsim/transport"
)

// NodeLookup returns up to config.K addresses closest to target,
// following the round-based alpha-bounded procedure: seed a shortlist
// from the routing table, probe it concurrently, and keep extending the
// best-k set in rounds until a round fails to improve on the prior
// best, at which point one final batch drains the rest of best_k.
func (c *Core) NodeLookup(ctx context.Context, target keyint.KeyInt) ([]peer.Address, error) {
	k := int(c.config.K)
	alpha := int(c.config.Alpha)

	queried := map[string]bool{c.address.Key(): true}

	shortlist := excludeSelf(c.Routing.FindClosest(target, alpha), c.address)
	toProbe := markQueried(shortlist, queried)

	var prevBestK []peer.Address
	responses := c.probeFindNode(ctx, toProbe, target, k)
	bestK := mergeClosest(prevBestK, responses, target, c.address, k)

	for {
		newBest, hasNew := closestTo(responses, target)
		oldBest, hasOld := closestTo(prevBestK, target)

		improved := hasNew && (!hasOld || keyint.Xor(newBest.ID, target).Less(keyint.Xor(oldBest.ID, target)))

		var batch []peer.Address
		if improved {
			batch = markQueried(selectUnqueried(bestK, queried, alpha), queried)
		} else {
			batch = markQueried(selectUnqueried(bestK, queried, len(bestK)), queried)
		}

		if len(batch) == 0 {
			break
		}

		responses = c.probeFindNode(ctx, batch, target, k)
		prevBestK = bestK
		bestK = mergeClosest(bestK, responses, target, c.address, k)

		if !improved {
			break
		}
	}

	return bestK, nil
}

// probeFindNode issues FindNode against addrs concurrently, up to the
// full width of addrs in flight, and returns every peer that answered
// together with every peer.Address its response returned. Unreachable
// probes are absorbed, not propagated, and do not appear in the result.
func (c *Core) probeFindNode(ctx context.Context, addrs []peer.Address, target keyint.KeyInt, k int) []peer.Address {
	if len(addrs) == 0 {
		return nil
	}

	results := make(chan []peer.Address, len(addrs))
	var wg sync.WaitGroup
	for _, a := range addrs {
		wg.Add(1)
		go func(a peer.Address) {
			defer wg.Done()
			closer, err := c.transport.FindNode(ctx, c.address, a, target, k)
			if err != nil {
				c.log.WithError(err, "probeFindNode").Debug("probe unreachable")
				return
			}
			results <- append([]peer.Address{a}, closer...)
		}(a)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var out []peer.Address
	for closer := range results {
		out = append(out, closer...)
	}
	return out
}

// excludeSelf filters addresses equal to self out of addrs, per the
// self-exclusion edge-case policy.
func excludeSelf(addrs []peer.Address, self peer.Address) []peer.Address {
	out := addrs[:0:0]
	for _, a := range addrs {
		if a.ID != self.ID {
			out = append(out, a)
		}
	}
	return out
}

// markQueried marks every address in addrs as queried and returns the
// ones that were NOT already marked (so callers can tell what is newly
// in flight).
func markQueried(addrs []peer.Address, queried map[string]bool) []peer.Address {
	var fresh []peer.Address
	for _, a := range addrs {
		if queried[a.Key()] {
			continue
		}
		queried[a.Key()] = true
		fresh = append(fresh, a)
	}
	return fresh
}

// selectUnqueried returns up to n addresses from candidates not yet in
// queried, without mutating queried.
func selectUnqueried(candidates []peer.Address, queried map[string]bool, n int) []peer.Address {
	var out []peer.Address
	for _, a := range candidates {
		if len(out) >= n {
			break
		}
		if queried[a.Key()] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// closestTo returns the address in addrs with the smallest XOR
// distance to target.
func closestTo(addrs []peer.Address, target keyint.KeyInt) (peer.Address, bool) {
	if len(addrs) == 0 {
		return peer.Address{}, false
	}
	best := addrs[0]
	bestDist := keyint.Xor(best.ID, target)
	for _, a := range addrs[1:] {
		d := keyint.Xor(a.ID, target)
		if d.Less(bestDist) {
			best, bestDist = a, d
		}
	}
	return best, true
}

// mergeClosest merges additions into existing, excludes self, dedupes
// by id, sorts ascending by XOR distance to target, and truncates to k.
func mergeClosest(existing, additions []peer.Address, target keyint.KeyInt, self peer.Address, k int) []peer.Address {
	combined := append(append([]peer.Address{}, existing...), additions...)
	combined = excludeSelf(combined, self)

	seen := make(map[string]bool, len(combined))
	out := combined[:0:0]
	for _, a := range combined {
		if seen[a.Key()] {
			continue
		}
		seen[a.Key()] = true
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		di := keyint.Xor(out[i].ID, target)
		dj := keyint.Xor(out[j].ID, target)
		if c := di.Compare(dj); c != 0 {
			return c < 0
		}
		return out[i].ID.Compare(out[j].ID) < 0
	})

	if len(out) > k {
		out = out[:k]
	}
	return out
}
