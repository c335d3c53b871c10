// Package routing implements the per-node Kademlia routing table:
// B+1 ordered k-buckets keyed by XOR-distance bit-length, with an LRU
// admission policy.
package routing

import (
	"sort"
	"sync"

	"github.com/kadnet/kadsim/keyint"
	"github.com/kadnet/kadsim/logging"
	"github.com/kadnet/kadsim/peer"
)

// Outcome reports what Observe did.
type Outcome int

const (
	// Inserted means a was added to its bucket.
	Inserted Outcome = iota
	// Refreshed means a was already present and was moved to the head.
	Refreshed
	// BucketFull means the bucket was full and a was not added; an
	// upper layer may probe the tail via the transport and, on no
	// reply, call EvictTail then retry Observe.
	BucketFull
)

// Table is a Kademlia routing table for a single owning node.
type Table struct {
	ownID   keyint.KeyInt
	k       int
	buckets []*kbucket // index 0..B, bucket 0 is always empty
	log     *logging.Logger

	mu sync.RWMutex
}

// New creates a routing table for ownID with B+1 buckets, each holding
// up to k entries.
func New(ownID keyint.KeyInt, b uint32, k int) *Table {
	buckets := make([]*kbucket, b+1)
	for i := range buckets {
		buckets[i] = newKBucket(k)
	}
	return &Table{
		ownID:   ownID,
		k:       k,
		buckets: buckets,
		log:     logging.New("routing", "Table"),
	}
}

func (t *Table) bucketIndex(id keyint.KeyInt) int {
	return int(keyint.Xor(t.ownID, id).BitLength())
}

// Observe admits or refreshes a in the table, per spec.md §4.3.
func (t *Table) Observe(a peer.Address) (Outcome, error) {
	if a.ID == t.ownID {
		return 0, ErrSelfReference
	}

	i := t.bucketIndex(a.ID)

	t.mu.Lock()
	defer t.mu.Unlock()

	if i < 0 || i >= len(t.buckets) {
		t.log.WithField("bucket", i).WithField("id", a.Key()).Debug("bucket index out of range, rejecting observe")
		return BucketFull, nil
	}

	b := t.buckets[i]
	if idx := b.indexOf(a.Key()); idx >= 0 {
		b.touch(idx)
		return Refreshed, nil
	}

	if b.full() {
		t.log.WithField("bucket", i).WithField("id", a.Key()).Debug("bucket full, rejecting observe")
		return BucketFull, nil
	}

	b.insertHead(a)
	return Inserted, nil
}

// EvictTail removes the least-recently-seen address from bucket i, the
// upper-layer policy hook spec.md §4.3 describes for probe-and-evict.
func (t *Table) EvictTail(i int) (peer.Address, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i < 0 || i >= len(t.buckets) {
		return peer.Address{}, false
	}
	return t.buckets[i].evictTail()
}

// FindClosest returns up to n addresses, sorted ascending by XOR
// distance to target, with duplicates removed.
func (t *Table) FindClosest(target keyint.KeyInt, n int) []peer.Address {
	t.mu.RLock()
	defer t.mu.RUnlock()

	b := t.bucketIndex(target)

	var candidates []peer.Address
	if b >= 0 && b < len(t.buckets) {
		candidates = append(candidates, t.buckets[b].snapshot()...)
	}

	if len(candidates) < n {
		for i, bucket := range t.buckets {
			if i == b {
				continue
			}
			candidates = append(candidates, bucket.snapshot()...)
		}
	}

	candidates = dedupeByID(candidates)

	sort.Slice(candidates, func(i, j int) bool {
		di := keyint.Xor(candidates[i].ID, target)
		dj := keyint.Xor(candidates[j].ID, target)
		if c := di.Compare(dj); c != 0 {
			return c < 0
		}
		return candidates[i].ID.Compare(candidates[j].ID) < 0
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

func dedupeByID(addrs []peer.Address) []peer.Address {
	seen := make(map[string]bool, len(addrs))
	out := addrs[:0:0]
	for _, a := range addrs {
		if seen[a.Key()] {
			continue
		}
		seen[a.Key()] = true
		out = append(out, a)
	}
	return out
}

// ConnectionCount returns the total number of addresses across all
// buckets.
func (t *Table) ConnectionCount() uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var total uint32
	for _, b := range t.buckets {
		total += uint32(len(b.addrs))
	}
	return total
}

// Snapshot returns a copy of every non-empty bucket, keyed by bucket
// index, for Dump/Graphviz.
func (t *Table) Snapshot() map[int][]peer.Address {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[int][]peer.Address)
	for i, b := range t.buckets {
		if len(b.addrs) == 0 {
			continue
		}
		out[i] = b.snapshot()
	}
	return out
}

// NumBuckets returns the number of buckets (B+1).
func (t *Table) NumBuckets() int {
	return len(t.buckets)
}
