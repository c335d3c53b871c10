package routing

import "github.com/kadnet/kadsim/peer"

// kbucket is an LRU-ordered list of up to k addresses. Index 0 is the
// most-recently-seen address; the tail is the eviction candidate.
type kbucket struct {
	addrs []peer.Address
	k     int
}

func newKBucket(k int) *kbucket {
	return &kbucket{addrs: make([]peer.Address, 0, k), k: k}
}

// indexOf returns the position of id in the bucket, or -1.
func (b *kbucket) indexOf(id string) int {
	for i, a := range b.addrs {
		if a.Key() == id {
			return i
		}
	}
	return -1
}

// touch moves the address at position i to the head.
func (b *kbucket) touch(i int) {
	if i == 0 {
		return
	}
	a := b.addrs[i]
	copy(b.addrs[1:i+1], b.addrs[0:i])
	b.addrs[0] = a
}

// insertHead inserts a at the head of the bucket.
func (b *kbucket) insertHead(a peer.Address) {
	b.addrs = append(b.addrs, peer.Address{})
	copy(b.addrs[1:], b.addrs[:len(b.addrs)-1])
	b.addrs[0] = a
}

func (b *kbucket) full() bool {
	return len(b.addrs) >= b.k
}

// evictTail removes the least-recently-seen address, if any, and reports
// whether one was removed.
func (b *kbucket) evictTail() (peer.Address, bool) {
	if len(b.addrs) == 0 {
		return peer.Address{}, false
	}
	last := len(b.addrs) - 1
	a := b.addrs[last]
	b.addrs = b.addrs[:last]
	return a, true
}

// snapshot returns a copy of the bucket's contents.
func (b *kbucket) snapshot() []peer.Address {
	out := make([]peer.Address, len(b.addrs))
	copy(out, b.addrs)
	return out
}
