package simulator

import (
	"fmt"
	"io"
)

// errWriter lets a sequence of Fprintf calls ignore per-call errors and
// check once at the end, the idiom text/template's internal errWriter
// uses for the same reason: a bad writer fails the whole dump anyway.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

// Dump writes the textual configuration block, then one node block per
// peer: `node I hex-id`, each non-empty bucket's id list, and a `files`
// section listing stored entry keys. The format is stable across runs
// given a fixed PRNG seed.
func (n *Network) Dump(w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("n_bits %d\n", n.cfg.B)
	ew.printf("k %d\n", n.cfg.K)
	ew.printf("alpha %d\n", n.cfg.Alpha)
	ew.printf("n_nodes %d\n", len(n.peers))

	for i, c := range n.peers {
		ew.printf("node %d %s\n", i, c.Address().ID.ToHex())

		snap := c.Routing.Snapshot()
		for _, bi := range sortedBucketIndices(snap) {
			if bi == 0 {
				continue
			}
			ew.printf("bucket %d\n", bi)
			for _, a := range snap[bi] {
				ew.printf("%s\n", a.ID.ToHex())
			}
		}

		ew.printf("files\n")
		for _, e := range c.Entries.Entries() {
			ew.printf("%s\n", e.Key.ToHex())
		}
	}

	return ew.err
}

// Graphviz writes a digraph with one labelled vertex per peer and one
// directed edge per routing-table entry.
func (n *Network) Graphviz(w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("digraph G {\n")
	ew.printf("  node [shape=record];\n")
	ew.printf("  rankdir=TB;\n")

	for _, c := range n.peers {
		id := c.Address().ID.ToHex()
		ew.printf("  node_%s [color=blue, label=\"%s\"];\n", id, id)

		snap := c.Routing.Snapshot()
		for _, bi := range sortedBucketIndices(snap) {
			for _, a := range snap[bi] {
				ew.printf("  node_%s -> node_%s;\n", id, a.ID.ToHex())
			}
		}
	}

	ew.printf("}\n")
	return ew.err
}
