package simulator

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kadnet/kadsim/config"
	"github.com/kadnet/kadsim/transport"
)

func newTestNetwork(t *testing.T, nPeers, perNode, nEntries int) *Network {
	t.Helper()
	cfg, err := config.New(16, 6, 3)
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(1, 1))
	factory := transport.RegistryFactory{Registry: transport.NewRegistry()}

	net := New(cfg, rng, factory)
	require.NoError(t, net.SeedPeers(nPeers))
	require.NoError(t, net.SeedConnections(perNode))
	if nEntries > 0 {
		require.NoError(t, net.SeedEntries(nEntries))
	}
	return net
}

func TestSeedPeersCreatesDistinctIDs(t *testing.T) {
	net := newTestNetwork(t, 8, 0, 0)
	seen := make(map[string]bool)
	for _, c := range net.peers {
		k := c.Address().Key()
		require.False(t, seen[k], "duplicate peer id %s", k)
		seen[k] = true
	}
	require.Len(t, seen, 8)
}

func TestSeedConnectionsGivesEveryPeerSomeLinks(t *testing.T) {
	net := newTestNetwork(t, 10, 3, 0)
	for _, c := range net.peers {
		require.NotZero(t, c.Routing.ConnectionCount(), "peer %s has no routing table entries after SeedConnections", c.Address().Key())
	}
}

func TestSeedEntriesAndCheckEntriesAllFound(t *testing.T) {
	net := newTestNetwork(t, 20, 8, 5)
	wrong, total := net.CheckEntries()
	require.Equal(t, 5, total)
	require.Zero(t, wrong, "expected all entries reachable in a well-connected 20-peer network, %d/%d wrong", wrong, total)
}

func TestCheatLookupAndCheatNearest(t *testing.T) {
	net := newTestNetwork(t, 6, 2, 0)
	target := net.peers[0].Address().ID

	found, ok := net.CheatLookup(net.peers[0].Address().Key())
	require.True(t, ok)
	require.Equal(t, target, found.Address().ID)

	nearest := net.CheatNearest(target)
	require.Equal(t, target, nearest.Address().ID)
}

func TestDumpAndGraphvizFormats(t *testing.T) {
	net := newTestNetwork(t, 5, 2, 1)

	var dump strings.Builder
	require.NoError(t, net.Dump(&dump))
	out := dump.String()
	for _, want := range []string{"n_bits 16\n", "k 6\n", "alpha 3\n", "n_nodes 5\n", "files\n"} {
		require.Contains(t, out, want)
	}

	var gv strings.Builder
	require.NoError(t, net.Graphviz(&gv))
	gvOut := gv.String()
	require.True(t, strings.HasPrefix(gvOut, "digraph G {\n"))
	require.True(t, strings.HasSuffix(gvOut, "}\n"))
}
