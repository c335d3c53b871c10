package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kadnet/kadsim/config"
	"github.com/kadnet/kadsim/keyint"
	"github.com/kadnet/kadsim/peer"
	"github.com/kadnet/kadsim/transport"
)

func addrFromUint(t *testing.T, v uint64, port uint16) peer.Address {
	t.Helper()
	return peer.New(keyint.FromUint64(v), "127.0.0.1", port)
}

func newLinkedCores(t *testing.T, registry *transport.Registry, cfg config.Config, ids []uint64) []*Core {
	t.Helper()
	tr := transport.NewInProcess(registry)
	cores := make([]*Core, len(ids))
	for i, id := range ids {
		a := addrFromUint(t, id, uint16(9000+i))
		c := New(a, cfg, tr)
		registry.Register(c)
		cores[i] = c
	}
	return cores
}

func bootstrapAll(t *testing.T, ctx context.Context, cores []*Core) {
	t.Helper()
	for i := 1; i < len(cores); i++ {
		_, err := cores[0].transport.Ping(ctx, cores[0].Address(), cores[i].Address())
		require.NoError(t, err)
		_, err = cores[i].transport.Ping(ctx, cores[i].Address(), cores[0].Address())
		require.NoError(t, err)
	}
}

func TestNodeLookupFindsClosestAcrossFourPeers(t *testing.T) {
	cfg, err := config.New(4, 2, 1)
	require.NoError(t, err)
	registry := transport.NewRegistry()
	cores := newLinkedCores(t, registry, cfg, []uint64{1, 2, 4, 8})

	ctx := context.Background()
	bootstrapAll(t, ctx, cores)

	results, err := cores[0].NodeLookup(ctx, keyint.FromUint64(8))
	require.NoError(t, err)
	require.NotEmpty(t, results)

	var found bool
	for _, a := range results {
		if a.ID == cores[3].Address().ID {
			found = true
		}
	}
	require.True(t, found, "expected lookup for id 8 to surface the peer holding id 8: %+v", results)
}

func TestNodeLookupToleratesUnreachablePeers(t *testing.T) {
	cfg, err := config.New(4, 3, 2)
	require.NoError(t, err)
	registry := transport.NewRegistry()
	cores := newLinkedCores(t, registry, cfg, []uint64{1, 2, 3, 4})

	ctx := context.Background()
	bootstrapAll(t, ctx, cores)

	// Half the peers go offline.
	registry.Unregister(cores[2].Address())
	registry.Unregister(cores[3].Address())

	results, err := cores[0].NodeLookup(ctx, keyint.FromUint64(4))
	require.NoError(t, err, "unreachable peers should be absorbed, not surfaced as errors")
	for _, a := range results {
		require.NotEqual(t, cores[2].Address().ID, a.ID)
		require.NotEqual(t, cores[3].Address().ID, a.ID)
	}
}

func TestPutThenGetRoundTrip(t *testing.T) {
	cfg, err := config.New(4, 2, 2)
	require.NoError(t, err)
	registry := transport.NewRegistry()
	cores := newLinkedCores(t, registry, cfg, []uint64{1, 2, 4, 8})

	ctx := context.Background()
	bootstrapAll(t, ctx, cores)

	key := keyint.FromUint64(1234)
	value := []byte("hello kademlia")
	require.NoError(t, cores[0].Put(ctx, key, value))

	got, err := cores[0].Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, value, got)
}

func TestGetReturnsNotFoundWhenNoPeerHoldsKey(t *testing.T) {
	cfg, err := config.New(4, 2, 2)
	require.NoError(t, err)
	registry := transport.NewRegistry()
	cores := newLinkedCores(t, registry, cfg, []uint64{1, 2, 4, 8})

	ctx := context.Background()
	for i := 1; i < len(cores); i++ {
		_, err := cores[0].transport.Ping(ctx, cores[0].Address(), cores[i].Address())
		require.NoError(t, err)
	}

	_, err = cores[0].Get(ctx, keyint.FromUint64(999))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalFindNodeObservesCaller(t *testing.T) {
	cfg, err := config.New(4, 2, 1)
	require.NoError(t, err)
	registry := transport.NewRegistry()
	self := addrFromUint(t, 1, 9000)
	c := New(self, cfg, transport.NewInProcess(registry))

	caller := addrFromUint(t, 5, 9001)
	_, err = c.LocalFindNode(context.Background(), caller, keyint.FromUint64(5), 2)
	require.NoError(t, err)
	require.EqualValues(t, 1, c.Routing.ConnectionCount())
}
