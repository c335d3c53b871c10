package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kadnet/kadsim/keyint"
	"github.com/kadnet/kadsim/peer"
)

// fakeHandler is a minimal Handler for exercising InProcess and Network
// in isolation from node.Core. findNodeResult/findValueResult are
// canned responses a test can set; storedKey/storedValue record the
// last LocalStore call.
type fakeHandler struct {
	addr            peer.Address
	seen            []peer.Address
	findNodeResult  []peer.Address
	findValueResult FindValueResult
	storedKey       keyint.KeyInt
	storedValue     []byte
}

func (f *fakeHandler) Address() peer.Address { return f.addr }

func (f *fakeHandler) LocalPing(ctx context.Context, from peer.Address) error {
	f.seen = append(f.seen, from)
	return nil
}

func (f *fakeHandler) LocalFindNode(ctx context.Context, from peer.Address, target keyint.KeyInt, n int) ([]peer.Address, error) {
	f.seen = append(f.seen, from)
	return f.findNodeResult, nil
}

func (f *fakeHandler) LocalStore(ctx context.Context, from peer.Address, key keyint.KeyInt, value []byte) error {
	f.seen = append(f.seen, from)
	f.storedKey = key
	f.storedValue = value
	return nil
}

func (f *fakeHandler) LocalFindValue(ctx context.Context, from peer.Address, key keyint.KeyInt, n int) (FindValueResult, error) {
	f.seen = append(f.seen, from)
	return f.findValueResult, nil
}

func TestInProcessPingRoundTrip(t *testing.T) {
	reg := NewRegistry()
	id, err := keyint.FromHex("0000000000000000000000000000000000000001")
	require.NoError(t, err)
	dst := peer.New(id, "10.0.0.1", 4000)
	h := &fakeHandler{addr: dst}
	reg.Register(h)

	tr := NewInProcess(reg)
	caller := peer.New(keyint.FromUint64(2), "10.0.0.2", 4001)

	ok, err := tr.Ping(context.Background(), caller, dst)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, h.seen, 1)
	require.Equal(t, caller.ID, h.seen[0].ID)
}

func TestInProcessUnknownPeerIsUnreachable(t *testing.T) {
	reg := NewRegistry()
	tr := NewInProcess(reg)
	unknown := peer.New(keyint.FromUint64(99), "10.0.0.9", 4009)
	caller := peer.New(keyint.FromUint64(1), "10.0.0.1", 4001)

	_, err := tr.Ping(context.Background(), caller, unknown)
	require.ErrorIs(t, err, ErrUnreachable)
}

func TestRegistryUnregisterMakesPeerUnreachable(t *testing.T) {
	reg := NewRegistry()
	id := keyint.FromUint64(5)
	dst := peer.New(id, "10.0.0.5", 4005)
	reg.Register(&fakeHandler{addr: dst})

	tr := NewInProcess(reg)
	caller := peer.New(keyint.FromUint64(1), "10.0.0.1", 4001)
	_, err := tr.Ping(context.Background(), caller, dst)
	require.NoError(t, err)

	reg.Unregister(dst)
	_, err = tr.Ping(context.Background(), caller, dst)
	require.ErrorIs(t, err, ErrUnreachable)
}
