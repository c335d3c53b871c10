package transport

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"math/big"
	"net"
	"sync"
	"time"

	"github.com/flynn/noise"
	"github.com/google/uuid"
	quic "github.com/quic-go/quic-go"
	"golang.org/x/crypto/curve25519"

	"github.com/kadnet/kadsim/keyint"
	"github.com/kadnet/kadsim/logging"
	"github.com/kadnet/kadsim/peer"
)

// deriveStaticKeypair derives a deterministic Curve25519 keypair from a
// node's Kademlia id, so the Network transport needs no separate key
// directory: a peer's id self-certifies its Noise static key, the same
// relationship Tox ids have to their signing keys.
func deriveStaticKeypair(id keyint.KeyInt) noise.DHKey {
	seed := sha256.Sum256([]byte(id.ToHex()))
	priv := append([]byte(nil), seed[:]...)
	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		panic(err)
	}
	return noise.DHKey{Private: priv, Public: pub}
}

// Network is the real-socket Transport variant: each RPC dials a new
// QUIC connection to the destination (closed when the call returns),
// opens a bidirectional stream, runs a Noise-IK handshake keyed by the peer's static key, and
// exchanges a single length-prefixed encrypted frame. It maps every
// dial, handshake, and stream failure to ErrUnreachable so NodeLookup
// never has to distinguish transport variants.
type Network struct {
	self      peer.Address
	staticKey noise.DHKey
	listener  *quic.Listener
	handlerMu sync.RWMutex
	handler   Handler
	log       *logging.Logger
}

// rpcOp identifies which of the four Kademlia RPCs a frame carries.
type rpcOp byte

const (
	opPing rpcOp = iota
	opFindNode
	opStore
	opFindValue
)

type rpcRequest struct {
	ID     string
	Op     rpcOp
	From   peer.Address
	Target keyint.KeyInt
	Key    keyint.KeyInt
	Value  []byte
	N      int
}

type rpcResponse struct {
	OK     bool
	Closer []peer.Address
	Value  []byte
	Found  bool
}

// NewNetwork creates a Network transport bound to self, listening on
// self.IP:self.Port, and dispatching inbound RPCs to handler. Its Noise
// static keypair is derived from self.Address.ID. handler may be nil
// if the caller's Handler does not exist yet (see NetworkFactory,
// which must bind the socket before the peer's node.Core is built);
// SetHandler assigns it once it does.
func NewNetwork(self peer.Address, handler Handler) (*Network, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", self.IP, self.Port))
	if err != nil {
		return nil, fmt.Errorf("transport: resolve listen addr: %w", err)
	}
	udpConn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen udp: %w", err)
	}
	listener, err := quic.Listen(udpConn, generateTLSConfig(), &quic.Config{MaxIdleTimeout: 2 * time.Minute})
	if err != nil {
		return nil, fmt.Errorf("transport: quic listen: %w", err)
	}

	n := &Network{
		self:      self,
		staticKey: deriveStaticKeypair(self.ID),
		listener:  listener,
		handler:   handler,
		log:       logging.New("transport", "Network"),
	}
	go n.serve()
	return n, nil
}

// Close stops accepting inbound connections.
func (n *Network) Close() error {
	return n.listener.Close()
}

// SetHandler assigns (or replaces) the Handler that answers this
// Network's inbound RPCs.
func (n *Network) SetHandler(h Handler) {
	n.handlerMu.Lock()
	n.handler = h
	n.handlerMu.Unlock()
}

func (n *Network) currentHandler() Handler {
	n.handlerMu.RLock()
	defer n.handlerMu.RUnlock()
	return n.handler
}

func (n *Network) serve() {
	for {
		conn, err := n.listener.Accept(context.Background())
		if err != nil {
			return
		}
		go n.handleConn(conn)
	}
}

func (n *Network) handleConn(conn *quic.Conn) {
	for {
		stream, err := conn.AcceptStream(context.Background())
		if err != nil {
			return
		}
		go n.handleStream(stream)
	}
}

func (n *Network) handleStream(stream *quic.Stream) {
	defer stream.Close()

	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashSHA256),
		Pattern:       noise.HandshakeIK,
		Initiator:     false,
		StaticKeypair: n.staticKey,
		Random:        rand.Reader,
	})
	if err != nil {
		n.log.WithError(err, "handleStream").Error("noise handshake state")
		return
	}

	msg1, err := readFrame(stream)
	if err != nil {
		return
	}
	_, _, _, err = hs.ReadMessage(nil, msg1)
	if err != nil {
		n.log.WithError(err, "handleStream").Warn("noise handshake read failed")
		return
	}
	msg2, recvCipher, sendCipher, err := hs.WriteMessage(nil, nil)
	if err != nil {
		n.log.WithError(err, "handleStream").Error("noise handshake write")
		return
	}
	if err := writeFrame(stream, msg2); err != nil {
		return
	}

	cipher, err := readFrame(stream)
	if err != nil {
		return
	}
	plain, err := recvCipher.Decrypt(nil, nil, cipher)
	if err != nil {
		n.log.WithError(err, "handleStream").Warn("decrypt request failed")
		return
	}

	var req rpcRequest
	if err := gobDecode(plain, &req); err != nil {
		return
	}

	resp := n.dispatch(req)

	plainResp, err := gobEncode(resp)
	if err != nil {
		return
	}
	_ = writeFrame(stream, sendCipher.Encrypt(nil, nil, plainResp))
}

func (n *Network) dispatch(req rpcRequest) rpcResponse {
	n.log.WithField("rpc_id", req.ID).WithField("op", req.Op).Debug("dispatch")
	ctx := context.Background()

	handler := n.currentHandler()
	if handler == nil {
		return rpcResponse{OK: false}
	}

	switch req.Op {
	case opPing:
		err := handler.LocalPing(ctx, req.From)
		return rpcResponse{OK: err == nil}
	case opFindNode:
		closer, err := handler.LocalFindNode(ctx, req.From, req.Target, req.N)
		return rpcResponse{OK: err == nil, Closer: closer}
	case opStore:
		err := handler.LocalStore(ctx, req.From, req.Key, req.Value)
		return rpcResponse{OK: err == nil}
	case opFindValue:
		result, err := handler.LocalFindValue(ctx, req.From, req.Key, req.N)
		return rpcResponse{OK: err == nil, Value: result.Value, Found: result.Found, Closer: result.Closer}
	default:
		return rpcResponse{OK: false}
	}
}

// call dials dst, runs the initiator side of the Noise-IK handshake,
// and exchanges a single request/response frame pair.
func (n *Network) call(ctx context.Context, req rpcRequest, dst peer.Address) (rpcResponse, error) {
	req.ID = uuid.NewString()
	n.log.WithField("rpc_id", req.ID).WithField("op", req.Op).Debug("call")
	addr := fmt.Sprintf("%s:%d", dst.IP, dst.Port)
	conn, err := quic.DialAddr(ctx, addr, &tls.Config{InsecureSkipVerify: true, NextProtos: []string{"kadsim"}}, nil)
	if err != nil {
		return rpcResponse{}, ErrUnreachable
	}
	defer conn.CloseWithError(0, "")

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return rpcResponse{}, ErrUnreachable
	}
	defer stream.Close()

	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashSHA256),
		Pattern:       noise.HandshakeIK,
		Initiator:     true,
		StaticKeypair: n.staticKey,
		PeerStatic:    deriveStaticKeypair(dst.ID).Public,
		Random:        rand.Reader,
	})
	if err != nil {
		return rpcResponse{}, ErrUnreachable
	}

	msg1, _, _, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return rpcResponse{}, ErrUnreachable
	}
	if err := writeFrame(stream, msg1); err != nil {
		return rpcResponse{}, ErrUnreachable
	}

	msg2, err := readFrame(stream)
	if err != nil {
		return rpcResponse{}, ErrUnreachable
	}
	_, sendCipher, recvCipher, err := hs.ReadMessage(nil, msg2)
	if err != nil {
		return rpcResponse{}, ErrUnreachable
	}

	plain, err := gobEncode(req)
	if err != nil {
		return rpcResponse{}, fmt.Errorf("transport: encode request: %w", err)
	}
	if err := writeFrame(stream, sendCipher.Encrypt(nil, nil, plain)); err != nil {
		return rpcResponse{}, ErrUnreachable
	}

	cipher, err := readFrame(stream)
	if err != nil {
		return rpcResponse{}, ErrUnreachable
	}
	plainResp, err := recvCipher.Decrypt(nil, nil, cipher)
	if err != nil {
		return rpcResponse{}, ErrUnreachable
	}

	var resp rpcResponse
	if err := gobDecode(plainResp, &resp); err != nil {
		return rpcResponse{}, fmt.Errorf("transport: decode response: %w", err)
	}
	return resp, nil
}

func (n *Network) Ping(ctx context.Context, from, dst peer.Address) (bool, error) {
	resp, err := n.call(ctx, rpcRequest{Op: opPing, From: from}, dst)
	if err != nil {
		return false, err
	}
	return resp.OK, nil
}

func (n *Network) FindNode(ctx context.Context, from, dst peer.Address, target keyint.KeyInt, nClosest int) ([]peer.Address, error) {
	resp, err := n.call(ctx, rpcRequest{Op: opFindNode, From: from, Target: target, N: nClosest}, dst)
	if err != nil {
		return nil, err
	}
	return resp.Closer, nil
}

func (n *Network) Store(ctx context.Context, from, dst peer.Address, key keyint.KeyInt, value []byte) error {
	_, err := n.call(ctx, rpcRequest{Op: opStore, From: from, Key: key, Value: value}, dst)
	return err
}

func (n *Network) FindValue(ctx context.Context, from, dst peer.Address, key keyint.KeyInt, nClosest int) (FindValueResult, error) {
	resp, err := n.call(ctx, rpcRequest{Op: opFindValue, From: from, Key: key, N: nClosest}, dst)
	if err != nil {
		return FindValueResult{}, err
	}
	return FindValueResult{Value: resp.Value, Found: resp.Found, Closer: resp.Closer}, nil
}

// writeFrame/readFrame apply a uint32 length prefix around each Noise
// or ciphertext payload, matching the teacher transport package's
// framing over raw UDP packets.
func writeFrame(w io.Writer, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func gobEncode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// generateTLSConfig issues a throwaway self-signed certificate: QUIC
// requires TLS, but peer authentication here is handled by the Noise-IK
// handshake layered on top, not by the certificate chain.
func generateTLSConfig() *tls.Config {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		panic(err)
	}
	return &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{"kadsim"},
		Certificates:       []tls.Certificate{{Certificate: [][]byte{der}, PrivateKey: priv}},
	}
}
