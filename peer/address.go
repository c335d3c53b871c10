// Package peer defines the DHT node identity type shared by the routing
// table, transport, and node-core packages.
package peer

import (
	"fmt"

	"github.com/kadnet/kadsim/keyint"
)

// Address is a peer's identity triple: an id in the DHT key space and the
// network location it can currently be reached at. Equality and hashing
// are defined solely over ID, so the same logical peer anywhere in the
// system collapses to one entry even if its IP/port later changes.
type Address struct {
	ID   keyint.KeyInt
	IP   string
	Port uint16
}

// New constructs an Address.
func New(id keyint.KeyInt, ip string, port uint16) Address {
	return Address{ID: id, IP: ip, Port: port}
}

// Equal reports whether a and b refer to the same logical peer.
func (a Address) Equal(b Address) bool {
	return a.ID == b.ID
}

// Key returns a stable map/registry key for a, derived solely from ID.
func (a Address) Key() string {
	return a.ID.ToHex()
}

// String renders the address for logging and the shell's display
// commands.
func (a Address) String() string {
	return fmt.Sprintf("%s@%s:%d", a.ID.ToHex(), a.IP, a.Port)
}
