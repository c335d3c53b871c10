// Package config holds the immutable Kademlia parameters shared by every
// peer in a network: the key bit-width B, the replication factor k, and
// the lookup concurrency alpha.
package config

import "fmt"

// Config is immutable for the lifetime of a network.
type Config struct {
	// B is the key bit-width, 1 <= B <= 160.
	B uint32
	// K is the replication factor / bucket size, K >= 1.
	K uint32
	// Alpha is the lookup concurrency, 1 <= Alpha <= K.
	Alpha uint32
}

// MaxBits is the width of the keyint.KeyInt key space.
const MaxBits = 160

// New validates and constructs a Config.
func New(b, k, alpha uint32) (Config, error) {
	c := Config{B: b, K: k, Alpha: alpha}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks the B/K/Alpha preconditions spec.md requires.
func (c Config) Validate() error {
	if c.B < 1 || c.B > MaxBits {
		return fmt.Errorf("config: B must be in [1,%d], got %d", MaxBits, c.B)
	}
	if c.K < 1 {
		return fmt.Errorf("config: K must be >= 1, got %d", c.K)
	}
	if c.Alpha < 1 || c.Alpha > c.K {
		return fmt.Errorf("config: Alpha must be in [1,K=%d], got %d", c.K, c.Alpha)
	}
	return nil
}

// Default returns the typical Kademlia parameters referenced in
// spec.md's GLOSSARY (k=20, alpha=3) at full key width.
func Default() Config {
	c, err := New(MaxBits, 20, 3)
	if err != nil {
		panic("config: invalid built-in defaults: " + err.Error())
	}
	return c
}
