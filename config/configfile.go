package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned when a configuration file line cannot be
// parsed, matching spec.md's shared InvalidFormat error kind.
var ErrInvalidFormat = errors.New("config: invalid format")

// FileConfig is the driver-level configuration file contents: the
// Config parameters plus the node count, per spec.md §6's persistence
// format (`n_bits N`, `k K`, `alpha A`, `n_nodes N` lines).
type FileConfig struct {
	Config
	NNodes int
}

// ParseFile reads the textual configuration block spec.md §6 defines
// (one `key value` pair per line) and returns the validated Config plus
// the seeded node count. Every one of n_bits/k/alpha/n_nodes is
// required; an unknown key, a malformed line, or a missing field fails
// with ErrInvalidFormat.
func ParseFile(r io.Reader) (FileConfig, error) {
	var b, k, alpha, n uint64
	var haveB, haveK, haveAlpha, haveN bool

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return FileConfig{}, fmt.Errorf("config: parse line %q: %w", line, ErrInvalidFormat)
		}
		v, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return FileConfig{}, fmt.Errorf("config: parse line %q: %w", line, ErrInvalidFormat)
		}
		switch fields[0] {
		case "n_bits":
			b, haveB = v, true
		case "k":
			k, haveK = v, true
		case "alpha":
			alpha, haveAlpha = v, true
		case "n_nodes":
			n, haveN = v, true
		default:
			return FileConfig{}, fmt.Errorf("config: unknown key %q: %w", fields[0], ErrInvalidFormat)
		}
	}
	if err := scanner.Err(); err != nil {
		return FileConfig{}, fmt.Errorf("config: read config file: %w", err)
	}
	if !haveB || !haveK || !haveAlpha || !haveN {
		return FileConfig{}, fmt.Errorf("config: missing required field(s): %w", ErrInvalidFormat)
	}

	cfg, err := New(uint32(b), uint32(k), uint32(alpha))
	if err != nil {
		return FileConfig{}, err
	}
	return FileConfig{Config: cfg, NNodes: int(n)}, nil
}
