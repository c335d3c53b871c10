// Command kadsim is the composition root for running a single
// simulated Kademlia network: it parses the driver's CLI flags, builds
// a Network, seeds it, and optionally dumps or renders the result. It
// does not implement the interactive shell described alongside it;
// that remains a separate, unimplemented collaborator.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/kadnet/kadsim/config"
	"github.com/kadnet/kadsim/logging"
	"github.com/kadnet/kadsim/simulator"
	"github.com/kadnet/kadsim/transport"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("kadsim", flag.ContinueOnError)

	b := fs.Uint("b", 160, "key bit-width")
	k := fs.Uint("k", 20, "replication factor")
	alpha := fs.Uint("a", 3, "lookup concurrency")
	nNodes := fs.Int("n", 100, "number of simulated nodes")
	conns := fs.Int("c", 8, "initial connections per node")
	nEntries := fs.Int("N", 0, "number of seeded entries")
	seed := fs.Uint64("S", 1, "PRNG seed")
	configFile := fs.String("f", "", "load n_bits/k/alpha/n_nodes from this config file, overriding -b/-k/-a/-n")
	bootstrap := fs.String("B", "", "bootstrap list (unused by the in-process simulator)")
	version := fs.Bool("V", false, "print version and exit")
	dumpFile := fs.String("dump", "", "write a config/routing-table dump to this file")
	graphviz := fs.String("graphviz", "", "write a graphviz rendering to this file")
	transportKind := fs.String("transport", "inprocess", "transport variant: inprocess or network")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *version {
		fmt.Println("kadsim (simulator build)")
		return 0
	}
	_ = bootstrap // bootstrap lists are a real-network concern; the in-process simulator ignores it.

	log := logging.New("cmd/kadsim", "run")

	cfgB, cfgK, cfgAlpha, cfgNNodes := uint32(*b), uint32(*k), uint32(*alpha), *nNodes
	if *configFile != "" {
		f, err := os.Open(*configFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fc, err := config.ParseFile(f)
		f.Close()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		cfgB, cfgK, cfgAlpha, cfgNNodes = fc.B, fc.K, fc.Alpha, fc.NNodes
	}

	cfg, err := config.New(cfgB, cfgK, cfgAlpha)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	rng := rand.New(rand.NewPCG(*seed, *seed))

	var factory transport.Factory
	switch *transportKind {
	case "inprocess":
		factory = transport.RegistryFactory{Registry: transport.NewRegistry()}
	case "network":
		netFactory := &transport.NetworkFactory{}
		defer netFactory.Close()
		factory = netFactory
	default:
		fmt.Fprintf(os.Stderr, "kadsim: unknown -transport %q (want inprocess or network)\n", *transportKind)
		return 1
	}

	net := simulator.New(cfg, rng, factory)

	if err := net.SeedPeers(cfgNNodes); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := net.SeedConnections(*conns); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *nEntries > 0 {
		if err := net.SeedEntries(*nEntries); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		wrong, total := net.CheckEntries()
		log.WithField("wrong", wrong).WithField("total", total).Info("checked seeded entries")
	}

	if *dumpFile != "" {
		f, err := os.Create(*dumpFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer f.Close()
		if err := net.Dump(f); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	if *graphviz != "" {
		f, err := os.Create(*graphviz)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer f.Close()
		if err := net.Graphviz(f); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	return 0
}
