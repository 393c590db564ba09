package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ardanlabs/ledger/foundation/blockchain/gossip"
	"github.com/ardanlabs/ledger/foundation/blockchain/gossip/simulation"
	"github.com/spf13/cobra"
)

var simCfg simulation.Config

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a gossip consensus simulation",
	RunE:  simulateRun,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	f := simulateCmd.Flags()
	f.IntVar(&simCfg.Nodes, "nodes", 100, "Number of nodes in the network.")
	f.IntVar(&simCfg.Transactions, "txs", 500, "Number of transactions to seed.")
	f.Int64Var(&simCfg.Seed, "seed", 1, "Seed for the random topology.")
	f.StringVar(&simCfg.HonestKind, "honest", gossip.KindCompliant, "Behavior of the honest nodes.")
	f.StringVar(&simCfg.MaliciousKind, "malicious", gossip.KindMalicious, "Behavior of the malicious nodes.")
	f.Float64Var(&simCfg.Network.PGraph, "p-graph", 0.1, "Probability of a follow edge.")
	f.Float64Var(&simCfg.Network.PMalicious, "p-malicious", 0.15, "Probability a node is malicious.")
	f.Float64Var(&simCfg.Network.PTxDistribution, "p-txdist", 0.01, "Probability a transaction is seeded into a node.")
	f.IntVar(&simCfg.Network.Rounds, "rounds", 10, "Number of gossip rounds.")
}

func simulateRun(cmd *cobra.Command, args []string) error {
	sim, err := simulation.New(simCfg)
	if err != nil {
		return err
	}

	log.Infow("simulate", "status", "started", "nodes", simCfg.Nodes, "txs", simCfg.Transactions, "rounds", simCfg.Network.Rounds)

	result := sim.Run()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tKIND\tCOMMITTED")
	for i := range result.Consensus {
		kind := simCfg.HonestKind
		if result.Malicious[i] {
			kind = simCfg.MaliciousKind
		}
		fmt.Fprintf(w, "%d\t%s\t%d\n", i, kind, len(result.Consensus[i]))
	}
	w.Flush()

	fmt.Printf("honest nodes: %d, agreed: %v\n", len(result.Honest()), result.Agreed())

	return nil
}
