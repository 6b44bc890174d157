package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	var root rootFlags

	rootCmd := &cobra.Command{
		Use:          "bubbler",
		Short:        "Bubble detection and removal for de Bruijn sequence graphs",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&root.configPath, "config", "", "Config file path")
	rootCmd.PersistentFlags().StringVar(&root.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&root.logFormat, "log-format", "", "Log format (text, json)")

	var sf simplifyFlags
	simplifyCmd := &cobra.Command{
		Use:   "simplify",
		Short: "Remove bubbles until the graph stops changing",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(root, cmd, &sf)
			if err != nil {
				return err
			}
			return runSimplify(cmd.Context(), env, sf)
		},
	}
	simplifyCmd.Flags().StringVar(&sf.input, "input", "", "Input graph (JSON)")
	simplifyCmd.Flags().StringVar(&sf.output, "output", "", "Write the simplified graph here")
	simplifyCmd.Flags().StringVar(&sf.truth, "truth", "", "Multiplicity table (JSON) used to score decisions")
	simplifyCmd.Flags().StringVar(&sf.mode, "mode", "", "Pass mode (extract, fused)")
	simplifyCmd.Flags().IntVar(&sf.maxPathLength, "max-path-length", 0, "Exploration bound in bases (0 = 2*k)")
	simplifyCmd.Flags().Float64Var(&sf.cutoff, "cutoff", 0, "Coverage cutoff")
	simplifyCmd.Flags().IntVar(&sf.maxRounds, "max-rounds", 0, "Maximum passes (0 = until nothing changes)")
	simplifyCmd.Flags().BoolVar(&sf.verify, "verify", false, "Check arc symmetry after every pass")
	simplifyCmd.Flags().BoolVar(&sf.excise, "excise", false, "Remove the whole pass-through run of a deleted branch")
	simplifyCmd.Flags().BoolVar(&sf.metrics, "metrics", false, "Print OpenTelemetry metrics to stderr on exit")
	simplifyCmd.Flags().BoolVar(&sf.jsonReport, "json", false, "Output the run report as JSON")
	simplifyCmd.Flags().StringVar(&sf.listen, "listen", "", "Serve the live run monitor on this address (e.g. :8090)")

	var (
		statsInput string
		statsJSON  bool
	)
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print graph statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(root, cmd, nil)
			if err != nil {
				return err
			}
			return runStats(env, firstNonEmpty(statsInput, env.cfg.Graph.Input), statsJSON)
		},
	}
	statsCmd.Flags().StringVar(&statsInput, "input", "", "Input graph (JSON)")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output statistics as JSON")

	var (
		exportInput  string
		exportOutput string
		exportFormat string
	)
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Render the graph as DOT, Mermaid or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(root, cmd, nil)
			if err != nil {
				return err
			}
			return runExport(env, firstNonEmpty(exportInput, env.cfg.Graph.Input), exportOutput, exportFormat)
		},
	}
	exportCmd.Flags().StringVar(&exportInput, "input", "", "Input graph (JSON)")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "Output file (default stdout)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "dot", "Output format (dot, mermaid, json)")

	var df distanceFlags
	distanceCmd := &cobra.Command{
		Use:   "distance",
		Short: "Shortest distance in bases between two nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(root, cmd, nil)
			if err != nil {
				return err
			}
			df.input = firstNonEmpty(df.input, env.cfg.Graph.Input)
			return runDistance(env, df)
		},
	}
	distanceCmd.Flags().StringVar(&df.input, "input", "", "Input graph (JSON)")
	distanceCmd.Flags().Int64Var(&df.from, "from", 0, "Source node identifier (signed)")
	distanceCmd.Flags().Int64Var(&df.to, "to", 0, "Target node identifier (signed)")
	distanceCmd.Flags().IntVar(&df.limit, "limit", -1, "Stop searching beyond this many bases (-1 = no limit)")
	distanceCmd.Flags().BoolVar(&df.showPath, "path", false, "Print the nodes along the shortest path")
	_ = distanceCmd.MarkFlagRequired("from")
	_ = distanceCmd.MarkFlagRequired("to")

	var (
		storeInput string
		storeName  string
	)
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Store a graph in Neo4j",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(root, cmd, nil)
			if err != nil {
				return err
			}
			return runStore(cmd.Context(), env, firstNonEmpty(storeInput, env.cfg.Graph.Input), firstNonEmpty(storeName, env.cfg.Neo4j.GraphName))
		},
	}
	storeCmd.Flags().StringVar(&storeInput, "input", "", "Input graph (JSON)")
	storeCmd.Flags().StringVar(&storeName, "name", "", "Graph name in Neo4j")

	var (
		fetchName   string
		fetchOutput string
	)
	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Load a graph from Neo4j and write it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(root, cmd, nil)
			if err != nil {
				return err
			}
			return runFetch(cmd.Context(), env, firstNonEmpty(fetchName, env.cfg.Neo4j.GraphName), firstNonEmpty(fetchOutput, env.cfg.Graph.Output))
		},
	}
	fetchCmd.Flags().StringVar(&fetchName, "name", "", "Graph name in Neo4j")
	fetchCmd.Flags().StringVar(&fetchOutput, "output", "", "Output file (default stdout)")

	var (
		diffBefore string
		diffAfter  string
		diffJSON   bool
	)
	diffCmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare two versions of a graph node by node",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(root, cmd, nil)
			if err != nil {
				return err
			}
			return runDiff(env, firstNonEmpty(diffBefore, env.cfg.Graph.Input), firstNonEmpty(diffAfter, env.cfg.Graph.Output), diffJSON)
		},
	}
	diffCmd.Flags().StringVar(&diffBefore, "before", "", "Graph before simplification (default graph.input)")
	diffCmd.Flags().StringVar(&diffAfter, "after", "", "Graph after simplification (default graph.output)")
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Output the diff as JSON")

	rootCmd.AddCommand(simplifyCmd, statsCmd, exportCmd, distanceCmd, diffCmd, storeCmd, fetchCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
