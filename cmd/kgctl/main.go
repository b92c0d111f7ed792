// Command kgctl drives the developer knowledge graph's ingestion
// pipeline and exposes its query/validation surface from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var cfgPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "kgctl",
	Short:   "Developer knowledge graph ingestion and query engine",
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config YAML (default: search .kgraph/config.yaml)")
	rootCmd.SetVersionTemplate(`kgctl {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)
	rootCmd.AddCommand(ingestCmd, statusCmd, stopCmd, reportCmd, validateCmd, subgraphCmd)
}
