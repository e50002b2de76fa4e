package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rehearse-dev/rehearse/internal/presentation/graph"
	"github.com/rehearse-dev/rehearse/pkg/flowfile"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <flow-file>",
	Short: "Export the flow graph visualization",
	Long:  `Reads a flow file and outputs a Mermaid diagram (graph TD) representing the conversation logic.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		doc, err := flowfile.Load(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Print(graph.GenerateMermaid(doc.Nodes, doc.Edges, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
