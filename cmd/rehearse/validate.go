package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rehearse-dev/rehearse/pkg/flowfile"
	"github.com/rehearse-dev/rehearse/pkg/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flow-file>",
	Short: "Check a flow graph for structural problems",
	Long:  `Validates a flow file: start/end nodes, orphaned nodes, dangling edges and decision choices.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jsonOut, _ := cmd.Flags().GetBool("json")

		doc, err := flowfile.Load(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		res := validator.Validate(doc.Nodes, doc.Edges)

		if jsonOut {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(res)
		} else {
			for _, e := range res.Errors {
				fmt.Printf("error: %s\n", e)
			}
			for _, w := range res.Warnings {
				fmt.Printf("warning: %s\n", w)
			}
			fmt.Printf("%d nodes, %d edges, %d orphaned, %d invalid edges\n",
				res.Summary.TotalNodes, res.Summary.TotalEdges,
				res.Summary.OrphanedNodes, res.Summary.InvalidEdges)
		}

		if !res.IsValid {
			os.Exit(1)
		}
		if !jsonOut {
			fmt.Println("Flow is valid! ✅")
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("json", false, "Print the full validation result as JSON")
}
