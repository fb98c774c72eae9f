package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petasbytes/toolchat/tools"
)

func newToolsCmd() *cobra.Command {
	var schema bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools offered to the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := tools.DefaultRegistry()
			out := cmd.OutOrStdout()
			if schema {
				for _, d := range reg.Definitions() {
					m, err := tools.SchemaMap(d.InputSchema)
					if err != nil {
						return err
					}
					b, err := json.MarshalIndent(map[string]any{
						"name":        d.Name,
						"description": d.Description,
						"input":       m,
					}, "", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintln(out, string(b))
				}
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, d := range reg.Definitions() {
				fmt.Fprintf(w, "%s\t%s\n", d.Name, d.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&schema, "schema", false, "print each tool's JSON input schema")
	return cmd
}
