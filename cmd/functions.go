package cmd

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/cube2222/rtsql/functions"
	"github.com/cube2222/rtsql/rtsql"
)

func newFunctionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the built-in functions and their overloads.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := functions.NewBuiltinRegistry()
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"name", "signature", "nulls", "description"})
			table.SetAutoFormatHeaders(false)
			table.SetColWidth(48)

			for _, name := range registry.Names() {
				for _, fn := range registry.Overloads(name) {
					nulls := "explicit"
					if fn.Strict() {
						nulls = "propagated"
					}
					var description string
					if described, ok := fn.(interface{ Description() string }); ok {
						description = described.Description()
					}
					table.Append([]string{
						name,
						rtsql.NewFunction(fn.ReturnType(), fn.ArgumentTypes()...).String(),
						nulls,
						description,
					})
				}
			}
			table.Render()

			return nil
		},
	}
}
