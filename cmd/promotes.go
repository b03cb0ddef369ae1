package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cube2222/rtsql/rtsql"
)

func newPromotesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "promotes <from> <to>",
		Short: "Check whether one type implicitly promotes to another.",
		Example: `rtsql promotes INT DOUBLE
rtsql promotes "NULLABLE(ANY)" "NULLABLE(STRING)"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := rtsql.ParseType(args[0])
			if err != nil {
				return err
			}
			to, err := rtsql.ParseType(args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if path := rtsql.WideningPath(from, to); path != nil {
				steps := make([]string, len(path))
				for i := range path {
					steps[i] = path[i].String()
				}
				fmt.Fprintf(out, "%s promotes to %s\n", from, to)
				fmt.Fprintf(out, "path: %s\n", strings.Join(steps, " -> "))
				return nil
			}

			fmt.Fprintf(out, "%s doesn't promote to %s\n", from, to)
			if common, ok := rtsql.CommonType(from, to); ok {
				fmt.Fprintf(out, "common type: %s\n", common)
			}
			return nil
		},
	}
}
