package cmd

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/cube2222/rtsql/functions"
	"github.com/cube2222/rtsql/graph"
	"github.com/cube2222/rtsql/logical"
	"github.com/cube2222/rtsql/physical"
	"github.com/cube2222/rtsql/rtsql"
)

func newProjectCommand(configPath *string) *cobra.Command {
	var stream string
	var asGraph bool

	cmd := &cobra.Command{
		Use:   "project [field[:label]...]",
		Short: "Typecheck a projection of stream fields and show the typed plan.",
		Long: `Typecheck a projection of stream fields and show the typed plan.
Each argument selects a field of the stream, optionally relabeled as field:label.
All fields are projected when no arguments are given.`,
		Example: `rtsql project --config streams.yaml --stream orders id amount:total
rtsql project --config streams.yaml --stream orders --graph | dot -Tpng > plan.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(*configPath)
			if err != nil {
				return err
			}
			streamConfig, err := cfg.GetStreamConfig(stream)
			if err != nil {
				return errors.Wrapf(err, "unknown stream %s", stream)
			}
			recordType, err := streamConfig.StreamSchema(rtsql.NewInterner())
			if err != nil {
				return err
			}
			strictNulls, err := cfg.StrictNulls()
			if err != nil {
				return errors.Wrap(err, "invalid typecheck.strictNulls setting")
			}
			registry, err := functions.NewBuiltinRegistry()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				for _, field := range recordType.Record.Fields {
					args = append(args, field.Name)
				}
			}

			env := logical.Environment{
				Record:      recordType,
				Functions:   registry,
				StrictNulls: strictNulls,
			}
			pb := physical.NewProjectionBuilder()
			for _, arg := range args {
				name, label := arg, arg
				if i := strings.Index(arg, ":"); i != -1 {
					name, label = arg[:i], arg[i+1:]
				}

				expr, err := logical.NewVariable(name).Typecheck(cmd.Context(), env)
				if err != nil {
					return err
				}
				b, err := pb.Add(expr)
				if err != nil {
					return err
				}
				if err := b.SetSerializationLabel(label); err != nil {
					return err
				}
				if err := b.SetDisplayLabel(name); err != nil {
					return err
				}
			}
			projection, err := pb.Finalize()
			if err != nil {
				return err
			}

			if asGraph {
				g, err := graph.Show(projection.Visualize())
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), g.String())
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), projection.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&stream, "stream", "", "Name of the stream to project.")
	cmd.Flags().BoolVar(&asGraph, "graph", false, "Print the typed plan as a graphviz dot graph.")
	cobra.CheckErr(cmd.MarkFlagRequired("stream"))

	return cmd
}
